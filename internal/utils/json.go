// Package utils holds small HTTP request helpers shared by the delivery layer.
package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DecodeJSONRequest decodes the request body into dst, rejecting fields the
// destination type does not declare.
func DecodeJSONRequest(r *http.Request, dst interface{}) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("malformed request body: %w", err)
	}
	return nil
}

// ReadRequestBody drains and closes the request body.
func ReadRequestBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	return body, nil
}
