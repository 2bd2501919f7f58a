package adapters

import (
	"github.com/DoctorRyner/mistral-go"
)

// LlmAdapter holds the mistral client used for long-form move commentary in
// review mode. The feature is optional: with no api key the adapter stays nil
// and review falls back to rule-table critiques only.
type LlmAdapter struct {
	Client   *mistral.MistralClient
	AgentKey string
}

func NewLlmAdapter(apiKey string, agentKey string) *LlmAdapter {
	if apiKey == "" {
		return nil
	}
	return &LlmAdapter{
		Client:   mistral.NewMistralClientDefault(apiKey),
		AgentKey: agentKey,
	}
}
