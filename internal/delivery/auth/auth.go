package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"chess_mentor/internal/adapters"
	errs "chess_mentor/internal/errors"
	"chess_mentor/internal/httpresponse"
	"chess_mentor/internal/repository"
	authUC "chess_mentor/internal/usecase/auth"
	"chess_mentor/internal/utils"
)

type AuthHandler struct {
	usecaseHandler *authUC.AuthUsecaseHandler
	log            *zap.SugaredLogger
}

type RegisterRequest struct {
	Username string `json:"Username"`
	Email    string `json:"Email"`
	Password string `json:"Password"`
}

type LoginRequest struct {
	Username string `json:"Username"`
	Password string `json:"Password"`
}

func NewAuthHandler(redis *adapters.AdapterRedis, mongo *adapters.AdapterMongo, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		usecaseHandler: authUC.NewUserUsecaseHandler(
			repository.NewMongoUserStorage(mongo, log),
			repository.NewSessionRedisStorage(redis.GetClient(), log),
		),
		log: log,
	}
}

func (a *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.log.Error("Register: only POST method is allowed")
		httpresponse.WriteResponseWithStatus(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}

	requestBody, err := utils.ReadRequestBody(r)
	if err != nil {
		a.log.Error("Register: failed to read request body: ", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: "Failed to read request body"})
		return
	}

	var registerData RegisterRequest
	if err := json.Unmarshal(requestBody, &registerData); err != nil {
		a.log.Error("Register: malformed JSON: ", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: httpresponse.MALFORMEDJSON_errorDesc})
		return
	}

	sessionID, err := a.usecaseHandler.RegisterUser(registerData.Username, registerData.Email, registerData.Password)
	if err != nil {
		if errors.Is(err, errs.ErrUserExists) {
			a.log.Errorf("Register: user already exists: %s", registerData.Username)
			httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
				httpresponse.ErrorResponse{ErrorDescription: "User with this name already exists"})
			return
		}
		a.log.Error("Register: internal error: ", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusInternalServerError,
			httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	setSessionCookie(w, sessionID)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, nil)
}

func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.log.Error("Login: only POST method is allowed")
		httpresponse.WriteResponseWithStatus(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}

	requestBody, err := utils.ReadRequestBody(r)
	if err != nil {
		a.log.Error("Login: failed to read request body: ", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: "Failed to read request body"})
		return
	}

	var loginData LoginRequest
	if err := json.Unmarshal(requestBody, &loginData); err != nil {
		a.log.Error("Login: malformed JSON: ", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: httpresponse.MALFORMEDJSON_errorDesc})
		return
	}

	sessionID, err := a.usecaseHandler.LoginUser(loginData.Username, loginData.Password)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrUserNotFound):
			a.log.Errorf("Login: user not found: %s", loginData.Username)
			httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
				httpresponse.ErrorResponse{ErrorDescription: "User not found"})
			return
		case errors.Is(err, errs.ErrWrongPassword):
			a.log.Errorf("Login: wrong password for user: %s", loginData.Username)
			httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
				httpresponse.ErrorResponse{ErrorDescription: "Wrong password"})
			return
		default:
			a.log.Error("Login: internal error: ", err)
			httpresponse.WriteResponseWithStatus(w, http.StatusInternalServerError,
				httpresponse.ErrorResponse{ErrorDescription: err.Error()})
			return
		}
	}

	setSessionCookie(w, sessionID)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, nil)
}

func (a *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionCookie, err := r.Cookie("sessionID")
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			a.log.Warn("Logout: no cookie provided")
			httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
				httpresponse.ErrorResponse{ErrorDescription: http.ErrNoCookie.Error()})
			return
		}
		a.log.Error("Logout: error retrieving cookie: ", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	if err := a.usecaseHandler.LogoutUser(sessionCookie.Value); err != nil {
		a.log.Errorf("Logout: failed to logout sessionID=%s: %v", sessionCookie.Value, err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, nil)
}

// GetUserID resolves the session cookie to a user id. On a missing or expired
// session it writes the error response itself and returns "".
func (a *AuthHandler) GetUserID(w http.ResponseWriter, r *http.Request) string {
	sessionCookie, err := r.Cookie("sessionID")
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			a.log.Warn("GetUserID: no sessionID cookie")
			httpresponse.WriteResponseWithStatus(w, http.StatusUnauthorized,
				httpresponse.ErrorResponse{ErrorDescription: "sessionID cookie not found"})
			return ""
		}
		a.log.Error("GetUserID: error retrieving cookie: ", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return ""
	}

	userID, err := a.usecaseHandler.GetUserIdFromSession(sessionCookie.Value)
	if err != nil {
		a.log.Warnf("GetUserID: stale session: %v", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusUnauthorized,
			httpresponse.ErrorResponse{ErrorDescription: "Session is expired or unknown"})
		return ""
	}
	return userID
}

func setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "sessionID",
		Value:    sessionID,
		Expires:  time.Now().Add(10 * time.Hour),
		Secure:   true,
		HttpOnly: true,
	})
}
