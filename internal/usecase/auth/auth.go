package auth

import (
	userDomain "chess_mentor/internal/domain/user"
	errs "chess_mentor/internal/errors"
	"chess_mentor/internal/random"
	"chess_mentor/internal/repository"
)

type AuthUsecaseHandler struct {
	userStorage    UserStorage
	sessionStorage SessionStorage
}

func NewUserUsecaseHandler(u UserStorage, s SessionStorage) *AuthUsecaseHandler {
	return &AuthUsecaseHandler{
		userStorage:    u,
		sessionStorage: s,
	}
}

type UserStorage interface {
	CheckExists(username string) bool
	GetUser(username string) (userDomain.User, bool)
	GetUserByID(id string) (userDomain.User, bool)
	CreateUser(username, email, password string) (userDomain.User, error)
}

type SessionStorage interface {
	GetUserIdBySession(sessionID string) (userID string, ok bool)
	StoreSession(sessionID string, userID string)
	DeleteSession(sessionID string) (ok bool)
}

func (a *AuthUsecaseHandler) CheckAuthorized(sessionID string) (ok bool, user userDomain.User) {
	userID, found := a.sessionStorage.GetUserIdBySession(sessionID)
	if !found {
		return false, userDomain.User{}
	}
	user, ok = a.userStorage.GetUserByID(userID)
	if !ok {
		return false, userDomain.User{}
	}
	return ok, user
}

func (a *AuthUsecaseHandler) RegisterUser(username, email, password string) (sessionID string, err error) {
	if a.userStorage.CheckExists(username) {
		return "", errs.ErrUserExists
	}
	newUser, err := a.userStorage.CreateUser(username, email, password)
	if err != nil {
		return "", err
	}
	sessionID = random.RandString(64)
	a.sessionStorage.StoreSession(sessionID, newUser.ID)
	return sessionID, nil
}

func (a *AuthUsecaseHandler) LoginUser(providedUsername string, providedPassword string) (sessionID string, err error) {
	exists := a.userStorage.CheckExists(providedUsername)
	if !exists {
		return "", errs.ErrUserNotFound
	}
	userFromDb, _ := a.userStorage.GetUser(providedUsername)
	if repository.HashPassword(providedPassword, userFromDb.PasswordSalt) != userFromDb.PasswordHash {
		return "", errs.ErrWrongPassword
	}
	sessionID = random.RandString(64)
	a.sessionStorage.StoreSession(sessionID, userFromDb.ID)
	return sessionID, nil
}

func (a *AuthUsecaseHandler) GetUserIdFromSession(sessionID string) (string, error) {
	userID, ok := a.sessionStorage.GetUserIdBySession(sessionID)
	if !ok {
		return "", errs.ErrSessionNotFound
	}
	return userID, nil
}

// returns nil or ErrSessionNotFound
func (a *AuthUsecaseHandler) LogoutUser(sessionID string) (err error) {
	_, ok := a.sessionStorage.GetUserIdBySession(sessionID)
	if !ok {
		return errs.ErrSessionNotFound
	}
	ok = a.sessionStorage.DeleteSession(sessionID)
	if !ok {
		return errs.ErrSessionNotFound
	}
	return nil
}
