package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dchat/internal/apperr"
	"dchat/internal/auth"
	"dchat/internal/models"
	"dchat/internal/repository"
	"dchat/internal/validate"
)

// AuthHandler serves the two public endpoints: register and login. Both hand
// back a bearer token on success; a successful login additionally appends a
// USER_LOGGED_IN activity.
type AuthHandler struct {
	users      repository.UserRepository
	activities repository.ActivityRepository
	jwtSecret  string
	tokenTTL   time.Duration
	logger     *zap.Logger

	now func() int64
}

func NewAuthHandler(
	users repository.UserRepository,
	activities repository.ActivityRepository,
	jwtSecret string,
	tokenTTL time.Duration,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:      users,
		activities: activities,
		jwtSecret:  jwtSecret,
		tokenTTL:   tokenTTL,
		logger:     logger,
		now:        func() int64 { return time.Now().UnixMilli() },
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken string  `json:"accessToken,omitempty"`
	Error       *string `json:"error"`
}

// Register handles POST /v1/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, http.StatusBadRequest, errInvalidBody)
		return
	}

	username, password, err := h.validateCredentials(req)
	if err != nil {
		writeError(c, h.logger, http.StatusBadRequest, err)
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		writeError(c, h.logger, http.StatusInternalServerError, err)
		return
	}

	user, err := h.users.Create(c.Request.Context(), username, hash)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			err = apperr.Validation("Username already in use")
		}
		writeError(c, h.logger, http.StatusBadRequest, err)
		return
	}

	token, err := auth.GenerateToken(user.ID, h.jwtSecret, h.tokenTTL)
	if err != nil {
		writeError(c, h.logger, http.StatusInternalServerError, err)
		return
	}

	h.logger.Info("user registered", zap.Int64("user_id", user.ID))
	c.JSON(http.StatusCreated, authResponse{AccessToken: token})
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, http.StatusBadRequest, errInvalidBody)
		return
	}

	username, password, err := h.validateCredentials(req)
	if err != nil {
		writeError(c, h.logger, http.StatusBadRequest, err)
		return
	}

	user, err := h.users.GetByUsername(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = apperr.Validation("Invalid username")
		}
		writeError(c, h.logger, http.StatusBadRequest, err)
		return
	}

	if !auth.CheckPassword(user.Password, password) {
		writeError(c, h.logger, http.StatusBadRequest, apperr.Validation("Invalid password"))
		return
	}

	if _, err := h.activities.Create(c.Request.Context(), user.ID, models.ActivityUserLoggedIn, h.now()); err != nil {
		writeError(c, h.logger, http.StatusInternalServerError, err)
		return
	}

	token, err := auth.GenerateToken(user.ID, h.jwtSecret, h.tokenTTL)
	if err != nil {
		writeError(c, h.logger, http.StatusInternalServerError, err)
		return
	}

	h.logger.Info("user logged in", zap.Int64("user_id", user.ID))
	c.JSON(http.StatusOK, authResponse{AccessToken: token})
}

func (h *AuthHandler) validateCredentials(req credentialsRequest) (string, string, error) {
	username, err := validate.Username(req.Username)
	if err != nil {
		return "", "", err
	}
	password, err := validate.Password(req.Password)
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}
