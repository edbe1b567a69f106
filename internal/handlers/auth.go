package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-auth-api/internal/auth"
	"github.com/yukikurage/task-auth-api/internal/dto"
	apierrors "github.com/yukikurage/task-auth-api/internal/errors"
	"github.com/yukikurage/task-auth-api/internal/logging"
	"github.com/yukikurage/task-auth-api/internal/middleware"
	"github.com/yukikurage/task-auth-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
	recorder    middleware.AuthFailureRecorder
}

// NewAuthHandler creates a new AuthHandler. Failed logins are counted on
// recorder when it is not nil.
func NewAuthHandler(authService *services.AuthService, recorder middleware.AuthFailureRecorder) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		recorder:    recorder,
	}
}

// Register creates a new user.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.ErrCodeInvalidFormat, apierrors.MsgInvalidBody)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), services.RegisterInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	logging.FromContext(c).WithField("user_id", user.ID).Info("User registered")
	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// Login checks credentials and returns a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.ErrCodeInvalidFormat, apierrors.MsgInvalidBody)
		return
	}

	token, err := h.authService.Login(c.Request.Context(), services.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{Token: token})
}

func (h *AuthHandler) respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUsernameRequired):
		apierrors.BadRequest(c, apierrors.ErrCodeMissingField, "Username is required")
	case errors.Is(err, services.ErrPasswordRequired):
		apierrors.BadRequest(c, apierrors.ErrCodeMissingField, "Password is required")
	case errors.Is(err, services.ErrCredentialsRequired):
		apierrors.BadRequest(c, apierrors.ErrCodeMissingField, "Username and password are required")
	case errors.Is(err, auth.ErrPasswordTooLong):
		apierrors.BadRequest(c, apierrors.ErrCodeInvalidInput, "Password must be at most 72 bytes")
	case errors.Is(err, services.ErrUsernameTaken):
		apierrors.BadRequest(c, apierrors.ErrCodeAlreadyExists, "Username already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		logging.FromContext(c).WithError(err).Info("Login rejected")
		if h.recorder != nil {
			h.recorder.AuthFailure("invalid_credentials")
		}
		apierrors.Unauthorized(c, apierrors.ErrCodeInvalidCredentials, "Invalid username or password")
	default:
		logging.FromContext(c).WithError(err).Error("Authentication request failed")
		apierrors.InternalError(c)
	}
}
