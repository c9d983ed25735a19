package handlers

import (
	"errors"
	"net/http"

	"tododash-api/internal/auth"
	"tododash-api/internal/middleware"
	"tododash-api/internal/models"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "Invalid request payload",
			Details: map[string]interface{}{"error": err.Error()},
		})
		return
	}

	if err := auth.ValidatePasswordRequirements(req.Password); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    "INVALID_PASSWORD",
			Message: err.Error(),
		})
		return
	}

	user, err := h.authService.Register(&req)
	if err != nil {
		if errors.Is(err, auth.ErrUserAlreadyExists) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Code:    "USER_EXISTS",
				Message: "A user with this email already exists",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    "REGISTRATION_FAILED",
			Message: "Failed to register user",
		})
		return
	}

	// Auto-login after registration
	authResponse, err := h.authService.Login(&models.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		// Registration succeeded but login failed - still return success
		c.JSON(http.StatusCreated, models.UserInfo{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
		})
		return
	}

	c.JSON(http.StatusCreated, authResponse)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "Invalid request payload",
			Details: map[string]interface{}{"error": err.Error()},
		})
		return
	}

	authResponse, err := h.authService.Login(&req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Code:    "INVALID_CREDENTIALS",
				Message: "Invalid email or password",
			})
			return
		}

		if errors.Is(err, auth.ErrUserInactive) {
			c.JSON(http.StatusForbidden, models.ErrorResponse{
				Code:    "USER_INACTIVE",
				Message: "User account is inactive",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    "LOGIN_FAILED",
			Message: "Failed to login",
		})
		return
	}

	c.JSON(http.StatusOK, authResponse)
}

// RefreshToken handles POST /auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req models.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "Invalid request payload",
			Details: map[string]interface{}{"error": err.Error()},
		})
		return
	}

	authResponse, err := h.authService.RefreshAccessToken(req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrRefreshTokenInvalid) {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Code:    "INVALID_REFRESH_TOKEN",
				Message: "Refresh token is invalid or expired",
			})
			return
		}

		if errors.Is(err, auth.ErrUserInactive) {
			c.JSON(http.StatusForbidden, models.ErrorResponse{
				Code:    "USER_INACTIVE",
				Message: "User account is inactive",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    "REFRESH_FAILED",
			Message: "Failed to refresh token",
		})
		return
	}

	c.JSON(http.StatusOK, authResponse)
}

// Logout handles POST /auth/logout by revoking the refresh token
func (h *AuthHandler) Logout(c *gin.Context) {
	var req models.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "Invalid request payload",
			Details: map[string]interface{}{"error": err.Error()},
		})
		return
	}

	if err := h.authService.RevokeRefreshToken(req.RefreshToken); err != nil {
		if errors.Is(err, auth.ErrRefreshTokenInvalid) {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Code:    "INVALID_REFRESH_TOKEN",
				Message: "Refresh token is invalid",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    "LOGOUT_FAILED",
			Message: "Failed to logout",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetProfile handles GET /auth/profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthenticated(c)
		return
	}

	user, err := h.authService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Code:    "USER_NOT_FOUND",
				Message: "User not found",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    "PROFILE_FETCH_FAILED",
			Message: "Failed to fetch profile",
		})
		return
	}

	c.JSON(http.StatusOK, models.UserInfo{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	})
}
