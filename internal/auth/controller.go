package auth

import (
	"errors"
	"net/http"

	"shopino/internal/shared/config"
	"shopino/internal/shared/utils/response"
	"shopino/pkg/logger"
	"shopino/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// CodeRefreshExpired is the machine-readable code clients key their
// terminal "stop retrying, re-login" handling on.
const CodeRefreshExpired = "REFRESH_TOKEN_EXPIRED"

type Controller struct {
	service   Service
	config    *config.Config
	validator *validator.Validate
	logger    *logger.Logger
}

func NewController(service Service, cfg *config.Config) *Controller {
	return &Controller{
		service:   service,
		config:    cfg,
		validator: validator.New(),
		logger:    logger.GetDefault(),
	}
}

func (c *Controller) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Validation failed")
		return
	}

	if fieldErrors := validateRegister(&req); len(fieldErrors) > 0 {
		response.ValidationError(ctx, http.StatusBadRequest, "Validation failed", fieldErrors)
		return
	}

	resp, refreshToken, err := c.service.Register(ctx.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserAlreadyExists):
			response.Error(ctx, http.StatusConflict, "User with this email already exists")
		default:
			c.logger.ErrorWithContext(ctx.Request.Context(), "register failed", err, nil)
			response.Error(ctx, http.StatusInternalServerError, "Failed to register user")
		}
		return
	}

	c.setRefreshCookie(ctx, refreshToken)
	c.logger.LogAuthSuccess(ctx.Request.Context(), resp.User.ID, "register")
	response.Success(ctx, http.StatusCreated, "User registered successfully", resp)
}

func (c *Controller) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Validation failed")
		return
	}

	if res := validation.Validate(req.Email, validation.KindEmail); !res.Valid {
		response.ValidationError(ctx, http.StatusBadRequest, "Validation failed",
			map[string]string{"email": res.Message})
		return
	} else {
		req.Email = res.Sanitized
	}

	resp, refreshToken, err := c.service.Login(ctx.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			c.logger.LogAuthFailure(ctx.Request.Context(), "invalid credentials", ctx.ClientIP())
			response.Error(ctx, http.StatusUnauthorized, "Invalid email or password")
		default:
			c.logger.ErrorWithContext(ctx.Request.Context(), "login failed", err, nil)
			response.Error(ctx, http.StatusInternalServerError, "Failed to login")
		}
		return
	}

	c.setRefreshCookie(ctx, refreshToken)
	c.logger.LogAuthSuccess(ctx.Request.Context(), resp.User.ID, "login")
	response.Success(ctx, http.StatusOK, "Login successful", resp)
}

// Refresh reads the refresh token from the cookie, never the body.
func (c *Controller) Refresh(ctx *gin.Context) {
	refreshToken, err := ctx.Cookie(c.config.Cookie.Name)
	if err != nil || refreshToken == "" {
		response.ErrorWithCode(ctx, http.StatusForbidden, "Refresh token missing", CodeRefreshExpired)
		return
	}

	resp, newRefreshToken, err := c.service.Refresh(ctx.Request.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrRefreshInvalid):
			c.clearRefreshCookie(ctx)
			c.logger.LogAuthFailure(ctx.Request.Context(), "refresh token rejected", ctx.ClientIP())
			response.ErrorWithCode(ctx, http.StatusForbidden, "Refresh token expired or invalid", CodeRefreshExpired)
		default:
			c.logger.ErrorWithContext(ctx.Request.Context(), "refresh failed", err, nil)
			response.Error(ctx, http.StatusInternalServerError, "Failed to refresh token")
		}
		return
	}

	c.setRefreshCookie(ctx, newRefreshToken)
	response.Success(ctx, http.StatusOK, "Token refreshed successfully", resp)
}

func (c *Controller) Logout(ctx *gin.Context) {
	userID, exists := ctx.Get("user_id")
	if !exists {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req LogoutRequest
	ctx.ShouldBindJSON(&req) // Optional body

	if err := c.service.Logout(ctx.Request.Context(), userID.(string), req.LogoutAll); err != nil {
		c.logger.ErrorWithContext(ctx.Request.Context(), "logout failed", err, nil)
		response.Error(ctx, http.StatusInternalServerError, "Failed to logout")
		return
	}

	c.clearRefreshCookie(ctx)
	c.logger.LogTokenRevoked(ctx.Request.Context(), userID.(string), req.LogoutAll)
	response.Success(ctx, http.StatusOK, "Logged out successfully", nil)
}

func (c *Controller) Profile(ctx *gin.Context) {
	userID, exists := ctx.Get("user_id")
	if !exists {
		response.Error(ctx, http.StatusUnauthorized, "User not authenticated")
		return
	}

	user, err := c.service.Profile(ctx.Request.Context(), userID.(string))
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			response.Error(ctx, http.StatusUnauthorized, "User not found")
		default:
			c.logger.ErrorWithContext(ctx.Request.Context(), "profile fetch failed", err, nil)
			response.Error(ctx, http.StatusInternalServerError, "Failed to fetch profile")
		}
		return
	}

	response.Success(ctx, http.StatusOK, "User data retrieved successfully", user)
}

// validateRegister runs the deep field validators and rewrites fields
// with their sanitized forms. Returns a field→message map on failure.
func validateRegister(req *RegisterRequest) map[string]string {
	fieldErrors := make(map[string]string)

	if res := validation.Validate(req.Email, validation.KindEmail); !res.Valid {
		fieldErrors["email"] = res.Message
	} else {
		req.Email = res.Sanitized
	}

	if res := validation.Validate(req.Password, validation.KindPassword); !res.Valid {
		fieldErrors["password"] = res.Message
	}

	if res := validation.Validate(req.FirstName, validation.KindName); !res.Valid {
		fieldErrors["first_name"] = res.Message
	}

	if res := validation.Validate(req.LastName, validation.KindName); !res.Valid {
		fieldErrors["last_name"] = res.Message
	}

	if res := validation.Validate(req.Phone, validation.KindPhone); !res.Valid {
		fieldErrors["phone"] = res.Message
	} else {
		req.Phone = res.Sanitized
	}

	return fieldErrors
}
