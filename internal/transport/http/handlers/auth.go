package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rasifabdulrazak/talks-qa-llm/internal/core/port"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/infra/security"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/transport/http/middleware"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/usecase"
)

// AuthHandler exposes login and logout endpoints for the token lifecycle.
type AuthHandler struct {
	credentials port.CredentialVerifier
	tokens      *usecase.TokenService
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(credentials port.CredentialVerifier, tokens *usecase.TokenService) *AuthHandler {
	return &AuthHandler{credentials: credentials, tokens: tokens}
}

// RegisterRoutes binds auth routes to the provided router group. The logout
// route requires a valid bearer token since it revokes that token.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	if r == nil {
		return
	}

	r.POST("/login", h.Login)
	if authMiddleware != nil {
		r.POST("/logout", authMiddleware, h.Logout)
	}
}

// Login verifies credentials and issues a bearer session token.
func (h *AuthHandler) Login(c *gin.Context) {
	if h.credentials == nil || h.tokens == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "authentication unavailable"))
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "account and secret are required"))
		return
	}

	subject, err := h.credentials.Verify(c.Request.Context(), req.Account, req.Secret)
	if err != nil {
		if errors.Is(err, security.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid credentials"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to verify credentials"))
		return
	}

	issued, err := h.tokens.Issue(c.Request.Context(), subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to issue session token"))
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: issued.Token,
		TokenType:   "Bearer",
		ExpiresIn:   int(issued.ExpiresAt.Sub(issued.IssuedAt) / time.Second),
		ExpiresAt:   issued.ExpiresAt,
		Subject:     issued.Subject,
	})
}

// Logout revokes the bearer token the request authenticated with. The token
// is rejected by subsequent requests even though it remains cryptographically
// valid until its natural expiry.
func (h *AuthHandler) Logout(c *gin.Context) {
	if h.tokens == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "authentication unavailable"))
		return
	}

	token, ok := middleware.GetBearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	if err := h.tokens.Revoke(c.Request.Context(), token, 0, "user_logout"); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to revoke session token"))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "successfully logged out"})
}
