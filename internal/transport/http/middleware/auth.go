package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rasifabdulrazak/talks-qa-llm/internal/usecase"
)

const (
	// SubjectKey stores the authenticated subject on the Gin context.
	SubjectKey = "auth_subject"
	// tokenKey stores the raw bearer token so logout can revoke it.
	tokenKey = "auth_token"
)

// ErrorResponse matches the handlers.ErrorResponse structure.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:     errorMsg,
		RequestID: GetRequestID(c),
	}
}

// RequireAuth validates the Authorization header and stores the verified
// subject and raw token on the context.
func RequireAuth(tokens *usecase.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "invalid authorization format: expected 'Bearer <token>'"))
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "missing session token"))
			return
		}

		subject, err := tokens.Verify(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrExpiredSessionToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "session token expired"))
			case errors.Is(err, usecase.ErrRevokedSessionToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "session token revoked"))
			case errors.Is(err, usecase.ErrInvalidSessionToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "invalid session token"))
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					newErrorResponse(c, "authentication failed"))
			}
			return
		}

		c.Set(SubjectKey, subject)
		c.Set(tokenKey, token)

		c.Next()
	}
}

// GetAuthenticatedSubject retrieves the verified subject from context.
func GetAuthenticatedSubject(c *gin.Context) (string, bool) {
	value, exists := c.Get(SubjectKey)
	if !exists {
		return "", false
	}

	if subject, ok := value.(string); ok {
		return subject, true
	}

	return "", false
}

// GetBearerToken retrieves the raw token the request authenticated with.
func GetBearerToken(c *gin.Context) (string, bool) {
	value, exists := c.Get(tokenKey)
	if !exists {
		return "", false
	}

	if token, ok := value.(string); ok && token != "" {
		return token, true
	}

	return "", false
}
