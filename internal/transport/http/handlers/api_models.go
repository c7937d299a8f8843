package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rasifabdulrazak/talks-qa-llm/internal/transport/http/middleware"
)

// ErrorResponse represents a generic error payload with the request ID for
// correlation.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// NewErrorResponse creates an error response carrying the request ID.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:     errorMsg,
		RequestID: middleware.GetRequestID(c),
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Account string `json:"account" binding:"required"`
	Secret  string `json:"secret" binding:"required"`
}

// LoginResponse describes the response returned for a successful login.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	Subject     string    `json:"subject"`
}

// AskResponse describes a resolved question in batch mode.
type AskResponse struct {
	Question            string    `json:"question"`
	Answer              string    `json:"answer"`
	PDFFilename         string    `json:"pdf_filename"`
	ExtractedTextLength int       `json:"extracted_text_length"`
	ProcessingTime      float64   `json:"processing_time"`
	Timestamp           time.Time `json:"timestamp"`
	Cached              bool      `json:"cached"`
}

// StreamMetadataPayload is the opening frame of a streamed answer.
type StreamMetadataPayload struct {
	Type                string `json:"type"`
	Filename            string `json:"filename"`
	Question            string `json:"question"`
	ExtractedTextLength int    `json:"extracted_text_length"`
	Timestamp           string `json:"timestamp"`
}

// StreamErrorPayload terminates a streamed answer after a failure.
type StreamErrorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
