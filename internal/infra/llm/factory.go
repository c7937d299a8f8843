package llm

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rasifabdulrazak/talks-qa-llm/internal/core/port"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/infra/config"
)

// ErrUnsupportedProvider indicates the configured provider identifier has no
// implementation.
var ErrUnsupportedProvider = errors.New("unsupported llm provider")

// NewBackend selects the model backend implementation for the configured
// provider identifier.
func NewBackend(cfg config.LLMSettings, logger *zap.Logger) (port.ModelBackend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai":
		return NewOpenAIClient(cfg, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
}
