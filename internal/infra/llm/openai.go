package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rasifabdulrazak/talks-qa-llm/internal/core/domain"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/infra/config"
)

// ErrProvider indicates a transport, auth, or quota failure at the provider.
var ErrProvider = errors.New("llm provider request failed")

const defaultRequestTimeout = 2 * time.Minute

// OpenAIClient talks to an OpenAI-compatible chat-completions endpoint.
type OpenAIClient struct {
	cfg        config.LLMSettings
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOpenAIClient constructs a client for the configured endpoint and model.
func NewOpenAIClient(cfg config.LLMSettings, logger *zap.Logger) *OpenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &OpenAIClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

type streamDelta struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// AnswerBatch performs a single blocking chat completion and returns the full
// answer text.
func (c *OpenAIClient) AnswerBatch(ctx context.Context, systemPrompt, question string) (string, error) {
	body, err := c.doRequest(ctx, c.buildPayload(systemPrompt, question, false))
	if err != nil {
		return "", err
	}
	defer body.Close()

	var resp chatCompletionResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrProvider, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrProvider)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// AnswerStream issues a streaming chat completion. Each call re-sends the
// request; the returned stream yields content deltas in emission order.
func (c *OpenAIClient) AnswerStream(ctx context.Context, systemPrompt, question string) (*domain.FragmentStream, error) {
	body, err := c.doRequest(ctx, c.buildPayload(systemPrompt, question, true))
	if err != nil {
		return nil, err
	}

	stream := domain.NewFragmentStream(64)
	go c.consumeStream(ctx, body, stream)

	return stream, nil
}

func (c *OpenAIClient) buildPayload(systemPrompt, question string, stream bool) chatCompletionRequest {
	return chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: question},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Stream:      stream,
	}
}

func (c *OpenAIClient) doRequest(ctx context.Context, payload chatCompletionRequest) (io.ReadCloser, error) {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s: %s", ErrProvider, resp.Status, data)
	}

	return resp.Body, nil
}

// consumeStream reads server-sent events off the response body and pushes
// content deltas into the fragment stream until the provider signals [DONE].
func (c *OpenAIClient) consumeStream(ctx context.Context, body io.ReadCloser, stream *domain.FragmentStream) {
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 512*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			stream.Close()
			return
		}

		var delta streamDelta
		if err := json.Unmarshal([]byte(data), &delta); err != nil {
			c.logger.Warn("skipping malformed stream event", zap.Error(err))
			continue
		}
		if len(delta.Choices) == 0 {
			continue
		}

		if content := delta.Choices[0].Delta.Content; content != "" {
			if err := stream.Push(ctx, content); err != nil {
				stream.Fail(err)
				return
			}
		}
	}

	if err := scanner.Err(); err != nil {
		stream.Fail(fmt.Errorf("%w: read stream: %v", ErrProvider, err))
		return
	}

	// Body ended without a terminal [DONE] marker.
	stream.Fail(fmt.Errorf("%w: stream ended prematurely", ErrProvider))
}
