package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rasifabdulrazak/talks-qa-llm/internal/core/domain"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/core/port"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/infra/config"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/infra/llm"
)

var (
	// ErrAnswerNotFound indicates the question cannot be answered from the document.
	// A normal, expected outcome rather than a system fault.
	ErrAnswerNotFound = errors.New("question not answerable from document")
	// ErrDocumentTooShort indicates the extracted text carries too little signal to answer reliably.
	ErrDocumentTooShort = errors.New("document text too short")
	// ErrInvalidQuestion indicates an empty or blank question.
	ErrInvalidQuestion = errors.New("question is required")
	// ErrUpstream indicates the model backend call failed.
	ErrUpstream = errors.New("model backend failure")
)

// AnswerRequest carries one question about one extracted document.
type AnswerRequest struct {
	DocumentText string
	Question     string
	SourceName   string
}

// AnswerPipeline orchestrates fingerprinting, cache lookup, model invocation,
// response framing, and cache population.
type AnswerPipeline struct {
	cfg     *config.AppConfig
	cache   port.AnswerCache
	backend port.ModelBackend
	logger  *zap.Logger
	now     func() time.Time
}

// NewAnswerPipeline constructs an AnswerPipeline instance.
func NewAnswerPipeline(cfg *config.AppConfig, cache port.AnswerCache, backend port.ModelBackend, logger *zap.Logger) *AnswerPipeline {
	if logger == nil {
		logger = zap.NewNop()
	}

	pipeline := &AnswerPipeline{
		cfg:     cfg,
		cache:   cache,
		backend: backend,
		logger:  logger,
	}
	pipeline.now = func() time.Time { return time.Now().UTC() }
	return pipeline
}

// WithClock overrides the pipeline clock for deterministic tests.
func (p *AnswerPipeline) WithClock(clock func() time.Time) *AnswerPipeline {
	if clock != nil {
		p.now = clock
	}
	return p
}

// Answer resolves a question in one round trip: cache lookup, then a batch
// model call on a miss, then cache write-back. The NOT_FOUND sentinel is
// never cached; a later attempt may legitimately succeed.
func (p *AnswerPipeline) Answer(ctx context.Context, req AnswerRequest) (*domain.AnswerResult, error) {
	started := p.now()

	if err := p.validate(req); err != nil {
		return nil, err
	}

	fp := domain.NewFingerprint(req.DocumentText, req.Question)
	if answer, ok := p.cacheGet(ctx, fp); ok {
		return p.result(req, answer, started, true), nil
	}

	answer, err := p.backend.AnswerBatch(ctx, llm.BuildSystemPrompt(req.DocumentText), req.Question)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if strings.TrimSpace(answer) == llm.NotFoundSentinel {
		return nil, ErrAnswerNotFound
	}

	p.cachePut(ctx, fp, answer)

	return p.result(req, answer, started, false), nil
}

// AnswerStream resolves a question as an ordered frame sequence. A cache hit
// yields a single fragment frame carrying the full cached answer. On a miss,
// a metadata frame opens the stream, backend fragments follow in generation
// order, and the concatenated answer is cached only after the whole stream
// completes successfully. A mid-stream failure terminates the sequence with
// one error frame and writes nothing to the cache.
func (p *AnswerPipeline) AnswerStream(ctx context.Context, req AnswerRequest) (<-chan domain.StreamFrame, error) {
	if err := p.validate(req); err != nil {
		return nil, err
	}

	fp := domain.NewFingerprint(req.DocumentText, req.Question)
	frames := make(chan domain.StreamFrame)

	if answer, ok := p.cacheGet(ctx, fp); ok {
		go func() {
			defer close(frames)
			p.emit(ctx, frames, domain.FragmentFrame(answer))
		}()
		return frames, nil
	}

	// The backend call is detached from the caller's context: a client
	// disconnect stops frame forwarding, but a generation that completes
	// anyway still populates the cache for future requesters.
	backendCtx := context.WithoutCancel(ctx)
	stream, err := p.backend.AnswerStream(backendCtx, llm.BuildSystemPrompt(req.DocumentText), req.Question)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	go p.forward(ctx, backendCtx, req, fp, stream, frames)

	return frames, nil
}

func (p *AnswerPipeline) forward(ctx, backendCtx context.Context, req AnswerRequest, fp domain.Fingerprint, stream *domain.FragmentStream, frames chan<- domain.StreamFrame) {
	defer close(frames)

	forwarding := p.emit(ctx, frames, domain.MetadataFrame(domain.StreamMetadata{
		SourceName:          req.SourceName,
		Question:            req.Question,
		ExtractedTextLength: len(req.DocumentText),
		Timestamp:           p.now(),
	}))

	var full strings.Builder
	for fragment := range stream.Fragments() {
		full.WriteString(fragment)
		if forwarding {
			forwarding = p.emit(ctx, frames, domain.FragmentFrame(fragment))
		}
	}

	if err := stream.Err(); err != nil {
		// Partial output must never be persisted as a complete answer.
		p.logger.Error("answer stream failed", zap.Error(err))
		p.emit(ctx, frames, domain.ErrorFrame("an error occurred during streaming"))
		return
	}

	answer := full.String()
	if strings.TrimSpace(answer) == llm.NotFoundSentinel {
		return
	}

	p.cachePut(backendCtx, fp, answer)
}

// emit forwards one frame, reporting false once the consumer is gone.
func (p *AnswerPipeline) emit(ctx context.Context, frames chan<- domain.StreamFrame, frame domain.StreamFrame) bool {
	select {
	case frames <- frame:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *AnswerPipeline) validate(req AnswerRequest) error {
	if strings.TrimSpace(req.Question) == "" {
		return ErrInvalidQuestion
	}
	if len(req.DocumentText) < p.minTextLength() {
		return ErrDocumentTooShort
	}
	return nil
}

// cacheGet treats store failures as misses: the pipeline degrades to calling
// the backend rather than failing the request.
func (p *AnswerPipeline) cacheGet(ctx context.Context, fp domain.Fingerprint) (string, bool) {
	if p.cache == nil {
		return "", false
	}

	answer, found, err := p.cache.Get(ctx, fp)
	if err != nil {
		p.logger.Warn("answer cache read failed", zap.Error(err))
		return "", false
	}

	return answer, found
}

func (p *AnswerPipeline) cachePut(ctx context.Context, fp domain.Fingerprint, answer string) {
	if p.cache == nil {
		return
	}

	if err := p.cache.Set(ctx, fp, answer, p.cacheTTL()); err != nil {
		p.logger.Warn("answer cache write failed", zap.Error(err))
	}
}

func (p *AnswerPipeline) result(req AnswerRequest, answer string, started time.Time, fromCache bool) *domain.AnswerResult {
	finished := p.now()
	return &domain.AnswerResult{
		Question:            req.Question,
		Answer:              answer,
		SourceName:          req.SourceName,
		ExtractedTextLength: len(req.DocumentText),
		ProcessingTime:      finished.Sub(started),
		ProducedAt:          finished,
		FromCache:           fromCache,
	}
}

func (p *AnswerPipeline) minTextLength() int {
	if p.cfg != nil && p.cfg.QA.MinTextLength > 0 {
		return p.cfg.QA.MinTextLength
	}
	return 50
}

func (p *AnswerPipeline) cacheTTL() time.Duration {
	if p.cfg != nil && p.cfg.QA.CacheTTL > 0 {
		return p.cfg.QA.CacheTTL
	}
	return time.Hour
}
