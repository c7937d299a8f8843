package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rasifabdulrazak/talks-qa-llm/internal/core/domain"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/infra/config"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/usecase"
)

const extractedText = "The Eiffel Tower was completed in 1889. It stands on the Champ de Mars in Paris, France."

type stubExtractor struct {
	text string
	err  error
}

func (e *stubExtractor) Extract(_ []byte) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return e.text, nil
}

type stubModelBackend struct {
	answer    string
	err       error
	fragments []string
	streamErr error
}

func (b *stubModelBackend) AnswerBatch(_ context.Context, _, _ string) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	return b.answer, nil
}

func (b *stubModelBackend) AnswerStream(_ context.Context, _, _ string) (*domain.FragmentStream, error) {
	if b.err != nil {
		return nil, b.err
	}

	stream := domain.NewFragmentStream(len(b.fragments) + 1)
	go func() {
		for _, fragment := range b.fragments {
			if err := stream.Push(context.Background(), fragment); err != nil {
				return
			}
		}
		if b.streamErr != nil {
			stream.Fail(b.streamErr)
			return
		}
		stream.Close()
	}()
	return stream, nil
}

type nopCache struct{}

func (nopCache) Get(context.Context, domain.Fingerprint) (string, bool, error) {
	return "", false, nil
}

func (nopCache) Set(context.Context, domain.Fingerprint, string, time.Duration) error {
	return nil
}

func testQAConfig() *config.AppConfig {
	cfg := &config.AppConfig{}
	cfg.QA.MaxFileSize = 10 * 1024 * 1024
	cfg.QA.MinTextLength = 50
	cfg.QA.MinQuestionLength = 5
	cfg.QA.MaxQuestionLength = 500
	cfg.QA.CacheTTL = time.Hour
	return cfg
}

func newAskRouter(t *testing.T, backend *stubModelBackend, extractor *stubExtractor) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testQAConfig()
	pipeline := usecase.NewAnswerPipeline(cfg, nopCache{}, backend, nil)
	handler := NewAskHandler(pipeline, extractor, cfg)

	r := gin.New()
	handler.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func multipartUpload(t *testing.T, question, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.WriteField("question", question); err != nil {
		t.Fatalf("write question field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	return body, writer.FormDataContentType()
}

func TestAskHandler_Ask(t *testing.T) {
	backend := &stubModelBackend{answer: "It was completed in 1889."}
	router := newAskRouter(t, backend, &stubExtractor{text: extractedText})

	body, contentType := multipartUpload(t, "When was the Eiffel Tower completed?", "paris.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp AskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Answer != "It was completed in 1889." {
		t.Fatalf("unexpected answer %q", resp.Answer)
	}
	if resp.PDFFilename != "paris.pdf" {
		t.Fatalf("unexpected filename %q", resp.PDFFilename)
	}
	if resp.ExtractedTextLength != len(extractedText) {
		t.Fatalf("unexpected extracted text length %d", resp.ExtractedTextLength)
	}
	if resp.Cached {
		t.Fatalf("first resolution must not be cached")
	}
}

func TestAskHandler_AskNotFound(t *testing.T) {
	backend := &stubModelBackend{answer: "NOT_FOUND"}
	router := newAskRouter(t, backend, &stubExtractor{text: extractedText})

	body, contentType := multipartUpload(t, "What is the weather today?", "paris.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAskHandler_AskUpstreamFailure(t *testing.T) {
	backend := &stubModelBackend{err: errors.New("provider down")}
	router := newAskRouter(t, backend, &stubExtractor{text: extractedText})

	body, contentType := multipartUpload(t, "When was the tower completed?", "paris.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAskHandler_RejectsNonPDF(t *testing.T) {
	router := newAskRouter(t, &stubModelBackend{answer: "x"}, &stubExtractor{text: extractedText})

	body, contentType := multipartUpload(t, "When was the tower completed?", "notes.txt", []byte("plain text"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAskHandler_RejectsShortQuestion(t *testing.T) {
	router := newAskRouter(t, &stubModelBackend{answer: "x"}, &stubExtractor{text: extractedText})

	body, contentType := multipartUpload(t, "eh?", "paris.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAskHandler_RejectsOversizedFile(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := testQAConfig()
	cfg.QA.MaxFileSize = 16
	pipeline := usecase.NewAnswerPipeline(cfg, nopCache{}, &stubModelBackend{answer: "x"}, nil)
	handler := NewAskHandler(pipeline, &stubExtractor{text: extractedText}, cfg)

	r := gin.New()
	handler.RegisterRoutes(r.Group("/api/v1"))

	body, contentType := multipartUpload(t, "When was the tower completed?", "paris.pdf", bytes.Repeat([]byte("a"), 64))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAskHandler_RejectsFailedExtraction(t *testing.T) {
	router := newAskRouter(t, &stubModelBackend{answer: "x"}, &stubExtractor{err: errors.New("malformed xref table")})

	body, contentType := multipartUpload(t, "When was the tower completed?", "paris.pdf", []byte("garbage"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func parseSSE(t *testing.T, body string) []string {
	t.Helper()

	var events []string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			events = append(events, strings.TrimPrefix(line, "data: "))
		}
	}
	return events
}

func TestAskHandler_AskStream(t *testing.T) {
	backend := &stubModelBackend{fragments: []string{"It was ", "completed ", "in 1889."}}
	router := newAskRouter(t, backend, &stubExtractor{text: extractedText})

	body, contentType := multipartUpload(t, "When was the tower completed?", "paris.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask/stream", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("unexpected content type %q", got)
	}

	events := parseSSE(t, rec.Body.String())
	if len(events) != 4 {
		t.Fatalf("expected metadata plus 3 fragments, got %d events: %q", len(events), events)
	}

	var meta StreamMetadataPayload
	if err := json.Unmarshal([]byte(events[0]), &meta); err != nil {
		t.Fatalf("decode metadata event: %v", err)
	}
	if meta.Type != "metadata" || meta.Filename != "paris.pdf" {
		t.Fatalf("unexpected metadata event %+v", meta)
	}
	if meta.ExtractedTextLength != len(extractedText) {
		t.Fatalf("unexpected extracted text length %d", meta.ExtractedTextLength)
	}

	if got := strings.Join(events[1:], ""); got != "It was completed in 1889." {
		t.Fatalf("fragments do not reassemble the answer: %q", got)
	}
}

func TestAskHandler_AskStreamFailure(t *testing.T) {
	backend := &stubModelBackend{
		fragments: []string{"It was "},
		streamErr: errors.New("connection reset by peer"),
	}
	router := newAskRouter(t, backend, &stubExtractor{text: extractedText})

	body, contentType := multipartUpload(t, "When was the tower completed?", "paris.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask/stream", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	events := parseSSE(t, rec.Body.String())
	if len(events) == 0 {
		t.Fatalf("expected at least one event")
	}

	var errEvent StreamErrorPayload
	if err := json.Unmarshal([]byte(events[len(events)-1]), &errEvent); err != nil {
		t.Fatalf("decode terminal event: %v", err)
	}
	if errEvent.Type != "error" || errEvent.Message == "" {
		t.Fatalf("expected terminal error event, got %+v", errEvent)
	}
}
