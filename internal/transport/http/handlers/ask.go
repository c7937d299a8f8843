package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rasifabdulrazak/talks-qa-llm/internal/core/domain"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/core/port"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/infra/config"
	"github.com/rasifabdulrazak/talks-qa-llm/internal/usecase"
)

// AskHandler exposes the question-answering endpoints. Both accept a PDF
// upload plus a question; one resolves in a single round trip, the other
// streams the answer as server-sent events.
type AskHandler struct {
	pipeline  *usecase.AnswerPipeline
	extractor port.TextExtractor
	cfg       *config.AppConfig
}

// NewAskHandler constructs an ask handler.
func NewAskHandler(pipeline *usecase.AnswerPipeline, extractor port.TextExtractor, cfg *config.AppConfig) *AskHandler {
	return &AskHandler{pipeline: pipeline, extractor: extractor, cfg: cfg}
}

// RegisterRoutes binds question-answering routes to the provided router group.
func (h *AskHandler) RegisterRoutes(r *gin.RouterGroup) {
	if r == nil {
		return
	}

	r.POST("/ask", h.Ask)
	r.POST("/ask/stream", h.AskStream)
}

// Ask resolves a question about an uploaded PDF in one round trip.
func (h *AskHandler) Ask(c *gin.Context) {
	req, ok := h.intake(c)
	if !ok {
		return
	}

	result, err := h.pipeline.Answer(c.Request.Context(), req)
	if err != nil {
		cases := []ErrorCase{
			{Err: usecase.ErrInvalidQuestion, Status: http.StatusBadRequest, Message: "question is required"},
			{Err: usecase.ErrDocumentTooShort, Status: http.StatusBadRequest, Message: "could not extract sufficient text from PDF; the document might be empty or consist of images only"},
			{Err: usecase.ErrAnswerNotFound, Status: http.StatusNotFound, Message: "the question is not relevant to the PDF content or cannot be answered based on the document"},
			{Err: usecase.ErrUpstream, Status: http.StatusBadGateway, Message: "the answering backend is unavailable; please try again"},
		}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "an error occurred while processing your request")
		return
	}

	c.JSON(http.StatusOK, AskResponse{
		Question:            result.Question,
		Answer:              result.Answer,
		PDFFilename:         result.SourceName,
		ExtractedTextLength: result.ExtractedTextLength,
		ProcessingTime:      math.Round(result.ProcessingTime.Seconds()*100) / 100,
		Timestamp:           result.ProducedAt,
		Cached:              result.FromCache,
	})
}

// AskStream resolves a question about an uploaded PDF as a server-sent event
// stream: a metadata event, answer fragments in generation order, and a
// terminal error event if generation fails mid-stream.
func (h *AskHandler) AskStream(c *gin.Context) {
	req, ok := h.intake(c)
	if !ok {
		return
	}

	frames, err := h.pipeline.AnswerStream(c.Request.Context(), req)
	if err != nil {
		cases := []ErrorCase{
			{Err: usecase.ErrInvalidQuestion, Status: http.StatusBadRequest, Message: "question is required"},
			{Err: usecase.ErrDocumentTooShort, Status: http.StatusBadRequest, Message: "could not extract sufficient text from PDF; the document might be empty or consist of images only"},
			{Err: usecase.ErrUpstream, Status: http.StatusBadGateway, Message: "the answering backend is unavailable; please try again"},
		}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "an error occurred while processing your request")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case frame, open := <-frames:
			if !open {
				return
			}
			h.writeFrame(c, frame)
		case <-clientGone:
			return
		}
	}
}

func (h *AskHandler) writeFrame(c *gin.Context, frame domain.StreamFrame) {
	switch frame.Type {
	case domain.FrameMetadata:
		payload, err := json.Marshal(StreamMetadataPayload{
			Type:                string(domain.FrameMetadata),
			Filename:            frame.Metadata.SourceName,
			Question:            frame.Metadata.Question,
			ExtractedTextLength: frame.Metadata.ExtractedTextLength,
			Timestamp:           frame.Metadata.Timestamp.Format("2006-01-02T15:04:05.000000Z07:00"),
		})
		if err != nil {
			return
		}
		h.writeEvent(c, string(payload))
	case domain.FrameFragment:
		h.writeEvent(c, frame.Fragment)
	case domain.FrameError:
		payload, err := json.Marshal(StreamErrorPayload{
			Type:    string(domain.FrameError),
			Message: frame.Message,
		})
		if err != nil {
			return
		}
		h.writeEvent(c, string(payload))
	}
}

func (h *AskHandler) writeEvent(c *gin.Context, data string) {
	fmt.Fprintf(c.Writer, "data: %s\n\n", data)
	c.Writer.Flush()
}

// intake validates the multipart upload and extracts the document text. It
// writes the error response itself and reports false when the request cannot
// proceed.
func (h *AskHandler) intake(c *gin.Context) (usecase.AnswerRequest, bool) {
	var req usecase.AnswerRequest

	question := strings.TrimSpace(c.PostForm("question"))
	if len(question) < h.minQuestionLength() {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c,
			fmt.Sprintf("question must be at least %d characters", h.minQuestionLength())))
		return req, false
	}
	if len(question) > h.maxQuestionLength() {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c,
			fmt.Sprintf("question must be at most %d characters", h.maxQuestionLength())))
		return req, false
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "a PDF file upload is required"))
		return req, false
	}

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "only PDF files are allowed; upload a file with .pdf extension"))
		return req, false
	}

	maxSize := h.maxFileSize()
	if header.Size > maxSize {
		c.JSON(http.StatusRequestEntityTooLarge, NewErrorResponse(c,
			fmt.Sprintf("file too large; maximum size is %dMB", maxSize/(1024*1024))))
		return req, false
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "could not read uploaded file"))
		return req, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "could not read uploaded file"))
		return req, false
	}
	if int64(len(data)) > maxSize {
		c.JSON(http.StatusRequestEntityTooLarge, NewErrorResponse(c,
			fmt.Sprintf("file too large; maximum size is %dMB", maxSize/(1024*1024))))
		return req, false
	}

	text, err := h.extractor.Extract(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "could not extract text from PDF"))
		return req, false
	}

	req.DocumentText = text
	req.Question = question
	req.SourceName = header.Filename
	return req, true
}

func (h *AskHandler) minQuestionLength() int {
	if h.cfg != nil && h.cfg.QA.MinQuestionLength > 0 {
		return h.cfg.QA.MinQuestionLength
	}
	return 5
}

func (h *AskHandler) maxQuestionLength() int {
	if h.cfg != nil && h.cfg.QA.MaxQuestionLength > 0 {
		return h.cfg.QA.MaxQuestionLength
	}
	return 500
}

func (h *AskHandler) maxFileSize() int64 {
	if h.cfg != nil && h.cfg.QA.MaxFileSize > 0 {
		return h.cfg.QA.MaxFileSize
	}
	return 10 * 1024 * 1024
}
