package domain

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrStreamClosed indicates a push into a stream that has already finished.
var ErrStreamClosed = errors.New("fragment stream closed")

// FrameType enumerates the units of a streamed answer.
type FrameType string

const (
	FrameMetadata FrameType = "metadata"
	FrameFragment FrameType = "fragment"
	FrameError    FrameType = "error"
)

// StreamMetadata describes the request a stream is answering. It is emitted at
// most once, ahead of any fragment.
type StreamMetadata struct {
	SourceName          string
	Question            string
	ExtractedTextLength int
	Timestamp           time.Time
}

// StreamFrame is one discrete unit of a streamed answer. Frames are strictly
// ordered: an optional metadata frame first, fragments in generation order,
// and an error frame, if any, last with nothing after it.
type StreamFrame struct {
	Type     FrameType
	Metadata *StreamMetadata
	Fragment string
	Message  string
}

// MetadataFrame builds the opening frame of a stream.
func MetadataFrame(meta StreamMetadata) StreamFrame {
	copied := meta
	return StreamFrame{Type: FrameMetadata, Metadata: &copied}
}

// FragmentFrame wraps one model-generated chunk of answer text.
func FragmentFrame(text string) StreamFrame {
	return StreamFrame{Type: FrameFragment, Fragment: text}
}

// ErrorFrame terminates a stream after a failure.
func ErrorFrame(message string) StreamFrame {
	return StreamFrame{Type: FrameError, Message: message}
}

// FragmentStream carries ordered answer fragments from a model backend to a
// single consumer. The producer pushes fragments and finishes with Close or
// Fail; the consumer ranges over Fragments and inspects Err once the channel
// is drained.
type FragmentStream struct {
	mu        sync.Mutex
	fragments chan string
	err       error
	closed    bool
}

// NewFragmentStream constructs a stream with the given channel buffer size.
func NewFragmentStream(buffer int) *FragmentStream {
	if buffer <= 0 {
		buffer = 16
	}
	return &FragmentStream{fragments: make(chan string, buffer)}
}

// Push delivers one fragment, blocking until the consumer has capacity or the
// context ends.
func (s *FragmentStream) Push(ctx context.Context, fragment string) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrStreamClosed
	}

	select {
	case s.fragments <- fragment:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the stream after a complete, successful generation.
func (s *FragmentStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.fragments)
}

// Fail records the terminal error and ends the stream. The first error wins.
func (s *FragmentStream) Fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	closed := s.closed
	s.closed = true
	s.mu.Unlock()

	if !closed {
		close(s.fragments)
	}
}

// Fragments returns the receive side of the stream.
func (s *FragmentStream) Fragments() <-chan string {
	return s.fragments
}

// Err reports the terminal error, if any. Meaningful once Fragments is drained.
func (s *FragmentStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
