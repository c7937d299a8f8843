package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Fingerprint identifies a (document text, question) pair for answer caching.
type Fingerprint string

// NewFingerprint digests the normalized question together with the raw document
// text. The question is trimmed and case-folded so trivially restated requests
// land on the same entry; the document text is hashed verbatim because any
// content change must produce a different key. A NUL separator keeps the pair
// unambiguous since extracted text never contains one.
func NewFingerprint(documentText, question string) Fingerprint {
	normalized := strings.ToLower(strings.TrimSpace(question))

	h := sha256.New()
	h.Write([]byte(normalized))
	h.Write([]byte{0})
	h.Write([]byte(documentText))

	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

func (f Fingerprint) String() string {
	return string(f)
}

// AnswerResult is the per-request outcome of a batch answer. It is never
// persisted beyond the cached answer text.
type AnswerResult struct {
	Question            string
	Answer              string
	SourceName          string
	ExtractedTextLength int
	ProcessingTime      time.Duration
	ProducedAt          time.Time
	FromCache           bool
}
