package domain

import (
	"strings"
	"testing"
)

func TestNewFingerprint_Deterministic(t *testing.T) {
	doc := "The Eiffel Tower was completed in 1889 and stands in Paris."
	question := "When was the Eiffel Tower completed?"

	first := NewFingerprint(doc, question)
	second := NewFingerprint(doc, question)

	if first != second {
		t.Fatalf("expected identical fingerprints, got %q and %q", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected hex-encoded sha256, got %d characters", len(first))
	}
}

func TestNewFingerprint_NormalizesQuestion(t *testing.T) {
	doc := "The Eiffel Tower was completed in 1889 and stands in Paris."

	base := NewFingerprint(doc, "When was the tower completed?")
	cased := NewFingerprint(doc, "WHEN WAS THE TOWER COMPLETED?")
	padded := NewFingerprint(doc, "  When was the tower completed?  \n")

	if base != cased {
		t.Fatalf("expected case-insensitive question matching")
	}
	if base != padded {
		t.Fatalf("expected surrounding whitespace to be ignored")
	}
}

func TestNewFingerprint_DistinguishesInputs(t *testing.T) {
	doc := "The Eiffel Tower was completed in 1889 and stands in Paris."
	other := "The Golden Gate Bridge opened in 1937 in San Francisco."

	if NewFingerprint(doc, "when?") == NewFingerprint(other, "when?") {
		t.Fatalf("expected distinct documents to produce distinct fingerprints")
	}
	if NewFingerprint(doc, "when was it built?") == NewFingerprint(doc, "how tall is it?") {
		t.Fatalf("expected distinct questions to produce distinct fingerprints")
	}

	// Document text is hashed verbatim: unlike the question, casing matters.
	if NewFingerprint(doc, "when?") == NewFingerprint(strings.ToUpper(doc), "when?") {
		t.Fatalf("expected document casing to change the fingerprint")
	}
}
