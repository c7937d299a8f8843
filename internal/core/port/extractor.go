package port

// TextExtractor pulls plain text out of an uploaded document. Implementations
// return whatever text they can recover; callers decide whether it is enough
// to answer from.
type TextExtractor interface {
	Extract(data []byte) (string, error)
}
