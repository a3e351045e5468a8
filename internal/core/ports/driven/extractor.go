package driven

// Extractor produces clean natural-language text from raw markup.
type Extractor interface {
	// Extract returns the main text of raw with whitespace collapsed.
	// Malformed input never fails; no text yields "".
	Extract(raw string) string
}
