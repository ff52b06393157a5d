package extract

import "strings"

// fallbackExtractor handles unrecognized extensions with a best-effort
// UTF-8 decode, dropping invalid byte sequences.
type fallbackExtractor struct{}

func (fallbackExtractor) Extract(raw []byte) (string, error) {
	return strings.ToValidUTF8(string(raw), ""), nil
}
