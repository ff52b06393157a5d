package extract

import (
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/htmlindex"
)

// textExtractor decodes .txt files, sniffing the charset first so that
// non-UTF-8 uploads still produce readable text.
type textExtractor struct{}

func (textExtractor) Extract(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	result, err := chardet.NewTextDetector().DetectBest(raw)
	if err == nil && result != nil {
		if enc, err := htmlindex.Get(strings.ToLower(result.Charset)); err == nil && enc != nil {
			if decoded, err := enc.NewDecoder().Bytes(raw); err == nil {
				return string(decoded), nil
			}
		}
	}
	// Unknown charset, decode lossily.
	return strings.ToValidUTF8(string(raw), ""), nil
}
