package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForFilename_Dispatch(t *testing.T) {
	cases := []struct {
		name string
		want Extractor
	}{
		{"notes.txt", textExtractor{}},
		{"Report.PDF", pdfExtractor{}},
		{"spec.docx", docxExtractor{}},
		{"readme.md", markdownExtractor{}},
		{"data.bin", fallbackExtractor{}},
		{"noext", fallbackExtractor{}},
	}
	for _, tc := range cases {
		require.IsType(t, tc.want, ForFilename(tc.name), "file %s", tc.name)
	}
}

func TestSupported(t *testing.T) {
	for _, name := range []string{"a.txt", "b.PDF", "c.docx", "d.md"} {
		require.True(t, Supported(name), "file %s", name)
	}
	for _, name := range []string{"e.bin", "f.png", "noext", ""} {
		require.False(t, Supported(name), "file %s", name)
	}
}

func TestTextExtractor_UTF8(t *testing.T) {
	got, err := textExtractor{}.Extract([]byte("héllo wörld"))
	require.NoError(t, err)
	require.Contains(t, got, "héllo")
}

func TestTextExtractor_Empty(t *testing.T) {
	got, err := textExtractor{}.Extract(nil)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMarkdownExtractor_StripsMarkup(t *testing.T) {
	raw := []byte("# Title\n\nSome *emphasized* text and [a link](http://example.com).\n")
	got, err := markdownExtractor{}.Extract(raw)
	require.NoError(t, err)
	require.Contains(t, got, "Title")
	require.Contains(t, got, "emphasized")
	require.Contains(t, got, "a link")
	require.NotContains(t, got, "#")
	require.NotContains(t, got, "http://example.com")
}

func TestFallbackExtractor_InvalidBytes(t *testing.T) {
	got, err := fallbackExtractor{}.Extract([]byte{'o', 'k', 0xff, 0xfe, '!'})
	require.NoError(t, err)
	require.Contains(t, got, "ok")
	require.Contains(t, got, "!")
}
