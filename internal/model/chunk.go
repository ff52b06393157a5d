package model

// Chunk is a fixed-size word window cut from a document's extracted text.
// Chunk identity is (OriginHash, position within the document); chunks are
// immutable once created.
type Chunk struct {
	Filename   string `json:"filename"`
	Content    string `json:"content"`
	OriginHash string `json:"origin_hash"`
}

// RetrievalResult is one similarity match, emitted fresh per query.
type RetrievalResult struct {
	Filename   string  `json:"filename"`
	Snippet    string  `json:"snippet"`
	Similarity float64 `json:"similarity"`
}
