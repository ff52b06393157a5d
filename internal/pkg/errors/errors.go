package errors

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
	ErrInternal = errors.New("internal")

	// ErrIngestion marks a per-file ingestion failure. It never aborts the
	// rest of a batch; the failing file is reported and skipped.
	ErrIngestion = errors.New("ingestion failed")

	// ErrEmbeddingUnavailable means the embedding provider cannot serve
	// requests. Retrieval degrades to empty results instead of failing.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrBackendUnreachable means the chat backend could not be reached.
	// The orchestrator turns it into a marked in-band reply so that a turn
	// always completes.
	ErrBackendUnreachable = errors.New("backend unreachable")

	// ErrCacheCorrupt marks an unreadable chunk-cache entry. Callers treat
	// it as a cache miss and recompute.
	ErrCacheCorrupt = errors.New("cache corrupt")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsEmbeddingUnavailable(err error) bool {
	return errors.Is(err, ErrEmbeddingUnavailable)
}
