package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/ragtimehq/ragtime/internal/pkg/errcode"
	"github.com/ragtimehq/ragtime/internal/pkg/response"
	"github.com/ragtimehq/ragtime/internal/rag"
)

// maxUploadBytes bounds a single document; larger files are rejected
// before extraction.
const maxUploadBytes = 32 << 20

type DocumentHandler struct {
	engine *rag.Engine
}

func NewDocumentHandler(engine *rag.Engine) *DocumentHandler {
	return &DocumentHandler{engine: engine}
}

type ingestReport struct {
	ChunksAdded int                 `json:"chunks_added"`
	Failures    []rag.IngestFailure `json:"failures"`
}

// Ingest accepts one or more files under the multipart field "files" and
// feeds them into the retrieval corpus. Per-file failures are reported,
// never fatal for the batch.
func (h *DocumentHandler) Ingest(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "multipart form required")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		response.Error(c, errcode.ErrInvalidFile, "at least one file is required")
		return
	}

	uploads := make([]rag.Upload, 0, len(files))
	report := ingestReport{Failures: []rag.IngestFailure{}}
	for _, fh := range files {
		if fh.Size > maxUploadBytes {
			report.Failures = append(report.Failures, rag.IngestFailure{Name: fh.Filename, Err: "file too large"})
			continue
		}
		opened, err := fh.Open()
		if err != nil {
			report.Failures = append(report.Failures, rag.IngestFailure{Name: fh.Filename, Err: err.Error()})
			continue
		}
		data, err := io.ReadAll(io.LimitReader(opened, maxUploadBytes))
		opened.Close()
		if err != nil {
			report.Failures = append(report.Failures, rag.IngestFailure{Name: fh.Filename, Err: err.Error()})
			continue
		}
		uploads = append(uploads, rag.FileUpload{FileName: fh.Filename, Data: data})
	}

	added, failures := h.engine.IngestCorpus(c.Request.Context(), uploads)
	report.ChunksAdded = added
	report.Failures = append(report.Failures, failures...)
	response.Success(c, report)
}
