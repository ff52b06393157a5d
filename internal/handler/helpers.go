package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ragtimehq/ragtime/internal/pkg/errcode"
	apperrors "github.com/ragtimehq/ragtime/internal/pkg/errors"
	"github.com/ragtimehq/ragtime/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, apperrors.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, apperrors.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, apperrors.ErrIngestion):
		response.Error(c, errcode.ErrIngestFailed, "ingestion failed")
	case errors.Is(err, apperrors.ErrBackendUnreachable):
		response.Error(c, errcode.ErrBackendUnavailable, "backend unavailable")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
