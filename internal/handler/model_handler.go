package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ragtimehq/ragtime/internal/ai"
	"github.com/ragtimehq/ragtime/internal/pkg/response"
)

type ModelHandler struct {
	backend ai.IChatProvider
}

func NewModelHandler(backend ai.IChatProvider) *ModelHandler {
	return &ModelHandler{backend: backend}
}

// List reports the chat models the configured backend offers. The provider
// itself falls back to a known default when the backend is unreachable, so
// this endpoint never fails.
func (h *ModelHandler) List(c *gin.Context) {
	models := h.backend.ListModels(c.Request.Context())
	response.Success(c, gin.H{"provider": h.backend.Name(), "models": models})
}
