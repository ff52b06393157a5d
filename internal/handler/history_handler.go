package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ragtimehq/ragtime/internal/orchestrator"
	"github.com/ragtimehq/ragtime/internal/pkg/errcode"
	"github.com/ragtimehq/ragtime/internal/pkg/response"
)

type HistoryHandler struct {
	store orchestrator.ConversationStore
}

func NewHistoryHandler(store orchestrator.ConversationStore) *HistoryHandler {
	return &HistoryHandler{store: store}
}

// List returns up to ?limit= recent turns, oldest first.
func (h *HistoryHandler) List(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.Error(c, errcode.ErrInvalid, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	turns, err := h.store.Recent(c.Request.Context(), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": turns})
}
