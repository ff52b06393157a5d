package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ragtimehq/ragtime/internal/mcp"
	"github.com/ragtimehq/ragtime/internal/pkg/errcode"
	"github.com/ragtimehq/ragtime/internal/pkg/response"
)

type MCPHandler struct {
	server *mcp.Server
}

func NewMCPHandler(server *mcp.Server) *MCPHandler {
	return &MCPHandler{server: server}
}

// Context evaluates every enabled resource against ?q= and returns the
// aggregated context block, the same text the chat flow injects.
func (h *MCPHandler) Context(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		response.Error(c, errcode.ErrInvalid, "query required")
		return
	}
	block := h.server.GatherContext(c.Request.Context(), query)
	response.Success(c, gin.H{"context": block})
}
