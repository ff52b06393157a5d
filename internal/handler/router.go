package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Chat      *ChatHandler
	Documents *DocumentHandler
	Models    *ModelHandler
	History   *HistoryHandler
	MCP       *MCPHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/chat", deps.Chat.Chat)
	api.POST("/documents", deps.Documents.Ingest)
	api.GET("/models", deps.Models.List)
	api.GET("/history", deps.History.List)
	api.GET("/mcp/context", deps.MCP.Context)
}
