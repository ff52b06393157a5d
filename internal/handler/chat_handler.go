package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ragtimehq/ragtime/internal/orchestrator"
	"github.com/ragtimehq/ragtime/internal/pkg/errcode"
	"github.com/ragtimehq/ragtime/internal/pkg/response"
)

const defaultHistoryLimit = 50

type ChatHandler struct {
	orch *orchestrator.Orchestrator
}

func NewChatHandler(orch *orchestrator.Orchestrator) *ChatHandler {
	return &ChatHandler{orch: orch}
}

type chatRequest struct {
	Message string `json:"message"`
	Model   string `json:"model"`
	Stream  *bool  `json:"stream"`
}

// streamLine mirrors the Ollama chat wire shape so existing NDJSON
// consumers can read our stream unchanged.
type streamLine struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.Model != "" {
		h.orch.SetModel(req.Model)
	}
	ctx := c.Request.Context()

	transcript, err := h.orch.Transcript(ctx, defaultHistoryLimit)
	if err != nil {
		handleError(c, err)
		return
	}

	if req.Stream != nil && !*req.Stream {
		reply, err := h.orch.ReplyOnce(ctx, transcript, req.Message)
		if err != nil {
			handleError(c, err)
			return
		}
		response.Success(c, gin.H{"reply": reply})
		return
	}

	ch, err := h.orch.Reply(ctx, transcript, req.Message)
	if err != nil {
		handleError(c, err)
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Status(http.StatusOK)
	enc := json.NewEncoder(c.Writer)
	flusher, _ := c.Writer.(http.Flusher)
	for f := range ch {
		var line streamLine
		if f.Err != nil {
			line.Error = f.Err.Error()
		} else {
			line.Message.Content = f.Text
		}
		if err := enc.Encode(line); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	final := streamLine{Done: true}
	_ = enc.Encode(final)
	if flusher != nil {
		flusher.Flush()
	}
}
