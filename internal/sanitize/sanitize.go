// Package sanitize prepares a transcript for backend submission. Backends
// have no notion of auxiliary context, so UI artifacts, injected context
// dumps and error turns must never leak into a request.
package sanitize

import (
	"strings"

	"github.com/ragtimehq/ragtime/internal/model"
)

// BackendErrorMarker prefixes the in-band reply written when a backend call
// fails, so later turns can recognize and drop it.
const BackendErrorMarker = "[backend error]"

var contextDumpPrefixes = []string{
	"MCP resources:",
	"RAG context:",
}

// Sanitize returns the backend-ready copy of a transcript. It is a pure
// function: same input, same output, no hidden state, and applying it twice
// changes nothing.
//
// Rules, in order: drop blank turns; drop error-marker turns; drop system
// turns (genuine context is re-injected by the assembler afterward); reduce
// context dump blocks to their trailing query line; collapse roles to
// user/assistant; drop a user turn repeating the previous user turn.
func Sanitize(transcript []model.Message) []model.Message {
	cleaned := make([]model.Message, 0, len(transcript))
	for _, m := range transcript {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		if strings.HasPrefix(content, BackendErrorMarker) {
			continue
		}
		if m.Role == model.RoleSystem {
			continue
		}
		if dumped, ok := stripContextDump(content); ok {
			if dumped == "" {
				continue
			}
			content = dumped
		}
		role := model.RoleAssistant
		if m.Role == model.RoleUser {
			role = model.RoleUser
		}
		cleaned = append(cleaned, model.Message{Role: role, Content: content})
	}

	out := make([]model.Message, 0, len(cleaned))
	for i, m := range cleaned {
		if i > 0 && m.Role == model.RoleUser && cleaned[i-1].Role == model.RoleUser && m.Content == cleaned[i-1].Content {
			continue
		}
		out = append(out, m)
	}
	return out
}

// stripContextDump reduces an injected context block to its last non-blank
// line, which is the user's own query when the block was built by appending
// the query after the context.
func stripContextDump(content string) (string, bool) {
	matched := false
	for _, prefix := range contextDumpPrefixes {
		if strings.HasPrefix(content, prefix) {
			matched = true
			break
		}
	}
	if !matched {
		return content, false
	}
	var last string
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			last = trimmed
		}
	}
	return last, true
}
