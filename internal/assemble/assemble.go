// Package assemble builds the exact message sequence submitted to a chat
// backend for one turn, merging the sanitized transcript with retrieved
// document context and auxiliary tool context.
package assemble

import (
	"fmt"
	"strings"

	"github.com/ragtimehq/ragtime/internal/model"
)

const (
	documentContextPrompt = "Answer the question using only the context below.\n\n"
	toolContextPrompt     = "Extra context from auxiliary resources:\n\n"
	citationPrefix        = "\n\nSources: "
)

// Assemble produces the backend message sequence and the citation suffix to
// append to the final answer.
//
// Placement policy: document context is the task instruction, so it goes
// immediately before the final user turn, where "most recent system
// instruction wins" providers give it priority. Tool context is background,
// so it sits at the head of the sequence. The input transcript is never
// mutated; injected system turns exist only in the returned copy.
func Assemble(transcript []model.Message, retrieval []model.RetrievalResult, toolContext string) ([]model.Message, string) {
	messages := make([]model.Message, len(transcript))
	copy(messages, transcript)

	var suffix string
	if len(retrieval) > 0 {
		docMsg := model.Message{
			Role:    model.RoleSystem,
			Content: documentContextPrompt + formatSnippets(retrieval),
		}
		messages = insertBeforeLastUser(messages, docMsg)
		suffix = citationSuffix(retrieval)
	}
	if strings.TrimSpace(toolContext) != "" {
		toolMsg := model.Message{
			Role:    model.RoleSystem,
			Content: toolContextPrompt + toolContext,
		}
		messages = append([]model.Message{toolMsg}, messages...)
	}
	return messages, suffix
}

func formatSnippets(retrieval []model.RetrievalResult) string {
	var b strings.Builder
	for i, r := range retrieval {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s] %s", r.Filename, r.Snippet)
	}
	return b.String()
}

// citationSuffix lists the unique source filenames in order of first
// appearance. It is only produced when retrieval actually contributed.
func citationSuffix(retrieval []model.RetrievalResult) string {
	seen := make(map[string]bool, len(retrieval))
	var names []string
	for _, r := range retrieval {
		if seen[r.Filename] {
			continue
		}
		seen[r.Filename] = true
		names = append(names, r.Filename)
	}
	return citationPrefix + strings.Join(names, ", ")
}

// insertBeforeLastUser places msg immediately before the final user turn,
// or at the end when the sequence has no user turn.
func insertBeforeLastUser(messages []model.Message, msg model.Message) []model.Message {
	idx := -1
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == model.RoleUser {
			idx = i
			break
		}
	}
	if idx < 0 {
		return append(messages, msg)
	}
	out := make([]model.Message, 0, len(messages)+1)
	out = append(out, messages[:idx]...)
	out = append(out, msg)
	out = append(out, messages[idx:]...)
	return out
}
