// Package mcp simulates MCP-like auxiliary resources. Only the call contract
// matters to the orchestrator: a short textual context block per query.
package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const contextHeader = "MCP resources:"

// Resource is one named auxiliary tool.
type Resource interface {
	Name() string
	Call(ctx context.Context, query string) (string, error)
}

// Server gathers context lines from a fixed set of resources. A failing
// resource degrades to a "no data" line instead of aborting the block.
type Server struct {
	resources []Resource
}

func NewServer(enabled map[string]bool) *Server {
	all := []Resource{
		webSearchResource{},
		calculatorResource{},
		documentStoreResource{},
		calendarResource{},
	}
	var active []Resource
	for _, r := range all {
		if on, found := enabled[r.Name()]; found && !on {
			continue
		}
		active = append(active, r)
	}
	return &Server{resources: active}
}

// GatherContext produces one "- name: result" line per enabled resource.
func (s *Server) GatherContext(ctx context.Context, query string) string {
	if len(s.resources) == 0 {
		return ""
	}
	lines := make([]string, 0, len(s.resources))
	for _, r := range s.resources {
		result, err := r.Call(ctx, query)
		if err != nil {
			logutil.GetLogger(ctx).Debug("resource call failed", zap.String("resource", r.Name()), zap.Error(err))
			result = fmt.Sprintf("no data for resource '%s'", r.Name())
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", r.Name(), result))
	}
	return contextHeader + "\n" + strings.Join(lines, "\n")
}
