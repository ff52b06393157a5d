// Package orchestrator drives one conversation turn: gather augmentation
// context, sanitize and assemble the backend request, stream the reply and
// keep the transcript store up to date.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ragtimehq/ragtime/internal/ai"
	"github.com/ragtimehq/ragtime/internal/assemble"
	"github.com/ragtimehq/ragtime/internal/model"
	apperrors "github.com/ragtimehq/ragtime/internal/pkg/errors"
	"github.com/ragtimehq/ragtime/internal/sanitize"
)

// Retriever is the document retrieval side. Empty results are a valid
// answer; retrieval never blocks a turn.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) []model.RetrievalResult
}

// ContextGatherer supplies the auxiliary tool context block.
type ContextGatherer interface {
	GatherContext(ctx context.Context, query string) string
}

// ConversationStore persists user/assistant turns. Durability only; a
// single session is correct without it.
type ConversationStore interface {
	Append(ctx context.Context, role, content string) (int64, error)
	Recent(ctx context.Context, limit int) ([]model.Turn, error)
}

type Orchestrator struct {
	backend   ai.IChatProvider
	retriever Retriever
	tools     ContextGatherer
	store     ConversationStore
	topK      int

	mu        sync.RWMutex
	modelName string
}

type Options struct {
	Backend   ai.IChatProvider
	ModelName string
	Retriever Retriever
	Tools     ContextGatherer
	Store     ConversationStore
	TopK      int
}

func New(opts Options) *Orchestrator {
	topK := opts.TopK
	if topK <= 0 {
		topK = 3
	}
	return &Orchestrator{
		backend:   opts.Backend,
		modelName: opts.ModelName,
		retriever: opts.Retriever,
		tools:     opts.Tools,
		store:     opts.Store,
		topK:      topK,
	}
}

// SetModel switches the active backend model for subsequent turns. It is
// safe to call while other turns are in flight; those keep the model they
// started with.
func (o *Orchestrator) SetModel(name string) {
	if strings.TrimSpace(name) == "" {
		return
	}
	o.mu.Lock()
	o.modelName = name
	o.mu.Unlock()
}

func (o *Orchestrator) currentModel() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.modelName
}

// Reply runs one turn. The returned channel yields reply fragments as they
// arrive from the backend, so partial output is observable before the turn
// finishes; the citation suffix, when retrieval contributed, arrives as the
// final fragment. The channel closes when the turn is complete or abandoned.
//
// Failures of retrieval or tool gathering never fail the turn. A backend
// failure is delivered as a tagged error fragment and recorded in the store
// as a marked reply that the sanitizer strips from future context.
func (o *Orchestrator) Reply(ctx context.Context, transcript []model.Message, userText string) (<-chan ai.Fragment, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return nil, fmt.Errorf("%w: empty user message", apperrors.ErrInvalid)
	}

	working := make([]model.Message, 0, len(transcript)+1)
	working = append(working, transcript...)
	working = append(working, model.Message{Role: model.RoleUser, Content: userText})

	// Retrieval and tool gathering are independent and read-only; run them
	// concurrently but join before assembly.
	var retrieval []model.RetrievalResult
	var toolContext string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if o.retriever != nil {
			retrieval = o.retriever.Retrieve(gctx, userText, o.topK)
		}
		return nil
	})
	g.Go(func() error {
		if o.tools != nil {
			toolContext = o.tools.GatherContext(gctx, userText)
		}
		return nil
	})
	_ = g.Wait()

	messages, suffix := assemble.Assemble(sanitize.Sanitize(working), retrieval, toolContext)

	o.persist(ctx, model.RoleUser, userText)

	modelName := o.currentModel()
	out := make(chan ai.Fragment, 16)
	go func() {
		defer close(out)
		var reply strings.Builder
		var berr *ai.BackendError
		for f := range o.backend.ChatStream(ctx, modelName, messages) {
			select {
			case <-ctx.Done():
				// Turn abandoned; unread fragments are discarded and
				// nothing is persisted for the assistant side.
				return
			case out <- f:
			}
			if f.Err != nil {
				berr = f.Err
				continue
			}
			reply.WriteString(f.Text)
		}
		if berr != nil {
			marked := fmt.Sprintf("%s %s: %s", sanitize.BackendErrorMarker, berr.Kind, berr.Detail)
			logutil.GetLogger(ctx).Warn("backend failed mid-turn", zap.String("kind", berr.Kind), zap.String("detail", berr.Detail))
			o.persist(ctx, model.RoleAssistant, marked)
			return
		}
		answer := reply.String()
		if suffix != "" && answer != "" {
			select {
			case <-ctx.Done():
				return
			case out <- ai.Fragment{Text: suffix}:
			}
			answer += suffix
		}
		o.persist(ctx, model.RoleAssistant, answer)
	}()
	return out, nil
}

// ReplyOnce is the non-streaming convenience: it drains the stream and
// returns the full reply including any citation suffix.
func (o *Orchestrator) ReplyOnce(ctx context.Context, transcript []model.Message, userText string) (string, error) {
	ch, err := o.Reply(ctx, transcript, userText)
	if err != nil {
		return "", err
	}
	text, berr := ai.Collect(ch)
	if berr != nil {
		return "", fmt.Errorf("%w: %s", apperrors.ErrBackendUnreachable, berr.Error())
	}
	return text, nil
}

// Transcript loads the recent persisted turns as backend messages.
func (o *Orchestrator) Transcript(ctx context.Context, limit int) ([]model.Message, error) {
	if o.store == nil {
		return nil, nil
	}
	turns, err := o.store.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	messages := make([]model.Message, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, model.Message{Role: t.Role, Content: t.Content})
	}
	return messages, nil
}

func (o *Orchestrator) persist(ctx context.Context, role, content string) {
	if o.store == nil || content == "" {
		return
	}
	if _, err := o.store.Append(ctx, role, content); err != nil {
		logutil.GetLogger(ctx).Warn("failed to persist turn", zap.String("role", role), zap.Error(err))
	}
}
