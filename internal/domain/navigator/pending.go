package navigator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/navigator/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/shared/types"
)

// completion is the future of one push. It resolves exactly once, with the
// confirmed page or with the reason the push was abandoned.
type completion struct {
	done     chan struct{}
	resolved bool
	page     types.Page
	err      error
}

func newCompletion() *completion {
	return &completion{done: make(chan struct{})}
}

// resolve must only be called from the executor
func (c *completion) resolve(page types.Page, err error) {
	if c.resolved {
		return
	}
	c.resolved = true
	c.page = page
	c.err = err
	close(c.done)
}

func (c *completion) wait(ctx context.Context) (types.Page, error) {
	select {
	case <-c.done:
		return c.page, c.err
	case <-ctx.Done():
		return types.Page{}, ctx.Err()
	}
}

// pendingEntry is a page whose surface has been requested but not confirmed
type pendingEntry struct {
	page       types.Page
	sourceID   string
	payload    map[string]interface{}
	surface    Surface
	replace    bool
	timer      *time.Timer
	completion *completion
}

func (pe *pendingEntry) stopTimer() {
	if pe.timer != nil {
		pe.timer.Stop()
		pe.timer = nil
	}
}

// PendingRegistry holds provisional pages keyed by id.
//
// PendingRegistry is not safe for concurrent use; the Navigator confines it
// to its executor goroutine.
type PendingRegistry struct {
	entries map[string]*pendingEntry
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewPendingRegistry creates an empty registry
func NewPendingRegistry(logger *zap.Logger) *PendingRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PendingRegistry{
		entries: make(map[string]*pendingEntry),
		logger:  logger,
	}
}

// WithMetrics adds metrics tracking to the registry
func (r *PendingRegistry) WithMetrics(metrics *monitoring.Metrics) *PendingRegistry {
	r.metrics = metrics
	return r
}

// Add stores a pending entry. Ids are allocated centrally, so a duplicate
// is an invariant violation.
func (r *PendingRegistry) Add(pe *pendingEntry) error {
	if _, exists := r.entries[pe.page.ID]; exists {
		r.logger.DPanic("Duplicate pending page id", zap.String("page_id", pe.page.ID))
		return fmt.Errorf("page %s already pending", pe.page.ID)
	}
	if pe.completion == nil {
		pe.completion = newCompletion()
	}
	r.entries[pe.page.ID] = pe
	r.metrics.SetPagesPending(len(r.entries))
	return nil
}

// TakeAndRemove fetches and clears a pending entry. It returns false if the
// id was never added or was already consumed.
func (r *PendingRegistry) TakeAndRemove(id string) (*pendingEntry, bool) {
	pe, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	delete(r.entries, id)
	pe.stopTimer()
	r.metrics.SetPagesPending(len(r.entries))
	return pe, true
}

// DiscardStale drops a pending entry that will never be confirmed and
// resolves its completion with cause.
func (r *PendingRegistry) DiscardStale(id string, cause error) (*pendingEntry, bool) {
	pe, ok := r.TakeAndRemove(id)
	if !ok {
		return nil, false
	}
	pe.completion.resolve(types.Page{}, fmt.Errorf("page %s: %w", id, cause))
	return pe, true
}

// Get returns a pending page by id
func (r *PendingRegistry) Get(id string) (types.Page, bool) {
	pe, ok := r.entries[id]
	if !ok {
		return types.Page{}, false
	}
	return pe.page, true
}

// Completion returns the future of a pending page
func (r *PendingRegistry) Completion(id string) (*completion, bool) {
	pe, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return pe.completion, true
}

// IDs returns the ids of all pending pages
func (r *PendingRegistry) IDs() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of pending pages
func (r *PendingRegistry) Len() int {
	return len(r.entries)
}
