package navigator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/navigator/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/shared/types"
)

// entry is a confirmed page together with its surface
type entry struct {
	page    types.Page
	surface Surface
}

func (e *entry) dispatcher() Dispatcher {
	if e.surface == nil {
		return nil
	}
	return e.surface.Dispatcher()
}

// PageStack is the ordered stack of confirmed pages.
//
// PageStack is not safe for concurrent use; the Navigator confines it to
// its executor goroutine.
type PageStack struct {
	entries []*entry
	byID    map[string]*entry
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewPageStack creates an empty, uninitialized stack
func NewPageStack(logger *zap.Logger) *PageStack {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageStack{
		byID:   make(map[string]*entry),
		logger: logger,
	}
}

// WithMetrics adds metrics tracking to the stack
func (s *PageStack) WithMetrics(metrics *monitoring.Metrics) *PageStack {
	s.metrics = metrics
	return s
}

// RegisterRoot installs the root page. It may only be called once.
func (s *PageStack) RegisterRoot(page types.Page, surface Surface) (types.Page, error) {
	if len(s.entries) > 0 {
		return types.Page{}, ErrAlreadyInitialized
	}

	page.Index = 0
	page.ParentID = ""
	e := &entry{page: page, surface: surface}
	s.entries = append(s.entries, e)
	s.byID[page.ID] = e
	s.metrics.SetPagesActive(len(s.entries))

	return page, nil
}

// Promote appends a confirmed pending entry at the tail
func (s *PageStack) Promote(pe *pendingEntry) (*entry, error) {
	if pe == nil {
		return nil, ErrUnknownPendingID
	}
	if _, exists := s.byID[pe.page.ID]; exists {
		s.logger.DPanic("Promoting a page that is already confirmed", zap.String("page_id", pe.page.ID))
		return nil, fmt.Errorf("page %s already confirmed", pe.page.ID)
	}

	e := &entry{page: pe.page, surface: pe.surface}
	s.entries = append(s.entries, e)
	s.byID[e.page.ID] = e
	s.metrics.SetPagesActive(len(s.entries))

	return e, nil
}

// Current returns the top of the stack
func (s *PageStack) Current() (types.Page, bool) {
	if len(s.entries) == 0 {
		return types.Page{}, false
	}
	return s.entries[len(s.entries)-1].page, true
}

// Root returns the root page
func (s *PageStack) Root() (types.Page, bool) {
	if len(s.entries) == 0 {
		return types.Page{}, false
	}
	return s.entries[0].page, true
}

// All returns a snapshot of the stack in navigation order
func (s *PageStack) All() []types.Page {
	pages := make([]types.Page, len(s.entries))
	for i, e := range s.entries {
		pages[i] = e.page
	}
	return pages
}

// Len returns the number of confirmed pages
func (s *PageStack) Len() int {
	return len(s.entries)
}

// Get returns a confirmed page by id
func (s *PageStack) Get(id string) (types.Page, bool) {
	e, ok := s.byID[id]
	if !ok {
		return types.Page{}, false
	}
	return e.page, true
}

func (s *PageStack) lookup(id string) (*entry, bool) {
	e, ok := s.byID[id]
	return e, ok
}

func (s *PageStack) isRoot(id string) bool {
	return len(s.entries) > 0 && s.entries[0].page.ID == id
}

// Pop removes up to count entries from the top, never the root. Entries are
// processed top to bottom; for each one notify runs, then its surface is torn
// down. The removal is committed before any teardown starts.
func (s *PageStack) Pop(ctx context.Context, count int, notify func(*entry)) []types.Page {
	if limit := len(s.entries) - 1; count > limit {
		count = limit
	}
	if count <= 0 {
		return nil
	}

	cut := len(s.entries) - count
	removed := make([]*entry, 0, count)
	for i := len(s.entries) - 1; i >= cut; i-- {
		removed = append(removed, s.entries[i])
		delete(s.byID, s.entries[i].page.ID)
		s.entries[i] = nil
	}
	s.entries = s.entries[:cut]
	s.metrics.SetPagesActive(len(s.entries))

	pages := make([]types.Page, 0, len(removed))
	for _, e := range removed {
		if notify != nil {
			notify(e)
		}
		s.Teardown(ctx, e)
		pages = append(pages, e.page)
	}
	return pages
}

// Remove detaches a page out of band. Removing an unknown id is a no-op and
// the root is never removed.
func (s *PageStack) Remove(id string) (*entry, bool) {
	e, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	if s.isRoot(id) {
		s.logger.Warn("Refusing to remove root page", zap.String("page_id", id))
		return nil, false
	}

	for i, candidate := range s.entries {
		if candidate == e {
			copy(s.entries[i:], s.entries[i+1:])
			s.entries[len(s.entries)-1] = nil
			s.entries = s.entries[:len(s.entries)-1]
			break
		}
	}
	delete(s.byID, id)
	s.metrics.SetPagesActive(len(s.entries))

	return e, true
}

// SetTitle updates the title of a confirmed page
func (s *PageStack) SetTitle(id, title string) (types.Page, bool) {
	e, ok := s.byID[id]
	if !ok {
		return types.Page{}, false
	}
	e.page.Title = title
	return e.page, true
}

// Teardown dismisses the surface of a removed entry. Failures are logged
// and never undo the removal.
func (s *PageStack) Teardown(ctx context.Context, e *entry) {
	if e == nil || e.surface == nil {
		return
	}
	if err := e.surface.Teardown(ctx); err != nil {
		s.logger.Warn("Surface teardown failed",
			zap.String("page_id", e.page.ID),
			zap.Error(err),
		)
		s.metrics.RecordTeardownError()
	}
}
