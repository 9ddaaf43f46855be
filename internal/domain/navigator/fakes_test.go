package navigator

import (
	"context"
	"errors"
	"sync"

	"github.com/GriffinCanCode/AgentOS/navigator/internal/shared/types"
)

// recorder is a dispatcher that keeps every delivered event
type recorder struct {
	mu     sync.Mutex
	events []types.Event
	fail   bool
}

func (r *recorder) Deliver(event types.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("dispatcher gone")
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) Events() []types.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) OfType(t types.EventType) []types.Event {
	var out []types.Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// fakeSurface records teardown and release calls into shared logs
type fakeSurface struct {
	id       string
	rec      *recorder
	log      *teardownLog
	released *teardownLog
	failDown bool
}

func (s *fakeSurface) Release() {
	if s.released != nil {
		s.released.add(s.id)
	}
}

func (s *fakeSurface) Dispatcher() Dispatcher { return s.rec }

func (s *fakeSurface) Teardown(ctx context.Context) error {
	if s.log != nil {
		s.log.add(s.id)
	}
	if s.failDown {
		return errors.New("teardown failed")
	}
	return nil
}

type teardownLog struct {
	mu  sync.Mutex
	ids []string
}

func (l *teardownLog) add(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids = append(l.ids, id)
}

func (l *teardownLog) IDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.ids))
	copy(out, l.ids)
	return out
}

// fakeFactory builds fakeSurfaces and remembers them by page id
type fakeFactory struct {
	mu       sync.Mutex
	surfaces map[string]*fakeSurface
	requests []SurfaceRequest
	log      *teardownLog
	released *teardownLog
	err      error
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		surfaces: make(map[string]*fakeSurface),
		log:      &teardownLog{},
		released: &teardownLog{},
	}
}

func (f *fakeFactory) Create(ctx context.Context, req SurfaceRequest) (Surface, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	s := &fakeSurface{id: req.PageID, rec: &recorder{}, log: f.log, released: f.released}
	f.surfaces[req.PageID] = s
	return s, nil
}

func (f *fakeFactory) recorder(pageID string) *recorder {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.surfaces[pageID]; ok {
		return s.rec
	}
	return nil
}

func (f *fakeFactory) Requests() []SurfaceRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]SurfaceRequest, len(f.requests))
	copy(out, f.requests)
	return out
}
