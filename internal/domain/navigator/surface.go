package navigator

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/navigator/internal/shared/types"
)

// Dispatcher delivers events to one page.
// Deliver must not block and must not call back into the Navigator
// synchronously; it runs on the navigator's executor.
type Dispatcher interface {
	Deliver(event types.Event) error
}

// Surface is the rendering context hosting one page
type Surface interface {
	Dispatcher() Dispatcher
	// Teardown dismisses the surface. It must return promptly; slow
	// dismissal belongs on the surface's own goroutine.
	Teardown(ctx context.Context) error
}

// Releaser is implemented by surfaces that hold local resources, such as
// an event outbox. Release frees them after the surface went away by other
// means and must not touch the remote side.
type Releaser interface {
	Release()
}

func release(s Surface) {
	if r, ok := s.(Releaser); ok {
		r.Release()
	}
}

// SurfaceRequest describes the surface to build for a pushed page
type SurfaceRequest struct {
	PageID   string
	SourceID string
	Locator  string
	Title    string
	Payload  map[string]interface{}
}

// SurfaceFactory builds surfaces for pushed pages.
//
// Create must not wait for the surface to become ready: readiness is
// reported later through Navigator.CompletePush, and asynchronous
// construction failures through Navigator.SurfaceDestroyed.
type SurfaceFactory interface {
	Create(ctx context.Context, req SurfaceRequest) (Surface, error)
}
