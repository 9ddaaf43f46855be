package navigator

import "errors"

var (
	ErrInvalidParams             = errors.New("invalid params")
	ErrUnknownPendingID          = errors.New("unknown pending id")
	ErrAlreadyAtRoot             = errors.New("already at root")
	ErrUnknownPageID             = errors.New("unknown page id")
	ErrSurfaceFactoryUnavailable = errors.New("surface factory unavailable")
	ErrNotInitialized            = errors.New("navigator not initialized")
	ErrAlreadyInitialized        = errors.New("navigator already initialized")
	ErrPushTimeout               = errors.New("push timed out")
	ErrSurfaceFailed             = errors.New("surface failed")
	ErrPushCancelled             = errors.New("push cancelled")
	ErrNavigatorClosed           = errors.New("navigator closed")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidParams, "invalid_params"},
	{ErrUnknownPendingID, "unknown_pending_id"},
	{ErrAlreadyAtRoot, "already_at_root"},
	{ErrUnknownPageID, "unknown_page_id"},
	{ErrSurfaceFactoryUnavailable, "surface_factory_unavailable"},
	{ErrNotInitialized, "not_initialized"},
	{ErrAlreadyInitialized, "already_initialized"},
	{ErrPushTimeout, "push_timeout"},
	{ErrSurfaceFailed, "surface_failed"},
	{ErrPushCancelled, "push_cancelled"},
	{ErrNavigatorClosed, "navigator_closed"},
}

// Code maps an error to a stable wire code. Unknown errors map to "internal".
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}
