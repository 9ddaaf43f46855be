// Package navigator maintains the page stack and routes messages between pages.
//
// A Navigator owns an ordered stack of pages. Each page is backed by a
// Surface produced by a SurfaceFactory and receives events through the
// surface's Dispatcher.
//
// Two-phase registration:
//
//	Push ──► pending ──(CompletePush)──► confirmed ──(Pop/ClosePage)──► removed
//	            │
//	            └──(timeout / SurfaceDestroyed / ClosePage)──► discarded
//
// Push returns the allocated page immediately. The page only becomes
// addressable (GetPages, PostMessage) once its surface reports readiness
// through CompletePush. Duplicate completion signals are no-ops.
//
// Concurrency:
//   - All state lives on a single executor goroutine
//   - Every public method may be called from any goroutine
//   - Operations run in submission order, so a Push racing a Pop is ordered
//
// Root protection:
//   - The root is registered synchronously with RegisterRoot
//   - Pop, PopToRoot, Replace and ClosePage never remove it
//
// Example Usage:
//
//	nav, err := navigator.New(factory, navigator.Config{PendingTimeout: 30 * time.Second}, logger)
//	root, err := nav.RegisterRoot(ctx, rootSurface, "page://home", "Home")
//	page, err := nav.Push(ctx, navigator.PushRequest{SourceID: root.ID, Locator: "page://settings"})
//	// ... later, when the settings surface is ready:
//	nav.CompletePush(ctx, page.ID)
package navigator
