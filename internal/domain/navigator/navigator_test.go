package navigator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/navigator/internal/shared/types"
)

type harness struct {
	nav     *Navigator
	factory *fakeFactory
	root    types.Page
	rootRec *recorder
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()

	factory := newFakeFactory()
	nav, err := New(factory, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { nav.Shutdown(context.Background()) })

	rootRec := &recorder{}
	root, err := nav.RegisterRoot(context.Background(),
		&fakeSurface{id: "root", rec: rootRec, log: factory.log}, "page://root", "Home")
	require.NoError(t, err)

	return &harness{nav: nav, factory: factory, root: root, rootRec: rootRec}
}

// open pushes and confirms a page
func (h *harness) open(t *testing.T, locator string, payload map[string]interface{}) types.Page {
	t.Helper()
	page, err := h.nav.Push(context.Background(), PushRequest{Locator: locator, Payload: payload})
	require.NoError(t, err)
	confirmed, err := h.nav.CompletePush(context.Background(), page.ID)
	require.NoError(t, err)
	return confirmed
}

func pageIDs(pages []types.Page) []string {
	ids := make([]string, len(pages))
	for i, p := range pages {
		ids[i] = p.ID
	}
	return ids
}

func TestRegisterRoot(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	assert.Equal(t, 0, h.root.Index)
	assert.Empty(t, h.root.ParentID)
	assert.True(t, h.root.IsRoot())
	assert.Equal(t, "Home", h.root.Title)

	pages, err := h.nav.GetPages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{h.root.ID}, pageIDs(pages))

	_, err = h.nav.RegisterRoot(ctx, &fakeSurface{rec: &recorder{}}, "page://other", "")
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestRegisterRootValidation(t *testing.T) {
	nav, err := New(newFakeFactory(), Config{}, nil)
	require.NoError(t, err)
	defer nav.Shutdown(context.Background())

	_, err = nav.RegisterRoot(context.Background(), nil, "page://root", "")
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = nav.RegisterRoot(context.Background(), &fakeSurface{rec: &recorder{}}, "", "")
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestUninitialized(t *testing.T) {
	nav, err := New(newFakeFactory(), Config{}, nil)
	require.NoError(t, err)
	defer nav.Shutdown(context.Background())
	ctx := context.Background()

	_, err = nav.Push(ctx, PushRequest{Locator: "page://a"})
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = nav.Pop(ctx, PopRequest{})
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = nav.GetCurrentPage(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestPopAtRoot(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	_, err := h.nav.Pop(ctx, PopRequest{})
	assert.ErrorIs(t, err, ErrAlreadyAtRoot)

	_, err = h.nav.PopToRoot(ctx, nil)
	assert.ErrorIs(t, err, ErrAlreadyAtRoot)
}

func TestPushIsTwoPhase(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	page, err := h.nav.Push(ctx, PushRequest{
		Locator: "page://a",
		Title:   "A",
		Payload: map[string]interface{}{"x": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Index)
	assert.Equal(t, h.root.ID, page.ParentID)
	assert.Equal(t, "A", page.Title)

	pages, err := h.nav.GetPages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{h.root.ID}, pageIDs(pages))

	stats, err := h.nav.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Confirmed)
	assert.Equal(t, 1, stats.Pending)

	res, err := h.nav.PostMessage(ctx, MessageRequest{TargetID: page.ID, FromID: h.root.ID})
	require.NoError(t, err)
	assert.False(t, res.Delivered)

	_, err = h.nav.CompletePush(ctx, page.ID)
	require.NoError(t, err)

	pages, err = h.nav.GetPages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{h.root.ID, page.ID}, pageIDs(pages))

	created := h.factory.recorder(page.ID).OfType(types.EventCreated)
	require.Len(t, created, 1)
	assert.Equal(t, map[string]interface{}{"x": 1}, created[0].Payload)
	assert.Equal(t, page.ID, created[0].Target)

	opened := h.rootRec.OfType(types.EventOpened)
	require.Len(t, opened, 1)
	require.NotNil(t, opened[0].Page)
	assert.Equal(t, page.ID, opened[0].Page.ID)

	req := h.factory.Requests()
	require.Len(t, req, 1)
	assert.Equal(t, "page://a", req[0].Locator)
	assert.Equal(t, h.root.ID, req[0].SourceID)
}

func TestCompletePushIsIdempotent(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	page := h.open(t, "page://a", nil)

	_, err := h.nav.CompletePush(ctx, page.ID)
	assert.ErrorIs(t, err, ErrUnknownPendingID)

	_, err = h.nav.CompletePush(ctx, "page_unknown")
	assert.ErrorIs(t, err, ErrUnknownPendingID)

	assert.Len(t, h.factory.recorder(page.ID).OfType(types.EventCreated), 1)
	assert.Len(t, h.rootRec.OfType(types.EventOpened), 1)

	pages, err := h.nav.GetPages(ctx)
	require.NoError(t, err)
	assert.Len(t, pages, 2)
}

func TestPushValidation(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	_, err := h.nav.Push(ctx, PushRequest{})
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = h.nav.Push(ctx, PushRequest{Locator: "page://a", SourceID: "page_missing"})
	assert.ErrorIs(t, err, ErrUnknownPageID)
}

func TestPushWithoutFactory(t *testing.T) {
	nav, err := New(nil, Config{}, nil)
	require.NoError(t, err)
	defer nav.Shutdown(context.Background())

	_, err = nav.RegisterRoot(context.Background(), &fakeSurface{rec: &recorder{}}, "page://root", "")
	require.NoError(t, err)

	_, err = nav.Push(context.Background(), PushRequest{Locator: "page://a"})
	assert.ErrorIs(t, err, ErrSurfaceFactoryUnavailable)
}

func TestPushFactoryFailure(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	h.factory.err = assert.AnError
	_, err := h.nav.Push(ctx, PushRequest{Locator: "page://a"})
	assert.ErrorIs(t, err, ErrSurfaceFailed)

	h.factory.err = ErrSurfaceFactoryUnavailable
	_, err = h.nav.Push(ctx, PushRequest{Locator: "page://a"})
	assert.ErrorIs(t, err, ErrSurfaceFactoryUnavailable)

	stats, err := h.nav.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Pending)
}

func TestLocatorPolicy(t *testing.T) {
	h := newHarness(t, Config{AllowedLocators: []string{"page://**"}})
	ctx := context.Background()

	_, err := h.nav.Push(ctx, PushRequest{Locator: "file:///etc/passwd"})
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = h.nav.Push(ctx, PushRequest{Locator: "page://settings/display"})
	assert.NoError(t, err)

	_, err = New(nil, Config{AllowedLocators: []string{"page://[a"}}, nil)
	assert.Error(t, err)
}

func TestIndexIsCreationOrder(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	a := h.open(t, "page://a", nil)
	b := h.open(t, "page://b", nil)
	assert.Equal(t, 1, a.Index)
	assert.Equal(t, 2, b.Index)

	require.NoError(t, h.nav.ClosePage(ctx, a.ID))

	got, err := h.nav.GetPage(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Index)

	c, err := h.nav.Push(ctx, PushRequest{Locator: "page://c"})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Index)
}

func TestPopWithResult(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	p1 := h.open(t, "page://a", nil)
	p2 := h.open(t, "page://b", nil)

	res, err := h.nav.Pop(ctx, PopRequest{Result: map[string]interface{}{"ok": true}})
	require.NoError(t, err)
	assert.Equal(t, []string{p2.ID}, pageIDs(res.Removed))

	pages, err := h.nav.GetPages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{h.root.ID, p1.ID}, pageIDs(pages))

	results := h.factory.recorder(p1.ID).OfType(types.EventResult)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].From)
	assert.Equal(t, p2.ID, results[0].From.ID)
	assert.Equal(t, map[string]interface{}{"ok": true}, results[0].Result)

	destroyed := h.factory.recorder(p2.ID).OfType(types.EventDestroyed)
	assert.Len(t, destroyed, 1)
	assert.Equal(t, []string{p2.ID}, h.factory.log.IDs())
}

func TestPopWithoutResult(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	p1 := h.open(t, "page://a", nil)
	h.open(t, "page://b", nil)

	_, err := h.nav.Pop(ctx, PopRequest{})
	require.NoError(t, err)
	assert.Empty(t, h.factory.recorder(p1.ID).OfType(types.EventResult))
}

func TestPopClampsToRoot(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	h.open(t, "page://a", nil)
	h.open(t, "page://b", nil)

	res, err := h.nav.Pop(ctx, PopRequest{Count: 10})
	require.NoError(t, err)
	assert.Len(t, res.Removed, 2)

	current, err := h.nav.GetCurrentPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, h.root.ID, current.ID)
}

func TestPopToRootOrder(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	p1 := h.open(t, "page://a", nil)
	p2 := h.open(t, "page://b", nil)
	p3 := h.open(t, "page://c", nil)

	res, err := h.nav.PopToRoot(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{p3.ID, p2.ID, p1.ID}, pageIDs(res.Removed))
	assert.Equal(t, []string{p3.ID, p2.ID, p1.ID}, h.factory.log.IDs())

	pages, err := h.nav.GetPages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{h.root.ID}, pageIDs(pages))
}

func TestRootProtection(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	for round := 0; round < 5; round++ {
		for i := 0; i < round; i++ {
			h.open(t, "page://x", nil)
		}
		_, _ = h.nav.Pop(ctx, PopRequest{Count: round + 1})
		_, _ = h.nav.PopToRoot(ctx, nil)

		pages, err := h.nav.GetPages(ctx)
		require.NoError(t, err)
		require.Len(t, pages, 1)
		assert.Equal(t, h.root.ID, pages[0].ID)
	}

	assert.ErrorIs(t, h.nav.ClosePage(ctx, h.root.ID), ErrAlreadyAtRoot)

	changed, err := h.nav.SurfaceDestroyed(ctx, h.root.ID)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSnapshotIsolation(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	p1 := h.open(t, "page://a", nil)

	before, err := h.nav.GetPages(ctx)
	require.NoError(t, err)

	_, err = h.nav.Pop(ctx, PopRequest{})
	require.NoError(t, err)

	assert.Equal(t, []string{h.root.ID, p1.ID}, pageIDs(before))

	after, err := h.nav.GetPages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{h.root.ID}, pageIDs(after))
}

func TestPostMessage(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	p1 := h.open(t, "page://a", nil)
	p2 := h.open(t, "page://b", nil)

	res, err := h.nav.PostMessage(ctx, MessageRequest{
		TargetID: p2.ID,
		FromID:   p1.ID,
		Payload:  map[string]interface{}{"hi": 1},
	})
	require.NoError(t, err)
	assert.True(t, res.Delivered)
	assert.Equal(t, 1, res.Count)

	msgs := h.factory.recorder(p2.ID).OfType(types.EventMessage)
	require.Len(t, msgs, 1)
	assert.Equal(t, p1.ID, msgs[0].FromID)
	assert.Equal(t, map[string]interface{}{"hi": 1}, msgs[0].Payload)

	_, err = h.nav.Pop(ctx, PopRequest{})
	require.NoError(t, err)

	res, err = h.nav.PostMessage(ctx, MessageRequest{
		TargetID: p2.ID,
		FromID:   p1.ID,
		Payload:  map[string]interface{}{"hi": 1},
	})
	require.NoError(t, err)
	assert.False(t, res.Delivered)
	assert.Equal(t, 0, res.Count)
}

func TestBroadcastExcludesSender(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	p1 := h.open(t, "page://a", nil)
	p2 := h.open(t, "page://b", nil)

	res, err := h.nav.PostMessage(ctx, MessageRequest{
		FromID:  h.root.ID,
		Payload: map[string]interface{}{"t": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.True(t, res.Delivered)

	assert.Empty(t, h.rootRec.OfType(types.EventMessage))
	assert.Len(t, h.factory.recorder(p1.ID).OfType(types.EventMessage), 1)
	assert.Len(t, h.factory.recorder(p2.ID).OfType(types.EventMessage), 1)

	res, err = h.nav.PostMessage(ctx, MessageRequest{FromID: p2.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Len(t, h.factory.recorder(p2.ID).OfType(types.EventMessage), 1)
}

func TestSetTitle(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	p1 := h.open(t, "page://a", nil)

	page, err := h.nav.SetTitle(ctx, "", "<b>Inbox</b>  (3)")
	require.NoError(t, err)
	assert.Equal(t, p1.ID, page.ID)
	assert.Equal(t, "Inbox (3)", page.Title)

	page, err = h.nav.SetTitle(ctx, h.root.ID, "Start")
	require.NoError(t, err)
	assert.Equal(t, "Start", page.Title)

	_, err = h.nav.SetTitle(ctx, "page_missing", "x")
	assert.ErrorIs(t, err, ErrUnknownPageID)
}

func TestReplace(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	p1 := h.open(t, "page://a", nil)

	next, err := h.nav.Replace(ctx, PushRequest{Locator: "page://b"})
	require.NoError(t, err)
	assert.Equal(t, p1.ID, next.ParentID)

	pages, err := h.nav.GetPages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{h.root.ID, p1.ID}, pageIDs(pages))

	_, err = h.nav.CompletePush(ctx, next.ID)
	require.NoError(t, err)

	pages, err = h.nav.GetPages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{h.root.ID, next.ID}, pageIDs(pages))

	assert.Len(t, h.factory.recorder(p1.ID).OfType(types.EventOpened), 1)
	assert.Len(t, h.factory.recorder(p1.ID).OfType(types.EventDestroyed), 1)
	assert.Equal(t, []string{p1.ID}, h.factory.log.IDs())
}

func TestReplaceRoot(t *testing.T) {
	h := newHarness(t, Config{})

	_, err := h.nav.Replace(context.Background(), PushRequest{Locator: "page://b"})
	assert.ErrorIs(t, err, ErrAlreadyAtRoot)
}

func TestPendingTimeout(t *testing.T) {
	h := newHarness(t, Config{PendingTimeout: 20 * time.Millisecond})
	ctx := context.Background()

	page, err := h.nav.Push(ctx, PushRequest{Locator: "page://slow"})
	require.NoError(t, err)

	_, err = h.nav.Wait(ctx, page.ID)
	assert.ErrorIs(t, err, ErrPushTimeout)

	// the expiry runs to completion before the next command
	stats, err := h.nav.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Pending)

	failed := h.rootRec.OfType(types.EventPushFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "push_timeout", failed[0].Reason)
	require.NotNil(t, failed[0].Page)
	assert.Equal(t, page.ID, failed[0].Page.ID)

	assert.Equal(t, []string{page.ID}, h.factory.log.IDs())

	_, err = h.nav.CompletePush(ctx, page.ID)
	assert.ErrorIs(t, err, ErrUnknownPendingID)
}

func TestWait(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	page, err := h.nav.Push(ctx, PushRequest{Locator: "page://a"})
	require.NoError(t, err)

	done := make(chan types.Page, 1)
	go func() {
		confirmed, err := h.nav.Wait(ctx, page.ID)
		assert.NoError(t, err)
		done <- confirmed
	}()

	// a page confirmed before Wait runs is returned directly
	_, err = h.nav.CompletePush(ctx, page.ID)
	require.NoError(t, err)

	select {
	case confirmed := <-done:
		assert.Equal(t, page.ID, confirmed.ID)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return")
	}

	_, err = h.nav.Wait(ctx, "page_missing")
	assert.ErrorIs(t, err, ErrUnknownPageID)
}

func TestWaitContextCancelled(t *testing.T) {
	h := newHarness(t, Config{})

	page, err := h.nav.Push(context.Background(), PushRequest{Locator: "page://a"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = h.nav.Wait(ctx, page.ID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClosePage(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	p1 := h.open(t, "page://a", nil)
	p2 := h.open(t, "page://b", nil)

	require.NoError(t, h.nav.ClosePage(ctx, p1.ID))
	pages, err := h.nav.GetPages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{h.root.ID, p2.ID}, pageIDs(pages))
	assert.Len(t, h.factory.recorder(p1.ID).OfType(types.EventDestroyed), 1)

	require.NoError(t, h.nav.ClosePage(ctx, p2.ID))
	pages, err = h.nav.GetPages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{h.root.ID}, pageIDs(pages))

	assert.Equal(t, []string{p1.ID, p2.ID}, h.factory.log.IDs())
	assert.ErrorIs(t, h.nav.ClosePage(ctx, p2.ID), ErrUnknownPageID)
}

func TestClosePendingPage(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	page, err := h.nav.Push(ctx, PushRequest{Locator: "page://a"})
	require.NoError(t, err)

	require.NoError(t, h.nav.ClosePage(ctx, page.ID))

	_, err = h.nav.CompletePush(ctx, page.ID)
	assert.ErrorIs(t, err, ErrUnknownPendingID)

	failed := h.rootRec.OfType(types.EventPushFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "push_cancelled", failed[0].Reason)
	assert.Equal(t, []string{page.ID}, h.factory.log.IDs())
}

func TestSurfaceDestroyed(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	p1 := h.open(t, "page://a", nil)
	h.open(t, "page://b", nil)

	changed, err := h.nav.SurfaceDestroyed(ctx, p1.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = h.nav.SurfaceDestroyed(ctx, p1.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	assert.Empty(t, h.factory.recorder(p1.ID).OfType(types.EventDestroyed))
	assert.Empty(t, h.factory.log.IDs())

	pending, err := h.nav.Push(ctx, PushRequest{Locator: "page://c"})
	require.NoError(t, err)
	changed, err = h.nav.SurfaceDestroyed(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = h.nav.Wait(ctx, pending.ID)
	assert.ErrorIs(t, err, ErrUnknownPageID)

	stats, err := h.nav.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Confirmed)
	assert.Equal(t, 0, stats.Pending)
}

func TestSurfaceDestroyedReleasesLocalResources(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	confirmed := h.open(t, "page://a", nil)
	pending, err := h.nav.Push(ctx, PushRequest{Locator: "page://b"})
	require.NoError(t, err)

	_, err = h.nav.SurfaceDestroyed(ctx, pending.ID)
	require.NoError(t, err)
	_, err = h.nav.SurfaceDestroyed(ctx, confirmed.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{pending.ID, confirmed.ID}, h.factory.released.IDs())
	assert.Empty(t, h.factory.log.IDs(), "remote teardown is skipped")

	changed, err := h.nav.SurfaceDestroyed(ctx, h.root.ID)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, h.factory.released.IDs(), 2)
}

func TestConcurrentPushIDsAreUnique(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	const n = 64
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[string]int)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			page, err := h.nav.Push(ctx, PushRequest{Locator: "page://x"})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			ids[page.ID] = page.Index
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, ids, n)
	indexes := make(map[int]bool)
	for _, idx := range ids {
		indexes[idx] = true
	}
	assert.Len(t, indexes, n)
}

func TestShutdown(t *testing.T) {
	factory := newFakeFactory()
	nav, err := New(factory, Config{}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = nav.RegisterRoot(ctx, &fakeSurface{rec: &recorder{}}, "page://root", "")
	require.NoError(t, err)
	page, err := nav.Push(ctx, PushRequest{Locator: "page://a"})
	require.NoError(t, err)

	waitErr := make(chan error, 1)
	go func() {
		_, err := nav.Wait(ctx, page.ID)
		waitErr <- err
	}()
	// give Wait a chance to register before shutting down
	time.Sleep(10 * time.Millisecond)

	nav.Shutdown(ctx)

	select {
	case err := <-waitErr:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after shutdown")
	}

	_, err = nav.GetPages(ctx)
	assert.ErrorIs(t, err, ErrNavigatorClosed)

	nav.Shutdown(ctx)
}

func TestShutdownWithCancelledContext(t *testing.T) {
	factory := newFakeFactory()
	nav, err := New(factory, Config{}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = nav.RegisterRoot(ctx, &fakeSurface{rec: &recorder{}}, "page://root", "")
	require.NoError(t, err)
	page, err := nav.Push(ctx, PushRequest{Locator: "page://a"})
	require.NoError(t, err)

	waitErr := make(chan error, 1)
	go func() {
		_, err := nav.Wait(ctx, page.ID)
		waitErr <- err
	}()
	time.Sleep(10 * time.Millisecond)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	nav.Shutdown(cancelled)

	select {
	case err := <-waitErr:
		assert.ErrorIs(t, err, ErrNavigatorClosed)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after shutdown")
	}
	assert.Equal(t, []string{page.ID}, factory.log.IDs())
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{nil, ""},
		{ErrAlreadyAtRoot, "already_at_root"},
		{ErrInvalidParams, "invalid_params"},
		{ErrPushTimeout, "push_timeout"},
		{assert.AnError, "internal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, Code(tt.err))
	}
}
