package navigator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/navigator/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/shared/utils"
)

// Config tunes a Navigator
type Config struct {
	// PendingTimeout bounds how long a pushed page may stay unconfirmed.
	// Zero disables the timeout.
	PendingTimeout time.Duration
	// AllowedLocators is a doublestar allow-list; empty allows everything.
	AllowedLocators []string
}

// PushRequest describes a Push or Replace command.
// An empty SourceID means the current page.
type PushRequest struct {
	SourceID string
	Locator  string
	Title    string
	Payload  map[string]interface{}
}

// PopRequest describes a Pop command. A Count below 1 pops one page.
type PopRequest struct {
	Result map[string]interface{}
	Count  int
}

// PopResult lists removed pages in top-to-bottom order
type PopResult struct {
	Removed []types.Page `json:"removed"`
}

// MessageRequest describes a PostMessage command.
// An empty TargetID broadcasts to every page but the sender.
type MessageRequest struct {
	TargetID string
	FromID   string
	Payload  map[string]interface{}
}

// MessageResult reports how many pages received a message
type MessageResult struct {
	Delivered bool `json:"delivered"`
	Count     int  `json:"count"`
}

// Navigator is the command surface over the page stack
type Navigator struct {
	exec      *executor
	stack     *PageStack
	pending   *PendingRegistry
	messenger *Messenger
	factory   SurfaceFactory
	policy    *utils.LocatorPolicy
	ids       *id.Generator
	timeout   time.Duration
	logger    *zap.Logger
	metrics   *monitoring.Metrics
	now       func() time.Time
}

// New creates a Navigator. A nil factory is allowed; Push then fails with
// ErrSurfaceFactoryUnavailable.
func New(factory SurfaceFactory, cfg Config, logger *zap.Logger) (*Navigator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	policy, err := utils.NewLocatorPolicy(cfg.AllowedLocators)
	if err != nil {
		return nil, fmt.Errorf("navigator config: %w", err)
	}

	stack := NewPageStack(logger)
	return &Navigator{
		exec:      newExecutor(),
		stack:     stack,
		pending:   NewPendingRegistry(logger),
		messenger: NewMessenger(stack, logger),
		factory:   factory,
		policy:    policy,
		ids:       id.Default(),
		timeout:   cfg.PendingTimeout,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// WithMetrics adds metrics tracking to the navigator. Call it before the
// navigator is shared.
func (n *Navigator) WithMetrics(metrics *monitoring.Metrics) *Navigator {
	n.metrics = metrics
	n.stack.WithMetrics(metrics)
	n.pending.WithMetrics(metrics)
	n.messenger.WithMetrics(metrics)
	return n
}

// WithIDGenerator replaces the page id source
func (n *Navigator) WithIDGenerator(gen *id.Generator) *Navigator {
	n.ids = gen
	return n
}

func (n *Navigator) validateLocator(locator string) error {
	if err := utils.ValidateLocator(locator); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if !n.policy.Allows(locator) {
		return fmt.Errorf("%w: locator %q is not allowed", ErrInvalidParams, locator)
	}
	return nil
}

// RegisterRoot installs the root page whose surface already exists
func (n *Navigator) RegisterRoot(ctx context.Context, surface Surface, locator, title string) (types.Page, error) {
	if surface == nil {
		return types.Page{}, fmt.Errorf("%w: root surface is required", ErrInvalidParams)
	}
	if err := n.validateLocator(locator); err != nil {
		return types.Page{}, err
	}

	var root types.Page
	err := n.exec.submit(ctx, func() error {
		var err error
		root, err = n.stack.RegisterRoot(types.Page{
			ID:        n.ids.NewPageID().String(),
			Locator:   locator,
			Title:     utils.SanitizeTitle(title),
			CreatedAt: n.now(),
		}, surface)
		return err
	})
	if err != nil {
		return types.Page{}, err
	}

	n.logger.Info("Root page registered",
		zap.String("page_id", root.ID),
		zap.String("locator", root.Locator),
	)
	return root, nil
}

// Push allocates a page and asks the factory for its surface. The page is
// returned at once but only becomes addressable after CompletePush.
func (n *Navigator) Push(ctx context.Context, req PushRequest) (types.Page, error) {
	return n.push(ctx, req, false)
}

// Replace pushes a page and removes the source page once the new page is
// confirmed. The source stays addressable until then.
func (n *Navigator) Replace(ctx context.Context, req PushRequest) (types.Page, error) {
	return n.push(ctx, req, true)
}

func (n *Navigator) push(ctx context.Context, req PushRequest, replace bool) (types.Page, error) {
	if err := n.validateLocator(req.Locator); err != nil {
		return types.Page{}, err
	}
	if n.factory == nil {
		n.metrics.RecordPush("unavailable")
		return types.Page{}, ErrSurfaceFactoryUnavailable
	}

	var page types.Page
	err := n.exec.submit(ctx, func() error {
		root, ok := n.stack.Root()
		if !ok {
			return ErrNotInitialized
		}

		sourceID := req.SourceID
		if sourceID == "" {
			current, _ := n.stack.Current()
			sourceID = current.ID
		} else if _, ok := n.stack.Get(sourceID); !ok {
			return fmt.Errorf("%w: source %s", ErrUnknownPageID, sourceID)
		}
		if replace && sourceID == root.ID {
			return fmt.Errorf("%w: the root page cannot be replaced", ErrAlreadyAtRoot)
		}

		page = types.Page{
			ID:        n.ids.NewPageID().String(),
			Locator:   req.Locator,
			Title:     utils.SanitizeTitle(req.Title),
			Index:     n.stack.Len() + n.pending.Len(),
			ParentID:  sourceID,
			CreatedAt: n.now(),
		}
		pe := &pendingEntry{
			page:       page,
			sourceID:   sourceID,
			payload:    req.Payload,
			replace:    replace,
			completion: newCompletion(),
		}
		if err := n.pending.Add(pe); err != nil {
			return err
		}

		surface, err := n.factory.Create(ctx, SurfaceRequest{
			PageID:   page.ID,
			SourceID: sourceID,
			Locator:  page.Locator,
			Title:    page.Title,
			Payload:  req.Payload,
		})
		if err != nil {
			if !errors.Is(err, ErrSurfaceFactoryUnavailable) {
				err = fmt.Errorf("%w: %v", ErrSurfaceFailed, err)
			}
			n.pending.DiscardStale(page.ID, err)
			return err
		}
		pe.surface = surface

		if n.timeout > 0 {
			pageID := page.ID
			pe.timer = time.AfterFunc(n.timeout, func() { n.expire(pageID) })
		}
		return nil
	})
	if err != nil {
		n.metrics.RecordPush(Code(err))
		return types.Page{}, err
	}

	n.metrics.RecordPush("pending")
	n.logger.Debug("Page pending",
		zap.String("page_id", page.ID),
		zap.String("source_id", page.ParentID),
		zap.String("locator", page.Locator),
		zap.Bool("replace", replace),
	)
	return page, nil
}

// expire discards a page whose surface never reported readiness
func (n *Navigator) expire(pageID string) {
	err := n.exec.submit(context.Background(), func() error {
		pe, ok := n.pending.DiscardStale(pageID, ErrPushTimeout)
		if !ok {
			return nil
		}
		n.logger.Warn("Pending page timed out",
			zap.String("page_id", pageID),
			zap.Duration("timeout", n.timeout),
		)
		n.metrics.RecordPendingTimeout()
		n.abandon(context.Background(), pe, ErrPushTimeout, true)
		return nil
	})
	if err != nil && !errors.Is(err, ErrNavigatorClosed) {
		n.logger.Error("Failed to expire pending page", zap.String("page_id", pageID), zap.Error(err))
	}
}

// abandon notifies the initiator of a discarded push and optionally tears
// down the surface that was being built
func (n *Navigator) abandon(ctx context.Context, pe *pendingEntry, cause error, teardown bool) {
	if teardown {
		n.stack.Teardown(ctx, &entry{page: pe.page, surface: pe.surface})
	}
	n.messenger.NotifyPushFailed(pe.sourceID, pe.page, Code(cause))
	n.metrics.RecordPush(Code(cause))
}

// CompletePush confirms a pending page once its surface is ready. A
// duplicate or stale signal changes nothing and reports ErrUnknownPendingID.
func (n *Navigator) CompletePush(ctx context.Context, pageID string) (types.Page, error) {
	var page types.Page
	err := n.exec.submit(ctx, func() error {
		pe, ok := n.pending.TakeAndRemove(pageID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPendingID, pageID)
		}

		e, err := n.stack.Promote(pe)
		if err != nil {
			pe.completion.resolve(types.Page{}, err)
			return err
		}
		page = e.page
		pe.completion.resolve(page, nil)

		n.messenger.NotifyCreated(e, pe.payload)
		n.messenger.NotifyOpened(pe.sourceID, page)

		if pe.replace {
			if old, ok := n.stack.Remove(pe.sourceID); ok {
				n.messenger.NotifyDestroyed(old)
				n.stack.Teardown(ctx, old)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUnknownPendingID) {
			n.logger.Debug("Ignoring completion signal", zap.String("page_id", pageID))
		}
		return types.Page{}, err
	}

	n.metrics.RecordPush("confirmed")
	n.logger.Info("Page confirmed",
		zap.String("page_id", page.ID),
		zap.String("locator", page.Locator),
		zap.Int("index", page.Index),
	)
	return page, nil
}

// Wait blocks until a pushed page is confirmed or abandoned. A page that is
// already confirmed is returned immediately.
func (n *Navigator) Wait(ctx context.Context, pageID string) (types.Page, error) {
	var (
		future    *completion
		confirmed types.Page
	)
	err := n.exec.submit(ctx, func() error {
		if c, ok := n.pending.Completion(pageID); ok {
			future = c
			return nil
		}
		if page, ok := n.stack.Get(pageID); ok {
			confirmed = page
			return nil
		}
		return fmt.Errorf("%w: %s", ErrUnknownPageID, pageID)
	})
	if err != nil {
		return types.Page{}, err
	}
	if future == nil {
		return confirmed, nil
	}
	return future.wait(ctx)
}

// Pop removes count pages from the top. The root is never removed.
func (n *Navigator) Pop(ctx context.Context, req PopRequest) (PopResult, error) {
	count := req.Count
	if count < 1 {
		count = 1
	}
	return n.pop(ctx, req.Result, func(int) int { return count })
}

// PopToRoot removes every page above the root
func (n *Navigator) PopToRoot(ctx context.Context, result map[string]interface{}) (PopResult, error) {
	return n.pop(ctx, result, func(size int) int { return size - 1 })
}

func (n *Navigator) pop(ctx context.Context, result map[string]interface{}, count func(size int) int) (PopResult, error) {
	var removed []types.Page
	err := n.exec.submit(ctx, func() error {
		size := n.stack.Len()
		if size == 0 {
			return ErrNotInitialized
		}
		if size <= 1 {
			return ErrAlreadyAtRoot
		}

		removed = n.stack.Pop(ctx, count(size), n.messenger.NotifyDestroyed)
		if len(removed) > 0 && result != nil {
			current, _ := n.stack.Current()
			n.messenger.NotifyResult(current.ID, removed[0], result)
		}
		return nil
	})
	if err != nil {
		return PopResult{}, err
	}

	n.metrics.RecordPop(len(removed))
	n.logger.Debug("Pages popped", zap.Int("count", len(removed)))
	return PopResult{Removed: removed}, nil
}

// PostMessage sends payload to one page, or to every page but the sender
// when no target is given
func (n *Navigator) PostMessage(ctx context.Context, req MessageRequest) (MessageResult, error) {
	var res MessageResult
	err := n.exec.submit(ctx, func() error {
		if req.TargetID != "" {
			res.Delivered = n.messenger.Send(req.TargetID, req.FromID, req.Payload)
			if res.Delivered {
				res.Count = 1
			}
			return nil
		}
		res.Count = n.messenger.Broadcast(req.FromID, req.Payload)
		res.Delivered = res.Count > 0
		return nil
	})
	return res, err
}

// GetPages returns a snapshot of the confirmed stack
func (n *Navigator) GetPages(ctx context.Context) ([]types.Page, error) {
	var pages []types.Page
	err := n.exec.submit(ctx, func() error {
		pages = n.stack.All()
		return nil
	})
	return pages, err
}

// GetCurrentPage returns the top of the stack
func (n *Navigator) GetCurrentPage(ctx context.Context) (types.Page, error) {
	var page types.Page
	err := n.exec.submit(ctx, func() error {
		current, ok := n.stack.Current()
		if !ok {
			return ErrNotInitialized
		}
		page = current
		return nil
	})
	return page, err
}

// GetPage returns a confirmed page by id
func (n *Navigator) GetPage(ctx context.Context, pageID string) (types.Page, error) {
	var page types.Page
	err := n.exec.submit(ctx, func() error {
		p, ok := n.stack.Get(pageID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPageID, pageID)
		}
		page = p
		return nil
	})
	return page, err
}

// Root returns the root page
func (n *Navigator) Root(ctx context.Context) (types.Page, error) {
	var page types.Page
	err := n.exec.submit(ctx, func() error {
		root, ok := n.stack.Root()
		if !ok {
			return ErrNotInitialized
		}
		page = root
		return nil
	})
	return page, err
}

// SetTitle retitles a confirmed page; an empty id means the current page
func (n *Navigator) SetTitle(ctx context.Context, pageID, title string) (types.Page, error) {
	clean := utils.SanitizeTitle(title)

	var page types.Page
	err := n.exec.submit(ctx, func() error {
		target := pageID
		if target == "" {
			current, ok := n.stack.Current()
			if !ok {
				return ErrNotInitialized
			}
			target = current.ID
		}
		updated, ok := n.stack.SetTitle(target, clean)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPageID, target)
		}
		page = updated
		return nil
	})
	return page, err
}

// ClosePage closes one page wherever it is. A pending page is cancelled,
// the top page is popped, a page further down is removed in place.
func (n *Navigator) ClosePage(ctx context.Context, pageID string) error {
	err := n.exec.submit(ctx, func() error {
		if pe, ok := n.pending.DiscardStale(pageID, ErrPushCancelled); ok {
			n.abandon(ctx, pe, ErrPushCancelled, true)
			return nil
		}

		if _, ok := n.stack.Get(pageID); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPageID, pageID)
		}
		if n.stack.isRoot(pageID) {
			return ErrAlreadyAtRoot
		}

		if current, _ := n.stack.Current(); current.ID == pageID {
			n.stack.Pop(ctx, 1, n.messenger.NotifyDestroyed)
			return nil
		}

		old, ok := n.stack.Remove(pageID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPageID, pageID)
		}
		n.messenger.NotifyDestroyed(old)
		n.stack.Teardown(ctx, old)
		return nil
	})
	if err != nil {
		return err
	}

	n.logger.Debug("Page closed", zap.String("page_id", pageID))
	return nil
}

// SurfaceDestroyed records that a page's surface went away by other means
// (system back, process kill, failed construction). It is idempotent and
// reports whether anything changed.
func (n *Navigator) SurfaceDestroyed(ctx context.Context, pageID string) (bool, error) {
	changed := false
	err := n.exec.submit(ctx, func() error {
		if pe, ok := n.pending.DiscardStale(pageID, ErrSurfaceFailed); ok {
			n.abandon(ctx, pe, ErrSurfaceFailed, false)
			if pe.surface != nil {
				release(pe.surface)
			}
			changed = true
			return nil
		}
		if old, ok := n.stack.Remove(pageID); ok {
			if old.surface != nil {
				release(old.surface)
			}
			changed = true
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if changed {
		n.logger.Info("Surface destroyed externally", zap.String("page_id", pageID))
	}
	return changed, nil
}

// Stats returns navigator statistics
func (n *Navigator) Stats(ctx context.Context) (types.StackStats, error) {
	var stats types.StackStats
	err := n.exec.submit(ctx, func() error {
		stats.Confirmed = n.stack.Len()
		stats.Pending = n.pending.Len()
		if root, ok := n.stack.Root(); ok {
			stats.RootID = root.ID
		}
		if current, ok := n.stack.Current(); ok {
			stats.CurrentID = current.ID
		}
		return nil
	})
	return stats, err
}

// Shutdown abandons pending pages and stops the executor. Later calls fail
// with ErrNavigatorClosed. Pending pages are discarded on the executor even
// when ctx is already done, so no Wait is left blocked.
func (n *Navigator) Shutdown(ctx context.Context) {
	n.exec.closeWith(func() {
		for _, pageID := range n.pending.IDs() {
			if pe, ok := n.pending.DiscardStale(pageID, ErrNavigatorClosed); ok {
				n.stack.Teardown(ctx, &entry{page: pe.page, surface: pe.surface})
			}
		}
	})
}
