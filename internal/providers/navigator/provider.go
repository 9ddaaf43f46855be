package navigator

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	nav "github.com/GriffinCanCode/AgentOS/navigator/internal/domain/navigator"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/domain/service"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/shared/utils"
)

// Navigator is the command surface the provider exposes
type Navigator interface {
	Push(ctx context.Context, req nav.PushRequest) (types.Page, error)
	Replace(ctx context.Context, req nav.PushRequest) (types.Page, error)
	Pop(ctx context.Context, req nav.PopRequest) (nav.PopResult, error)
	PopToRoot(ctx context.Context, result map[string]interface{}) (nav.PopResult, error)
	PostMessage(ctx context.Context, req nav.MessageRequest) (nav.MessageResult, error)
	GetPages(ctx context.Context) ([]types.Page, error)
	GetCurrentPage(ctx context.Context) (types.Page, error)
	SetTitle(ctx context.Context, pageID, title string) (types.Page, error)
	ClosePage(ctx context.Context, pageID string) error
}

// Provider exposes navigator commands as registry tools. The calling page
// comes from the execution context.
type Provider struct {
	nav       Navigator
	validator *utils.PayloadValidator
	logger    *zap.Logger
}

// NewProvider creates a navigator provider
func NewProvider(n Navigator, validator *utils.PayloadValidator, logger *zap.Logger) *Provider {
	if validator == nil {
		validator = utils.DefaultPayloadValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{nav: n, validator: validator, logger: logger}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	payload := types.Parameter{Name: "payload", Type: "object", Description: "Data handed to the new page", Required: false}
	result := types.Parameter{Name: "result", Type: "object", Description: "Data returned to the page below", Required: false}
	pageID := types.Parameter{Name: "page_id", Type: "string", Description: "Target page (defaults to the caller)", Required: false}

	return types.Service{
		ID:          "navigator",
		Name:        "Navigator",
		Description: "Multi-view page stack with cross-page messaging",
		Category:    types.CategoryNavigation,
		Capabilities: []string{
			"push",
			"pop",
			"pop_to_root",
			"replace",
			"messaging",
			"broadcast",
		},
		Tools: []types.Tool{
			{
				ID:          "navigator.push",
				Name:        "Push Page",
				Description: "Open a new page above the caller",
				Parameters: []types.Parameter{
					{Name: "locator", Type: "string", Description: "Page locator", Required: true},
					{Name: "title", Type: "string", Description: "Initial title", Required: false},
					payload,
				},
				Returns: "object",
			},
			{
				ID:          "navigator.replace",
				Name:        "Replace Page",
				Description: "Open a new page and remove the caller once it is ready",
				Parameters: []types.Parameter{
					{Name: "locator", Type: "string", Description: "Page locator", Required: true},
					{Name: "title", Type: "string", Description: "Initial title", Required: false},
					payload,
				},
				Returns: "object",
			},
			{
				ID:          "navigator.pop",
				Name:        "Go Back",
				Description: "Remove pages from the top of the stack",
				Parameters: []types.Parameter{
					result,
					{Name: "count", Type: "number", Description: "Pages to remove (default 1)", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "navigator.pop_to_root",
				Name:        "Back To Root",
				Description: "Remove every page above the root",
				Parameters:  []types.Parameter{result},
				Returns:     "object",
			},
			{
				ID:          "navigator.post_message",
				Name:        "Post Message",
				Description: "Send a message to one page, or to all other pages without a target",
				Parameters: []types.Parameter{
					{Name: "target_id", Type: "string", Description: "Receiving page", Required: false},
					{Name: "payload", Type: "object", Description: "Message body", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "navigator.get_pages",
				Name:        "List Pages",
				Description: "Snapshot of the stack, root first",
				Parameters:  []types.Parameter{},
				Returns:     "array",
			},
			{
				ID:          "navigator.get_current_page",
				Name:        "Current Page",
				Description: "The page on top of the stack",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "navigator.set_title",
				Name:        "Set Title",
				Description: "Update a page title",
				Parameters: []types.Parameter{
					pageID,
					{Name: "title", Type: "string", Description: "New title", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "navigator.close",
				Name:        "Close Page",
				Description: "Remove one page wherever it is in the stack",
				Parameters:  []types.Parameter{pageID},
				Returns:     "object",
			},
		},
	}
}

// Execute runs a navigator tool
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	if params == nil {
		params = map[string]interface{}{}
	}
	caller := callerID(appCtx)

	switch toolID {
	case "navigator.push":
		return p.push(ctx, params, caller, false)
	case "navigator.replace":
		return p.push(ctx, params, caller, true)
	case "navigator.pop":
		return p.pop(ctx, params)
	case "navigator.pop_to_root":
		return p.popToRoot(ctx, params)
	case "navigator.post_message":
		return p.postMessage(ctx, params, caller)
	case "navigator.get_pages":
		return p.getPages(ctx)
	case "navigator.get_current_page":
		return p.getCurrentPage(ctx)
	case "navigator.set_title":
		return p.setTitle(ctx, params, caller)
	case "navigator.close":
		return p.closePage(ctx, params, caller)
	default:
		return service.Failure("unknown_tool", fmt.Sprintf("unknown tool: %s", toolID)), nil
	}
}

func (p *Provider) push(ctx context.Context, params map[string]interface{}, caller string, replace bool) (*types.Result, error) {
	locator, ok := getString(params, "locator")
	if !ok || locator == "" {
		return invalid("locator parameter required")
	}
	payload, err := p.payload(params, "payload")
	if err != nil {
		return invalid(err.Error())
	}
	title, _ := getString(params, "title")
	source, _ := getString(params, "source_id")
	if source == "" {
		source = caller
	}

	req := nav.PushRequest{SourceID: source, Locator: locator, Title: title, Payload: payload}
	var page types.Page
	if replace {
		page, err = p.nav.Replace(ctx, req)
	} else {
		page, err = p.nav.Push(ctx, req)
	}
	if err != nil {
		return failure(err)
	}
	p.logger.Debug("Push requested",
		zap.String("page_id", page.ID),
		zap.String("source_id", source),
		zap.Bool("replace", replace),
	)

	return service.Success(map[string]interface{}{
		"page":    page,
		"pending": true,
	}), nil
}

func (p *Provider) pop(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	result, err := p.payload(params, "result")
	if err != nil {
		return invalid(err.Error())
	}
	count := 1
	n, ok, err := getInt(params, "count")
	if err != nil {
		return invalid(err.Error())
	}
	if ok {
		count = n
	}

	popped, err := p.nav.Pop(ctx, nav.PopRequest{Result: result, Count: count})
	if err != nil {
		return failure(err)
	}
	return removed(popped), nil
}

func (p *Provider) popToRoot(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	result, err := p.payload(params, "result")
	if err != nil {
		return invalid(err.Error())
	}

	popped, err := p.nav.PopToRoot(ctx, result)
	if err != nil {
		return failure(err)
	}
	return removed(popped), nil
}

func (p *Provider) postMessage(ctx context.Context, params map[string]interface{}, caller string) (*types.Result, error) {
	payload, err := p.payload(params, "payload")
	if err != nil {
		return invalid(err.Error())
	}
	if payload == nil {
		return invalid("payload parameter required")
	}
	target, _ := getString(params, "target_id")

	res, err := p.nav.PostMessage(ctx, nav.MessageRequest{TargetID: target, FromID: caller, Payload: payload})
	if err != nil {
		return failure(err)
	}
	return service.Success(map[string]interface{}{
		"delivered": res.Delivered,
		"count":     res.Count,
		"broadcast": target == "",
	}), nil
}

func (p *Provider) getPages(ctx context.Context) (*types.Result, error) {
	pages, err := p.nav.GetPages(ctx)
	if err != nil {
		return failure(err)
	}
	return service.Success(map[string]interface{}{
		"pages": pages,
		"count": len(pages),
	}), nil
}

func (p *Provider) getCurrentPage(ctx context.Context) (*types.Result, error) {
	page, err := p.nav.GetCurrentPage(ctx)
	if err != nil {
		return failure(err)
	}
	return service.Success(map[string]interface{}{"page": page}), nil
}

func (p *Provider) setTitle(ctx context.Context, params map[string]interface{}, caller string) (*types.Result, error) {
	title, ok := getString(params, "title")
	if !ok {
		return invalid("title parameter required")
	}
	target, _ := getString(params, "page_id")
	if target == "" {
		target = caller
	}

	page, err := p.nav.SetTitle(ctx, target, title)
	if err != nil {
		return failure(err)
	}
	return service.Success(map[string]interface{}{"page": page}), nil
}

func (p *Provider) closePage(ctx context.Context, params map[string]interface{}, caller string) (*types.Result, error) {
	target, _ := getString(params, "page_id")
	if target == "" {
		target = caller
	}
	if target == "" {
		return invalid("page_id parameter required")
	}

	if err := p.nav.ClosePage(ctx, target); err != nil {
		return failure(err)
	}
	return service.Success(map[string]interface{}{"closed": target}), nil
}

// payload reads an optional object parameter and checks its limits
func (p *Provider) payload(params map[string]interface{}, key string) (map[string]interface{}, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%s must be an object", key)
	}
	if err := p.validator.Validate(m); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return m, nil
}

func removed(res nav.PopResult) *types.Result {
	return service.Success(map[string]interface{}{
		"removed": res.Removed,
		"count":   len(res.Removed),
	})
}

func failure(err error) (*types.Result, error) {
	return service.Failure(nav.Code(err), err.Error()), nil
}

func invalid(message string) (*types.Result, error) {
	return service.Failure(nav.Code(nav.ErrInvalidParams), message), nil
}

func callerID(appCtx *types.Context) string {
	if appCtx == nil || appCtx.PageID == nil {
		return ""
	}
	return *appCtx.PageID
}

func getString(params map[string]interface{}, key string) (string, bool) {
	s, ok := params[key].(string)
	return s, ok
}

// getInt reads a whole number. JSON numbers arrive as float64; values out
// of int range saturate.
func getInt(params map[string]interface{}, key string) (int, bool, error) {
	switch v := params[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, false, fmt.Errorf("%s must be a whole number", key)
		}
		switch {
		case v >= math.MaxInt:
			return math.MaxInt, true, nil
		case v <= math.MinInt:
			return math.MinInt, true, nil
		}
		return int(v), true, nil
	case int:
		return v, true, nil
	case int64:
		if v > math.MaxInt {
			return math.MaxInt, true, nil
		}
		return int(v), true, nil
	default:
		return 0, false, nil
	}
}
