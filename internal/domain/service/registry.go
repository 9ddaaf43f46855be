package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/navigator/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/shared/types"
)

// Provider interface for service implementations
type Provider interface {
	Definition() types.Service
	Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error)
}

// Registry manages service discovery and execution
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	logger    *zap.Logger
	metrics   *monitoring.Metrics
}

// NewRegistry creates a new service registry
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		providers: make(map[string]Provider),
		logger:    logger,
	}
}

// WithMetrics adds metrics tracking to the registry
func (r *Registry) WithMetrics(metrics *monitoring.Metrics) *Registry {
	r.metrics = metrics
	return r
}

// Register adds a service provider
func (r *Registry) Register(provider Provider) error {
	def := provider.Definition()
	if def.ID == "" {
		return fmt.Errorf("service ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[def.ID]; exists {
		return fmt.Errorf("service already registered: %s", def.ID)
	}
	r.providers[def.ID] = provider

	r.logger.Debug("Service registered",
		zap.String("service", def.ID),
		zap.Int("tools", len(def.Tools)),
	)
	return nil
}

// Unregister removes a service provider
func (r *Registry) Unregister(serviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.providers, serviceID)
}

// Get retrieves a service by ID
func (r *Registry) Get(serviceID string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[serviceID]
	return p, ok
}

// List returns registered services sorted by ID
func (r *Registry) List(category *types.Category) []types.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	services := make([]types.Service, 0, len(r.providers))
	for _, provider := range r.providers {
		def := provider.Definition()
		if category == nil || def.Category == *category {
			services = append(services, def)
		}
	}
	sort.Slice(services, func(i, j int) bool { return services[i].ID < services[j].ID })
	return services
}

// Discover finds services relevant to a free-text intent
func (r *Registry) Discover(intent string, limit int) []types.Service {
	type scored struct {
		service types.Service
		score   float64
	}

	intent = strings.ToLower(intent)
	var results []scored
	for _, def := range r.List(nil) {
		if score := relevance(intent, def); score > 0 {
			results = append(results, scored{service: def, score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	output := make([]types.Service, 0, limit)
	for i := 0; i < len(results) && i < limit; i++ {
		output = append(output, results[i].service)
	}
	return output
}

// Execute runs a service tool. Tool ids have the form "<service>.<tool>".
func (r *Registry) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	serviceID, _, ok := strings.Cut(toolID, ".")
	if !ok || serviceID == "" {
		return Failure("invalid_params", fmt.Sprintf("invalid tool ID format: %s", toolID)),
			fmt.Errorf("invalid tool ID format: %s", toolID)
	}

	provider, ok := r.Get(serviceID)
	if !ok {
		return Failure("unknown_service", fmt.Sprintf("service not found: %s", serviceID)),
			fmt.Errorf("service not found: %s", serviceID)
	}

	timer := monitoring.NewTimer(r.metrics, serviceID, toolID)
	result, err := provider.Execute(ctx, toolID, params, appCtx)
	switch {
	case err != nil:
		timer.Stop("error")
		r.logger.Warn("Tool execution failed", zap.String("tool", toolID), zap.Error(err))
	case result != nil && !result.Success:
		timer.Stop("failure")
	default:
		timer.Stop("success")
	}
	return result, err
}

// Stats returns registry statistics
func (r *Registry) Stats() map[string]interface{} {
	var total, totalTools int
	categories := make(map[string]int)

	for _, def := range r.List(nil) {
		total++
		totalTools += len(def.Tools)
		categories[string(def.Category)]++
	}

	return map[string]interface{}{
		"total_services": total,
		"total_tools":    totalTools,
		"categories":     categories,
	}
}

func relevance(intent string, service types.Service) float64 {
	score := 0.0

	if strings.Contains(intent, service.ID) || strings.Contains(intent, strings.ToLower(service.Name)) {
		score += 10.0
	}

	for _, tool := range service.Tools {
		_, name, _ := strings.Cut(tool.ID, ".")
		if name != "" && strings.Contains(intent, strings.ReplaceAll(name, "_", " ")) {
			score += 5.0
		}
	}

	for _, capability := range service.Capabilities {
		if strings.Contains(intent, strings.ReplaceAll(strings.ToLower(capability), "_", " ")) {
			score += 3.0
		}
	}

	if strings.Contains(intent, string(service.Category)) {
		score += 2.0
	}

	return score
}

// Success wraps data in a successful result
func Success(data map[string]interface{}) *types.Result {
	return &types.Result{Success: true, Data: data}
}

// Failure builds a failed result with a stable code
func Failure(code, message string) *types.Result {
	return &types.Result{Success: false, Error: &message, Code: code}
}
