// Package service provides the tool registry through which pages issue
// navigator commands.
//
// Providers expose a types.Service definition listing their tools; the
// registry routes "<service>.<tool>" ids to the owning provider and
// records per-tool metrics.
//
// Example Usage:
//
//	registry := service.NewRegistry(logger)
//	registry.Register(navigatorProvider)
//	services := registry.Discover("push page", 5)
//	result, err := registry.Execute(ctx, "navigator.push", params, appCtx)
package service
