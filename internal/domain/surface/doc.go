// Package surface provides the host-mode surface factory.
//
// In host mode a native shell owns the windows. Create asks the shell to
// open one with POST {host}/surfaces and returns at once; the page then
// connects to /stream like any other page and sends ready. Teardown
// releases the page's outbox and sends DELETE {host}/surfaces/{page_id}.
//
// Shell calls go through resty over a retryablehttp transport, a rate
// limiter and a circuit breaker. While the circuit is open Create fails
// with navigator.ErrSurfaceFactoryUnavailable.
package surface
