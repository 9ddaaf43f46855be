/*
Package resilience provides a circuit breaker for calls to external
dependencies, used by the surface host client.

# Usage

	breaker := resilience.New("surface-host", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	err := breaker.Do(ctx, func(ctx context.Context) error {
		return client.Call(ctx)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		// fail fast
	}

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open

Outcomes of calls admitted before a state change are discarded.
*/
package resilience
