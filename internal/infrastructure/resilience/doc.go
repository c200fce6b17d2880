/*
Package resilience provides the circuit breaker that guards the HTTP executor.

When the API host is unreachable every call would otherwise spend its full
retry budget on connection errors. The breaker trips after a run of
failures and rejects attempts until Timeout has passed, then lets
MaxRequests probes through to decide whether to close again.

The caller decides what counts as a failure. The web client passes an
IsSuccessful that only rejects transport errors, so HTTP and platform
errors from a reachable server never trip it.

# Usage

	breaker := resilience.New("webclient", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 10
		},
		IsSuccessful: func(err error) bool {
			return !errors.Is(err, apierror.ErrRequest)
		},
	})

	err := breaker.Execute(func() error {
		resp, err = executor.Execute(ctx, req)
		return err
	})
	if resilience.Rejected(err) {
		// fail fast
	}

Allow is the two-step form for callers that learn the outcome later:

	done, err := breaker.Allow()
	if err != nil {
		return err
	}
	done(outcomeWasSuccessful)

# States

	Closed --[ReadyToTrip]-> Open --[Timeout]-> Half-Open --[MaxRequests successes]-> Closed
	                                               |
	                                           [failure]
	                                               v
	                                              Open
*/
package resilience
