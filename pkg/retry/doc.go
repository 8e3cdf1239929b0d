// Package retry runs an operation with bounded exponential backoff.
//
// Only errors marked with [Retryable] are retried; any other error ends the
// loop at once. The delay doubles after every failed attempt and the loop
// stops early when the context is cancelled:
//
//	err := retry.Do(ctx, retry.Policy{Attempts: 5, InitialDelay: 50 * time.Millisecond}, func() error {
//	    if !host.Loaded() {
//	        return retry.Retryable(errNotLoaded)
//	    }
//	    return nil
//	})
package retry
