// Package resilience groups the fault tolerance helpers used around feed
// fetching and state persistence.
//
//   - circuitbreaker: per-host breakers so one dead server does not cost a
//     full timeout on every refresh tick
//   - retry: exponential backoff with jitter for transient network and 5xx errors
//
// Usage Example:
//
//	breakers := circuitbreaker.NewSet(circuitbreaker.FeedFetchConfig)
//	err := retry.WithBackoff(ctx, retry.FeedFetchConfig(), func() error {
//	    return circuitbreaker.Run(breakers.For(host), fetch)
//	})
package resilience
