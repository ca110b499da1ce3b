// Package httputil provides retry helpers for calls to the analysis service.
//
// # Retry
//
// [Retry] re-runs an operation with exponential backoff, but only when the
// failure is wrapped in a [RetryableError]:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    ...
//	})
//
// Network errors and 5xx responses are retryable. 4xx responses are not,
// since resending the same payload yields the same answer.
//
// # Configuration
//
// [DefaultPolicy] is 3 attempts with a 1 second initial delay. The
// [backend] section of the config file overrides both.
package httputil
