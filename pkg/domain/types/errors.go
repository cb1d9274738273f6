package types

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrQuotaExhausted means the API budget is spent; the caller should wait
	// until the reported reset before retrying.
	ErrQuotaExhausted = goerr.New("api quota exhausted")

	// ErrThrottled means the API asked us to slow down (secondary rate
	// limiting). Retryable with backoff.
	ErrThrottled = goerr.New("api throttled")

	// ErrTransient marks a failure worth retrying, such as a 5xx response.
	ErrTransient = goerr.New("transient api failure")

	// ErrStorageConflict marks a storage constraint violation; the failed
	// batch is skipped, not the whole run.
	ErrStorageConflict = goerr.New("storage constraint violation")

	ErrInvalidOption    = goerr.New("invalid option")
	ErrValidationFailed = goerr.New("validation failed")
)
