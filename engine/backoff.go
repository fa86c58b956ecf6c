package engine

import "time"

// BackoffStrategy defines retry backoff behavior for unprocessed batch items
type BackoffStrategy string

const (
	BackoffLinear      BackoffStrategy = "LINEAR"
	BackoffExponential BackoffStrategy = "EXPONENTIAL"
	BackoffNone        BackoffStrategy = "NONE"
)

// maxBackoff caps a single wait so a misconfigured base delay cannot stall a seed
const maxBackoff = 30 * time.Second

// CalculateBackoff calculates the backoff delay for a retry attempt.
// It supports three strategies:
//   - EXPONENTIAL: baseDelay * 2^(attempt-1)
//   - LINEAR: baseDelay * attempt
//   - NONE: no backoff delay
//
// Returns 0 for attempt 0. Unknown strategies fall back to LINEAR.
func CalculateBackoff(baseDelayMs int, attempt int, strategy BackoffStrategy) time.Duration {
	if attempt <= 0 || baseDelayMs <= 0 {
		return 0
	}

	baseDelay := time.Duration(baseDelayMs) * time.Millisecond

	var delay time.Duration
	switch strategy {
	case BackoffExponential:
		shift := attempt - 1
		if shift > 16 {
			shift = 16
		}
		delay = baseDelay * time.Duration(1<<shift)
	case BackoffNone:
		return 0
	default:
		delay = baseDelay * time.Duration(attempt)
	}

	if delay > maxBackoff {
		return maxBackoff
	}
	return delay
}
