package nodekit

import (
	"context"
	"time"

	"github.com/meshed/agentgraph/pkg/domain"
)

// RetryConfig bounds re-invocation of an adapter call inside a node.
// The engine itself never retries.
type RetryConfig struct {
	MaxAttempts int
	Backoff     time.Duration

	// ShouldRetry decides whether a fault is worth another attempt.
	// Nil retries everything except cancellation, not-found and invalid arguments.
	ShouldRetry func(f *domain.Fault) bool
}

// Retry calls attempt until it succeeds, the attempts run out, the fault is not
// retryable, or ctx ends. Every attempt is returned, last one being the outcome,
// so that the node can record all of them.
func Retry(ctx context.Context, cfg RetryConfig, attempt func(context.Context) domain.CallRecord) []domain.CallRecord {
	attempts := normalizedAttempts(cfg.MaxAttempts)
	records := make([]domain.CallRecord, 0, 1)
	for i := 1; i <= attempts; i++ {
		rec := attempt(ctx)
		records = append(records, rec)
		if rec.OK() || i == attempts || !shouldRetry(ctx, cfg, rec.Fault) {
			break
		}
		Logger(ctx).Debug("Retrying adapter call", "attempt", i+1, "max_attempts", attempts, "err", rec.Fault)
		if !sleep(ctx, cfg.Backoff*time.Duration(i)) {
			break
		}
	}
	return records
}

// Last returns the final record of a Retry result.
func Last(records []domain.CallRecord) domain.CallRecord {
	if len(records) == 0 {
		return domain.CallRecord{}
	}
	return records[len(records)-1]
}

func normalizedAttempts(maxAttempts int) int {
	if maxAttempts < 1 {
		return 1
	}
	return maxAttempts
}

func shouldRetry(ctx context.Context, cfg RetryConfig, f *domain.Fault) bool {
	if ctx.Err() != nil {
		return false
	}
	if cfg.ShouldRetry != nil {
		return cfg.ShouldRetry(f)
	}
	switch f.Code {
	case domain.CodeCanceled, domain.CodeNotFound, domain.CodeInvalidArgs:
		return false
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
