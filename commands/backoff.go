package commands

import (
	"context"
	"sync"
	"time"
)

// backoffPolicy implements capped exponential backoff with a bounded retry
// budget. The budget counts consecutive transient failures; any success
// resets it.
type backoffPolicy struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	maxRetries   int

	mu          sync.Mutex
	consecutive int
	delay       time.Duration
}

func newBackoffPolicy(initialDelay, maxDelay time.Duration, maxRetries int) *backoffPolicy {
	return &backoffPolicy{
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
		maxRetries:   maxRetries,
	}
}

// next returns the delay before the next attempt, or false when the error is
// not transient or the retry budget is spent.
func (p *backoffPolicy) next(err error) (time.Duration, bool) {
	if !isTransient(err) {
		return 0, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.consecutive >= p.maxRetries {
		return 0, false
	}
	p.consecutive++
	if p.delay == 0 {
		p.delay = p.initialDelay
	} else {
		p.delay *= 2
		if p.delay > p.maxDelay {
			p.delay = p.maxDelay
		}
	}
	return p.delay, true
}

// reset clears the consecutive failure count after a success.
func (p *backoffPolicy) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.consecutive = 0
	p.delay = 0
}

// withBackoff runs op, retrying transient failures per the policy. The sleep
// between attempts honours ctx cancellation. The last error is returned when
// the budget runs out.
func withBackoff(ctx context.Context, policy *backoffPolicy, opName string, op func() error) error {
	for {
		err := op()
		if err == nil {
			policy.reset()
			return nil
		}
		delay, retry := policy.next(err)
		if !retry {
			return err
		}
		logger.Debug("retrying after transient failure",
			"op", opName, "delay", delay, "error", err)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
