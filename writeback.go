package cachefront

import (
	"context"
	"time"
)

// retryDelay computes the wait before a retry. retry is zero-indexed from the
// first retry (not the first attempt). With backoff the delay doubles per
// retry; either way it never exceeds limit.
func retryDelay(interval, limit time.Duration, backoff bool, retry int) time.Duration {
	d := interval
	if backoff {
		d = interval << retry
		if d <= 0 {
			// Shift overflow; the schedule is past the cap anyway.
			return limit
		}
	}
	if d > limit {
		return limit
	}
	return d
}

// enqueueWriteBack propagates a write-back operation to the origin on its own
// goroutine: retryCount+1 attempts with the policy's retry schedule. The
// store mutation has already happened and the caller has already returned, so
// exhaustion is only logged. Close drains these goroutines.
func (c *Cache) enqueueWriteBack(op string, rc RouteContext, pol effectivePolicy, fn OriginFunc) {
	kind := "write"
	if op == "evict" {
		kind = "evict"
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		attempts := pol.retryCount + 1
		for i := 0; i < attempts; i++ {
			if i > 0 {
				c.sleep(retryDelay(pol.retryInterval, pol.retryCap, pol.retryBackoff, i-1))
				writebackRetries.Inc()
			}
			_, err := fn(context.Background(), rc)
			if err == nil {
				originCalls.WithLabelValues(kind, "ok").Inc()
				return
			}
			originCalls.WithLabelValues(kind, "error").Inc()
			c.log.Warn("write-back attempt failed",
				"op", op, "key", rc.Key, "attempt", i+1, "attempts", attempts, "err", err)
		}
		writebackExhausted.Inc()
		c.log.Error("write-back exhausted retries",
			"op", op, "key", rc.Key, "attempts", attempts)
	}()
}
