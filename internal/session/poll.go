package session

import (
	"context"

	"voicecoach/internal/recordapi"
)

// pollRecord fetches the finished record for callID: an initial delay,
// then sequential attempts separated by the retry delay. Transient
// failures (HTTP errors, malformed payloads, not-yet-finished records)
// never terminate the loop; only a finished record or an exhausted
// attempt budget does. The captured epoch guards publication: if the
// controller reset or started a newer call, the result is dropped.
func (c *Controller) pollRecord(ctx context.Context, callID string, epoch uint64) {
	defer func() {
		c.mu.Lock()
		if c.epoch == epoch {
			c.pollRunning = false
		}
		c.mu.Unlock()
	}()

	if err := c.sleep(ctx, c.poll.InitialDelay); err != nil {
		return
	}

	for attempt := 1; ; attempt++ {
		if c.poll.MaxAttempts > 0 && attempt > c.poll.MaxAttempts {
			c.log.Error("record poll gave up", "call_id", callID, "attempts", c.poll.MaxAttempts)
			c.setErrorIfCurrent(epoch, "call evaluation did not finish in time")
			return
		}

		detail, err := c.records.GetCall(ctx, callID)
		if err != nil {
			c.log.Error("record fetch failed", "call_id", callID, "attempt", attempt, "err", err)
			c.setErrorIfCurrent(epoch, err.Error())
			if err := c.sleep(ctx, c.poll.RetryDelay); err != nil {
				return
			}
			continue
		}

		if detail.Status != recordapi.StatusEnded {
			if err := c.sleep(ctx, c.poll.RetryDelay); err != nil {
				return
			}
			continue
		}

		rec := transformRecord(detail, c.clock())

		c.mu.Lock()
		if c.epoch != epoch {
			c.mu.Unlock()
			c.log.Info("dropping stale call record", "call_id", callID)
			return
		}
		c.record = &rec
		c.phase = PhaseSummarized
		c.errMsg = ""
		email := c.email
		notifier := c.notifier
		c.mu.Unlock()

		c.log.Info("call record published", "call_id", callID, "attempts", attempt,
			"duration_minutes", rec.DurationMinutes)

		if notifier != nil {
			notifier.CallSummarized(ctx, rec, email)
		}
		return
	}
}

func (c *Controller) setErrorIfCurrent(epoch uint64, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch == epoch {
		c.errMsg = msg
	}
}
