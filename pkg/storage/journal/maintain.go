package journal

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrUnhealthy = errors.New("journal database unreachable")

// Summary describes the journal after startup maintenance.
type Summary struct {
	Pruned     int64     // records removed by retention
	Failed     int64     // undelivered records still in the window
	LastSentAt time.Time // zero when the journal is empty
}

// Maintain runs once at startup: it pings the database, prunes records older
// than retention (0 keeps everything) and summarizes what is left.
func (c *Client) Maintain(ctx context.Context, retention time.Duration, now time.Time) (Summary, error) {
	var sum Summary

	if !c.IsHealthy(ctx) {
		return sum, ErrUnhealthy
	}

	var since time.Time
	if retention > 0 {
		since = now.Add(-retention)
		pruned, err := c.DeleteOldDeliveries(ctx, since)
		if err != nil {
			return sum, fmt.Errorf("prune deliveries: %w", err)
		}
		sum.Pruned = pruned
	}

	failed, err := c.CountFailed(ctx, since)
	if err != nil {
		return sum, fmt.Errorf("count failed deliveries: %w", err)
	}
	sum.Failed = failed

	recent, err := c.RecentDeliveries(ctx, 1)
	if err != nil {
		return sum, fmt.Errorf("load last delivery: %w", err)
	}
	if len(recent) > 0 {
		sum.LastSentAt = recent[0].SentAt
	}

	return sum, nil
}
