package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AcquireEscalation takes the per-monitor escalation slot for the given
// window. Returns true when the caller may escalate; false while a prior
// escalation is still inside the window.
func (c *Client) AcquireEscalation(ctx context.Context, monitorID uuid.UUID, window time.Duration) (bool, error) {
	key := fmt.Sprintf("escalation:debounce:%v", monitorID)

	return c.rdb.SetNX(ctx, key, time.Now().Unix(), window).Result()
}

// ClearEscalation releases the debounce slot, letting the next DOWN check
// escalate immediately. Called when a monitor recovers.
func (c *Client) ClearEscalation(ctx context.Context, monitorID uuid.UUID) error {
	key := fmt.Sprintf("escalation:debounce:%v", monitorID)

	return c.rdb.Del(ctx, key).Err()
}
