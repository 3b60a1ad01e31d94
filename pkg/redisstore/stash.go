package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/retry"
	"github.com/redis/go-redis/v9"
)

const stashTTL = 24 * time.Hour

// StashTriggerPayload stores a remediation trigger payload under an opaque
// job id so an on-demand trigger can replay it later.
func (c *Client) StashTriggerPayload(ctx context.Context, jobID string, payload []byte) error {
	key := fmt.Sprintf("remedy:trigger:%v", jobID)

	return retry.Do(ctx, 3, 50*time.Millisecond, func() error {
		return c.rdb.Set(ctx, key, payload, stashTTL).Err()
	})
}

// GetTriggerPayload returns the stashed payload, or (nil, false, nil) when
// no stash exists for the job id.
func (c *Client) GetTriggerPayload(ctx context.Context, jobID string) ([]byte, bool, error) {
	key := fmt.Sprintf("remedy:trigger:%v", jobID)

	res, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return res, true, nil
}
