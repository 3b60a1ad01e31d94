package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/retry"
	"github.com/google/uuid"
)

func (c *Client) StoreStatus(ctx context.Context, monitorID uuid.UUID, status string, statusCode int, responseTimeMs int64, checkedAt time.Time) error {
	key := fmt.Sprintf("monitor:status:%v", monitorID)

	return retry.Do(ctx, 2, 50*time.Millisecond, func() error {
		return c.rdb.HSet(ctx, key, map[string]any{
			"status":           status,
			"status_code":      statusCode,
			"response_time_ms": responseTimeMs,
			"checked_at":       checkedAt.Unix(),
		}).Err()
	})
}

func (c *Client) GetStatus(ctx context.Context, monitorID uuid.UUID) (map[string]string, error) {
	key := fmt.Sprintf("monitor:status:%v", monitorID)

	res, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	// HGETALL returns an empty map, not redis.Nil, for a missing key.
	if len(res) == 0 {
		return nil, ErrKeyNotFound
	}
	return res, nil
}

func (c *Client) DelStatus(ctx context.Context, monitorID uuid.UUID) error {
	key := fmt.Sprintf("monitor:status:%v", monitorID)

	return c.rdb.Del(ctx, key).Err()
}
