package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vietddude/remedy/internal/core/domain"
)

// UnresolvedError is one escalated failure queued for later replay. The
// engine does not deliver escalations anywhere; the embedding orchestrator
// pushes here after an escalated cascade and pops when it is ready to retry
// the whole step.
type UnresolvedError struct {
	SessionID string        `json:"session_id"`
	Error     *domain.Error `json:"error"`
	QueuedAt  time.Time     `json:"queued_at"`
	Replays   int           `json:"replays"`
}

func queueKey(sessionID string) string {
	return fmt.Sprintf("unresolved_errors:%s", sessionID)
}

// PushUnresolved queues an escalated error, ordered by queue time.
func (c *Client) PushUnresolved(ctx context.Context, sessionID string, e *domain.Error) error {
	item := UnresolvedError{
		SessionID: sessionID,
		Error:     e,
		QueuedAt:  time.Now(),
	}
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal unresolved error: %w", err)
	}

	z := redis.Z{Score: float64(item.QueuedAt.UnixNano()), Member: string(data)}
	if err := c.rdb.ZAdd(ctx, queueKey(sessionID), z).Err(); err != nil {
		return fmt.Errorf("zadd failed: %w", err)
	}
	return nil
}

// PopUnresolved pops the oldest queued error for the session.
func (c *Client) PopUnresolved(ctx context.Context, sessionID string) (*UnresolvedError, bool, error) {
	key := queueKey(sessionID)

	results, err := c.rdb.ZRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return nil, false, fmt.Errorf("zrange failed: %w", err)
	}
	if len(results) == 0 {
		return nil, false, nil
	}

	member := results[0].Member.(string)
	var item UnresolvedError
	if err := json.Unmarshal([]byte(member), &item); err != nil {
		return nil, false, fmt.Errorf("corrupt unresolved entry: %w", err)
	}

	if err := c.rdb.ZRem(ctx, key, member).Err(); err != nil {
		return nil, false, fmt.Errorf("zrem failed: %w", err)
	}
	return &item, true, nil
}

// Pending returns the number of queued errors for the session.
func (c *Client) Pending(ctx context.Context, sessionID string) (int, error) {
	count, err := c.rdb.ZCard(ctx, queueKey(sessionID)).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard failed: %w", err)
	}
	return int(count), nil
}

// ClearQueue drops all queued errors for the session.
func (c *Client) ClearQueue(ctx context.Context, sessionID string) error {
	return c.rdb.Del(ctx, queueKey(sessionID)).Err()
}
