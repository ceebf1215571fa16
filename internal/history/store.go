// Package history keeps recent conversation turns per user and session in
// Redis lists. The gateway treats it as a best-effort collaborator: appends
// happen after the response is written and failures are only logged.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry is one stored conversation turn.
type Entry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Store struct {
	client  redis.Cmdable
	maxMsgs int
	ttl     time.Duration
}

func NewStore(client redis.Cmdable, maxMsgs int, ttl time.Duration) *Store {
	return &Store{client: client, maxMsgs: maxMsgs, ttl: ttl}
}

func convKey(userID, sessionID string) string {
	return fmt.Sprintf("chat:%s:%s", userID, sessionID)
}

// Append adds entries to the conversation list, trims it to the configured
// size and refreshes its TTL.
func (s *Store) Append(ctx context.Context, userID, sessionID string, entries ...Entry) error {
	key := convKey(userID, sessionID)

	pipe := s.client.Pipeline()
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshaling entry: %w", err)
		}
		pipe.RPush(ctx, key, string(data))
	}
	pipe.LTrim(ctx, key, int64(-s.maxMsgs), -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("pipeline exec for %s: %w", key, err)
	}
	return nil
}

// Recent returns the last limit entries for the conversation.
func (s *Store) Recent(ctx context.Context, userID, sessionID string, limit int) ([]Entry, error) {
	key := convKey(userID, sessionID)

	vals, err := s.client.LRange(ctx, key, int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}

	entries := make([]Entry, 0, len(vals))
	for _, v := range vals {
		var entry Entry
		if err := json.Unmarshal([]byte(v), &entry); err != nil {
			continue // skip malformed entries
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Clear deletes the conversation.
func (s *Store) Clear(ctx context.Context, userID, sessionID string) error {
	return s.client.Del(ctx, convKey(userID, sessionID)).Err()
}
