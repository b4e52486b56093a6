package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AngelCh415/adinsights/internal/models"
)

// RedisStore keeps each user's insights in an append-only list.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "insights:"}
}

func (s *RedisStore) key(userID string) string { return s.prefix + userID }

// AppendInsights pushes every record inside one MULTI/EXEC pipeline.
func (s *RedisStore) AppendInsights(ctx context.Context, recs []models.InsightRecord) error {
	if len(recs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	payloads := make(map[string][]interface{})
	var users []string
	for i := range recs {
		r := recs[i]
		stamp(&r, now)
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode insight: %w", err)
		}
		if _, ok := payloads[r.UserID]; !ok {
			users = append(users, r.UserID)
		}
		payloads[r.UserID] = append(payloads[r.UserID], string(b))
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, u := range users {
			p.RPush(ctx, s.key(u), payloads[u]...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append insights: %w", err)
	}
	return nil
}

// ListInsights returns up to limit records for userID, newest first.
func (s *RedisStore) ListInsights(ctx context.Context, userID string, limit int) ([]models.InsightRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	vals, err := s.client.LRange(ctx, s.key(userID), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	out := make([]models.InsightRecord, 0, len(vals))
	for i := len(vals) - 1; i >= 0; i-- {
		var r models.InsightRecord
		if err := json.Unmarshal([]byte(vals[i]), &r); err != nil {
			return nil, fmt.Errorf("decode insight: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}
