package store

import (
	"context"
	"errors"

	"github.com/AngelCh415/adinsights/internal/models"
)

var ErrNotConfigured = errors.New("store not configured")

// InsightWriter appends insight records. One call is one batched write.
type InsightWriter interface {
	AppendInsights(ctx context.Context, recs []models.InsightRecord) error
}

type InsightReader interface {
	ListInsights(ctx context.Context, userID string, limit int) ([]models.InsightRecord, error)
}

type InsightStore interface {
	InsightWriter
	InsightReader
}

var (
	_ InsightStore = (*MemoryStore)(nil)
	_ InsightStore = (*PostgresStore)(nil)
	_ InsightStore = (*RedisStore)(nil)
)
