package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/AngelCh415/adinsights/internal/models"
)

const insightColumns = 11

const schema = `
CREATE TABLE IF NOT EXISTS insights (
	id          UUID PRIMARY KEY,
	user_id     TEXT NOT NULL,
	campaign_id TEXT,
	type        TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL,
	impact      TEXT NOT NULL,
	confidence  INTEGER NOT NULL,
	action      TEXT NOT NULL,
	data        JSONB NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS insights_user_created_idx ON insights (user_id, created_at DESC);
`

// PostgresStore persists insight records in the insights table.
type PostgresStore struct{ db *sql.DB }

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// AppendInsights writes all records with a single multi-row INSERT.
func (s *PostgresStore) AppendInsights(ctx context.Context, recs []models.InsightRecord) error {
	if len(recs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	var sb strings.Builder
	sb.WriteString(`INSERT INTO insights
		(id, user_id, campaign_id, type, title, description, impact, confidence, action, data, created_at)
		VALUES `)
	args := make([]interface{}, 0, len(recs)*insightColumns)
	for i := range recs {
		r := recs[i]
		stamp(&r, now)
		data, err := json.Marshal(r.Data)
		if err != nil {
			return fmt.Errorf("encode insight data: %w", err)
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * insightColumns
		sb.WriteString("(")
		for c := 1; c <= insightColumns; c++ {
			if c > 1 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", base+c)
		}
		sb.WriteString(")")
		args = append(args, r.ID, r.UserID, r.CampaignID, string(r.Type), r.Title,
			r.Description, string(r.Impact), r.Confidence, r.Action, string(data), r.CreatedAt)
	}
	if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("append insights: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListInsights(ctx context.Context, userID string, limit int) ([]models.InsightRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, campaign_id, type, title, description, impact,
		       confidence, action, data, created_at
		FROM insights
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	defer rows.Close()

	var out []models.InsightRecord
	for rows.Next() {
		var (
			r          models.InsightRecord
			campaignID sql.NullString
			typ, imp   string
			data       []byte
		)
		if err := rows.Scan(&r.ID, &r.UserID, &campaignID, &typ, &r.Title, &r.Description,
			&imp, &r.Confidence, &r.Action, &data, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		if campaignID.Valid {
			id := campaignID.String
			r.CampaignID = &id
		}
		r.Type = models.InsightType(typ)
		r.Impact = models.Impact(imp)
		if len(data) > 0 {
			if err := json.Unmarshal(data, &r.Data); err != nil {
				return nil, fmt.Errorf("decode insight data: %w", err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
