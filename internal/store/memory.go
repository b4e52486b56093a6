package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AngelCh415/adinsights/internal/models"
)

type MemoryStore struct {
	mu        sync.RWMutex
	campaigns map[string]*models.CampaignRecord // por platform|id
	order     []string                          // keys in first-upsert order
	insights  map[string][]models.InsightRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		campaigns: make(map[string]*models.CampaignRecord),
		insights:  make(map[string][]models.InsightRecord),
	}
}

// campaignKey identifies a campaign; native ids are only unique per platform.
func campaignKey(c models.CampaignRecord) string {
	return strings.ToLower(strings.TrimSpace(c.Platform)) + "|" + c.ID
}

// UpsertCampaign replaces the stored snapshot for c's platform and id.
func (s *MemoryStore) UpsertCampaign(c models.CampaignRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := campaignKey(c)
	if _, ok := s.campaigns[key]; !ok {
		s.order = append(s.order, key)
	}
	cp := c
	s.campaigns[key] = &cp
}

func (s *MemoryStore) Campaigns() []models.CampaignRecord {
	return s.QueryCampaigns(nil)
}

// QueryCampaigns returns campaigns accepted by f in insertion order.
func (s *MemoryStore) QueryCampaigns(f func(models.CampaignRecord) bool) []models.CampaignRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CampaignRecord, 0, len(s.order))
	for _, key := range s.order {
		c := *s.campaigns[key]
		if f == nil || f(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s *MemoryStore) AppendInsights(_ context.Context, recs []models.InsightRecord) error {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		stamp(&r, now)
		s.insights[r.UserID] = append(s.insights[r.UserID], r)
	}
	return nil
}

// ListInsights returns up to limit records for userID, newest first.
func (s *MemoryStore) ListInsights(_ context.Context, userID string, limit int) ([]models.InsightRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.insights[userID]
	limit = clampLimit(limit, len(all))
	out := make([]models.InsightRecord, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// stamp fills the id and creation time when the caller left them empty.
func stamp(r *models.InsightRecord, now time.Time) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.Data == nil {
		r.Data = map[string]any{}
	}
}

func clampLimit(limit, n int) int {
	if limit <= 0 || limit > n {
		return n
	}
	return limit
}
