// Package insights turns campaign performance snapshots into ranked,
// explainable recommendations.
//
// Generate runs a fixed battery of rules: the per-campaign rules for every
// record in input order, then the batch rules (cross-platform comparison and
// budget reallocation). The result is sorted by impact tier and confidence,
// keeping firing order on ties, so the same input always yields the same
// output.
package insights

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/AngelCh415/adinsights/internal/metrics"
	"github.com/AngelCh415/adinsights/internal/models"
	"github.com/AngelCh415/adinsights/internal/store"
)

// Engine is bound to one user; that binding is only used by Persist.
type Engine struct {
	userID string
	w      store.InsightWriter
	log    *slog.Logger
}

func NewEngine(userID string, w store.InsightWriter, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{userID: userID, w: w, log: log}
}

func (e *Engine) UserID() string { return e.userID }

// Generate evaluates every rule over campaigns. Malformed records are skipped.
func (e *Engine) Generate(campaigns []models.CampaignRecord) []models.Insight {
	valid := make([]models.CampaignRecord, 0, len(campaigns))
	for i, c := range campaigns {
		if reason := malformed(c); reason != "" {
			e.log.Warn("skipping campaign record",
				slog.Int("index", i), slog.String("id", c.ID), slog.String("reason", reason))
			metrics.RecordsSkipped.WithLabelValues(reason).Inc()
			continue
		}
		valid = append(valid, c)
	}

	out := make([]models.Insight, 0)
	for _, c := range valid {
		for _, rule := range campaignRules {
			if in, ok := rule(c, valid); ok {
				out = append(out, in)
			}
		}
	}
	for _, rule := range batchRules {
		if in, ok := rule(valid); ok {
			out = append(out, in)
		}
	}

	sortInsights(out)
	for _, in := range out {
		metrics.InsightsGenerated.WithLabelValues(string(in.Impact), string(in.Type)).Inc()
	}
	return out
}

// Persist appends insights for the bound user in one store call. A store
// error is returned as is.
func (e *Engine) Persist(ctx context.Context, insights []models.Insight, campaignID string) error {
	if e.w == nil {
		return store.ErrNotConfigured
	}
	var cid *string
	if campaignID != "" {
		cid = &campaignID
	}
	recs := make([]models.InsightRecord, 0, len(insights))
	for _, in := range insights {
		data := in.Data
		if data == nil {
			data = map[string]any{}
		}
		recs = append(recs, models.InsightRecord{
			UserID:      e.userID,
			CampaignID:  cid,
			Type:        in.Type,
			Title:       in.Title,
			Description: in.Description,
			Impact:      in.Impact,
			Confidence:  in.Confidence,
			Action:      in.Action,
			Data:        data,
		})
	}
	err := e.w.AppendInsights(ctx, recs)
	if err != nil {
		metrics.PersistTotal.WithLabelValues("error").Inc()
		e.log.Error("persist insights failed", slog.String("user", e.userID), slog.String("err", err.Error()))
		return err
	}
	metrics.PersistTotal.WithLabelValues("ok").Inc()
	return nil
}

func sortInsights(in []models.Insight) {
	sort.SliceStable(in, func(i, j int) bool {
		ri, rj := in[i].Impact.Rank(), in[j].Impact.Rank()
		if ri != rj {
			return ri > rj
		}
		return in[i].Confidence > in[j].Confidence
	})
}

// malformed returns a skip reason, or "" for a usable record.
func malformed(c models.CampaignRecord) string {
	switch {
	case strings.TrimSpace(c.ID) == "":
		return "missing_id"
	case strings.TrimSpace(c.Platform) == "":
		return "missing_platform"
	case c.Spend == nil:
		return "missing_spend"
	case *c.Spend < 0:
		return "negative_spend"
	}
	return ""
}
