package ingest

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/AngelCh415/adinsights/internal/config"
	"github.com/AngelCh415/adinsights/internal/metrics"
	"github.com/AngelCh415/adinsights/internal/models"
	"github.com/AngelCh415/adinsights/internal/store"
)

var ErrSinkNotConfigured = errors.New("sink not configured")

type ETL struct {
	c       HTTPClient
	st      *store.MemoryStore
	log     *slog.Logger
	cfg     config.Config
	limiter *rate.Limiter
}

// NewETL throttles feed fetches to cfg.SourceRPS; zero or less means unlimited.
func NewETL(c HTTPClient, st *store.MemoryStore, log *slog.Logger, cfg config.Config) *ETL {
	limit := rate.Inf
	if cfg.SourceRPS > 0 {
		limit = rate.Limit(cfg.SourceRPS)
	}
	return &ETL{c: c, st: st, log: log, cfg: cfg, limiter: rate.NewLimiter(limit, 1)}
}

// campaignRow is the campaign shape served by the platform feeds.
type campaignRow struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Status      string   `json:"status"`
	Date        string   `json:"date"`
	Impressions int64    `json:"impressions"`
	Clicks      int64    `json:"clicks"`
	Conversions int64    `json:"conversions"`
	Spend       *float64 `json:"spend"`
	Revenue     float64  `json:"revenue"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
}

// Run pulls every configured platform feed and upserts the normalized
// campaigns, replacing the previous snapshot of each one. A failing source is
// logged and skipped; its error is joined into the returned error. It returns
// the number of rows stored.
func (e *ETL) Run(ctx context.Context) (int, error) {
	n := 0
	var errs []error
	for _, src := range e.cfg.Sources {
		if src.URL == "" {
			continue
		}
		if err := e.limiter.Wait(ctx); err != nil {
			return n, errors.Join(append(errs, err)...)
		}
		var rows []campaignRow
		if err := GetJSONWithRetry(ctx, e.c, src.URL, &rows); err != nil {
			e.log.Error("source fetch failed", slog.String("platform", src.Platform), slog.String("err", err.Error()))
			errs = append(errs, fmt.Errorf("fetch %s: %w", src.Platform, err))
			continue
		}
		stored := 0
		pulled := map[string]struct{}{} // filas repetidas dentro del mismo pull
		for _, r := range rows {
			c, ok := normalize(src.Platform, r)
			if !ok {
				e.log.Debug("dropping feed row", slog.String("platform", src.Platform), slog.String("id", r.ID))
				continue
			}
			key := c.ID + "|" + strings.TrimSpace(r.Date)
			if _, dup := pulled[key]; dup {
				continue
			}
			pulled[key] = struct{}{}
			e.st.UpsertCampaign(c)
			stored++
		}
		metrics.IngestRecords.WithLabelValues(src.Platform).Add(float64(stored))
		n += stored
	}
	e.log.Info("ingest complete", slog.Int("stored", n), slog.Int("campaigns", len(e.st.Campaigns())))
	return n, errors.Join(errs...)
}

// normalize cleans a feed row and derives its ratios. A ratio stays absent
// when its denominator is zero. Revenue is taken as reported.
func normalize(platform string, r campaignRow) (models.CampaignRecord, bool) {
	id := strings.TrimSpace(r.ID)
	if id == "" || r.Spend == nil {
		return models.CampaignRecord{}, false
	}
	spend := maxf(*r.Spend)
	c := models.CampaignRecord{
		ID:          id,
		Name:        coalesce(r.Name, id),
		Platform:    platform,
		Status:      strings.ToLower(coalesce(r.Status, "unknown")),
		Impressions: max0(r.Impressions),
		Clicks:      max0(r.Clicks),
		Conversions: max0(r.Conversions),
		Spend:       &spend,
		Revenue:     maxf(r.Revenue),
		StartDate:   parseDay(r.StartDate),
		EndDate:     parseDay(r.EndDate),
	}
	if c.Impressions > 0 {
		c.CTR = models.Float(round2(float64(c.Clicks) / float64(c.Impressions) * 100))
	}
	if c.Clicks > 0 {
		c.CPC = models.Float(round3(spend / float64(c.Clicks)))
	}
	if c.Conversions > 0 {
		c.CPA = models.Float(round2(spend / float64(c.Conversions)))
	}
	if spend > 0 {
		c.ROAS = models.Float(round2(c.Revenue / spend))
	}
	return c, true
}

// ExportInsights posts insights to the configured sink, signed with
// HMAC-SHA256 over the body.
func (e *ETL) ExportInsights(ctx context.Context, insights []models.Insight) (int, error) {
	if e.cfg.SinkURL == "" || e.cfg.SinkSecret == "" {
		return 0, ErrSinkNotConfigured
	}
	if len(insights) == 0 {
		return 0, nil
	}
	b, err := json.Marshal(insights)
	if err != nil {
		return 0, err
	}
	mac := hmac.New(sha256.New, []byte(e.cfg.SinkSecret))
	mac.Write(b)
	sig := hex.EncodeToString(mac.Sum(nil))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.SinkURL, bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", sig)
	resp, err := e.c.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("export sink non-2xx: %d", resp.StatusCode)
	}
	return len(insights), nil
}

func parseDay(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func coalesce(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}
func max0(i int64) int64 {
	if i < 0 {
		return 0
	}
	return i
}
func maxf(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
func round2(f float64) float64 { return float64(int64(f*100+0.5)) / 100 }
func round3(f float64) float64 { return float64(int64(f*1000+0.5)) / 1000 }
