package insights

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/adinsights/internal/models"
	"github.com/AngelCh415/adinsights/internal/store"
)

func f(v float64) *float64 { return &v }

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestEngine(w store.InsightWriter) *Engine {
	return NewEngine("user-1", w, quietLogger())
}

type recordingWriter struct {
	calls [][]models.InsightRecord
	err   error
}

func (w *recordingWriter) AppendInsights(_ context.Context, recs []models.InsightRecord) error {
	w.calls = append(w.calls, recs)
	return w.err
}

func TestGenerateEmpty(t *testing.T) {
	out := newTestEngine(nil).Generate(nil)
	require.NotNil(t, out)
	assert.Empty(t, out)
}

func TestGenerateLowCTROnly(t *testing.T) {
	c := models.CampaignRecord{
		ID: "c1", Name: "Spring", Platform: "facebook",
		Impressions: 200, Spend: f(500), CTR: f(0.5), ROAS: f(2.5),
	}
	out := newTestEngine(nil).Generate([]models.CampaignRecord{c})

	require.Len(t, out, 1)
	assert.Equal(t, models.InsightAlert, out[0].Type)
	assert.Equal(t, models.ImpactHigh, out[0].Impact)
	assert.Equal(t, 85, out[0].Confidence)
	assert.Equal(t, 0.5, out[0].Data["currentCTR"])
	assert.Equal(t, 0.5, out[0].Data["platformAverage"])
	assert.Equal(t, "c1", out[0].Data["campaignId"])
	assert.Contains(t, out[0].Description, `"Spring"`)
	assert.Contains(t, out[0].Description, "0.50%")
}

func TestGenerateScaleUpOnly(t *testing.T) {
	c := models.CampaignRecord{ID: "c1", Name: "Winners", Platform: "google", Spend: f(800), ROAS: f(3.5)}
	out := newTestEngine(nil).Generate([]models.CampaignRecord{c})

	require.Len(t, out, 1)
	assert.Equal(t, models.InsightOpportunity, out[0].Type)
	assert.Equal(t, models.ImpactMedium, out[0].Impact)
	assert.Equal(t, 88, out[0].Confidence)
	assert.Equal(t, 200.0, out[0].Data["potentialIncrease"])
}

func TestGenerateAdFatigue(t *testing.T) {
	c := models.CampaignRecord{ID: "c1", Name: "Evergreen", Platform: "tiktok",
		Impressions: 250000, Spend: f(1500), CTR: f(1.2), ROAS: f(2.2)}
	out := newTestEngine(nil).Generate([]models.CampaignRecord{c})

	require.Len(t, out, 1)
	assert.Equal(t, "Potential Ad Fatigue Detected", out[0].Title)
	assert.Equal(t, 75, out[0].Confidence)
	assert.Contains(t, out[0].Description, "250,000")
}

func TestGenerateZeroSpendSkipsROASRules(t *testing.T) {
	c := models.CampaignRecord{ID: "c1", Name: "Paused", Platform: "google", Spend: f(0), ROAS: f(0.2)}
	out := newTestEngine(nil).Generate([]models.CampaignRecord{c})
	assert.Empty(t, out)
}

func TestGenerateMissingRatiosDoNotFire(t *testing.T) {
	c := models.CampaignRecord{ID: "c1", Name: "Bare", Platform: "google", Impressions: 500000, Spend: f(100)}
	out := newTestEngine(nil).Generate([]models.CampaignRecord{c})
	assert.Empty(t, out)
}

func TestGenerateSkipsMalformedRecords(t *testing.T) {
	good := models.CampaignRecord{ID: "ok", Name: "Good", Platform: "google", Spend: f(100), CTR: f(0.4)}
	batch := []models.CampaignRecord{
		{Name: "no id", Platform: "google", Spend: f(100), CTR: f(0.1)},
		{ID: "np", Name: "no platform", Spend: f(100), CTR: f(0.1)},
		{ID: "ns", Name: "no spend", Platform: "google", CTR: f(0.1)},
		{ID: "neg", Name: "negative", Platform: "google", Spend: f(-5), CTR: f(0.1)},
		good,
	}
	e := newTestEngine(nil)
	assert.Equal(t, e.Generate([]models.CampaignRecord{good}), e.Generate(batch))
}

func TestCrossPlatformPicksBestPlatform(t *testing.T) {
	batch := []models.CampaignRecord{
		{ID: "a", Name: "A1", Platform: "facebook", Spend: f(1000), ROAS: f(3.0)},
		{ID: "b", Name: "B1", Platform: "google", Spend: f(1000), ROAS: f(1.0)},
	}
	in, ok := crossPlatformRule(batch)
	require.True(t, ok)
	assert.Equal(t, models.InsightOpportunity, in.Type)
	assert.Equal(t, 82, in.Confidence)
	assert.Equal(t, "facebook", in.Data["bestPlatform"])
	assert.Equal(t, 3.0, in.Data["avgROAS"])
	assert.Equal(t, 1000.0, in.Data["totalSpend"])

	out := newTestEngine(nil).Generate(batch)
	require.Len(t, out, 2)
	assert.Equal(t, "Low Return on Ad Spend", out[0].Title)
	assert.Equal(t, "Platform Performance Optimization", out[1].Title)
}

func TestCrossPlatformNeedsTwoPlatforms(t *testing.T) {
	batch := []models.CampaignRecord{
		{ID: "a", Platform: "facebook", Spend: f(1000), ROAS: f(3.0)},
		{ID: "b", Platform: "facebook", Spend: f(1000), ROAS: f(2.8)},
	}
	_, ok := crossPlatformRule(batch)
	assert.False(t, ok)
}

func TestCrossPlatformTieKeepsFirstSeen(t *testing.T) {
	batch := []models.CampaignRecord{
		{ID: "a", Platform: "tiktok", Spend: f(100), ROAS: f(3.0)},
		{ID: "b", Platform: "google", Spend: f(900), ROAS: f(3.0)},
	}
	in, ok := crossPlatformRule(batch)
	require.True(t, ok)
	assert.Equal(t, "tiktok", in.Data["bestPlatform"])
}

func TestCrossPlatformIgnoresZeroSpendPlatform(t *testing.T) {
	batch := []models.CampaignRecord{
		{ID: "a", Platform: "tiktok", Spend: f(0), ROAS: f(9.0)},
		{ID: "b", Platform: "google", Spend: f(500), ROAS: f(2.0)},
	}
	_, ok := crossPlatformRule(batch)
	assert.False(t, ok)
}

func TestBudgetReallocation(t *testing.T) {
	batch := []models.CampaignRecord{
		{ID: "hi", Platform: "google", Spend: f(200), Revenue: 600, ROAS: f(3.0)},
		{ID: "lo", Platform: "google", Spend: f(800), Revenue: 800, ROAS: f(1.0)},
	}
	in, ok := budgetReallocationRule(batch)
	require.True(t, ok)
	assert.Equal(t, models.InsightOptimization, in.Type)
	assert.Equal(t, models.ImpactHigh, in.Impact)
	assert.Equal(t, 90, in.Confidence)
	assert.Equal(t, 200.0, in.Data["highPerformerSpend"])
	assert.Equal(t, 800.0, in.Data["lowPerformerSpend"])
	assert.InDelta(t, 240.0, in.Data["potentialSavings"], 1e-9)
	assert.InDelta(t, 1.4, in.Data["overallROAS"], 1e-9)
	assert.Contains(t, in.Description, "800")

	reversed := []models.CampaignRecord{
		{ID: "hi", Platform: "google", Spend: f(800), ROAS: f(3.0)},
		{ID: "lo", Platform: "google", Spend: f(200), ROAS: f(1.0)},
	}
	_, ok = budgetReallocationRule(reversed)
	assert.False(t, ok)
}

func TestBudgetReallocationNeedsBothBuckets(t *testing.T) {
	batch := []models.CampaignRecord{
		{ID: "lo1", Platform: "google", Spend: f(800), ROAS: f(1.0)},
		{ID: "lo2", Platform: "google", Spend: f(900), ROAS: f(1.2)},
	}
	_, ok := budgetReallocationRule(batch)
	assert.False(t, ok)
}

func TestGenerateDemoPortfolio(t *testing.T) {
	out := newTestEngine(nil).Generate(store.DemoCampaigns())

	titles := make([]string, 0, len(out))
	for _, in := range out {
		titles = append(titles, in.Title)
	}
	assert.Equal(t, []string{
		"Low Return on Ad Spend",
		"Low Return on Ad Spend",
		"Low Return on Ad Spend",
		"High-Performing Campaign Opportunity",
		"Platform Performance Optimization",
		"Potential Ad Fatigue Detected",
	}, titles)
	assert.Equal(t, "1", out[0].Data["campaignId"])
	assert.Equal(t, "3", out[1].Data["campaignId"])
	assert.Equal(t, "5", out[2].Data["campaignId"])
	assert.Equal(t, "Facebook", out[4].Data["bestPlatform"])
	assert.InDelta(t, 3.04, out[4].Data["avgROAS"], 1e-9)
}

func TestGenerateOrdering(t *testing.T) {
	batch := []models.CampaignRecord{
		{ID: "1", Platform: "facebook", Impressions: 300000, Spend: f(900), CTR: f(1.2), ROAS: f(3.5)},
		{ID: "2", Platform: "google", Impressions: 10, Spend: f(4000), CTR: f(0.3), ROAS: f(1.1)},
		{ID: "3", Platform: "tiktok", Impressions: 150000, Spend: f(50), CTR: f(0.9), ROAS: f(4.0)},
	}
	out := newTestEngine(nil).Generate(batch)
	require.NotEmpty(t, out)
	for i := 1; i < len(out); i++ {
		prev, cur := out[i-1], out[i]
		require.GreaterOrEqual(t, prev.Impact.Rank(), cur.Impact.Rank(), "impact order at %d", i)
		if prev.Impact == cur.Impact {
			require.GreaterOrEqual(t, prev.Confidence, cur.Confidence, "confidence order at %d", i)
		}
	}
}

func TestGenerateTiesKeepCampaignOrder(t *testing.T) {
	batch := []models.CampaignRecord{
		{ID: "first", Platform: "google", Spend: f(10), CTR: f(0.2)},
		{ID: "second", Platform: "google", Spend: f(10), CTR: f(0.3)},
	}
	out := newTestEngine(nil).Generate(batch)
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Data["campaignId"])
	assert.Equal(t, "second", out[1].Data["campaignId"])
}

func TestGenerateIsRepeatable(t *testing.T) {
	e := newTestEngine(nil)
	a := e.Generate(store.DemoCampaigns())
	b := e.Generate(store.DemoCampaigns())
	require.Equal(t, a, b)

	a[0].Data["campaignId"] = "mutated"
	assert.Equal(t, "1", b[0].Data["campaignId"])
}

func TestPlatformAverage(t *testing.T) {
	batch := []models.CampaignRecord{
		{ID: "a", Platform: "facebook", Spend: f(10), CTR: f(1.0), Clicks: 10},
		{ID: "b", Platform: "facebook", Spend: f(30), CTR: f(3.0), Clicks: 30},
		{ID: "c", Platform: "facebook", Spend: f(30)},
		{ID: "d", Platform: "google", Spend: f(30), CTR: f(9.0)},
	}
	assert.Equal(t, 2.0, PlatformAverage("facebook", "ctr", batch))
	assert.Equal(t, 70.0/3, PlatformAverage("facebook", "spend", batch))
	assert.Equal(t, 40.0/3, PlatformAverage("facebook", "clicks", batch))
	assert.Equal(t, 0.0, PlatformAverage("tiktok", "ctr", batch))
	assert.Equal(t, 0.0, PlatformAverage("facebook", "nope", batch))
}

func TestPersistAttachesUserAndCampaign(t *testing.T) {
	w := &recordingWriter{}
	e := newTestEngine(w)
	insights := e.Generate(store.DemoCampaigns())

	require.NoError(t, e.Persist(context.Background(), insights, "camp-9"))
	require.Len(t, w.calls, 1)
	recs := w.calls[0]
	require.Len(t, recs, len(insights))
	for i, r := range recs {
		assert.Equal(t, "user-1", r.UserID)
		require.NotNil(t, r.CampaignID)
		assert.Equal(t, "camp-9", *r.CampaignID)
		assert.Equal(t, insights[i].Title, r.Title)
		assert.Equal(t, insights[i].Confidence, r.Confidence)
	}
}

func TestPersistWithoutCampaign(t *testing.T) {
	w := &recordingWriter{}
	e := newTestEngine(w)
	in := []models.Insight{{Type: models.InsightTrend, Title: "t", Impact: models.ImpactLow, Confidence: 10}}

	require.NoError(t, e.Persist(context.Background(), in, ""))
	require.Len(t, w.calls, 1)
	assert.Nil(t, w.calls[0][0].CampaignID)
	assert.NotNil(t, w.calls[0][0].Data)
}

func TestPersistPropagatesStoreError(t *testing.T) {
	boom := errors.New("db down")
	w := &recordingWriter{err: boom}
	err := newTestEngine(w).Persist(context.Background(), []models.Insight{{Title: "x"}}, "")
	assert.True(t, err == boom, "error must be returned unmodified")
	assert.Len(t, w.calls, 1)
}

func TestPersistWithoutStore(t *testing.T) {
	err := newTestEngine(nil).Persist(context.Background(), nil, "")
	assert.ErrorIs(t, err, store.ErrNotConfigured)
}

func TestPersistIntoMemoryStore(t *testing.T) {
	st := store.NewMemoryStore()
	e := newTestEngine(st)
	insights := e.Generate(store.DemoCampaigns())
	require.NoError(t, e.Persist(context.Background(), insights, ""))

	got, err := st.ListInsights(context.Background(), "user-1", 0)
	require.NoError(t, err)
	require.Len(t, got, len(insights))
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].CreatedAt.IsZero())
}
