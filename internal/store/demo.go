package store

import (
	"time"

	"github.com/AngelCh415/adinsights/internal/models"
)

func demoCampaign(id, name, platform string, spend float64, impressions, clicks, conversions int64,
	revenue, ctr, cpc, cpa, roas float64) models.CampaignRecord {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	return models.CampaignRecord{
		ID: id, Name: name, Platform: platform, Status: "active",
		Impressions: impressions, Clicks: clicks, Conversions: conversions,
		Spend: models.Float(spend), Revenue: revenue,
		CTR: models.Float(ctr), CPC: models.Float(cpc), CPA: models.Float(cpa), ROAS: models.Float(roas),
		StartDate: &start, EndDate: &end,
	}
}

// DemoCampaigns is the sample portfolio served to the demo user.
func DemoCampaigns() []models.CampaignRecord {
	return []models.CampaignRecord{
		demoCampaign("1", "Facebook Summer Sale", "Facebook", 2500, 125000, 1875, 94, 4700, 1.5, 1.33, 26.6, 1.88),
		demoCampaign("2", "Google Search Campaign", "Google Ads", 1800, 45000, 2250, 135, 5400, 5.0, 0.8, 13.3, 3.0),
		demoCampaign("3", "TikTok Brand Awareness", "TikTok", 1200, 200000, 2400, 48, 1920, 1.2, 0.5, 25.0, 1.6),
		demoCampaign("4", "Facebook Retargeting", "Facebook", 800, 35000, 1050, 84, 3360, 3.0, 0.76, 9.5, 4.2),
		demoCampaign("5", "Google Display Network", "Google Ads", 600, 80000, 800, 16, 480, 1.0, 0.75, 37.5, 0.8),
	}
}

func SeedDemo(s *MemoryStore) int {
	cs := DemoCampaigns()
	for _, c := range cs {
		s.UpsertCampaign(c)
	}
	return len(cs)
}
