package models

import (
	"encoding/json"
	"time"
)

type InsightType string

const (
	InsightOptimization InsightType = "optimization"
	InsightOpportunity  InsightType = "opportunity"
	InsightAlert        InsightType = "alert"
	InsightTrend        InsightType = "trend"
)

type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Rank orders impact tiers; unknown tiers sort last.
func (i Impact) Rank() int {
	switch i {
	case ImpactHigh:
		return 3
	case ImpactMedium:
		return 2
	case ImpactLow:
		return 1
	}
	return 0
}

// CampaignRecord is one campaign's performance snapshot as reported by an ad
// platform. Spend and the ratio fields are pointers so that an absent value
// can be told apart from zero.
type CampaignRecord struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Platform    string     `json:"platform"`
	Status      string     `json:"status"`
	Impressions int64      `json:"impressions"`
	Clicks      int64      `json:"clicks"`
	Conversions int64      `json:"conversions"`
	Spend       *float64   `json:"spend"`
	Revenue     float64    `json:"revenue"`
	CTR         *float64   `json:"ctr,omitempty"`
	CPC         *float64   `json:"cpc,omitempty"`
	CPA         *float64   `json:"cpa,omitempty"`
	ROAS        *float64   `json:"roas,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}

// SpendValue returns spend, or 0 when absent.
func (c CampaignRecord) SpendValue() float64 {
	if c.Spend == nil {
		return 0
	}
	return *c.Spend
}

type Insight struct {
	Type        InsightType    `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Impact      Impact         `json:"impact"`
	Confidence  int            `json:"confidence"`
	Action      string         `json:"action"`
	Data        map[string]any `json:"data,omitempty"`
}

// InsightRecord is the persisted form of an Insight.
type InsightRecord struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	CampaignID  *string        `json:"campaignId"`
	Type        InsightType    `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Impact      Impact         `json:"impact"`
	Confidence  int            `json:"confidence"`
	Action      string         `json:"action"`
	Data        map[string]any `json:"data"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type Summary struct {
	TotalCampaigns       int     `json:"totalCampaigns"`
	TotalSpend           float64 `json:"totalSpend"`
	TotalRevenue         float64 `json:"totalRevenue"`
	OverallROAS          float64 `json:"overallROAS"`
	AvgROAS              float64 `json:"avgROAS"`
	TotalInsights        int     `json:"totalInsights"`
	HighImpactInsights   int     `json:"highImpactInsights"`
	MediumImpactInsights int     `json:"mediumImpactInsights"`
	LowImpactInsights    int     `json:"lowImpactInsights"`
}

// ParseCampaigns decodes each raw element on its own so that one malformed
// element does not reject the whole batch. It returns the decoded records and
// the number of elements that could not be decoded.
func ParseCampaigns(raws []json.RawMessage) ([]CampaignRecord, int) {
	out := make([]CampaignRecord, 0, len(raws))
	bad := 0
	for _, raw := range raws {
		var c CampaignRecord
		if err := json.Unmarshal(raw, &c); err != nil {
			bad++
			continue
		}
		out = append(out, c)
	}
	return out, bad
}

func Float(f float64) *float64 { return &f }
