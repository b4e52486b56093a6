package insights

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/AngelCh415/adinsights/internal/models"
)

// Thresholds used by the rule catalog.
const (
	lowCTRThreshold     = 1.0
	recommendedROAS     = 2.0
	scaleUpROAS         = 3.0
	scaleUpMaxSpend     = 1000.0
	scaleUpIncreaseRate = 0.25
	fatigueImpressions  = 100000
	fatigueCTR          = 1.5
	platformShiftROAS   = 2.5
	highPerformerROAS   = 2.5
	lowPerformerROAS    = 1.5
	reallocationSavings = 0.3
)

type campaignRule func(c models.CampaignRecord, batch []models.CampaignRecord) (models.Insight, bool)

type batchRule func(batch []models.CampaignRecord) (models.Insight, bool)

var campaignRules = []campaignRule{
	lowCTRRule,
	lowROASRule,
	scaleUpRule,
	adFatigueRule,
}

var batchRules = []batchRule{
	crossPlatformRule,
	budgetReallocationRule,
}

func lowCTRRule(c models.CampaignRecord, batch []models.CampaignRecord) (models.Insight, bool) {
	ctr, ok := ratio(c.CTR)
	if !ok || ctr >= lowCTRThreshold {
		return models.Insight{}, false
	}
	return models.Insight{
		Type:  models.InsightAlert,
		Title: "Low Click-Through Rate Alert",
		Description: fmt.Sprintf("Campaign %q has a CTR of %.2f%%, which is below the platform average. "+
			"This indicates potential ad fatigue or poor targeting.", c.Name, ctr),
		Impact:     models.ImpactHigh,
		Confidence: 85,
		Action:     "Consider refreshing ad creatives, testing new audiences, or adjusting bid strategies.",
		Data: map[string]any{
			"currentCTR":      ctr,
			"platformAverage": PlatformAverage(c.Platform, "ctr", batch),
			"campaignId":      c.ID,
		},
	}, true
}

func lowROASRule(c models.CampaignRecord, _ []models.CampaignRecord) (models.Insight, bool) {
	roas, ok := campaignROAS(c)
	if !ok || roas >= recommendedROAS {
		return models.Insight{}, false
	}
	return models.Insight{
		Type:  models.InsightOptimization,
		Title: "Low Return on Ad Spend",
		Description: fmt.Sprintf("Campaign %q has a ROAS of %.2fx, which is below the recommended %.1fx threshold.",
			c.Name, roas, recommendedROAS),
		Impact:     models.ImpactHigh,
		Confidence: 90,
		Action:     "Review targeting, ad copy, and landing page experience. Consider pausing underperforming ad sets.",
		Data: map[string]any{
			"currentROAS":     roas,
			"recommendedROAS": recommendedROAS,
			"campaignId":      c.ID,
		},
	}, true
}

func scaleUpRule(c models.CampaignRecord, _ []models.CampaignRecord) (models.Insight, bool) {
	roas, ok := campaignROAS(c)
	spend := c.SpendValue()
	if !ok || roas <= scaleUpROAS || spend >= scaleUpMaxSpend {
		return models.Insight{}, false
	}
	return models.Insight{
		Type:  models.InsightOpportunity,
		Title: "High-Performing Campaign Opportunity",
		Description: fmt.Sprintf("Campaign %q is performing exceptionally well with a ROAS of %.2fx. Consider scaling up.",
			c.Name, roas),
		Impact:     models.ImpactMedium,
		Confidence: 88,
		Action:     "Gradually increase budget by 20-30% while monitoring performance. Test similar audiences.",
		Data: map[string]any{
			"currentROAS":       roas,
			"currentSpend":      spend,
			"potentialIncrease": round2(spend * scaleUpIncreaseRate),
			"campaignId":        c.ID,
		},
	}, true
}

func adFatigueRule(c models.CampaignRecord, _ []models.CampaignRecord) (models.Insight, bool) {
	ctr, ok := ratio(c.CTR)
	if !ok || c.Impressions <= fatigueImpressions || ctr >= fatigueCTR {
		return models.Insight{}, false
	}
	return models.Insight{
		Type:  models.InsightAlert,
		Title: "Potential Ad Fatigue Detected",
		Description: fmt.Sprintf("Campaign %q has high impressions (%s) but declining CTR, indicating possible ad fatigue.",
			c.Name, humanize.Comma(c.Impressions)),
		Impact:     models.ImpactMedium,
		Confidence: 75,
		Action:     "Refresh ad creatives, test new formats, or rotate ad variations more frequently.",
		Data: map[string]any{
			"impressions": c.Impressions,
			"ctr":         ctr,
			"campaignId":  c.ID,
		},
	}, true
}

type platformStats struct {
	platform string
	roasSum  float64
	roasN    int
	spend    float64
}

// groupByPlatform keeps platforms in first-seen order.
func groupByPlatform(batch []models.CampaignRecord) []*platformStats {
	idx := map[string]*platformStats{}
	var out []*platformStats
	for _, c := range batch {
		ps, ok := idx[c.Platform]
		if !ok {
			ps = &platformStats{platform: c.Platform}
			idx[c.Platform] = ps
			out = append(out, ps)
		}
		ps.spend += c.SpendValue()
		if roas, ok := campaignROAS(c); ok {
			ps.roasSum += roas
			ps.roasN++
		}
	}
	return out
}

// crossPlatformRule recommends shifting budget toward the platform with the
// best average ROAS. On ties the first platform seen wins.
func crossPlatformRule(batch []models.CampaignRecord) (models.Insight, bool) {
	groups := groupByPlatform(batch)
	if len(groups) < 2 {
		return models.Insight{}, false
	}
	var best *platformStats
	bestAvg := 0.0
	for _, g := range groups {
		if g.roasN == 0 || g.spend <= 0 {
			continue
		}
		avg := g.roasSum / float64(g.roasN)
		if best == nil || avg > bestAvg {
			best, bestAvg = g, avg
		}
	}
	if best == nil || bestAvg <= platformShiftROAS {
		return models.Insight{}, false
	}
	return models.Insight{
		Type:  models.InsightOpportunity,
		Title: "Platform Performance Optimization",
		Description: fmt.Sprintf("%s is your best-performing platform with an average ROAS of %.2fx. Consider reallocating budget.",
			best.platform, bestAvg),
		Impact:     models.ImpactMedium,
		Confidence: 82,
		Action:     fmt.Sprintf("Consider shifting 10-20%% of budget from lower-performing platforms to %s.", best.platform),
		Data: map[string]any{
			"bestPlatform": best.platform,
			"avgROAS":      bestAvg,
			"totalSpend":   best.spend,
		},
	}, true
}

func budgetReallocationRule(batch []models.CampaignRecord) (models.Insight, bool) {
	var (
		highSpend, lowSpend      float64
		highN, lowN              int
		totalSpend, totalRevenue float64
	)
	for _, c := range batch {
		spend := c.SpendValue()
		totalSpend += spend
		totalRevenue += c.Revenue
		roas, ok := campaignROAS(c)
		if !ok {
			continue
		}
		if roas > highPerformerROAS {
			highSpend += spend
			highN++
		}
		if roas < lowPerformerROAS {
			lowSpend += spend
			lowN++
		}
	}
	if highN == 0 || lowN == 0 || lowSpend <= highSpend {
		return models.Insight{}, false
	}
	data := map[string]any{
		"highPerformerSpend": highSpend,
		"lowPerformerSpend":  lowSpend,
		"potentialSavings":   round2(lowSpend * reallocationSavings),
	}
	if totalSpend > 0 {
		data["overallROAS"] = round2(totalRevenue / totalSpend)
	}
	return models.Insight{
		Type:  models.InsightOptimization,
		Title: "Budget Reallocation Opportunity",
		Description: fmt.Sprintf("You're spending more on low-performing campaigns (%s) than high-performing ones (%s).",
			humanize.Commaf(round2(lowSpend)), humanize.Commaf(round2(highSpend))),
		Impact:     models.ImpactHigh,
		Confidence: 90,
		Action:     "Consider pausing or reducing budget for low-performing campaigns and increasing budget for high-performing ones.",
		Data:       data,
	}, true
}

// ratio reports a usable supplied ratio; absent or non-finite values are not.
func ratio(p *float64) (float64, bool) {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0, false
	}
	return *p, true
}

// campaignROAS is only defined for records with positive spend.
func campaignROAS(c models.CampaignRecord) (float64, bool) {
	if c.SpendValue() <= 0 {
		return 0, false
	}
	return ratio(c.ROAS)
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
