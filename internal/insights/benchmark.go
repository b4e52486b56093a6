package insights

import "github.com/AngelCh415/adinsights/internal/models"

// PlatformAverage averages field over the campaigns on platform that carry a
// value for it. It returns 0 when none do. Unknown field names also yield 0.
func PlatformAverage(platform, field string, campaigns []models.CampaignRecord) float64 {
	sum, n := 0.0, 0
	for _, c := range campaigns {
		if c.Platform != platform {
			continue
		}
		v, ok := fieldValue(c, field)
		if !ok {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func fieldValue(c models.CampaignRecord, field string) (float64, bool) {
	switch field {
	case "ctr":
		return ratio(c.CTR)
	case "cpc":
		return ratio(c.CPC)
	case "cpa":
		return ratio(c.CPA)
	case "roas":
		return ratio(c.ROAS)
	case "spend":
		return ratio(c.Spend)
	case "revenue":
		return c.Revenue, true
	case "impressions":
		return float64(c.Impressions), true
	case "clicks":
		return float64(c.Clicks), true
	case "conversions":
		return float64(c.Conversions), true
	}
	return 0, false
}
