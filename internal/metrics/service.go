package metrics

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/AngelCh415/adinsights/internal/models"
	"github.com/AngelCh415/adinsights/internal/store"
)

type Service struct{ st *store.MemoryStore }

func NewService(st *store.MemoryStore) *Service { return &Service{st: st} }
func norm(s string) string                      { return strings.ToLower(strings.TrimSpace(s)) }

// csvSet parses a comma separated filter; "all" disables the filter.
func csvSet(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, p := range strings.Split(s, ",") {
		p = norm(p)
		if p == "all" {
			return map[string]struct{}{}
		}
		if p != "" {
			out[p] = struct{}{}
		}
	}
	return out
}

type Pagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type CampaignPage struct {
	Campaigns  []models.CampaignRecord `json:"campaigns"`
	Pagination Pagination              `json:"pagination"`
	Summary    models.Summary          `json:"summary"`
}

// QueryCampaigns filters stored campaigns by platform and status. The
// summary covers every match, not just the returned page.
func (s *Service) QueryCampaigns(v url.Values) (CampaignPage, error) {
	platforms := csvSet(v.Get("platform"))
	statuses := csvSet(v.Get("status"))
	limit := atoiDef(v.Get("limit"), 50)
	offset := atoiDef(v.Get("offset"), 0)

	rows := s.st.QueryCampaigns(func(c models.CampaignRecord) bool {
		if len(platforms) > 0 {
			if _, ok := platforms[norm(c.Platform)]; !ok {
				return false
			}
		}
		if len(statuses) > 0 {
			if _, ok := statuses[norm(c.Status)]; !ok {
				return false
			}
		}
		return true
	})

	// orden determinista
	sort.SliceStable(rows, func(i, j int) bool {
		if norm(rows[i].Platform) != norm(rows[j].Platform) {
			return norm(rows[i].Platform) < norm(rows[j].Platform)
		}
		return rows[i].ID < rows[j].ID
	})

	limit, offset = clampLimitOffset(limit, offset, len(rows))
	return CampaignPage{
		Campaigns:  paginate(rows, limit, offset),
		Pagination: Pagination{Total: len(rows), Limit: limit, Offset: offset},
		Summary:    Summarize(rows, nil),
	}, nil
}

// Summarize computes the response summary block for a batch. Ratios are 0
// when their denominator is 0.
func Summarize(campaigns []models.CampaignRecord, insights []models.Insight) models.Summary {
	sum := models.Summary{TotalCampaigns: len(campaigns), TotalInsights: len(insights)}
	roasSum, roasN := 0.0, 0
	for _, c := range campaigns {
		sum.TotalSpend += c.SpendValue()
		sum.TotalRevenue += c.Revenue
		if c.ROAS != nil {
			roasSum += *c.ROAS
			roasN++
		}
	}
	if sum.TotalSpend > 0 {
		sum.OverallROAS = round2(sum.TotalRevenue / sum.TotalSpend)
	}
	if roasN > 0 {
		sum.AvgROAS = round2(roasSum / float64(roasN))
	}
	sum.TotalSpend = round2(sum.TotalSpend)
	sum.TotalRevenue = round2(sum.TotalRevenue)
	for _, in := range insights {
		switch in.Impact {
		case models.ImpactHigh:
			sum.HighImpactInsights++
		case models.ImpactMedium:
			sum.MediumImpactInsights++
		case models.ImpactLow:
			sum.LowImpactInsights++
		}
	}
	return sum
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func atoiDef(s string, d int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}
func clampLimitOffset(limit, offset, n int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	} // tope sano
	if offset > n {
		offset = n
	}
	return limit, offset
}
func round2(f float64) float64 { return float64(int64(f*100+0.5)) / 100 }
