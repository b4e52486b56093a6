package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AngelCh415/adinsights/internal/config"
	"github.com/AngelCh415/adinsights/internal/ingest"
	"github.com/AngelCh415/adinsights/internal/insights"
	"github.com/AngelCh415/adinsights/internal/metrics"
	"github.com/AngelCh415/adinsights/internal/models"
	"github.com/AngelCh415/adinsights/internal/store"
	"github.com/AngelCh415/adinsights/internal/utils"
)

const maxBodyBytes = 10 << 20

type Deps struct {
	Log       *slog.Logger
	Config    config.Config
	Campaigns *store.MemoryStore
	Insights  store.InsightStore
	ETL       *ingest.ETL
	Metrics   *metrics.Service
}

type server struct{ Deps }

func NewRouter(d Deps) http.Handler {
	s := &server{d}
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(d.Log))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.Config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	mux.Handle("/metrics", promhttp.Handler())

	mux.Route("/api", func(api chi.Router) {
		api.Get("/ai-insights", s.demoInsights)
		api.Post("/ai-insights", s.generateInsights)
		api.Get("/insights", s.listInsights)
		api.Get("/campaigns", s.listCampaigns)
	})

	mux.Post("/ingest/run", s.runIngest)
	mux.Post("/export/run", s.runExport)

	return mux
}

func (s *server) engine(userID string) *insights.Engine {
	return insights.NewEngine(userID, s.Insights, s.Log)
}

// demoInsights analyses the stored campaigns on behalf of the demo user.
func (s *server) demoInsights(w http.ResponseWriter, r *http.Request) {
	campaigns := s.Campaigns.Campaigns()
	eng := s.engine(s.Config.DemoUserID)
	out := eng.Generate(campaigns)

	if persist, _ := strconv.ParseBool(r.URL.Query().Get("persist")); persist {
		if err := eng.Persist(r.Context(), out, ""); err != nil {
			fail(w, r, http.StatusBadGateway, codePersist, "Insight generation failed", err.Error())
			return
		}
	}
	success(w, r, map[string]any{
		"insights":  out,
		"campaigns": campaigns,
		"summary":   metrics.Summarize(campaigns, out),
	}, "AI insights generated successfully")
}

type generateRequest struct {
	Campaigns  json.RawMessage `json:"campaigns"`
	UserID     string          `json:"userId"`
	CampaignID string          `json:"campaignId"`
}

func (s *server) generateInsights(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			fail(w, r, http.StatusRequestEntityTooLarge, codeTooLarge, "Request body too large",
				"at most "+strconv.FormatInt(tooBig.Limit, 10)+" bytes per request")
			return
		}
		validationError(w, r, map[string][]string{"body": {"invalid JSON: " + err.Error()}})
		return
	}
	var raws []json.RawMessage
	trimmed := bytes.TrimSpace(req.Campaigns)
	if len(trimmed) == 0 || trimmed[0] != '[' || json.Unmarshal(trimmed, &raws) != nil {
		validationError(w, r, map[string][]string{"campaigns": {"Campaign data is required and must be an array"}})
		return
	}
	if len(raws) > s.Config.MaxCampaigns {
		fail(w, r, http.StatusRequestEntityTooLarge, codeTooLarge, "Too many campaigns",
			"at most "+strconv.Itoa(s.Config.MaxCampaigns)+" campaigns per request")
		return
	}

	campaigns, undecodable := models.ParseCampaigns(raws)
	if undecodable > 0 {
		s.Log.Warn("skipping undecodable campaigns", slog.Int("count", undecodable), slog.String("rid", utils.RID(r.Context())))
		metrics.RecordsSkipped.WithLabelValues("undecodable").Add(float64(undecodable))
	}

	user := req.UserID
	if user == "" {
		user = s.Config.DemoUserID
	}
	eng := s.engine(user)
	out := eng.Generate(campaigns)
	if err := eng.Persist(r.Context(), out, req.CampaignID); err != nil {
		fail(w, r, http.StatusBadGateway, codePersist, "Insight generation failed", err.Error())
		return
	}
	success(w, r, map[string]any{
		"insights": out,
		"summary":  metrics.Summarize(campaigns, out),
	}, "AI insights processed successfully")
}

func (s *server) listInsights(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	user := q.Get("userId")
	if user == "" {
		user = s.Config.DemoUserID
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	recs, err := s.Insights.ListInsights(r.Context(), user, limit)
	if err != nil {
		fail(w, r, http.StatusBadGateway, codeUpstream, "Could not load insights", err.Error())
		return
	}
	if recs == nil {
		recs = []models.InsightRecord{}
	}
	success(w, r, map[string]any{"insights": recs}, "")
}

func (s *server) listCampaigns(w http.ResponseWriter, r *http.Request) {
	page, err := s.Metrics.QueryCampaigns(r.URL.Query())
	if err != nil {
		fail(w, r, http.StatusBadRequest, codeValidation, "Invalid query", err.Error())
		return
	}
	success(w, r, page, "")
}

func (s *server) runIngest(w http.ResponseWriter, r *http.Request) {
	n, err := s.ETL.Run(r.Context())
	if err != nil {
		fail(w, r, http.StatusBadGateway, codeUpstream, "Ingest failed", err.Error())
		return
	}
	success(w, r, map[string]any{"stored": n}, "ingest complete")
}

func (s *server) runExport(w http.ResponseWriter, r *http.Request) {
	out := s.engine(s.Config.DemoUserID).Generate(s.Campaigns.Campaigns())
	n, err := s.ETL.ExportInsights(r.Context(), out)
	switch {
	case errors.Is(err, ingest.ErrSinkNotConfigured):
		fail(w, r, http.StatusServiceUnavailable, codeUnavailable, "Export sink not configured", err.Error())
		return
	case err != nil:
		fail(w, r, http.StatusBadGateway, codeUpstream, "Export failed", err.Error())
		return
	}
	success(w, r, map[string]any{"exported": n}, "")
}
