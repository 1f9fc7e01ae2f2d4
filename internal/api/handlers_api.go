package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/leiwu/speiwatch/internal/classify"
	"github.com/leiwu/speiwatch/internal/raster"
	"github.com/leiwu/speiwatch/internal/stats"
	"github.com/leiwu/speiwatch/internal/warnings"
)

type reportResponse struct {
	Period string       `json:"period"`
	Report stats.Report `json:"report"`
	Regime string       `json:"regime,omitempty"`
}

func (s *Server) handleAPIReport(w http.ResponseWriter, r *http.Request) {
	p, ok := s.requestPeriod(w, r)
	if !ok {
		return
	}
	a, err := s.assess(r.Context(), p)
	if err != nil {
		s.apiError(w, err)
		return
	}

	resp := reportResponse{Period: p.String(), Report: a.Report}
	if flags, ok := s.regimeFlags(r.Context(), p.Year, p.Month); ok {
		resp.Regime = classify.RegimeToString(flags)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

type bucketJSON struct {
	Bucket string  `json:"bucket"`
	Area   float64 `json:"area"`
}

type regionStatJSON struct {
	Region     string       `json:"region"`
	TotalArea  float64      `json:"total_area"`
	HazardArea float64      `json:"hazard_area"`
	HazardPct  float64      `json:"hazard_pct"`
	Cells      int          `json:"cells"`
	MinValue   float64      `json:"min_value"`
	MaxValue   float64      `json:"max_value"`
	Breakdown  []bucketJSON `json:"breakdown"`
}

func regionStat(st stats.AreaStat) regionStatJSON {
	out := regionStatJSON{
		Region:     st.Region,
		TotalArea:  st.Total,
		HazardArea: st.HazardArea(),
		HazardPct:  st.HazardPct(),
		Cells:      st.Cells,
		MinValue:   st.Min,
		MaxValue:   st.Max,
	}
	for i, b := range classify.Buckets() {
		out.Breakdown = append(out.Breakdown, bucketJSON{Bucket: string(b), Area: st.Buckets[i]})
	}
	return out
}

type rollupResponse struct {
	Period  string            `json:"period"`
	Parent  regionStatJSON    `json:"parent"`
	Regions []regionStatJSON  `json:"regions"`
	Errors  map[string]string `json:"region_errors,omitempty"`
}

func (s *Server) handleAPIRollup(w http.ResponseWriter, r *http.Request) {
	p, ok := s.requestPeriod(w, r)
	if !ok {
		return
	}
	a, err := s.assess(r.Context(), p)
	if err != nil {
		s.apiError(w, err)
		return
	}

	resp := rollupResponse{
		Period:  p.String(),
		Parent:  regionStat(a.Result.Parent),
		Regions: make([]regionStatJSON, 0, len(a.Result.Rows)),
	}
	for _, row := range a.Result.Rows {
		resp.Regions = append(resp.Regions, regionStat(row.AreaStat))
	}
	if len(a.Result.RegionErrors) > 0 {
		resp.Errors = make(map[string]string, len(a.Result.RegionErrors))
		for region, rerr := range a.Result.RegionErrors {
			resp.Errors[region] = rerr.Error()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

type periodJSON struct {
	Period    string    `json:"period"`
	Scale     string    `json:"scale"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	FetchedAt time.Time `json:"fetched_at"`
}

func (s *Server) handleAPIPeriods(w http.ResponseWriter, r *http.Request) {
	scale := raster.Scale03
	if v := r.URL.Query().Get("scale"); v != "" {
		scale = raster.Scale(v)
		if !scale.Valid() {
			http.Error(w, "unsupported scale", http.StatusBadRequest)
			return
		}
	}

	entries, err := s.store.ListPeriods(string(scale))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]periodJSON, 0, len(entries))
	for _, e := range entries {
		p := raster.Period{Scale: raster.Scale(e.Scale), Year: e.Year, Month: e.Month}
		out = append(out, periodJSON{
			Period:    p.String(),
			Scale:     e.Scale,
			Year:      e.Year,
			Month:     e.Month,
			FetchedAt: e.FetchedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

type regionJSON struct {
	Name   string `json:"name"`
	Parent string `json:"parent,omitempty"`
}

func (s *Server) handleAPIRegions(w http.ResponseWriter, r *http.Request) {
	all, err := s.regions.Load(r.Context(), s.regClient)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]regionJSON, 0, len(all))
	for _, reg := range all {
		out = append(out, regionJSON{Name: reg.Name, Parent: reg.Parent})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

type warningJSON struct {
	Region      string    `json:"region"`
	Scale       string    `json:"scale"`
	Period      string    `json:"period"`
	Level       string    `json:"level"`
	HazardPct   float64   `json:"hazard_pct"`
	Headline    string    `json:"headline"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

func (s *Server) handleAPIWarnings(w http.ResponseWriter, r *http.Request) {
	active, err := s.store.ActiveWarnings(warnings.ActiveWindow)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]warningJSON, 0, len(active))
	for _, wr := range active {
		p := raster.Period{Scale: raster.Scale(wr.Scale), Year: wr.Year, Month: wr.Month}
		out = append(out, warningJSON{
			Region:      wr.Region,
			Scale:       wr.Scale,
			Period:      p.String(),
			Level:       wr.Level,
			HazardPct:   wr.HazardPct,
			Headline:    wr.Headline,
			FirstSeenAt: wr.FirstSeenAt,
			LastSeenAt:  wr.LastSeenAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

type advisoryResponse struct {
	Period   string `json:"period"`
	Region   string `json:"region"`
	Advisory string `json:"advisory"`
}

// handleAPIAdvisory returns the model-written advisory for a period,
// generating it on first request. Generation is serialized so concurrent
// requests for a cold period cost one upstream call, not many.
func (s *Server) handleAPIAdvisory(w http.ResponseWriter, r *http.Request) {
	p, ok := s.requestPeriod(w, r)
	if !ok {
		return
	}

	a, err := s.assess(r.Context(), p)
	if err != nil {
		s.apiError(w, err)
		return
	}
	region := a.Report.Region

	text, cached := s.advisories.Get(p, region)
	if !cached {
		if s.advisor == nil {
			http.Error(w, "advisory generation unavailable", http.StatusServiceUnavailable)
			return
		}

		s.genMu.Lock()
		defer s.genMu.Unlock()

		// Double-check cache after acquiring lock
		if t, ok := s.advisories.Get(p, region); ok {
			text = t
		} else {
			ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
			defer cancel()

			text, err = s.advisor.Generate(ctx, p, a.Report)
			if err != nil {
				log.Printf("api: advisory %s: %v", p, err)
				http.Error(w, "advisory generation failed", http.StatusServiceUnavailable)
				return
			}
			s.advisories.Set(p, region, text)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(advisoryResponse{Period: p.String(), Region: region, Advisory: text})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	latest, err := s.store.LatestFetch()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
		return
	}

	health := HealthStatus{Status: "ok"}

	// Rasters arrive monthly with a publishing delay; 45 days covers one
	// full cycle plus slack before the feed counts as stale.
	staleThreshold := 45 * 24 * time.Hour
	now := time.Now()

	if latest.IsZero() {
		health.Status = "degraded"
		health.AgeHours = -1
	} else {
		health.LatestFetch = latest
		health.AgeHours = int(now.Sub(latest).Hours())
		if now.Sub(latest) > staleThreshold {
			health.Status = "degraded"
		}
	}

	if n, err := s.store.FetchFailures(now.Add(-24 * time.Hour)); err != nil {
		health.Errors = append(health.Errors, "fetch failures: "+err.Error())
	} else {
		health.Failures24h = n
	}

	if len(health.Errors) > 0 {
		health.Status = "error"
	}

	w.Header().Set("Content-Type", "application/json")
	if health.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(health); err != nil {
		log.Printf("health: write response: %v", err)
	}
}

// apiError maps assessment failures to statuses: a missing raster is 404,
// anything else 500.
func (s *Server) apiError(w http.ResponseWriter, err error) {
	if errors.Is(err, raster.ErrNoData) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
