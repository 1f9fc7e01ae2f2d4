package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/leiwu/speiwatch/internal/classify"
	"github.com/leiwu/speiwatch/internal/raster"
	"github.com/leiwu/speiwatch/internal/warnings"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	p, err := s.periodFromQuery(r)
	if err != nil {
		if errors.Is(err, raster.ErrNoData) {
			s.renderEmpty(w, p.Scale, "No rasters have been ingested yet. The scheduler polls the archive on its own cadence; /history shows fetch attempts.")
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a, err := s.assess(r.Context(), p)
	if err != nil {
		if errors.Is(err, raster.ErrNoData) {
			s.renderEmpty(w, p.Scale, fmt.Sprintf("No raster catalogued for %s.", p))
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := s.buildIndexData(r.Context(), a)
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Printf("template error: %v", err)
	}
}

// renderEmpty shows the dashboard shell with an explanation instead of a
// report, keeping the scale tabs usable.
func (s *Server) renderEmpty(w http.ResponseWriter, active raster.Scale, msg string) {
	if active == "" {
		active = raster.Scale03
	}
	data := IndexData{
		Empty:        true,
		EmptyMessage: msg,
		GeneratedAt:  time.Now().UTC(),
	}
	for _, sc := range raster.Scales {
		data.Scales = append(data.Scales, ScaleTab{Scale: sc, Months: sc.Months(), Active: sc == active})
	}
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Printf("template error: %v", err)
	}
}

func (s *Server) buildIndexData(ctx context.Context, a *Assessment) IndexData {
	p := a.Period
	data := IndexData{
		Period:            p,
		PeriodKey:         p.String(),
		Report:            a.Report,
		AdvisoryAvailable: s.advisor != nil,
		GeneratedAt:       time.Now().UTC(),
	}

	for _, sc := range raster.Scales {
		data.Scales = append(data.Scales, ScaleTab{Scale: sc, Months: sc.Months(), Active: sc == p.Scale})
	}

	entries, err := s.store.ListPeriods(string(p.Scale))
	if err != nil {
		log.Printf("api: list periods: %v", err)
	}
	for _, e := range entries {
		key := raster.Period{Scale: raster.Scale(e.Scale), Year: e.Year, Month: e.Month}
		data.Periods = append(data.Periods, PeriodOption{
			Key:      key.String(),
			Label:    fmt.Sprintf("%04d-%02d", e.Year, e.Month),
			Selected: e.Year == p.Year && e.Month == p.Month,
		})
	}

	for _, b := range a.Report.Breakdown {
		data.Breakdown = append(data.Breakdown, BucketRow{
			Label: b.Label,
			Color: classify.Color(b.Bucket),
			Area:  b.Area,
			Pct:   b.Pct,
		})
	}

	for i, row := range a.Result.Rows {
		lvl := warnings.LevelFor(row.HazardPct())
		data.Children = append(data.Children, ChildRow{
			Rank:       i + 1,
			Region:     row.Region,
			HazardArea: row.Hazard,
			HazardPct:  row.HazardPct(),
			Cells:      row.Cells,
			Level:      string(lvl),
			LevelClass: lvl.CSSClass(),
		})
	}

	if flags, ok := s.regimeFlags(ctx, p.Year, p.Month); ok {
		code := classify.RegimeToString(flags)
		data.Regime = &RegimeView{
			Code:       code,
			Label:      regimeLabel(code),
			Badge:      regimeBadge(code),
			Color:      regimeColor(code),
			Flash:      flags.FlashDrought,
			Entrenched: flags.Entrenched,
			Recovering: flags.Recovering,
		}
	}

	active, err := s.store.ActiveWarnings(warnings.ActiveWindow)
	if err != nil {
		log.Printf("api: active warnings: %v", err)
	}
	for _, wr := range active {
		if wr.Scale != string(p.Scale) {
			continue
		}
		lvl := warnings.Level(wr.Level)
		data.Warnings = append(data.Warnings, WarningView{
			Region:     wr.Region,
			Level:      wr.Level,
			LevelClass: lvl.CSSClass(),
			HazardPct:  wr.HazardPct,
			Headline:   wr.Headline,
			Since:      wr.FirstSeenAt,
		})
	}

	if text, ok := s.advisories.Get(p, a.Report.Region); ok {
		data.Advisory = text
	}

	return data
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	data := HistoryData{}

	analyses, err := s.store.RecentAnalyses(50)
	if err != nil {
		log.Printf("api: recent analyses: %v", err)
	}
	for _, a := range analyses {
		p := raster.Period{Scale: raster.Scale(a.Scale), Year: a.Year, Month: a.Month}
		data.Analyses = append(data.Analyses, AnalysisRow{
			Created:   a.CreatedAt.Format("Jan 2 15:04"),
			Period:    p.String(),
			Region:    a.Region,
			HazardPct: a.HazardPct,
			TotalArea: a.TotalArea,
			Cells:     a.ValidCells,
			Children:  a.ChildCount,
			Duration:  fmt.Sprintf("%d ms", a.DurationMs),
		})
	}

	fetches, err := s.store.RecentFetches(50)
	if err != nil {
		log.Printf("api: recent fetches: %v", err)
	}
	for _, f := range fetches {
		row := FetchRow{
			Started: f.StartedAt.Format("Jan 2 15:04"),
			Source:  f.Source,
			Period:  f.Period,
		}
		switch {
		case !f.FinishedAt.Valid:
			row.Outcome = "running"
			row.Class = "fetch-running"
		case f.Success:
			row.Outcome = "ok"
			row.Class = "fetch-ok"
		default:
			row.Outcome = "failed"
			row.Class = "fetch-failed"
		}
		if f.BytesFetched.Valid {
			row.Bytes = f.BytesFetched.Int64
		}
		if f.ErrorMessage.Valid {
			row.Message = f.ErrorMessage.String
		}
		data.Fetches = append(data.Fetches, row)
	}

	if err := s.tmpl.ExecuteTemplate(w, "history.html", data); err != nil {
		log.Printf("template error: %v", err)
	}
}
