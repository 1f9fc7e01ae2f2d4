package api

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/leiwu/speiwatch/internal/classify"
	"github.com/leiwu/speiwatch/internal/stats"
)

// handleDownloadCSV serves the full rollup as CSV: the parent first, then
// the ranked children, with one column per severity bucket.
func (s *Server) handleDownloadCSV(w http.ResponseWriter, r *http.Request) {
	p, ok := s.requestPeriod(w, r)
	if !ok {
		return
	}
	a, err := s.assess(r.Context(), p)
	if err != nil {
		s.apiError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", p.String()+"_rollup.csv"))

	cw := csv.NewWriter(w)
	header := []string{"region", "total_area", "hazard_area", "hazard_pct", "cells", "min_value", "max_value"}
	for _, b := range classify.Buckets() {
		header = append(header, string(b))
	}
	cw.Write(header)

	writeRow := func(st stats.AreaStat) {
		row := []string{
			st.Region,
			csvFloat(st.Total),
			csvFloat(st.HazardArea()),
			csvFloat(st.HazardPct()),
			strconv.Itoa(st.Cells),
			csvFloat(st.Min),
			csvFloat(st.Max),
		}
		for _, area := range st.Buckets {
			row = append(row, csvFloat(area))
		}
		cw.Write(row)
	}

	writeRow(a.Result.Parent)
	for _, row := range a.Result.Rows {
		writeRow(row.AreaStat)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Printf("api: write csv: %v", err)
	}
}

func csvFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
