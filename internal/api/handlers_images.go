package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/leiwu/speiwatch/internal/render"
)

// handleOverlay serves the severity overlay PNG for a period, clipped to the
// parent region. The px parameter scales raster cells to screen pixels.
func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	p, ok := s.requestPeriod(w, r)
	if !ok {
		return
	}

	px := 4
	if v := r.URL.Query().Get("px"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 16 {
			http.Error(w, "px must be between 1 and 16", http.StatusBadRequest)
			return
		}
		px = n
	}

	grid, idx, err := s.grids.get(r.Context(), s.source, p)
	if err != nil {
		s.apiError(w, err)
		return
	}
	parent, _, err := s.regionTree(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	cells, err := idx.Clip(parent)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	png, err := render.Overlay(grid, cells, px)
	if err != nil {
		log.Printf("api: render overlay %s: %v", p, err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	s.servePNG(w, png)
}

func (s *Server) handleLegend(w http.ResponseWriter, r *http.Request) {
	png, err := render.Legend()
	if err != nil {
		log.Printf("api: render legend: %v", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	s.servePNG(w, png)
}

func (s *Server) servePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
