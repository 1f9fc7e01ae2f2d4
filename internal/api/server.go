package api

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leiwu/speiwatch/internal/advisory"
	"github.com/leiwu/speiwatch/internal/raster"
	"github.com/leiwu/speiwatch/internal/regions"
	"github.com/leiwu/speiwatch/internal/store"
)

// Server serves the dashboard pages, the JSON API and the rendered map
// images. Rollups are computed per request from the catalogued rasters; the
// grid cache keeps recently opened grids and their spatial indexes warm so
// repeated views of the same period skip the NetCDF parse.
type Server struct {
	store      *store.Store
	port       string
	source     raster.Source
	regions    *regions.Cache
	regClient  *regions.Client
	parentName string
	workers    int
	tmpl       *template.Template
	grids      *gridCache
	advisor    *advisory.Generator
	advisories *advisory.Cache
	genMu      sync.Mutex // Prevents concurrent generation of the same advisory
}

func NewServer(st *store.Store, port string, src raster.Source, regionCache *regions.Cache, regionClient *regions.Client, parentName string, workers int) *Server {
	// Advisory generation is optional - may not have an API key.
	var advisor *advisory.Generator
	if gen, err := advisory.NewGenerator(); err != nil {
		log.Printf("Advisory generation disabled: %v", err)
	} else {
		advisor = gen
	}

	return &Server{
		store:      st,
		port:       port,
		source:     src,
		regions:    regionCache,
		regClient:  regionClient,
		parentName: parentName,
		workers:    workers,
		tmpl:       newTemplates(),
		grids:      newGridCache(15 * time.Minute),
		advisor:    advisor,
		advisories: advisory.NewCache(12 * time.Hour),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/images/overlay", s.handleOverlay)
	mux.HandleFunc("/images/legend", s.handleLegend)
	mux.HandleFunc("/download/rollup.csv", s.handleDownloadCSV)
	mux.HandleFunc("/api/report", s.handleAPIReport)
	mux.HandleFunc("/api/rollup", s.handleAPIRollup)
	mux.HandleFunc("/api/periods", s.handleAPIPeriods)
	mux.HandleFunc("/api/regions", s.handleAPIRegions)
	mux.HandleFunc("/api/warnings", s.handleAPIWarnings)
	mux.HandleFunc("/api/advisory", s.handleAPIAdvisory)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
