package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/leiwu/speiwatch/internal/api"
	"github.com/leiwu/speiwatch/internal/ingest"
	"github.com/leiwu/speiwatch/internal/regions"
	"github.com/leiwu/speiwatch/internal/store"
	"github.com/leiwu/speiwatch/internal/warnings"
)

type CLI struct {
	DB            string        `name:"db" env:"SPEIWATCH_DB" default:"data/speiwatch.db" help:"Path to SQLite database."`
	DataDir       string        `name:"data-dir" env:"SPEIWATCH_DATA_DIR" default:"data/rasters" help:"Directory for fetched raster files."`
	Port          string        `name:"port" env:"SPEIWATCH_PORT" default:"8080" help:"HTTP server port."`
	Regions       string        `name:"regions" env:"SPEIWATCH_REGIONS" default:"data/regions.geojson" help:"Region boundaries: GeoJSON file path or http(s) URL."`
	Parent        string        `name:"parent" env:"SPEIWATCH_PARENT" default:"Inner Mongolia" help:"Parent region to roll up against."`
	Archive       string        `name:"archive" env:"SPEIWATCH_ARCHIVE" required:"" help:"Raster archive base URL (http(s) or ftp)."`
	Interval      time.Duration `name:"interval" env:"SPEIWATCH_INTERVAL" default:"6h" help:"Archive poll interval."`
	Workers       int           `name:"workers" env:"SPEIWATCH_WORKERS" default:"4" help:"Concurrent region workers per rollup."`
	BackfillYears int           `name:"backfill-years" env:"SPEIWATCH_BACKFILL_YEARS" default:"0" help:"Backfill this many years of rasters at startup."`
	NoPoll        bool          `name:"no-poll" help:"Disable archive polling (server only, for local dev)."`
	Once          bool          `name:"once" help:"Ingest once and exit (for testing)."`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("speiwatch"),
		kong.Description("Drought monitoring service: ingests monthly SPEI rasters, serves regional rollups and warnings."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	db, err := sql.Open("sqlite", cli.DB)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db, time.UTC)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("database migrated")

	if err := os.MkdirAll(cli.DataDir, 0o755); err != nil {
		log.Fatalf("create data dir: %v", err)
	}

	fetcher, err := ingest.NewFetcher(cli.Archive)
	if err != nil {
		log.Fatalf("archive: %v", err)
	}

	regionCache := regions.NewCache(time.Hour)
	regionClient := regions.NewClient(cli.Regions)
	source := store.CatalogSource{Store: st}

	scheduler := ingest.NewScheduler(st, fetcher, cli.DataDir, cli.Interval)
	evaluator := warnings.NewEvaluator(st, source, regionCache, regionClient, cli.Parent, cli.Workers)
	scheduler.SetAnalyzer(evaluator)

	server := api.NewServer(st, cli.Port, source, regionCache, regionClient, cli.Parent, cli.Workers)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cli.BackfillYears > 0 {
		log.Printf("backfilling %d years of rasters", cli.BackfillYears)
		if err := scheduler.Backfill(ctx, cli.BackfillYears); err != nil {
			log.Fatalf("backfill: %v", err)
		}
	}

	if cli.Once {
		log.Println("running single ingestion")
		if err := scheduler.IngestOnce(ctx); err != nil {
			log.Fatalf("ingest: %v", err)
		}
		log.Println("done")
		return
	}

	if !cli.NoPoll {
		go scheduler.Run(ctx)
	} else {
		log.Println("polling disabled (--no-poll)")
	}

	log.Printf("starting server on :%s", cli.Port)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
