package api

import (
	"time"

	"github.com/leiwu/speiwatch/internal/raster"
	"github.com/leiwu/speiwatch/internal/stats"
)

// IndexData contains everything the dashboard page renders for one period.
type IndexData struct {
	Empty        bool
	EmptyMessage string

	Period    raster.Period
	PeriodKey string
	Scales    []ScaleTab
	Periods   []PeriodOption

	Report    stats.Report
	Breakdown []BucketRow
	Children  []ChildRow
	Regime    *RegimeView
	Warnings  []WarningView

	Advisory          string
	AdvisoryAvailable bool

	GeneratedAt time.Time
}

// ScaleTab is one accumulation-scale tab in the picker.
type ScaleTab struct {
	Scale  raster.Scale
	Months int
	Active bool
}

// PeriodOption is one entry in the period dropdown.
type PeriodOption struct {
	Key      string
	Label    string
	Selected bool
}

// BucketRow is one row of the severity breakdown table, with its map color.
type BucketRow struct {
	Label string
	Color string
	Area  float64
	Pct   float64
}

// ChildRow is one ranked child region in the rollup table.
type ChildRow struct {
	Rank       int
	Region     string
	HazardArea float64
	HazardPct  float64
	Cells      int
	Level      string
	LevelClass string
}

// RegimeView describes how drought is evolving across accumulation scales.
type RegimeView struct {
	Code       string
	Label      string
	Badge      string
	Color      string
	Flash      bool
	Entrenched bool
	Recovering bool
}

// WarningView is one active warning shown in the banner.
type WarningView struct {
	Region     string
	Level      string
	LevelClass string
	HazardPct  float64
	Headline   string
	Since      time.Time
}

// HistoryData contains the operational log tables.
type HistoryData struct {
	Analyses []AnalysisRow
	Fetches  []FetchRow
}

// AnalysisRow is one served rollup in the history table.
type AnalysisRow struct {
	Created   string
	Period    string
	Region    string
	HazardPct float64
	TotalArea float64
	Cells     int
	Children  int
	Duration  string
}

// FetchRow is one audited download attempt in the history table.
type FetchRow struct {
	Started string
	Source  string
	Period  string
	Outcome string
	Class   string
	Bytes   int64
	Message string
}

// HealthStatus represents the health check response.
type HealthStatus struct {
	Status      string    `json:"status"`
	LatestFetch time.Time `json:"latest_fetch"`
	AgeHours    int       `json:"age_hours"`
	Failures24h int       `json:"failures_24h"`
	Errors      []string  `json:"errors,omitempty"`
}

// Helper functions for regime display

func regimeLabel(code string) string {
	switch code {
	case "flash_drought":
		return "Flash drought"
	case "entrenched":
		return "Entrenched drought"
	case "recovering":
		return "Recovering"
	default:
		return "Stable"
	}
}

func regimeBadge(code string) string {
	switch code {
	case "flash_drought":
		return "⚡"
	case "entrenched":
		return "🔥"
	case "recovering":
		return "🌧"
	default:
		return ""
	}
}

func regimeColor(code string) string {
	switch code {
	case "flash_drought":
		return "#ff7043"
	case "entrenched":
		return "#c62828"
	case "recovering":
		return "#2e7d32"
	default:
		return "#888"
	}
}
