package warnings

// Level grades a region's drought warning by the share of its area in the
// three driest severity buckets.
type Level string

const (
	LevelNone      Level = "none"
	LevelWatch     Level = "watch"
	LevelAlert     Level = "alert"
	LevelEmergency Level = "emergency"
)

// Hazard-share thresholds, percent of regional area under drought.
const (
	WatchThreshold     = 20.0
	AlertThreshold     = 35.0
	EmergencyThreshold = 50.0
)

// LevelFor maps a hazard percentage to a warning level.
func LevelFor(hazardPct float64) Level {
	switch {
	case hazardPct >= EmergencyThreshold:
		return LevelEmergency
	case hazardPct >= AlertThreshold:
		return LevelAlert
	case hazardPct >= WatchThreshold:
		return LevelWatch
	default:
		return LevelNone
	}
}

// Severity returns a numeric rank for sorting (higher = more serious).
func (l Level) Severity() int {
	switch l {
	case LevelEmergency:
		return 3
	case LevelAlert:
		return 2
	case LevelWatch:
		return 1
	default:
		return 0
	}
}

// CSSClass returns the styling class for the warning banner.
func (l Level) CSSClass() string {
	switch l {
	case LevelEmergency:
		return "warn-emergency"
	case LevelAlert:
		return "warn-alert"
	case LevelWatch:
		return "warn-watch"
	default:
		return "warn-none"
	}
}
