package raster

import (
	"fmt"
	"strconv"
	"strings"
)

// Scale is the index accumulation window in months, serialized as a
// zero-padded two-digit code.
type Scale string

const (
	Scale01 Scale = "01"
	Scale03 Scale = "03"
	Scale12 Scale = "12"
)

// Scales lists the supported accumulation scales in display order.
var Scales = []Scale{Scale01, Scale03, Scale12}

// Valid reports whether s is a supported scale code.
func (s Scale) Valid() bool {
	switch s {
	case Scale01, Scale03, Scale12:
		return true
	}
	return false
}

// Months returns the accumulation window length.
func (s Scale) Months() int {
	n, _ := strconv.Atoi(string(s))
	return n
}

// Supported historical range for raster years.
const (
	MinYear = 1950
	MaxYear = 2035
)

// Period identifies one raster by accumulation scale, year and month.
type Period struct {
	Scale Scale
	Year  int
	Month int
}

// String returns the canonical period key, e.g. SPEI_03_2024_06.
func (p Period) String() string {
	return fmt.Sprintf("SPEI_%s_%04d_%02d", p.Scale, p.Year, p.Month)
}

// FileName returns the canonical NetCDF file name for the period.
func (p Period) FileName() string {
	return p.String() + ".nc"
}

// Validate checks the period against the supported ranges.
func (p Period) Validate() error {
	if !p.Scale.Valid() {
		return fmt.Errorf("unsupported scale %q (want 01, 03 or 12)", p.Scale)
	}
	if p.Year < MinYear || p.Year > MaxYear {
		return fmt.Errorf("year %d outside supported range %d-%d", p.Year, MinYear, MaxYear)
	}
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("month %d outside 1-12", p.Month)
	}
	return nil
}

// ParsePeriod parses a canonical period key as produced by Period.String.
func ParsePeriod(key string) (Period, error) {
	parts := strings.Split(key, "_")
	if len(parts) != 4 || parts[0] != "SPEI" {
		return Period{}, fmt.Errorf("malformed period key %q", key)
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return Period{}, fmt.Errorf("malformed year in period key %q", key)
	}
	month, err := strconv.Atoi(parts[3])
	if err != nil {
		return Period{}, fmt.Errorf("malformed month in period key %q", key)
	}
	p := Period{Scale: Scale(parts[1]), Year: year, Month: month}
	if err := p.Validate(); err != nil {
		return Period{}, fmt.Errorf("period key %q: %w", key, err)
	}
	return p, nil
}
