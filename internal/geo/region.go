package geo

import (
	"errors"
	"math"

	"github.com/ctessum/geom"
)

// ErrMalformedGeometry reports a region polygon that cannot be used for
// containment tests (degenerate or empty). The failure is isolated to the
// one region; rollups continue with its siblings.
var ErrMalformedGeometry = errors.New("malformed region geometry")

// Region is a named administrative unit with an optional parent reference
// and a polygon in geographic coordinates (WGS84 degrees). Regions form a
// two-level tree: a parent and its direct children. A nil Geom is legal and
// means "whole extent": clipping against it passes every valid cell.
type Region struct {
	Name   string
	Parent string
	Geom   geom.Polygonal
}

// Validate checks that the region's polygon can answer containment queries.
// Nil geometry passes (whole-extent region); an empty ring set or a
// degenerate (zero or non-finite area) polygon fails.
func (r Region) Validate() error {
	if r.Geom == nil {
		return nil
	}
	if len(r.Geom.Polygons()) == 0 {
		return ErrMalformedGeometry
	}
	a := r.Geom.Area()
	if a <= 0 || math.IsNaN(a) || math.IsInf(a, 0) {
		return ErrMalformedGeometry
	}
	return nil
}
