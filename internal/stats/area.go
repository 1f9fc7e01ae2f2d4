package stats

import "math"

// EarthRadiusKm is the mean Earth radius used for cell area computation.
const EarthRadiusKm = 6371.0

// AreaUnitKm2 converts km² into the reporting unit of ten-thousand km².
const AreaUnitKm2 = 10000.0

// CellArea returns the true ground area in km² of one grid cell centered at
// the given latitude, for an angular resolution of res degrees. A degree of
// longitude shrinks with cos(latitude) while a degree of latitude is
// constant, so
//
//	area(lat) = (R · Δrad)² · cos(lat)
//
// with Δrad the resolution in radians. The resolution is always a parameter;
// nothing in the area math is tied to one dataset's cell size.
func CellArea(lat, res float64) float64 {
	d := res * math.Pi / 180
	s := EarthRadiusKm * d
	return s * s * math.Cos(lat*math.Pi/180)
}

// CellAreaUnits is CellArea expressed in ten-thousand km².
func CellAreaUnits(lat, res float64) float64 {
	return CellArea(lat, res) / AreaUnitKm2
}
