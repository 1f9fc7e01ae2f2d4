package raster

import (
	"fmt"
	"math"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// NetCDF layout for index rasters: dimensions lat and lon, coordinate
// variables lat(lat) and lon(lon) as doubles at cell centers, and the index
// variable spei(lat, lon) as floats carrying a missing_value attribute.
const (
	ncVar     = "spei"
	ncLat     = "lat"
	ncLon     = "lon"
	ncMissing = "missing_value"

	defaultFill = -9999
)

// OpenFile reads a raster from a NetCDF file on disk.
func OpenFile(path string) (*Grid, error) {
	ff, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raster: %w", err)
	}
	defer ff.Close()
	g, err := Read(ff)
	if err != nil {
		return nil, fmt.Errorf("read raster %s: %w", path, err)
	}
	return g, nil
}

// Read decodes a raster from NetCDF data. The cell geometry is derived from
// the file's own coordinate vectors; no calibration offsets are applied.
func Read(rw cdf.ReaderWriterAt) (*Grid, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("open netcdf: %w", err)
	}

	lats, err := readCoord(f, ncLat)
	if err != nil {
		return nil, err
	}
	lons, err := readCoord(f, ncLon)
	if err != nil {
		return nil, err
	}

	dims := f.Header.Lengths(ncVar)
	if len(dims) != 2 {
		return nil, fmt.Errorf("variable %s has %d dimensions, want 2", ncVar, len(dims))
	}
	data := sparse.ZerosDense(dims...)
	buf := make([]float32, len(data.Elements))
	r := f.Reader(ncVar, nil, nil)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("read %s: %w", ncVar, err)
	}
	for i, v := range buf {
		data.Elements[i] = float64(v)
	}

	res, err := resolution(lats, lons)
	if err != nil {
		return nil, err
	}
	return NewGrid(data, lats, lons, res, fillValue(f))
}

func readCoord(f *cdf.File, name string) ([]float64, error) {
	dims := f.Header.Lengths(name)
	if len(dims) != 1 || dims[0] == 0 {
		return nil, fmt.Errorf("coordinate %s missing or not 1-D", name)
	}
	buf := make([]float64, dims[0])
	r := f.Reader(name, nil, nil)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("read coordinate %s: %w", name, err)
	}
	return buf, nil
}

func fillValue(f *cdf.File) float64 {
	switch v := f.Header.GetAttribute(ncVar, ncMissing).(type) {
	case []float32:
		if len(v) > 0 {
			return float64(v[0])
		}
	case []float64:
		if len(v) > 0 {
			return v[0]
		}
	}
	return defaultFill
}

// resolution derives the angular cell size from the coordinate vectors.
// Spacing must be uniform and the lat and lon steps must agree; a grid whose
// own metadata cannot produce a single cell size is rejected.
func resolution(lats, lons []float64) (float64, error) {
	latStep, err := uniformStep(lats, ncLat)
	if err != nil {
		return 0, err
	}
	lonStep, err := uniformStep(lons, ncLon)
	if err != nil {
		return 0, err
	}
	switch {
	case latStep == 0 && lonStep == 0:
		return 0, fmt.Errorf("grid too small to derive a resolution")
	case latStep == 0:
		return lonStep, nil
	case lonStep == 0:
		return latStep, nil
	case math.Abs(latStep-lonStep) > 1e-6:
		return 0, fmt.Errorf("anisotropic grid: lat step %v, lon step %v", latStep, lonStep)
	}
	return latStep, nil
}

func uniformStep(coords []float64, name string) (float64, error) {
	if len(coords) < 2 {
		return 0, nil
	}
	step := math.Abs(coords[1] - coords[0])
	for i := 2; i < len(coords); i++ {
		d := math.Abs(coords[i] - coords[i-1])
		if math.Abs(d-step) > 1e-6 {
			return 0, fmt.Errorf("coordinate %s not uniformly spaced", name)
		}
	}
	if step == 0 {
		return 0, fmt.Errorf("coordinate %s has zero spacing", name)
	}
	return step, nil
}

// WriteFile writes a raster to path in the layout Read expects.
func WriteFile(path string, g *Grid) error {
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create raster: %w", err)
	}
	defer w.Close()
	if err := Write(w, g); err != nil {
		return fmt.Errorf("write raster %s: %w", path, err)
	}
	return nil
}

// Write encodes a raster as NetCDF.
func Write(w *os.File, g *Grid) error {
	h := cdf.NewHeader([]string{ncLat, ncLon}, []int{g.Rows(), g.Cols()})
	h.AddAttribute("", "comment", "drought index raster")
	h.AddVariable(ncLat, []string{ncLat}, []float64{0})
	h.AddVariable(ncLon, []string{ncLon}, []float64{0})
	h.AddVariable(ncVar, []string{ncLat, ncLon}, []float32{0})
	h.AddAttribute(ncVar, ncMissing, []float32{float32(g.Nodata)})
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return err
	}
	if err := writeFloat64(f, ncLat, g.Lats); err != nil {
		return err
	}
	if err := writeFloat64(f, ncLon, g.Lons); err != nil {
		return err
	}
	if err := writeFloat32(f, ncVar, g.Data.Elements); err != nil {
		return err
	}
	return cdf.UpdateNumRecs(w)
}

func writeFloat64(f *cdf.File, name string, vals []float64) error {
	end := f.Header.Lengths(name)
	w := f.Writer(name, make([]int, len(end)), end)
	_, err := w.Write(vals)
	return err
}

func writeFloat32(f *cdf.File, name string, vals []float64) error {
	buf := make([]float32, len(vals))
	for i, v := range vals {
		buf[i] = float32(v)
	}
	end := f.Header.Lengths(name)
	w := f.Writer(name, make([]int, len(end)), end)
	_, err := w.Write(buf)
	return err
}
