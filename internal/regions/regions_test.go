package regions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ctessum/geom"

	"github.com/leiwu/speiwatch/internal/geo"
)

const boundaryJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"name": "Inner Mongolia"},
      "geometry": {"type": "Polygon", "coordinates": [[[97,37],[126,37],[126,53],[97,53],[97,37]]]}
    },
    {
      "type": "Feature",
      "properties": {"name": "Alxa", "parent": "Inner Mongolia"},
      "geometry": {"type": "Polygon", "coordinates": [[[97,37],[106,37],[106,42],[97,42],[97,37]]]}
    },
    {
      "type": "Feature",
      "properties": {"name": "Hulunbuir", "parent": "Inner Mongolia"},
      "geometry": {"type": "MultiPolygon", "coordinates": [[[[115,47],[126,47],[126,53],[115,53],[115,47]]]]}
    }
  ]
}`

func TestDecode(t *testing.T) {
	regions, err := Decode([]byte(boundaryJSON))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(regions) != 3 {
		t.Fatalf("len(regions) = %d, want 3", len(regions))
	}

	parent := regions[0]
	if parent.Name != "Inner Mongolia" || parent.Parent != "" {
		t.Errorf("parent = %q/%q, want Inner Mongolia with no parent", parent.Name, parent.Parent)
	}
	if err := parent.Validate(); err != nil {
		t.Errorf("parent geometry invalid: %v", err)
	}
	// GeoJSON coordinates are (lon, lat); a point inside the box must land
	// inside the converted polygon.
	if (geom.Point{X: 110, Y: 45}).Within(parent.Geom) != geom.Inside {
		t.Error("point (110E, 45N) not inside parent polygon")
	}
	if (geom.Point{X: 45, Y: 110}).Within(parent.Geom) == geom.Inside {
		t.Error("swapped-axis point inside parent polygon; lon/lat order lost")
	}

	child := regions[1]
	if child.Parent != "Inner Mongolia" {
		t.Errorf("child parent = %q, want Inner Mongolia", child.Parent)
	}

	multi := regions[2]
	if _, ok := multi.Geom.(geom.MultiPolygon); !ok {
		t.Errorf("MultiPolygon feature decoded as %T", multi.Geom)
	}
	if err := multi.Validate(); err != nil {
		t.Errorf("multipolygon geometry invalid: %v", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"not json", `{{{`},
		{
			"missing name",
			`{"type":"FeatureCollection","features":[
				{"type":"Feature","properties":{},
				 "geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}]}`,
		},
		{
			"unsupported geometry",
			`{"type":"FeatureCollection","features":[
				{"type":"Feature","properties":{"name":"line"},
				 "geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]}}]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.json)); err == nil {
				t.Error("Decode succeeded, want error")
			}
		})
	}
}

func TestClientLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.geojson")
	if err := os.WriteFile(path, []byte(boundaryJSON), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	regions, err := NewClient(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(regions) != 3 {
		t.Errorf("len(regions) = %d, want 3", len(regions))
	}
}

func TestClientLoadHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/boundaries.geojson" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(boundaryJSON))
	}))
	defer srv.Close()

	regions, err := NewClient(srv.URL + "/boundaries.geojson").Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(regions) != 3 {
		t.Errorf("len(regions) = %d, want 3", len(regions))
	}

	_, err = NewClient(srv.URL + "/missing.geojson").Load(context.Background())
	if err == nil {
		t.Error("Load of missing URL succeeded, want error")
	}
}

func TestCache(t *testing.T) {
	cache := NewCache(time.Hour)

	if _, ok := cache.Get("a"); ok {
		t.Error("Get on empty cache hit")
	}

	set := []geo.Region{{Name: "X"}}
	cache.Put("a", set)
	got, ok := cache.Get("a")
	if !ok || len(got) != 1 || got[0].Name != "X" {
		t.Errorf("Get after Put = %v, %v", got, ok)
	}

	cache.Invalidate("a")
	if _, ok := cache.Get("a"); ok {
		t.Error("Get after Invalidate hit")
	}

	cache.Put("a", set)
	cache.Put("b", set)
	cache.Reset()
	if _, ok := cache.Get("a"); ok {
		t.Error("Get after Reset hit")
	}
	if _, ok := cache.Get("b"); ok {
		t.Error("Get after Reset hit for second source")
	}
}

func TestCacheExpiry(t *testing.T) {
	cache := NewCache(time.Nanosecond)
	cache.Put("a", []geo.Region{{Name: "X"}})
	time.Sleep(time.Microsecond)
	if _, ok := cache.Get("a"); ok {
		t.Error("expired entry still served")
	}
}

func TestCacheLoadThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.geojson")
	if err := os.WriteFile(path, []byte(boundaryJSON), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cache := NewCache(time.Hour)
	client := NewClient(path)

	first, err := cache.Load(context.Background(), client)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("len(first) = %d, want 3", len(first))
	}

	// A second Load must come from the cache, not the (now broken) file.
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatalf("corrupt fixture: %v", err)
	}
	second, err := cache.Load(context.Background(), client)
	if err != nil {
		t.Fatalf("Load from cache: %v", err)
	}
	if len(second) != 3 {
		t.Errorf("len(second) = %d, want 3 from cache", len(second))
	}

	cache.Invalidate(client.Source())
	if _, err := cache.Load(context.Background(), client); err == nil {
		t.Error("Load after Invalidate read broken file without error")
	}
}

func TestTree(t *testing.T) {
	all, err := Decode([]byte(boundaryJSON))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	parent, children, err := Tree(all, "Inner Mongolia")
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if parent.Name != "Inner Mongolia" {
		t.Errorf("parent = %q", parent.Name)
	}
	if len(children) != 2 {
		t.Fatalf("len(children) = %d, want 2", len(children))
	}
	if children[0].Name != "Alxa" || children[1].Name != "Hulunbuir" {
		t.Errorf("children = %q, %q; file order not preserved", children[0].Name, children[1].Name)
	}

	if _, _, err := Tree(all, "Atlantis"); err == nil {
		t.Error("Tree with unknown parent succeeded, want error")
	}
}
