package stats

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

func TestSynthesizeDeterministic(t *testing.T) {
	idx, parent, children := rollupFixture(t)
	res, err := Rollup{}.Run(context.Background(), idx, 0.25, parent, children)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	a := Synthesize(res.Parent, res.Rows)
	b := Synthesize(res.Parent, res.Rows)
	if !reflect.DeepEqual(a, b) {
		t.Error("repeated synthesis of the same inputs differs")
	}
}

func TestSynthesizeContent(t *testing.T) {
	idx, parent, children := rollupFixture(t)
	res, err := Rollup{}.Run(context.Background(), idx, 0.25, parent, children)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	rep := Synthesize(res.Parent, res.Rows)

	if rep.Region != "province" {
		t.Errorf("Region = %q, want province", rep.Region)
	}
	if rep.TotalArea != res.Parent.Total {
		t.Errorf("TotalArea = %v, want %v", rep.TotalArea, res.Parent.Total)
	}
	if len(rep.Breakdown) != 7 {
		t.Fatalf("len(Breakdown) = %d, want 7", len(rep.Breakdown))
	}

	sumPct := 0.0
	for _, ba := range rep.Breakdown {
		sumPct += ba.Pct
	}
	if sumPct < 99.999 || sumPct > 100.001 {
		t.Errorf("breakdown percentages sum to %v, want 100", sumPct)
	}

	if rep.Worst == nil {
		t.Fatal("Worst is nil")
	}
	if rep.Worst.Region != "alpha" {
		t.Errorf("Worst.Region = %q, want alpha", rep.Worst.Region)
	}
	if rep.Worst.HazardArea != res.Rows[0].Hazard {
		t.Errorf("Worst.HazardArea = %v, want %v", rep.Worst.HazardArea, res.Rows[0].Hazard)
	}

	for _, want := range []string{"province", "ten-thousand km²", "alpha"} {
		if !strings.Contains(rep.Narrative, want) {
			t.Errorf("narrative missing %q: %s", want, rep.Narrative)
		}
	}
	if rep.Headline == "" {
		t.Error("empty headline")
	}
}

func TestSynthesizeEmptyParent(t *testing.T) {
	rep := Synthesize(AreaStat{Region: "void"}, nil)

	if rep.Headline != "No valid data" {
		t.Errorf("Headline = %q, want 'No valid data'", rep.Headline)
	}
	if !strings.Contains(rep.Narrative, "No valid cells") {
		t.Errorf("narrative = %q, want a no-data sentence", rep.Narrative)
	}
	if rep.Worst != nil {
		t.Errorf("Worst = %+v, want nil", rep.Worst)
	}
	if rep.HazardPct != 0 {
		t.Errorf("HazardPct = %v, want 0", rep.HazardPct)
	}
}

func TestSynthesizeNoDrought(t *testing.T) {
	// Only normal and wet cells.
	cells := newGrid(t, 1, 3,
		[]float64{0.2, 1.3, 2.6},
		[]float64{40},
		[]float64{100, 100.25, 100.5},
		0.25,
	).ValidCells()
	st, err := Aggregate("calm", cells, 0.25)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	rep := Synthesize(st, nil)
	if rep.Headline != "No drought" {
		t.Errorf("Headline = %q, want 'No drought'", rep.Headline)
	}
	if !strings.Contains(rep.Narrative, "No drought conditions detected.") {
		t.Errorf("narrative = %q, want the no-drought sentence", rep.Narrative)
	}
	if !strings.Contains(rep.Narrative, "No subregions report valid data.") {
		t.Errorf("narrative = %q, want the no-subregions sentence", rep.Narrative)
	}
}

func TestHeadlineBands(t *testing.T) {
	tests := []struct {
		name      string
		hazardPct float64
		want      string
	}{
		{"dead calm", 0, "No drought"},
		{"trace", 2, "Isolated drought patches"},
		{"localized", 15, "Localized drought"},
		{"widespread", 35, "Widespread drought"},
		{"severe", 60, "Severe widespread drought"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := Report{TotalArea: 100, HazardPct: tt.hazardPct}
			if got := buildHeadline(rep); got != tt.want {
				t.Errorf("buildHeadline(%v%%) = %q, want %q", tt.hazardPct, got, tt.want)
			}
		})
	}
}
