package stats

import (
	"fmt"
	"strings"

	"github.com/leiwu/speiwatch/internal/classify"
)

// Report is the structured narrative summary of one rollup. It is a pure
// transformation of its inputs: no clock, no randomness, and the only
// ordering is the ranking already present in the rows.
type Report struct {
	Region     string
	TotalArea  float64
	HazardArea float64
	HazardPct  float64
	Breakdown  []BucketArea
	Worst      *WorstChild
	Headline   string
	Narrative  string
}

// BucketArea is one row of the per-bucket breakdown, in classifier order.
type BucketArea struct {
	Bucket classify.Bucket
	Label  string
	Area   float64
	Pct    float64
}

// WorstChild identifies the top-ranked child region and its hazard figures.
type WorstChild struct {
	Region     string
	HazardArea float64
	HazardPct  float64
}

// Synthesize builds the report for a parent AreaStat and its ranked child
// rows. Same inputs always produce the same report.
func Synthesize(parent AreaStat, rows []RegionReport) Report {
	rep := Report{
		Region:     parent.Region,
		TotalArea:  parent.Total,
		HazardArea: parent.HazardArea(),
		HazardPct:  parent.HazardPct(),
	}

	rep.Breakdown = make([]BucketArea, 0, classify.NumBuckets)
	for i, b := range classify.Buckets() {
		pct := 0.0
		if parent.Total > 0 {
			pct = parent.Buckets[i] / parent.Total * 100
		}
		rep.Breakdown = append(rep.Breakdown, BucketArea{
			Bucket: b,
			Label:  classify.Label(b),
			Area:   parent.Buckets[i],
			Pct:    pct,
		})
	}

	if len(rows) > 0 {
		top := rows[0]
		rep.Worst = &WorstChild{
			Region:     top.Region,
			HazardArea: top.Hazard,
			HazardPct:  top.HazardPct(),
		}
	}

	rep.Headline = buildHeadline(rep)
	rep.Narrative = buildNarrative(rep, len(rows))
	return rep
}

func buildHeadline(rep Report) string {
	if rep.TotalArea == 0 {
		return "No valid data"
	}
	switch {
	case rep.HazardPct >= 50:
		return "Severe widespread drought"
	case rep.HazardPct >= 30:
		return "Widespread drought"
	case rep.HazardPct >= 10:
		return "Localized drought"
	case rep.HazardPct > 0:
		return "Isolated drought patches"
	}
	return "No drought"
}

// buildNarrative assembles the summary from deterministic sentence parts.
func buildNarrative(rep Report, childCount int) string {
	if rep.TotalArea == 0 {
		return fmt.Sprintf("No valid cells in %s for this period.", rep.Region)
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("Monitored area in %s totals %.2f ten-thousand km².",
		rep.Region, rep.TotalArea))

	if rep.HazardArea > 0 {
		parts = append(parts, fmt.Sprintf("Drought conditions cover %.2f ten-thousand km² (%.1f%% of the monitored area).",
			rep.HazardArea, rep.HazardPct))
		if dom, ok := dominantDryBucket(rep.Breakdown); ok {
			parts = append(parts, fmt.Sprintf("%s accounts for %.2f ten-thousand km².",
				dom.Label, dom.Area))
		}
	} else {
		parts = append(parts, "No drought conditions detected.")
	}

	if rep.Worst != nil {
		parts = append(parts, fmt.Sprintf("%s is the most affected subregion with %.2f ten-thousand km² under drought.",
			rep.Worst.Region, rep.Worst.HazardArea))
	} else if childCount == 0 {
		parts = append(parts, "No subregions report valid data.")
	}

	return strings.Join(parts, " ")
}

// dominantDryBucket returns the dry bucket holding the most area. Ties go to
// the more severe bucket, which comes first in classifier order.
func dominantDryBucket(breakdown []BucketArea) (BucketArea, bool) {
	var best BucketArea
	found := false
	for _, ba := range breakdown {
		if !classify.IsDry(ba.Bucket) || ba.Area == 0 {
			continue
		}
		if !found || ba.Area > best.Area {
			best = ba
			found = true
		}
	}
	return best, found
}
