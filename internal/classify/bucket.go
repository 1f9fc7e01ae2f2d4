package classify

import "math"

// Bucket identifies one of the seven ordered severity categories that
// partition the index range, from extreme drought through extreme wetness.
type Bucket string

const (
	ExtremeDry  Bucket = "extreme_dry"
	SevereDry   Bucket = "severe_dry"
	ModerateDry Bucket = "moderate_dry"
	Normal      Bucket = "normal"
	ModerateWet Bucket = "moderate_wet"
	SevereWet   Bucket = "severe_wet"
	ExtremeWet  Bucket = "extreme_wet"
)

// NumBuckets is the size of the severity partition.
const NumBuckets = 7

// Interval is one row of the classification table: a contiguous span of the
// index range carrying a bucket label. Lo and Hi are the bounds (±Inf for the
// unbounded ends); LoIncl and HiIncl say whether each bound belongs to the
// interval.
type Interval struct {
	Bucket Bucket
	Lo, Hi float64
	LoIncl bool
	HiIncl bool
}

// Table is the single source of truth for the severity partition, ordered
// driest first. The intervals are contiguous and non-overlapping; at every
// cut point the inclusive side belongs to the less severe neighbor, so -2 is
// severe (not extreme) drought and 2 is severe (not extreme) wetness.
var Table = [NumBuckets]Interval{
	{ExtremeDry, math.Inf(-1), -2, false, false},
	{SevereDry, -2, -1.5, true, false},
	{ModerateDry, -1.5, -1, true, false},
	{Normal, -1, 1, true, true},
	{ModerateWet, 1, 1.5, false, true},
	{SevereWet, 1.5, 2, false, true},
	{ExtremeWet, 2, math.Inf(1), false, false},
}

func (iv Interval) contains(v float64) bool {
	if v < iv.Lo || (v == iv.Lo && !iv.LoIncl) {
		return false
	}
	if v > iv.Hi || (v == iv.Hi && !iv.HiIncl) {
		return false
	}
	return true
}

// Classify maps a finite index value to its severity bucket. The table is
// total over the real line, so every finite value lands in exactly one
// interval. Sentinel fill and NaN must be filtered out before reaching here.
func Classify(v float64) Bucket {
	for _, iv := range Table {
		if iv.contains(v) {
			return iv.Bucket
		}
	}
	// Unreachable for finite inputs.
	return Normal
}

// Buckets returns the bucket labels in table order, driest first.
func Buckets() [NumBuckets]Bucket {
	var out [NumBuckets]Bucket
	for i, iv := range Table {
		out[i] = iv.Bucket
	}
	return out
}

// Rank returns a bucket's position in the table (0 = extreme drought,
// 6 = extreme wetness), or -1 for an unknown label.
func Rank(b Bucket) int {
	for i, iv := range Table {
		if iv.Bucket == b {
			return i
		}
	}
	return -1
}

// IsDry reports whether a bucket belongs to the hazard set, the three driest
// categories used for drought ranking.
func IsDry(b Bucket) bool {
	r := Rank(b)
	return r >= 0 && r < 3
}

// Label returns the human-readable name for a bucket.
func Label(b Bucket) string {
	switch b {
	case ExtremeDry:
		return "Extreme drought"
	case SevereDry:
		return "Severe drought"
	case ModerateDry:
		return "Moderate drought"
	case Normal:
		return "Near normal"
	case ModerateWet:
		return "Moderately wet"
	case SevereWet:
		return "Severely wet"
	case ExtremeWet:
		return "Extremely wet"
	default:
		return string(b)
	}
}
