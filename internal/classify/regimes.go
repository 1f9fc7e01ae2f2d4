package classify

// RegimeFlags summarizes how drought is evolving for one region by comparing
// the hazard share (fraction of monitored area in the three dry buckets)
// across accumulation scales. The 1-month scale reacts to recent deficit,
// the 12-month scale to sustained deficit.
type RegimeFlags struct {
	FlashDrought bool
	Entrenched   bool
	Recovering   bool
}

// ClassifyRegime derives regime flags from hazard shares at the 1, 3 and
// 12 month scales. Shares are fractions in [0, 1].
func ClassifyRegime(hazard01, hazard03, hazard12 float64) RegimeFlags {
	return RegimeFlags{
		FlashDrought: classifyFlash(hazard01, hazard12),
		Entrenched:   classifyEntrenched(hazard03, hazard12),
		Recovering:   classifyRecovering(hazard01, hazard12),
	}
}

func classifyFlash(hazard01, hazard12 float64) bool {
	// Short-term deficit over a third of the area while the annual picture
	// is still near normal: drought developing faster than the long scales
	// can register.
	return hazard01 >= 0.30 && hazard12 < 0.10
}

func classifyEntrenched(hazard03, hazard12 float64) bool {
	// Both the seasonal and annual scales show widespread deficit.
	return hazard03 >= 0.30 && hazard12 >= 0.30
}

func classifyRecovering(hazard01, hazard12 float64) bool {
	// Annual deficit persists but the most recent month has largely
	// returned to normal.
	return hazard01 < 0.10 && hazard12 >= 0.30
}

// RegimeToString returns a single keyword for the dominant regime.
func RegimeToString(flags RegimeFlags) string {
	if flags.FlashDrought {
		return "flash_drought"
	}
	if flags.Entrenched {
		return "entrenched"
	}
	if flags.Recovering {
		return "recovering"
	}
	return "stable"
}
