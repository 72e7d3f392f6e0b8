package businessflow

// Growth label constants
const (
	GrowthLabelGrowth   = "growth"
	GrowthLabelDecrease = "decrease"
	GrowthLabelNoChange = "no change"
)

// Growth tone constants
const (
	GrowthToneSuccess  = "success"
	GrowthToneWarning  = "warning"
	GrowthToneCritical = "critical"
)

// criticalDeclineThreshold is the percent decline at which a card turns critical
const criticalDeclineThreshold = -10.0

// Growth is the computed change badge between the first and last data point
type Growth struct {
	Percent float64 `json:"percent"`
	Label   string  `json:"label"`
	Tone    string  `json:"tone"`
}

// ComputeGrowth computes the percent change from start to end. A zero start
// with a zero end is no change; a zero start with a positive end is reported
// as 100% growth rather than an undefined division.
func ComputeGrowth(start, end float64) Growth {
	var percent float64
	switch {
	case start == 0 && end == 0:
		percent = 0
	case start == 0:
		percent = 100
	default:
		percent = (end - start) / start * 100
	}

	label := GrowthLabelNoChange
	if percent > 0 {
		label = GrowthLabelGrowth
	} else if percent < 0 {
		label = GrowthLabelDecrease
	}

	tone := GrowthToneSuccess
	if percent < 0 {
		tone = GrowthToneWarning
		if percent <= criticalDeclineThreshold {
			tone = GrowthToneCritical
		}
	}

	return Growth{Percent: percent, Label: label, Tone: tone}
}
