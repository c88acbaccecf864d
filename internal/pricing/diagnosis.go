package pricing

// Finding levels.
const (
	LevelCritical = "critical"
	LevelWarning  = "warning"
	LevelSuccess  = "success"
)

// Health bands derived from the diagnosis score.
const (
	HealthGood      = "healthy"
	HealthAttention = "attention"
	HealthCritical  = "critical"
)

// Finding is one rule outcome of a diagnosis.
type Finding struct {
	Level   string `json:"level"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Penalty int    `json:"penalty"`
}

// Diagnosis scores a result against fixed margin, ROI and ad-spend thresholds.
type Diagnosis struct {
	Score    int       `json:"score"`
	Health   string    `json:"health"`
	Findings []Finding `json:"findings"`
}

// Diagnose applies the rule table to res. The score starts at 100 and each
// failed rule subtracts its penalty.
func Diagnose(res Result) Diagnosis {
	d := Diagnosis{Score: 100}

	switch {
	case res.NetMarginPct < 10:
		d.add(Finding{LevelCritical, "LOW_MARGIN", "Net margin below 10%: any swing in ads or returns can turn the unit unprofitable.", 20})
	case res.NetMarginPct < 15:
		d.add(Finding{LevelWarning, "THIN_MARGIN", "Net margin is positive but thin; aim for 15-20% or more.", 10})
	default:
		d.add(Finding{LevelSuccess, "HEALTHY_MARGIN", "Net margin is healthy (>= 15%).", 0})
	}

	if res.RoiPct < 30 {
		d.add(Finding{LevelWarning, "LOW_TURNOVER", "ROI below 30%: capital turns slowly; consider renegotiating supplier cost.", 20})
	} else {
		d.add(Finding{LevelSuccess, "STRONG_ROI", "ROI is strong (>= 30%).", 0})
	}

	if res.AdsAmount > res.NetProfit {
		d.add(Finding{LevelWarning, "ADS_EXPENSIVE", "Ad spend per unit exceeds net profit per unit; watch TACOS.", 15})
	}

	switch {
	case d.Score >= 80:
		d.Health = HealthGood
	case d.Score >= 50:
		d.Health = HealthAttention
	default:
		d.Health = HealthCritical
	}

	return d
}

func (d *Diagnosis) add(f Finding) {
	d.Score -= f.Penalty
	d.Findings = append(d.Findings, f)
}
