package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func codes(d Diagnosis) []string {
	out := make([]string, 0, len(d.Findings))
	for _, f := range d.Findings {
		out = append(out, f.Code)
	}
	return out
}

func TestDiagnose_RuleTable(t *testing.T) {
	tests := []struct {
		name      string
		res       Result
		wantScore int
		wantCodes []string
		health    string
	}{
		{
			name:      "healthy",
			res:       Result{NetMarginPct: 25, RoiPct: 90, AdsAmount: 5, NetProfit: 30},
			wantScore: 100,
			wantCodes: []string{"HEALTHY_MARGIN", "STRONG_ROI"},
			health:    HealthGood,
		},
		{
			name:      "thin margin",
			res:       Result{NetMarginPct: 12, RoiPct: 40, AdsAmount: 5, NetProfit: 10},
			wantScore: 90,
			wantCodes: []string{"THIN_MARGIN", "STRONG_ROI"},
			health:    HealthGood,
		},
		{
			name:      "everything failing",
			res:       Result{NetMarginPct: 4, RoiPct: 10, AdsAmount: 12, NetProfit: 3},
			wantScore: 45,
			wantCodes: []string{"LOW_MARGIN", "LOW_TURNOVER", "ADS_EXPENSIVE"},
			health:    HealthCritical,
		},
		{
			name:      "boundaries are inclusive",
			res:       Result{NetMarginPct: 15, RoiPct: 30, AdsAmount: 10, NetProfit: 10},
			wantScore: 100,
			wantCodes: []string{"HEALTHY_MARGIN", "STRONG_ROI"},
			health:    HealthGood,
		},
		{
			name:      "low roi only",
			res:       Result{NetMarginPct: 16, RoiPct: 20, AdsAmount: 1, NetProfit: 10},
			wantScore: 80,
			wantCodes: []string{"HEALTHY_MARGIN", "LOW_TURNOVER"},
			health:    HealthGood,
		},
		{
			name:      "attention band",
			res:       Result{NetMarginPct: 8, RoiPct: 40, AdsAmount: 20, NetProfit: 10},
			wantScore: 65,
			wantCodes: []string{"LOW_MARGIN", "STRONG_ROI", "ADS_EXPENSIVE"},
			health:    HealthAttention,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := Diagnose(tc.res)
			assert.Equal(t, tc.wantScore, d.Score)
			assert.Equal(t, tc.wantCodes, codes(d))
			assert.Equal(t, tc.health, d.Health)
		})
	}
}

func TestDiagnose_ReferenceScenario(t *testing.T) {
	res, err := Compute(referenceConfig(), referenceInputs())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	d := Diagnose(res)
	assert.Equal(t, 100, d.Score)
	assert.Equal(t, HealthGood, d.Health)
}
