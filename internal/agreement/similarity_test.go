package agreement

import (
	"math"
	"testing"

	"github.com/banshee-data/agreement.report/internal/trade"
)

const epsilon = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func longBTC() trade.Trade {
	return trade.Trade{
		LabelType:          "action",
		AssetReferenceType: "Specific Asset(s)",
		SpecificAssets:     []string{"BTC"},
		Direction:          "Long",
		PositionStatus:     "Clearly a new position",
		ExposureChange:     "Increase",
		OptionalTaskFlags:  []string{},
	}
}

func TestCompareIdenticalTrades(t *testing.T) {
	a := longBTC()
	b := longBTC()

	sim := Compare(&a, &b)
	if !approxEqual(sim.OverallScore, 1.0) {
		t.Errorf("OverallScore = %v, want 1.0", sim.OverallScore)
	}
	for field, score := range sim.FieldScores {
		if !approxEqual(score, 0.2) {
			t.Errorf("FieldScores[%s] = %v, want 0.2", field, score)
		}
	}
}

func TestCompareSingleFieldDisagreement(t *testing.T) {
	a := longBTC()
	b := longBTC()
	b.Direction = "Short"

	sim := Compare(&a, &b)
	if !approxEqual(sim.OverallScore, 0.8) {
		t.Errorf("OverallScore = %v, want 0.8", sim.OverallScore)
	}
	if !approxEqual(sim.FieldScores[trade.FieldDirection], 0) {
		t.Errorf("direction score = %v, want 0", sim.FieldScores[trade.FieldDirection])
	}
	if !approxEqual(sim.FieldScores[trade.FieldStateType], 0.2) {
		t.Errorf("state_type score = %v, want 0.2", sim.FieldScores[trade.FieldStateType])
	}
}

func TestCompareFlagOverlap(t *testing.T) {
	a := longBTC()
	b := longBTC()
	a.OptionalTaskFlags = []string{"x", "y"}
	b.OptionalTaskFlags = []string{"y", "z", "w"}

	sim := Compare(&a, &b)
	// 1 shared flag over max(2, 3).
	want := (4.0 + 1.0/3.0) / 5.0
	if !approxEqual(sim.OverallScore, want) {
		t.Errorf("OverallScore = %v, want %v", sim.OverallScore, want)
	}
}

func TestCompareOneSidedFlagsScoreZero(t *testing.T) {
	a := longBTC()
	b := longBTC()
	a.OptionalTaskFlags = []string{"x"}

	sim := Compare(&a, &b)
	if !approxEqual(sim.FieldScores[trade.FieldOptionalTaskFlags], 0) {
		t.Errorf("flag score = %v, want 0", sim.FieldScores[trade.FieldOptionalTaskFlags])
	}
	if !approxEqual(sim.OverallScore, 0.8) {
		t.Errorf("OverallScore = %v, want 0.8", sim.OverallScore)
	}
}

func TestCompareLabelTallies(t *testing.T) {
	a := longBTC()
	b := longBTC()
	b.Direction = "Short"

	sim := Compare(&a, &b)

	// Shared labels count once, disagreeing labels once per side.
	if got := sim.LabelCounts["Long"]; got != 1 {
		t.Errorf("LabelCounts[Long] = %d, want 1", got)
	}
	if got := sim.LabelCounts["Short"]; got != 1 {
		t.Errorf("LabelCounts[Short] = %d, want 1", got)
	}
	if got := sim.LabelAgreements["Long"]; got != 0 {
		t.Errorf("LabelAgreements[Long] = %d, want 0", got)
	}
	if got := sim.LabelAgreements["action"]; got != 1 {
		t.Errorf("LabelAgreements[action] = %d, want 1", got)
	}
}

func TestCompareAmbiguousLabelsTrackedIndependently(t *testing.T) {
	a := longBTC()
	a.Direction = "Unclear"
	a.ExposureChange = "Unclear"
	a.RemainingExposure = "Unclear"
	b := a

	sim := Compare(&a, &b)
	for _, key := range []string{
		"Unclear (direction)",
		"Unclear (exposure_change)",
		"Unclear (remaining_exposure)",
	} {
		if got := sim.LabelAgreements[key]; got != 1 {
			t.Errorf("LabelAgreements[%s] = %d, want 1", key, got)
		}
		if got := sim.LabelCounts[key]; got != 1 {
			t.Errorf("LabelCounts[%s] = %d, want 1", key, got)
		}
	}
	if _, ok := sim.LabelAgreements["Unclear"]; ok {
		t.Error("no unqualified Unclear bucket should exist")
	}
}

func TestCompareAmbiguousLabelsStaySeparate(t *testing.T) {
	a := longBTC()
	b := longBTC()
	a.Direction = "Unclear"
	b.Direction = "Unclear"
	a.ExposureChange = "Unclear"
	b.ExposureChange = "Increase"

	sim := Compare(&a, &b)

	if got := sim.LabelAgreements["Unclear (direction)"]; got != 1 {
		t.Errorf("Unclear (direction) agreements = %d, want 1", got)
	}
	if got := sim.LabelAgreements["Unclear (exposure_change)"]; got != 0 {
		t.Errorf("Unclear (exposure_change) agreements = %d, want 0", got)
	}
	if got := sim.LabelCounts["Unclear (exposure_change)"]; got != 1 {
		t.Errorf("Unclear (exposure_change) counts = %d, want 1", got)
	}
}
