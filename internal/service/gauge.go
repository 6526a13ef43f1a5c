package service

import (
	"math"

	"github.com/nandusaji2001/ServConnect-sub001/internal/model"
)

// GasPercentage converts a raw cylinder weight into the depletion percentage
// of usable capacity, clamped to [0, 100] and rounded to one decimal. This is
// the figure compared against the subscription's trigger threshold.
func GasPercentage(weightGrams, tareGrams, fullGrams float64) float64 {
	netGas := weightGrams - tareGrams
	capacity := fullGrams - tareGrams
	// Calibration is validated on configure; guard anyway so a bad stored row
	// can never yield NaN or Inf here.
	if capacity <= 0 {
		return 0
	}
	pct := netGas / capacity * 100
	pct = math.Max(0, math.Min(100, pct))
	return math.Round(pct*10) / 10
}

// GasStatus derives the display status label from the percentage of the FULL
// cylinder weight. This deliberately uses a different basis than
// GasPercentage (usable capacity): unifying the two would silently change
// when auto-orders trigger relative to what users see.
func GasStatus(weightGrams, fullGrams float64) string {
	pct := weightGrams / fullGrams * 100
	switch {
	case pct >= 80:
		return model.GasStatusFull
	case pct >= 50:
		return model.GasStatusGood
	case pct >= 25:
		return model.GasStatusHalf
	case pct >= 10:
		return model.GasStatusLow
	default:
		return model.GasStatusCritical
	}
}

// statusPriority ranks status labels so a drop (higher to lower) can be
// detected for low-gas alerting. Higher is better.
func statusPriority(status string) int {
	switch status {
	case model.GasStatusFull:
		return 5
	case model.GasStatusGood:
		return 4
	case model.GasStatusHalf:
		return 3
	case model.GasStatusLow:
		return 2
	case model.GasStatusCritical:
		return 1
	default:
		return 0
	}
}
