package handlers

import (
	"math"

	"myve/internal/types"
)

// Assumed annual interest for EMI simulations, matching a typical
// personal-loan rate.
const annualRatePercent = 10.5

var emiTenures = []int{12, 24, 36, 60}

// emiOptions simulates standard amortization schedules for principal
// over the fixed tenure ladder. Returns nil for a non-positive
// principal.
func emiOptions(principal float64) []types.EMIOption {
	if principal <= 0 {
		return nil
	}
	r := annualRatePercent / 12 / 100
	options := make([]types.EMIOption, 0, len(emiTenures))
	for _, n := range emiTenures {
		factor := math.Pow(1+r, float64(n))
		emi := principal * r * factor / (factor - 1)
		total := emi * float64(n)
		options = append(options, types.EMIOption{
			TenureMonths: n,
			EMI:          round2(emi),
			TotalPayable: round2(total),
			InterestPaid: round2(total - principal),
		})
	}
	return options
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
