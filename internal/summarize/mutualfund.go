package summarize

import (
	"strings"

	"go.uber.org/zap"
)

// SIP installments in the original product fall in a narrow band; a buy
// inside it counts toward SIPCount.
const (
	sipAmountLow  = 2900
	sipAmountHigh = 5100
)

// MFSummary aggregates mutual-fund holdings for one user.
type MFSummary struct {
	UserID         string             `json:"userId"`
	TotalValue     float64            `json:"totalValue"`
	SummaryByType  map[string]float64 `json:"summaryByType"`
	MonthlyReturns map[string]float64 `json:"monthlyReturns"`
	SIPCount       int                `json:"sipCount"`
}

// MutualFund summarizes raw mutual-fund transactions. Each fund carries
// a txns list of positional rows [orderType, date, nav, units, amount];
// rows with fewer than five fields or unparseable dates are skipped.
// Holdings are valued at the latest NAV seen for the fund.
func (s *Summarizer) MutualFund(userID string, raw any) MFSummary {
	summary := MFSummary{
		UserID:         userID,
		SummaryByType:  map[string]float64{},
		MonthlyReturns: map[string]float64{},
	}

	funds := AsSlice(raw)
	if funds == nil && raw != nil {
		s.log.Warn("mutual fund data is not a list", zap.String("user", userID))
		return summary
	}

	for _, f := range funds {
		fund := AsMap(f)
		if fund == nil {
			continue
		}
		scheme := Str(fund["schemeName"])

		var totalUnits, latestNAV float64
		for _, t := range AsSlice(fund["txns"]) {
			row := AsSlice(t)
			if len(row) < 5 {
				continue
			}
			orderType := int(Num(row[0]))
			date, ok := ParseDate(Str(row[1]))
			if !ok {
				continue
			}
			nav, units, amount := Num(row[2]), Num(row[3]), Num(row[4])

			switch orderType {
			case TxnBuy:
				totalUnits += units
				if amount >= sipAmountLow && amount <= sipAmountHigh {
					summary.SIPCount++
				}
			case TxnSell:
				totalUnits -= units
			case TxnBonus, TxnSplit:
				totalUnits += units
			default:
				continue
			}
			summary.MonthlyReturns[MonthKey(date)] += amount
			if nav > 0 {
				latestNAV = nav
			}
		}

		value := totalUnits * latestNAV
		summary.TotalValue += value
		summary.SummaryByType[schemeType(scheme)] += value
	}
	return summary
}

func schemeType(scheme string) string {
	upper := strings.ToUpper(scheme)
	switch {
	case strings.Contains(upper, "ELSS"):
		return "ELSS"
	case strings.Contains(upper, "DEBT"):
		return "Debt"
	case strings.Contains(upper, "BALANCED"), strings.Contains(upper, "HYBRID"):
		return "Hybrid"
	case strings.Contains(upper, "COMMODITIES"):
		return "Commodities"
	case strings.Contains(upper, "DIGITAL"), strings.Contains(upper, "THEME"):
		return "Thematic"
	default:
		return "Equity"
	}
}
