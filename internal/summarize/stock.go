package summarize

import "go.uber.org/zap"

// Holding is the running position in one instrument.
type Holding struct {
	Quantity float64 `json:"quantity"`
	Value    float64 `json:"value"`
}

// StockSummary aggregates equity transactions for one user.
type StockSummary struct {
	UserID        string             `json:"userId"`
	TotalInvested float64            `json:"totalInvested"`
	TotalRealized float64            `json:"totalRealized"`
	CapitalGains  float64            `json:"capitalGains"`
	Holdings      map[string]Holding `json:"currentHoldings"`
	MonthlyTrend  map[string]float64 `json:"monthlyTrend"`
}

// Stock summarizes raw stock transactions. Each instrument carries a
// txns list of positional rows [typeCode, date, quantity, price]; rows
// with fewer than three fields or bad dates are skipped, and bonus/split
// rows adjust quantity without touching invested value.
func (s *Summarizer) Stock(userID string, raw any) StockSummary {
	summary := StockSummary{
		UserID:       userID,
		Holdings:     map[string]Holding{},
		MonthlyTrend: map[string]float64{},
	}

	stocks := AsSlice(raw)
	if stocks == nil && raw != nil {
		// Some providers key instruments by id instead of listing them.
		if m := AsMap(raw); m != nil {
			for _, v := range m {
				stocks = append(stocks, v)
			}
		} else {
			s.log.Warn("stock data has no usable shape", zap.String("user", userID))
			return summary
		}
	}

	for _, st := range stocks {
		stock := AsMap(st)
		if stock == nil {
			continue
		}
		isin := Str(stock["isin"])
		if isin == "" {
			isin = "UNKNOWN"
		}
		for _, t := range AsSlice(stock["txns"]) {
			row := AsSlice(t)
			if len(row) < 3 {
				continue
			}
			txnType := int(Num(row[0]))
			date, ok := ParseDate(Str(row[1]))
			if !ok {
				s.log.Debug("skipping stock txn with bad date",
					zap.String("user", userID), zap.String("isin", isin))
				continue
			}
			quantity := Num(row[2])
			var price float64
			hasPrice := len(row) > 3
			if hasPrice {
				price = Num(row[3])
			}

			holding := summary.Holdings[isin]
			switch txnType {
			case TxnBuy:
				if hasPrice {
					amount := quantity * price
					summary.TotalInvested += amount
					holding.Quantity += quantity
					holding.Value += amount
					summary.MonthlyTrend[MonthKey(date)] += amount
				}
			case TxnSell:
				if hasPrice {
					proceeds := quantity * price
					summary.TotalRealized += proceeds
					summary.CapitalGains += proceeds
					holding.Quantity -= quantity
					holding.Value -= proceeds
					summary.MonthlyTrend[MonthKey(date)] += proceeds
				}
			case TxnBonus, TxnSplit:
				holding.Quantity += quantity
			default:
				continue
			}
			summary.Holdings[isin] = holding
		}
	}
	return summary
}
