package snapshot

import (
	"sort"

	"myve/internal/summarize"
	"myve/internal/types"
)

// trendMonths caps the monthly trend at the most recent months.
const trendMonths = 6

// monthlyTrend merges mutual-fund and stock transactions into one
// per-month traded-value series, most recent first. Both row shapes
// carry [type, date, a, b] where a×b is the traded value (nav×units
// for funds, quantity×price for stocks). Rows without a parsable date
// or a full price pair are skipped.
func monthlyTrend(rawMF, rawStock any) []types.MonthValue {
	byMonth := map[string]float64{}
	accumulate(byMonth, rawMF)
	accumulate(byMonth, rawStock)
	if len(byMonth) == 0 {
		return nil
	}

	out := make([]types.MonthValue, 0, len(byMonth))
	for month, value := range byMonth {
		out = append(out, types.MonthValue{Month: month, Value: round2(value)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	if len(out) > trendMonths {
		out = out[:trendMonths]
	}
	return out
}

// accumulate walks a list of funds/instruments, each holding a txns
// list, but also tolerates bare rows at the top level.
func accumulate(byMonth map[string]float64, raw any) {
	for _, item := range summarize.AsSlice(raw) {
		if holder := summarize.AsMap(item); holder != nil {
			for _, t := range summarize.AsSlice(holder["txns"]) {
				addRow(byMonth, t)
			}
			continue
		}
		addRow(byMonth, item)
	}
}

func addRow(byMonth map[string]float64, t any) {
	row := summarize.AsSlice(t)
	if len(row) < 4 {
		return
	}
	date, ok := summarize.ParseDate(summarize.Str(row[1]))
	if !ok {
		return
	}
	byMonth[summarize.MonthKey(date)] += summarize.Num(row[2]) * summarize.Num(row[3])
}
