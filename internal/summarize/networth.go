package summarize

import (
	"strings"

	"go.uber.org/zap"
)

// Net-worth attribute tags consulted by the snapshot dedup logic.
const (
	AttrEPFBalance   = "EPF_BALANCE"
	AttrMFBalance    = "MF_BALANCE"
	AttrStockBalance = "STOCK_BALANCE"
)

// NetWorthSummary aggregates the reported net-worth record.
type NetWorthSummary struct {
	UserID                string             `json:"userId"`
	Total                 float64            `json:"totalNetWorth"`
	AssetBreakdown        map[string]float64 `json:"assetBreakdown"`
	LiabilityBreakdown    map[string]float64 `json:"liabilityBreakdown"`
	AssetToLiabilityRatio float64            `json:"assetToLiabilityRatio"`
}

// NetWorthAsset is one normalized entry of the tagged asset list.
type NetWorthAsset struct {
	Attribute string
	Value     float64
}

// NetWorthAssets normalizes the tagged asset list out of a raw
// net-worth record: entries of netWorthResponse.assetValues with the
// attribute uppercased and the value coerced. Malformed entries yield
// an UNKNOWN_ASSET tag or a zero value rather than being dropped, so
// membership checks still see them.
func NetWorthAssets(raw any) []NetWorthAsset {
	var out []NetWorthAsset
	for _, item := range AsSlice(Dig(raw, "netWorthResponse", "assetValues")) {
		entry := AsMap(item)
		if entry == nil {
			continue
		}
		attr := strings.ToUpper(Str(entry["netWorthAttribute"]))
		if attr == "" {
			attr = "UNKNOWN_ASSET"
		}
		out = append(out, NetWorthAsset{
			Attribute: attr,
			Value:     Num(Dig(entry["value"], "units")),
		})
	}
	return out
}

// NetWorth summarizes a raw net-worth record. The full
// netWorthResponse shape is preferred; a bare {netWorth:{units}} object
// is accepted as a degraded fallback.
func (s *Summarizer) NetWorth(userID string, raw any) NetWorthSummary {
	summary := NetWorthSummary{
		UserID:             userID,
		AssetBreakdown:     map[string]float64{},
		LiabilityBreakdown: map[string]float64{},
	}

	doc := AsMap(raw)
	if doc == nil {
		if raw != nil {
			s.log.Warn("net worth data has no usable shape", zap.String("user", userID))
		}
		return summary
	}

	response := AsMap(doc["netWorthResponse"])
	if response == nil {
		// Degraded shape: only the headline number is present.
		if direct := AsMap(doc["netWorth"]); direct != nil {
			summary.Total = Num(direct["units"])
			summary.AssetBreakdown["TOTAL"] = summary.Total
		}
		return summary
	}

	summary.Total = Num(Dig(response, "totalNetWorthValue", "units"))
	for _, asset := range NetWorthAssets(raw) {
		if strings.Contains(asset.Attribute, "LIABILITY") {
			summary.LiabilityBreakdown[asset.Attribute] = asset.Value
		} else {
			summary.AssetBreakdown[asset.Attribute] = asset.Value
		}
	}

	var assetTotal, liabilityTotal float64
	for _, v := range summary.AssetBreakdown {
		assetTotal += v
	}
	for _, v := range summary.LiabilityBreakdown {
		liabilityTotal += v
	}
	if liabilityTotal != 0 {
		summary.AssetToLiabilityRatio = assetTotal / abs(liabilityTotal)
	}
	return summary
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
