// Package types defines the shared data model for the myve advisory core:
// the raw per-user source bundle, per-source summaries, the derived
// Snapshot, and the goal/response contracts between the router and its
// handlers.
package types

// Source identifies one of the six raw financial data sources.
type Source string

const (
	SourceNetWorth   Source = "networth"
	SourceCredit     Source = "credit"
	SourceBank       Source = "bank"
	SourceMutualFund Source = "mf"
	SourceStock      Source = "stock"
	SourceEPF        Source = "epf"
)

// AllSources lists every source in canonical order.
var AllSources = []Source{
	SourceBank, SourceCredit, SourceEPF, SourceNetWorth, SourceMutualFund, SourceStock,
}

// Bundle holds the unprocessed records for one user. Each field carries
// whatever shape the provider returned (object, list, string, nil); the
// summarizers normalize defensively and treat anything unusable as "no
// data".
type Bundle struct {
	NetWorth   any
	Credit     any
	Bank       any
	MutualFund any
	Stock      any
	EPF        any
}

// MonthValue is one point of a month-keyed series ("2025-07" style keys).
type MonthValue struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

// InvestmentSummary captures how much of the user's wealth is invested.
type InvestmentSummary struct {
	TotalInvestment  float64 `json:"totalInvestment"`
	InvestmentRatio  float64 `json:"investmentRatio"`
	InvestmentHealth string  `json:"investmentHealth"`
}

// Composition expresses each asset class as a percentage of net worth.
type Composition struct {
	StocksPercent float64 `json:"stocksPercent"`
	MFPercent     float64 `json:"mfPercent"`
	EPFPercent    float64 `json:"epfPercent"`
	CashPercent   float64 `json:"cashPercent"`
}

// Asset map keys. MUTUAL_FUNDS and EPF are present only when the
// net-worth asset list does not already carry an MF_BALANCE/EPF_BALANCE
// entry, so no value is ever counted twice.
const (
	AssetStocks           = "STOCKS"
	AssetMutualFunds      = "MUTUAL_FUNDS"
	AssetEPF              = "EPF"
	AssetNetWorthReported = "NETWORTH_REPORTED"
	AssetCashSavings      = "CASH_SAVINGS"
)

// Snapshot is the canonical derived record for a user at request time.
// It is recomputed fully on every request and never cached.
type Snapshot struct {
	Income       float64            `json:"income"`
	Expenses     float64            `json:"expenses"`
	Savings      float64            `json:"savings"`
	Debt         float64            `json:"debt"`
	Investment   InvestmentSummary  `json:"investmentSummary"`
	Composition  Composition        `json:"netWorthComposition"`
	Assets       map[string]float64 `json:"dedupedAssetMap"`
	MonthlyTrend []MonthValue       `json:"monthlyTrend"`
}

// Goal is the structured interpretation of a free-text request. Agents
// and DataKeys are always restricted to the router's allow-lists after
// interpretation, whatever the advisory service returned.
type Goal struct {
	Intents  []string `json:"intents"`
	Agents   []string `json:"agents"`
	DataKeys []string `json:"data_keys"`
	Item     string   `json:"item,omitempty"`
	Category string   `json:"category,omitempty"`
	Urgency  string   `json:"urgency,omitempty"`
}

// GoalMetadata is one machine-readable goal extracted by the planning
// handler; the chaining step consults Amount and TimelineMonths.
type GoalMetadata struct {
	GoalType       string  `json:"goal_type,omitempty"`
	Amount         float64 `json:"amount"`
	TimelineMonths int     `json:"timeline_months"`
}

// EMIOption is one amortization choice in a plan.
type EMIOption struct {
	TenureMonths int     `json:"tenure_months"`
	EMI          float64 `json:"emi"`
	TotalPayable float64 `json:"total_payable"`
	InterestPaid float64 `json:"interest_paid"`
}

// PurchasePlan is the buying handler's machine-readable verdict. Its
// presence on a buying result is the trigger for chained planning.
type PurchasePlan struct {
	Item             string  `json:"item"`
	Category         string  `json:"category,omitempty"`
	Price            float64 `json:"price"`
	SuggestedBudget  float64 `json:"suggested_budget"`
	ConsumptionRatio float64 `json:"consumption_ratio"`
	AffordUpfront    bool    `json:"afford_upfront"`
}

// HandlerMeta carries the structured portion of a handler response.
type HandlerMeta struct {
	Agent      string         `json:"agent"`
	Reason     string         `json:"reason,omitempty"`
	Plan       *PurchasePlan  `json:"plan,omitempty"`
	Goals      []GoalMetadata `json:"goal,omitempty"`
	EMIOptions []EMIOption    `json:"emi_options,omitempty"`
	Failed     bool           `json:"failed,omitempty"`
}

// HandlerResponse is what each advisory handler returns.
type HandlerResponse struct {
	Response string      `json:"response"`
	Meta     HandlerMeta `json:"metadata"`
}

// Reply is the router's answer to one user request.
type Reply struct {
	Response  string   `json:"response"`
	Intents   []string `json:"intents"`
	Agents    []string `json:"agents"`
	DataKeys  []string `json:"data_keys"`
	Item      string   `json:"item,omitempty"`
	Category  string   `json:"category,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
	Cached    bool     `json:"cached,omitempty"`
}
