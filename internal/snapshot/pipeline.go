// Package snapshot derives the canonical financial Snapshot for a user
// from the six raw sources. Every derivation step is independently
// guarded: a failed fetch becomes an empty default, a bad record is
// skipped, and a zero result falls back through the summary hierarchy,
// so the pipeline always returns a complete Snapshot.
package snapshot

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"myve/internal/fetch"
	"myve/internal/summarize"
	"myve/internal/types"
)

// incomeWindowMonths bounds the income/expense scan to recent history.
const incomeWindowMonths = 3

// Result bundles the Snapshot with the per-source summaries the
// handlers consult for their prompts.
type Result struct {
	Snapshot   types.Snapshot
	Bank       summarize.BankSummary
	Credit     summarize.CreditSummary
	MutualFund summarize.MFSummary
	Stock      summarize.StockSummary
	EPF        summarize.EPFSummary
	NetWorth   summarize.NetWorthSummary
}

// Pipeline derives Snapshots. Safe for concurrent use.
type Pipeline struct {
	fetcher fetch.Fetcher
	sum     *summarize.Summarizer
	log     *zap.Logger
	now     func() time.Time
}

// New returns a Pipeline reading through fetcher.
func New(fetcher fetch.Fetcher, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		fetcher: fetcher,
		sum:     summarize.New(log),
		log:     log.Named("snapshot"),
		now:     time.Now,
	}
}

// Derive recomputes the Snapshot for userID. It never fails: every
// per-source error is logged and replaced by an empty default.
func (p *Pipeline) Derive(ctx context.Context, userID string) *Result {
	bundle := p.fetchAll(ctx, userID)

	res := &Result{
		Bank:       p.sum.Bank(userID, bundle.Bank),
		Credit:     p.sum.Credit(userID, bundle.Credit),
		MutualFund: p.sum.MutualFund(userID, bundle.MutualFund),
		Stock:      p.sum.Stock(userID, bundle.Stock),
		EPF:        p.sum.EPF(userID, bundle.EPF),
		NetWorth:   p.sum.NetWorth(userID, bundle.NetWorth),
	}

	snap := &res.Snapshot
	snap.Income, snap.Expenses = p.deriveIncomeExpenses(bundle.Bank, res.Bank)

	assets := summarize.NetWorthAssets(bundle.NetWorth)
	epfCounted := hasAttribute(assets, summarize.AttrEPFBalance)
	mfCounted := hasAttribute(assets, summarize.AttrMFBalance)
	snap.Savings, snap.Debt = p.deriveSavingsDebt(assets, res, epfCounted, mfCounted)

	snap.Investment = deriveInvestment(res)
	snap.Composition = deriveComposition(res, snap.Savings)
	snap.Assets = dedupedAssetMap(res, snap.Savings, epfCounted, mfCounted)
	snap.MonthlyTrend = monthlyTrend(bundle.MutualFund, bundle.Stock)

	// The headline figures default to 0, never below it.
	snap.Income = math.Max(0, snap.Income)
	snap.Expenses = math.Max(0, snap.Expenses)
	snap.Savings = math.Max(0, snap.Savings)
	snap.Debt = math.Max(0, snap.Debt)

	p.log.Info("snapshot derived",
		zap.String("user", userID),
		zap.Float64("income", snap.Income),
		zap.Float64("expenses", snap.Expenses),
		zap.Float64("savings", snap.Savings),
		zap.Float64("debt", snap.Debt))
	return res
}

// fetchAll issues the six source fetches concurrently. One source
// failing never blocks or fails the others.
func (p *Pipeline) fetchAll(ctx context.Context, userID string) types.Bundle {
	var bundle types.Bundle
	g, ctx := errgroup.WithContext(ctx)

	load := func(source types.Source, dst *any, fn func(context.Context, string) (any, error)) {
		g.Go(func() error {
			doc, err := fn(ctx, userID)
			if err != nil {
				p.log.Warn("source unavailable, using empty default",
					zap.String("user", userID),
					zap.String("source", string(source)),
					zap.Error(err))
				return nil
			}
			*dst = doc
			return nil
		})
	}

	load(types.SourceNetWorth, &bundle.NetWorth, p.fetcher.FetchNetWorth)
	load(types.SourceCredit, &bundle.Credit, p.fetcher.FetchCredit)
	load(types.SourceBank, &bundle.Bank, p.fetcher.FetchBankTransactions)
	load(types.SourceMutualFund, &bundle.MutualFund, p.fetcher.FetchMFTransactions)
	load(types.SourceStock, &bundle.Stock, p.fetcher.FetchStockTransactions)
	load(types.SourceEPF, &bundle.EPF, p.fetcher.FetchEPFDetails)

	_ = g.Wait() // workers only ever return nil
	return bundle
}

// deriveIncomeExpenses sums credits and debits from transactions inside
// the trailing window, falling back to the bank summary aggregates when
// the scan produced nothing.
func (p *Pipeline) deriveIncomeExpenses(rawBank any, bank summarize.BankSummary) (income, expenses float64) {
	cutoff := p.now().AddDate(0, -incomeWindowMonths, 0)
	for _, txn := range summarize.NormalizeBankTxns(rawBank) {
		if !txn.HasDate || txn.Date.Before(cutoff) {
			continue
		}
		switch txn.Kind {
		case summarize.TxnCredit:
			income += txn.Amount
		case summarize.TxnDebit:
			expenses += txn.Amount
		}
	}
	if income == 0 {
		income = bank.TotalCredits
	}
	if expenses == 0 {
		expenses = bank.TotalDebits
	}
	return income, expenses
}

func hasAttribute(assets []summarize.NetWorthAsset, attr string) bool {
	for _, a := range assets {
		if a.Attribute == attr {
			return true
		}
	}
	return false
}

// deriveSavingsDebt scans the tagged net-worth asset list, then adds
// EPF/MF totals only when the list does not already carry them, then
// walks the fallback chain for whichever figure is still zero.
func (p *Pipeline) deriveSavingsDebt(assets []summarize.NetWorthAsset, res *Result, epfCounted, mfCounted bool) (savings, debt float64) {
	for _, a := range assets {
		if strings.Contains(a.Attribute, "SAVINGS") || strings.Contains(a.Attribute, "DEPOSIT") {
			savings += a.Value
		}
		if strings.Contains(a.Attribute, "LIABILITY") || strings.Contains(a.Attribute, "CREDIT_CARD") {
			debt += math.Abs(a.Value)
		}
	}

	if !epfCounted && res.EPF.TotalBalance > 0 {
		savings += res.EPF.TotalBalance
		p.log.Debug("added epf balance to savings", zap.Float64("epf", res.EPF.TotalBalance))
	}
	if !mfCounted && res.MutualFund.TotalValue > 0 {
		savings += res.MutualFund.TotalValue
		p.log.Debug("added mf holdings to savings", zap.Float64("mf", res.MutualFund.TotalValue))
	}

	if savings == 0 {
		savings = res.NetWorth.Total
	}
	if debt == 0 {
		if res.Credit.TotalCurrentBalance > 0 {
			debt += res.Credit.TotalCurrentBalance
		}
		// A negative pension balance is treated as a liability upstream.
		if res.EPF.PensionBalance < 0 {
			debt += math.Abs(res.EPF.PensionBalance)
		}
	}
	return savings, debt
}

func deriveInvestment(res *Result) types.InvestmentSummary {
	inv := types.InvestmentSummary{
		TotalInvestment: res.MutualFund.TotalValue + res.Stock.TotalInvested,
	}
	if res.NetWorth.Total > 0 {
		inv.InvestmentRatio = round2(inv.TotalInvestment / res.NetWorth.Total * 100)
	}
	switch {
	case inv.InvestmentRatio > 40:
		inv.InvestmentHealth = "Strong"
	case inv.InvestmentRatio > 20:
		inv.InvestmentHealth = "Moderate"
	default:
		inv.InvestmentHealth = "Weak"
	}
	return inv
}

func deriveComposition(res *Result, savings float64) types.Composition {
	var comp types.Composition
	total := res.NetWorth.Total
	if total <= 0 {
		return comp
	}
	comp.StocksPercent = round2(res.Stock.TotalInvested / total * 100)
	comp.MFPercent = round2(res.MutualFund.TotalValue / total * 100)
	comp.EPFPercent = round2(res.EPF.TotalBalance / total * 100)
	comp.CashPercent = round2(savings / total * 100)
	return comp
}

// dedupedAssetMap records each asset class exactly once: MF and EPF
// totals are included only when the net-worth asset list has no
// MF_BALANCE/EPF_BALANCE entry of its own, and cash savings subtracts
// whatever was added on top of the tagged list.
func dedupedAssetMap(res *Result, savings float64, epfCounted, mfCounted bool) map[string]float64 {
	assets := map[string]float64{
		types.AssetStocks:           round2(res.Stock.TotalInvested),
		types.AssetNetWorthReported: round2(res.NetWorth.Total),
	}
	cash := savings
	if !mfCounted {
		assets[types.AssetMutualFunds] = round2(res.MutualFund.TotalValue)
		cash -= res.MutualFund.TotalValue
	}
	if !epfCounted {
		assets[types.AssetEPF] = round2(res.EPF.TotalBalance)
		cash -= res.EPF.TotalBalance
	}
	assets[types.AssetCashSavings] = round2(cash)
	return assets
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
