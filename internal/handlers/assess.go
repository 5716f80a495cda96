package handlers

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"myve/internal/snapshot"
	"myve/internal/types"
)

const assessTemperature = 0.5

// Assess reports overall financial health from the snapshot and the
// per-source summaries.
type Assess struct {
	deps Deps
	log  *zap.Logger
}

func NewAssess(deps Deps) *Assess {
	return &Assess{deps: deps, log: deps.logger("assess")}
}

func (h *Assess) Name() string { return "assess" }

func (h *Assess) Run(ctx context.Context, prompt, userID string, _ []string) (types.HandlerResponse, error) {
	res := h.deps.Snapshots.Derive(ctx, userID)
	profile := h.profile(res)

	text, err := h.deps.Advisory.Complete(ctx, fmt.Sprintf(
		"You are a financial health assessor. Given the profile below, assess the user's "+
			"financial readiness: strengths, weak spots, and two or three concrete next steps. "+
			"Keep it factual and grounded in the numbers.\n\n%s\nUser question: %s",
		profile, prompt), assessTemperature)
	if err != nil {
		h.log.Warn("advisory assessment failed, returning profile directly", zap.Error(err))
		text = "Here is your current financial position:\n\n" + profile
	}

	return types.HandlerResponse{
		Response: text,
		Meta:     types.HandlerMeta{Agent: "assess"},
	}, nil
}

func (h *Assess) profile(res *snapshot.Result) string {
	snap := res.Snapshot
	var b strings.Builder
	fmt.Fprintf(&b, "Income: INR %.0f/month\nExpenses: INR %.0f/month\nSavings: INR %.0f\nDebt: INR %.0f\n",
		snap.Income, snap.Expenses, snap.Savings, snap.Debt)
	fmt.Fprintf(&b, "Net worth: INR %.0f\nInvestment ratio: %.1f%% (%s)\n",
		res.NetWorth.Total, snap.Investment.InvestmentRatio, snap.Investment.InvestmentHealth)
	if res.Credit.CreditScore > 0 {
		fmt.Fprintf(&b, "Credit score: %d (utilization %.1f%%)\n",
			res.Credit.CreditScore, res.Credit.CreditUtilization)
	}
	if res.Bank.ErraticWithdrawals > 0 {
		fmt.Fprintf(&b, "Outlier withdrawals in recent history: %d\n", res.Bank.ErraticWithdrawals)
	}
	if res.MutualFund.SIPCount > 0 {
		fmt.Fprintf(&b, "Active SIP installments observed: %d\n", res.MutualFund.SIPCount)
	}
	return b.String()
}
