package handlers

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"myve/internal/types"
)

const repayTemperature = 0.5

// Repaying suggests repayment strategies for outstanding debt: payoff
// horizon from the monthly surplus, prepayment guidance and an advisory
// narrative.
type Repaying struct {
	deps Deps
	log  *zap.Logger
}

func NewRepaying(deps Deps) *Repaying {
	return &Repaying{deps: deps, log: deps.logger("repaying")}
}

func (h *Repaying) Name() string { return "repaying" }

func (h *Repaying) Run(ctx context.Context, prompt, userID string, _ []string) (types.HandlerResponse, error) {
	res := h.deps.Snapshots.Derive(ctx, userID)
	snap := res.Snapshot

	debt := snap.Debt
	if res.Credit.TotalCurrentBalance > debt {
		debt = res.Credit.TotalCurrentBalance
	}
	if debt <= 0 {
		return types.HandlerResponse{
			Response: "No outstanding debt was found on your accounts, so there is nothing to plan a repayment for.",
			Meta:     types.HandlerMeta{Agent: "repaying", Reason: "no_debt"},
		}, nil
	}

	surplus := snap.Income - snap.Expenses
	var horizon string
	if surplus > 0 {
		months := int(math.Ceil(debt / surplus))
		horizon = fmt.Sprintf("Putting your full monthly surplus of INR %.0f toward it clears the debt in about %d month(s).", surplus, months)
	} else {
		horizon = "Your expenses currently meet or exceed your income, so a repayment schedule needs spending cuts first."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Outstanding debt: INR %.0f\n", debt)
	if res.Credit.AvgOverdueAmount > 0 {
		fmt.Fprintf(&b, "Average overdue amount: INR %.0f - clear overdue accounts first, they hurt your score the most.\n",
			res.Credit.AvgOverdueAmount)
	}
	if res.Credit.HighUtilization {
		fmt.Fprintf(&b, "Credit utilization is %.1f%%, above the healthy band; prioritize card balances.\n",
			res.Credit.CreditUtilization)
	}
	b.WriteString(horizon + "\n")
	b.WriteString("When several loans are open, pay the highest-interest one first (avalanche) to minimize total interest.\n")
	overview := b.String()

	text, err := h.deps.Advisory.Complete(ctx, fmt.Sprintf(
		"You are a debt repayment advisor. Using the figures below, lay out a concrete "+
			"repayment strategy: priority order, a monthly amount, and any prepayment advice.\n\n%s\nUser question: %s",
		overview, prompt), repayTemperature)
	if err != nil {
		h.log.Warn("advisory repayment narrative failed, using local strategy", zap.Error(err))
		text = overview
	}

	return types.HandlerResponse{
		Response: text,
		Meta:     types.HandlerMeta{Agent: "repaying"},
	}, nil
}
