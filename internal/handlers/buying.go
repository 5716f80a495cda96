package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"myve/internal/advisory"
	"myve/internal/types"
)

// budgetShare is the slice of monthly disposable income considered safe
// to spend on a single purchase.
const budgetShare = 0.3

// Buying evaluates purchase readiness: credit standing, disposable
// income, the 30% budget rule and consumption-ratio feedback.
type Buying struct {
	deps Deps
	log  *zap.Logger
}

func NewBuying(deps Deps) *Buying {
	return &Buying{deps: deps, log: deps.logger("buying")}
}

func (h *Buying) Name() string { return "buying" }

type purchaseIntent struct {
	Item           string  `json:"item"`
	Category       string  `json:"category"`
	Purpose        string  `json:"purpose"`
	Urgency        string  `json:"urgency"`
	EstimatedPrice float64 `json:"estimated_price"`
}

func (h *Buying) classify(ctx context.Context, prompt string) purchaseIntent {
	raw, err := h.deps.Advisory.Classify(ctx, fmt.Sprintf(
		"Classify this buying query and return a JSON object with keys:\n"+
			"- item (the object being purchased)\n"+
			"- category (bike, surgery, gold, house, etc.)\n"+
			"- purpose (gift, wedding, education)\n"+
			"- urgency (low/medium/high)\n"+
			"- estimated_price (typical market price in INR, number)\n\n"+
			"Query: %s", prompt))
	var intent purchaseIntent
	if err != nil {
		h.log.Warn("purchase classification failed", zap.Error(err))
		return intent
	}
	block := advisory.ExtractJSONBlock(raw)
	if block == "" {
		h.log.Warn("purchase classification returned no JSON")
		return intent
	}
	if err := json.Unmarshal([]byte(block), &intent); err != nil {
		h.log.Warn("purchase classification JSON is malformed", zap.Error(err))
	}
	intent.Item = strings.TrimSpace(intent.Item)
	intent.Category = strings.ToLower(strings.TrimSpace(intent.Category))
	return intent
}

func (h *Buying) Run(ctx context.Context, prompt, userID string, _ []string) (types.HandlerResponse, error) {
	if userID == "" || userID == "unknown" {
		return types.HandlerResponse{
			Response: "We need your account id to access financial data and give buying advice. Please log in again.",
			Meta:     types.HandlerMeta{Agent: "buying", Reason: "missing_user_id"},
		}, nil
	}

	res := h.deps.Snapshots.Derive(ctx, userID)
	if res.Credit.CreditScore == 0 {
		h.log.Warn("credit score unavailable, skipping buying advice", zap.String("user", userID))
		return types.HandlerResponse{
			Response: "We couldn't access your credit score to determine your financial readiness for this purchase. Please link your credit account and try again.",
			Meta:     types.HandlerMeta{Agent: "buying", Reason: "missing_credit_score"},
		}, nil
	}

	disposable := res.Bank.AverageBalance
	if disposable <= 0 {
		disposable = res.Snapshot.Income - res.Snapshot.Expenses
	}
	if disposable <= 0 {
		return types.HandlerResponse{
			Response: "We couldn't determine your disposable income for this purchase. Please link your bank account and try again.",
			Meta:     types.HandlerMeta{Agent: "buying", Reason: "missing_income"},
		}, nil
	}

	intent := h.classify(ctx, prompt)
	if intent.Item == "" && (intent.Category == "" || intent.Category == "unknown" || intent.Category == "other") {
		return types.HandlerResponse{
			Response: "I couldn't determine what you're trying to buy. Could you please rephrase or provide more details?",
			Meta:     types.HandlerMeta{Agent: "buying", Reason: "unclear_intent"},
		}, nil
	}
	if intent.EstimatedPrice <= 0 {
		return types.HandlerResponse{
			Response: "We couldn't estimate a price for this purchase. Please try again with more detail about the product.",
			Meta:     types.HandlerMeta{Agent: "buying", Reason: "missing_price"},
		}, nil
	}

	budget := budgetShare * disposable
	ratio := intent.EstimatedPrice / disposable
	affordUpfront := intent.EstimatedPrice <= budget

	feedback := fmt.Sprintf("This purchase will consume %.2f%% of your monthly disposable income", ratio*100)
	switch {
	case ratio < 0.3:
		feedback += " - well within the safe limit."
	case ratio < 0.5:
		feedback += " - moderately safe, consider budgeting."
	default:
		feedback += " - high impact, ensure a financial buffer."
	}
	affordability := "within budget, can be paid upfront"
	if !affordUpfront {
		affordability = "above the safe budget, may require an EMI"
	}

	item := intent.Item
	if item == "" {
		item = intent.Category
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Financial snapshot:\n- Credit score: %d\n- Monthly disposable income: INR %.0f\n- Current debt: INR %.0f\n\n",
		res.Credit.CreditScore, disposable, res.Snapshot.Debt)
	fmt.Fprintf(&b, "Purchase analysis for %s:\n- Estimated price: INR %.0f\n- Suggested budget (%.0f%% of disposable income): INR %.0f\n- Affordability: %s\n- %s\n",
		item, intent.EstimatedPrice, budgetShare*100, budget, affordability, feedback)
	if res.NetWorth.Total > 0 {
		after := res.NetWorth.Total - intent.EstimatedPrice
		fmt.Fprintf(&b, "\nNet worth impact:\n- Before: INR %.0f\n- After purchase: INR %.0f\n",
			res.NetWorth.Total, after)
	}

	h.log.Info("buying advice prepared",
		zap.String("user", userID),
		zap.String("item", item),
		zap.Float64("price", intent.EstimatedPrice),
		zap.Bool("afford_upfront", affordUpfront))

	return types.HandlerResponse{
		Response: b.String(),
		Meta: types.HandlerMeta{
			Agent: "buying",
			Plan: &types.PurchasePlan{
				Item:             item,
				Category:         intent.Category,
				Price:            intent.EstimatedPrice,
				SuggestedBudget:  round2(budget),
				ConsumptionRatio: round2(ratio),
				AffordUpfront:    affordUpfront,
			},
		},
	}, nil
}
