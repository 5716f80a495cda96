package handlers

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"myve/internal/types"
)

const planningTemperature = 0.7

var (
	goalTypeRe = regexp.MustCompile(`(?i)(wedding|car|bike|trip|home|appliances|apartment|vacation|retirement|investment|stocks|mutual fund)`)
	amountRe   = regexp.MustCompile(`(?:₹|INR|Rs\.?)?\s?(\d+(?:,\d{3})*(?:\.\d+)?)\s*(lakh|lakhs|l\b|k\b)?`)
	monthsRe   = regexp.MustCompile(`(?i)(\d+)\s*months?`)
	yearsRe    = regexp.MustCompile(`(?i)(\d+)\s*years?`)
)

// ExtractGoals parses the machine-readable goals out of a free-text
// planning request: one goal per recognized goal word, with the nearest
// amount and timeline attached. Pure function; the chaining step
// consults its output. Yields a single generic goal when nothing
// matches.
func ExtractGoals(prompt string) []types.GoalMetadata {
	var goals []types.GoalMetadata
	for _, m := range goalTypeRe.FindAllString(prompt, -1) {
		goals = append(goals, types.GoalMetadata{
			GoalType:       strings.ToLower(m),
			Amount:         extractAmount(prompt),
			TimelineMonths: extractTimeline(prompt),
		})
	}
	if len(goals) == 0 {
		goals = append(goals, types.GoalMetadata{
			GoalType:       "general",
			Amount:         extractAmount(prompt),
			TimelineMonths: extractTimeline(prompt),
		})
	}
	return goals
}

// extractAmount returns the largest monetary figure in the prompt.
// Timeline figures ("12 months") would otherwise win for short prompts,
// so values already claimed by a timeline expression are skipped.
func extractAmount(prompt string) float64 {
	claimed := map[string]bool{}
	for _, m := range monthsRe.FindAllStringSubmatch(prompt, -1) {
		claimed[m[1]] = true
	}
	for _, m := range yearsRe.FindAllStringSubmatch(prompt, -1) {
		claimed[m[1]] = true
	}

	var best float64
	for _, m := range amountRe.FindAllStringSubmatch(prompt, -1) {
		digits := strings.ReplaceAll(m[1], ",", "")
		if claimed[digits] {
			continue
		}
		v, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(m[2])) {
		case "lakh", "lakhs", "l":
			v *= 100000
		case "k":
			v *= 1000
		}
		if v > best {
			best = v
		}
	}
	return best
}

// extractTimeline returns the requested horizon in months, defaulting
// to 12 when the prompt names none.
func extractTimeline(prompt string) int {
	if m := monthsRe.FindStringSubmatch(prompt); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	if m := yearsRe.FindStringSubmatch(prompt); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n * 12
		}
	}
	return 12
}

// Planning builds goal roadmaps: extracted goal metadata, EMI options
// for the largest goal, and an advisory narrative.
type Planning struct {
	deps Deps
	log  *zap.Logger
}

func NewPlanning(deps Deps) *Planning {
	return &Planning{deps: deps, log: deps.logger("planning")}
}

func (h *Planning) Name() string { return "planning" }

func (h *Planning) Run(ctx context.Context, prompt, userID string, _ []string) (types.HandlerResponse, error) {
	res := h.deps.Snapshots.Derive(ctx, userID)
	snap := res.Snapshot

	goals := ExtractGoals(prompt)
	var principal float64
	for _, g := range goals {
		if g.Amount > principal {
			principal = g.Amount
		}
	}
	options := emiOptions(principal)

	var b strings.Builder
	b.WriteString("You are a strategic financial planning assistant.\n\n")
	b.WriteString("User has described one or more financial goals. Based on their financial profile, respond with a structured strategy including:\n")
	b.WriteString("1. Goal Summary & Timeline\n2. Investment or Savings Readiness\n3. Monthly Affordability & Debt Impact\n4. Roadmap or EMI Breakdown (if applicable)\n5. Risk Factors\n6. Personalized Recommendations\n\n")
	fmt.Fprintf(&b, "Financial profile: income INR %.0f/month, expenses INR %.0f/month, savings INR %.0f, debt INR %.0f, investment health %s.\n\n",
		snap.Income, snap.Expenses, snap.Savings, snap.Debt, snap.Investment.InvestmentHealth)
	b.WriteString("User's financial goals:\n")
	for _, g := range goals {
		fmt.Fprintf(&b, "- Goal: %s, Amount: INR %.0f, Timeline: %d months\n", g.GoalType, g.Amount, g.TimelineMonths)
	}
	if len(options) > 0 {
		b.WriteString("\nEMI simulations at 10.5% annual interest:\n")
		for _, o := range options {
			fmt.Fprintf(&b, "- %d months: INR %.0f/month (total interest INR %.0f)\n", o.TenureMonths, o.EMI, o.InterestPaid)
		}
	}
	b.WriteString("\n" + strings.TrimSpace(prompt))

	text, err := h.deps.Advisory.Complete(ctx, b.String(), planningTemperature)
	if err != nil {
		h.log.Warn("advisory planning narrative failed, using local plan", zap.Error(err))
		text = h.localPlan(goals, options, snap)
	}

	return types.HandlerResponse{
		Response: text,
		Meta: types.HandlerMeta{
			Agent:      "planning",
			Goals:      goals,
			EMIOptions: options,
		},
	}, nil
}

// localPlan is the deterministic fallback when the advisory service is
// unavailable.
func (h *Planning) localPlan(goals []types.GoalMetadata, options []types.EMIOption, snap types.Snapshot) string {
	surplus := snap.Income - snap.Expenses
	var b strings.Builder
	b.WriteString("Here is a baseline plan built from your financial profile:\n")
	for _, g := range goals {
		if g.Amount > 0 && g.TimelineMonths > 0 {
			fmt.Fprintf(&b, "- %s: save INR %.0f per month to reach INR %.0f in %d months.\n",
				g.GoalType, g.Amount/float64(g.TimelineMonths), g.Amount, g.TimelineMonths)
		} else {
			fmt.Fprintf(&b, "- %s: set a target amount and timeline so a savings schedule can be built.\n", g.GoalType)
		}
	}
	if surplus > 0 {
		fmt.Fprintf(&b, "- Your current monthly surplus is INR %.0f; keep planned commitments below it.\n", surplus)
	}
	for _, o := range options {
		fmt.Fprintf(&b, "- EMI option: %d months at INR %.0f per month.\n", o.TenureMonths, o.EMI)
	}
	return b.String()
}
