package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"myve/internal/advisory"
	"myve/internal/types"
)

// interpretAttempts bounds the classification retry loop; delays grow
// 1s, 2s, 4s, 8s.
const interpretAttempts = 4

// fallbackVocabulary drives the keyword heuristic once the advisory
// service is exhausted.
var fallbackVocabulary = []string{"bike", "loan", "trip", "travel", "education", "surgery"}

func classificationPrompt(prompt string) string {
	return fmt.Sprintf(
		"Interpret this financial query and return JSON with:\n"+
			"- intents (list): buy, plan, assess, repay\n"+
			"- item (what is being bought or planned)\n"+
			"- category (bike, gold, education, surgery, etc.)\n"+
			"- urgency (low/medium/high)\n"+
			"- data_keys (list of bank, credit, epf, networth, mf, stock)\n\n"+
			"Respond in valid compact JSON.\n\nUser: %s", prompt)
}

// interpret turns free text into a sanitized goal. The advisory service
// gets a bounded retry budget with exponential backoff; on exhaustion
// the keyword heuristic runs, and a generic planning goal is the final
// default.
func (r *Router) interpret(ctx context.Context, prompt string) types.Goal {
	for attempt := 0; attempt < interpretAttempts; attempt++ {
		raw, err := r.advisory.Classify(ctx, classificationPrompt(prompt))
		if err == nil {
			if goal, ok := parseGoal(raw); ok {
				return goal
			}
			err = fmt.Errorf("classification response carried no usable goal")
		}
		r.log.Warn("goal interpretation attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		r.sleep(time.Duration(1<<attempt) * r.backoffBase)
	}

	if goal, ok := KeywordGoal(prompt); ok {
		r.log.Info("using keyword fallback goal", zap.Strings("intents", goal.Intents))
		return goal
	}
	r.log.Info("using default planning goal")
	return defaultGoal()
}

// parseGoal extracts and sanitizes a goal from a raw classification
// response. A response whose goal survives sanitization with no agents
// is as useless as a malformed one, so it is rejected for retry.
func parseGoal(raw string) (types.Goal, bool) {
	block := advisory.ExtractJSONBlock(raw)
	if block == "" {
		return types.Goal{}, false
	}
	var goal types.Goal
	if err := json.Unmarshal([]byte(block), &goal); err != nil {
		return types.Goal{}, false
	}
	goal = sanitize(goal)
	if len(goal.Agents) == 0 {
		return types.Goal{}, false
	}
	return goal, true
}

// KeywordGoal builds a minimal planning goal from a fixed vocabulary.
// Pure function, independent of the retry loop.
func KeywordGoal(prompt string) (types.Goal, bool) {
	lower := strings.ToLower(prompt)
	for _, keyword := range fallbackVocabulary {
		if strings.Contains(lower, keyword) {
			return types.Goal{
				Intents:  []string{"plan"},
				Agents:   []string{"planning"},
				DataKeys: []string{"bank", "credit"},
				Item:     keyword,
				Category: keyword,
				Urgency:  "medium",
			}, true
		}
	}
	return types.Goal{}, false
}

func defaultGoal() types.Goal {
	return types.Goal{
		Intents:  []string{"plan"},
		Agents:   []string{"planning"},
		DataKeys: []string{"bank", "credit"},
		Urgency:  "medium",
	}
}
