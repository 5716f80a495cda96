package router

import "myve/internal/types"

// The bidirectional intent/agent table consulted by interpretation and
// dispatch. Every name outside these tables is discarded.
var (
	intentToAgent = map[string]string{
		"buy":    "buying",
		"repay":  "repaying",
		"plan":   "planning",
		"assess": "assess",
	}
	agentToIntent = map[string]string{
		"buying":   "buy",
		"repaying": "repay",
		"planning": "plan",
		"assess":   "assess",
	}
	allowedDataKeys = map[string]bool{
		"bank": true, "credit": true, "epf": true,
		"networth": true, "mf": true, "stock": true,
	}
)

// defaultDataKeys is what handlers receive when interpretation names no
// usable keys.
var defaultDataKeys = []string{"bank", "credit", "networth", "epf", "mf", "stock"}

// sanitize restricts a goal to the allow-lists. Agents are derived from
// the intents when any are recognized, so an adversarial agents list
// cannot smuggle extra names past the table; otherwise the provided
// agents are filtered directly.
func sanitize(goal types.Goal) types.Goal {
	var intents []string
	for _, in := range goal.Intents {
		if _, ok := intentToAgent[in]; ok {
			intents = append(intents, in)
		}
	}

	var agents []string
	seen := map[string]bool{}
	add := func(agent string) {
		if !seen[agent] {
			seen[agent] = true
			agents = append(agents, agent)
		}
	}
	if len(intents) > 0 {
		for _, in := range intents {
			add(intentToAgent[in])
		}
	} else {
		for _, a := range goal.Agents {
			if _, ok := agentToIntent[a]; ok {
				add(a)
				intents = append(intents, agentToIntent[a])
			}
		}
	}

	var keys []string
	for _, k := range goal.DataKeys {
		if allowedDataKeys[k] {
			keys = append(keys, k)
		}
	}

	goal.Intents = intents
	goal.Agents = agents
	goal.DataKeys = keys
	return goal
}
