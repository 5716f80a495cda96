package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myve/internal/cache"
	"myve/internal/handlers"
	"myve/internal/types"
)

type scriptedAdvisory struct {
	mu            sync.Mutex
	classifyResp  string
	classifyErr   error
	completeResp  string
	completeErr   error
	classifyCalls int
	completeCalls int
}

func (f *scriptedAdvisory) Classify(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.classifyCalls++
	return f.classifyResp, f.classifyErr
}

func (f *scriptedAdvisory) Complete(context.Context, string, float32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completeCalls++
	return f.completeResp, f.completeErr
}

func (f *scriptedAdvisory) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.classifyCalls, f.completeCalls
}

// fakeHandler records invocations and replays a scripted response.
type fakeHandler struct {
	mu      sync.Mutex
	name    string
	resp    types.HandlerResponse
	err     error
	panics  bool
	prompts []string
}

func (f *fakeHandler) Name() string { return f.name }

func (f *fakeHandler) Run(_ context.Context, prompt, _ string, _ []string) (types.HandlerResponse, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.panics {
		panic("scripted panic")
	}
	return f.resp, f.err
}

func (f *fakeHandler) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func textResponse(agent, text string) types.HandlerResponse {
	return types.HandlerResponse{Response: text, Meta: types.HandlerMeta{Agent: agent}}
}

func newTestRouter(adv *scriptedAdvisory, set map[string]handlers.Handler) (*Router, *[]time.Duration) {
	r := New(adv, set, cache.New(time.Minute, 16, nil), nil, nil)
	slept := &[]time.Duration{}
	r.sleep = func(d time.Duration) { *slept = append(*slept, d) }
	return r, slept
}

func TestAllowListFiltersAdversarialSchema(t *testing.T) {
	adv := &scriptedAdvisory{
		classifyResp: `{"intents": ["buy", "exfiltrate"], "agents": ["shell_agent", "buying"],
			"data_keys": ["bank", "passwords", "credit"], "item": "bike"}`,
		completeResp: "summary",
	}
	buying := &fakeHandler{name: "buying", resp: textResponse("buying", "buy advice")}
	shell := &fakeHandler{name: "shell_agent", resp: textResponse("shell_agent", "pwned")}
	r, _ := newTestRouter(adv, map[string]handlers.Handler{"buying": buying, "shell_agent": shell})

	reply := r.HandleRequest(context.Background(), "can i buy a bike?", "u1")

	assert.Equal(t, []string{"buying"}, reply.Agents)
	assert.Equal(t, []string{"buy"}, reply.Intents)
	assert.ElementsMatch(t, []string{"bank", "credit"}, reply.DataKeys)
	assert.Equal(t, 1, buying.calls())
	assert.Zero(t, shell.calls())
}

func TestChainingBuyToPlanToRepay(t *testing.T) {
	adv := &scriptedAdvisory{
		classifyResp: `{"intents": ["buy"], "data_keys": ["bank", "credit"], "item": "bike"}`,
		completeResp: "summary",
	}
	buying := &fakeHandler{name: "buying", resp: types.HandlerResponse{
		Response: "buy advice",
		Meta: types.HandlerMeta{
			Agent: "buying",
			Plan:  &types.PurchasePlan{Item: "bike", Price: 600000},
		},
	}}
	planning := &fakeHandler{name: "planning", resp: types.HandlerResponse{
		Response: "plan advice",
		Meta: types.HandlerMeta{
			Agent: "planning",
			Goals: []types.GoalMetadata{{GoalType: "bike", Amount: 600000, TimelineMonths: 12}},
		},
	}}
	repaying := &fakeHandler{name: "repaying", resp: textResponse("repaying", "repay advice")}
	r, _ := newTestRouter(adv, map[string]handlers.Handler{
		"buying": buying, "planning": planning, "repaying": repaying,
	})

	reply := r.HandleRequest(context.Background(), "should i buy a bike worth 6 lakh?", "u1")

	assert.Equal(t, []string{"buying", "planning", "repaying"}, reply.Agents)
	require.Equal(t, 1, planning.calls())
	assert.Contains(t, planning.prompts[0], "post-purchase financial plan")
	assert.Contains(t, planning.prompts[0], "600000")
	require.Equal(t, 1, repaying.calls())
	assert.Contains(t, repaying.prompts[0], "repayment options")
}

func TestChainingNotTriggeredForShortTimeline(t *testing.T) {
	adv := &scriptedAdvisory{
		classifyResp: `{"intents": ["plan"], "data_keys": ["bank"]}`,
		completeResp: "summary",
	}
	planning := &fakeHandler{name: "planning", resp: types.HandlerResponse{
		Response: "plan advice",
		Meta: types.HandlerMeta{
			Agent: "planning",
			Goals: []types.GoalMetadata{{Amount: 50000, TimelineMonths: 6}},
		},
	}}
	repaying := &fakeHandler{name: "repaying", resp: textResponse("repaying", "repay advice")}
	r, _ := newTestRouter(adv, map[string]handlers.Handler{"planning": planning, "repaying": repaying})

	reply := r.HandleRequest(context.Background(), "plan a trip", "u1")
	assert.Equal(t, []string{"planning"}, reply.Agents)
	assert.Zero(t, repaying.calls())
}

func TestCacheHitClassifiesOnce(t *testing.T) {
	adv := &scriptedAdvisory{
		classifyResp: `{"intents": ["assess"]}`,
		completeResp: "summary",
	}
	assess := &fakeHandler{name: "assess", resp: textResponse("assess", "all good")}
	r, _ := newTestRouter(adv, map[string]handlers.Handler{"assess": assess})

	first := r.HandleRequest(context.Background(), "How am I doing?", "u1")
	second := r.HandleRequest(context.Background(), "  how am i DOING?  ", "u1")

	classifies, _ := adv.calls()
	assert.Equal(t, 1, classifies)
	assert.Equal(t, 1, assess.calls())
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Response, second.Response)
	assert.NotEqual(t, first.RequestID, second.RequestID)
}

func TestScreenQueriesSkipCache(t *testing.T) {
	adv := &scriptedAdvisory{
		classifyResp: `{"intents": ["assess"]}`,
		completeResp: "summary",
	}
	assess := &fakeHandler{name: "assess", resp: textResponse("assess", "all good")}
	r, _ := newTestRouter(adv, map[string]handlers.Handler{"assess": assess})

	r.HandleRequest(context.Background(), ScreenQueryPrefix+"what is on my screen worth buying?", "u1")
	reply := r.HandleRequest(context.Background(), ScreenQueryPrefix+"what is on my screen worth buying?", "u1")

	assert.False(t, reply.Cached)
	classifies, _ := adv.calls()
	assert.Equal(t, 2, classifies)
}

func TestInterpretRetriesWithBackoffThenKeywordFallback(t *testing.T) {
	adv := &scriptedAdvisory{
		classifyErr:  errors.New("upstream 502"),
		completeResp: "summary",
	}
	planning := &fakeHandler{name: "planning", resp: textResponse("planning", "plan advice")}
	r, slept := newTestRouter(adv, map[string]handlers.Handler{"planning": planning})

	reply := r.HandleRequest(context.Background(), "I want to plan a trip", "u1")

	classifies, _ := adv.calls()
	assert.Equal(t, 4, classifies)
	assert.Equal(t,
		[]time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second},
		*slept)
	assert.Equal(t, []string{"planning"}, reply.Agents)
	assert.Equal(t, "trip", reply.Item)
	assert.Equal(t, 1, planning.calls())
}

func TestInterpretRetriesOnUnusableJSON(t *testing.T) {
	adv := &scriptedAdvisory{
		classifyResp: "I am sorry, I cannot classify that.",
		completeResp: "summary",
	}
	planning := &fakeHandler{name: "planning", resp: textResponse("planning", "plan advice")}
	r, _ := newTestRouter(adv, map[string]handlers.Handler{"planning": planning})

	reply := r.HandleRequest(context.Background(), "something vague", "u1")

	classifies, _ := adv.calls()
	assert.Equal(t, 4, classifies)
	// No vocabulary keyword either, so the generic planning goal runs.
	assert.Equal(t, []string{"planning"}, reply.Agents)
	assert.ElementsMatch(t, []string{"bank", "credit"}, reply.DataKeys)
}

func TestHandlerFailureBecomesStub(t *testing.T) {
	adv := &scriptedAdvisory{
		classifyResp: `{"intents": ["buy", "assess"]}`,
		completeErr:  errors.New("summarizer down"),
	}
	buying := &fakeHandler{name: "buying", err: errors.New("boom")}
	assess := &fakeHandler{name: "assess", resp: textResponse("assess", "all good")}
	r, _ := newTestRouter(adv, map[string]handlers.Handler{"buying": buying, "assess": assess})

	reply := r.HandleRequest(context.Background(), "buy and assess", "u1")

	// Local curation labels both sections, with an apology for buying.
	assert.Contains(t, reply.Response, "Buying Insight")
	assert.Contains(t, reply.Response, "purchase analysis")
	assert.Contains(t, reply.Response, "Assessment Insight")
	assert.Contains(t, reply.Response, "all good")
}

func TestHandlerPanicIsContained(t *testing.T) {
	adv := &scriptedAdvisory{
		classifyResp: `{"intents": ["buy", "assess"]}`,
		completeResp: "summary",
	}
	buying := &fakeHandler{name: "buying", panics: true}
	assess := &fakeHandler{name: "assess", resp: textResponse("assess", "all good")}
	r, _ := newTestRouter(adv, map[string]handlers.Handler{"buying": buying, "assess": assess})

	reply := r.HandleRequest(context.Background(), "buy and assess", "u1")
	assert.NotEqual(t, panicResponse, reply.Response)
	assert.ElementsMatch(t, []string{"buying", "assess"}, reply.Agents)
}

func TestAllHandlersFailedYieldsFixedMessage(t *testing.T) {
	adv := &scriptedAdvisory{
		classifyResp: `{"intents": ["assess"]}`,
		completeResp: "summary",
	}
	assess := &fakeHandler{name: "assess", err: errors.New("boom")}
	r, _ := newTestRouter(adv, map[string]handlers.Handler{"assess": assess})

	reply := r.HandleRequest(context.Background(), "how am I doing?", "u1")
	assert.Equal(t, noAdviceResponse, reply.Response)

	// Soft failures are not cached; a retry reruns the machine.
	r.HandleRequest(context.Background(), "how am I doing?", "u1")
	assert.Equal(t, 2, assess.calls())
}

func TestSummarizeOrderFollowsAgentList(t *testing.T) {
	adv := &scriptedAdvisory{
		classifyResp: `{"intents": ["assess", "plan"]}`,
		completeErr:  errors.New("summarizer down"),
	}
	planning := &fakeHandler{name: "planning", resp: textResponse("planning", "PLAN-TEXT")}
	assess := &fakeHandler{name: "assess", resp: textResponse("assess", "ASSESS-TEXT")}
	r, _ := newTestRouter(adv, map[string]handlers.Handler{"planning": planning, "assess": assess})

	reply := r.HandleRequest(context.Background(), "assess then plan", "u1")

	// Intent order was assess, plan; the curated sections must follow it.
	assessIdx := indexOf(t, reply.Response, "ASSESS-TEXT")
	planIdx := indexOf(t, reply.Response, "PLAN-TEXT")
	assert.Less(t, assessIdx, planIdx)
	assert.Equal(t, []string{"assess", "planning"}, reply.Agents)
}

func indexOf(t *testing.T, haystack, needle string) int {
	t.Helper()
	idx := -1
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			idx = i
			break
		}
	}
	require.GreaterOrEqual(t, idx, 0, fmt.Sprintf("%q not found in response", needle))
	return idx
}

func TestKeywordGoalVocabulary(t *testing.T) {
	goal, ok := KeywordGoal("I need a loan for my education")
	require.True(t, ok)
	assert.Equal(t, []string{"plan"}, goal.Intents)
	assert.Equal(t, []string{"planning"}, goal.Agents)

	_, ok = KeywordGoal("tell me a joke")
	assert.False(t, ok)
}

func TestSanitize(t *testing.T) {
	goal := sanitize(types.Goal{
		Intents:  []string{"buy", "format_disk"},
		Agents:   []string{"root_agent"},
		DataKeys: []string{"bank", "ssh_keys"},
	})
	assert.Equal(t, []string{"buy"}, goal.Intents)
	assert.Equal(t, []string{"buying"}, goal.Agents)
	assert.Equal(t, []string{"bank"}, goal.DataKeys)

	// Agents pass through the table only when no intent is recognized.
	goal = sanitize(types.Goal{Agents: []string{"repaying", "shell"}})
	assert.Equal(t, []string{"repaying"}, goal.Agents)
	assert.Equal(t, []string{"repay"}, goal.Intents)
}
