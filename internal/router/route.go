// Package router is the intent routing and chaining state machine: a
// request is interpreted into a goal, dispatched to the advisory
// handlers, chained one hop deep on their structured output, summarized
// into one narrative and cached per (user, normalized query).
package router

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"myve/internal/advisory"
	"myve/internal/cache"
	"myve/internal/handlers"
	"myve/internal/types"
)

// ScreenQueryPrefix marks queries derived from screen content; they
// bypass the cache because freshness matters more than reuse.
const ScreenQueryPrefix = "[screen] "

const summaryTemperature = 0.4

// noAdviceResponse is the fixed soft-failure answer when every handler
// failed or produced nothing.
const noAdviceResponse = "We couldn't extract any financial advice from your request. " +
	"Try again with something more finance-related like expenses, purchases, offers, or savings."

const panicResponse = "Something went wrong while processing your request. Please try again later."

// Chained prompts are synthesized, never taken from user input.
const chainedRepayPrompt = "Suggest repayment options for the planned goal."

// Recorder persists final replies; nil disables persistence.
type Recorder interface {
	Append(ctx context.Context, userID, query string, reply types.Reply) error
}

// Router drives one request through the state machine. Safe for
// concurrent use.
type Router struct {
	advisory    advisory.Client
	handlers    map[string]handlers.Handler
	cache       *cache.ResponseCache
	recorder    Recorder
	log         *zap.Logger
	sleep       func(time.Duration)
	backoffBase time.Duration
}

// New wires a Router. recorder may be nil.
func New(client advisory.Client, handlerSet map[string]handlers.Handler, responseCache *cache.ResponseCache, recorder Recorder, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		advisory:    client,
		handlers:    handlerSet,
		cache:       responseCache,
		recorder:    recorder,
		log:         log.Named("router"),
		sleep:       time.Sleep,
		backoffBase: time.Second,
	}
}

// HandleRequest answers one free-text request for userID. It never
// returns an error or panics outward; every failure degrades to a
// structured reply.
func (r *Router) HandleRequest(ctx context.Context, prompt, userID string) (reply types.Reply) {
	requestID := uuid.NewString()
	log := r.log.With(zap.String("request", requestID), zap.String("user", userID))

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("request processing panicked", zap.Any("panic", rec))
			reply = types.Reply{Response: panicResponse, RequestID: requestID}
		}
	}()

	skipCache := strings.HasPrefix(prompt, ScreenQueryPrefix)
	if skipCache {
		prompt = strings.TrimPrefix(prompt, ScreenQueryPrefix)
	}

	key := cache.Key(userID, prompt)
	if !skipCache {
		if cached, ok := r.cache.Get(key); ok {
			log.Debug("serving cached reply")
			cached.Cached = true
			cached.RequestID = requestID
			return cached
		}
	}

	goal := r.interpret(ctx, prompt)
	dataKeys := goal.DataKeys
	if len(dataKeys) == 0 {
		dataKeys = defaultDataKeys
	}
	log.Info("interpreted goal",
		zap.Strings("intents", goal.Intents),
		zap.Strings("agents", goal.Agents),
		zap.Strings("data_keys", dataKeys))

	results := r.dispatch(ctx, goal.Agents, prompt, userID, dataKeys, log)
	order := r.chain(ctx, goal.Agents, results, userID, dataKeys, log)

	reply = types.Reply{
		Response:  r.summarize(ctx, goal, order, results, log),
		Intents:   goal.Intents,
		Agents:    order,
		DataKeys:  dataKeys,
		Item:      goal.Item,
		Category:  goal.Category,
		RequestID: requestID,
	}

	if anySucceeded(order, results) && !skipCache {
		r.cache.Put(key, userID, reply)
	}
	if r.recorder != nil {
		if err := r.recorder.Append(ctx, userID, prompt, reply); err != nil {
			log.Warn("could not persist reply", zap.Error(err))
		}
	}
	return reply
}

// dispatch runs every named handler concurrently. A handler error or
// panic becomes a labeled failure stub; the rest proceed.
func (r *Router) dispatch(ctx context.Context, agents []string, prompt, userID string, dataKeys []string, log *zap.Logger) map[string]types.HandlerResponse {
	results := make(map[string]types.HandlerResponse, len(agents))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)

	for _, agent := range agents {
		g.Go(func() error {
			resp := r.runHandler(ctx, agent, prompt, userID, dataKeys, log)
			mu.Lock()
			results[agent] = resp
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Router) runHandler(ctx context.Context, agent, prompt, userID string, dataKeys []string, log *zap.Logger) (resp types.HandlerResponse) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("handler panicked", zap.String("agent", agent), zap.Any("panic", rec))
			resp = failureStub(agent, fmt.Errorf("panic: %v", rec))
		}
	}()

	h, ok := r.handlers[agent]
	if !ok {
		return failureStub(agent, fmt.Errorf("no handler registered"))
	}
	resp, err := h.Run(ctx, prompt, userID, dataKeys)
	if err != nil {
		log.Warn("handler failed", zap.String("agent", agent), zap.Error(err))
		return failureStub(agent, err)
	}
	return resp
}

func failureStub(agent string, err error) types.HandlerResponse {
	return types.HandlerResponse{
		Response: fmt.Sprintf("%s failed: %v", agent, err),
		Meta:     types.HandlerMeta{Agent: agent, Failed: true},
	}
}

// chain applies the deterministic one-hop rules: a buying result with a
// purchase plan triggers planning, and a planning goal with amount > 0
// over a 6+ month horizon triggers repaying. Chained agents append to
// the original order; each rule fires at most once.
func (r *Router) chain(ctx context.Context, agents []string, results map[string]types.HandlerResponse, userID string, dataKeys []string, log *zap.Logger) []string {
	order := append([]string(nil), agents...)

	if buy, ok := results["buying"]; ok && buy.Meta.Plan != nil {
		if _, planned := results["planning"]; !planned {
			log.Info("chaining planning after buying",
				zap.String("item", buy.Meta.Plan.Item))
			prompt := fmt.Sprintf("Create a post-purchase financial plan for buying %s at ₹%.0f.",
				buy.Meta.Plan.Item, buy.Meta.Plan.Price)
			results["planning"] = r.runHandler(ctx, "planning", prompt, userID, dataKeys, log)
			order = append(order, "planning")
		}
	}

	if plan, ok := results["planning"]; ok {
		if _, repaid := results["repaying"]; !repaid {
			for _, g := range plan.Meta.Goals {
				if g.Amount > 0 && g.TimelineMonths > 6 {
					log.Info("chaining repaying after planning",
						zap.Float64("amount", g.Amount),
						zap.Int("timeline_months", g.TimelineMonths))
					results["repaying"] = r.runHandler(ctx, "repaying", chainedRepayPrompt, userID, dataKeys, log)
					order = append(order, "repaying")
					break
				}
			}
		}
	}
	return order
}

func anySucceeded(order []string, results map[string]types.HandlerResponse) bool {
	for _, agent := range order {
		if resp, ok := results[agent]; ok && !resp.Meta.Failed && strings.TrimSpace(resp.Response) != "" {
			return true
		}
	}
	return false
}

// summarize merges handler outputs into one narrative: via the advisory
// service when possible, via local concatenation otherwise, and a fixed
// soft-failure message when nothing succeeded.
func (r *Router) summarize(ctx context.Context, goal types.Goal, order []string, results map[string]types.HandlerResponse, log *zap.Logger) string {
	var outputs []string
	for _, agent := range order {
		if resp, ok := results[agent]; ok && !resp.Meta.Failed && strings.TrimSpace(resp.Response) != "" {
			outputs = append(outputs, resp.Response)
		}
	}
	if len(outputs) == 0 {
		return noAdviceResponse
	}

	item := goal.Item
	if item == "" {
		item = "your goal"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You are a smart financial assistant generating a complete, personalized summary for: %s (%s). ", item, goal.Category)
	b.WriteString("Based on the insights from the following agents (buy, plan, repay, assess), produce a structured, multi-section report. Include:\n")
	b.WriteString("1. Financial Assessment\n2. Affordability Analysis\n3. Budget or Goal Planning\n4. Repayment Guidance (if applicable)\n5. Execution Tips\n\n")
	b.WriteString("Structure each section with short paragraphs or bullet points and keep the advice practical.\n\n=== Agent Insights ===\n")
	for i, out := range outputs {
		fmt.Fprintf(&b, "%d. %s\n\n", i+1, out)
	}

	text, err := r.advisory.Complete(ctx, b.String(), summaryTemperature)
	if err != nil {
		log.Warn("unified summarization failed, curating locally", zap.Error(err))
		return curate(order, results)
	}
	return strings.TrimSpace(text)
}

var sectionLabels = map[string]string{
	"buying":   "Buying Insight",
	"planning": "Planning Insight",
	"repaying": "Repayment Insight",
	"assess":   "Assessment Insight",
}

var sectionFallbacks = map[string]string{
	"buying":   "We couldn't generate a purchase analysis right now. You may try again later or ask for help with your budget.",
	"repaying": "Repayment suggestions are currently unavailable. You can retry or consult financial support.",
	"planning": "Planning advice could not be created at the moment. Please check your data or try rephrasing your goal.",
	"assess":   "Unable to analyze your financial health currently. You can retry or explore specific questions for better results.",
}

// curate is the deterministic summarization fallback: each handler's
// output under a labeled section, with a per-agent apology for the ones
// that failed.
func curate(order []string, results map[string]types.HandlerResponse) string {
	var parts []string
	for _, agent := range order {
		resp, ok := results[agent]
		if !ok {
			continue
		}
		label := sectionLabels[agent]
		if label == "" {
			label = agent + " insight"
		}
		body := strings.TrimSpace(resp.Response)
		if resp.Meta.Failed || body == "" {
			body = sectionFallbacks[agent]
			if body == "" {
				body = "No insight available."
			}
		}
		parts = append(parts, label+"\n"+body)
	}
	return strings.Join(parts, "\n\n")
}
