// Package router decides, per request, whether a command can execute
// directly via pattern match, is a cache hit, or must escalate to the AI
// collaborator.
package router

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/doeshing/aish/internal/domain"
	"github.com/doeshing/aish/internal/infrastructure/cache"
	"github.com/doeshing/aish/internal/ports"
)

// acceptThreshold is the minimum adjusted score an intent match needs to
// produce a direct plan.
const acceptThreshold = 0.7

const (
	exactMatchBonus  = 0.10
	verbosityPenalty = 0.15
	verboseWordCount = 8
)

// Router implements ports.Router over a compiled intent table, the response
// cache and an in-flight dedup map.
type Router struct {
	validator ports.Validator
	cache     ports.CacheStore
	logger    ports.Logger
	intents   []compiledIntent

	mu      sync.Mutex
	pending map[string]*pendingRequest

	// retention keeps a completed pending entry around to absorb rapid
	// repeats of the same input.
	retention time.Duration
}

type compiledIntent struct {
	re   *regexp.Regexp
	rule domain.IntentPattern
}

type pendingRequest struct {
	done chan struct{}
	plan domain.ExecutionPlan
	err  error
}

// NewRouter compiles the intent table (DefaultIntentPatterns when patterns
// is nil) and wires the cache behind the router's single-writer lock.
func NewRouter(validator ports.Validator, store ports.CacheStore, patterns []domain.IntentPattern, logger ports.Logger) (*Router, error) {
	if patterns == nil {
		patterns = DefaultIntentPatterns()
	}
	var compiled []compiledIntent
	for _, rule := range patterns {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile intent pattern %q: %w", rule.Pattern, err)
		}
		compiled = append(compiled, compiledIntent{re: re, rule: rule})
	}
	return &Router{
		validator: validator,
		cache:     store,
		logger:    logger,
		intents:   compiled,
		pending:   make(map[string]*pendingRequest),
		retention: domain.PendingRetention,
	}, nil
}

// Route implements ports.Router. Identical in-flight inputs share one
// resolution; the pending entry lingers for ~5 seconds after completion.
func (r *Router) Route(ctx context.Context, input string, snapshot domain.ContextSnapshot) (domain.ExecutionPlan, error) {
	key := normalizeInput(input)

	r.mu.Lock()
	if p, ok := r.pending[key]; ok {
		r.mu.Unlock()
		select {
		case <-p.done:
			return p.plan, p.err
		case <-ctx.Done():
			return domain.ExecutionPlan{}, ctx.Err()
		}
	}
	p := &pendingRequest{done: make(chan struct{})}
	r.pending[key] = p
	r.mu.Unlock()

	p.plan, p.err = r.resolve(input, snapshot)
	close(p.done)

	time.AfterFunc(r.retention, func() {
		r.mu.Lock()
		if r.pending[key] == p {
			delete(r.pending, key)
		}
		r.mu.Unlock()
	})

	return p.plan, p.err
}

func (r *Router) resolve(input string, snapshot domain.ContextSnapshot) (domain.ExecutionPlan, error) {
	screen := r.validator.Validate(input, domain.ValidateOptions{AllowHidden: true})
	if screen.Blocked {
		return domain.ExecutionPlan{
			Kind:       domain.PlanRejected,
			Validation: &screen,
		}, nil
	}

	fingerprint := cache.Fingerprint(input, snapshot)

	// A cache hit skips re-validation: the stored value was produced from
	// a validated command.
	r.mu.Lock()
	entry, hit := r.cache.Get(fingerprint)
	r.mu.Unlock()
	if hit {
		return domain.ExecutionPlan{
			Kind:     domain.PlanCached,
			CacheKey: fingerprint,
			Cached:   &entry,
		}, nil
	}

	if plan, ok := r.matchIntent(input); ok {
		plan.CacheKey = fingerprint
		if r.logger != nil {
			r.logger.Debug("intent matched", map[string]interface{}{
				"pattern":    plan.Pattern,
				"confidence": plan.Confidence,
			})
		}
		return plan, nil
	}

	return domain.ExecutionPlan{
		Kind:     domain.PlanExternal,
		CacheKey: fingerprint,
	}, nil
}

// matchIntent scores the input against the intent table. The declared order
// breaks ties, so scanning in order and replacing only on a strictly better
// score is sufficient.
func (r *Router) matchIntent(input string) (domain.ExecutionPlan, bool) {
	trimmed := strings.TrimSpace(input)
	penalty := verbosityScore(trimmed)

	best := domain.ExecutionPlan{}
	bestScore := 0.0
	for _, intent := range r.intents {
		m := intent.re.FindStringSubmatchIndex(trimmed)
		if m == nil {
			continue
		}
		score := intent.rule.Confidence - penalty
		if m[0] == 0 && m[1] == len(trimmed) {
			score += exactMatchBonus
		}
		if score <= bestScore {
			continue
		}
		command := string(intent.re.ExpandString(nil, intent.rule.Template, trimmed, m))
		bestScore = score
		best = domain.ExecutionPlan{
			Kind:       domain.PlanDirect,
			Handler:    intent.rule.Handler,
			Command:    command,
			Args:       captureGroups(intent.re, trimmed, m),
			Confidence: score,
			Pattern:    intent.rule.Name,
		}
	}
	if bestScore < acceptThreshold {
		return domain.ExecutionPlan{}, false
	}
	return best, true
}

// Commit implements ports.Router: store the result of a successfully
// executed plan so rapid repeats become cache hits.
func (r *Router) Commit(plan domain.ExecutionPlan, entry domain.CacheEntry) {
	if plan.CacheKey == "" || plan.Kind == domain.PlanCached {
		return
	}
	entry.Key = plan.CacheKey
	r.mu.Lock()
	r.cache.Set(entry)
	r.mu.Unlock()
}

func captureGroups(re *regexp.Regexp, input string, m []int) []string {
	var args []string
	for i := 1; i < len(m)/2; i++ {
		if m[2*i] < 0 {
			continue
		}
		args = append(args, input[m[2*i]:m[2*i+1]])
	}
	return args
}

// verbosityScore penalizes long, multi-clause phrasings that pattern
// handlers routinely mis-fire on.
func verbosityScore(input string) float64 {
	penalty := 0.0
	if len(strings.Fields(input)) > verboseWordCount {
		penalty += verbosityPenalty
	}
	lower := strings.ToLower(input)
	if strings.Contains(lower, ";") || strings.Contains(lower, "&&") ||
		strings.Contains(lower, " and then ") || strings.Contains(lower, ", then ") {
		penalty += verbosityPenalty
	}
	return penalty
}

func normalizeInput(input string) string {
	return strings.Join(strings.Fields(strings.ToLower(input)), " ")
}

var _ ports.Router = (*Router)(nil)
