// Package matcher is the deterministic, model-free classifier. It maps free
// text onto data-access-facade calls using string containment and a small set
// of regular expressions, and is the path of last resort when the model is
// unavailable, throttled, or returns garbage.
package matcher

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fintask/fintask-go/internal/domain"
	"github.com/fintask/fintask-go/internal/ports"
)

// ActionExecutor replays a remembered structured action. Implemented by the
// intent processor; declared here so the matcher does not depend on the
// services layer.
type ActionExecutor interface {
	ExecuteAction(ctx context.Context, action domain.StructuredAction) (domain.Result, error)
}

// Matcher classifies queries without a model call. It never returns an error
// for recognized vocabulary; only a total classification miss surfaces as
// *domain.ClassificationMissError.
type Matcher struct {
	store   ports.DataStore
	learned ports.LearnedStore
	exec    ActionExecutor
	now     func() time.Time
	log     zerolog.Logger
}

// New builds a Matcher. learned and exec may be nil (the learned-query
// first pass is then skipped).
func New(store ports.DataStore, learned ports.LearnedStore, log zerolog.Logger) *Matcher {
	return &Matcher{
		store:   store,
		learned: learned,
		now:     time.Now,
		log:     log,
	}
}

// SetExecutor wires the learned-action replayer after construction (the
// intent processor and matcher reference each other).
func (m *Matcher) SetExecutor(exec ActionExecutor) { m.exec = exec }

// SetClock overrides the time source for tests.
func (m *Matcher) SetClock(now func() time.Time) { m.now = now }

// rule is one (predicate, handler) pair. Rules are tried in declaration
// order, which is the documented precedence: learned replay happens first in
// Classify, then UI switching, then todos, then cards.
type rule struct {
	name    string
	matches func(q string) bool
	handle  func(ctx context.Context, q string) (domain.Result, error)
}

func (m *Matcher) rules() []rule {
	return []rule{
		// UI switching outranks record matching on purpose: "switch to table
		// view for my tasks" is a view change, not a todo query.
		{name: "ui_switch", matches: matchesUISwitch, handle: m.handleUISwitch},
		{name: "todos", matches: matchesTodos, handle: m.handleTodos},
		{name: "cards", matches: matchesCards, handle: m.handleCards},
	}
}

// Classify resolves query to a Result. The learned-query cache is consulted
// first (exact match on the trimmed, lowercased text); a failed replay falls
// through to fresh classification without surfacing the error.
func (m *Matcher) Classify(ctx context.Context, query string) (domain.Result, error) {
	q := strings.ToLower(strings.TrimSpace(query))

	if m.learned != nil && m.exec != nil {
		if action, ok, err := m.learned.Lookup(q); err == nil && ok {
			result, execErr := m.exec.ExecuteAction(ctx, action)
			if execErr == nil {
				return result, nil
			}
			m.log.Debug().Err(execErr).Msg("learned action replay failed, reclassifying")
		}
	}

	for _, r := range m.rules() {
		if r.matches(q) {
			return r.handle(ctx, q)
		}
	}

	return domain.Result{}, &domain.ClassificationMissError{
		Help: `I can help with todos and credit cards. Try "show my pending tasks", "add a todo to pay rent", or "show me chase cards".`,
	}
}

func matchesUISwitch(q string) bool {
	if !strings.Contains(q, "switch") {
		return false
	}
	return strings.Contains(q, "table") || strings.Contains(q, "card") || strings.Contains(q, "view")
}

func (m *Matcher) handleUISwitch(_ context.Context, q string) (domain.Result, error) {
	mode := domain.ViewModeCards
	if strings.Contains(q, "table") {
		mode = domain.ViewModeTable
	}
	return domain.Result{
		Success:  true,
		Message:  "Switched to " + mode + " view.",
		UIAction: domain.UISwitchView,
		ViewMode: mode,
	}, nil
}

func containsAny(q string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}
