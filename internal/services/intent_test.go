package services

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintask/fintask-go/internal/domain"
	"github.com/fintask/fintask-go/internal/pkg/logger"
	"github.com/fintask/fintask-go/internal/ports"
)

type fakeStore struct {
	todos   []domain.Todo
	cards   []domain.CreditCard
	deleted []string
	patched map[string]domain.TodoPatch
	nextID  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{patched: map[string]domain.TodoPatch{}}
}

func (s *fakeStore) GetTodos(_ context.Context, filter domain.TodoFilter) ([]domain.Todo, error) {
	var out []domain.Todo
	for _, todo := range s.todos {
		if filter.Completed != nil && todo.Completed != *filter.Completed {
			continue
		}
		if filter.DueDate != "" && todo.DueDate != filter.DueDate {
			continue
		}
		out = append(out, todo)
	}
	return out, nil
}

func (s *fakeStore) AddTodo(_ context.Context, todo domain.NewTodo) (domain.Todo, error) {
	s.nextID++
	created := domain.Todo{ID: "t" + strconv.Itoa(s.nextID), Task: todo.Task, DueDate: todo.DueDate}
	s.todos = append(s.todos, created)
	return created, nil
}

func (s *fakeStore) UpdateTodo(_ context.Context, id string, patch domain.TodoPatch) (domain.Todo, error) {
	s.patched[id] = patch
	for _, todo := range s.todos {
		if todo.ID == id {
			return todo, nil
		}
	}
	return domain.Todo{ID: id}, nil
}

func (s *fakeStore) DeleteTodo(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeStore) GetCreditCards(_ context.Context, filter domain.CardFilter) ([]domain.CreditCard, error) {
	var out []domain.CreditCard
	for _, card := range s.cards {
		if filter.BankName != "" && card.BankName != filter.BankName {
			continue
		}
		out = append(out, card)
	}
	return out, nil
}

func (s *fakeStore) AddCreditCard(_ context.Context, card domain.CreditCard) (domain.CreditCard, error) {
	s.nextID++
	card.ID = "c" + strconv.Itoa(s.nextID)
	s.cards = append(s.cards, card)
	return card, nil
}

func (s *fakeStore) UpdateCreditCard(_ context.Context, id string, patch domain.CardPatch) (domain.CreditCard, error) {
	for i, card := range s.cards {
		if card.ID != id {
			continue
		}
		if patch.CardName != nil {
			s.cards[i].CardName = *patch.CardName
		}
		return s.cards[i], nil
	}
	return domain.CreditCard{}, domain.ErrNoMatch
}

func (s *fakeStore) DeleteCreditCard(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type fakeGenerator struct {
	answer string
	err    error
	calls  int
	hints  ports.GenerationHints
}

func (g *fakeGenerator) Generate(_ context.Context, _ string, hints ports.GenerationHints) (string, error) {
	g.calls++
	g.hints = hints
	return g.answer, g.err
}

type fakeLearned struct {
	saved map[string]domain.StructuredAction
}

func newFakeLearned() *fakeLearned {
	return &fakeLearned{saved: map[string]domain.StructuredAction{}}
}

func (l *fakeLearned) Lookup(query string) (domain.StructuredAction, bool, error) {
	action, ok := l.saved[query]
	return action, ok, nil
}

func (l *fakeLearned) Save(query string, action domain.StructuredAction) error {
	l.saved[query] = action
	return nil
}

func (l *fakeLearned) Prune(time.Time) (int, error) { return 0, nil }
func (l *fakeLearned) Close() error                 { return nil }

type fakeFallback struct {
	result domain.Result
	err    error
	calls  int
}

func (f *fakeFallback) Classify(_ context.Context, _ string) (domain.Result, error) {
	f.calls++
	return f.result, f.err
}

func newTestProcessor(store *fakeStore, gen *fakeGenerator, learned ports.LearnedStore, fallback ports.FallbackClassifier) *IntentProcessor {
	p := NewIntentProcessor(store, gen, learned, fallback, logger.Nop())
	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	calls := 0
	p.SetClock(func() time.Time {
		// Each reading advances well past the throttle window.
		calls++
		return base.Add(time.Duration(calls) * 10 * time.Second)
	})
	return p
}

func TestProcessModelAnswerDrivesStore(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{answer: `{"action": "add_todo", "params": {"task": "pay rent"}}`}
	p := newTestProcessor(store, gen, nil, &fakeFallback{})

	result := p.Process(context.Background(), "add a todo to pay rent")
	assert.True(t, result.Success)
	assert.Equal(t, domain.ModeGemini, result.ProcessingMode)
	require.NotNil(t, result.Todo)
	assert.Equal(t, "pay rent", result.Todo.Task)
}

func TestProcessToleratesProseAroundJSON(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{answer: "Sure! Here is the plan:\n```json\n{\"action\": \"get_todos\", \"params\": {\"completed\": false}}\n```\nDone."}
	p := newTestProcessor(store, gen, nil, &fakeFallback{})

	result := p.Process(context.Background(), "show my pending tasks")
	assert.True(t, result.Success)
	assert.Equal(t, domain.ModeGemini, result.ProcessingMode)
}

func TestProcessFallsBackOnUnparseableAnswer(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{answer: "I cannot help with that."}
	fallback := &fakeFallback{result: domain.Result{Success: true, Message: "matched"}}
	p := newTestProcessor(store, gen, nil, fallback)

	result := p.Process(context.Background(), "show my tasks")
	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, domain.ModeFallback, result.ProcessingMode)
	assert.True(t, result.Success)
}

func TestProcessFallsBackOnModelError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("backend down")}
	fallback := &fakeFallback{result: domain.Result{Success: true}}
	p := newTestProcessor(newFakeStore(), gen, nil, fallback)

	result := p.Process(context.Background(), "show my tasks")
	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, domain.ModeFallback, result.ProcessingMode)
}

func TestProcessThrottleSkipsModel(t *testing.T) {
	gen := &fakeGenerator{answer: `{"action": "get_todos", "params": {}}`}
	fallback := &fakeFallback{result: domain.Result{Success: true}}
	p := NewIntentProcessor(newFakeStore(), gen, nil, fallback, logger.Nop())
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	p.SetClock(func() time.Time { return now })

	first := p.Process(context.Background(), "show my tasks")
	assert.Equal(t, domain.ModeGemini, first.ProcessingMode)

	// Clock has not advanced: the second call is inside the throttle window.
	second := p.Process(context.Background(), "show my tasks again")
	assert.Equal(t, domain.ModeFallback, second.ProcessingMode)
	assert.Equal(t, 1, gen.calls)
}

func TestProcessRemembersSuccessfulResolutions(t *testing.T) {
	learned := newFakeLearned()
	gen := &fakeGenerator{answer: `{"action": "get_todos", "params": {"completed": true}}`}
	p := newTestProcessor(newFakeStore(), gen, learned, &fakeFallback{})

	p.Process(context.Background(), "  Show COMPLETED tasks ")
	action, ok := learned.saved["show completed tasks"]
	require.True(t, ok)
	assert.Equal(t, domain.ActionGetTodos, action.Action)
}

func TestProcessDoesNotRememberFailures(t *testing.T) {
	learned := newFakeLearned()
	gen := &fakeGenerator{answer: "garbage"}
	p := newTestProcessor(newFakeStore(), gen, learned, &fakeFallback{result: domain.Result{}})

	p.Process(context.Background(), "show my tasks")
	assert.Empty(t, learned.saved)
}

func TestProcessNoMatchIsSoftFailureNotFallback(t *testing.T) {
	store := newFakeStore() // no todos, so the task_name lookup misses
	gen := &fakeGenerator{answer: `{"action": "update_todo", "params": {"task_name": "ghost", "completed": true}}`}
	fallback := &fakeFallback{}
	p := newTestProcessor(store, gen, nil, fallback)

	result := p.Process(context.Background(), "mark ghost as done")
	assert.False(t, result.Success)
	assert.Equal(t, domain.ModeGemini, result.ProcessingMode)
	assert.Equal(t, 0, fallback.calls)
}

func TestProcessMissHelpBecomesSoftFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("down")}
	fallback := &fakeFallback{err: &domain.ClassificationMissError{Help: "try asking about todos"}}
	p := newTestProcessor(newFakeStore(), gen, nil, fallback)

	result := p.Process(context.Background(), "sing a song")
	assert.False(t, result.Success)
	assert.Equal(t, "try asking about todos", result.Message)
	assert.Equal(t, domain.ModeFallback, result.ProcessingMode)
}

func TestHintsForAnalysisQueries(t *testing.T) {
	hints := hintsFor("analyze my spending and give recommendations")
	assert.True(t, hints.Complex)
	assert.True(t, hints.PreferPro)

	hints = hintsFor("show my tasks")
	assert.False(t, hints.Complex)
	assert.False(t, hints.PreferPro)
}

func TestExtractJSONObjectSkipsBracesInStrings(t *testing.T) {
	raw := `note: {"action": "add_todo", "params": {"task": "fix {braces} in text"}} trailing`
	object, err := extractJSONObject(raw)
	require.NoError(t, err)
	assert.Equal(t, `{"action": "add_todo", "params": {"task": "fix {braces} in text"}}`, object)
}

func TestExtractJSONObjectErrors(t *testing.T) {
	_, err := extractJSONObject("no json here")
	require.Error(t, err)
	_, err = extractJSONObject(`{"unterminated": true`)
	require.Error(t, err)
}

func TestExecuteActionResolvesRelativeDates(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{}
	p := newTestProcessor(store, gen, nil, &fakeFallback{})
	p.SetClock(func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	})

	result, err := p.ExecuteAction(context.Background(), domain.StructuredAction{
		Action: domain.ActionAddTodo,
		Params: domain.ActionParams{Task: "pay rent", DueDate: "tomorrow"},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Todo)
	assert.Equal(t, "2025-06-16", result.Todo.DueDate)
}

func TestExecuteActionBulkShiftByDate(t *testing.T) {
	store := newFakeStore()
	store.todos = []domain.Todo{
		{ID: "t1", Task: "a", DueDate: "2025-06-15"},
		{ID: "t2", Task: "b", DueDate: "2025-06-20"},
	}
	p := newTestProcessor(store, &fakeGenerator{}, nil, &fakeFallback{})
	p.SetClock(func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	})

	due := "tomorrow"
	result, err := p.ExecuteAction(context.Background(), domain.StructuredAction{
		Action: domain.ActionUpdateTodo,
		Params: domain.ActionParams{
			UpdateAll: true,
			DueDate:   "today",
			Update:    &domain.TodoPatch{DueDate: &due},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.UpdatedCount)
	require.Contains(t, store.patched, "t1")
	assert.Equal(t, "2025-06-16", *store.patched["t1"].DueDate)
}

func TestExecuteActionUpdateCardByBankLookup(t *testing.T) {
	store := newFakeStore()
	store.cards = []domain.CreditCard{
		{ID: "c1", CardName: "Freedom", BankName: "Chase"},
	}
	p := newTestProcessor(store, &fakeGenerator{}, nil, &fakeFallback{})

	result, err := p.ExecuteAction(context.Background(), domain.StructuredAction{
		Action: domain.ActionUpdateCreditCard,
		Params: domain.ActionParams{BankName: "Chase", CardName: "Sapphire"},
	})
	require.NoError(t, err)
	require.NotNil(t, result.CreditCard)
	assert.Equal(t, "Sapphire", result.CreditCard.CardName)
}

func TestExecuteActionInsights(t *testing.T) {
	store := newFakeStore()
	store.todos = []domain.Todo{
		{ID: "t1", Task: "late", DueDate: "2025-06-01"},
		{ID: "t2", Task: "today", DueDate: "2025-06-15"},
		{ID: "t3", Task: "undated"},
	}
	store.cards = []domain.CreditCard{
		{ID: "c1", CardName: "Dusty", BankName: "Chase", LastUsed: "2025-01-01"},
		{ID: "c2", CardName: "Promo", BankName: "Citi", LastUsed: "2025-06-10", PromoExpiry: "2025-07-01"},
	}
	p := newTestProcessor(store, &fakeGenerator{}, nil, &fakeFallback{})
	p.SetClock(func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	})

	result, err := p.ExecuteAction(context.Background(), domain.StructuredAction{Action: domain.ActionGetInsights})
	require.NoError(t, err)
	require.NotNil(t, result.Insights)
	assert.Equal(t, 3, result.Insights.PendingTodos)
	assert.Equal(t, 1, result.Insights.OverdueTodos)
	assert.Equal(t, 1, result.Insights.DueToday)
	assert.Equal(t, []string{"Chase Dusty"}, result.Insights.InactiveCards)
	assert.Equal(t, []string{"Citi Promo"}, result.Insights.PromoExpiringCards)
	assert.NotEmpty(t, result.Insights.Summary)
}

func TestBuildPromptEmbedsDatesAndQuery(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	prompt, err := buildPrompt("show my tasks", now)
	require.NoError(t, err)
	assert.Contains(t, prompt, "2025-06-15")
	assert.Contains(t, prompt, "2025-06-16")
	assert.Contains(t, prompt, "show my tasks")
	assert.Contains(t, prompt, `"action"`)
}
