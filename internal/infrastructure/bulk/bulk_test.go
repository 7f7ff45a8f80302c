package bulk

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintask/fintask-go/internal/domain"
	"github.com/fintask/fintask-go/internal/pkg/logger"
)

// fakeStore is a concurrency-safe in-memory DataStore; bulk operations hit it
// from multiple goroutines.
type fakeStore struct {
	mu      sync.Mutex
	todos   []domain.Todo
	cards   []domain.CreditCard
	added   []string
	deleted []string
	patched map[string]domain.TodoPatch
	nextID  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{patched: map[string]domain.TodoPatch{}}
}

func (s *fakeStore) GetTodos(_ context.Context, filter domain.TodoFilter) ([]domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Todo
	for _, todo := range s.todos {
		if filter.Completed != nil && todo.Completed != *filter.Completed {
			continue
		}
		out = append(out, todo)
	}
	return out, nil
}

func (s *fakeStore) AddTodo(_ context.Context, todo domain.NewTodo) (domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	created := domain.Todo{ID: "t" + strconv.Itoa(s.nextID), Task: todo.Task}
	s.todos = append(s.todos, created)
	s.added = append(s.added, todo.Task)
	return created, nil
}

func (s *fakeStore) UpdateTodo(_ context.Context, id string, patch domain.TodoPatch) (domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patched[id] = patch
	return domain.Todo{ID: id}, nil
}

func (s *fakeStore) DeleteTodo(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeStore) GetCreditCards(_ context.Context, _ domain.CardFilter) ([]domain.CreditCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CreditCard(nil), s.cards...), nil
}

func (s *fakeStore) AddCreditCard(_ context.Context, card domain.CreditCard) (domain.CreditCard, error) {
	return card, nil
}

func (s *fakeStore) UpdateCreditCard(_ context.Context, id string, _ domain.CardPatch) (domain.CreditCard, error) {
	return domain.CreditCard{ID: id}, nil
}

func (s *fakeStore) DeleteCreditCard(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	return nil
}

func newTestMatcher(store *fakeStore) *Matcher {
	b := New(store, logger.Nop())
	b.SetClock(func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	})
	return b
}

func TestMatchRecognizesBulkVocabulary(t *testing.T) {
	cases := []struct {
		query    string
		category Category
		op       OpType
	}{
		{"complete all overdue tasks", CategoryTodos, OpComplete},
		{"mark all tasks", CategoryTodos, OpComplete},
		{"delete all completed todos", CategoryTodos, OpDelete},
		{"clear all old tasks", CategoryTodos, OpDelete},
		{"bulk add tasks: a, b, c", CategoryTodos, OpCreate},
		{"add my daily tasks", CategoryTodos, OpCreate},
		{"move all overdue tasks to tomorrow", CategoryTodos, OpUpdate},
		{"update all cards", CategoryCards, OpUpdate},
		{"which of my cards are inactive", CategoryCards, OpAnalyze},
		{"show expiring cards", CategoryCards, OpAnalyze},
	}
	for _, tc := range cases {
		op, ok := Match(tc.query)
		require.True(t, ok, tc.query)
		assert.Equal(t, tc.category, op.Category, tc.query)
		assert.Equal(t, tc.op, op.Type, tc.query)
	}
}

func TestMatchIgnoresSingleRecordQueries(t *testing.T) {
	for _, query := range []string{
		"complete the rent task",
		"show my pending tasks",
		"add a todo to pay rent",
	} {
		_, ok := Match(query)
		assert.False(t, ok, query)
	}
}

func TestCompleteAllOverdueTouchesOnlyOverdue(t *testing.T) {
	store := newFakeStore()
	store.todos = []domain.Todo{
		{ID: "t1", Task: "late", DueDate: "2025-06-01"},
		{ID: "t2", Task: "future", DueDate: "2025-06-30"},
		{ID: "t3", Task: "undated"},
	}
	b := newTestMatcher(store)

	result, ok := b.Try(context.Background(), "complete all overdue tasks")
	require.True(t, ok)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.CompletedCount)
	assert.Equal(t, 0, result.FailedCount)
	require.Contains(t, store.patched, "t1")
	require.NotNil(t, store.patched["t1"].Completed)
	assert.True(t, *store.patched["t1"].Completed)
	assert.Len(t, store.patched, 1)
}

func TestDeleteAllOldSweepsByCreationDate(t *testing.T) {
	store := newFakeStore()
	store.todos = []domain.Todo{
		{ID: "t1", Completed: true, CreatedAt: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "t2", Completed: true, CreatedAt: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)},
		{ID: "t3", Completed: false, CreatedAt: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
	}
	b := newTestMatcher(store)

	result, ok := b.Try(context.Background(), "delete all old tasks")
	require.True(t, ok)
	assert.Equal(t, 1, result.DeletedCount)
	assert.Equal(t, []string{"t1"}, store.deleted)
}

func TestBulkCreateFromColonList(t *testing.T) {
	store := newFakeStore()
	b := newTestMatcher(store)

	result, ok := b.Try(context.Background(), "bulk add tasks: water plants, call mom , file taxes")
	require.True(t, ok)
	assert.Equal(t, 3, result.CreatedCount)
	assert.ElementsMatch(t, []string{"water plants", "call mom", "file taxes"}, store.added)
}

func TestBulkCreateFromTemplate(t *testing.T) {
	store := newFakeStore()
	b := newTestMatcher(store)

	result, ok := b.Try(context.Background(), "add my monthly todos")
	require.True(t, ok)
	assert.Equal(t, len(taskTemplates["monthly"]), result.CreatedCount)
	assert.Contains(t, store.added, "Pay rent")
}

func TestBulkUpdateToTomorrowSetsDueDate(t *testing.T) {
	store := newFakeStore()
	store.todos = []domain.Todo{
		{ID: "t1", Task: "late", DueDate: "2025-06-01"},
	}
	b := newTestMatcher(store)

	result, ok := b.Try(context.Background(), "move all overdue tasks to tomorrow")
	require.True(t, ok)
	assert.Equal(t, 1, result.UpdatedCount)
	require.Contains(t, store.patched, "t1")
	require.NotNil(t, store.patched["t1"].DueDate)
	assert.Equal(t, "2025-06-16", *store.patched["t1"].DueDate)
}

func TestCardUpdateIsAcknowledgedNoOp(t *testing.T) {
	store := newFakeStore()
	b := newTestMatcher(store)

	result, ok := b.Try(context.Background(), "update all credit cards")
	require.True(t, ok)
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.UpdatedCount)
	assert.Empty(t, store.patched)
}

func TestAnalyzeInactiveCardsIsReadOnly(t *testing.T) {
	store := newFakeStore()
	store.cards = []domain.CreditCard{
		{ID: "c1", CardName: "Dusty", BankName: "Chase", LastUsed: "2025-01-01"},
		{ID: "c2", CardName: "Fresh", BankName: "Citi", LastUsed: "2025-06-10"},
		{ID: "c3", CardName: "Unknown", BankName: "Discover", LastUsed: "never"},
	}
	b := newTestMatcher(store)

	result, ok := b.Try(context.Background(), "which of my cards are inactive")
	require.True(t, ok)
	require.Len(t, result.CreditCards, 2)
	assert.Empty(t, store.deleted)
	assert.Empty(t, store.patched)
}

func TestAnalyzeExpiringCardsUsesPromoWindow(t *testing.T) {
	store := newFakeStore()
	store.cards = []domain.CreditCard{
		{ID: "c1", CardName: "Soon", BankName: "Chase", PromoExpiry: "2025-07-01"},
		{ID: "c2", CardName: "Later", BankName: "Citi", PromoExpiry: "2025-12-01"},
		{ID: "c3", CardName: "Past", BankName: "Discover", PromoExpiry: "2025-06-01"},
	}
	b := newTestMatcher(store)

	result, ok := b.Try(context.Background(), "show expiring cards")
	require.True(t, ok)
	require.Len(t, result.CreditCards, 1)
	assert.Equal(t, "Soon", result.CreditCards[0].CardName)
}
