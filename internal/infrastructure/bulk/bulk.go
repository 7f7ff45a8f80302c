// Package bulk recognizes a fixed catalogue of multi-record commands
// ("complete all overdue tasks") ahead of the model-assisted path, so they
// are handled deterministically. Each intent is one regex; the first match
// wins and its capture groups carry the operation's parameters.
package bulk

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fintask/fintask-go/internal/domain"
	"github.com/fintask/fintask-go/internal/ports"
)

// Category and OpType name the table axes.
type Category string

type OpType string

const (
	CategoryTodos Category = "todos"
	CategoryCards Category = "cards"

	OpComplete OpType = "complete"
	OpDelete   OpType = "delete"
	OpCreate   OpType = "create"
	OpUpdate   OpType = "update"
	OpAnalyze  OpType = "analyze"
)

// Operation is one recognized bulk command, ephemeral within a single call.
type Operation struct {
	Category Category
	Type     OpType
	Groups   []string
	Query    string
}

type pattern struct {
	category Category
	op       OpType
	re       *regexp.Regexp
}

// patterns is the fixed match table. Order is precedence.
var patterns = []pattern{
	{CategoryTodos, OpComplete, regexp.MustCompile(`(?:complete|finish|mark)\s+all\s+(?:(overdue|pending|high priority)\s+)?(?:tasks|todos)`)},
	{CategoryTodos, OpDelete, regexp.MustCompile(`(?:delete|remove|clear)\s+all\s+(?:(completed|done|old)\s+)?(?:tasks|todos)`)},
	{CategoryTodos, OpCreate, regexp.MustCompile(`bulk\s+add\s+(?:tasks|todos)\s*:\s*(.+)`)},
	{CategoryTodos, OpCreate, regexp.MustCompile(`(?:add|create)\s+(?:my\s+)?(daily|weekly|monthly)\s+(?:tasks|todos)`)},
	{CategoryTodos, OpUpdate, regexp.MustCompile(`(?:set|move|update)\s+all\s+(?:(overdue|pending)\s+)?(?:tasks|todos)\s+to\s+(.+)`)},
	{CategoryCards, OpUpdate, regexp.MustCompile(`update\s+all\s+(?:credit\s+)?cards`)},
	{CategoryCards, OpAnalyze, regexp.MustCompile(`(?:analyze|review|which\s+of)\s+(?:my\s+)?(?:credit\s+)?cards(?:\s+(?:are|is)\s+(inactive|expiring))?`)},
	{CategoryCards, OpAnalyze, regexp.MustCompile(`(?:find|show)\s+(inactive|expiring)\s+(?:credit\s+)?cards`)},
}

// taskTemplates are the named lists expanded by "add daily tasks" etc.
var taskTemplates = map[string][]string{
	"daily":   {"Review calendar", "Check email", "Plan top 3 priorities"},
	"weekly":  {"Weekly review", "Pay bills", "Grocery run", "Tidy workspace"},
	"monthly": {"Pay rent", "Review budget", "Check card statements"},
}

// oldTodoThresholdDays bounds the "delete all old tasks" sweep: completed
// tasks created earlier than this many days ago.
const oldTodoThresholdDays = 30

// Matcher executes recognized bulk operations against the data facade.
type Matcher struct {
	store ports.DataStore
	now   func() time.Time
	log   zerolog.Logger
}

func New(store ports.DataStore, log zerolog.Logger) *Matcher {
	return &Matcher{store: store, now: time.Now, log: log}
}

// SetClock overrides the time source for tests.
func (b *Matcher) SetClock(now func() time.Time) { b.now = now }

// Match runs the regex table against the lowercased query. Exposed separately
// from Try so each rule's precedence is testable on its own.
func Match(query string) (*Operation, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, p := range patterns {
		if groups := p.re.FindStringSubmatch(q); groups != nil {
			return &Operation{
				Category: p.category,
				Type:     p.op,
				Groups:   groups[1:],
				Query:    q,
			}, true
		}
	}
	return nil, false
}

// Try matches and, on success, executes. The second return is false when no
// pattern matched and the caller should continue to the intent processor.
func (b *Matcher) Try(ctx context.Context, query string) (domain.Result, bool) {
	op, ok := Match(query)
	if !ok {
		return domain.Result{}, false
	}
	result, err := b.execute(ctx, op)
	if err != nil {
		b.log.Warn().Err(err).Str("category", string(op.Category)).Str("op", string(op.Type)).
			Msg("bulk operation failed")
		return domain.SoftFailure("That bulk operation failed: " + err.Error()), true
	}
	return result, true
}

func (b *Matcher) execute(ctx context.Context, op *Operation) (domain.Result, error) {
	switch {
	case op.Category == CategoryTodos && op.Type == OpComplete:
		return b.completeTodos(ctx, group(op, 0))
	case op.Category == CategoryTodos && op.Type == OpDelete:
		return b.deleteTodos(ctx, group(op, 0))
	case op.Category == CategoryTodos && op.Type == OpCreate:
		return b.createTodos(ctx, group(op, 0))
	case op.Category == CategoryTodos && op.Type == OpUpdate:
		return b.updateTodos(ctx, group(op, 0), group(op, 1))
	case op.Category == CategoryCards && op.Type == OpAnalyze:
		return b.analyzeCards(ctx, group(op, 0))
	case op.Category == CategoryCards && op.Type == OpUpdate:
		// Recognized but not implemented; reported as a zero-count no-op.
		return domain.Result{
			Success:      true,
			Message:      "Bulk card updates aren't supported yet.",
			UpdatedCount: 0,
		}, nil
	default:
		return domain.Result{}, fmt.Errorf("unhandled bulk operation %s/%s", op.Category, op.Type)
	}
}

func group(op *Operation, i int) string {
	if i < len(op.Groups) {
		return op.Groups[i]
	}
	return ""
}

func (b *Matcher) completeTodos(ctx context.Context, subset string) (domain.Result, error) {
	todos, err := b.pendingSubset(ctx, subset)
	if err != nil {
		return domain.Result{}, err
	}
	if len(todos) == 0 {
		return domain.Result{Success: true, Message: "No matching tasks to complete."}, nil
	}

	done := true
	succeeded, failed := b.forEach(todos, func(todo domain.Todo) error {
		_, err := b.store.UpdateTodo(ctx, todo.ID, domain.TodoPatch{Completed: &done})
		return err
	})
	return domain.Result{
		Success:        succeeded > 0,
		Message:        fmt.Sprintf("Completed %d task(s), %d failed.", succeeded, failed),
		CompletedCount: succeeded,
		FailedCount:    failed,
	}, nil
}

func (b *Matcher) deleteTodos(ctx context.Context, subset string) (domain.Result, error) {
	completed := true
	todos, err := b.store.GetTodos(ctx, domain.TodoFilter{Completed: &completed})
	if err != nil {
		return domain.Result{}, err
	}
	if subset == "old" {
		cutoff := b.now().AddDate(0, 0, -oldTodoThresholdDays)
		var old []domain.Todo
		for _, todo := range todos {
			if todo.CreatedAt.Before(cutoff) {
				old = append(old, todo)
			}
		}
		todos = old
	}
	if len(todos) == 0 {
		return domain.Result{Success: true, Message: "No matching tasks to delete."}, nil
	}

	succeeded, failed := b.forEach(todos, func(todo domain.Todo) error {
		return b.store.DeleteTodo(ctx, todo.ID)
	})
	return domain.Result{
		Success:      succeeded > 0,
		Message:      fmt.Sprintf("Deleted %d task(s), %d failed.", succeeded, failed),
		DeletedCount: succeeded,
		FailedCount:  failed,
	}, nil
}

func (b *Matcher) createTodos(ctx context.Context, spec string) (domain.Result, error) {
	var tasks []string
	if template, ok := taskTemplates[spec]; ok {
		tasks = template
	} else {
		for _, part := range strings.Split(spec, ",") {
			if task := strings.TrimSpace(part); task != "" {
				tasks = append(tasks, task)
			}
		}
	}
	if len(tasks) == 0 {
		return domain.SoftFailure(`No tasks to add. Try "bulk add tasks: a, b, c".`), nil
	}

	todos := make([]domain.Todo, len(tasks))
	for i, task := range tasks {
		todos[i] = domain.Todo{Task: task}
	}
	succeeded, failed := b.forEach(todos, func(todo domain.Todo) error {
		_, err := b.store.AddTodo(ctx, domain.NewTodo{Task: todo.Task})
		return err
	})
	return domain.Result{
		Success:      succeeded > 0,
		Message:      fmt.Sprintf("Created %d task(s), %d failed.", succeeded, failed),
		CreatedCount: succeeded,
		FailedCount:  failed,
	}, nil
}

func (b *Matcher) updateTodos(ctx context.Context, subset, target string) (domain.Result, error) {
	todos, err := b.pendingSubset(ctx, subset)
	if err != nil {
		return domain.Result{}, err
	}
	if len(todos) == 0 {
		return domain.Result{Success: true, Message: "No matching tasks to update."}, nil
	}

	patch := patchFromTarget(target, b.now())
	if patch.IsEmpty() {
		return domain.SoftFailure(`I didn't understand the target. Try "... to high priority" or "... to tomorrow".`), nil
	}
	succeeded, failed := b.forEach(todos, func(todo domain.Todo) error {
		_, err := b.store.UpdateTodo(ctx, todo.ID, patch)
		return err
	})
	return domain.Result{
		Success:      succeeded > 0,
		Message:      fmt.Sprintf("Updated %d task(s), %d failed.", succeeded, failed),
		UpdatedCount: succeeded,
		FailedCount:  failed,
	}, nil
}

// analyzeCards computes the inactive or promo-expiring subset and reports it
// without mutating anything.
func (b *Matcher) analyzeCards(ctx context.Context, mode string) (domain.Result, error) {
	cards, err := b.store.GetCreditCards(ctx, domain.CardFilter{})
	if err != nil {
		return domain.Result{}, err
	}

	now := b.now()
	var subset []domain.CreditCard
	switch mode {
	case "expiring":
		window := now.AddDate(0, 0, domain.PromoWindowDays)
		for _, card := range cards {
			expiry, err := time.Parse(domain.ISODateLayout, card.PromoExpiry)
			if err != nil {
				continue
			}
			if !expiry.Before(now) && !expiry.After(window) {
				subset = append(subset, card)
			}
		}
	default: // inactive
		mode = "inactive"
		cutoff := now.AddDate(0, 0, -domain.InactiveThresholdDays)
		for _, card := range cards {
			lastUsed, err := time.Parse(domain.ISODateLayout, card.LastUsed)
			if err != nil || lastUsed.Before(cutoff) {
				subset = append(subset, card)
			}
		}
	}

	if len(subset) == 0 {
		return domain.Result{Success: true, Message: fmt.Sprintf("No %s cards found.", mode)}, nil
	}
	names := make([]string, len(subset))
	for i, card := range subset {
		names[i] = fmt.Sprintf("%s (%s)", card.CardName, card.BankName)
	}
	return domain.Result{
		Success:     true,
		Message:     fmt.Sprintf("%d %s card(s): %s", len(subset), mode, strings.Join(names, ", ")),
		CreditCards: subset,
	}, nil
}

// pendingSubset fetches pending todos and narrows them by the captured
// subset keyword.
func (b *Matcher) pendingSubset(ctx context.Context, subset string) ([]domain.Todo, error) {
	pending := false
	todos, err := b.store.GetTodos(ctx, domain.TodoFilter{Completed: &pending})
	if err != nil {
		return nil, err
	}

	today := domain.ISODate(b.now())
	var out []domain.Todo
	for _, todo := range todos {
		switch subset {
		case "overdue":
			if todo.DueDate != "" && todo.DueDate < today {
				out = append(out, todo)
			}
		case "high priority":
			if todo.Priority == "high" {
				out = append(out, todo)
			}
		default: // "pending" or unqualified
			out = append(out, todo)
		}
	}
	return out, nil
}

func patchFromTarget(target string, now time.Time) domain.TodoPatch {
	var patch domain.TodoPatch
	switch {
	case strings.Contains(target, "high"):
		priority := "high"
		patch.Priority = &priority
	case strings.Contains(target, "low"):
		priority := "low"
		patch.Priority = &priority
	case strings.Contains(target, "tomorrow"):
		due := domain.ISODate(now.AddDate(0, 0, 1))
		patch.DueDate = &due
	case strings.Contains(target, "today"):
		due := domain.ISODate(now)
		patch.DueDate = &due
	}
	return patch
}

// forEach fires one goroutine per record and waits for all, tolerating
// individual failures. Partial failure never aborts the batch.
func (b *Matcher) forEach(todos []domain.Todo, fn func(domain.Todo) error) (succeeded, failed int) {
	results := make(chan error, len(todos))
	var wg sync.WaitGroup
	for _, todo := range todos {
		wg.Add(1)
		go func(t domain.Todo) {
			defer wg.Done()
			results <- fn(t)
		}(todo)
	}
	wg.Wait()
	close(results)

	for err := range results {
		if err == nil {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
