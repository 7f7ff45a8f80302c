package matcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/fintask/fintask-go/internal/domain"
)

func matchesTodos(q string) bool {
	return containsAny(q, "todo", "task")
}

// handleTodos resolves a todo-flavored query. Verb precedence: delete > list
// > update > add > default-to-list.
func (m *Matcher) handleTodos(ctx context.Context, q string) (domain.Result, error) {
	switch {
	case containsAny(q, "delete", "remove"):
		return m.deleteTodos(ctx, q)
	case containsAny(q, "show", "get", "list", "find"):
		return m.listTodos(ctx, q)
	case containsAny(q, "update", "change", "mark", "complete", "move", "pin", "unpin"):
		return m.updateTodos(ctx, q)
	case containsAny(q, "add", "create", "dd"):
		return m.addTodo(ctx, q)
	default:
		return m.listTodos(ctx, q)
	}
}

func (m *Matcher) listTodos(ctx context.Context, q string) (domain.Result, error) {
	filter := m.extractTodoFilters(q)
	todos, err := m.store.GetTodos(ctx, filter)
	if err != nil {
		return domain.Result{}, err
	}
	return domain.Result{
		Success: true,
		Message: fmt.Sprintf("Found %d task(s).", len(todos)),
		Todos:   todos,
	}, nil
}

func (m *Matcher) deleteTodos(ctx context.Context, q string) (domain.Result, error) {
	filter := m.extractTodoFilters(q)
	todos, err := m.store.GetTodos(ctx, filter)
	if err != nil {
		return domain.Result{}, err
	}
	if len(todos) == 0 {
		return domain.SoftFailure("No matching tasks found to delete."), nil
	}
	deleted := 0
	for _, todo := range todos {
		if err := m.store.DeleteTodo(ctx, todo.ID); err == nil {
			deleted++
		}
	}
	return domain.Result{
		Success:      deleted > 0,
		Message:      fmt.Sprintf("Deleted %d task(s).", deleted),
		DeletedCount: deleted,
	}, nil
}

func (m *Matcher) updateTodos(ctx context.Context, q string) (domain.Result, error) {
	// "move ... today/tomorrow" shifts every pending task due today to
	// tomorrow in one sweep.
	if strings.Contains(q, "move") && containsAny(q, "today", "tomorrow") {
		return m.shiftTodayToTomorrow(ctx)
	}

	pending := false
	todos, err := m.store.GetTodos(ctx, domain.TodoFilter{Completed: &pending})
	if err != nil {
		return domain.Result{}, err
	}

	// Address the target by task-text containment: the remembered task line
	// must appear verbatim inside the query.
	var matches []domain.Todo
	for _, todo := range todos {
		task := strings.ToLower(strings.TrimSpace(todo.Task))
		if task != "" && strings.Contains(q, task) {
			matches = append(matches, todo)
		}
	}
	if len(matches) == 0 {
		return domain.SoftFailure(`I couldn't tell which task you meant. Try "mark <task text> as done".`), nil
	}
	if !strings.Contains(q, "all") {
		matches = matches[:1]
	}

	patch := patchFromKeywords(q)
	if patch.IsEmpty() {
		return domain.SoftFailure(`I found the task but not what to change. Try "complete", "pin", or "high priority".`), nil
	}

	updated := 0
	for _, todo := range matches {
		if _, err := m.store.UpdateTodo(ctx, todo.ID, patch); err == nil {
			updated++
		}
	}
	return domain.Result{
		Success:      updated > 0,
		Message:      fmt.Sprintf("Updated %d task(s).", updated),
		UpdatedCount: updated,
	}, nil
}

func (m *Matcher) shiftTodayToTomorrow(ctx context.Context) (domain.Result, error) {
	pending := false
	today := domain.ISODate(m.now())
	tomorrow := domain.ISODate(m.now().AddDate(0, 0, 1))

	todos, err := m.store.GetTodos(ctx, domain.TodoFilter{Completed: &pending, DueDate: today})
	if err != nil {
		return domain.Result{}, err
	}
	if len(todos) == 0 {
		return domain.SoftFailure("No pending tasks due today to move."), nil
	}

	moved := 0
	for _, todo := range todos {
		due := tomorrow
		if _, err := m.store.UpdateTodo(ctx, todo.ID, domain.TodoPatch{DueDate: &due}); err == nil {
			moved++
		}
	}
	return domain.Result{
		Success:      moved > 0,
		Message:      fmt.Sprintf("Moved %d task(s) from today to tomorrow.", moved),
		UpdatedCount: moved,
	}, nil
}

func (m *Matcher) addTodo(ctx context.Context, q string) (domain.Result, error) {
	task := parseAddTask(q)
	if task == "" {
		return domain.SoftFailure("What should the new task say?"), nil
	}
	todo, err := m.store.AddTodo(ctx, domain.NewTodo{Task: task})
	if err != nil {
		return domain.Result{}, err
	}
	return domain.Result{
		Success: true,
		Message: fmt.Sprintf("Added %q.", todo.Task),
		Todo:    &todo,
	}, nil
}

// patchFromKeywords derives a partial update from keyword presence. "unpin"
// is checked before "pin" because the former contains the latter.
func patchFromKeywords(q string) domain.TodoPatch {
	var patch domain.TodoPatch
	if containsAny(q, "complete", "done") {
		done := true
		patch.Completed = &done
	}
	switch {
	case strings.Contains(q, "unpin"):
		pinned := false
		patch.Pinned = &pinned
	case strings.Contains(q, "pin"):
		pinned := true
		patch.Pinned = &pinned
	}
	switch {
	case strings.Contains(q, "high"):
		priority := "high"
		patch.Priority = &priority
	case strings.Contains(q, "low"):
		priority := "low"
		patch.Priority = &priority
	}
	return patch
}

// extractTodoFilters builds the facade filter for a todo query. Completion
// defaults to pending unless the text says otherwise, and only the first
// matching date clause applies.
func (m *Matcher) extractTodoFilters(q string) domain.TodoFilter {
	completed := containsAny(q, "completed", "done")
	filter := domain.TodoFilter{Completed: &completed}

	if strings.Contains(q, "pinned") {
		pinned := true
		filter.Pinned = &pinned
	}

	now := m.now()
	switch {
	case strings.Contains(q, "today"):
		filter.DueDate = domain.ISODate(now)
	case strings.Contains(q, "tomorrow"):
		filter.DueDate = domain.ISODate(now.AddDate(0, 0, 1))
	case containsAny(q, "week old", "weeks old"):
		filter.DueDateBefore = domain.ISODate(now.AddDate(0, 0, -7))
	case strings.Contains(q, "overdue"):
		filter.DueDateBefore = domain.ISODate(now)
	case containsAny(q, "without due", "no due"):
		filter.NoDueDate = true
	}
	return filter
}

// parseAddTask strips the leading add/create verb (tolerating the "dd" typo)
// plus optional article, "todo"/"task" noun, and "to" connective, leaving the
// task text.
func parseAddTask(q string) string {
	fields := strings.Fields(q)
	i := 0
	if i < len(fields) && (fields[i] == "add" || fields[i] == "create" || fields[i] == "dd") {
		i++
	}
	if i < len(fields) && (fields[i] == "the" || fields[i] == "a") {
		i++
	}
	if i < len(fields) && (fields[i] == "todo" || fields[i] == "task") {
		i++
	}
	if i < len(fields) && fields[i] == "to" {
		i++
	}
	return strings.TrimSpace(strings.Join(fields[i:], " "))
}
