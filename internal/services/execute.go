package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fintask/fintask-go/internal/domain"
)

// ExecuteAction dispatches a validated StructuredAction against the data
// facade. Relative date words are resolved to concrete calendar dates here,
// immediately before dispatch, so remembered actions stay relative.
func (p *IntentProcessor) ExecuteAction(ctx context.Context, action domain.StructuredAction) (domain.Result, error) {
	params := p.normalizeDates(action.Params)

	switch action.Action {
	case domain.ActionGetTodos:
		return p.getTodos(ctx, params)
	case domain.ActionAddTodo:
		return p.addTodo(ctx, params)
	case domain.ActionUpdateTodo:
		return p.updateTodo(ctx, params)
	case domain.ActionDeleteTodos:
		return p.deleteTodos(ctx, params)
	case domain.ActionGetCreditCards:
		return p.getCreditCards(ctx, params)
	case domain.ActionAddCreditCard:
		return p.addCreditCard(ctx, params)
	case domain.ActionUpdateCreditCard:
		return p.updateCreditCard(ctx, params)
	case domain.ActionDeleteCreditCards:
		return p.deleteCreditCards(ctx, params)
	case domain.ActionGetInsights:
		return p.computeInsights(ctx)
	case domain.ActionUIOperation:
		return p.uiOperation(params)
	default:
		return domain.Result{}, fmt.Errorf("unknown action %q", action.Action)
	}
}

// normalizeDates resolves "today"/"tomorrow" in every date-bearing param.
func (p *IntentProcessor) normalizeDates(params domain.ActionParams) domain.ActionParams {
	now := p.now()
	if params.DueDate != "" {
		params.DueDate = domain.ResolveRelativeDate(params.DueDate, now)
	}
	if params.DueDateBefore != "" {
		params.DueDateBefore = domain.ResolveRelativeDate(params.DueDateBefore, now)
	}
	if params.Update != nil && params.Update.DueDate != nil {
		resolved := domain.ResolveRelativeDate(*params.Update.DueDate, now)
		params.Update = clonePatch(params.Update)
		params.Update.DueDate = &resolved
	}
	return params
}

func clonePatch(patch *domain.TodoPatch) *domain.TodoPatch {
	copied := *patch
	return &copied
}

func todoFilterFromParams(params domain.ActionParams) domain.TodoFilter {
	return domain.TodoFilter{
		Completed:     params.Completed,
		Pinned:        params.Pinned,
		Priority:      params.Priority,
		DueDate:       params.DueDate,
		DueDateBefore: params.DueDateBefore,
		NoDueDate:     params.NoDueDate != nil && *params.NoDueDate,
	}
}

func cardFilterFromParams(params domain.ActionParams) domain.CardFilter {
	return domain.CardFilter{
		BankName:      params.BankName,
		CardName:      params.CardName,
		InactiveOnly:  params.InactiveOnly != nil && *params.InactiveOnly,
		PromoExpiring: params.PromoExpiring != nil && *params.PromoExpiring,
	}
}

func (p *IntentProcessor) getTodos(ctx context.Context, params domain.ActionParams) (domain.Result, error) {
	todos, err := p.Store.GetTodos(ctx, todoFilterFromParams(params))
	if err != nil {
		return domain.Result{}, err
	}
	return domain.Result{
		Success: true,
		Message: fmt.Sprintf("Found %d task(s).", len(todos)),
		Todos:   todos,
	}, nil
}

func (p *IntentProcessor) addTodo(ctx context.Context, params domain.ActionParams) (domain.Result, error) {
	if strings.TrimSpace(params.Task) == "" {
		return domain.SoftFailure("The new task needs a description."), nil
	}
	todo, err := p.Store.AddTodo(ctx, domain.NewTodo{
		Task:     params.Task,
		Priority: params.Priority,
		DueDate:  params.DueDate,
		Pinned:   params.Pinned != nil && *params.Pinned,
	})
	if err != nil {
		return domain.Result{}, err
	}
	return domain.Result{
		Success: true,
		Message: fmt.Sprintf("Added %q.", todo.Task),
		Todo:    &todo,
	}, nil
}

// updateTodo supports three addressing modes with first-applicable-mode-wins
// precedence: explicit id, then fuzzy task-name lookup, then bulk-by-date.
// Supplying more than one is undefined in the source system; the precedence
// here is a deliberate default.
func (p *IntentProcessor) updateTodo(ctx context.Context, params domain.ActionParams) (domain.Result, error) {
	patch := updatePatch(params)
	if patch.IsEmpty() {
		return domain.SoftFailure("Nothing to update on that task."), nil
	}

	switch {
	case params.TodoID != "":
		todo, err := p.Store.UpdateTodo(ctx, params.TodoID, patch)
		if err != nil {
			return domain.Result{}, err
		}
		return domain.Result{
			Success:      true,
			Message:      fmt.Sprintf("Updated %q.", todo.Task),
			Todo:         &todo,
			UpdatedCount: 1,
		}, nil

	case params.TaskName != "":
		todo, err := p.findPendingTodo(ctx, params.TaskName)
		if err != nil {
			return domain.Result{}, err
		}
		updated, err := p.Store.UpdateTodo(ctx, todo.ID, patch)
		if err != nil {
			return domain.Result{}, err
		}
		return domain.Result{
			Success:      true,
			Message:      fmt.Sprintf("Updated %q.", updated.Task),
			Todo:         &updated,
			UpdatedCount: 1,
		}, nil

	case params.UpdateAll:
		return p.bulkUpdateByDate(ctx, params, patch)

	default:
		return domain.Result{}, errors.New("update_todo needs an id, a task_name, or update_all")
	}
}

func updatePatch(params domain.ActionParams) domain.TodoPatch {
	if params.Update != nil {
		return *params.Update
	}
	patch := domain.TodoPatch{
		Completed: params.Completed,
		Pinned:    params.Pinned,
	}
	if params.Priority != "" {
		priority := params.Priority
		patch.Priority = &priority
	}
	return patch
}

// findPendingTodo is the fuzzy task-name lookup: first pending todo whose
// text contains the given name (case-insensitive).
func (p *IntentProcessor) findPendingTodo(ctx context.Context, name string) (domain.Todo, error) {
	pending := false
	todos, err := p.Store.GetTodos(ctx, domain.TodoFilter{Completed: &pending})
	if err != nil {
		return domain.Todo{}, err
	}
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, todo := range todos {
		if strings.Contains(strings.ToLower(todo.Task), needle) {
			return todo, nil
		}
	}
	return domain.Todo{}, fmt.Errorf("todo %q: %w", name, domain.ErrNoMatch)
}

// bulkUpdateByDate applies one patch to every pending todo matching the
// source due-date filter and reports a count.
func (p *IntentProcessor) bulkUpdateByDate(ctx context.Context, params domain.ActionParams, patch domain.TodoPatch) (domain.Result, error) {
	pending := false
	filter := domain.TodoFilter{Completed: &pending, DueDate: params.DueDate}
	todos, err := p.Store.GetTodos(ctx, filter)
	if err != nil {
		return domain.Result{}, err
	}
	if len(todos) == 0 {
		return domain.SoftFailure("No tasks matched that date."), nil
	}

	updated := 0
	for _, todo := range todos {
		if _, err := p.Store.UpdateTodo(ctx, todo.ID, patch); err == nil {
			updated++
		}
	}
	return domain.Result{
		Success:      updated > 0,
		Message:      fmt.Sprintf("Updated %d task(s).", updated),
		UpdatedCount: updated,
	}, nil
}

// deleteTodos resolves the filter to a result set and deletes each member
// individually. Zero matches is a soft failure, not an error.
func (p *IntentProcessor) deleteTodos(ctx context.Context, params domain.ActionParams) (domain.Result, error) {
	todos, err := p.Store.GetTodos(ctx, todoFilterFromParams(params))
	if err != nil {
		return domain.Result{}, err
	}
	if len(todos) == 0 {
		return domain.SoftFailure("No matching tasks found to delete."), nil
	}

	deleted := 0
	for _, todo := range todos {
		if err := p.Store.DeleteTodo(ctx, todo.ID); err == nil {
			deleted++
		}
	}
	return domain.Result{
		Success:      deleted > 0,
		Message:      fmt.Sprintf("Deleted %d task(s).", deleted),
		DeletedCount: deleted,
	}, nil
}

func (p *IntentProcessor) getCreditCards(ctx context.Context, params domain.ActionParams) (domain.Result, error) {
	cards, err := p.Store.GetCreditCards(ctx, cardFilterFromParams(params))
	if err != nil {
		return domain.Result{}, err
	}
	return domain.Result{
		Success:     true,
		Message:     fmt.Sprintf("Found %d card(s).", len(cards)),
		CreditCards: cards,
	}, nil
}

func (p *IntentProcessor) addCreditCard(ctx context.Context, params domain.ActionParams) (domain.Result, error) {
	if params.CardName == "" && params.BankName == "" {
		return domain.SoftFailure("The new card needs at least a name or a bank."), nil
	}
	card, err := p.Store.AddCreditCard(ctx, domain.CreditCard{
		CardName: params.CardName,
		BankName: params.BankName,
	})
	if err != nil {
		return domain.Result{}, err
	}
	return domain.Result{
		Success:    true,
		Message:    fmt.Sprintf("Added %s (%s).", card.CardName, card.BankName),
		CreditCard: &card,
	}, nil
}

// updateCreditCard addresses by explicit id, else by bank-name lookup (first
// match). card_name carries the new name in the lookup case.
func (p *IntentProcessor) updateCreditCard(ctx context.Context, params domain.ActionParams) (domain.Result, error) {
	id := params.CardID
	if id == "" {
		if params.BankName == "" {
			return domain.Result{}, errors.New("update_credit_card needs a card_id or bank_name")
		}
		cards, err := p.Store.GetCreditCards(ctx, domain.CardFilter{BankName: params.BankName})
		if err != nil {
			return domain.Result{}, err
		}
		if len(cards) == 0 {
			return domain.Result{}, fmt.Errorf("card for bank %q: %w", params.BankName, domain.ErrNoMatch)
		}
		id = cards[0].ID
	}

	var patch domain.CardPatch
	if params.CardName != "" {
		name := params.CardName
		patch.CardName = &name
	}
	card, err := p.Store.UpdateCreditCard(ctx, id, patch)
	if err != nil {
		return domain.Result{}, err
	}
	return domain.Result{
		Success:      true,
		Message:      fmt.Sprintf("Updated %s.", card.CardName),
		CreditCard:   &card,
		UpdatedCount: 1,
	}, nil
}

func (p *IntentProcessor) deleteCreditCards(ctx context.Context, params domain.ActionParams) (domain.Result, error) {
	cards, err := p.Store.GetCreditCards(ctx, cardFilterFromParams(params))
	if err != nil {
		return domain.Result{}, err
	}
	if len(cards) == 0 {
		return domain.SoftFailure("No matching cards found to delete."), nil
	}

	deleted := 0
	for _, card := range cards {
		if err := p.Store.DeleteCreditCard(ctx, card.ID); err == nil {
			deleted++
		}
	}
	return domain.Result{
		Success:      deleted > 0,
		Message:      fmt.Sprintf("Deleted %d card(s).", deleted),
		DeletedCount: deleted,
	}, nil
}

// uiOperation never touches the data facade: it either acknowledges a view
// switch or points the user at the UI controls.
func (p *IntentProcessor) uiOperation(params domain.ActionParams) (domain.Result, error) {
	if params.UIAction == "view_switch" {
		mode := params.ViewMode
		if mode != domain.ViewModeTable {
			mode = domain.ViewModeCards
		}
		return domain.Result{
			Success:  true,
			Message:  "Switched to " + mode + " view.",
			UIAction: domain.UISwitchView,
			ViewMode: mode,
		}, nil
	}
	return domain.Result{
		Success: true,
		Message: "Please use the controls above the list for that.",
	}, nil
}
