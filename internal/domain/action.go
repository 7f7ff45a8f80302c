// Package domain defines the core entities and value objects of the fintask
// intent pipeline.
//
// This file contains the structured-action model that every classification
// path (model-assisted, fallback pattern matching, bulk matching) converges
// on before touching the data access facade. The domain layer is independent
// of infrastructure concerns and represents pure business logic.
package domain

import (
	"fmt"
	"strconv"
)

// ActionName enumerates every operation the pipeline can dispatch.
type ActionName string

const (
	ActionGetTodos          ActionName = "get_todos"
	ActionAddTodo           ActionName = "add_todo"
	ActionUpdateTodo        ActionName = "update_todo"
	ActionDeleteTodos       ActionName = "delete_todos"
	ActionGetCreditCards    ActionName = "get_credit_cards"
	ActionAddCreditCard     ActionName = "add_credit_card"
	ActionUpdateCreditCard  ActionName = "update_credit_card"
	ActionDeleteCreditCards ActionName = "delete_credit_cards"
	ActionGetInsights       ActionName = "get_insights"
	ActionUIOperation       ActionName = "ui_operation"
)

// StructuredAction is the canonical {action, params} pair. Params fields not
// relevant to the action are left at their zero value; absent filter fields
// mean "no filter".
type StructuredAction struct {
	Action ActionName   `json:"action"`
	Params ActionParams `json:"params"`
}

// ActionParams is the typed parameter record shared across actions. Optional
// booleans are pointers so "unset" and "false" stay distinguishable.
type ActionParams struct {
	// Todo addressing and payload.
	Task     string     `json:"task,omitempty"`
	TodoID   string     `json:"id,omitempty"`
	TaskName string     `json:"task_name,omitempty"`
	Update   *TodoPatch `json:"update,omitempty"`

	// Todo filters.
	Completed     *bool  `json:"completed,omitempty"`
	Pinned        *bool  `json:"pinned,omitempty"`
	Priority      string `json:"priority,omitempty"`
	DueDate       string `json:"due_date,omitempty"`
	DueDateBefore string `json:"due_date_before,omitempty"`
	NoDueDate     *bool  `json:"no_due_date,omitempty"`
	UpdateAll     bool   `json:"update_all,omitempty"`

	// Card addressing, payload and filters.
	CardID        string `json:"card_id,omitempty"`
	CardName      string `json:"card_name,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
	InactiveOnly  *bool  `json:"inactive_only,omitempty"`
	PromoExpiring *bool  `json:"promo_expiring,omitempty"`

	// UI operations.
	UIAction string `json:"ui_action,omitempty"`
	ViewMode string `json:"view_mode,omitempty"`
}

// allowedParams lists, per action, the param keys the parse boundary accepts.
// Keys outside the set are a validation error rather than silently tolerated.
var allowedParams = map[ActionName]map[string]bool{
	ActionGetTodos: {
		"completed": true, "pinned": true, "priority": true,
		"due_date": true, "due_date_before": true, "no_due_date": true,
	},
	ActionAddTodo: {
		"task": true, "priority": true, "due_date": true, "pinned": true,
	},
	ActionUpdateTodo: {
		"id": true, "task_name": true, "update": true, "update_all": true,
		"due_date": true, "completed": true, "pinned": true, "priority": true,
	},
	ActionDeleteTodos: {
		"completed": true, "pinned": true, "priority": true,
		"due_date": true, "due_date_before": true, "no_due_date": true,
	},
	ActionGetCreditCards: {
		"card_name": true, "bank_name": true, "inactive_only": true, "promo_expiring": true,
	},
	ActionAddCreditCard: {
		"card_name": true, "bank_name": true,
	},
	ActionUpdateCreditCard: {
		"card_id": true, "card_name": true, "bank_name": true,
	},
	ActionDeleteCreditCards: {
		"card_name": true, "bank_name": true, "inactive_only": true, "promo_expiring": true,
	},
	ActionGetInsights: {},
	ActionUIOperation: {
		"ui_action": true, "view_mode": true,
	},
}

// KnownAction reports whether name is part of the closed action enum.
func KnownAction(name ActionName) bool {
	_, ok := allowedParams[name]
	return ok
}

// ParseAction converts a loosely typed {action, params} pair (as decoded from
// model output) into a validated StructuredAction. Scalar params are coerced
// (numbers and booleans arriving as JSON values become their string/bool
// forms); unknown actions and unknown param keys are rejected here so that
// downstream execution never sees an unvalidated bag.
func ParseAction(name string, params map[string]interface{}) (StructuredAction, error) {
	action := ActionName(name)
	allowed, ok := allowedParams[action]
	if !ok {
		return StructuredAction{}, fmt.Errorf("unknown action %q", name)
	}

	out := StructuredAction{Action: action}
	for key, value := range params {
		if !allowed[key] {
			return StructuredAction{}, fmt.Errorf("action %s does not accept param %q", action, key)
		}
		if err := assignParam(&out.Params, key, value); err != nil {
			return StructuredAction{}, fmt.Errorf("param %q: %w", key, err)
		}
	}
	return out, nil
}

func assignParam(p *ActionParams, key string, value interface{}) error {
	switch key {
	case "task":
		p.Task = coerceString(value)
	case "id":
		p.TodoID = coerceString(value)
	case "task_name":
		p.TaskName = coerceString(value)
	case "update":
		patch, err := coercePatch(value)
		if err != nil {
			return err
		}
		p.Update = patch
	case "completed":
		p.Completed = coerceBool(value)
	case "pinned":
		p.Pinned = coerceBool(value)
	case "priority":
		p.Priority = coerceString(value)
	case "due_date":
		p.DueDate = coerceString(value)
	case "due_date_before":
		p.DueDateBefore = coerceString(value)
	case "no_due_date":
		p.NoDueDate = coerceBool(value)
	case "update_all":
		if b := coerceBool(value); b != nil {
			p.UpdateAll = *b
		}
	case "card_id":
		p.CardID = coerceString(value)
	case "card_name":
		p.CardName = coerceString(value)
	case "bank_name":
		p.BankName = coerceString(value)
	case "inactive_only":
		p.InactiveOnly = coerceBool(value)
	case "promo_expiring":
		p.PromoExpiring = coerceBool(value)
	case "ui_action":
		p.UIAction = coerceString(value)
	case "view_mode":
		p.ViewMode = coerceString(value)
	default:
		return fmt.Errorf("unhandled key %q", key)
	}
	return nil
}

func coerceString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func coerceBool(value interface{}) *bool {
	var b bool
	switch v := value.(type) {
	case bool:
		b = v
	case string:
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil
		}
		b = parsed
	case float64:
		b = v != 0
	default:
		return nil
	}
	return &b
}

func coercePatch(value interface{}) (*TodoPatch, error) {
	obj, ok := value.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected object, got %T", value)
	}
	patch := &TodoPatch{}
	for key, raw := range obj {
		switch key {
		case "task":
			s := coerceString(raw)
			patch.Task = &s
		case "completed":
			patch.Completed = coerceBool(raw)
		case "pinned":
			patch.Pinned = coerceBool(raw)
		case "priority":
			s := coerceString(raw)
			patch.Priority = &s
		case "due_date":
			s := coerceString(raw)
			patch.DueDate = &s
		default:
			return nil, fmt.Errorf("unknown update field %q", key)
		}
	}
	return patch, nil
}
