package domain

import "time"

// Todo is the task record served by the data access facade. Dates are ISO
// calendar days (2006-01-02); an empty DueDate means the task has no due date.
type Todo struct {
	ID        string    `json:"id"`
	Task      string    `json:"task"`
	Completed bool      `json:"completed"`
	Pinned    bool      `json:"pinned"`
	Priority  string    `json:"priority,omitempty"`
	DueDate   string    `json:"due_date,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTodo carries the fields accepted when creating a task.
type NewTodo struct {
	Task     string `json:"task"`
	Priority string `json:"priority,omitempty"`
	DueDate  string `json:"due_date,omitempty"`
	Pinned   bool   `json:"pinned,omitempty"`
}

// TodoPatch is a partial update; nil fields are left untouched.
type TodoPatch struct {
	Task      *string `json:"task,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
	Pinned    *bool   `json:"pinned,omitempty"`
	Priority  *string `json:"priority,omitempty"`
	DueDate   *string `json:"due_date,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p TodoPatch) IsEmpty() bool {
	return p.Task == nil && p.Completed == nil && p.Pinned == nil &&
		p.Priority == nil && p.DueDate == nil
}

// TodoFilter mirrors the facade's todo filter vocabulary. Zero values mean
// "no filter" except NoDueDate, which explicitly selects undated tasks.
type TodoFilter struct {
	Completed     *bool  `json:"completed,omitempty"`
	Pinned        *bool  `json:"pinned,omitempty"`
	Priority      string `json:"priority,omitempty"`
	DueDate       string `json:"due_date,omitempty"`
	DueDateBefore string `json:"due_date_before,omitempty"`
	NoDueDate     bool   `json:"no_due_date,omitempty"`
}

// CreditCard is the card record served by the data access facade.
type CreditCard struct {
	ID          string    `json:"id"`
	CardName    string    `json:"card_name"`
	BankName    string    `json:"bank_name"`
	LastUsed    string    `json:"last_used,omitempty"`
	PromoExpiry string    `json:"promo_expiry,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CardPatch is a partial card update; nil fields are left untouched.
type CardPatch struct {
	CardName    *string `json:"card_name,omitempty"`
	BankName    *string `json:"bank_name,omitempty"`
	LastUsed    *string `json:"last_used,omitempty"`
	PromoExpiry *string `json:"promo_expiry,omitempty"`
}

// CardFilter mirrors the facade's card filter vocabulary.
type CardFilter struct {
	BankName      string `json:"bank_name,omitempty"`
	CardName      string `json:"card_name,omitempty"`
	InactiveOnly  bool   `json:"inactive_only,omitempty"`
	PromoExpiring bool   `json:"promo_expiring,omitempty"`
}

// Card-health thresholds shared by insights and bulk analysis.
const (
	InactiveThresholdDays = 90
	PromoWindowDays       = 30
)

// Insights summarizes pending work and card health, computed client-side from
// facade data rather than asked of the model.
type Insights struct {
	PendingTodos       int      `json:"pending_todos"`
	OverdueTodos       int      `json:"overdue_todos"`
	DueToday           int      `json:"due_today"`
	InactiveCards      []string `json:"inactive_cards,omitempty"`
	PromoExpiringCards []string `json:"promo_expiring_cards,omitempty"`
	Summary            string   `json:"summary"`
}
