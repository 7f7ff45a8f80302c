package services

import (
	"strings"
	"text/template"
	"time"

	"github.com/fintask/fintask-go/internal/domain"
)

// classifierPrompt instructs the model to answer with exactly one JSON
// object drawn from the closed action vocabulary. The worked examples cover
// every action so the model has a template for each shape.
const classifierPrompt = `You are the intent classifier for a personal task and credit card manager.
Today's date is {{.Today}} ({{.Weekday}}).

Answer with a single JSON object of the form {"action": "...", "params": {...}}
and nothing else. No prose, no markdown fences.

Valid actions:
  get_todos, add_todo, update_todo, delete_todos,
  get_credit_cards, add_credit_card, update_credit_card, delete_credit_cards,
  get_insights, ui_operation

Rules:
- Dates are ISO (YYYY-MM-DD). Resolve "today" and "tomorrow" yourself using today's date.
- Omit params you are not sure about; never invent ids.
- For update_todo, address the task by "task_name" (a fragment of its text) unless an id was given.
- "update_all" with a "due_date" updates every pending task due that day.
- For ui_operation use ui_action "view_switch" with view_mode "table" or "cards".

Examples:
  "show my pending tasks"
  {"action": "get_todos", "params": {"completed": false}}

  "list completed todos"
  {"action": "get_todos", "params": {"completed": true}}

  "show overdue tasks"
  {"action": "get_todos", "params": {"completed": false, "due_date_before": "{{.Today}}"}}

  "add a todo to pay rent tomorrow"
  {"action": "add_todo", "params": {"task": "pay rent", "due_date": "{{.Tomorrow}}"}}

  "mark buy milk as done"
  {"action": "update_todo", "params": {"task_name": "buy milk", "update": {"completed": true}}}

  "move everything due today to tomorrow"
  {"action": "update_todo", "params": {"update_all": true, "due_date": "{{.Today}}", "update": {"due_date": "{{.Tomorrow}}"}}}

  "delete my completed todos"
  {"action": "delete_todos", "params": {"completed": true}}

  "show me my chase cards"
  {"action": "get_credit_cards", "params": {"bank_name": "Chase"}}

  "add my new amex gold card"
  {"action": "add_credit_card", "params": {"card_name": "Gold", "bank_name": "American Express"}}

  "rename my chase card to Sapphire"
  {"action": "update_credit_card", "params": {"bank_name": "Chase", "card_name": "Sapphire"}}

  "remove the discover card"
  {"action": "delete_credit_cards", "params": {"bank_name": "Discover"}}

  "give me insights about my finances"
  {"action": "get_insights", "params": {}}

  "switch to table view"
  {"action": "ui_operation", "params": {"ui_action": "view_switch", "view_mode": "table"}}

User query: {{.Query}}
`

var promptTmpl = template.Must(template.New("classifier").Parse(classifierPrompt))

// buildPrompt renders the classification prompt for query with today's date
// resolved, so the model can ground relative-date language.
func buildPrompt(query string, now time.Time) (string, error) {
	data := struct {
		Today    string
		Tomorrow string
		Weekday  string
		Query    string
	}{
		Today:    domain.ISODate(now),
		Tomorrow: domain.ISODate(now.AddDate(0, 0, 1)),
		Weekday:  now.Weekday().String(),
		Query:    strings.TrimSpace(query),
	}

	var sb strings.Builder
	if err := promptTmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
