// Package ports defines the interfaces between the intent pipeline core and
// its external collaborators.
//
// Following the ports-and-adapters pattern, the services layer depends only on
// these abstractions; concrete implementations (HTTP facade client, Gemini
// transport, SQLite store) live in the infrastructure layer. Tests substitute
// in-memory stubs.
package ports

import (
	"context"
	"fmt"
	"time"

	"github.com/fintask/fintask-go/internal/domain"
)

// DataStore is the data access facade: uniform CRUD over the two record
// kinds. It is consumed as an external collaborator; this repo never
// reimplements its persistence.
type DataStore interface {
	GetTodos(ctx context.Context, filter domain.TodoFilter) ([]domain.Todo, error)
	AddTodo(ctx context.Context, todo domain.NewTodo) (domain.Todo, error)
	UpdateTodo(ctx context.Context, id string, patch domain.TodoPatch) (domain.Todo, error)
	DeleteTodo(ctx context.Context, id string) error

	GetCreditCards(ctx context.Context, filter domain.CardFilter) ([]domain.CreditCard, error)
	AddCreditCard(ctx context.Context, card domain.CreditCard) (domain.CreditCard, error)
	UpdateCreditCard(ctx context.Context, id string, patch domain.CardPatch) (domain.CreditCard, error)
	DeleteCreditCard(ctx context.Context, id string) error
}

// GenerationHints carries intent metadata into the model router's tier
// selection.
type GenerationHints struct {
	// Complex flags long or analysis-heavy queries.
	Complex bool
	// PreferPro requests a higher-capability tier first.
	PreferPro bool
}

// Generator is the model router boundary: resolve a prompt to raw model text,
// handling tier selection, quotas, caching and failover internally.
type Generator interface {
	Generate(ctx context.Context, prompt string, hints GenerationHints) (string, error)
}

// ModelTransport issues one generation call against a named model and returns
// the raw text answer. Implementations classify HTTP failures into
// *TransportError so the router can react per status.
type ModelTransport interface {
	Generate(ctx context.Context, model string, prompt string) (string, error)
}

// TransportError carries the HTTP status of a failed model call alongside the
// provider's message text.
type TransportError struct {
	StatusCode int
	Message    string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("model transport: HTTP %d: %s", e.StatusCode, e.Message)
}

// LearnedStore persists successful query-to-action resolutions so identical
// future queries can skip the model entirely.
type LearnedStore interface {
	Lookup(query string) (domain.StructuredAction, bool, error)
	Save(query string, action domain.StructuredAction) error
	Prune(olderThan time.Time) (int, error)
	Close() error
}

// SafetyFilter rejects internally generated notification prompts before any
// classification happens.
type SafetyFilter interface {
	Check(query string) error
}

// BulkMatcher recognizes multi-record commands ahead of the model-assisted
// path. The bool is false when no pattern matched.
type BulkMatcher interface {
	Try(ctx context.Context, query string) (domain.Result, bool)
}

// FallbackClassifier is the deterministic, model-free classification path.
type FallbackClassifier interface {
	Classify(ctx context.Context, query string) (domain.Result, error)
}
