// Package facade is the HTTP client for the data access facade that owns todo
// and credit card persistence. This repo never reimplements that storage; all
// record operations go through this client.
package facade

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/fintask/fintask-go/internal/domain"
	"github.com/fintask/fintask-go/internal/ports"
)

const (
	requestTimeout = 15 * time.Second
	maxRetryWait   = 5 * time.Second
)

// Client talks to the facade's REST surface. Reads and deletes are retried
// with exponential backoff on network failures and 5xx answers; 4xx answers
// are returned to the caller as-is.
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

// NewClient builds a facade client against baseURL.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout).
		SetHeader("Accept", "application/json")
	return &Client{http: http, log: log}
}

type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("facade: HTTP %d: %s", e.Status, e.Message)
}

// do runs fn under exponential backoff. 4xx responses abort the retry loop
// immediately since repeating them cannot succeed.
func (c *Client) do(ctx context.Context, op string, fn func() error) error {
	policy := backoff.WithContext(newPolicy(), ctx)
	err := backoff.Retry(func() error {
		err := fn()
		if err == nil {
			return nil
		}
		var apiErr *apiError
		if isClientError(err, &apiErr) {
			return backoff.Permanent(err)
		}
		c.log.Debug().Str("op", op).Err(err).Msg("facade call retrying")
		return err
	}, policy)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func isClientError(err error, target **apiError) bool {
	if apiErr, ok := err.(*apiError); ok && apiErr.Status >= 400 && apiErr.Status < 500 {
		*target = apiErr
		return true
	}
	return false
}

func newPolicy() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = maxRetryWait
	policy.MaxElapsedTime = 20 * time.Second
	return policy
}

func checkResponse(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	return &apiError{Status: resp.StatusCode(), Message: string(resp.Body())}
}

func todoQuery(filter domain.TodoFilter) map[string]string {
	params := map[string]string{}
	if filter.Completed != nil {
		params["completed"] = strconv.FormatBool(*filter.Completed)
	}
	if filter.Pinned != nil {
		params["pinned"] = strconv.FormatBool(*filter.Pinned)
	}
	if filter.Priority != "" {
		params["priority"] = filter.Priority
	}
	if filter.DueDate != "" {
		params["due_date"] = filter.DueDate
	}
	if filter.DueDateBefore != "" {
		params["due_date_before"] = filter.DueDateBefore
	}
	if filter.NoDueDate {
		params["no_due_date"] = "true"
	}
	return params
}

func cardQuery(filter domain.CardFilter) map[string]string {
	params := map[string]string{}
	if filter.BankName != "" {
		params["bank_name"] = filter.BankName
	}
	if filter.CardName != "" {
		params["card_name"] = filter.CardName
	}
	if filter.InactiveOnly {
		params["inactive_only"] = "true"
	}
	if filter.PromoExpiring {
		params["promo_expiring"] = "true"
	}
	return params
}

// GetTodos lists tasks matching filter.
func (c *Client) GetTodos(ctx context.Context, filter domain.TodoFilter) ([]domain.Todo, error) {
	var todos []domain.Todo
	err := c.do(ctx, "get todos", func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(todoQuery(filter)).
			SetResult(&todos).
			Get("/todos")
		if err != nil {
			return err
		}
		return checkResponse(resp)
	})
	return todos, err
}

// AddTodo creates a task and returns the stored record.
func (c *Client) AddTodo(ctx context.Context, todo domain.NewTodo) (domain.Todo, error) {
	var created domain.Todo
	err := c.do(ctx, "add todo", func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(todo).
			SetResult(&created).
			Post("/todos")
		if err != nil {
			return err
		}
		return checkResponse(resp)
	})
	return created, err
}

// UpdateTodo applies patch to the task with the given id.
func (c *Client) UpdateTodo(ctx context.Context, id string, patch domain.TodoPatch) (domain.Todo, error) {
	var updated domain.Todo
	err := c.do(ctx, "update todo", func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(patch).
			SetResult(&updated).
			Patch("/todos/" + id)
		if err != nil {
			return err
		}
		return checkResponse(resp)
	})
	return updated, err
}

// DeleteTodo removes the task with the given id.
func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	return c.do(ctx, "delete todo", func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			Delete("/todos/" + id)
		if err != nil {
			return err
		}
		return checkResponse(resp)
	})
}

// GetCreditCards lists cards matching filter.
func (c *Client) GetCreditCards(ctx context.Context, filter domain.CardFilter) ([]domain.CreditCard, error) {
	var cards []domain.CreditCard
	err := c.do(ctx, "get cards", func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(cardQuery(filter)).
			SetResult(&cards).
			Get("/cards")
		if err != nil {
			return err
		}
		return checkResponse(resp)
	})
	return cards, err
}

// AddCreditCard creates a card and returns the stored record.
func (c *Client) AddCreditCard(ctx context.Context, card domain.CreditCard) (domain.CreditCard, error) {
	var created domain.CreditCard
	err := c.do(ctx, "add card", func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(card).
			SetResult(&created).
			Post("/cards")
		if err != nil {
			return err
		}
		return checkResponse(resp)
	})
	return created, err
}

// UpdateCreditCard applies patch to the card with the given id.
func (c *Client) UpdateCreditCard(ctx context.Context, id string, patch domain.CardPatch) (domain.CreditCard, error) {
	var updated domain.CreditCard
	err := c.do(ctx, "update card", func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(patch).
			SetResult(&updated).
			Patch("/cards/" + id)
		if err != nil {
			return err
		}
		return checkResponse(resp)
	})
	return updated, err
}

// DeleteCreditCard removes the card with the given id.
func (c *Client) DeleteCreditCard(ctx context.Context, id string) error {
	return c.do(ctx, "delete card", func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			Delete("/cards/" + id)
		if err != nil {
			return err
		}
		return checkResponse(resp)
	})
}

var _ ports.DataStore = (*Client)(nil)
