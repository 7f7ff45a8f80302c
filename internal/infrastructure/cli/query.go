package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fintask/fintask-go/internal/domain"
)

func newQueryCommand(l *loader) *cobra.Command {
	var (
		asJSON  bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "query [natural language]",
		Short: "Run a single query through the pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := l.get()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			result := container.Chat.Handle(ctx, strings.Join(args, " "))
			if asJSON {
				out, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				cmd.Println(string(out))
				return nil
			}
			renderResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "abort the query after this duration")
	return cmd
}

// renderResult prints a human-readable view of a pipeline result.
func renderResult(cmd *cobra.Command, result domain.Result) {
	if result.Message != "" {
		cmd.Println(result.Message)
	}
	for _, todo := range result.Todos {
		cmd.Println("  " + formatTodo(todo))
	}
	if result.Todo != nil && len(result.Todos) == 0 {
		cmd.Println("  " + formatTodo(*result.Todo))
	}
	for _, card := range result.CreditCards {
		cmd.Printf("  %s (%s)\n", card.CardName, card.BankName)
	}
	if result.CreditCard != nil && len(result.CreditCards) == 0 {
		cmd.Printf("  %s (%s)\n", result.CreditCard.CardName, result.CreditCard.BankName)
	}
	if in := result.Insights; in != nil {
		for _, name := range in.InactiveCards {
			cmd.Printf("  inactive: %s\n", name)
		}
		for _, name := range in.PromoExpiringCards {
			cmd.Printf("  promo ending: %s\n", name)
		}
	}
}

func formatTodo(todo domain.Todo) string {
	mark := "[ ]"
	if todo.Completed {
		mark = "[x]"
	}
	line := fmt.Sprintf("%s %s", mark, todo.Task)
	if todo.DueDate != "" {
		line += " (due " + todo.DueDate + ")"
	}
	if todo.Pinned {
		line += " *"
	}
	return line
}
