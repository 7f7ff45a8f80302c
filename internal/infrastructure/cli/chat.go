package cli

import (
	"bufio"
	"strings"

	"github.com/spf13/cobra"
)

// chatHistoryLimit bounds the in-memory session history ring.
const chatHistoryLimit = 50

func newChatCommand(l *loader) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := l.get()
			if err != nil {
				return err
			}
			cmd.Println("fintask chat. Type a request, \"history\" to review, or \"exit\" to quit.")

			var history []string
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				cmd.Print("> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				switch {
				case line == "":
					continue
				case line == "exit" || line == "quit":
					return nil
				case line == "history":
					for i, entry := range history {
						cmd.Printf("%3d  %s\n", i+1, entry)
					}
					continue
				}

				history = append(history, line)
				if len(history) > chatHistoryLimit {
					history = history[len(history)-chatHistoryLimit:]
				}

				result := container.Chat.Handle(cmd.Context(), line)
				renderResult(cmd, result)
			}
		},
	}
}
