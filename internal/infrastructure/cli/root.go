// Package cli wires the cobra command tree.
package cli

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/fintask/fintask-go/internal/app"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// loader defers container construction until a command actually runs, so
// help, completion, and usage errors never read the environment or open the
// learned-query database.
type loader struct {
	opts      Options
	once      sync.Once
	container *app.Container
	err       error
}

func (l *loader) get() (*app.Container, error) {
	l.once.Do(func() {
		l.container, l.err = app.BuildContainer(l.opts.Verbose)
	})
	return l.container, l.err
}

func (l *loader) close() {
	if l.container != nil {
		l.container.Close()
	}
}

// NewRootCmd builds the root command. A bare invocation with arguments treats
// them as a one-shot query.
func NewRootCmd(opts Options) *cobra.Command {
	l := &loader{opts: opts}

	queryCmd := newQueryCommand(l)

	root := &cobra.Command{
		Use:   "fintask [query]",
		Short: "fintask - natural language todo and credit card assistant",
		Long:  "fintask routes natural language through a tiered model pipeline with deterministic fallbacks to manage tasks and credit cards.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			queryCmd.SetArgs([]string{strings.Join(args, " ")})
			return queryCmd.ExecuteContext(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			l.close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(queryCmd)
	root.AddCommand(newChatCommand(l))
	root.AddCommand(newServeCommand(l))
	return root
}
