package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fintask/fintask-go/internal/infrastructure/api"
)

const shutdownGrace = 10 * time.Second

func newServeCommand(l *loader) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the query pipeline over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := l.get()
			if err != nil {
				return err
			}
			if port == 0 {
				port = container.Config.HTTPPort
			}
			server := api.NewServer(container.Chat, port,
				container.Log.With().Str("component", "http").Logger())

			errCh := make(chan error, 1)
			go func() { errCh <- server.ListenAndServe() }()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-stop:
			case <-cmd.Context().Done():
			}

			ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			return server.Shutdown(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (defaults to FINTASK_HTTP_PORT)")
	return cmd
}
