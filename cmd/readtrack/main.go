// Package main provides the readtrack command-line client: a terminal reader that
// records reading sessions, plus history and token commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalOptions are the flags every subcommand shares.
type globalOptions struct {
	configPath string
	serverURL  string
	token      string
}

func newRootCmd() *cobra.Command {
	var opts globalOptions

	root := &cobra.Command{
		Use:           "readtrack",
		Short:         "Read books in the terminal and keep a history of reading sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "client config file (default ~/.config/readtrack/config.yaml)")
	root.PersistentFlags().StringVar(&opts.serverURL, "server", "", "readtrack server URL (overrides config)")
	root.PersistentFlags().StringVar(&opts.token, "token", "", "access token (overrides config)")

	root.AddCommand(newReadCmd(&opts))
	root.AddCommand(newTokenCmd(&opts))
	root.AddCommand(newSessionsCmd(&opts))
	root.AddCommand(newSummaryCmd(&opts))
	return root
}

// signalContext is cancelled on Ctrl+C so history commands stop waiting on the server.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
