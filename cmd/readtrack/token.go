package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/listenupapp/readtrack/internal/auth"
	"github.com/listenupapp/readtrack/internal/config"
)

func newTokenCmd(opts *globalOptions) *cobra.Command {
	var (
		dataDir  string
		duration time.Duration
		save     bool
	)

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue an access token signed with the server's key",
		Long: "Issue an access token signed with the server's key. Run it on the server host; " +
			"the key lives in the server's data directory.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dataDir == "" {
				dir, err := config.DefaultDataDir()
				if err != nil {
					return err
				}
				dataDir = dir
			}

			key, err := auth.LoadOrGenerateKey(dataDir)
			if err != nil {
				return err
			}
			tokens, err := auth.NewTokenService(key, duration)
			if err != nil {
				return err
			}

			token, expires, err := tokens.IssueAccessToken(args[0])
			if err != nil {
				return err
			}

			if save {
				cfg, path, err := loadClientConfig(opts)
				if err != nil {
					return err
				}
				cfg.Token = token
				if err := cfg.Save(path); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "token for %s saved to %s (expires %s)\n",
					args[0], path, expires.Format(time.RFC3339))
				return nil
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expires.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&dataDir, "metadata-path", "", "server data directory holding auth.key (default ~/.readtrack)")
	cmd.Flags().DurationVar(&duration, "duration", 720*time.Hour, "token lifetime")
	cmd.Flags().BoolVar(&save, "save", false, "store the token in the client config instead of printing it")
	return cmd
}
