package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/listenupapp/readtrack/internal/logger"
	"github.com/listenupapp/readtrack/internal/reader"
	"github.com/listenupapp/readtrack/internal/tracker"
)

func newReadCmd(opts *globalOptions) *cobra.Command {
	var (
		bookID      string
		idleTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "read <file>",
		Short: "Open a PDF, EPUB or comic archive and record the reading session",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, _, err := loadClientConfig(opts)
			if err != nil {
				return err
			}

			// The terminal belongs to the UI while a book is open.
			log, err := logger.NewFile(cfg.LogFile, logger.Config{
				Level:  logger.ParseLevel(cfg.LogLevel),
				Format: "json",
			})
			if err != nil {
				return err
			}
			defer log.Close()

			return reader.Run(context.Background(), reader.Options{
				Path:    args[0],
				BookID:  bookID,
				Config:  cfg,
				Tracker: tracker.Config{IdleTimeout: idleTimeout},
			}, log.Logger)
		},
	}
	cmd.Flags().StringVar(&bookID, "book-id", "", "book identifier reported to the server (default: file name)")
	cmd.Flags().DurationVar(&idleTimeout, "idle-timeout", tracker.DefaultIdleTimeout, "close the session after this long without input")
	return cmd
}
