package reader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/listenupapp/readtrack/internal/gateway"
	"github.com/listenupapp/readtrack/internal/tracker"
)

// flushTimeout bounds how long the reader waits for deliveries after the UI closes.
const flushTimeout = 10 * time.Second

// Options configure one reading run.
type Options struct {
	Path    string
	BookID  string
	Config  *ClientConfig
	Tracker tracker.Config
}

// Run opens the book full-screen and tracks the reading session until the user quits
// or the process is told to stop. Quitting delivers through the awaited path; SIGTERM
// and SIGHUP tear the host down and deliver through the beacon path.
func Run(ctx context.Context, opts Options, logger *slog.Logger) error {
	if opts.Config == nil {
		return errors.New("reader config is required")
	}
	if opts.Config.Token == "" {
		return errors.New("no access token configured; run `readtrack token <user-id> --save` on the server host")
	}

	client, err := gateway.New(gateway.Config{
		BaseURL:  opts.Config.ServerURL,
		Token:    opts.Config.Token,
		DeviceID: opts.Config.DeviceID,
	}, logger)
	if err != nil {
		return err
	}

	host := tracker.NewHost()
	t := tracker.New(client, host, logger, tracker.WithConfig(opts.Tracker))

	program := tea.NewProgram(
		NewModel(opts.Path, opts.BookID, t, host),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigs)

	done := make(chan struct{})
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		watchSignals(ctx, sigs, done, func(sig os.Signal) {
			logger.Info("terminating reader", "signal", sig.String())
			host.Teardown()
			program.Quit()
		})
	}()

	final, runErr := program.Run()
	close(done)
	<-watched
	if errors.Is(runErr, tea.ErrProgramKilled) {
		// Context cancellation is a teardown, not a finished read.
		host.Teardown()
		runErr = nil
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := t.Shutdown(flushCtx); err != nil {
		logger.Warn("reading session delivery did not finish", "error", err)
	}
	if err := client.Close(flushCtx); err != nil {
		logger.Warn("beacon queue did not drain", "error", err)
	}

	if runErr != nil {
		return fmt.Errorf("run reader: %w", runErr)
	}
	if m, ok := final.(Model); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}

// watchSignals calls onSignal for the first signal received on sigs. It returns
// without calling it once done is closed or ctx ends.
func watchSignals(ctx context.Context, sigs <-chan os.Signal, done <-chan struct{}, onSignal func(os.Signal)) {
	select {
	case sig := <-sigs:
		onSignal(sig)
	case <-done:
	case <-ctx.Done():
	}
}
