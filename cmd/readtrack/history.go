package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/listenupapp/readtrack/internal/domain"
)

var headingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#74c7ec")).Bold(true)

func newSessionsCmd(opts *globalOptions) *cobra.Command {
	var (
		bookID string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded reading sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadClientConfig(opts)
			if err != nil {
				return err
			}
			client, err := newGatewayClient(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			defer client.Close(ctx) //nolint:errcheck // nothing queued

			sessions, err := client.ListSessions(ctx, bookID, limit)
			if err != nil {
				return err
			}
			return printSessions(cmd.OutOrStdout(), sessions)
		},
	}
	cmd.Flags().StringVar(&bookID, "book", "", "only sessions for this book ID")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum sessions to show")
	return cmd
}

func newSummaryCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show total reading time overall, per book type and per book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadClientConfig(opts)
			if err != nil {
				return err
			}
			client, err := newGatewayClient(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			defer client.Close(ctx) //nolint:errcheck // nothing queued

			summary, err := client.Summary(ctx)
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), summary)
		},
	}
}

func printSessions(out io.Writer, sessions []domain.ReadingSession) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(out, "no reading sessions")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, headingStyle.Render("STARTED")+"\tBOOK\tTYPE\tDURATION\tPROGRESS\tVIA")
	for _, s := range sessions {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.StartedAt.Local().Format(time.DateTime),
			s.BookID,
			s.BookType,
			s.DurationFormatted,
			formatProgress(s.StartProgress, s.EndProgress),
			s.Delivery,
		)
	}
	return tw.Flush()
}

func printSummary(out io.Writer, summary *domain.ReadingSummary) error {
	_, _ = fmt.Fprintf(out, "%s %s across %d sessions\n",
		headingStyle.Render("Total"), summary.TotalFormatted, summary.TotalSessions)

	types := make([]string, 0, len(summary.ByBookType))
	for bt := range summary.ByBookType {
		types = append(types, string(bt))
	}
	sort.Strings(types)
	for _, bt := range types {
		total := summary.ByBookType[domain.BookType(bt)]
		_, _ = fmt.Fprintf(out, "  %-5s %s (%d sessions)\n", bt, total.FormattedTotal, total.Sessions)
	}

	if len(summary.Books) == 0 {
		return nil
	}

	_, _ = fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, headingStyle.Render("BOOK")+"\tTYPE\tTIME\tSESSIONS\tLAST PROGRESS")
	for _, b := range summary.Books {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			b.BookID, b.BookType, b.FormattedTotal, b.Sessions, formatPercent(b.LastProgress))
	}
	return tw.Flush()
}

func formatProgress(start, end *float64) string {
	if start == nil && end == nil {
		return "-"
	}
	return formatPercent(start) + " → " + formatPercent(end)
}

func formatPercent(p *float64) string {
	if p == nil {
		return "?"
	}
	return fmt.Sprintf("%.1f%%", *p)
}
