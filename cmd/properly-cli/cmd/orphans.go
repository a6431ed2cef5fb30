package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nfrund/properly/internal/app"
	"github.com/nfrund/properly/internal/config"
	"github.com/nfrund/properly/internal/domain"
	"github.com/nfrund/properly/internal/logging"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

var orphansOlderThan time.Duration

var orphansCmd = &cobra.Command{
	Use:   "orphans",
	Short: "List attachment records no message references",
	Long: `A send that fails after its attachments were persisted leaves an attachment
record behind. This command lists such records older than --older-than so they
can be reconciled against the message_orphan_candidate log events.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.New()
		logging.New(cfg.GetLogFormat(), "error")

		injector := app.NewInjector(cfg)
		defer injector.Shutdown()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		return listOrphans(ctx, injector, orphansOlderThan, cmd.OutOrStdout())
	},
}

// listOrphans resolves only the attachment store, so storage, pub/sub and
// push settings do not need to be valid to run it.
func listOrphans(ctx context.Context, i do.Injector, olderThan time.Duration, out io.Writer) error {
	attachments, err := do.Invoke[domain.AttachmentRepository](i)
	if err != nil {
		return err
	}
	records, err := attachments.FindUnreferenced(ctx, olderThan)
	if err != nil {
		return fmt.Errorf("failed to list orphaned attachments: %w", err)
	}
	slog.Debug("Listed orphaned attachments", "count", len(records))
	writeOrphans(out, records)
	return nil
}

func writeOrphans(out io.Writer, records []domain.AttachmentRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No orphaned attachment records found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "ID\tCREATED\tFILES\tURLS")
	for _, r := range records {
		id, created := "-", "-"
		if r.ID != nil {
			id = r.ID.String()
		}
		if r.CreatedAt != nil {
			created = r.CreatedAt.Time.UTC().Format(time.RFC3339)
		}
		urls := make([]string, 0, len(r.Attachments))
		for _, a := range r.Attachments {
			urls = append(urls, a.URL)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", id, created, len(r.Attachments), strings.Join(urls, ","))
	}
}

func init() {
	rootCmd.AddCommand(orphansCmd)
	orphansCmd.Flags().DurationVar(&orphansOlderThan, "older-than", time.Hour, "Only list records older than this")
}
