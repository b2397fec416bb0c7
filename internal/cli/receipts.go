package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/relayer/internal/core/domain"
	"github.com/vietddude/relayer/internal/infra/storage/postgres"
)

var receiptsLimit int

var receiptsCmd = &cobra.Command{
	Use:   "receipts [batch-id]",
	Short: "Show journaled receipts, for one batch or the most recent runs",
	Args:  cobra.MaximumNArgs(1),
	Run:   runReceipts,
}

func init() {
	receiptsCmd.Flags().IntVar(&receiptsLimit, "limit", 20, "max receipts to show when no batch ID is given")
	rootCmd.AddCommand(receiptsCmd)
}

func runReceipts(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()

	if cfg.Database.URL == "" {
		slog.Error("Database is not configured; no receipt journal to query")
		os.Exit(1)
	}

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	repo := postgres.NewReceiptRepo(db)

	var receipts []*domain.Receipt
	if len(args) == 1 {
		receipts, err = repo.ListByBatch(ctx, args[0])
	} else {
		receipts, err = repo.ListRecent(ctx, receiptsLimit)
	}
	if err != nil {
		slog.Error("Failed to query receipts", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "BATCH\tINDEX\tSET\tSTATUS\tATTEMPTS\tSIGNATURE\tCREATED")

	for _, r := range receipts {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\t%s\t%s\n",
			r.BatchID, r.ItemIndex, r.SetName, r.Status, r.Attempts, r.Signature,
			r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	_ = w.Flush()
}
