package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/vietddude/relayer/internal/core/batchfile"
	"github.com/vietddude/relayer/internal/core/domain"
	"github.com/vietddude/relayer/internal/infra/rpc"
	"github.com/vietddude/relayer/internal/infra/storage/postgres"
	"github.com/vietddude/relayer/internal/sending/engine"
	"github.com/vietddude/relayer/internal/sending/sender"
	"github.com/vietddude/relayer/internal/sending/signing"
)

var submitCmd = &cobra.Command{
	Use:   "submit <batch-file>",
	Short: "Submit a batch file once and print per-item outcomes",
	Args:  cobra.ExactArgs(1),
	Run:   runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()

	f, err := batchfile.Load(args[0])
	if err != nil {
		slog.Error("Failed to load batch file", "error", err)
		os.Exit(1)
	}
	sets, err := f.InstructionSets()
	if err != nil {
		slog.Error("Failed to parse instruction sets", "error", err)
		os.Exit(1)
	}

	identity, err := signing.LoadKeypair(cfg.Identity.KeypairPath)
	if err != nil {
		slog.Error("Failed to load identity", "error", err)
		os.Exit(1)
	}

	client := rpc.NewHTTPClient(cfg.RPC)

	senderCfg := sender.DefaultConfig()
	senderCfg.MaxSigningAttempts = cfg.Sender.MaxSigningAttempts
	senderCfg.AbortOnFailure = !cfg.Sender.ContinueOnFailure
	senderCfg.Commitment = domain.Commitment(cfg.Sender.Commitment)
	senderCfg.SubmitDelay = cfg.Sender.SubmitDelay
	senderCfg.Observers = engine.Observers{
		Progress: func(index int) {
			slog.Info("Item confirmed", "index", index)
		},
		ReSign: func(attempt, index int) {
			slog.Warn("Anchor drifted, re-signing suffix", "attempt", attempt, "from", index)
		},
		Failure: func(err error, index, successful int, set domain.InstructionSet) {
			slog.Error("Item failed", "index", index, "set", set.Name, "successful", successful, "error", err)
		},
	}

	result, err := sender.New(client, identity, senderCfg).Send(ctx, sets)
	if err != nil {
		slog.Error("Batch submission failed", "error", err)
		os.Exit(1)
	}

	if f.ID != "" {
		result.BatchID = f.ID
	}

	if cfg.Database.URL != "" && result.BatchID != "" {
		journalReceipts(ctx, cfg.Database, result)
	}

	printResult(result)

	if result.Successful < len(result.Items) {
		os.Exit(1)
	}
}

func journalReceipts(ctx context.Context, dbCfg postgres.Config, result *domain.BatchResult) {
	db, err := postgres.NewDB(ctx, dbCfg)
	if err != nil {
		slog.Warn("Failed to connect to database, receipts not journaled", "error", err)
		return
	}
	defer func() {
		_ = db.Close()
	}()

	if err := goose.SetDialect("postgres"); err != nil {
		slog.Warn("Failed to set migration dialect", "error", err)
		return
	}
	if err := goose.Up(db.DB.DB, "migrations"); err != nil {
		slog.Warn("Failed to migrate database", "error", err)
		return
	}

	repo := postgres.NewReceiptRepo(db)
	if err := repo.SaveBatch(ctx, domain.ReceiptsFromResult(result)); err != nil {
		slog.Warn("Failed to journal receipts", "error", err)
	}
}

func printResult(result *domain.BatchResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "INDEX\tSET\tSTATUS\tATTEMPTS\tSIGNATURE\tSLOT\tERROR")

	for _, item := range result.Items {
		errMsg := ""
		if item.Err != nil {
			errMsg = item.Err.Error()
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%d\t%s\n",
			item.Index, item.SetName, item.Status, item.Attempts, item.Signature, item.Slot, errMsg)
	}
	_ = w.Flush()

	fmt.Printf("\n%d/%d items confirmed\n", result.Successful, len(result.Items))
}
