package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vietddude/relayer/internal/core/batchfile"
	redisclient "github.com/vietddude/relayer/internal/infra/redis"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue <batch-file>",
	Short: "Validate a batch file and push it onto the submission queue",
	Args:  cobra.ExactArgs(1),
	Run:   runEnqueue,
}

func init() {
	rootCmd.AddCommand(enqueueCmd)
}

func runEnqueue(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()

	payload, err := os.ReadFile(args[0])
	if err != nil {
		slog.Error("Failed to read batch file", "error", err)
		os.Exit(1)
	}

	// Validate before queueing so malformed specs fail here, not in the
	// worker.
	f, err := batchfile.Parse(payload)
	if err != nil {
		slog.Error("Invalid batch file", "error", err)
		os.Exit(1)
	}
	if _, err := f.InstructionSets(); err != nil {
		slog.Error("Invalid batch file", "error", err)
		os.Exit(1)
	}

	batchID := f.ID
	if batchID == "" {
		batchID = uuid.NewString()
	}

	if cfg.Redis.URL == "" {
		slog.Error("Redis is not configured; cannot enqueue")
		os.Exit(1)
	}
	client, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = client.Close()
	}()

	done, err := client.IsCompleted(ctx, batchID)
	if err != nil {
		slog.Error("Failed to check completion mark", "error", err)
		os.Exit(1)
	}
	if done {
		slog.Error("Batch already completed, refusing to enqueue", "batch", batchID)
		os.Exit(1)
	}

	if err := client.EnqueueBatch(ctx, batchID, payload); err != nil {
		slog.Error("Failed to enqueue batch", "error", err)
		os.Exit(1)
	}

	slog.Info("Batch enqueued", "batch", batchID, "sets", len(f.Sets))
}
