package e2e

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/vietddude/relayer/internal/control"
	"github.com/vietddude/relayer/internal/core/config"
	"github.com/vietddude/relayer/internal/infra/rpc"
	"github.com/vietddude/relayer/internal/sending/signing"
)

func TestGracefulShutdown(t *testing.T) {
	// Minimal config: memory journal, no Redis, local RPC endpoint that is
	// never called.
	identity, err := signing.Generate()
	if err != nil {
		t.Fatalf("Failed to generate identity: %v", err)
	}
	keyPath := filepath.Join(t.TempDir(), "id.json")
	if err := identity.SaveKeypair(keyPath); err != nil {
		t.Fatalf("Failed to save keypair: %v", err)
	}

	cfg := &config.AppConfig{
		Server:   config.ServerConfig{Port: 0},
		RPC:      rpc.DefaultHTTPConfig("http://localhost:8899"),
		Identity: config.IdentityConfig{KeypairPath: keyPath},
		Sender: config.SenderConfig{
			MaxSigningAttempts: 3,
			Commitment:         "confirmed",
		},
	}

	app, err := control.NewRelayer(cfg)
	if err != nil {
		t.Fatalf("Failed to create relayer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Let components spin up
	time.Sleep(500 * time.Millisecond)

	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()

	if err := app.Stop(stopCtx); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}
