package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/relayer/internal/core/domain"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.RPC.RequestTimeout == 0 {
		cfg.RPC.RequestTimeout = 10 * time.Second
	}
	if cfg.RPC.ConfirmTimeout == 0 {
		cfg.RPC.ConfirmTimeout = 60 * time.Second
	}
	if cfg.RPC.PollInterval == 0 {
		cfg.RPC.PollInterval = 2 * time.Second
	}
	if cfg.Sender.MaxSigningAttempts == 0 {
		cfg.Sender.MaxSigningAttempts = 3
	}
	if cfg.Sender.Commitment == "" {
		cfg.Sender.Commitment = string(domain.DefaultCommitment)
	}
	if !domain.Commitment(cfg.Sender.Commitment).IsValid() {
		return nil, fmt.Errorf("invalid commitment level: %s", cfg.Sender.Commitment)
	}
	if cfg.Sender.SubmitDelay == 0 {
		cfg.Sender.SubmitDelay = 500 * time.Millisecond
	}
	if cfg.Worker.PollInterval == 0 {
		cfg.Worker.PollInterval = 5 * time.Second
	}
	if cfg.Worker.LockTTL == 0 {
		cfg.Worker.LockTTL = 5 * time.Minute
	}
	if cfg.Worker.CompletionTTL == 0 {
		cfg.Worker.CompletionTTL = 7 * 24 * time.Hour
	}
	cfg.RPC.Commitment = domain.Commitment(cfg.Sender.Commitment)

	return &cfg, nil
}
