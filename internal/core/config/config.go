package config

import (
	"time"

	redisclient "github.com/vietddude/relayer/internal/infra/redis"
	"github.com/vietddude/relayer/internal/infra/rpc"
	"github.com/vietddude/relayer/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Logging  LoggingConfig      `yaml:"logging"`
	RPC      rpc.HTTPConfig     `yaml:"rpc"`
	Identity IdentityConfig     `yaml:"identity"`
	Sender   SenderConfig       `yaml:"sender"`
	Worker   WorkerConfig       `yaml:"worker"`
	Redis    redisclient.Config `yaml:"redis"`
	Database postgres.Config    `yaml:"database"`
	Receipts ReceiptsConfig     `yaml:"receipts"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// IdentityConfig points at the fee payer keypair.
type IdentityConfig struct {
	KeypairPath string `yaml:"keypair_path"`
}

// SenderConfig holds batch submission settings.
type SenderConfig struct {
	MaxSigningAttempts int           `yaml:"max_signing_attempts"`
	ContinueOnFailure  bool          `yaml:"continue_on_failure"` // default: abort on first failure
	Commitment         string        `yaml:"commitment"`
	SubmitDelay        time.Duration `yaml:"submit_delay"`
}

// WorkerConfig holds queue worker settings.
type WorkerConfig struct {
	PollInterval  time.Duration `yaml:"poll_interval"`
	LockTTL       time.Duration `yaml:"lock_ttl"`
	CompletionTTL time.Duration `yaml:"completion_ttl"`
}

// ReceiptsConfig holds receipt journal settings.
type ReceiptsConfig struct {
	Retention time.Duration `yaml:"retention"` // 0 = keep forever
}
