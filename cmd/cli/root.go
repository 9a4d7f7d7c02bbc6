// Package cli implements genguard-admin, the maintenance tool for the
// limiter and usage keyspaces.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/genguard/internal/config"
	"github.com/turtacn/genguard/internal/infrastructure/maintenance"
	"github.com/turtacn/genguard/internal/infrastructure/monitoring"
	redisstore "github.com/turtacn/genguard/internal/infrastructure/persistence/redis"
	"github.com/turtacn/genguard/pkg/logger"
)

// Maintainer is what the clear commands run against.
type Maintainer interface {
	ClearByPrefix(ctx context.Context, prefix, identifier string) (*maintenance.ClearResult, error)
	FlushAll(ctx context.Context) error
}

// Target is an opened Maintainer plus the namespaces it should clear.
type Target struct {
	Maintainer      Maintainer
	RateLimitPrefix string
	UsagePrefix     string
	Close           func()
}

// Opener connects to the store. It runs only once a valid command was parsed.
type Opener func(ctx context.Context, configFile string) (*Target, error)

// execError marks failures of a valid command, as opposed to usage mistakes.
type execError struct{ err error }

func (e *execError) Error() string { return e.err.Error() }
func (e *execError) Unwrap() error { return e.err }

// NewRootCmd builds the command tree around open.
func NewRootCmd(open Opener) *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "genguard-admin",
		Short: "Maintenance tool for the genguard rate-limit and usage keyspaces",
		Long: `genguard-admin clears sliding-window and daily usage records from Redis.

Examples:
  genguard-admin clear usage
  genguard-admin clear rate your-fingerprint-id
  genguard-admin clear all`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to config file")

	rootCmd.AddCommand(newClearCmd(open, &configFile))
	return rootCmd
}

// Run executes args and returns the process exit code: 0 on success and on
// usage mistakes (after printing help), 1 when a valid command failed.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer, open Opener) int {
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	rootCmd := NewRootCmd(open)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err == nil {
		return 0
	}

	var execErr *execError
	if errors.As(err, &execErr) {
		fmt.Fprintf(stderr, "An error occurred: %v\n", execErr.err)
		return 1
	}

	fmt.Fprintf(stdout, "Invalid command: %v\n\n", err)
	if cmd == nil {
		cmd = rootCmd
	}
	_ = cmd.Help()
	return 0
}

// Execute is the main entry point for the CLI application.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, os.Args[1:], os.Stdout, os.Stderr, OpenRedis)
	stop()
	os.Exit(code)
}

// OpenRedis loads configuration the same way the server does and connects
// to Redis.
func OpenRedis(ctx context.Context, configFile string) (*Target, error) {
	bootLog := logger.NewNoopLogger()
	cfg, err := config.LoadConfig(configFile, bootLog)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// Keep the tool's own output readable; only warnings from the stack.
	cfg.Log.Level = "warn"
	cfg.Log.Format = "console"
	log, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		return nil, err
	}

	// The admin tool does not export traces.
	cfg.Redis.Instrument = false
	conn := redisstore.NewRedisConnection(cfg.Redis, log)
	if err := conn.Connect(ctx); err != nil {
		return nil, err
	}

	return &Target{
		Maintainer:      maintenance.NewKeyspace(redisstore.NewKVStore(conn.GetClient()), log, nil),
		RateLimitPrefix: cfg.RateLimit.KeyPrefix,
		UsagePrefix:     cfg.Usage.KeyPrefix,
		Close:           func() { _ = conn.Close() },
	}, nil
}
