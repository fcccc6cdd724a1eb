// Command shellq is the CLI surface of the shellq job queue: enqueueing
// commands, inspecting job state, running and supervising workers, and
// managing the dead-letter queue and runtime configuration. The CLI is
// a thin collaborator over the core packages (shellq, store, process);
// its job here is argument parsing and human-formatted output, not
// queue logic.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/shellq/shellq/config"
	"github.com/shellq/shellq/store"

	_ "modernc.org/sqlite"
)

var (
	flagDBPath   string
	flagLogFile  string
	flagPIDFile  string
	flagLogLevel string
	rootCtx      = context.Background()
)

var rootCmd = &cobra.Command{
	Use:           "shellq",
	Short:         "A durable, single-node background job queue for shell commands",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "shellq.db", "path to the SQLite database file")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "shellq.log", "path to the append-only log file")
	rootCmd.PersistentFlags().StringVar(&flagPIDFile, "pid-file", "shellq.pid", "path to the worker PID file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error")

	_ = viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file"))
	_ = viper.BindPFlag("pid-file", rootCmd.PersistentFlags().Lookup("pid-file"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.SetEnvPrefix("shellq")
	viper.AutomaticEnv()

	rootCmd.AddCommand(enqueueCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(dlqCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// dbPath/logFilePath/pidFilePath resolve the effective value for each
// persistent flag, letting a SHELLQ_-prefixed environment variable
// override the flag default (no config file is read).
func dbPath() string      { return viper.GetString("db") }
func logFilePath() string { return viper.GetString("log-file") }
func pidFilePath() string { return viper.GetString("pid-file") }
func logLevel() string    { return viper.GetString("log-level") }

// newLogger builds the shared slog.Logger, writing through lumberjack so
// the append-only log file rotates instead of growing unbounded.
func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel())); err != nil {
		level = slog.LevelInfo
	}
	writer := &lumberjack.Logger{
		Filename:   logFilePath(),
		MaxSize:    100, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
	}
	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// openDB opens and initializes the SQLite-backed store, ready for use by
// any subcommand.
func openDB(ctx context.Context) (*bun.DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath()+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1) // important for sqlite, per store/helper_test.go
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	if err := store.InitDB(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return db, nil
}

// typedConfig wraps a freshly opened store.Config in a config.Typed
// accessor, for commands that need the retry/backoff/lease tunables.
func typedConfig(db *bun.DB) *config.Typed {
	return config.New(store.NewConfig(db))
}
