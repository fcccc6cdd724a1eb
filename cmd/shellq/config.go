package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shellq/shellq"
	"github.com/shellq/shellq/config"
	"github.com/shellq/shellq/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read or write durable runtime configuration",
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the effective value of a config key",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config key",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if !config.Recognized(key) {
		return shellq.ErrUnknownConfigKey
	}

	ctx := rootCtx
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	value, ok, err := store.NewConfig(db).Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println(defaultFor(key))
		return nil
	}
	fmt.Println(value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	if !config.Recognized(key) {
		return shellq.ErrUnknownConfigKey
	}

	ctx := rootCtx
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	return store.NewConfig(db).Set(ctx, key, value)
}

// defaultFor returns the string form of a recognized key's default value,
// for `config get` on a key that has never been explicitly set.
func defaultFor(key string) string {
	switch key {
	case config.KeyMaxRetries:
		return fmt.Sprintf("%d", config.DefaultMaxRetries)
	case config.KeyBackoffBase:
		return fmt.Sprintf("%d", config.DefaultBackoffBase)
	case config.KeyMaxBackoffSeconds:
		return fmt.Sprintf("%d", config.DefaultMaxBackoffSeconds)
	case config.KeyLockLeaseSeconds:
		return fmt.Sprintf("%d", config.DefaultLockLeaseSeconds)
	case config.KeyJobTimeoutSeconds:
		return fmt.Sprintf("%d", config.DefaultJobTimeoutSeconds)
	case config.KeyPurgeAfterSeconds:
		return fmt.Sprintf("%d", config.DefaultPurgeAfterSeconds)
	default:
		return ""
	}
}
