package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/tellatale/internal/logging"
	"github.com/aretw0/tellatale/pkg/adapters/file"
	"github.com/aretw0/tellatale/pkg/adapters/gemini"
	"github.com/aretw0/tellatale/pkg/adapters/memory"
	"github.com/aretw0/tellatale/pkg/adapters/redis"
	"github.com/aretw0/tellatale/pkg/ports"
)

var rootCmd = &cobra.Command{
	Use:   "tellatale",
	Short: "TellATale is an interactive storytelling engine",
	Long: `TellATale turns a genre, a protagonist and a setting into a branching
story, generated one segment at a time, while the protagonist's soul profile
evolves with every choice you make.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("store", "file", "History backend: memory, file or redis")
	rootCmd.PersistentFlags().String("store-path", "", "Identity file path (file store only)")
	rootCmd.PersistentFlags().String("redis-addr", "localhost:6379", "Redis address (redis store only)")
	rootCmd.PersistentFlags().String("redis-password", "", "Redis password (redis store only)")
	rootCmd.PersistentFlags().Int("redis-db", 0, "Redis database (redis store only)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn or error")
}

func buildLogger(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelWarn
	}
	return logging.New(l)
}

func buildStore(cmd *cobra.Command) (ports.HistoryStore, error) {
	kind, _ := cmd.Flags().GetString("store")
	switch kind {
	case "memory":
		return memory.NewStore(), nil
	case "file":
		path, _ := cmd.Flags().GetString("store-path")
		return file.NewStore(path), nil
	case "redis":
		addr, _ := cmd.Flags().GetString("redis-addr")
		password, _ := cmd.Flags().GetString("redis-password")
		db, _ := cmd.Flags().GetInt("redis-db")
		return redis.New(addr, password, db), nil
	default:
		return nil, fmt.Errorf("unknown store %q: use memory, file or redis", kind)
	}
}

func buildGenerator(ctx context.Context) (*gemini.Generator, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set (a .env file works too)")
	}
	return gemini.New(ctx, apiKey)
}
