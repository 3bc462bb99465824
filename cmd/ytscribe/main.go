package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/muratoffalex/ytscribe/internal/config"
	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/spf13/cobra"
)

var (
	version   string
	buildTime string
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "ytscribe",
	Short:         "Fetch YouTube transcripts from captions, falling back to speech-to-text",
	Version:       fmt.Sprintf("%s (built at: %s)", version, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a TOML config file")
	rootCmd.AddCommand(serveCmd, getCmd)
}

func loadConfig() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logCfg := cfg.Log()
	return cfg, logger.NewLogrusLogger(&logCfg), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
