package main

import (
	"github.com/muratoffalex/ytscribe/internal/app"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP transcript service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, l, err := loadConfig()
		if err != nil {
			return err
		}
		l.WithField("version", version).Info("Starting ytscribe")

		application, err := app.New(cfg, l)
		if err != nil {
			return err
		}
		if err := application.Start(); err != nil {
			return err
		}

		application.WaitForShutdown()
		return nil
	},
}
