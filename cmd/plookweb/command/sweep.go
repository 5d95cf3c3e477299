// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/m33pooh/plookaraid/pkg/adapter/config"
	"github.com/m33pooh/plookaraid/pkg/core/log"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Cancel the confirmed participants of the past routes",
	Long: `Cancel every confirmed participant whose route travel date is
before today, releasing its reserved capacity and reopening its cargo
request. Participants which were picked up are kept. The sweep is safe
to run concurrently with the web server and may be scheduled by cron.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := log.WithAttrs(cmd.Context(), slog.String("command", "sweep"))
		c, _, closeLog, err := loadConfig()
		if err != nil {
			return err
		}
		defer closeLog()
		b, err := c.OpenBackend(ctx)
		if err != nil {
			return fmt.Errorf("opening backend: %w", err)
		}
		defer func() {
			if err := b.Close(); err != nil {
				log.Error(ctx, "closing backend", log.Err("err", err))
			}
		}()
		sr := config.NewSettingsRepo(c, b.Settings)
		app, err := c.NewAppUseCase(b.Pool, sr, b.Adapters)
		if err != nil {
			return fmt.Errorf("creating app use case: %w", err)
		}
		if err := app.Reload(ctx); err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		n, err := app.RoutesUseCase().ExpireStale(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("expiring stale participants: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d participants expired\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
