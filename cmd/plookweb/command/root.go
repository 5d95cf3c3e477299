// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package command provides the root and sub-commands of the plookweb
// program. Commands are organized using the cobra library.
// The root command starts the web server itself, while the "db init"
// sub-command prepares a fresh database and "sweep" expires the
// participants of the past routes (it is meant to be run by cron).
//
//	./plookweb [-c /path/of/config.yaml] [--addr :8080]
//	./plookweb db init [-c /path/of/config.yaml]
//	./plookweb sweep [-c /path/of/config.yaml]
//	./plookweb token --subject UUID --role driver [-c ...]
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m33pooh/plookaraid/pkg/adapter/config"
	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin/routes"
	"github.com/m33pooh/plookaraid/pkg/core/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

var (
	cfgPath string
	addr    string
)

var rootCmd = &cobra.Command{
	Use:   "plookweb",
	Short: "Shared-transport capacity allocation for farm produce",
	Long: `PlookAraiD lets drivers publish routes with a finite cargo
capacity and lets shippers join them with their cargo. Each join
reserves a part of the route capacity, so a route is never overbooked,
and the trip cost is split among the participants pro-rata by weight.

The root command serves the REST API under ` + routes.Prefix + `
until it receives an interrupt or a termination signal.`,
	Args:          cobra.NoArgs,
	RunE:          startWebServer,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func startWebServer(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(
		cmd.Context(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()
	c, l, closeLog, err := loadConfig()
	if err != nil {
		return err
	}
	defer closeLog()
	v, err := c.Auth.NewVerifier()
	if err != nil {
		return fmt.Errorf("creating token verifier: %w", err)
	}
	b, err := c.OpenBackend(ctx)
	if err != nil {
		return fmt.Errorf("opening backend: %w", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Error(ctx, "closing backend", log.Err("err", err))
		}
	}()
	e := c.Gin.NewEngine(l)
	if _, err = routes.Register(ctx, e, c, b, v); err != nil {
		return fmt.Errorf("registering routes: %w", err)
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info(ctx, "serving", slog.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()
	select {
	case err = <-errc:
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	if err = <-errc; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}
	return nil
}

// loadConfig loads the cfgPath configuration file and installs its
// structured logger as the default one. The returned closer flushes
// the log file (if any).
func loadConfig() (*config.Config, *slog.Logger, func(), error) {
	c, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("config.Load(%q): %w", cfgPath, err)
	}
	l, closeLog := c.Logging.NewLogger()
	slog.SetDefault(l)
	return c, l, func() {
		if err := closeLog(); err != nil {
			fmt.Fprintln(os.Stderr, "closing log file:", err)
		}
	}, nil
}

// Execute runs the rootCmd which in turn parses CLI arguments and
// flags and runs the most specific cobra command. Any error makes the
// process exit with a non-zero code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(fixConfigPath)
	rootCmd.PersistentFlags().StringVarP(
		&cfgPath, "config", "c", "", "config file path",
	)
	rootCmd.Flags().StringVar(
		&addr, "addr", ":8080", "listening address of the REST API",
	)
}

// fixConfigPath ensures that cfgPath is set respectively by either the
// CLI args, the CONFIG_FILE environment variable, or its default value.
func fixConfigPath() {
	if cfgPath != "" {
		return
	}
	var found bool
	if cfgPath, found = os.LookupEnv("CONFIG_FILE"); !found {
		cfgPath = "configs/sample-config.yaml"
	}
}
