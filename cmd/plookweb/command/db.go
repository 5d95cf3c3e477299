// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"fmt"

	"github.com/m33pooh/plookaraid/pkg/core/usecase/schemauc"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management actions",
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the tables and the login roles of a database",
	Long: `Create the missing tables and indices of the configured
PostgreSQL database and the normal login role which is used by the web
server. The admin role must exist and its password must be recorded in
the .pgpass file of the pass-dir directory.

The passwords of both admin and normal roles are renewed. New passwords
are written to .pgpass.new first and it replaces .pgpass only after the
database transaction commits. If that rename fails, the next connection
attempt falls back to .pgpass.new, so the new passwords are not lost.
Running init again on an initialized database only renews passwords.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, _, closeLog, err := loadConfig()
		if err != nil {
			return err
		}
		defer closeLog()
		uc := schemauc.New(c.Database)
		if err := uc.InitDB(cmd.Context()); err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		return nil
	},
}

func init() {
	dbCmd.AddCommand(initCmd)
	rootCmd.AddCommand(dbCmd)
}
