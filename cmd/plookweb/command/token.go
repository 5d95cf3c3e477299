// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin/auth"
	"github.com/m33pooh/plookaraid/pkg/core/model"
	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenRole    string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign a bearer token for development and tests",
	Long: `Sign a bearer token with the configured secret and issuer.
Production tokens are issued by the identity service which shares the
secret; this command is meant for local development.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, _, closeLog, err := loadConfig()
		if err != nil {
			return err
		}
		defer closeLog()
		sub, err := uuid.Parse(tokenSubject)
		if err != nil {
			return fmt.Errorf("parsing subject: %w", err)
		}
		if _, err := c.Auth.NewVerifier(); err != nil {
			return fmt.Errorf("checking secret: %w", err)
		}
		caller := model.Caller{ID: sub, Role: model.Role(tokenRole)}
		tok, err := auth.NewToken(
			[]byte(c.Auth.Secret), c.Auth.Issuer, caller, tokenTTL,
		)
		if err != nil {
			return fmt.Errorf("signing token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenSubject, "subject", "", "caller UUID")
	f.StringVar(&tokenRole, "role", string(model.RoleShipper),
		"caller role: driver, shipper, or system")
	f.DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("subject")
	rootCmd.AddCommand(tokenCmd)
}
