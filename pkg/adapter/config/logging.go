// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/m33pooh/plookaraid/pkg/adapter/config/settings"
	"github.com/natefinch/lumberjack"
)

// Logging contains the structured logging settings. Records are json
// encoded and written to stderr, unless File is set. In that case,
// the file is rotated according to the Max* settings.
type Logging struct {
	File  string `yaml:"file,omitempty"`
	Level string `yaml:"level,omitempty"` // debug, info, warn, or error

	MaxSizeMB  *int  `yaml:"max-size-mb,omitempty"`
	MaxBackups *int  `yaml:"max-backups,omitempty"`
	MaxAgeDays *int  `yaml:"max-age-days,omitempty"`
	Compress   *bool `yaml:"compress,omitempty"`

	level slog.Level
}

// ValidateAndNormalize parses the level and fills the rotation
// defaults. It takes a pointer receiver since it updates l.
func (l *Logging) ValidateAndNormalize() error {
	if l.Level == "" {
		l.Level = "info"
	}
	if err := l.level.UnmarshalText([]byte(l.Level)); err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	settings.Default(&l.MaxSizeMB, 10)
	settings.Default(&l.MaxBackups, 7)
	settings.Default(&l.MaxAgeDays, 7)
	settings.Default(&l.Compress, true)
	if *l.MaxSizeMB <= 0 {
		return fmt.Errorf("max-size-mb (%d) must be positive", *l.MaxSizeMB)
	}
	return nil
}

// NewLogger creates the json structured logger and returns it besides
// a function which closes its destination file (if any).
func (l Logging) NewLogger() (*slog.Logger, func() error) {
	var w io.Writer = os.Stderr
	closer := func() error { return nil }
	if l.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   l.File,
			MaxSize:    *l.MaxSizeMB,
			MaxBackups: *l.MaxBackups,
			MaxAge:     *l.MaxAgeDays,
			Compress:   *l.Compress,
		}
		w, closer = rotator, rotator.Close
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     l.level,
	})
	return slog.New(h), closer
}
