// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"errors"

	"github.com/m33pooh/plookaraid/pkg/adapter/restful/gin/auth"
)

// Auth contains the bearer tokens verification settings. The tokens
// are issued by another service which shares the Secret.
type Auth struct {
	// Secret is the HS256 key. It is better to be given by the
	// PLOOK_JWT_SECRET environment variable.
	Secret string `yaml:"secret"`

	// Issuer is the expected iss claim. Empty accepts any issuer.
	Issuer string `yaml:"issuer,omitempty"`
}

// NewVerifier creates the tokens verifier of the REST API. It is not
// created during the validation because commands which do not serve
// the API, such as db init, need no secret.
func (a Auth) NewVerifier() (*auth.Verifier, error) {
	if len(a.Secret) < 32 {
		return nil, errors.New("jwt secret must have at least 32 bytes")
	}
	return auth.NewVerifier([]byte(a.Secret), a.Issuer), nil
}
