// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package auth verifies the HS256 bearer tokens of the REST API and
// exposes their subject and role as a model.Caller to the resources.
// Issuing tokens is the concern of the identity service; NewToken is
// only provided for the development tools and tests.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/core/model"
)

const callerKey = "plook.caller"

// ErrMissingToken reports a request without a bearer token.
var ErrMissingToken = errors.New("missing bearer token")

type claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Verifier checks the signature, expiry, and issuer of tokens.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier instantiates a Verifier for the HS256 secret. A non-empty
// issuer must match the iss claim of the tokens.
func NewVerifier(secret []byte, issuer string) *Verifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &Verifier{secret: secret, parser: jwt.NewParser(opts...)}
}

// Verify parses the token string and returns its caller.
func (v *Verifier) Verify(token string) (model.Caller, error) {
	cl := &claims{}
	_, err := v.parser.ParseWithClaims(
		token, cl, func(*jwt.Token) (any, error) {
			return v.secret, nil
		},
	)
	if err != nil {
		return model.Caller{}, fmt.Errorf("parsing token: %w", err)
	}
	id, err := uuid.Parse(cl.Subject)
	if err != nil {
		return model.Caller{}, fmt.Errorf("subject is not a UUID: %w", err)
	}
	switch cl.Role {
	case model.RoleDriver, model.RoleShipper, model.RoleSystem:
	default:
		return model.Caller{}, fmt.Errorf("unknown role: %q", cl.Role)
	}
	return model.Caller{ID: id, Role: cl.Role}, nil
}

// Middleware aborts requests which carry no valid bearer token with
// 401 and stores the caller of the others for the Caller function.
func (v *Verifier) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"detail": ErrMissingToken.Error(),
			})
			return
		}
		caller, err := v.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"detail": err.Error(),
			})
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

// Caller returns the caller which was stored by the Middleware.
// It panics if the Middleware was not registered for c.
func Caller(c *gin.Context) model.Caller {
	return c.MustGet(callerKey).(model.Caller)
}

// NewToken signs a token for the caller which expires after ttl.
func NewToken(
	secret []byte, issuer string, caller model.Caller, ttl time.Duration,
) (string, error) {
	now := time.Now()
	cl := &claims{
		Role: caller.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   caller.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(secret)
}
