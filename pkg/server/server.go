/*
 * Copyright 2023 ForgeRock AS
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package server answers the callbacks raised by a server side SASL mechanism. Name, password, realm and authorize
// callbacks are answered from a SecretManager; every other callback is passed to a customized dispatcher.
package server

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/ForgeRock/sasl-callbacks/internal/secretcache"
	"github.com/ForgeRock/sasl-callbacks/pkg/callback"
	"github.com/ForgeRock/sasl-callbacks/pkg/dispatch"
	"github.com/pkg/errors"
)

// DebugLogger receives the debug output of the package. It discards everything until replaced with SetDebugLogger.
var DebugLogger = log.New(io.Discard, "", 0)

// SetDebugLogger sets the logger used for debug output.
func SetDebugLogger(logger *log.Logger) {
	DebugLogger = logger
}

// MetricsName is the dispatcher label used when recording metrics for the customized dispatcher
const MetricsName = "customized"

// Suggested secret cache settings
const (
	DefaultCacheExpiration = 5 * time.Minute
	DefaultCacheCleanup    = 10 * time.Minute
)

var (
	errNoSecretManager = errors.New("secret manager must be provided")
	errNoNameCallback  = errors.New("password callback without name callback")
)

// SecretManager looks up the password of an identity.
type SecretManager interface {
	RetrievePassword(ctx context.Context, identifier string) ([]byte, error)
}

// SecretManagerFunc is an adapter that allows an ordinary function to be used as a SecretManager.
type SecretManagerFunc func(ctx context.Context, identifier string) ([]byte, error)

func (f SecretManagerFunc) RetrievePassword(ctx context.Context, identifier string) ([]byte, error) {
	return f(ctx, identifier)
}

// CallbackHandler answers the callbacks of a server side exchange.
type CallbackHandler struct {
	retrieve   secretcache.Loader
	dispatcher dispatch.Dispatcher
}

// HandlerBuilder creates a CallbackHandler.
type HandlerBuilder struct {
	secrets         SecretManager
	dispatcher      dispatch.Dispatcher
	conf            dispatch.Configuration
	registry        *dispatch.Registry
	cacheExpiration time.Duration
	cacheCleanup    time.Duration
	metrics         *dispatch.Metrics
}

// Handler returns a new CallbackHandler builder.
func Handler() *HandlerBuilder {
	return &HandlerBuilder{}
}

// WithSecrets sets the secret manager that provides passwords.
func (b *HandlerBuilder) WithSecrets(secrets SecretManager) *HandlerBuilder {
	b.secrets = secrets
	return b
}

// DispatchWith sets the dispatcher for callbacks that the handler does not answer itself.
func (b *HandlerBuilder) DispatchWith(d dispatch.Dispatcher) *HandlerBuilder {
	b.dispatcher = d
	return b
}

// ResolveDispatcher from the configuration when the handler is created. Ignored if DispatchWith is used.
func (b *HandlerBuilder) ResolveDispatcher(conf dispatch.Configuration) *HandlerBuilder {
	b.conf = conf
	return b
}

// FromRegistry resolves the dispatcher from the given registry instead of dispatch.DefaultRegistry.
func (b *HandlerBuilder) FromRegistry(r *dispatch.Registry) *HandlerBuilder {
	b.registry = r
	return b
}

// CacheSecretsFor keeps passwords retrieved from the secret manager for the expiration time.
func (b *HandlerBuilder) CacheSecretsFor(expiration, cleanupInterval time.Duration) *HandlerBuilder {
	b.cacheExpiration = expiration
	b.cacheCleanup = cleanupInterval
	return b
}

// RecordMetrics of the dispatcher calls.
func (b *HandlerBuilder) RecordMetrics(m *dispatch.Metrics) *HandlerBuilder {
	b.metrics = m
	return b
}

// Create the CallbackHandler. Failing to resolve the dispatcher returns a *dispatch.ConfigurationError.
func (b *HandlerBuilder) Create() (*CallbackHandler, error) {
	if b.secrets == nil {
		return nil, errNoSecretManager
	}
	d := b.dispatcher
	if d == nil {
		registry := b.registry
		if registry == nil {
			registry = dispatch.DefaultRegistry
		}
		var err error
		if d, err = registry.Resolve(b.conf); err != nil {
			return nil, err
		}
	}
	h := &CallbackHandler{
		retrieve:   b.secrets.RetrievePassword,
		dispatcher: dispatch.Instrument(MetricsName, d, b.metrics),
	}
	if b.cacheExpiration > 0 {
		h.retrieve = secretcache.New(h.retrieve, b.cacheExpiration, b.cacheCleanup).Get
	}
	return h, nil
}

// Handle the callbacks of one round of the exchange.
//
// A PasswordCallback is answered with the password of the NameCallback's default name. An AuthorizeCallback is
// authorized when the authentication and authorization IDs are the same. RealmCallbacks are ignored. All other
// callbacks are passed, in order, to the dispatcher together with the default name and its password.
func (h *CallbackHandler) Handle(ctx context.Context, callbacks ...callback.Callback) error {
	var (
		nc      *callback.NameCallback
		pc      *callback.PasswordCallback
		ac      *callback.AuthorizeCallback
		unknown []callback.Callback
	)
	for _, cb := range callbacks {
		// nil pointers of the standard kinds cannot be answered and go to the dispatcher like any other
		switch c := cb.(type) {
		case *callback.AuthorizeCallback:
			if c != nil {
				ac = c
				continue
			}
		case *callback.NameCallback:
			if c != nil {
				nc = c
				continue
			}
		case *callback.PasswordCallback:
			if c != nil {
				pc = c
				continue
			}
		case *callback.RealmCallback:
			// realm is not used
			continue
		}
		unknown = append(unknown, cb)
	}

	var password []byte
	defer func() {
		clear(password)
	}()
	lookup := func() (err error) {
		if password == nil {
			password, err = h.password(ctx, nc.DefaultName)
		}
		return err
	}

	if pc != nil {
		if nc == nil {
			return errNoNameCallback
		}
		if err := lookup(); err != nil {
			return err
		}
		pc.SetPassword(password)
	}

	if ac != nil {
		ac.Authorized = ac.AuthenticationID != "" && ac.AuthenticationID == ac.AuthorizationID
		if ac.Authorized {
			ac.AuthorizedID = ac.AuthorizationID
		}
		DebugLogger.Printf("authorization of %q as %q: %v", ac.AuthenticationID, ac.AuthorizationID, ac.Authorized)
	}

	if len(unknown) == 0 {
		return nil
	}
	var name string
	if nc != nil {
		name = nc.DefaultName
		if err := lookup(); err != nil {
			return err
		}
	}
	DebugLogger.Printf("dispatching %d callbacks for %q", len(unknown), name)
	return h.dispatcher.HandleCallbacks(unknown, name, password)
}

func (h *CallbackHandler) password(ctx context.Context, identifier string) ([]byte, error) {
	password, err := h.retrieve(ctx, identifier)
	if err != nil {
		return nil, errors.Wrapf(err, "retrieve password for %q", identifier)
	}
	// the handler clears its copy once the round is over
	return append(make([]byte, 0, len(password)), password...), nil
}
