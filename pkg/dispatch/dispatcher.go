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

package dispatch

import (
	"io"
	"log"

	"github.com/ForgeRock/sasl-callbacks/pkg/callback"
	"github.com/pkg/errors"
)

// DebugLogger receives the debug output of the package. It discards everything until replaced with SetDebugLogger.
var DebugLogger = log.New(io.Discard, "", 0)

// SetDebugLogger sets the logger used for debug output. Passwords and callback answers are never logged.
func SetDebugLogger(logger *log.Logger) {
	DebugLogger = logger
}

// Dispatcher answers a batch of callbacks that the authentication mechanism could not answer itself.
type Dispatcher interface {
	// HandleCallbacks answers the callbacks by modifying them in place. Either every callback is answered or an error
	// is returned. The username and password belong to the current exchange and must not be retained.
	HandleCallbacks(callbacks []callback.Callback, username string, password []byte) error
}

// DispatcherFunc is an adapter that allows an ordinary function to be used as a Dispatcher.
type DispatcherFunc func(callbacks []callback.Callback, username string, password []byte) error

func (f DispatcherFunc) HandleCallbacks(callbacks []callback.Callback, username string, password []byte) error {
	return f(callbacks, username, password)
}

// DefaultDispatcher does not support any callback. An empty batch succeeds; otherwise the call fails with a
// callback.UnsupportedError naming the type of the first callback in the batch, which tells the operator which
// dispatcher needs to be configured.
type DefaultDispatcher struct{}

func (DefaultDispatcher) HandleCallbacks(callbacks []callback.Callback, _ string, _ []byte) error {
	if len(callbacks) == 0 {
		return nil
	}
	return &callback.UnsupportedError{Callback: callbacks[0]}
}

// Chain creates a dispatcher that answers each callback with the first of the handlers that handles it.
// The call fails on the first callback that none of the handlers answer.
func Chain(handlers ...callback.Handler) Dispatcher {
	c := make(chain, len(handlers))
	copy(c, handlers)
	return c
}

type chain []callback.Handler

func (c chain) HandleCallbacks(callbacks []callback.Callback, username string, password []byte) error {
	for _, cb := range callbacks {
		handled, err := c.handle(cb, username, password)
		if err != nil {
			return err
		}
		if !handled {
			return &callback.UnsupportedError{Callback: cb}
		}
	}
	return nil
}

func (c chain) handle(cb callback.Callback, username string, password []byte) (bool, error) {
	for _, h := range c {
		handled, err := h.Handle(cb, username, password)
		if err != nil {
			return true, errors.Wrapf(err, "handle %T", cb)
		}
		if handled {
			return true, nil
		}
	}
	return false, nil
}
