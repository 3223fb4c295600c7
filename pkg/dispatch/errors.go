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
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUnknownDispatcher = errors.New("no dispatcher registered under this name")
	ErrNilInstance       = errors.New("constructor returned a nil dispatcher")
	ErrNilDelegate       = errors.New("nil delegate")
	ErrNoMethod          = errors.New("no exported " + methodName + " method")
	ErrMethodSignature   = errors.New("unsupported " + methodName + " signature")
)

// ConfigurationError is returned when a dispatcher cannot be resolved or adapted. It signals a programming or
// configuration mistake; the owning subsystem should fail to start rather than retry.
type ConfigurationError struct {
	// Name is the configured dispatcher name, empty when adapting a value directly
	Name string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("dispatcher configuration: %v", e.Err)
	}
	return fmt.Sprintf("dispatcher %q configuration: %v", e.Name, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *ConfigurationError) Cause() error {
	return e.Err
}

// InvocationError wraps a failure raised by the HandleCallbacks method of an adapted dispatcher, either a returned
// error or a panic.
type InvocationError struct {
	// Method identifies the invoked method
	Method string
	Err    error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("failed to invoke %s: %v", e.Method, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

func (e *InvocationError) Cause() error {
	return e.Err
}
