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
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/ForgeRock/sasl-callbacks/pkg/callback"
	"github.com/pkg/errors"
)

const (
	// KeyDispatcher is the configuration key holding the name of the dispatcher
	KeyDispatcher = "security.sasl.callback.dispatcher"

	// Names of the built-in dispatchers
	NameDefault     = "default"
	NameCredentials = "credentials"
	NameToken       = "token"
)

// Configuration is the source of the dispatcher name. *viper.Viper satisfies this interface.
type Configuration interface {
	GetString(key string) string
}

// MapConfig is a Configuration held in memory.
type MapConfig map[string]string

func (c MapConfig) GetString(key string) string {
	return c[key]
}

// Constructor creates a new dispatcher. The returned value either implements Dispatcher or has a HandleCallbacks
// method that Adapt accepts.
type Constructor func() (interface{}, error)

// Registry maps dispatcher names to their constructors.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry creates a registry containing the default dispatcher.
func NewRegistry() *Registry {
	r := &Registry{constructors: make(map[string]Constructor)}
	r.Register(NameDefault, func() (interface{}, error) {
		return DefaultDispatcher{}, nil
	})
	return r
}

// Register makes a dispatcher constructor available under the given name.
// Register panics if the name is empty or already registered, or if the constructor is nil.
func (r *Registry) Register(name string, constructor Constructor) {
	if name == "" {
		panic("dispatch: Register with empty name")
	}
	if constructor == nil {
		panic("dispatch: Register constructor is nil for " + name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.constructors[name]; dup {
		panic("dispatch: Register called twice for " + name)
	}
	r.constructors[name] = constructor
}

// Names returns the sorted names of the registered dispatchers.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve creates the dispatcher named in the configuration, the default dispatcher if no name is configured.
// Any failure is a *ConfigurationError.
func (r *Registry) Resolve(conf Configuration) (Dispatcher, error) {
	var name string
	if conf != nil {
		name = strings.TrimSpace(conf.GetString(KeyDispatcher))
	}
	if name == "" {
		name = NameDefault
	}
	return r.New(name)
}

// New creates the dispatcher registered under the given name. A value that implements Dispatcher is returned as it
// is, anything else is adapted.
func (r *Registry) New(name string) (Dispatcher, error) {
	r.mu.RLock()
	constructor, ok := r.constructors[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &ConfigurationError{Name: name, Err: ErrUnknownDispatcher}
	}

	instance, err := construct(constructor)
	if err != nil {
		return nil, &ConfigurationError{Name: name, Err: err}
	}
	if d, ok := instance.(Dispatcher); ok {
		DebugLogger.Printf("dispatcher %q resolved to %T", name, instance)
		return d, nil
	}
	d, err := Adapt(instance)
	if err != nil {
		if ce, ok := err.(*ConfigurationError); ok {
			ce.Name = name
		}
		return nil, err
	}
	DebugLogger.Printf("dispatcher %q resolved to adapted %T", name, instance)
	return d, nil
}

// construct runs the constructor, turning a panic or a nil result into an error
func construct(constructor Constructor) (instance interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			instance, err = nil, errors.Errorf("constructor panicked: %v", r)
		}
	}()
	instance, err = constructor()
	if err != nil {
		return nil, errors.Wrap(err, "constructor failed")
	}
	if instance == nil {
		return nil, ErrNilInstance
	}
	if v := reflect.ValueOf(instance); isNillable(v.Kind()) && v.IsNil() {
		return nil, ErrNilInstance
	}
	return instance, nil
}

func isNillable(k reflect.Kind) bool {
	switch k {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return true
	}
	return false
}

// DefaultRegistry is the registry used by Register, Names and Resolve.
var DefaultRegistry = NewRegistry()

func init() {
	DefaultRegistry.Register(NameCredentials, func() (interface{}, error) {
		return Chain(callback.NameHandler{}, callback.PasswordHandler{}), nil
	})
	DefaultRegistry.Register(NameToken, func() (interface{}, error) {
		return Chain(callback.NameHandler{}, callback.PasswordHandler{}, callback.ChallengeHandler{}), nil
	})
}

// Register makes a dispatcher constructor available in the DefaultRegistry.
func Register(name string, constructor Constructor) {
	DefaultRegistry.Register(name, constructor)
}

// Names returns the names registered in the DefaultRegistry.
func Names() []string {
	return DefaultRegistry.Names()
}

// Resolve creates the configured dispatcher from the DefaultRegistry.
func Resolve(conf Configuration) (Dispatcher, error) {
	return DefaultRegistry.Resolve(conf)
}
