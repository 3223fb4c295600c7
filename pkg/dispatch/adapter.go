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
	"reflect"
	"unicode/utf8"

	"github.com/ForgeRock/sasl-callbacks/pkg/callback"
	"github.com/pkg/errors"
)

const methodName = "HandleCallbacks"

var (
	callbacksType = reflect.TypeOf([]callback.Callback(nil))
	bytesType     = reflect.TypeOf([]byte(nil))
	runesType     = reflect.TypeOf([]rune(nil))
	errorType     = reflect.TypeOf((*error)(nil)).Elem()
)

type invoker func(callbacks []callback.Callback, username string, password []byte) error

// adapter dispatches to a HandleCallbacks method that was bound when the adapter was created
type adapter struct {
	delegate interface{}
	method   string
	invoke   invoker
}

// Adapt returns a Dispatcher that calls the exported HandleCallbacks method of the delegate.
//
// The method is looked up and checked once. It must take three parameters:
//   - a slice of callbacks whose element type is an empty interface, such as []callback.Callback or []interface{};
//   - the username as a string;
//   - the password as []byte, []rune or string;
//
// and return either nothing or an error. Callbacks are passed by reference, so answers written by the delegate are
// seen by the caller. A nil delegate, or one without such a method, results in a *ConfigurationError. Errors returned by the
// method, and panics raised inside it, are returned from HandleCallbacks as an *InvocationError.
func Adapt(delegate interface{}) (Dispatcher, error) {
	if delegate == nil {
		return nil, &ConfigurationError{Err: ErrNilDelegate}
	}
	v := reflect.ValueOf(delegate)
	if isNillable(v.Kind()) && v.IsNil() {
		return nil, &ConfigurationError{Err: errors.Wrapf(ErrNilDelegate, "%T", delegate)}
	}
	name := fmt.Sprintf("(%T).%s", delegate, methodName)
	method := v.MethodByName(methodName)
	if !method.IsValid() {
		return nil, &ConfigurationError{Err: errors.Wrapf(ErrNoMethod, "%T", delegate)}
	}
	invoke, err := bind(method)
	if err != nil {
		return nil, &ConfigurationError{Err: errors.Wrap(err, name)}
	}
	DebugLogger.Printf("adapted %s", name)
	return &adapter{delegate: delegate, method: name, invoke: invoke}, nil
}

func (a *adapter) HandleCallbacks(callbacks []callback.Callback, username string, password []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if ok {
				cause = errors.Wrap(cause, "panic")
			} else {
				cause = errors.Errorf("panic: %v", r)
			}
			err = &InvocationError{Method: a.method, Err: cause}
		}
	}()
	if err := a.invoke(callbacks, username, password); err != nil {
		return &InvocationError{Method: a.method, Err: err}
	}
	return nil
}

func (a *adapter) String() string {
	return a.method
}

// bind checks the signature of the method and returns a function that converts the arguments and results
func bind(method reflect.Value) (invoker, error) {
	t := method.Type()
	if t.IsVariadic() || t.NumIn() != 3 {
		return nil, errors.Wrapf(ErrMethodSignature, "%s takes %d parameters, want 3", t, t.NumIn())
	}
	batch, err := batchArg(t.In(0))
	if err != nil {
		return nil, err
	}
	if t.In(1).Kind() != reflect.String {
		return nil, errors.Wrapf(ErrMethodSignature, "username parameter %s is not a string", t.In(1))
	}
	secret, err := secretArg(t.In(2))
	if err != nil {
		return nil, err
	}
	result, err := results(t)
	if err != nil {
		return nil, err
	}

	nameType := t.In(1)
	return func(callbacks []callback.Callback, username string, password []byte) error {
		return result(method.Call([]reflect.Value{
			batch(callbacks),
			reflect.ValueOf(username).Convert(nameType),
			secret(password),
		}))
	}, nil
}

func batchArg(t reflect.Type) (func([]callback.Callback) reflect.Value, error) {
	if t.Kind() != reflect.Slice || t.Elem().Kind() != reflect.Interface || t.Elem().NumMethod() != 0 {
		return nil, errors.Wrapf(ErrMethodSignature, "callbacks parameter %s is not a slice of callbacks", t)
	}
	if t == callbacksType {
		return func(callbacks []callback.Callback) reflect.Value {
			return reflect.ValueOf(callbacks)
		}, nil
	}
	return func(callbacks []callback.Callback) reflect.Value {
		s := reflect.MakeSlice(t, len(callbacks), len(callbacks))
		for i, cb := range callbacks {
			if cb != nil {
				s.Index(i).Set(reflect.ValueOf(cb))
			}
		}
		return s
	}, nil
}

func secretArg(t reflect.Type) (func([]byte) reflect.Value, error) {
	switch {
	case t.Kind() == reflect.String:
		return func(password []byte) reflect.Value {
			return reflect.ValueOf(string(password)).Convert(t)
		}, nil
	case t.Kind() != reflect.Slice:
	case bytesType.ConvertibleTo(t):
		return func(password []byte) reflect.Value {
			return reflect.ValueOf(password).Convert(t)
		}, nil
	case runesType.ConvertibleTo(t):
		return func(password []byte) reflect.Value {
			return reflect.ValueOf(toRunes(password)).Convert(t)
		}, nil
	}
	return nil, errors.Wrapf(ErrMethodSignature, "password parameter %s is not []byte, []rune or string", t)
}

func toRunes(b []byte) []rune {
	if b == nil {
		return nil
	}
	runes := make([]rune, 0, utf8.RuneCount(b))
	for len(b) > 0 {
		r, n := utf8.DecodeRune(b)
		runes = append(runes, r)
		b = b[n:]
	}
	return runes
}

func results(t reflect.Type) (func([]reflect.Value) error, error) {
	switch {
	case t.NumOut() == 0:
		return func([]reflect.Value) error {
			return nil
		}, nil
	case t.NumOut() == 1 && t.Out(0) == errorType:
		return func(out []reflect.Value) error {
			if out[0].IsNil() {
				return nil
			}
			return out[0].Interface().(error)
		}, nil
	}
	return nil, errors.Wrapf(ErrMethodSignature, "%s must return nothing or an error", t)
}
