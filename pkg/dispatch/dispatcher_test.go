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
	"strings"
	"testing"

	"github.com/ForgeRock/sasl-callbacks/pkg/callback"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

type fingerprintCallback struct {
	Print string
}

func TestDefaultDispatcher_EmptyBatch(t *testing.T) {
	tests := []struct {
		name      string
		callbacks []callback.Callback
		username  string
		password  []byte
	}{
		{name: "nil", callbacks: nil},
		{name: "empty", callbacks: []callback.Callback{}},
		{name: "credentials", callbacks: []callback.Callback{}, username: "alice", password: []byte("secret")},
	}
	for _, subtest := range tests {
		t.Run(subtest.name, func(t *testing.T) {
			if err := (DefaultDispatcher{}).HandleCallbacks(subtest.callbacks, subtest.username, subtest.password); err != nil {
				t.Errorf("HandleCallbacks() = %v, want nil", err)
			}
		})
	}
}

func TestDefaultDispatcher_Unsupported(t *testing.T) {
	tests := []struct {
		name      string
		callbacks []callback.Callback
		typeName  string
	}{
		{name: "custom", callbacks: []callback.Callback{&fingerprintCallback{}}, typeName: "*dispatch.fingerprintCallback"},
		{name: "standard", callbacks: []callback.Callback{&callback.NameCallback{}}, typeName: "*callback.NameCallback"},
		{name: "nil", callbacks: []callback.Callback{nil}, typeName: "<nil>"},
		{name: "firstOnly", callbacks: []callback.Callback{&callback.TextInputCallback{}, &fingerprintCallback{}, nil}, typeName: "*callback.TextInputCallback"},
	}
	for _, subtest := range tests {
		t.Run(subtest.name, func(t *testing.T) {
			err := (DefaultDispatcher{}).HandleCallbacks(subtest.callbacks, "alice", []byte("secret"))
			var unsupported *callback.UnsupportedError
			if !errors.As(err, &unsupported) {
				t.Fatalf("HandleCallbacks() = %v, want an UnsupportedError", err)
			}
			if unsupported.Callback != subtest.callbacks[0] {
				t.Errorf("UnsupportedError.Callback = %v, want %v", unsupported.Callback, subtest.callbacks[0])
			}
			if !strings.Contains(err.Error(), subtest.typeName) {
				t.Errorf("Error() = %s, want it to contain %s", err, subtest.typeName)
			}
		})
	}
}

func TestDispatcherFunc(t *testing.T) {
	var got string
	d := DispatcherFunc(func(callbacks []callback.Callback, username string, password []byte) error {
		got = username
		return nil
	})
	if err := d.HandleCallbacks(nil, "alice", nil); err != nil {
		t.Fatal(err)
	}
	if got != "alice" {
		t.Errorf("username = %s, want alice", got)
	}
}

type fingerprintHandler struct {
	print string
}

func (h fingerprintHandler) Handle(cb callback.Callback, _ string, _ []byte) (bool, error) {
	c, ok := cb.(*fingerprintCallback)
	if !ok {
		return false, nil
	}
	if h.print == "" {
		return true, errors.New("no fingerprint")
	}
	c.Print = h.print
	return true, nil
}

func TestChain_HandleCallbacks(t *testing.T) {
	name := &callback.NameCallback{}
	password := &callback.PasswordCallback{}
	fingerprint := &fingerprintCallback{}
	d := Chain(callback.NameHandler{}, callback.PasswordHandler{}, fingerprintHandler{print: "whorl"})
	err := d.HandleCallbacks([]callback.Callback{name, password, fingerprint}, "alice", []byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	expected := []callback.Callback{
		&callback.NameCallback{Name: "alice"},
		&callback.PasswordCallback{Password: []byte("secret")},
		&fingerprintCallback{Print: "whorl"},
	}
	if diff := cmp.Diff(expected, []callback.Callback{name, password, fingerprint}); diff != "" {
		t.Errorf("HandleCallbacks() mismatch (-want +got):\n%s", diff)
	}
}

func TestChain_FirstHandlerWins(t *testing.T) {
	name := &callback.NameCallback{}
	d := Chain(callback.NameHandler{Name: "first"}, callback.NameHandler{Name: "second"})
	if err := d.HandleCallbacks([]callback.Callback{name}, "alice", nil); err != nil {
		t.Fatal(err)
	}
	if name.Name != "first" {
		t.Errorf("Name = %s, want first", name.Name)
	}
}

func TestChain_Failure(t *testing.T) {
	tests := []struct {
		name        string
		dispatcher  Dispatcher
		callbacks   []callback.Callback
		unsupported bool
	}{
		{name: "unsupported", dispatcher: Chain(callback.NameHandler{}), callbacks: []callback.Callback{&callback.NameCallback{}, &fingerprintCallback{}}, unsupported: true},
		{name: "nil", dispatcher: Chain(callback.NameHandler{}), callbacks: []callback.Callback{nil}, unsupported: true},
		{name: "noHandlers", dispatcher: Chain(), callbacks: []callback.Callback{&callback.NameCallback{}}, unsupported: true},
		{name: "handlerError", dispatcher: Chain(fingerprintHandler{}), callbacks: []callback.Callback{&fingerprintCallback{}}, unsupported: false},
	}
	for _, subtest := range tests {
		t.Run(subtest.name, func(t *testing.T) {
			err := subtest.dispatcher.HandleCallbacks(subtest.callbacks, "alice", nil)
			if err == nil {
				t.Fatal("expected an error")
			}
			var unsupported *callback.UnsupportedError
			if errors.As(err, &unsupported) != subtest.unsupported {
				t.Errorf("HandleCallbacks() = %v, unsupported want %v", err, subtest.unsupported)
			}
		})
	}
}
