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

package callback

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ForgeRock/sasl-callbacks/internal/jws"
	"gopkg.in/square/go-jose.v2/jwt"
)

const (
	testAudience = "testRealm"
	testUser     = "Odysseus"
)

var testPassword = []byte("Penelope")

type pinCallback struct {
	Pin string
}

func TestCallbackHandler_HandleResult(t *testing.T) {
	tests := []struct {
		name    string
		cb      Callback
		handler Handler
		handled bool
	}{
		// NameHandler
		{name: "Name/ok", cb: &NameCallback{}, handler: NameHandler{Name: testUser}, handled: true},
		{name: "Name/notHandled", cb: &TextInputCallback{}, handler: NameHandler{Name: testUser}, handled: false},
		{name: "Name/nil", cb: nil, handler: NameHandler{Name: testUser}, handled: false},
		{name: "Name/custom", cb: &pinCallback{}, handler: NameHandler{Name: testUser}, handled: false},
		// PasswordHandler
		{name: "Password/ok", cb: &PasswordCallback{}, handler: PasswordHandler{Password: testPassword}, handled: true},
		{name: "Password/notHandled", cb: &TextInputCallback{}, handler: PasswordHandler{Password: testPassword}, handled: false},
		// ChallengeHandler
		{name: "Challenge/ok", cb: &HiddenValueCallback{ID: DefaultChallengeID, Challenge: "12345"}, handler: ChallengeHandler{}, handled: true},
		{name: "Challenge/otherID", cb: &HiddenValueCallback{ID: "other", Challenge: "12345"}, handler: ChallengeHandler{}, handled: false},
		{name: "Challenge/notHandled", cb: &NameCallback{}, handler: ChallengeHandler{}, handled: false},
	}
	for _, subtest := range tests {
		t.Run(subtest.name, func(t *testing.T) {
			if handled, _ := subtest.handler.Handle(subtest.cb, testUser, testPassword); handled != subtest.handled {
				t.Errorf("Handle() = %v, want %v", handled, subtest.handled)
			}
		})
	}
}

func TestCallbackHandler_Respond_Failure(t *testing.T) {
	tests := []struct {
		name     string
		handler  Handler
		cb       Callback
		username string
		password []byte
	}{
		{name: "Name/nilPointer", handler: NameHandler{}, cb: (*NameCallback)(nil), username: testUser},
		{name: "Name/noName", handler: NameHandler{}, cb: &NameCallback{}},
		{name: "Password/nilPointer", handler: PasswordHandler{}, cb: (*PasswordCallback)(nil), password: testPassword},
		{name: "Password/noPassword", handler: PasswordHandler{}, cb: &PasswordCallback{}},
		{name: "Challenge/noChallenge", handler: ChallengeHandler{}, cb: &HiddenValueCallback{ID: DefaultChallengeID}, password: testPassword},
		{name: "Challenge/noPassword", handler: ChallengeHandler{}, cb: &HiddenValueCallback{ID: DefaultChallengeID, Challenge: "12345"}},
	}
	for _, subtest := range tests {
		t.Run(subtest.name, func(t *testing.T) {
			handled, err := subtest.handler.Handle(subtest.cb, subtest.username, subtest.password)
			if !handled {
				t.Errorf("Expected the callback to be handled")
			}
			if err == nil {
				t.Errorf("Expected an error")
			}
		})
	}
}

func TestNameHandler_Respond(t *testing.T) {
	tests := []struct {
		name     string
		handler  NameHandler
		username string
		cb       *NameCallback
		expected string
	}{
		{name: "fixed", handler: NameHandler{Name: "Telemachus"}, username: testUser, cb: &NameCallback{}, expected: "Telemachus"},
		{name: "username", handler: NameHandler{}, username: testUser, cb: &NameCallback{DefaultName: "nobody"}, expected: testUser},
		{name: "default", handler: NameHandler{}, cb: &NameCallback{DefaultName: "nobody"}, expected: "nobody"},
	}
	for _, subtest := range tests {
		t.Run(subtest.name, func(t *testing.T) {
			if _, err := subtest.handler.Handle(subtest.cb, subtest.username, nil); err != nil {
				t.Fatal(err)
			}
			if subtest.cb.Name != subtest.expected {
				t.Errorf("Name = %v, want %v", subtest.cb.Name, subtest.expected)
			}
		})
	}
}

func TestPasswordHandler_Respond(t *testing.T) {
	password := []byte("password")
	cb := &PasswordCallback{}
	if _, err := (PasswordHandler{}).Handle(cb, testUser, password); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(cb.Password, password) {
		t.Fatal("Password not updated")
	}
	// the callback owns a copy of the password
	password[0] = 'X'
	if cb.Password[0] != 'p' {
		t.Error("Password shares storage with the caller")
	}
	stored := cb.Password
	cb.Clear()
	if cb.Password != nil {
		t.Error("Password not dropped")
	}
	for _, b := range stored {
		if b != 0 {
			t.Fatal("Password not zeroed")
		}
	}
}

func TestPasswordCallback_String(t *testing.T) {
	cb := &PasswordCallback{Prompt: "Password", Password: testPassword}
	if strings.Contains(cb.String(), string(testPassword)) {
		t.Errorf("String() = %s exposes the password", cb)
	}
}

func TestChallengeHandler_Handle(t *testing.T) {
	lue := "42"
	h := ChallengeHandler{
		Audience: testAudience,
		Issuer:   "sasl-client",
		Claims: func() interface{} {
			return struct {
				LifeUniverseEverything string `json:"life_universe_everything"`
			}{LifeUniverseEverything: lue}
		}}
	cb := &HiddenValueCallback{ID: DefaultChallengeID, Challenge: "12345"}
	if _, err := h.Handle(cb, testUser, testPassword); err != nil {
		t.Fatal(err)
	}

	token, err := jwt.ParseSigned(cb.Value)
	if err != nil {
		t.Fatal(err)
	}
	var std jwt.Claims
	custom := struct {
		Nonce                  string `json:"nonce"`
		LifeUniverseEverything string `json:"life_universe_everything"`
	}{}
	if err := token.Claims(jws.HMACKey(testPassword), &std, &custom); err != nil {
		t.Fatal(err)
	}
	if std.Subject != testUser {
		t.Fatal("missing subject")
	}
	if !std.Audience.Contains(testAudience) {
		t.Fatal("missing audience")
	}
	if std.Issuer != "sasl-client" {
		t.Fatal("missing issuer")
	}
	if std.ID == "" {
		t.Fatal("missing token ID")
	}
	if std.IssuedAt == nil || std.Expiry == nil {
		t.Fatal("missing issue or expiry time")
	}
	if std.Expiry.Time().Sub(std.IssuedAt.Time()) != DefaultChallengeExpiry {
		t.Fatal("incorrect expiry time")
	}
	if custom.Nonce != "12345" {
		t.Fatal("incorrect nonce")
	}
	if custom.LifeUniverseEverything != lue {
		t.Fatal("incorrect custom claim")
	}
}

func TestChallengeHandler_UniqueResponses(t *testing.T) {
	first := &HiddenValueCallback{ID: "pop", Challenge: "12345"}
	second := &HiddenValueCallback{ID: "pop", Challenge: "12345"}
	h := ChallengeHandler{ID: "pop"}
	for _, cb := range []*HiddenValueCallback{first, second} {
		if _, err := h.Handle(cb, testUser, testPassword); err != nil {
			t.Fatal(err)
		}
	}
	ids := make([]string, 0, 2)
	for _, cb := range []*HiddenValueCallback{first, second} {
		token, err := jwt.ParseSigned(cb.Value)
		if err != nil {
			t.Fatal(err)
		}
		var claims jwt.Claims
		if err := token.UnsafeClaimsWithoutVerification(&claims); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, claims.ID)
	}
	if a, b := ids[0], ids[1]; a == b {
		t.Errorf("token IDs are not unique: %s", a)
	}
}

func TestUnsupportedError_Error(t *testing.T) {
	tests := []struct {
		name     string
		cb       Callback
		expected string
	}{
		{name: "standard", cb: &TextInputCallback{}, expected: "unsupported callback: *callback.TextInputCallback"},
		{name: "custom", cb: &pinCallback{}, expected: "unsupported callback: *callback.pinCallback"},
		{name: "raw", cb: &Raw{Type: "ConfirmationCallback"}, expected: "unsupported callback: *callback.Raw(ConfirmationCallback)"},
		{name: "nil", cb: nil, expected: "unsupported callback: <nil>"},
	}
	for _, subtest := range tests {
		t.Run(subtest.name, func(t *testing.T) {
			err := &UnsupportedError{Callback: subtest.cb}
			if err.Error() != subtest.expected {
				t.Errorf("Error() = %v, want %v", err.Error(), subtest.expected)
			}
		})
	}
}
