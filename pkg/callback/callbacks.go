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
	"fmt"
)

const (
	// Authentication callback names
	TypeNameCallback        = "NameCallback"
	TypePasswordCallback    = "PasswordCallback"
	TypeRealmCallback       = "RealmCallback"
	TypeAuthorizeCallback   = "AuthorizeCallback"
	TypeTextInputCallback   = "TextInputCallback"
	TypeHiddenValueCallback = "HiddenValueCallback"
)

// Callback is a request for information raised by an authentication mechanism. The set of concrete callbacks is
// owned by the mechanism; handlers recognise the ones they support by their runtime type and answer them in place.
type Callback interface{}

// NameCallback asks for the name of the identity being authenticated.
type NameCallback struct {
	Prompt      string
	DefaultName string
	// Name is the answer
	Name string
}

func (c *NameCallback) String() string {
	return fmt.Sprintf("{NameCallback Prompt:%v DefaultName:%v Name:%v}", c.Prompt, c.DefaultName, c.Name)
}

// PasswordCallback asks for the secret of the identity being authenticated.
type PasswordCallback struct {
	Prompt string
	Echo   bool
	// Password is the answer
	Password []byte
}

// SetPassword stores a copy of the given password so that the caller remains free to clear its own.
func (c *PasswordCallback) SetPassword(password []byte) {
	if password == nil {
		c.Password = nil
		return
	}
	c.Password = append(make([]byte, 0, len(password)), password...)
}

// Clear zeroes and drops the stored password.
func (c *PasswordCallback) Clear() {
	for i := range c.Password {
		c.Password[i] = 0
	}
	c.Password = nil
}

// passwords are never printed
func (c *PasswordCallback) String() string {
	return fmt.Sprintf("{PasswordCallback Prompt:%v Echo:%v Set:%v}", c.Prompt, c.Echo, c.Password != nil)
}

// RealmCallback asks for the realm in which to authenticate.
type RealmCallback struct {
	Prompt      string
	DefaultText string
	Text        string
}

// AuthorizeCallback asks whether the authenticated identity may act as the requested authorization identity.
type AuthorizeCallback struct {
	AuthenticationID string
	AuthorizationID  string
	// Authorized and AuthorizedID are the answer
	Authorized   bool
	AuthorizedID string
}

// TextInputCallback asks for free form text.
type TextInputCallback struct {
	Prompt      string
	DefaultText string
	Text        string
}

// HiddenValueCallback carries a server challenge and expects a value that is not shown to the user.
type HiddenValueCallback struct {
	ID        string
	Challenge string
	// Value is the answer
	Value string
}

// UnsupportedError is returned when a handler has been given a callback that it does not know how to answer.
type UnsupportedError struct {
	Callback Callback
}

func (e *UnsupportedError) Error() string {
	if r, ok := e.Callback.(*Raw); ok && r != nil {
		return fmt.Sprintf("unsupported callback: %T(%s)", e.Callback, r.Type)
	}
	return fmt.Sprintf("unsupported callback: %T", e.Callback)
}
