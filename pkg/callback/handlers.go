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
	"time"

	"github.com/ForgeRock/sasl-callbacks/internal/jws"
	"github.com/dchest/uniuri"
	"github.com/pkg/errors"
	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

var (
	errNilCallback = errors.New("nil callback")
	errNoName      = errors.New("no name available for response")
	errNoPassword  = errors.New("no password available for response")
	errNoChallenge = errors.New("no challenge to respond to")
)

const (
	// DefaultChallengeID is the hidden value ID answered by a ChallengeHandler without an ID
	DefaultChallengeID = "sasl-challenge"
	// DefaultChallengeExpiry is the lifetime of a challenge response without an Expiry
	DefaultChallengeExpiry = 5 * time.Minute
)

// Handler is an interface for a callback handler.
type Handler interface {
	// Handle the callback by modifying it. Return true if the callback was handled.
	// The username and password are the credentials of the current exchange and must not be retained.
	Handle(cb Callback, username string, password []byte) (bool, error)
}

// NameHandler handles a NameCallback.
type NameHandler struct {
	// Name to respond with, the exchange username is used when empty
	Name string
}

func (h NameHandler) Handle(cb Callback, username string, _ []byte) (bool, error) {
	c, ok := cb.(*NameCallback)
	if !ok {
		return false, nil
	}
	if c == nil {
		return true, errNilCallback
	}
	switch {
	case h.Name != "":
		c.Name = h.Name
	case username != "":
		c.Name = username
	case c.DefaultName != "":
		c.Name = c.DefaultName
	default:
		return true, errNoName
	}
	return true, nil
}

// PasswordHandler handles a PasswordCallback.
type PasswordHandler struct {
	// Password to respond with, the exchange password is used when nil
	Password []byte
}

func (h PasswordHandler) Handle(cb Callback, _ string, password []byte) (bool, error) {
	c, ok := cb.(*PasswordCallback)
	if !ok {
		return false, nil
	}
	if c == nil {
		return true, errNilCallback
	}
	if h.Password != nil {
		password = h.Password
	}
	if password == nil {
		return true, errNoPassword
	}
	c.SetPassword(password)
	return true, nil
}

// ChallengeHandler handles a HiddenValueCallback that carries a server challenge. The response is a HS256 signed
// JWT containing the challenge as its nonce, keyed by the exchange password.
type ChallengeHandler struct {
	// ID of the hidden value callbacks to answer, DefaultChallengeID when empty
	ID       string
	Audience string
	Issuer   string
	// Expiry of the response, DefaultChallengeExpiry when zero
	Expiry time.Duration
	// Claims adds custom claims to the response
	Claims func() interface{}
}

type challengeClaims struct {
	Nonce string `json:"nonce"`
}

func (h ChallengeHandler) Handle(cb Callback, username string, password []byte) (bool, error) {
	c, ok := cb.(*HiddenValueCallback)
	if !ok {
		return false, nil
	}
	id := h.ID
	if id == "" {
		id = DefaultChallengeID
	}
	if c == nil || c.ID != id {
		return false, nil
	}
	if c.Challenge == "" {
		return true, errNoChallenge
	}
	if len(password) == 0 {
		return true, errNoPassword
	}

	sig, err := jws.NewHMACSigner(password, (&jose.SignerOptions{}).WithType("JWT"))
	if err != nil {
		return true, err
	}
	expiry := h.Expiry
	if expiry == 0 {
		expiry = DefaultChallengeExpiry
	}
	now := time.Now()
	claims := jwt.Claims{
		ID:       uniuri.New(),
		Subject:  username,
		Issuer:   h.Issuer,
		IssuedAt: jwt.NewNumericDate(now),
		Expiry:   jwt.NewNumericDate(now.Add(expiry)),
	}
	if h.Audience != "" {
		claims.Audience = jwt.Audience{h.Audience}
	}
	builder := jwt.Signed(sig).Claims(claims).Claims(challengeClaims{Nonce: c.Challenge})
	if h.Claims != nil {
		builder = builder.Claims(h.Claims())
	}
	response, err := builder.CompactSerialize()
	if err != nil {
		return true, errors.Wrap(err, "sign challenge response")
	}
	c.Value = response
	return true, nil
}
