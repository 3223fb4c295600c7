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

package jws

import (
	"crypto/sha256"

	"github.com/pkg/errors"
	"gopkg.in/square/go-jose.v2"
)

var (
	ErrMissingSecret = errors.New("missing signing secret")
)

// HMACKey derives a HS256 key from a shared secret of any length
func HMACKey(secret []byte) []byte {
	sum := sha256.Sum256(secret)
	return sum[:]
}

// NewHMACSigner creates a HS256 JOSE signer keyed by the given shared secret
func NewHMACSigner(secret []byte, opts *jose.SignerOptions) (jose.Signer, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	return jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: HMACKey(secret)}, opts)
}
