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

// Package callback provides the callbacks raised during a SASL style challenge-response exchange and handlers that
// answer them. Use the predefined handlers to answer the standard callbacks or implement the Handler interface to
// answer your own.
//
// This is an example of how to create your own callback handler:
//
//	type PinCallback struct {
//	    Pin string
//	}
//
//	type PinHandler struct {
//	    Pin string
//	}
//
//	func (h PinHandler) Handle(cb callback.Callback, username string, password []byte) (bool, error) {
//	    c, ok := cb.(*PinCallback)
//	    if !ok {
//	        return false, nil
//	    }
//	    c.Pin = h.Pin
//	    return true, nil
//	}
//
// The handler can then be chained with the standard handlers to create a dispatcher:
//
//	dispatch.Chain(callback.NameHandler{}, callback.PasswordHandler{}, PinHandler{Pin: "1234"})
package callback
