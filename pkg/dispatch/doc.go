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

// Package dispatch resolves and runs the dispatcher that answers the callbacks an authentication mechanism does not
// handle itself.
//
// A dispatcher is selected by name from a Configuration and created by the constructor registered under that name:
//
//	func init() {
//	    dispatch.Register("pin", func() (interface{}, error) {
//	        return dispatch.Chain(callback.NameHandler{}, PinHandler{}), nil
//	    })
//	}
//
//	d, err := dispatch.Resolve(dispatch.MapConfig{dispatch.KeyDispatcher: "pin"})
//
// The constructed value does not have to implement Dispatcher. Any value with an exported HandleCallbacks method that
// takes a slice of callbacks, a username and a password is adapted with Adapt, so that implementations can be written
// without importing this package.
//
// When nothing is configured the DefaultDispatcher is used, which rejects every callback it is given.
package dispatch
