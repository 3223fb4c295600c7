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
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/pkg/errors"
)

const (
	// Entry keys
	keyPrompt           = "prompt"
	keyDefaultName      = "defaultName"
	keyDefaultText      = "defaultText"
	keyEcho             = "echoOn"
	keyHiddenID         = "id"
	keyValue            = "value"
	keyAuthenticationID = "authenticationId"
	keyAuthorizationID  = "authorizationId"
	keyAuthorized       = "authorized"
	keyAuthorizedID     = "authorizedId"
)

// Entry represents an Input or Output Entry in a Raw callback.
type Entry struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

func (e Entry) String() string {
	return fmt.Sprintf("{Name:%v Value:%v}", e.Name, e.Value)
}

// Raw is the JSON representation of a callback. Callback types that this package does not know are decoded to Raw.
type Raw struct {
	Type   string  `json:"type,omitempty"`
	Output []Entry `json:"output,omitempty"`
	Input  []Entry `json:"input,omitempty"`
}

func (r *Raw) String() string {
	return fmt.Sprintf("{Callback Type:%v Output:%v Input:%v}", r.Type, r.Output, r.Input)
}

func (r *Raw) output(name string) string {
	for _, e := range r.Output {
		if e.Name == name {
			return stringValue(e.Value)
		}
	}
	return ""
}

func (r *Raw) input() string {
	if len(r.Input) == 0 {
		return ""
	}
	return stringValue(r.Input[0].Value)
}

func stringValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// inputName follows the AM convention of naming input entries by their one-based position in the batch
func inputName(index int) string {
	return "IDToken" + strconv.Itoa(index+1)
}

// Decode a JSON array of callbacks. A null element decodes to a nil Callback.
func Decode(data []byte) ([]Callback, error) {
	var raws []*Raw
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, errors.Wrap(err, "decode callbacks")
	}
	callbacks := make([]Callback, len(raws))
	for i, r := range raws {
		if r == nil {
			continue
		}
		callbacks[i] = fromRaw(r)
	}
	return callbacks, nil
}

func fromRaw(r *Raw) Callback {
	switch r.Type {
	case TypeNameCallback:
		return &NameCallback{
			Prompt:      r.output(keyPrompt),
			DefaultName: r.output(keyDefaultName),
			Name:        r.input(),
		}
	case TypePasswordCallback:
		c := &PasswordCallback{
			Prompt: r.output(keyPrompt),
			Echo:   r.output(keyEcho) == "true",
		}
		if p := r.input(); p != "" {
			c.Password = []byte(p)
		}
		return c
	case TypeRealmCallback:
		return &RealmCallback{
			Prompt:      r.output(keyPrompt),
			DefaultText: r.output(keyDefaultText),
			Text:        r.input(),
		}
	case TypeTextInputCallback:
		return &TextInputCallback{
			Prompt:      r.output(keyPrompt),
			DefaultText: r.output(keyDefaultText),
			Text:        r.input(),
		}
	case TypeHiddenValueCallback:
		return &HiddenValueCallback{
			ID:        r.output(keyHiddenID),
			Challenge: r.output(keyValue),
			Value:     r.input(),
		}
	case TypeAuthorizeCallback:
		c := &AuthorizeCallback{
			AuthenticationID: r.output(keyAuthenticationID),
			AuthorizationID:  r.output(keyAuthorizationID),
		}
		for _, e := range r.Input {
			switch e.Name {
			case keyAuthorized:
				c.Authorized = stringValue(e.Value) == "true"
			case keyAuthorizedID:
				c.AuthorizedID = stringValue(e.Value)
			}
		}
		return c
	}
	cp := *r
	return &cp
}

// Encode callbacks as a JSON array, writing the answers into the input entries.
func Encode(callbacks []Callback) ([]byte, error) {
	raws := make([]*Raw, len(callbacks))
	for i, cb := range callbacks {
		r, err := toRaw(i, cb)
		if err != nil {
			return nil, err
		}
		raws[i] = r
	}
	return json.Marshal(raws)
}

func toRaw(index int, cb Callback) (*Raw, error) {
	if v := reflect.ValueOf(cb); v.Kind() == reflect.Ptr && v.IsNil() {
		return nil, nil
	}
	switch c := cb.(type) {
	case nil:
		return nil, nil
	case *NameCallback:
		return &Raw{
			Type:   TypeNameCallback,
			Output: []Entry{{Name: keyPrompt, Value: c.Prompt}, {Name: keyDefaultName, Value: c.DefaultName}},
			Input:  []Entry{{Name: inputName(index), Value: c.Name}},
		}, nil
	case *PasswordCallback:
		return &Raw{
			Type:   TypePasswordCallback,
			Output: []Entry{{Name: keyPrompt, Value: c.Prompt}, {Name: keyEcho, Value: c.Echo}},
			Input:  []Entry{{Name: inputName(index), Value: string(c.Password)}},
		}, nil
	case *RealmCallback:
		return &Raw{
			Type:   TypeRealmCallback,
			Output: []Entry{{Name: keyPrompt, Value: c.Prompt}, {Name: keyDefaultText, Value: c.DefaultText}},
			Input:  []Entry{{Name: inputName(index), Value: c.Text}},
		}, nil
	case *TextInputCallback:
		return &Raw{
			Type:   TypeTextInputCallback,
			Output: []Entry{{Name: keyPrompt, Value: c.Prompt}, {Name: keyDefaultText, Value: c.DefaultText}},
			Input:  []Entry{{Name: inputName(index), Value: c.Text}},
		}, nil
	case *HiddenValueCallback:
		return &Raw{
			Type:   TypeHiddenValueCallback,
			Output: []Entry{{Name: keyValue, Value: c.Challenge}, {Name: keyHiddenID, Value: c.ID}},
			Input:  []Entry{{Name: inputName(index), Value: c.Value}},
		}, nil
	case *AuthorizeCallback:
		return &Raw{
			Type: TypeAuthorizeCallback,
			Output: []Entry{
				{Name: keyAuthenticationID, Value: c.AuthenticationID},
				{Name: keyAuthorizationID, Value: c.AuthorizationID},
			},
			Input: []Entry{
				{Name: keyAuthorized, Value: c.Authorized},
				{Name: keyAuthorizedID, Value: c.AuthorizedID},
			},
		}, nil
	case *Raw:
		return c, nil
	}
	return nil, errors.Errorf("unable to encode callback %d of type %T", index, cb)
}
