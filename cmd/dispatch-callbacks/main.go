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

// dispatch-callbacks resolves the configured callback dispatcher and runs it over a JSON batch of callbacks,
// printing the answered batch.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/ForgeRock/sasl-callbacks/pkg/callback"
	"github.com/ForgeRock/sasl-callbacks/pkg/dispatch"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "SASL"

type commandlineOpts struct {
	Config     string `short:"c" long:"config" description:"Configuration file (YAML, JSON, TOML or properties)"`
	Dispatcher string `long:"dispatcher" description:"Name of the dispatcher, overrides the configuration"`
	Username   string `short:"u" long:"username" description:"Name of the authenticating identity"`
	Password   string `short:"p" long:"password" description:"Password of the authenticating identity"`
	Batch      string `short:"b" long:"batch" default:"-" description:"JSON file containing the callbacks, - for stdin"`
	List       bool   `long:"list" description:"List the registered dispatchers and exit"`
	Debug      bool   `short:"d" long:"debug" description:"Switch on debug"`
}

// configuration loads the config file, if any, with environment and command line overrides applied on top
func configuration(opts commandlineOpts) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if opts.Config != "" {
		v.SetConfigFile(opts.Config)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", opts.Config)
		}
	}
	if opts.Dispatcher != "" {
		v.Set(dispatch.KeyDispatcher, opts.Dispatcher)
	}
	return v, nil
}

func readBatch(path string, stdin io.Reader) ([]callback.Callback, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read batch")
	}
	return callback.Decode(b)
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	var opts commandlineOpts
	if _, err := flags.ParseArgs(&opts, args); err != nil {
		return err
	}

	if opts.Debug {
		dispatch.SetDebugLogger(log.New(stdout, "", 0))
	}

	if opts.List {
		for _, name := range dispatch.Names() {
			fmt.Fprintln(stdout, name)
		}
		return nil
	}

	conf, err := configuration(opts)
	if err != nil {
		return err
	}
	d, err := dispatch.Resolve(conf)
	if err != nil {
		return err
	}

	callbacks, err := readBatch(opts.Batch, stdin)
	if err != nil {
		return err
	}
	var password []byte
	if opts.Password != "" {
		password = []byte(opts.Password)
	}
	if err := d.HandleCallbacks(callbacks, opts.Username, password); err != nil {
		return err
	}

	b, err := callback.Encode(callbacks)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(b))
	return err
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		log.Fatal(err)
	}
}
