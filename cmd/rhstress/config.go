// Copyright 2026 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/BurntSushi/toml"
)

// config describes the workloads run by rhstress. It can be read from a
// TOML file, e.g.
//
//	elements = 100000
//	iterations = 1000000
//	seed = 12345
//	window = 4096
type config struct {
	// Elements is the number of keys seeded into each map. Keys are drawn
	// uniformly from [0, Elements].
	Elements int `toml:"elements"`

	// Iterations is the number of operations in each timed pass.
	Iterations int `toml:"iterations"`

	Seed int64 `toml:"seed"`

	// Window is the number of live keys in the sliding window workload.
	Window int `toml:"window"`
}

func defaultConfig() config {
	return config{
		Elements:   100_000,
		Iterations: 1_000_000,
		Seed:       12345,
		Window:     4096,
	}
}

func (c config) validate() error {
	if c.Elements <= 0 {
		return errors.New("elements must be positive")
	}
	if c.Iterations <= 0 {
		return errors.New("iterations must be positive")
	}
	if c.Window <= 0 {
		return errors.New("window must be positive")
	}
	return nil
}

// parseConfig builds a config from the command line. Values from the file
// named by -config are applied first, then any flags set explicitly.
func parseConfig(args []string) (config, error) {
	cfg := defaultConfig()

	fs := flag.NewFlagSet("rhstress", flag.ContinueOnError)
	path := fs.String("config", "", "path to a TOML config file")
	elements := fs.Int("elements", cfg.Elements, "number of keys seeded into each map")
	iterations := fs.Int("iterations", cfg.Iterations, "number of operations per timed pass")
	seed := fs.Int64("seed", cfg.Seed, "random seed")
	window := fs.Int("window", cfg.Window, "number of live keys in the sliding window workload")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if *path != "" {
		if _, err := toml.DecodeFile(*path, &cfg); err != nil {
			return config{}, fmt.Errorf("decoding %s: %w", *path, err)
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "elements":
			cfg.Elements = *elements
		case "iterations":
			cfg.Iterations = *iterations
		case "seed":
			cfg.Seed = *seed
		case "window":
			cfg.Window = *window
		}
	})

	if err := cfg.validate(); err != nil {
		return config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
