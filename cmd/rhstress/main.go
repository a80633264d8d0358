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

// rhstress runs delete-heavy workloads against rhmap.Map and Go's builtin
// map, checks that both produce the same results, and reports latencies.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/cockroachdb/rhmap"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rhstress: creating logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(logger, os.Args[1:]); err != nil {
		logger.Error("rhstress failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(logger *zap.Logger, args []string) error {
	cfg, err := parseConfig(args)
	if err != nil {
		return err
	}
	logger.Info("starting",
		zap.Int("elements", cfg.Elements),
		zap.Int("iterations", cfg.Iterations),
		zap.Int64("seed", cfg.Seed),
		zap.Int("window", cfg.Window))

	expected := runStress(make(builtinTable, cfg.Elements), cfg)
	logStress(logger, "builtin", expected, cfg)

	m := rhmap.New[int, payload](cfg.Elements)
	actual := runStress(m, cfg)
	logStress(logger, "rhmap", actual, cfg)

	if err := compareResponses(expected.responses, actual.responses); err != nil {
		return fmt.Errorf("stress results diverge: %w", err)
	}

	for _, c := range []struct {
		name string
		t    table
	}{
		{"builtin", make(builtinTable, cfg.Window)},
		{"rhmap", rhmap.New[int, payload](cfg.Window)},
	} {
		elapsed, err := runWindow(c.t, cfg)
		if err != nil {
			return fmt.Errorf("%s window: %w", c.name, err)
		}
		logger.Info("window",
			zap.String("impl", c.name),
			zap.Duration("total", elapsed),
			zap.Duration("mean", elapsed/time.Duration(cfg.Iterations)))
	}
	return nil
}

func logStress(logger *zap.Logger, impl string, r stressResult, cfg config) {
	logger.Info("stress",
		zap.String("impl", impl),
		zap.Duration("total", r.total),
		zap.Duration("mean", r.mean(cfg.Iterations)),
		zap.Duration("max", r.max))
}
