// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main implements the depaprz CLI: appraise the supply-chain
// risk of a batch of crate dependencies against a configurable policy.
//
// Usage:
//
//	depaprz --crates-file deps.json [--config aprz.toml]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/depaprz/internal/apperr"
	"github.com/kraklabs/depaprz/internal/driver"
	"github.com/kraklabs/depaprz/pkg/config"
	"github.com/kraklabs/depaprz/pkg/specs"
)

// crateEntry is one element of the --crates-file JSON array: the
// dependency graph discovery step spec.md leaves out of scope, so
// a caller (or a future `depaprz scan` subcommand) is expected to
// produce this file.
type crateEntry struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Repo    *struct {
		Host  string `json:"host"`
		Owner string `json:"owner"`
		Name  string `json:"name"`
		URL   string `json:"url"`
	} `json:"repo"`
}

func loadCrateSpecs(path string) ([]specs.CrateSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.NewInputError(
			"Cannot read crates file",
			fmt.Sprintf("failed to read %q: %v", path, err),
			"Pass a valid --crates-file path containing a JSON array of {name, version, repo}",
			err,
		)
	}

	var entries []crateEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, apperr.NewInputError(
			"Cannot parse crates file",
			fmt.Sprintf("%q is not a valid JSON array of {name, version, repo}: %v", path, err),
			"Check the file against the documented --crates-file schema",
			err,
		)
	}

	result := make([]specs.CrateSpec, 0, len(entries))
	for _, e := range entries {
		spec, err := specs.NewCrateSpec(e.Name, e.Version)
		if err != nil {
			return nil, apperr.NewInputError(
				"Invalid crate entry",
				err.Error(),
				"Every entry needs a non-empty name and a valid semantic version",
				err,
			)
		}
		if e.Repo != nil {
			spec.Repo = &specs.RepoSpec{Host: e.Repo.Host, Owner: e.Repo.Owner, Name: e.Repo.Name, URL: e.Repo.URL}
		}
		result = append(result, spec)
	}
	return result, nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("depaprz", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to aprz.toml (default: built-in defaults)")
	cratesFile := fs.String("crates-file", "", "path to a JSON array of {name, version, repo} dependencies to appraise")
	depType := fs.String("dependency-type", "standard", "dependency type the batch is appraised as: standard, dev, or build")
	errorIfMedium := fs.Bool("error-if-medium-risk", false, "exit 1 if any unallowed dependency is Medium risk or above")
	errorIfHigh := fs.Bool("error-if-high-risk", false, "exit 1 if any unallowed dependency is High risk")
	jsonOutput := fs.Bool("json", false, "report fatal errors as a single JSON object on stderr")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if *cratesFile == "" {
		apperr.Fatal(apperr.NewInputError(
			"Missing --crates-file",
			"no dependency batch was supplied",
			"Pass --crates-file pointing at a JSON array of {name, version, repo}",
			nil,
		), *jsonOutput)
		return 1
	}

	dt, err := specs.ParseDependencyType(*depType)
	if err != nil {
		apperr.Fatal(apperr.NewInputError(
			"Invalid --dependency-type",
			err.Error(),
			"Use one of: standard, dev, build",
			err,
		), *jsonOutput)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		apperr.Fatal(apperr.NewConfigError(
			"Cannot load configuration",
			err.Error(),
			"Check the --config path and the TOML document's syntax",
			err,
		), *jsonOutput)
		return 1
	}
	cfg.ErrorIfMediumRisk = *errorIfMedium
	cfg.ErrorIfHighRisk = *errorIfHigh

	crateSpecs, err := loadCrateSpecs(*cratesFile)
	if err != nil {
		apperr.Fatal(err, *jsonOutput)
		return 1
	}

	return driver.Run(context.Background(), driver.OSHost{}, crateSpecs, cfg, dt)
}
