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

// Package driver is the seam between cmd/depaprz's flag parsing and the
// appraisal pipeline: construct the six fact providers, fan a batch of
// specs through aggregator -> ranker -> gate, and print a plaintext
// summary. It is deliberately not a renderer: a richer report format is
// a presentation concern cmd/depaprz can layer on top later.
package driver

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/kraklabs/depaprz/pkg/aggregator"
	"github.com/kraklabs/depaprz/pkg/cache"
	"github.com/kraklabs/depaprz/pkg/config"
	"github.com/kraklabs/depaprz/pkg/facts/advisories"
	"github.com/kraklabs/depaprz/pkg/facts/codebase"
	"github.com/kraklabs/depaprz/pkg/facts/coverage"
	"github.com/kraklabs/depaprz/pkg/facts/docs"
	"github.com/kraklabs/depaprz/pkg/facts/hosting"
	"github.com/kraklabs/depaprz/pkg/facts/registry"
	"github.com/kraklabs/depaprz/pkg/gate"
	"github.com/kraklabs/depaprz/pkg/progress"
	"github.com/kraklabs/depaprz/pkg/ranking"
	"github.com/kraklabs/depaprz/pkg/specs"
)

// Host abstracts the process environment Run writes to and exits
// through, so tests can capture output and assert on an exit code
// instead of a real os.Exit.
type Host interface {
	Stdout() io.Writer
	Stderr() io.Writer
	Exit(code int)
}

// OSHost is the Host cmd/depaprz/main.go uses in production: real
// stdout/stderr and a real process exit.
type OSHost struct{}

func (OSHost) Stdout() io.Writer { return os.Stdout }
func (OSHost) Stderr() io.Writer { return os.Stderr }
func (OSHost) Exit(code int)     { os.Exit(code) }

// The GitHub and Codecov tokens are read from the environment rather
// than threaded through Config, matching the teacher's convention of
// keeping secrets out of the TOML document that gets checked into a
// repo next to aprz.toml.
const (
	githubTokenEnv  = "DEPAPRZ_GITHUB_TOKEN"
	codecovTokenEnv = "DEPAPRZ_CODECOV_TOKEN"
)

// cacheRoot resolves the on-disk cache root, honoring DEPAPRZ_CACHE_DIR
// before falling back to ~/.depaprz/cache, mirroring cmd/cie's
// CIE_DATA_DIR / ~/.cie/data precedence.
func cacheRoot() (string, error) {
	if dir := os.Getenv("DEPAPRZ_CACHE_DIR"); dir != "" {
		return filepath.Clean(dir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}
	return filepath.Join(home, ".depaprz", "cache"), nil
}

// buildProviders constructs one cache + one Provider per fact, each
// keyed off Config's per-provider TTL. The hosting and codebase
// providers share a mirrorDir root so a repository already cloned for
// hosting stats is reused for the tree-sitter walk rather than cloned
// twice.
func buildProviders(ctx context.Context, cfg *config.Config, root string, logger *zap.Logger, onProgress advisories.ProgressFunc) (aggregator.Providers, error) {
	crateCache, err := cache.New(filepath.Join(root, "registry"), cfg.CratesCacheTTL.Duration)
	if err != nil {
		return aggregator.Providers{}, fmt.Errorf("open registry cache: %w", err)
	}
	hostingCache, err := cache.New(filepath.Join(root, "hosting"), cfg.HostingCacheTTL.Duration)
	if err != nil {
		return aggregator.Providers{}, fmt.Errorf("open hosting cache: %w", err)
	}
	codebaseCache, err := cache.New(filepath.Join(root, "codebase"), cfg.CodebaseCacheTTL.Duration)
	if err != nil {
		return aggregator.Providers{}, fmt.Errorf("open codebase cache: %w", err)
	}
	coverageCache, err := cache.New(filepath.Join(root, "coverage"), cfg.CoverageCacheTTL.Duration)
	if err != nil {
		return aggregator.Providers{}, fmt.Errorf("open coverage cache: %w", err)
	}
	docsCache, err := cache.New(filepath.Join(root, "docs"), cfg.DocsCacheTTL.Duration)
	if err != nil {
		return aggregator.Providers{}, fmt.Errorf("open docs cache: %w", err)
	}
	advisoriesCache, err := cache.New(filepath.Join(root, "advisories"), cfg.AdvisoriesCacheTTL.Duration)
	if err != nil {
		return aggregator.Providers{}, fmt.Errorf("open advisories cache: %w", err)
	}

	mirrorDir := filepath.Join(root, "mirrors")

	providers := aggregator.Providers{
		Registry: registry.New(crateCache, registry.NewHTTPDumpSource(), registry.DumpDir(root)),
		Hosting:  hosting.New(hostingCache, mirrorDir, hosting.NewGitHubAPI(os.Getenv(githubTokenEnv))),
		Coverage: coverage.New(coverageCache, coverage.NewCodecovAPI(os.Getenv(codecovTokenEnv))),
		Docs:     docs.New(docsCache, docs.NewDocsRsAPI()),
		Codebase: codebase.New(codebaseCache, mirrorDir),
	}

	// Advisory provider is assigned only on success: assigning a nil
	// *advisories.Provider to the Advisory interface field would make it
	// a non-nil interface wrapping a nil pointer, defeating aggregator's
	// "providers.Advisory == nil" degrade-to-Error check.
	advisoryProvider, err := advisories.New(ctx, advisoriesCache, filepath.Join(root, "advisory-db"), onProgress)
	if err != nil {
		logger.Warn("advisory database unavailable, advisory facts will report errors", zap.Error(err))
	} else {
		providers.Advisory = advisoryProvider
	}

	return providers, nil
}

// Run is the core-provided entry point: resolve the cache root, build
// every fact provider, collect facts for specs, rank and gate each
// dependency, print a summary, and return the process exit code. Run
// does not call host.Exit itself; cmd/depaprz/main.go passes the
// returned code to os.Exit.
func Run(ctx context.Context, host Host, crateSpecs []specs.CrateSpec, cfg *config.Config, dt specs.DependencyType) int {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(host.Stderr(), "Error: could not initialize logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	root, err := cacheRoot()
	if err != nil {
		fmt.Fprintf(host.Stderr(), "Error: %v\n", err)
		return 1
	}

	reporter := progress.NewReporter(host.Stderr(), 0, false)
	tracker := progress.NewTracker(reporter, nil)

	providers, err := buildProviders(ctx, cfg, root, logger, func(message string) {
		reporter.SetMessage(message)
	})
	if err != nil {
		fmt.Fprintf(host.Stderr(), "Error: %v\n", err)
		return 1
	}

	agg := aggregator.New(providers, tracker)
	return runPipeline(ctx, host, agg, crateSpecs, cfg, dt, logger)
}

// runPipeline drives the collect -> rank -> appraise -> gate sequence
// over an already-assembled Aggregator, separated from Run so tests can
// exercise the full pipeline against fake providers without touching
// the network or the filesystem cache.
func runPipeline(ctx context.Context, host Host, agg *aggregator.Aggregator, crateSpecs []specs.CrateSpec, cfg *config.Config, dt specs.DependencyType, logger *zap.Logger) int {
	allFacts := agg.Collect(ctx, crateSpecs)

	ranker := ranking.NewRanker(cfg)
	var inputs []gate.DecisionInput
	outcomes := make(map[string]ranking.RankingOutcome, len(crateSpecs))

	for _, spec := range crateSpecs {
		cf, ok := allFacts[spec.Key()]
		if !ok {
			continue
		}
		outcome := ranker.Rank(cf, dt)
		outcomes[spec.Key()] = outcome

		appraisal, err := gate.Appraise(cfg, outcome)
		if err != nil {
			logger.Error("expression evaluation failed", zap.String("crate", spec.Key()), zap.Error(err))
			fmt.Fprintf(host.Stderr(), "Error: evaluating expressions for %s: %v\n", spec.Key(), err)
			return 1
		}
		inputs = append(inputs, gate.DecisionInput{Name: spec.Name, Version: spec.Version, Appraisal: appraisal})
	}

	verdicts, exitCode := gate.Decide(cfg, inputs, gate.Flags{
		ErrorIfMedium: cfg.ErrorIfMediumRisk,
		ErrorIfHigh:   cfg.ErrorIfHighRisk,
	})

	printSummary(host.Stdout(), crateSpecs, outcomes, verdicts)

	return exitCode
}

// printSummary writes one line per dependency: its risk classification,
// overall score, and whether the allow-list exempted it from gating.
// Full human-readable report rendering is out of scope; this is the
// seam a richer renderer would hook into.
func printSummary(w io.Writer, crateSpecs []specs.CrateSpec, outcomes map[string]ranking.RankingOutcome, verdicts []gate.Verdict) {
	byName := make(map[string]gate.Verdict, len(verdicts))
	for _, v := range verdicts {
		byName[v.Name] = v
	}
	byKey := make(map[string]specs.CrateSpec, len(crateSpecs))
	keys := make([]string, 0, len(crateSpecs))
	for _, spec := range crateSpecs {
		byKey[spec.Key()] = spec
		keys = append(keys, spec.Key())
	}
	sort.Strings(keys)

	for _, key := range keys {
		spec := byKey[key]
		outcome, ok := outcomes[key]
		if !ok {
			fmt.Fprintf(w, "%s: no facts collected\n", key)
			continue
		}
		v, ok := byName[spec.Name]
		allowedNote := ""
		if ok && v.Allowed {
			allowedNote = " (allow-listed)"
		}
		risk := gate.Low
		if ok {
			risk = v.Appraisal.Risk
		}
		fmt.Fprintf(w, "%s: %s  score=%.2f%s\n", key, risk, outcome.OverallScore, allowedNote)
	}
}
