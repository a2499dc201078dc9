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

// Package aggregator fans a batch of CrateSpecs out to all six fact
// providers concurrently and pivots their per-provider result maps
// into one facts.CrateFacts per dependency.
package aggregator

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kraklabs/depaprz/pkg/facts"
	"github.com/kraklabs/depaprz/pkg/progress"
	"github.com/kraklabs/depaprz/pkg/specs"
)

// RegistryProvider is the subset of registry.Provider the aggregator needs.
type RegistryProvider interface {
	GetOverall(ctx context.Context, crateSpecs []specs.CrateSpec) map[string]facts.ProviderResult[facts.RegistryOverall]
	GetVersion(ctx context.Context, crateSpecs []specs.CrateSpec) map[string]facts.ProviderResult[facts.RegistryVersion]
}

// AdvisoryProvider is the subset of advisories.Provider the aggregator needs.
type AdvisoryProvider interface {
	GetAdvisoryData(crateSpecs []specs.CrateSpec) map[string]facts.ProviderResult[facts.AdvisoryData]
}

// HostingProvider is the subset of hosting.Provider the aggregator needs.
type HostingProvider interface {
	GetHostingData(ctx context.Context, crateSpecs []specs.CrateSpec) map[string]facts.ProviderResult[facts.HostingData]
}

// CoverageProvider is the subset of coverage.Provider the aggregator needs.
type CoverageProvider interface {
	GetCoverageData(ctx context.Context, crateSpecs []specs.CrateSpec) map[string]facts.ProviderResult[facts.CoverageData]
}

// DocsProvider is the subset of docs.Provider the aggregator needs.
type DocsProvider interface {
	GetDocsData(ctx context.Context, crateSpecs []specs.CrateSpec) map[string]facts.ProviderResult[facts.DocsData]
}

// CodebaseProvider is the subset of codebase.Provider the aggregator needs.
type CodebaseProvider interface {
	GetCodebaseData(ctx context.Context, crateSpecs []specs.CrateSpec) map[string]facts.ProviderResult[facts.CodebaseData]
}

// Providers bundles one instance of each fact provider. A nil field is
// legal and degrades that provider's contribution to every spec's
// facts to an Error result, rather than nil-panicking or forcing every
// caller to wire all six providers even in a test harness that only
// cares about a subset.
type Providers struct {
	Registry RegistryProvider
	Advisory AdvisoryProvider
	Hosting  HostingProvider
	Coverage CoverageProvider
	Docs     DocsProvider
	Codebase CodebaseProvider
}

// Aggregator fans a batch of specs out to every configured provider
// concurrently and pivots the results into one CrateFacts per spec.
type Aggregator struct {
	providers Providers
	tracker   *progress.Tracker
}

// New builds an Aggregator. tracker may be nil, in which case no
// progress is reported.
func New(providers Providers, tracker *progress.Tracker) *Aggregator {
	return &Aggregator{providers: providers, tracker: tracker}
}

// Collect fetches every provider's facts for crateSpecs and returns one
// CrateFacts per spec, keyed by CrateSpec.Key(). A provider that is nil
// degrades that provider's field to facts.Error for every spec in the
// batch — no provider's failure aborts another provider's fan-out
// goroutine, nor the overall Collect call. A panic inside a provider
// call is not recovered.
func (a *Aggregator) Collect(ctx context.Context, crateSpecs []specs.CrateSpec) map[string]*facts.CrateFacts {
	result := make(map[string]*facts.CrateFacts, len(crateSpecs))
	for _, spec := range crateSpecs {
		result[spec.Key()] = &facts.CrateFacts{Spec: spec.Key()}
	}

	var g errgroup.Group

	g.Go(a.collectRegistry(ctx, crateSpecs, result))
	g.Go(a.collectAdvisories(crateSpecs, result))
	g.Go(a.collectHosting(ctx, crateSpecs, result))
	g.Go(a.collectCoverage(ctx, crateSpecs, result))
	g.Go(a.collectDocs(ctx, crateSpecs, result))
	g.Go(a.collectCodebase(ctx, crateSpecs, result))

	// Every collect* closure only ever returns nil: a provider-fatal
	// failure is folded into per-spec Error results rather than
	// propagated, matching "no provider's failure stops another".
	_ = g.Wait()

	now := time.Now()
	for _, cf := range result {
		cf.CollectedAt = now
	}

	return result
}

func (a *Aggregator) track(name string, n int) func() {
	if a.tracker == nil || n == 0 {
		return func() {}
	}
	a.tracker.AddRequests(name, uint64(n))
	return func() {
		for i := 0; i < n; i++ {
			a.tracker.CompleteRequest(name)
		}
	}
}

func (a *Aggregator) collectRegistry(ctx context.Context, crateSpecs []specs.CrateSpec, result map[string]*facts.CrateFacts) func() error {
	return func() error {
		done := a.track("registry", len(crateSpecs))
		defer done()

		if a.providers.Registry == nil {
			setAll(result, crateSpecs, func(cf *facts.CrateFacts) {
				cf.Registry = facts.Error[facts.RegistryOverall]("registry provider not configured")
				cf.Version = facts.Error[facts.RegistryVersion]("registry provider not configured")
			})
			return nil
		}

		overall := a.providers.Registry.GetOverall(ctx, crateSpecs)
		version := a.providers.Registry.GetVersion(ctx, crateSpecs)
		for _, spec := range crateSpecs {
			cf := result[spec.Key()]
			if r, ok := overall[spec.Name]; ok {
				cf.Registry = r
			} else {
				cf.Registry = facts.Error[facts.RegistryOverall]("no overall registry result returned")
			}
			if r, ok := version[spec.Key()]; ok {
				cf.Version = r
			} else {
				cf.Version = facts.Error[facts.RegistryVersion]("no version registry result returned")
			}
		}
		return nil
	}
}

func (a *Aggregator) collectAdvisories(crateSpecs []specs.CrateSpec, result map[string]*facts.CrateFacts) func() error {
	return func() error {
		done := a.track("advisories", len(crateSpecs))
		defer done()

		if a.providers.Advisory == nil {
			setAll(result, crateSpecs, func(cf *facts.CrateFacts) {
				cf.Advisories = facts.Error[facts.AdvisoryData]("advisory provider not configured")
			})
			return nil
		}

		data := a.providers.Advisory.GetAdvisoryData(crateSpecs)
		applyByKey(result, crateSpecs, data, func(cf *facts.CrateFacts, r facts.ProviderResult[facts.AdvisoryData]) {
			cf.Advisories = r
		}, "advisories")
		return nil
	}
}

func (a *Aggregator) collectHosting(ctx context.Context, crateSpecs []specs.CrateSpec, result map[string]*facts.CrateFacts) func() error {
	return func() error {
		done := a.track("hosting", len(crateSpecs))
		defer done()

		if a.providers.Hosting == nil {
			setAll(result, crateSpecs, func(cf *facts.CrateFacts) {
				cf.Hosting = facts.Error[facts.HostingData]("hosting provider not configured")
			})
			return nil
		}

		data := a.providers.Hosting.GetHostingData(ctx, crateSpecs)
		applyByKey(result, crateSpecs, data, func(cf *facts.CrateFacts, r facts.ProviderResult[facts.HostingData]) {
			cf.Hosting = r
		}, "hosting")
		return nil
	}
}

func (a *Aggregator) collectCoverage(ctx context.Context, crateSpecs []specs.CrateSpec, result map[string]*facts.CrateFacts) func() error {
	return func() error {
		done := a.track("coverage", len(crateSpecs))
		defer done()

		if a.providers.Coverage == nil {
			setAll(result, crateSpecs, func(cf *facts.CrateFacts) {
				cf.Coverage = facts.Error[facts.CoverageData]("coverage provider not configured")
			})
			return nil
		}

		data := a.providers.Coverage.GetCoverageData(ctx, crateSpecs)
		applyByKey(result, crateSpecs, data, func(cf *facts.CrateFacts, r facts.ProviderResult[facts.CoverageData]) {
			cf.Coverage = r
		}, "coverage")
		return nil
	}
}

func (a *Aggregator) collectDocs(ctx context.Context, crateSpecs []specs.CrateSpec, result map[string]*facts.CrateFacts) func() error {
	return func() error {
		done := a.track("docs", len(crateSpecs))
		defer done()

		if a.providers.Docs == nil {
			setAll(result, crateSpecs, func(cf *facts.CrateFacts) {
				cf.Docs = facts.Error[facts.DocsData]("docs provider not configured")
			})
			return nil
		}

		data := a.providers.Docs.GetDocsData(ctx, crateSpecs)
		applyByKey(result, crateSpecs, data, func(cf *facts.CrateFacts, r facts.ProviderResult[facts.DocsData]) {
			cf.Docs = r
		}, "docs")
		return nil
	}
}

func (a *Aggregator) collectCodebase(ctx context.Context, crateSpecs []specs.CrateSpec, result map[string]*facts.CrateFacts) func() error {
	return func() error {
		done := a.track("codebase", len(crateSpecs))
		defer done()

		if a.providers.Codebase == nil {
			setAll(result, crateSpecs, func(cf *facts.CrateFacts) {
				cf.Codebase = facts.Error[facts.CodebaseData]("codebase provider not configured")
			})
			return nil
		}

		data := a.providers.Codebase.GetCodebaseData(ctx, crateSpecs)
		applyByKey(result, crateSpecs, data, func(cf *facts.CrateFacts, r facts.ProviderResult[facts.CodebaseData]) {
			cf.Codebase = r
		}, "codebase")
		return nil
	}
}

func setAll(result map[string]*facts.CrateFacts, crateSpecs []specs.CrateSpec, set func(*facts.CrateFacts)) {
	for _, spec := range crateSpecs {
		set(result[spec.Key()])
	}
}

func applyByKey[T any](
	result map[string]*facts.CrateFacts,
	crateSpecs []specs.CrateSpec,
	data map[string]facts.ProviderResult[T],
	set func(*facts.CrateFacts, facts.ProviderResult[T]),
	providerName string,
) {
	for _, spec := range crateSpecs {
		cf := result[spec.Key()]
		if r, ok := data[spec.Key()]; ok {
			set(cf, r)
		} else {
			set(cf, facts.Error[T]("no "+providerName+" result returned"))
		}
	}
}
