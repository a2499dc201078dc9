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

package aggregator

import (
	"context"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/depaprz/pkg/facts"
	"github.com/kraklabs/depaprz/pkg/specs"
)

type fakeRegistry struct{}

func (fakeRegistry) GetOverall(ctx context.Context, crateSpecs []specs.CrateSpec) map[string]facts.ProviderResult[facts.RegistryOverall] {
	out := make(map[string]facts.ProviderResult[facts.RegistryOverall])
	for _, s := range crateSpecs {
		out[s.Name] = facts.Found(facts.RegistryOverall{TotalDownloads: 1})
	}
	return out
}

func (fakeRegistry) GetVersion(ctx context.Context, crateSpecs []specs.CrateSpec) map[string]facts.ProviderResult[facts.RegistryVersion] {
	out := make(map[string]facts.ProviderResult[facts.RegistryVersion])
	for _, s := range crateSpecs {
		out[s.Key()] = facts.Found(facts.RegistryVersion{License: "MIT"})
	}
	return out
}

type fakeAdvisory struct{}

func (fakeAdvisory) GetAdvisoryData(crateSpecs []specs.CrateSpec) map[string]facts.ProviderResult[facts.AdvisoryData] {
	out := make(map[string]facts.ProviderResult[facts.AdvisoryData])
	for _, s := range crateSpecs {
		out[s.Key()] = facts.Found(facts.AdvisoryData{})
	}
	return out
}

type fakeHosting struct{ fail bool }

func (f fakeHosting) GetHostingData(ctx context.Context, crateSpecs []specs.CrateSpec) map[string]facts.ProviderResult[facts.HostingData] {
	out := make(map[string]facts.ProviderResult[facts.HostingData])
	for _, s := range crateSpecs {
		if f.fail {
			out[s.Key()] = facts.Error[facts.HostingData]("boom")
			continue
		}
		out[s.Key()] = facts.Found(facts.HostingData{StarCount: 10})
	}
	return out
}

type fakeCoverage struct{}

func (fakeCoverage) GetCoverageData(ctx context.Context, crateSpecs []specs.CrateSpec) map[string]facts.ProviderResult[facts.CoverageData] {
	out := make(map[string]facts.ProviderResult[facts.CoverageData])
	for _, s := range crateSpecs {
		out[s.Key()] = facts.Found(facts.CoverageData{CoveragePercentage: 90})
	}
	return out
}

type fakeDocs struct{}

func (fakeDocs) GetDocsData(ctx context.Context, crateSpecs []specs.CrateSpec) map[string]facts.ProviderResult[facts.DocsData] {
	out := make(map[string]facts.ProviderResult[facts.DocsData])
	for _, s := range crateSpecs {
		out[s.Key()] = facts.Found(facts.FoundDocs(facts.DocsMetrics{BuildSucceeded: true}))
	}
	return out
}

type fakeCodebase struct{}

func (fakeCodebase) GetCodebaseData(ctx context.Context, crateSpecs []specs.CrateSpec) map[string]facts.ProviderResult[facts.CodebaseData] {
	out := make(map[string]facts.ProviderResult[facts.CodebaseData])
	for _, s := range crateSpecs {
		out[s.Key()] = facts.Found(facts.CodebaseData{LinesOfCode: 100})
	}
	return out
}

func sampleSpecs() []specs.CrateSpec {
	return []specs.CrateSpec{
		{Name: "leftpad", Version: semver.MustParse("1.0.0")},
	}
}

func TestCollectMergesAllProvidersIntoCompleteFacts(t *testing.T) {
	a := New(Providers{
		Registry: fakeRegistry{},
		Advisory: fakeAdvisory{},
		Hosting:  fakeHosting{},
		Coverage: fakeCoverage{},
		Docs:     fakeDocs{},
		Codebase: fakeCodebase{},
	}, nil)

	result := a.Collect(context.Background(), sampleSpecs())

	cf, ok := result["leftpad@1.0.0"]
	require.True(t, ok)
	assert.True(t, cf.IsComplete())
	assert.False(t, cf.CollectedAt.IsZero())
}

func TestCollectDegradesOneProviderFailureWithoutAffectingOthers(t *testing.T) {
	a := New(Providers{
		Registry: fakeRegistry{},
		Advisory: fakeAdvisory{},
		Hosting:  fakeHosting{fail: true},
		Coverage: fakeCoverage{},
		Docs:     fakeDocs{},
		Codebase: fakeCodebase{},
	}, nil)

	result := a.Collect(context.Background(), sampleSpecs())

	cf := result["leftpad@1.0.0"]
	assert.False(t, cf.IsComplete())
	assert.True(t, cf.Hosting.IsError())
	assert.True(t, cf.Coverage.IsFound(), "a failing hosting provider does not affect coverage's result")
}

func TestCollectNilProviderDegradesToError(t *testing.T) {
	a := New(Providers{
		Registry: fakeRegistry{},
		Advisory: fakeAdvisory{},
		Coverage: fakeCoverage{},
		Docs:     fakeDocs{},
		Codebase: fakeCodebase{},
	}, nil)

	result := a.Collect(context.Background(), sampleSpecs())

	cf := result["leftpad@1.0.0"]
	assert.True(t, cf.Hosting.IsError())
	assert.False(t, cf.IsComplete())
}
