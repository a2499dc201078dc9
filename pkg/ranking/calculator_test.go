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

package ranking

import (
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/depaprz/pkg/config"
	"github.com/kraklabs/depaprz/pkg/facts"
	"github.com/kraklabs/depaprz/pkg/metrics"
	"github.com/kraklabs/depaprz/pkg/specs"
)

func completeFacts() *facts.CrateFacts {
	return &facts.CrateFacts{
		Registry: facts.Found(facts.RegistryOverall{
			TotalDownloads:    10_000,
			OneMonthDownloads: 800,
			OwnerCount:        3,
			TeamOwnerCount:    1,
			DependentCount:    25,
			VersionCount:      12,
			FirstPublishedAt:  time.Now().Add(-400 * 24 * time.Hour),
		}),
		Version: facts.Found(facts.RegistryVersion{
			Version:  semver.MustParse("2.3.0"),
			License:  "MIT",
			Downloads: 500,
		}),
		Advisories: facts.Found(facts.AdvisoryData{
			VersionVulnerabilityCount: 0,
		}),
		Hosting: facts.Found(facts.HostingData{
			ContributorCount:      10,
			StarCount:             1200,
			OpenIssueCount:        5,
			ClosedIssueCount:      300,
			CommitCountLast90Days: 40,
			IssueCloseTime: facts.CloseTimeStats{
				AvgHours: 48, P50Hours: 48, P75Hours: 48, P90Hours: 48, P95Hours: 48,
			},
		}),
		Coverage: facts.Found(facts.CoverageData{CoveragePercentage: 82.5}),
		Docs:     facts.Found(facts.FoundDocs(facts.DocsMetrics{DocCoveragePercentage: 90, BrokenDocLinkCount: 0})),
		Codebase: facts.Found(facts.CodebaseData{UnsafeBlockCount: 0, ExampleFunctionCount: 4, TransitiveDependencyCount: 20}),
	}
}

func TestCalculateLicenseMatch(t *testing.T) {
	cfg := config.Default()
	cfg.License = []config.LicensePolicy{{Allowed: []string{"MIT", "Apache-2.0"}, PolicyPoints: 10}}

	details := Calculate(cfg, completeFacts(), specs.Standard)
	outcome, ok := details[metrics.License]
	require.True(t, ok)
	assert.True(t, outcome.IsMatch())
	assert.Equal(t, 10.0, outcome.Points())
}

func TestCalculateLicenseNoMatch(t *testing.T) {
	cfg := config.Default()
	cfg.License = []config.LicensePolicy{{Allowed: []string{"GPL-3.0"}, PolicyPoints: 10}}

	details := Calculate(cfg, completeFacts(), specs.Standard)
	outcome := details[metrics.License]
	assert.False(t, outcome.IsMatch())
}

func TestCalculateNoPolicyDefined(t *testing.T) {
	cfg := config.Default()
	details := Calculate(cfg, completeFacts(), specs.Standard)
	outcome := details[metrics.License]
	assert.False(t, outcome.IsMatch())
	assert.Equal(t, "no policy defined", outcome.Info())
}

func TestCalculateMissingFactOmitsMetric(t *testing.T) {
	cfg := config.Default()
	cfg.CodeCoveragePercentage = []config.PercentagePolicy{{MinPercentage: 50, PolicyPoints: 5}}

	f := completeFacts()
	f.Coverage = facts.Error[facts.CoverageData]("coverage service unavailable")

	details := Calculate(cfg, f, specs.Standard)
	_, ok := details[metrics.CodeCoveragePercentage]
	assert.False(t, ok, "a metric whose fact is not Found must be omitted, not reported as failing")
}

func TestCalculateMinVersionUsesSemver(t *testing.T) {
	cfg := config.Default()
	cfg.MinVersion = []config.VersionPolicy{{MinVersion: "2.0.0", PolicyPoints: 5}}

	details := Calculate(cfg, completeFacts(), specs.Standard)
	outcome := details[metrics.MinVersion]
	assert.True(t, outcome.IsMatch())
}

func TestCalculateResponsivenessRequiresAllThresholds(t *testing.T) {
	cfg := config.Default()
	cfg.IssueResponsiveness = []config.ResponsivenessPolicy{
		{MaxAverageDays: 1, MaxP50Days: 1, MaxP75Days: 1, MaxP90Days: 1, MaxP95Days: 1, PolicyPoints: 5},
	}

	details := Calculate(cfg, completeFacts(), specs.Standard)
	outcome := details[metrics.IssueResponsiveness]
	assert.False(t, outcome.IsMatch(), "median of 48 hours = 2 days exceeds the 1-day threshold")
}

func TestCalculateResponsivenessFailsOnTailEvenWithHealthyMedian(t *testing.T) {
	f := completeFacts()
	h, _ := f.Hosting.Get()
	h.IssueCloseTime = facts.CloseTimeStats{AvgHours: 240, P50Hours: 24, P75Hours: 48, P90Hours: 960, P95Hours: 8760}
	f.Hosting = facts.Found(h)

	cfg := config.Default()
	cfg.IssueResponsiveness = []config.ResponsivenessPolicy{
		{MaxAverageDays: 30, MaxP50Days: 5, MaxP75Days: 10, MaxP90Days: 60, MaxP95Days: 90, PolicyPoints: 5},
	}

	details := Calculate(cfg, f, specs.Standard)
	outcome := details[metrics.IssueResponsiveness]
	assert.False(t, outcome.IsMatch(), "a one-year P95 tail must fail even though P50 is a healthy 1 day")
}

func TestCalculateCommitActivityRequiresMatchingWindow(t *testing.T) {
	cfg := config.Default()
	cfg.CommitActivity = []config.AgedCountPolicy{{MinCount: 10, WindowDays: 30, PolicyPoints: 5}}

	details := Calculate(cfg, completeFacts(), specs.Standard)
	outcome := details[metrics.CommitActivity]
	assert.False(t, outcome.IsMatch(), "a policy configured for a window other than 90 days never matches")
}

func TestCalculateAdvisoryMaxCount(t *testing.T) {
	cfg := config.Default()
	cfg.VulnerabilityCount = []config.MaxCountPolicy{{MaxCount: 0, PolicyPoints: 20}}

	f := completeFacts()
	details := Calculate(cfg, f, specs.Standard)
	outcome := details[metrics.VulnerabilityCount]
	assert.True(t, outcome.IsMatch())

	f.Advisories = facts.Found(facts.AdvisoryData{VersionVulnerabilityCount: 3})
	details = Calculate(cfg, f, specs.Standard)
	outcome = details[metrics.VulnerabilityCount]
	assert.False(t, outcome.IsMatch())
}

func TestCalculateScopeFiltersPolicies(t *testing.T) {
	cfg := config.Default()
	cfg.License = []config.LicensePolicy{{
		DependencyTypes: specs.NewDependencyTypes(specs.Dev),
		Allowed:         []string{"MIT"},
		PolicyPoints:    10,
	}}

	details := Calculate(cfg, completeFacts(), specs.Standard)
	outcome := details[metrics.License]
	assert.False(t, outcome.IsMatch(), "a policy scoped to Dev must not apply when ranking a Standard dependency")
}

func TestCalculateMetricScaling(t *testing.T) {
	cfg := config.Default()
	cfg.License = []config.LicensePolicy{{Allowed: []string{"MIT"}, PolicyPoints: 10}}
	cfg.MetricScaling = map[string]float64{metrics.License.String(): 2.0}

	details := Calculate(cfg, completeFacts(), specs.Standard)
	assert.Equal(t, 20.0, details[metrics.License].Points())
}
