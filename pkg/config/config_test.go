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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/depaprz/pkg/metrics"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
}

func TestDefaultConfigHasEmptyAllowList(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.AllowList)
}

func TestDefaultConfigTOMLIsNotEmpty(t *testing.T) {
	assert.NotEmpty(t, DefaultConfigTOML())
}

func TestValidateMediumRiskOutOfRange(t *testing.T) {
	cfg := Default()
	cfg.MediumRiskThreshold = -1.0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.MediumRiskThreshold = 101.0
	assert.Error(t, cfg.Validate())
}

func TestValidateLowRiskOutOfRange(t *testing.T) {
	cfg := Default()
	cfg.LowRiskThreshold = -1.0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.LowRiskThreshold = 101.0
	assert.Error(t, cfg.Validate())
}

func TestValidateMediumMustBeLessThanLow(t *testing.T) {
	cfg := Default()
	cfg.MediumRiskThreshold, cfg.LowRiskThreshold = 80.0, 70.0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.MediumRiskThreshold, cfg.LowRiskThreshold = 70.0, 70.0
	assert.Error(t, cfg.Validate(), "equal thresholds must also be rejected")
}

func TestValidateBoundaryValues(t *testing.T) {
	cfg := Default()
	cfg.MediumRiskThreshold, cfg.LowRiskThreshold = 0.0, 100.0
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingExplicitPathIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	assert.Error(t, err)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 30.0, cfg.MediumRiskThreshold)
}

func TestLoadParsesPolicyTables(t *testing.T) {
	doc := `
medium_risk_threshold = 25.0
low_risk_threshold = 75.0
crates_cache_ttl = "7d"
hosting_cache_ttl = "24h"
codebase_cache_ttl = "1w"
coverage_cache_ttl = "7d"
advisories_cache_ttl = "7d"

[[open_issue_count]]
max_count = 200
points = 5.0

[[license]]
dependency_types = ["standard", "dev"]
allowed = ["MIT", "Apache-2.0"]
points = 10.0
`
	path := filepath.Join(t.TempDir(), "aprz.toml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.OpenIssueCount, 1)
	assert.Equal(t, uint64(200), cfg.OpenIssueCount[0].MaxCount)
	require.Len(t, cfg.License, 1)
	assert.Equal(t, []string{"MIT", "Apache-2.0"}, cfg.License[0].Allowed)
	assert.Equal(t, 7*24*60*60*1e9, float64(cfg.CratesCacheTTL.Duration))
	assert.Equal(t, 24*60*60*1e9, float64(cfg.HostingCacheTTL.Duration))
	assert.Equal(t, 7*24*60*60*1e9, float64(cfg.CodebaseCacheTTL.Duration))
}

func TestLoadRejectsUnknownField(t *testing.T) {
	doc := "not_a_real_field = true\n"
	path := filepath.Join(t.TempDir(), "aprz.toml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestAllowListEntryMatches(t *testing.T) {
	entry := AllowListEntry{Name: "serde", Version: ">=1.0.0, <2.0.0"}
	v := semver.MustParse("1.5.0")
	assert.True(t, entry.Matches("serde", v))
	assert.False(t, entry.Matches("tokio", v))

	v2 := semver.MustParse("2.0.0")
	assert.False(t, entry.Matches("serde", v2))
}

func TestIsAllowed(t *testing.T) {
	cfg := Default()
	cfg.AllowList = []AllowListEntry{{Name: "serde", Version: ">=1.0.0"}}
	assert.True(t, cfg.IsAllowed("serde", semver.MustParse("1.2.0")))
	assert.False(t, cfg.IsAllowed("tokio", semver.MustParse("1.2.0")))
}

func TestMetricScaleDefaultsToOne(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1.0, cfg.MetricScale(metrics.License))
}

func TestLintWarningsDetectsDominance(t *testing.T) {
	cfg := Default()
	cfg.OpenIssueCount = []MaxCountPolicy{
		{MaxCount: 500, PolicyPoints: 5.0},
		{MaxCount: 100, PolicyPoints: 10.0},
	}
	warnings := cfg.LintWarnings()
	assert.NotEmpty(t, warnings)
}

func TestDurationUnmarshalTextUnits(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("2w")))
	assert.Equal(t, 14*24*60*60*1e9, float64(d.Duration))

	require.NoError(t, d.UnmarshalText([]byte("3d")))
	assert.Equal(t, 3*24*60*60*1e9, float64(d.Duration))

	require.NoError(t, d.UnmarshalText([]byte("90m")))
	assert.Equal(t, 90*60*1e9, float64(d.Duration))

	assert.Error(t, d.UnmarshalText([]byte("")))
	assert.Error(t, d.UnmarshalText([]byte("not-a-duration")))
}
