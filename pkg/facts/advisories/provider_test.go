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

package advisories

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/depaprz/pkg/specs"
)

const vulnAdvisory = `
[advisory]
id = "RUSTSEC-2021-0001"
package = "leftpad"
severity = "high"

[versions]
patched = [">=2.0.0"]
`

const unmaintainedAdvisory = `
[advisory]
id = "RUSTSEC-2022-0002"
package = "leftpad"
informational = "unmaintained"
`

const otherCrateAdvisory = `
[advisory]
id = "RUSTSEC-2021-0003"
package = "rightpad"
severity = "critical"
`

const yankedAdvisory = `
[advisory]
id = "RUSTSEC-2022-0004"
package = "leftpad"
informational = "yanked"
`

func writeAdvisoryFixtures(t *testing.T, repoDir string) {
	t.Helper()
	write := func(crate, file, content string) {
		dir := filepath.Join(repoDir, "crates", crate)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
	}
	write("leftpad", "RUSTSEC-2021-0001.toml", vulnAdvisory)
	write("leftpad", "RUSTSEC-2022-0002.toml", unmaintainedAdvisory)
	write("leftpad", "RUSTSEC-2022-0004.toml", yankedAdvisory)
	write("rightpad", "RUSTSEC-2021-0003.toml", otherCrateAdvisory)
}

func TestLoadAdvisoriesParsesFixtures(t *testing.T) {
	dir := t.TempDir()
	writeAdvisoryFixtures(t, dir)

	parsed, err := loadAdvisories(dir)
	require.NoError(t, err)
	assert.Len(t, parsed, 4)
}

func TestGetAdvisoryDataCountsYankedSeparatelyFromVulnerabilities(t *testing.T) {
	dir := t.TempDir()
	writeAdvisoryFixtures(t, dir)
	parsed, err := loadAdvisories(dir)
	require.NoError(t, err)
	p := &Provider{advisories: parsed}

	spec := specs.CrateSpec{Name: "leftpad", Version: semver.MustParse("1.0.0")}
	results := p.GetAdvisoryData([]specs.CrateSpec{spec})

	data, ok := results[spec.Key()].Get()
	require.True(t, ok)
	assert.Equal(t, 1, data.HistoricalWithdrawnCount)
	assert.Equal(t, 1, data.VersionWithdrawnCount)
	// A yanked informational advisory must never be double-counted as a
	// vulnerability: only the real vulnAdvisory fixture contributes here.
	assert.Equal(t, 1, data.HistoricalVulnerabilityCount)
}

func TestGetAdvisoryDataCountsHistoricalRegardlessOfVersion(t *testing.T) {
	dir := t.TempDir()
	writeAdvisoryFixtures(t, dir)
	parsed, err := loadAdvisories(dir)
	require.NoError(t, err)
	p := &Provider{advisories: parsed}

	spec := specs.CrateSpec{Name: "leftpad", Version: semver.MustParse("1.0.0")}
	results := p.GetAdvisoryData([]specs.CrateSpec{spec})

	data, ok := results[spec.Key()].Get()
	require.True(t, ok)
	assert.Equal(t, 1, data.HistoricalVulnerabilityCount)
	assert.Equal(t, 1, data.HistoricalHighCount)
	assert.Equal(t, 1, data.HistoricalUnmaintainedCount)
}

func TestGetAdvisoryDataVersionSpecificOnlyCountsWhenVulnerable(t *testing.T) {
	dir := t.TempDir()
	writeAdvisoryFixtures(t, dir)
	parsed, err := loadAdvisories(dir)
	require.NoError(t, err)
	p := &Provider{advisories: parsed}

	vulnerable := specs.CrateSpec{Name: "leftpad", Version: semver.MustParse("1.0.0")}
	patched := specs.CrateSpec{Name: "leftpad", Version: semver.MustParse("2.5.0")}
	results := p.GetAdvisoryData([]specs.CrateSpec{vulnerable, patched})

	vulnData, _ := results[vulnerable.Key()].Get()
	assert.Equal(t, 1, vulnData.VersionVulnerabilityCount)
	assert.Equal(t, 1, vulnData.VersionHighCount)

	patchedData, _ := results[patched.Key()].Get()
	assert.Equal(t, 0, patchedData.VersionVulnerabilityCount, "a version covered by a patched range is not vulnerable")
	// The unmaintained informational advisory has no version ranges at
	// all, so it always counts against the resolved version too.
	assert.Equal(t, 1, patchedData.VersionUnmaintainedCount)
}

func TestGetAdvisoryDataUnknownCrateIsZeroNotMissing(t *testing.T) {
	dir := t.TempDir()
	writeAdvisoryFixtures(t, dir)
	parsed, err := loadAdvisories(dir)
	require.NoError(t, err)
	p := &Provider{advisories: parsed}

	spec := specs.CrateSpec{Name: "never-heard-of-it", Version: semver.MustParse("1.0.0")}
	results := p.GetAdvisoryData([]specs.CrateSpec{spec})

	data, ok := results[spec.Key()].Get()
	require.True(t, ok, "an unmatched crate still gets a Found result with zero counts")
	assert.Equal(t, 0, data.HistoricalVulnerabilityCount)
}

func TestParseAdvisorySkipsUnparseableRanges(t *testing.T) {
	a, err := parseAdvisory([]byte(`
[advisory]
id = "RUSTSEC-2023-0001"
package = "oddcrate"
severity = "medium"

[versions]
patched = ["not a valid constraint!!"]
`))
	require.NoError(t, err)
	// No usable safe range parsed means every version is reported
	// vulnerable, the conservative default.
	assert.True(t, a.affectsVersion(semver.MustParse("99.0.0")))
}

func TestAdvisoryAffectsVersionRespectsUnaffectedRange(t *testing.T) {
	a, err := parseAdvisory([]byte(`
[advisory]
id = "RUSTSEC-2023-0002"
package = "oddcrate"
severity = "low"

[versions]
unaffected = ["<1.0.0"]
patched = [">=2.0.0"]
`))
	require.NoError(t, err)
	assert.False(t, a.affectsVersion(semver.MustParse("0.5.0")))
	assert.False(t, a.affectsVersion(semver.MustParse("2.1.0")))
	assert.True(t, a.affectsVersion(semver.MustParse("1.5.0")))
}
