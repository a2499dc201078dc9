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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kraklabs/depaprz/pkg/cache"
	"github.com/kraklabs/depaprz/pkg/facts"
	"github.com/kraklabs/depaprz/pkg/gitutil"
	"github.com/kraklabs/depaprz/pkg/specs"
)

// DefaultRepoURL is the upstream RustSec advisory database mirror this
// provider clones. It is a git repository with one TOML file per
// advisory, under crates/<name>/RUSTSEC-YYYY-NNNN.toml.
const DefaultRepoURL = "https://github.com/rustsec/advisory-db.git"

const fetchTimeout = 60 * time.Second

const syncMarkerRelpath = "last_synced.yaml"

type syncMarker struct {
	SyncedAt time.Time `yaml:"synced_at"`
}

// ProgressFunc reports free-text progress during a potentially
// long-running sync, mirroring the ingestion pipeline's progress
// callback shape rather than a dedicated progress interface.
type ProgressFunc func(message string)

// Provider answers advisory lookups against a cloned mirror of the
// advisory database. Once constructed, the full advisory set is held
// in memory: a single scan serves every dependency in a run, exactly
// as the per-crate lookup loops over the whole parsed database rather
// than querying it per crate.
type Provider struct {
	advisories []advisory
}

// New clones (or refreshes, once per cache TTL) the advisory database
// into repoDir, keeping its sync marker in c, parses every advisory
// file, and returns a
// Provider ready to answer GetAdvisoryData. onProgress may be nil.
func New(ctx context.Context, c *cache.Cache, repoDir string, onProgress ProgressFunc) (*Provider, error) {
	needsFetch, err := staleSyncMarker(c)
	if err != nil {
		return nil, fmt.Errorf("check advisory database sync marker: %w", err)
	}

	if needsFetch {
		report(onProgress, "downloading the advisory database")
		fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()
		if err := gitutil.New().CloneOrFetch(fetchCtx, DefaultRepoURL, repoDir); err != nil {
			return nil, fmt.Errorf("download advisory database: %w", err)
		}
		if err := cache.Save(c, syncMarkerRelpath, syncMarker{SyncedAt: time.Now()}); err != nil {
			return nil, fmt.Errorf("save advisory database sync marker: %w", err)
		}
	}

	report(onProgress, "parsing the advisory database")
	entries, err := loadAdvisories(repoDir)
	if err != nil {
		return nil, fmt.Errorf("load advisory database: %w", err)
	}

	return &Provider{advisories: entries}, nil
}

func report(onProgress ProgressFunc, message string) {
	if onProgress != nil {
		onProgress(message)
	}
}

func staleSyncMarker(c *cache.Cache) (needsFetch bool, err error) {
	result, err := cache.Load[syncMarker](c, syncMarkerRelpath)
	if err != nil {
		return false, err
	}
	return result.IsMiss() || result.IsStale(), nil
}

// loadAdvisories walks repoDir/crates/*/*.toml, parsing each file. A
// single malformed advisory is skipped without being logged, rather
// than aborting the whole load — a best-effort
// posture appropriate for a third-party database this tool does not
// control the contents of.
func loadAdvisories(repoDir string) ([]advisory, error) {
	cratesDir := filepath.Join(repoDir, "crates")
	entries, err := os.ReadDir(cratesDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", cratesDir, err)
	}

	var advisories []advisory
	for _, crateDir := range entries {
		if !crateDir.IsDir() {
			continue
		}
		dirPath := filepath.Join(cratesDir, crateDir.Name())
		files, err := os.ReadDir(dirPath)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", dirPath, err)
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".toml") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(dirPath, f.Name()))
			if err != nil {
				return nil, fmt.Errorf("read %q: %w", f.Name(), err)
			}
			a, err := parseAdvisory(data)
			if err != nil {
				continue
			}
			advisories = append(advisories, a)
		}
	}
	return advisories, nil
}

// GetAdvisoryData scans the full advisory set once and returns a
// ProviderResult for every given spec, keyed by the spec itself so
// callers can pivot the result back into their own CrateFacts map.
// Every spec always gets a Found result — an unknown crate simply has
// zero matching advisories, since this provider cannot tell "crate has
// no advisories" apart from "crate does not exist" the way the
// registry provider can.
func (p *Provider) GetAdvisoryData(crateSpecs []specs.CrateSpec) map[string]facts.ProviderResult[facts.AdvisoryData] {
	byName := make(map[string][]specs.CrateSpec, len(crateSpecs))
	for _, spec := range crateSpecs {
		byName[spec.Name] = append(byName[spec.Name], spec)
	}

	results := make(map[string]facts.ProviderResult[facts.AdvisoryData], len(crateSpecs))
	data := make(map[string]*facts.AdvisoryData, len(crateSpecs))
	for _, spec := range crateSpecs {
		data[spec.Key()] = &facts.AdvisoryData{}
	}

	for _, a := range p.advisories {
		matches, ok := byName[a.pkg]
		if !ok {
			continue
		}
		for _, spec := range matches {
			d := data[spec.Key()]
			countHistorical(d, a)
			if a.affectsVersion(spec.Version) {
				countForVersion(d, a)
			}
		}
	}

	for _, spec := range crateSpecs {
		results[spec.Key()] = facts.Found(*data[spec.Key()])
	}
	return results
}

func countHistorical(d *facts.AdvisoryData, a advisory) {
	if a.informational != informationalNone {
		switch a.informational {
		case informationalNotice:
			d.HistoricalNoticeCount++
		case informationalUnmaintained:
			d.HistoricalUnmaintainedCount++
		case informationalUnsound:
			d.HistoricalUnsoundnessCount++
		case informationalYanked:
			d.HistoricalWithdrawnCount++
		}
		return
	}

	d.HistoricalVulnerabilityCount++
	switch a.severity {
	case severityLow:
		d.HistoricalLowCount++
	case severityMedium:
		d.HistoricalMediumCount++
	case severityHigh:
		d.HistoricalHighCount++
	case severityCritical:
		d.HistoricalCriticalCount++
	}
}

func countForVersion(d *facts.AdvisoryData, a advisory) {
	if a.informational != informationalNone {
		switch a.informational {
		case informationalNotice:
			d.VersionNoticeCount++
		case informationalUnmaintained:
			d.VersionUnmaintainedCount++
		case informationalUnsound:
			d.VersionUnsoundnessCount++
		case informationalYanked:
			d.VersionWithdrawnCount++
		}
		return
	}

	d.VersionVulnerabilityCount++
	switch a.severity {
	case severityLow:
		d.VersionLowCount++
	case severityMedium:
		d.VersionMediumCount++
	case severityHigh:
		d.VersionHighCount++
	case severityCritical:
		d.VersionCriticalCount++
	}
}
