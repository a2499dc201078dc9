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

// Package registry answers registry-metadata facts (ownership, download
// counts, license, dependency counts) for one crate at a time, backed
// by a periodically refreshed crates.io database dump rather than live
// per-crate API calls: ensureDump (dump.go) keeps a local extraction of
// the dump's CSV tables fresh, loadDataset (dataset.go) materializes
// those tables into a compact in-memory form once per run, and the
// Provider below serves every GetOverall/GetVersion lookup from that
// one materialized dataset.
package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/kraklabs/depaprz/pkg/cache"
	"github.com/kraklabs/depaprz/pkg/facts"
	"github.com/kraklabs/depaprz/pkg/specs"
)

// Provider answers registry lookups for one crate at a time out of a
// dataset materialized from the crates.io database dump. The dataset
// is loaded at most once per Provider, the first time any lookup needs
// it, and shared across every subsequent call.
type Provider struct {
	c       *cache.Cache
	src     DumpSource
	dumpDir string

	loadOnce sync.Once
	loadErr  error
	data     *dataset
}

// New builds a Provider. dumpDir is where the extracted dump's CSV
// tables live; c provides the TTL-gated sync marker that decides when
// dumpDir is refreshed.
func New(c *cache.Cache, src DumpSource, dumpDir string) *Provider {
	return &Provider{c: c, src: src, dumpDir: dumpDir}
}

func (p *Provider) dataset(ctx context.Context) (*dataset, error) {
	p.loadOnce.Do(func() {
		if err := ensureDump(ctx, p.c, p.src, p.dumpDir); err != nil {
			p.loadErr = err
			return
		}
		ds, err := loadDataset(p.dumpDir)
		if err != nil {
			p.loadErr = fmt.Errorf("materialize registry dump: %w", err)
			return
		}
		p.data = ds
	})
	return p.data, p.loadErr
}

// GetOverall resolves version-independent registry facts for each
// distinct crate name among crateSpecs, deduplicating so a crate
// referenced at several versions is only looked up once.
func (p *Provider) GetOverall(ctx context.Context, crateSpecs []specs.CrateSpec) map[string]facts.ProviderResult[facts.RegistryOverall] {
	results := make(map[string]facts.ProviderResult[facts.RegistryOverall])
	seen := make(map[string]bool)

	ds, err := p.dataset(ctx)
	if err != nil {
		for _, spec := range crateSpecs {
			if seen[spec.Name] {
				continue
			}
			seen[spec.Name] = true
			results[spec.Name] = facts.Error[facts.RegistryOverall](err.Error())
		}
		return results
	}

	for _, spec := range crateSpecs {
		if seen[spec.Name] {
			continue
		}
		seen[spec.Name] = true
		results[spec.Name] = p.overallFor(ds, spec.Name)
	}
	return results
}

func (p *Provider) overallFor(ds *dataset, name string) facts.ProviderResult[facts.RegistryOverall] {
	crate, ok := ds.crate(name)
	if !ok {
		return facts.CrateNotFound[facts.RegistryOverall]()
	}

	versions := ds.versionsOf(crate.id)
	versionIDs := make(map[uint64]bool, len(versions))
	for _, v := range versions {
		versionIDs[v.id] = true
	}

	owners := ds.ownersByCrate[crate.id]
	var ownerCount, teamOwnerCount int
	registryOwners := make([]facts.RegistryOwner, 0, len(owners))
	for _, o := range owners {
		ownerCount++
		login := ds.userLoginByID[o.ownerID]
		if o.isTeam {
			teamOwnerCount++
			login = ds.teamLoginByID[o.ownerID]
		}
		registryOwners = append(registryOwners, facts.RegistryOwner{Login: login, IsTeam: o.isTeam})
	}

	categoryIDs := ds.categoriesByCrate[crate.id]
	categories := make([]string, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		if slug, ok := ds.categoryNameByID[id]; ok {
			categories = append(categories, slug)
		}
	}

	keywordIDs := ds.keywordsByCrate[crate.id]
	keywords := make([]string, 0, len(keywordIDs))
	for _, id := range keywordIDs {
		if kw, ok := ds.keywordNameByID[id]; ok {
			keywords = append(keywords, kw)
		}
	}

	now := time.Now()
	monthly := monthlySeries(ds.monthlyDownloads(versionIDs))

	return facts.Found(facts.RegistryOverall{
		TotalDownloads:    ds.totalDownloadsByCrate[crate.id],
		OneMonthDownloads: ds.oneMonthDownloads(versionIDs, now),
		MonthlyDownloads:  monthly,
		OwnerCount:        ownerCount,
		TeamOwnerCount:    teamOwnerCount,
		Owners:            registryOwners,
		DependentCount:    len(ds.dependentsOf[crate.id]),
		Categories:        categories,
		Keywords:          keywords,
		VersionCount:      len(versions),
		FirstPublishedAt:  time.Unix(crate.createdAt, 0).UTC(),
		UpdatedAt:         time.Unix(crate.updatedAt, 0).UTC(),
		RepositoryURL:     crate.repository,
	})
}

// monthlySeries sorts a month->downloads map into a time-ascending
// slice, the shape download-trend analysis walks.
func monthlySeries(byMonth map[time.Time]uint64) []facts.MonthlyDownloads {
	series := make([]facts.MonthlyDownloads, 0, len(byMonth))
	for month, count := range byMonth {
		series = append(series, facts.MonthlyDownloads{Month: month, Downloads: count})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Month.Before(series[j].Month) })
	return series
}

// GetVersion resolves per-version registry facts for every given spec.
func (p *Provider) GetVersion(ctx context.Context, crateSpecs []specs.CrateSpec) map[string]facts.ProviderResult[facts.RegistryVersion] {
	results := make(map[string]facts.ProviderResult[facts.RegistryVersion], len(crateSpecs))

	ds, err := p.dataset(ctx)
	if err != nil {
		for _, spec := range crateSpecs {
			results[spec.Key()] = facts.Error[facts.RegistryVersion](err.Error())
		}
		return results
	}

	for _, spec := range crateSpecs {
		results[spec.Key()] = p.versionFor(ds, spec)
	}
	return results
}

func (p *Provider) versionFor(ds *dataset, spec specs.CrateSpec) facts.ProviderResult[facts.RegistryVersion] {
	crate, ok := ds.crate(spec.Name)
	if !ok {
		return facts.CrateNotFound[facts.RegistryVersion]()
	}

	versionStr := ""
	if spec.Version != nil {
		versionStr = spec.Version.Original()
	}

	for _, v := range ds.versionsOf(crate.id) {
		if v.num != versionStr {
			continue
		}

		var yankedAt *time.Time
		if v.yanked {
			t := time.Unix(v.createdAt, 0).UTC()
			yankedAt = &t
		}

		return facts.Found(facts.RegistryVersion{
			Version:            spec.Version,
			License:            v.license,
			PublishedAt:        time.Unix(v.createdAt, 0).UTC(),
			Downloads:          v.downloads,
			DirectDependencies: ds.directDepCount[v.id],
			YankedAt:           yankedAt,
		})
	}

	return facts.VersionNotFound[facts.RegistryVersion]()
}

// DumpDir derives the registry provider's dump extraction directory
// from a cache root, keeping the extracted tables alongside the rest
// of the provider's cached state.
func DumpDir(cacheRoot string) string {
	return filepath.Join(cacheRoot, "registry-dump")
}
