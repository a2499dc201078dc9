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

// Package docs answers documentation-quality facts — build status,
// doc-comment coverage, and broken intra-doc links — from docs.rs,
// one resolved version at a time.
package docs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kraklabs/depaprz/pkg/cache"
	"github.com/kraklabs/depaprz/pkg/facts"
	"github.com/kraklabs/depaprz/pkg/specs"
)

// currentSchemaVersion is the docs-service response schema this
// provider knows how to parse. A response tagged with any other version
// is reported as facts.UnknownDocsFormat rather than guessed at.
const currentSchemaVersion uint64 = 1

// API is the subset of the docs-service HTTP surface this provider
// needs.
type API interface {
	BuildReport(ctx context.Context, name, version string) (buildReport, error)
}

type buildReport struct {
	SchemaVersion      uint64  `yaml:"schema_version"`
	BuildSucceeded     bool    `yaml:"build_succeeded"`
	DocCoverageRatio   float64 `yaml:"doc_coverage_ratio"`
	BrokenDocLinkCount int     `yaml:"broken_doc_link_count"`
}

// toDocsData converts the cached/live report into the closed facts.DocsData
// shape. buildReport (not facts.DocsData) is what gets cached, since
// DocsData's fields are unexported and would round-trip through yaml as
// an empty document.
func toDocsData(report buildReport) facts.DocsData {
	if report.SchemaVersion != currentSchemaVersion {
		return facts.UnknownDocsFormat(report.SchemaVersion)
	}
	return facts.FoundDocs(facts.DocsMetrics{
		DocCoveragePercentage: report.DocCoverageRatio * 100,
		BrokenDocLinkCount:    report.BrokenDocLinkCount,
		BuildSucceeded:        report.BuildSucceeded,
	})
}

// Provider answers docs lookups per CrateSpec.
type Provider struct {
	api API
	c   *cache.Cache
}

// New builds a Provider.
func New(c *cache.Cache, api API) *Provider {
	return &Provider{api: api, c: c}
}

// GetDocsData resolves docs facts for every given spec.
func (p *Provider) GetDocsData(ctx context.Context, crateSpecs []specs.CrateSpec) map[string]facts.ProviderResult[facts.DocsData] {
	results := make(map[string]facts.ProviderResult[facts.DocsData], len(crateSpecs))
	for _, spec := range crateSpecs {
		results[spec.Key()] = p.fetchOne(ctx, spec)
	}
	return results
}

func (p *Provider) fetchOne(ctx context.Context, spec specs.CrateSpec) facts.ProviderResult[facts.DocsData] {
	cacheKey := spec.Key() + ".yaml"
	cached, err := cache.Load[buildReport](p.c, cacheKey)
	if err != nil {
		return facts.Error[facts.DocsData](err.Error())
	}
	if cached.IsHit() {
		return facts.Found(toDocsData(cached.Value()))
	}

	versionStr := ""
	if spec.Version != nil {
		versionStr = spec.Version.Original()
	}

	report, err := p.api.BuildReport(ctx, spec.Name, versionStr)
	if err != nil {
		if cached.IsStale() {
			return facts.Found(toDocsData(cached.Value()))
		}
		return facts.Error[facts.DocsData](err.Error())
	}

	if err := cache.Save(p.c, cacheKey, report); err != nil {
		return facts.Error[facts.DocsData](err.Error())
	}
	return facts.Found(toDocsData(report))
}

// DocsRsAPI implements API against docs.rs's build-status JSON endpoint.
type DocsRsAPI struct {
	Client  *http.Client
	BaseURL string
}

// NewDocsRsAPI builds a DocsRsAPI with a 10-second timeout client.
func NewDocsRsAPI() *DocsRsAPI {
	return &DocsRsAPI{
		Client:  &http.Client{Timeout: 10 * time.Second},
		BaseURL: "https://docs.rs",
	}
}

func (d *DocsRsAPI) BuildReport(ctx context.Context, name, version string) (buildReport, error) {
	path := fmt.Sprintf("/crate/%s/%s/status.json", name, version)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.BaseURL+path, nil)
	if err != nil {
		return buildReport{}, fmt.Errorf("build request for %q: %w", path, err)
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return buildReport{}, fmt.Errorf("request %q: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return buildReport{}, fmt.Errorf("request %q: unexpected status %s", path, resp.Status)
	}

	var body struct {
		SchemaVersion      uint64  `json:"schema_version"`
		DocBuildSuccess    bool    `json:"doc_build_success"`
		DocCoverageRatio   float64 `json:"doc_coverage_ratio"`
		BrokenDocLinkCount int     `json:"broken_doc_link_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return buildReport{}, fmt.Errorf("decode response for %q: %w", path, err)
	}

	return buildReport{
		SchemaVersion:      body.SchemaVersion,
		BuildSucceeded:     body.DocBuildSuccess,
		DocCoverageRatio:   body.DocCoverageRatio,
		BrokenDocLinkCount: body.BrokenDocLinkCount,
	}, nil
}
