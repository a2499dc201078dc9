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

// Package coverage answers test-coverage facts from a Codecov-style
// reporting service, one repository at a time.
package coverage

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

// API is the subset of a coverage service's HTTP surface this provider
// needs.
type API interface {
	CoveragePercentage(ctx context.Context, repo specs.RepoSpec) (float64, error)
}

// Provider answers coverage lookups, grouped and cached by repository
// exactly as the hosting provider does, since coverage is a property
// of the repository rather than of any single dependency within it.
type Provider struct {
	api API
	c   *cache.Cache
}

// New builds a Provider.
func New(c *cache.Cache, api API) *Provider {
	return &Provider{api: api, c: c}
}

// GetCoverageData resolves coverage facts for every distinct repository
// among crateSpecs.
func (p *Provider) GetCoverageData(ctx context.Context, crateSpecs []specs.CrateSpec) map[string]facts.ProviderResult[facts.CoverageData] {
	results := make(map[string]facts.ProviderResult[facts.CoverageData], len(crateSpecs))

	for _, group := range specs.ByRepo(crateSpecs) {
		repo := *group[0].Repo
		result := p.fetchOne(ctx, repo)
		for _, spec := range group {
			results[spec.Key()] = result
		}
	}

	for _, spec := range crateSpecs {
		if spec.Repo == nil {
			results[spec.Key()] = facts.Error[facts.CoverageData]("no repository resolved for this dependency")
		}
	}

	return results
}

func (p *Provider) fetchOne(ctx context.Context, repo specs.RepoSpec) facts.ProviderResult[facts.CoverageData] {
	cacheKey := repo.Key() + ".yaml"
	cached, err := cache.Load[facts.CoverageData](p.c, cacheKey)
	if err != nil {
		return facts.Error[facts.CoverageData](err.Error())
	}
	if cached.IsHit() {
		return facts.Found(cached.Value())
	}

	pct, err := p.api.CoveragePercentage(ctx, repo)
	if err != nil {
		if cached.IsStale() {
			return facts.Found(cached.Value())
		}
		return facts.Error[facts.CoverageData](err.Error())
	}

	data := facts.CoverageData{CoveragePercentage: pct}
	if err := cache.Save(p.c, cacheKey, data); err != nil {
		return facts.Error[facts.CoverageData](err.Error())
	}
	return facts.Found(data)
}

// CodecovAPI implements API against Codecov's public v2 API.
type CodecovAPI struct {
	Client  *http.Client
	BaseURL string
	Token   string
}

// NewCodecovAPI builds a CodecovAPI with a 10-second timeout client.
func NewCodecovAPI(token string) *CodecovAPI {
	return &CodecovAPI{
		Client:  &http.Client{Timeout: 10 * time.Second},
		BaseURL: "https://api.codecov.io/api/v2",
		Token:   token,
	}
}

func (a *CodecovAPI) CoveragePercentage(ctx context.Context, repo specs.RepoSpec) (float64, error) {
	path := fmt.Sprintf("/github/%s/repos/%s", repo.Owner, repo.Name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("build request for %q: %w", path, err)
	}
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request %q: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("request %q: unexpected status %s", path, resp.Status)
	}

	var body struct {
		Totals struct {
			Coverage float64 `json:"coverage"`
		} `json:"totals"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode response for %q: %w", path, err)
	}
	return body.Totals.Coverage, nil
}
