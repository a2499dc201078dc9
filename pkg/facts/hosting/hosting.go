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

// Package hosting answers per-repository facts from two sources: a
// cloned git mirror (contributor and recent-commit activity) and the
// hosting forge's HTTP API (stars, forks, issue/PR activity). Lookups
// are grouped by repository rather than by dependency, since several
// dependencies in a graph commonly share one upstream repo.
package hosting

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kraklabs/depaprz/pkg/cache"
	"github.com/kraklabs/depaprz/pkg/facts"
	"github.com/kraklabs/depaprz/pkg/gitutil"
	"github.com/kraklabs/depaprz/pkg/specs"
)

const commitActivityWindow = 90 * 24 * time.Hour

// API is the subset of a hosting forge's HTTP surface this provider
// needs. GitHubAPI below is the only implementation; it is an
// interface so tests can stub responses without a live network call.
type API interface {
	RepoStats(ctx context.Context, repo specs.RepoSpec) (repoStats, error)
}

type repoStats struct {
	StarCount              int
	ForkCount              int
	SubscriberCount        int
	OpenIssueCount         int
	ClosedIssueCount       int
	OpenPullRequestCount   int
	ClosedPullRequestCount int
	IssueCloseTime         facts.CloseTimeStats
	PullRequestCloseTime   facts.CloseTimeStats
	Archived               bool
}

// gitRunner is the subset of gitutil.Runner this provider needs,
// pulled out as an interface so tests can substitute a fake that never
// shells out, mirroring the mock GitRunner pattern used elsewhere in
// this codebase.
type gitRunner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
	CloneOrFetch(ctx context.Context, repoURL, dir string) error
}

// Provider combines a git mirror cache with a hosting API client.
type Provider struct {
	git      gitRunner
	api      API
	cacheDir string
	c        *cache.Cache
}

// New builds a Provider. cacheDir is the root under which each
// repository gets its own mirror subdirectory, keyed by RepoSpec.Key.
func New(c *cache.Cache, cacheDir string, api API) *Provider {
	return &Provider{git: gitutil.New(), api: api, cacheDir: cacheDir, c: c}
}

// GetHostingData resolves hosting facts for every distinct repository
// among specs, grouped via specs.ByRepo so a repo backing five
// dependencies is only cloned and queried once.
func (p *Provider) GetHostingData(ctx context.Context, crateSpecs []specs.CrateSpec) map[string]facts.ProviderResult[facts.HostingData] {
	results := make(map[string]facts.ProviderResult[facts.HostingData], len(crateSpecs))

	for _, group := range specs.ByRepo(crateSpecs) {
		repo := *group[0].Repo
		data, err := p.fetchOne(ctx, repo)
		for _, spec := range group {
			if err != nil {
				results[spec.Key()] = facts.Error[facts.HostingData](err.Error())
				continue
			}
			results[spec.Key()] = facts.Found(data)
		}
	}

	for _, spec := range crateSpecs {
		if spec.Repo == nil {
			results[spec.Key()] = facts.Error[facts.HostingData]("no repository resolved for this dependency")
		}
	}

	return results
}

func (p *Provider) fetchOne(ctx context.Context, repo specs.RepoSpec) (facts.HostingData, error) {
	mirrorDir := filepath.Join(p.cacheDir, repo.Key())

	cacheKey := repo.Key() + ".yaml"
	cached, err := cache.Load[facts.HostingData](p.c, cacheKey)
	if err != nil {
		return facts.HostingData{}, err
	}
	if cached.IsHit() {
		return cached.Value(), nil
	}

	data, err := p.fetchLive(ctx, repo, mirrorDir)
	if err != nil {
		if cached.IsStale() {
			return cached.Value(), nil
		}
		return facts.HostingData{}, err
	}

	if err := cache.Save(p.c, cacheKey, data); err != nil {
		return facts.HostingData{}, fmt.Errorf("save hosting cache for %q: %w", repo.Key(), err)
	}
	return data, nil
}

func (p *Provider) fetchLive(ctx context.Context, repo specs.RepoSpec, mirrorDir string) (facts.HostingData, error) {
	if repo.URL == "" {
		return facts.HostingData{}, fmt.Errorf("repository %q has no clone URL", repo.Key())
	}
	if err := p.git.CloneOrFetch(ctx, repo.URL, mirrorDir); err != nil {
		return facts.HostingData{}, fmt.Errorf("mirror %q: %w", repo.Key(), err)
	}

	contributorCount, err := p.contributorCount(ctx, mirrorDir)
	if err != nil {
		return facts.HostingData{}, err
	}
	commitCount, lastCommitAt, err := p.commitActivity(ctx, mirrorDir)
	if err != nil {
		return facts.HostingData{}, err
	}

	data := facts.HostingData{
		ContributorCount:      contributorCount,
		CommitCountLast90Days: commitCount,
		LastCommitAt:          lastCommitAt,
	}

	if p.api != nil {
		stats, err := p.api.RepoStats(ctx, repo)
		if err != nil {
			return facts.HostingData{}, fmt.Errorf("query hosting API for %q: %w", repo.Key(), err)
		}
		data.StarCount = stats.StarCount
		data.ForkCount = stats.ForkCount
		data.SubscriberCount = stats.SubscriberCount
		data.OpenIssueCount = stats.OpenIssueCount
		data.ClosedIssueCount = stats.ClosedIssueCount
		data.OpenPullRequestCount = stats.OpenPullRequestCount
		data.ClosedPullRequestCount = stats.ClosedPullRequestCount
		data.IssueCloseTime = stats.IssueCloseTime
		data.PullRequestCloseTime = stats.PullRequestCloseTime
		data.Archived = stats.Archived
	}

	return data, nil
}

// contributorCount runs `git shortlog -sne --all`, counting one line
// per distinct author.
func (p *Provider) contributorCount(ctx context.Context, mirrorDir string) (int, error) {
	out, err := p.git.Run(ctx, mirrorDir, "shortlog", "-sne", "--all")
	if err != nil {
		return 0, fmt.Errorf("count contributors: %w", err)
	}
	count := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count, nil
}

// commitActivity runs a single `git log --format=%at` over the default
// branch, counting commits within the last 90 days and returning the
// most recent commit time. One pass over the full log suffices to
// answer both questions.
func (p *Provider) commitActivity(ctx context.Context, mirrorDir string) (count int, lastCommitAt time.Time, err error) {
	out, err := p.git.Run(ctx, mirrorDir, "log", "--format=%at")
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("read commit log: %w", err)
	}

	cutoff := time.Now().Add(-commitActivityWindow)
	for i, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sec, parseErr := strconv.ParseInt(line, 10, 64)
		if parseErr != nil {
			continue
		}
		commitTime := time.Unix(sec, 0)
		if i == 0 {
			lastCommitAt = commitTime
		}
		if commitTime.After(cutoff) {
			count++
		}
	}
	return count, lastCommitAt, nil
}

// GitHubAPI implements API against the public GitHub REST API v3. It
// is unauthenticated by default; Token, when set, is sent as a bearer
// credential to raise the rate limit.
type GitHubAPI struct {
	Client  *http.Client
	BaseURL string
	Token   string
}

// NewGitHubAPI builds a GitHubAPI with a 10-second timeout client,
// matching the timeout the ingestion CLI's own HTTP calls use.
func NewGitHubAPI(token string) *GitHubAPI {
	return &GitHubAPI{
		Client:  &http.Client{Timeout: 10 * time.Second},
		BaseURL: "https://api.github.com",
		Token:   token,
	}
}

type githubRepoResponse struct {
	StargazersCount  int  `json:"stargazers_count"`
	ForksCount       int  `json:"forks_count"`
	SubscribersCount int  `json:"subscribers_count"`
	OpenIssuesCount  int  `json:"open_issues_count"`
	Archived         bool `json:"archived"`
}

type githubIssueOrPR struct {
	State       string     `json:"state"`
	PullRequest *struct{}  `json:"pull_request,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ClosedAt    *time.Time `json:"closed_at"`
}

// RepoStats implements API by issuing one request for repository
// metadata plus one request for the first page of recent issues/PRs
// (GitHub's issues endpoint returns both, disambiguated by the
// PullRequest field); later pages are not fetched.
func (g *GitHubAPI) RepoStats(ctx context.Context, repo specs.RepoSpec) (repoStats, error) {
	var meta githubRepoResponse
	if err := g.getJSON(ctx, fmt.Sprintf("/repos/%s/%s", repo.Owner, repo.Name), &meta); err != nil {
		return repoStats{}, err
	}

	var issues []githubIssueOrPR
	if err := g.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/issues?state=all&per_page=100", repo.Owner, repo.Name), &issues); err != nil {
		return repoStats{}, err
	}

	stats := repoStats{
		StarCount:       meta.StargazersCount,
		ForkCount:       meta.ForksCount,
		SubscriberCount: meta.SubscribersCount,
		Archived:        meta.Archived,
	}

	var issueCloseHours, prCloseHours []float64
	for _, item := range issues {
		isPR := item.PullRequest != nil
		closed := item.State == "closed"

		switch {
		case isPR && closed:
			stats.ClosedPullRequestCount++
		case isPR:
			stats.OpenPullRequestCount++
		case closed:
			stats.ClosedIssueCount++
		default:
			stats.OpenIssueCount++
		}

		if closed && item.ClosedAt != nil {
			hours := item.ClosedAt.Sub(item.CreatedAt).Hours()
			if isPR {
				prCloseHours = append(prCloseHours, hours)
			} else {
				issueCloseHours = append(issueCloseHours, hours)
			}
		}
	}

	stats.IssueCloseTime = closeTimeStats(issueCloseHours)
	stats.PullRequestCloseTime = closeTimeStats(prCloseHours)

	return stats, nil
}

func (g *GitHubAPI) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request for %q: %w", path, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if g.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.Token)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return fmt.Errorf("request %q: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %q: unexpected status %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response for %q: %w", path, err)
	}
	return nil
}

// closeTimeStats computes the average and nearest-rank 50th/75th/90th/95th
// percentiles of values, sorted ascending first. An empty input reports
// all-zero stats rather than a division by zero or a NaN percentile.
func closeTimeStats(values []float64) facts.CloseTimeStats {
	if len(values) == 0 {
		return facts.CloseTimeStats{}
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return facts.CloseTimeStats{
		AvgHours: sum / float64(len(sorted)),
		P50Hours: percentile(sorted, 0.50),
		P75Hours: percentile(sorted, 0.75),
		P90Hours: percentile(sorted, 0.90),
		P95Hours: percentile(sorted, 0.95),
	}
}

// percentile returns the nearest-rank p-th percentile of an already
// sorted-ascending slice, p in [0,1].
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	return sorted[rank]
}
