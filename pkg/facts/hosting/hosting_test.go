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

package hosting

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/depaprz/pkg/cache"
	"github.com/kraklabs/depaprz/pkg/facts"
	"github.com/kraklabs/depaprz/pkg/specs"
)

type mockGitRunner struct {
	runFunc func(ctx context.Context, dir string, args ...string) (string, error)
}

func (m *mockGitRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	return m.runFunc(ctx, dir, args...)
}

func (m *mockGitRunner) CloneOrFetch(ctx context.Context, repoURL, dir string) error {
	return nil
}

type fakeAPI struct {
	stats repoStats
	err   error
}

func (f *fakeAPI) RepoStats(ctx context.Context, repo specs.RepoSpec) (repoStats, error) {
	return f.stats, f.err
}

func newTestProvider(t *testing.T, git gitRunner, api API) *Provider {
	t.Helper()
	c, err := cache.New(t.TempDir(), time.Hour)
	require.NoError(t, err)
	p := New(c, t.TempDir(), api)
	p.git = git
	return p
}

func TestContributorCountCountsNonBlankLines(t *testing.T) {
	mock := &mockGitRunner{runFunc: func(ctx context.Context, dir string, args ...string) (string, error) {
		return "  10\tAlice <a@example.com>\n  5\tBob <b@example.com>\n", nil
	}}
	p := newTestProvider(t, mock, nil)

	count, err := p.contributorCount(context.Background(), "/repo")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCommitActivityCountsWithinWindow(t *testing.T) {
	now := time.Now()
	recent := now.Add(-10 * 24 * time.Hour).Unix()
	old := now.Add(-200 * 24 * time.Hour).Unix()

	mock := &mockGitRunner{runFunc: func(ctx context.Context, dir string, args ...string) (string, error) {
		return fmt.Sprintf("%d\n%d\n", recent, old), nil
	}}
	p := newTestProvider(t, mock, nil)

	count, lastCommitAt, err := p.commitActivity(context.Background(), "/repo")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "only the commit within the 90-day window counts")
	assert.Equal(t, time.Unix(recent, 0), lastCommitAt, "the most recent commit (first log line) is reported")
}

func TestGetHostingDataGroupsByRepository(t *testing.T) {
	callCount := 0
	mock := &mockGitRunner{runFunc: func(ctx context.Context, dir string, args ...string) (string, error) {
		if args[0] == "shortlog" {
			callCount++
			return "  1\tAlice <a@example.com>\n", nil
		}
		return "", nil
	}}
	api := &fakeAPI{stats: repoStats{StarCount: 42, OpenIssueCount: 3}}
	p := newTestProvider(t, mock, api)

	repo := specs.RepoSpec{Host: "github", Owner: "acme", Name: "widgets", URL: "https://example.com/acme/widgets.git"}
	specA := specs.CrateSpec{Name: "widgets-core", Version: semver.MustParse("1.0.0"), Repo: &repo}
	specB := specs.CrateSpec{Name: "widgets-extra", Version: semver.MustParse("2.0.0"), Repo: &repo}

	results := p.GetHostingData(context.Background(), []specs.CrateSpec{specA, specB})

	require.Len(t, results, 2)
	dataA, ok := results[specA.Key()].Get()
	require.True(t, ok)
	assert.Equal(t, 42, dataA.StarCount)
	assert.Equal(t, 1, callCount, "two dependencies sharing one repo must only be cloned/queried once")

	dataB, _ := results[specB.Key()].Get()
	assert.Equal(t, dataA, dataB, "both dependencies on the same repo see identical hosting data")
}

func TestGetHostingDataReportsErrorWhenNoRepoResolved(t *testing.T) {
	p := newTestProvider(t, &mockGitRunner{runFunc: func(ctx context.Context, dir string, args ...string) (string, error) {
		return "", nil
	}}, nil)

	spec := specs.CrateSpec{Name: "orphan", Version: semver.MustParse("1.0.0")}
	results := p.GetHostingData(context.Background(), []specs.CrateSpec{spec})

	_, ok := results[spec.Key()].Get()
	assert.False(t, ok)
	assert.True(t, results[spec.Key()].IsError())
}

func TestFetchOneReturnsStaleCacheOnLiveFailure(t *testing.T) {
	c, err := cache.New(t.TempDir(), time.Nanosecond)
	require.NoError(t, err)
	repo := specs.RepoSpec{Host: "github", Owner: "acme", Name: "widgets", URL: "https://example.com/acme/widgets.git"}

	require.NoError(t, cache.Save(c, repo.Key()+".yaml", fakeHostingData()))
	time.Sleep(time.Millisecond)

	p := New(c, t.TempDir(), nil)
	p.git = &mockGitRunner{runFunc: func(ctx context.Context, dir string, args ...string) (string, error) {
		return "", fmt.Errorf("network unreachable")
	}}

	data, err := p.fetchOne(context.Background(), repo)
	require.NoError(t, err, "a stale cache entry is used instead of propagating a live-fetch failure")
	assert.Equal(t, 7, data.ContributorCount)
}

func TestCloseTimeStatsEmptyInputIsZero(t *testing.T) {
	assert.Equal(t, facts.CloseTimeStats{}, closeTimeStats(nil))
}

func TestCloseTimeStatsComputesDistinctPercentiles(t *testing.T) {
	// 100 evenly spaced values: P50/P75/P90/P95 must each land on a
	// different value, unlike a single collapsed median.
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i + 1)
	}

	stats := closeTimeStats(values)
	assert.Equal(t, 50.5, stats.AvgHours)
	assert.NotEqual(t, stats.P50Hours, stats.P95Hours, "P50 and P95 must diverge on a long tail")
	assert.Less(t, stats.P50Hours, stats.P75Hours)
	assert.Less(t, stats.P75Hours, stats.P90Hours)
	assert.Less(t, stats.P90Hours, stats.P95Hours)
}

func fakeHostingData() facts.HostingData {
	return facts.HostingData{ContributorCount: 7}
}
