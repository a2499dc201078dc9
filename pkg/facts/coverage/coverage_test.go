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

package coverage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/depaprz/pkg/cache"
	"github.com/kraklabs/depaprz/pkg/specs"
)

type fakeAPI struct {
	pct   float64
	err   error
	calls int
}

func (f *fakeAPI) CoveragePercentage(ctx context.Context, repo specs.RepoSpec) (float64, error) {
	f.calls++
	return f.pct, f.err
}

func newTestProvider(t *testing.T, api API) (*Provider, *cache.Cache) {
	t.Helper()
	c, err := cache.New(t.TempDir(), time.Hour)
	require.NoError(t, err)
	return New(c, api), c
}

func TestGetCoverageDataGroupsByRepository(t *testing.T) {
	api := &fakeAPI{pct: 87.5}
	p, _ := newTestProvider(t, api)

	repo := specs.RepoSpec{Host: "github", Owner: "acme", Name: "widgets"}
	specA := specs.CrateSpec{Name: "a", Version: semver.MustParse("1.0.0"), Repo: &repo}
	specB := specs.CrateSpec{Name: "b", Version: semver.MustParse("1.0.0"), Repo: &repo}

	results := p.GetCoverageData(context.Background(), []specs.CrateSpec{specA, specB})

	dataA, ok := results[specA.Key()].Get()
	require.True(t, ok)
	assert.Equal(t, 87.5, dataA.CoveragePercentage)
	assert.Equal(t, 1, api.calls, "one repository shared by two dependencies is only queried once")
}

func TestGetCoverageDataNoRepoIsError(t *testing.T) {
	p, _ := newTestProvider(t, &fakeAPI{})
	spec := specs.CrateSpec{Name: "orphan", Version: semver.MustParse("1.0.0")}

	results := p.GetCoverageData(context.Background(), []specs.CrateSpec{spec})
	assert.True(t, results[spec.Key()].IsError())
}

func TestFetchOneFallsBackToStaleCacheOnError(t *testing.T) {
	c, err := cache.New(t.TempDir(), time.Nanosecond)
	require.NoError(t, err)
	repo := specs.RepoSpec{Host: "github", Owner: "acme", Name: "widgets"}

	require.NoError(t, cache.Save(c, repo.Key()+".yaml", struct{ CoveragePercentage float64 }{CoveragePercentage: 55}))
	time.Sleep(time.Millisecond)

	p := New(c, &fakeAPI{err: fmt.Errorf("service unavailable")})
	result := p.fetchOne(context.Background(), repo)

	data, ok := result.Get()
	require.True(t, ok, "a stale cache entry is used instead of propagating a live-fetch failure")
	assert.Equal(t, 55.0, data.CoveragePercentage)
}
