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

package codebase

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/depaprz/pkg/cache"
	"github.com/kraklabs/depaprz/pkg/specs"
)

type fakeGitRunner struct {
	checkoutDir string
	err         error
	calls       int
}

// CloneOrFetch copies the fixture checkout into dir instead of touching
// the network, so the tree-sitter walk below runs against real files.
func (f *fakeGitRunner) CloneOrFetch(ctx context.Context, repoURL, dir string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return copyDir(f.checkoutDir, dir)
}

func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}

func writeFixtureCrate(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "examples"), 0o755))

	libSrc := `fn safe_add(a: i32, b: i32) -> i32 {
    a + b
}

fn read_raw(ptr: *const i32) -> i32 {
    unsafe { *ptr }
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "lib.rs"), []byte(libSrc), 0o644))

	exampleSrc := `fn main() {
    println!("example");
}

fn helper() {}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "examples", "basic.rs"), []byte(exampleSrc), 0o644))

	lockfile := `[[package]]
name = "leftpad"
version = "1.0.0"

[[package]]
name = "libc"
version = "0.2.0"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.lock"), []byte(lockfile), 0o644))
}

func newTestProvider(t *testing.T, git gitRunner) (*Provider, string) {
	t.Helper()
	c, err := cache.New(t.TempDir(), time.Hour)
	require.NoError(t, err)
	mirrorRoot := t.TempDir()
	p := &Provider{git: git, cacheDir: mirrorRoot, c: c}
	return p, mirrorRoot
}

func TestInspectCountsUnsafeExamplesAndLoc(t *testing.T) {
	fixtureDir := t.TempDir()
	writeFixtureCrate(t, fixtureDir)

	git := &fakeGitRunner{checkoutDir: fixtureDir}
	p, _ := newTestProvider(t, git)

	repo := specs.RepoSpec{Host: "github", Owner: "acme", Name: "leftpad", URL: "https://example.invalid/acme/leftpad.git"}
	result := p.fetchOne(context.Background(), repo)

	data, ok := result.Get()
	require.True(t, ok)
	assert.Equal(t, 1, data.UnsafeBlockCount)
	assert.Equal(t, 2, data.ExampleFunctionCount)
	assert.Equal(t, 2, data.TransitiveDependencyCount)
	assert.Greater(t, data.LinesOfCode, 0)
}

func TestGetCodebaseDataGroupsByRepository(t *testing.T) {
	fixtureDir := t.TempDir()
	writeFixtureCrate(t, fixtureDir)

	git := &fakeGitRunner{checkoutDir: fixtureDir}
	p, _ := newTestProvider(t, git)

	repo := specs.RepoSpec{Host: "github", Owner: "acme", Name: "leftpad", URL: "https://example.invalid/acme/leftpad.git"}
	specA := specs.CrateSpec{Name: "a", Version: semver.MustParse("1.0.0"), Repo: &repo}
	specB := specs.CrateSpec{Name: "b", Version: semver.MustParse("1.0.0"), Repo: &repo}

	results := p.GetCodebaseData(context.Background(), []specs.CrateSpec{specA, specB})

	_, ok := results[specA.Key()].Get()
	assert.True(t, ok)
	assert.Equal(t, 1, git.calls, "one repository shared by two dependencies is only cloned once")
}

func TestGetCodebaseDataNoRepoIsError(t *testing.T) {
	p, _ := newTestProvider(t, &fakeGitRunner{})
	spec := specs.CrateSpec{Name: "orphan", Version: semver.MustParse("1.0.0")}

	results := p.GetCodebaseData(context.Background(), []specs.CrateSpec{spec})
	assert.True(t, results[spec.Key()].IsError())
}

func TestMissingCargoLockReportsZeroDependencies(t *testing.T) {
	fixtureDir := t.TempDir()
	writeFixtureCrate(t, fixtureDir)
	require.NoError(t, os.Remove(filepath.Join(fixtureDir, "Cargo.lock")))

	git := &fakeGitRunner{checkoutDir: fixtureDir}
	p, _ := newTestProvider(t, git)

	repo := specs.RepoSpec{Host: "github", Owner: "acme", Name: "nolock", URL: "https://example.invalid/acme/nolock.git"}
	result := p.fetchOne(context.Background(), repo)

	data, ok := result.Get()
	require.True(t, ok)
	assert.Equal(t, 0, data.TransitiveDependencyCount)
}
