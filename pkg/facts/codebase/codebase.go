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

// Package codebase runs a local inspector over a checked-out copy of a
// dependency's source, producing the facts that can only be read from
// the code itself: unsafe-block usage, example functions, line count,
// and the transitive dependency count from Cargo.lock. It reuses the same mirror directory
// convention as the hosting provider, so a repository already cloned
// to answer hosting facts is not cloned a second time.
package codebase

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/kraklabs/depaprz/pkg/cache"
	"github.com/kraklabs/depaprz/pkg/facts"
	"github.com/kraklabs/depaprz/pkg/gitutil"
	"github.com/kraklabs/depaprz/pkg/specs"
)

// gitRunner is the subset of gitutil.Runner this provider needs,
// pulled out as an interface so tests can substitute a fake.
type gitRunner interface {
	CloneOrFetch(ctx context.Context, repoURL, dir string) error
}

// Provider walks a local checkout with tree-sitter to answer codebase
// facts, grouped by repository exactly like the hosting provider.
type Provider struct {
	git      gitRunner
	cacheDir string
	c        *cache.Cache

	parserInit sync.Once
	parserPool sync.Pool
}

// New builds a Provider. cacheDir should match the hosting provider's
// cacheDir so both providers share the same mirror directory per repo
// and a repo is cloned at most once across the whole run.
func New(c *cache.Cache, cacheDir string) *Provider {
	return &Provider{git: gitutil.New(), cacheDir: cacheDir, c: c}
}

func (p *Provider) initParser() {
	p.parserInit.Do(func() {
		p.parserPool.New = func() any {
			parser := sitter.NewParser()
			parser.SetLanguage(rust.GetLanguage())
			return parser
		}
	})
}

// GetCodebaseData resolves codebase facts for every distinct
// repository among crateSpecs.
func (p *Provider) GetCodebaseData(ctx context.Context, crateSpecs []specs.CrateSpec) map[string]facts.ProviderResult[facts.CodebaseData] {
	results := make(map[string]facts.ProviderResult[facts.CodebaseData], len(crateSpecs))

	for _, group := range specs.ByRepo(crateSpecs) {
		repo := *group[0].Repo
		result := p.fetchOne(ctx, repo)
		for _, spec := range group {
			results[spec.Key()] = result
		}
	}

	for _, spec := range crateSpecs {
		if spec.Repo == nil {
			results[spec.Key()] = facts.Error[facts.CodebaseData]("no repository resolved for this dependency")
		}
	}

	return results
}

func (p *Provider) fetchOne(ctx context.Context, repo specs.RepoSpec) facts.ProviderResult[facts.CodebaseData] {
	cacheKey := repo.Key() + ".yaml"
	cached, err := cache.Load[facts.CodebaseData](p.c, cacheKey)
	if err != nil {
		return facts.Error[facts.CodebaseData](err.Error())
	}
	if cached.IsHit() {
		return facts.Found(cached.Value())
	}

	mirrorDir := filepath.Join(p.cacheDir, repo.Key())
	data, err := p.inspect(ctx, repo, mirrorDir)
	if err != nil {
		if cached.IsStale() {
			return facts.Found(cached.Value())
		}
		return facts.Error[facts.CodebaseData](err.Error())
	}

	if err := cache.Save(p.c, cacheKey, data); err != nil {
		return facts.Error[facts.CodebaseData](err.Error())
	}
	return facts.Found(data)
}

func (p *Provider) inspect(ctx context.Context, repo specs.RepoSpec, mirrorDir string) (facts.CodebaseData, error) {
	if repo.URL == "" {
		return facts.CodebaseData{}, fmt.Errorf("repository %q has no clone URL", repo.Key())
	}
	if err := p.git.CloneOrFetch(ctx, repo.URL, mirrorDir); err != nil {
		return facts.CodebaseData{}, fmt.Errorf("mirror %q: %w", repo.Key(), err)
	}
	return p.walk(ctx, mirrorDir)
}

// walk scans every .rs file under root, counting unsafe blocks and
// example functions via tree-sitter, counting lines with bufio.Scanner,
// and reading the transitive dependency count from Cargo.lock when present.
func (p *Provider) walk(ctx context.Context, root string) (facts.CodebaseData, error) {
	p.initParser()

	var data facts.CodebaseData

	walkErr := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == "target" || info.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".rs") {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("read %q: %w", path, readErr)
		}

		lines, countErr := countLines(content)
		if countErr != nil {
			return countErr
		}
		data.LinesOfCode += lines

		unsafeCount, exampleCount, parseErr := p.inspectFile(ctx, content, isExampleFile(root, path))
		if parseErr != nil {
			return fmt.Errorf("parse %q: %w", path, parseErr)
		}
		data.UnsafeBlockCount += unsafeCount
		data.ExampleFunctionCount += exampleCount

		return nil
	})
	if walkErr != nil {
		return facts.CodebaseData{}, fmt.Errorf("walk %q: %w", root, walkErr)
	}

	depCount, err := transitiveDependencyCount(root)
	if err != nil {
		return facts.CodebaseData{}, err
	}
	data.TransitiveDependencyCount = depCount

	return data, nil
}

// isExampleFile reports whether path lives under a cargo `examples/`
// directory, the convention a crate uses for example binaries.
func isExampleFile(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return strings.HasPrefix(rel, "examples"+string(filepath.Separator))
}

func (p *Provider) inspectFile(ctx context.Context, content []byte, inExamplesDir bool) (unsafeCount, exampleCount int, err error) {
	parserObj := p.parserPool.Get()
	parser, ok := parserObj.(*sitter.Parser)
	if !ok {
		return 0, 0, fmt.Errorf("invalid parser type from pool")
	}
	defer p.parserPool.Put(parser)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return 0, 0, err
	}
	defer tree.Close()

	root := tree.RootNode()
	unsafeCount = countNodeType(root, "unsafe_block")
	if inExamplesDir {
		exampleCount = countNodeType(root, "function_item")
	}
	return unsafeCount, exampleCount, nil
}

func countNodeType(node *sitter.Node, kind string) int {
	if node == nil {
		return 0
	}
	count := 0
	if node.Type() == kind {
		count++
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		count += countNodeType(node.Child(i), kind)
	}
	return count
}

func countLines(content []byte) (int, error) {
	scanner := bufio.NewScanner(strings.NewReader(string(content)))
	count := 0
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scan lines: %w", err)
	}
	return count, nil
}

type cargoLock struct {
	Package []struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

// transitiveDependencyCount reads Cargo.lock's flat package list, which
// already names every transitive dependency resolved into the build —
// that's the entire point of a lockfile. A checkout without a
// Cargo.lock (a library crate checked out standalone) reports zero
// rather than erroring, since the lockfile is optional information.
func transitiveDependencyCount(root string) (int, error) {
	data, err := os.ReadFile(filepath.Join(root, "Cargo.lock"))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read Cargo.lock: %w", err)
	}

	var lock cargoLock
	if _, err := toml.Decode(string(data), &lock); err != nil {
		return 0, fmt.Errorf("decode Cargo.lock: %w", err)
	}
	return len(lock.Package), nil
}
