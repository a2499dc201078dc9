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

// Package cache is a TTL-gated, content-addressed blob store shared by
// every fact provider. Each provider owns a subdirectory under the
// cache root and addresses blobs by a relative path within it.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Cache is one provider's view of the on-disk cache: a root directory
// and the TTL that governs freshness for everything stored under it.
type Cache struct {
	root string
	ttl  time.Duration
}

// New creates a Cache rooted at dir, creating the directory (and any
// missing parents) if it does not already exist.
func New(dir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory %q: %w", dir, err)
	}
	return &Cache{root: dir, ttl: ttl}, nil
}

// resultKind discriminates a Load outcome, mirroring facts.ProviderResult's
// closed-variant shape.
type resultKind int

const (
	kindHit resultKind = iota
	kindMiss
	kindStale
)

// Result is the outcome of a Load call.
type Result[T any] struct {
	kind  resultKind
	value T
}

// IsHit reports whether the blob existed and was within its TTL.
func (r Result[T]) IsHit() bool { return r.kind == kindHit }

// IsMiss reports whether no blob exists at the given path at all.
func (r Result[T]) IsMiss() bool { return r.kind == kindMiss }

// IsStale reports whether a blob exists but has outlived its TTL. The
// value is still returned so callers can fall back to stale data when
// a live refetch fails, per the cache store's stale-fallback contract.
func (r Result[T]) IsStale() bool { return r.kind == kindStale }

// Value returns the decoded payload. It is valid whenever IsHit or
// IsStale is true; it is the zero value on a Miss.
func (r Result[T]) Value() T { return r.value }

type meta struct {
	WrittenAt time.Time `yaml:"written_at"`
}

func (c *Cache) blobPath(relpath string) string { return filepath.Join(c.root, relpath) }
func (c *Cache) metaPath(relpath string) string { return c.blobPath(relpath) + ".meta.yaml" }

// Load reads and decodes the blob at relpath. A missing blob is a Miss,
// never an error. A blob that exists but fails to decode is a hard
// error — a corrupt cache entry is never silently treated as a miss,
// since that would mask a serialization bug as a cold cache.
func Load[T any](c *Cache, relpath string) (Result[T], error) {
	data, err := os.ReadFile(c.blobPath(relpath))
	if os.IsNotExist(err) {
		return Result[T]{kind: kindMiss}, nil
	}
	if err != nil {
		return Result[T]{}, fmt.Errorf("read cache blob %q: %w", relpath, err)
	}

	var value T
	if err := yaml.Unmarshal(data, &value); err != nil {
		return Result[T]{}, fmt.Errorf("decode cache blob %q: %w", relpath, err)
	}

	writtenAt, err := c.readMeta(relpath)
	if err != nil {
		return Result[T]{}, err
	}

	if c.ttl > 0 && time.Since(writtenAt) > c.ttl {
		return Result[T]{kind: kindStale, value: value}, nil
	}
	return Result[T]{kind: kindHit, value: value}, nil
}

func (c *Cache) readMeta(relpath string) (time.Time, error) {
	data, err := os.ReadFile(c.metaPath(relpath))
	if os.IsNotExist(err) {
		// No sidecar: treat as written at the zero time so it reads as
		// stale under any positive TTL rather than crashing a
		// missing-metadata entry.
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read cache metadata %q: %w", relpath, err)
	}
	var m meta
	if err := yaml.Unmarshal(data, &m); err != nil {
		return time.Time{}, fmt.Errorf("decode cache metadata %q: %w", relpath, err)
	}
	return m.WrittenAt, nil
}

// Save encodes value and writes it to relpath, replacing any existing
// blob. The write is atomic: it writes to a temp file in the same
// directory and renames over the target, so a concurrent Load never
// observes a partially written blob.
func Save[T any](c *Cache, relpath string, value T) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache blob %q: %w", relpath, err)
	}
	if err := c.atomicWrite(c.blobPath(relpath), data); err != nil {
		return err
	}

	metaData, err := yaml.Marshal(meta{WrittenAt: time.Now()})
	if err != nil {
		return fmt.Errorf("encode cache metadata %q: %w", relpath, err)
	}
	return c.atomicWrite(c.metaPath(relpath), metaData)
}

func (c *Cache) atomicWrite(target string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create cache subdirectory for %q: %w", target, err)
	}
	tmp := target + fmt.Sprintf(".tmp.%d", os.Getpid())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp cache file %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp cache file into place %q: %w", target, err)
	}
	return nil
}
