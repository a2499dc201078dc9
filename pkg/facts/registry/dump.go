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

package registry

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/kraklabs/depaprz/pkg/cache"
)

// DumpURL is crates.io's published location for the current database
// dump tarball.
const DumpURL = "https://static.crates.io/db-dump.tar.gz"

const dumpSyncMarkerRelpath = "dump/last_synced.yaml"

// dumpSyncMarker tracks when the dump extraction under a provider's
// dump directory was last refreshed, gating re-downloads the same way
// advisories.staleSyncMarker gates RustSec database re-clones.
type dumpSyncMarker struct {
	SyncedAt time.Time `yaml:"synced_at"`
}

// DumpSource fetches the crates.io database dump as a gzipped tar
// stream. Swappable in tests so they never reach the network.
type DumpSource interface {
	Fetch(ctx context.Context) (io.ReadCloser, error)
}

// HTTPDumpSource fetches the dump from crates.io's static mirror.
type HTTPDumpSource struct {
	Client *http.Client
	URL    string
}

// NewHTTPDumpSource builds an HTTPDumpSource pointed at DumpURL with a
// generous timeout — the dump is several hundred megabytes compressed.
func NewHTTPDumpSource() *HTTPDumpSource {
	return &HTTPDumpSource{Client: &http.Client{Timeout: 10 * time.Minute}, URL: DumpURL}
}

// Fetch issues the GET request and returns the response body unread;
// the caller is responsible for closing it.
func (s *HTTPDumpSource) Fetch(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build dump request: %w", err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dump: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch dump: unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

// wantedDumpFiles names the CSV tables this provider materializes.
// Every other member of the tarball (crate descriptions, badges,
// reserved-name lists, metadata tables this tool has no use for) is
// skipped as the tar stream is walked, so extraction never writes
// files the rest of the package does not read.
var wantedDumpFiles = map[string]bool{
	"crates.csv":            true,
	"versions.csv":          true,
	"crate_downloads.csv":   true,
	"version_downloads.csv": true,
	"dependencies.csv":      true,
	"categories.csv":        true,
	"crates_categories.csv": true,
	"keywords.csv":          true,
	"crates_keywords.csv":  true,
	"crate_owners.csv":      true,
	"users.csv":             true,
	"teams.csv":             true,
}

// ensureDump refreshes the extracted CSV tables under dumpDir whenever
// the sync marker stored in c is missing or stale. Extraction happens
// into a temporary sibling directory and is only renamed over dumpDir
// once it succeeds in full, so a reader never observes a half-extracted
// dump and a failed refresh keeps serving whatever was extracted last.
func ensureDump(ctx context.Context, c *cache.Cache, src DumpSource, dumpDir string) error {
	marker, err := cache.Load[dumpSyncMarker](c, dumpSyncMarkerRelpath)
	if err != nil {
		return err
	}
	if marker.IsHit() {
		return nil
	}
	haveOld := false
	if marker.IsStale() {
		if _, statErr := os.Stat(dumpDir); statErr == nil {
			haveOld = true
		}
	}

	body, err := src.Fetch(ctx)
	if err != nil {
		if haveOld {
			return nil
		}
		return fmt.Errorf("refresh registry dump: %w", err)
	}
	defer body.Close()

	tmpDir := dumpDir + ".tmp"
	if err := os.RemoveAll(tmpDir); err != nil {
		return fmt.Errorf("clear stale dump staging directory: %w", err)
	}
	if err := extractDump(body, tmpDir); err != nil {
		os.RemoveAll(tmpDir)
		if haveOld {
			return nil
		}
		return fmt.Errorf("extract registry dump: %w", err)
	}

	if err := os.RemoveAll(dumpDir); err != nil {
		return fmt.Errorf("remove previous dump extraction: %w", err)
	}
	if err := os.Rename(tmpDir, dumpDir); err != nil {
		return fmt.Errorf("replace dump extraction: %w", err)
	}

	return cache.Save(c, dumpSyncMarkerRelpath, dumpSyncMarker{SyncedAt: time.Now()})
}

// extractDump decompresses and untars body, writing every entry whose
// base name is in wantedDumpFiles into destDir, flattened — the
// upstream tarball nests its CSVs under a timestamped top-level
// directory that changes with every dump, so preserving that path
// would break the fixed paths the rest of this package expects.
func extractDump(body io.Reader, destDir string) error {
	gz, err := gzip.NewReader(body)
	if err != nil {
		return fmt.Errorf("open dump gzip stream: %w", err)
	}
	defer gz.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create dump extraction directory: %w", err)
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read dump tar entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name := filepath.Base(hdr.Name)
		if !wantedDumpFiles[name] {
			continue
		}
		if err := writeExtractedFile(destDir, name, tr); err != nil {
			return err
		}
	}
}

func writeExtractedFile(destDir, name string, r io.Reader) error {
	f, err := os.Create(filepath.Join(destDir, name))
	if err != nil {
		return fmt.Errorf("create extracted file %q: %w", name, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("write extracted file %q: %w", name, err)
	}
	return nil
}
