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

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCratesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deps.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCrateSpecsParsesNameVersionAndRepo(t *testing.T) {
	path := writeCratesFile(t, `[
		{"name": "leftpad", "version": "1.0.0", "repo": {"host": "github", "owner": "acme", "name": "leftpad", "url": "https://example.invalid/acme/leftpad.git"}},
		{"name": "orphan", "version": "2.3.4"}
	]`)

	result, err := loadCrateSpecs(path)
	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.Equal(t, "leftpad@1.0.0", result[0].Key())
	require.NotNil(t, result[0].Repo)
	assert.Equal(t, "github/acme/leftpad", result[0].Repo.Key())

	assert.Equal(t, "orphan@2.3.4", result[1].Key())
	assert.Nil(t, result[1].Repo)
}

func TestLoadCrateSpecsRejectsInvalidVersion(t *testing.T) {
	path := writeCratesFile(t, `[{"name": "bad", "version": "not-a-version"}]`)

	_, err := loadCrateSpecs(path)
	assert.Error(t, err)
}

func TestLoadCrateSpecsRejectsMalformedJSON(t *testing.T) {
	path := writeCratesFile(t, `not json`)

	_, err := loadCrateSpecs(path)
	assert.Error(t, err)
}

func TestLoadCrateSpecsMissingFile(t *testing.T) {
	_, err := loadCrateSpecs(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
