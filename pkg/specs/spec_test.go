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

package specs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCrateSpec(t *testing.T) {
	spec, err := NewCrateSpec("tokio", "1.38.0")
	require.NoError(t, err)
	assert.Equal(t, "tokio", spec.Name)
	assert.Equal(t, "tokio@1.38.0", spec.Key())

	_, err = NewCrateSpec("tokio", "not-a-version")
	assert.Error(t, err)

	_, err = NewCrateSpec("", "1.0.0")
	assert.Error(t, err)
}

func TestByRepo(t *testing.T) {
	repoA := &RepoSpec{Host: "github", Owner: "tokio-rs", Name: "tokio"}
	repoB := &RepoSpec{Host: "github", Owner: "serde-rs", Name: "serde"}

	specA1, _ := NewCrateSpec("tokio", "1.38.0")
	specA1.Repo = repoA
	specA2, _ := NewCrateSpec("tokio-util", "0.7.0")
	specA2.Repo = repoA
	specB, _ := NewCrateSpec("serde", "1.0.0")
	specB.Repo = repoB
	noRepo, _ := NewCrateSpec("orphan", "0.1.0")

	groups := ByRepo([]CrateSpec{specA1, specA2, specB, noRepo})
	require.Len(t, groups, 2)
	assert.Len(t, groups[repoA.Key()], 2)
	assert.Len(t, groups[repoB.Key()], 1)
}

func TestDependencyTypesRoundTrip(t *testing.T) {
	set := NewDependencyTypes(Dev, Standard)
	text, err := set.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "standard,dev", string(text))

	var decoded DependencyTypes
	require.NoError(t, decoded.UnmarshalText(text))
	assert.True(t, decoded.Contains(Standard))
	assert.True(t, decoded.Contains(Dev))
	assert.False(t, decoded.Contains(Build))
}

func TestDependencyTypesDefault(t *testing.T) {
	def := DefaultDependencyTypes()
	assert.True(t, def.Contains(Standard))
	assert.False(t, def.Contains(Dev))
	assert.False(t, def.IsEmpty())
}

func TestParseDependencyTypeRejectsUnknown(t *testing.T) {
	_, err := ParseDependencyType("testing")
	assert.Error(t, err)
}
