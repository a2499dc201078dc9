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

package tables

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTableRejectsMisalignedData(t *testing.T) {
	_, err := NewTable(make([]byte, 7), 4)
	assert.Error(t, err)
}

func TestRowIterLenExactness(t *testing.T) {
	data := make([]byte, 4*3)
	for i := 0; i < 3; i++ {
		binary.LittleEndian.PutUint32(data[i*4:], uint32(i*10))
	}
	table, err := NewTable(data, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	it := NewRowIter(table, func(b []byte) uint32 { return binary.LittleEndian.Uint32(b) })
	assert.Equal(t, 3, it.Len())

	var got []uint32
	for {
		row, _, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, row)
	}
	assert.Equal(t, []uint32{0, 10, 20}, got)
	assert.Equal(t, 0, it.Len())
}

func TestRowIterResetRewinds(t *testing.T) {
	data := make([]byte, 4*2)
	table, err := NewTable(data, 4)
	require.NoError(t, err)
	it := NewRowIter(table, func(b []byte) int { return 0 })

	_, _, _ = it.Next()
	assert.Equal(t, 1, it.Len())
	it.Reset()
	assert.Equal(t, 2, it.Len())
}
