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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRow struct {
	id   uint64
	name string
}

func encodeTestRow(r testRow) []byte {
	return NewRowWriter().Uint64(r.id).String(r.name).Bytes()
}

func decodeTestRow(b []byte) testRow {
	r := NewRowReader(b)
	return testRow{id: r.Uint64(), name: r.String()}
}

func TestVarTableRoundTripsVariableWidthRows(t *testing.T) {
	b := NewVarTableBuilder()
	b.Append(encodeTestRow(testRow{id: 1, name: "serde"}))
	b.Append(encodeTestRow(testRow{id: 2, name: "tokio-rustls"}))
	table := b.Build()

	require.Equal(t, 2, table.Len())

	it := NewVarRowIter(table, decodeTestRow)
	first, idx, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, testRow{id: 1, name: "serde"}, first)

	second, idx, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, testRow{id: 2, name: "tokio-rustls"}, second)

	_, _, ok = it.Next()
	assert.False(t, ok)
}

func TestVarTableRowAddressesAreStableAfterMoreAppends(t *testing.T) {
	b := NewVarTableBuilder()
	firstIdx := b.Append(encodeTestRow(testRow{id: 1, name: "a"}))
	b.Append(encodeTestRow(testRow{id: 2, name: "much longer row value here"}))
	table := b.Build()

	assert.Equal(t, testRow{id: 1, name: "a"}, decodeTestRow(table.Row(firstIdx)))
}

func TestRowWriterReaderRoundTripsMixedFields(t *testing.T) {
	row := NewRowWriter().Uint64(42).Bool(true).String("MIT OR Apache-2.0").Int64(-5).Bytes()
	r := NewRowReader(row)
	assert.Equal(t, uint64(42), r.Uint64())
	assert.True(t, r.Bool())
	assert.Equal(t, "MIT OR Apache-2.0", r.String())
	assert.Equal(t, int64(-5), r.Int64())
}
