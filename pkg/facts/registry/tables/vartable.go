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

// VarTable is a positional store of variable-length rows: one growing
// byte blob plus a parallel (offset, length) index, so CSV-sourced rows
// carrying strings (crate names, license expressions, license text)
// still get the same deterministic-index addressing Table gives
// fixed-width numeric rows.
type VarTable struct {
	data    []byte
	offsets []int
	lengths []int
}

// VarTableBuilder accumulates variable-length rows in encounter order,
// the shape a CSV table materializer naturally produces: one pass over
// the source file, one Append per record.
type VarTableBuilder struct {
	data    []byte
	offsets []int
	lengths []int
}

// NewVarTableBuilder starts an empty builder.
func NewVarTableBuilder() *VarTableBuilder {
	return &VarTableBuilder{}
}

// Append adds row's bytes as the next row, returning its index.
func (b *VarTableBuilder) Append(row []byte) int {
	index := len(b.offsets)
	b.offsets = append(b.offsets, len(b.data))
	b.lengths = append(b.lengths, len(row))
	b.data = append(b.data, row...)
	return index
}

// Len reports how many rows have been appended so far.
func (b *VarTableBuilder) Len() int {
	return len(b.offsets)
}

// Build finalizes the accumulated rows into an immutable VarTable.
func (b *VarTableBuilder) Build() *VarTable {
	return &VarTable{data: b.data, offsets: b.offsets, lengths: b.lengths}
}

// Len returns the number of rows in the table.
func (t *VarTable) Len() int {
	return len(t.offsets)
}

// Row returns the raw bytes of row i. It panics if i is out of range,
// matching slice-indexing semantics.
func (t *VarTable) Row(i int) []byte {
	o := t.offsets[i]
	return t.data[o : o+t.lengths[i]]
}

// VarRowIter walks a VarTable's rows, decoding each one lazily via
// decode, mirroring Table's RowIter for the variable-width case.
type VarRowIter[Row any] struct {
	table  *VarTable
	decode func([]byte) Row
	cursor int
}

// NewVarRowIter builds a VarRowIter over table, decoding each row with decode.
func NewVarRowIter[Row any](table *VarTable, decode func([]byte) Row) *VarRowIter[Row] {
	return &VarRowIter[Row]{table: table, decode: decode}
}

// Next returns the next row and its index, and true — or the zero
// value and false once every row has been consumed.
func (it *VarRowIter[Row]) Next() (row Row, index int, ok bool) {
	if it.cursor >= it.table.Len() {
		return row, 0, false
	}
	index = it.cursor
	row = it.decode(it.table.Row(index))
	it.cursor++
	return row, index, true
}

// Len returns the number of rows remaining to be iterated.
func (it *VarRowIter[Row]) Len() int {
	return it.table.Len() - it.cursor
}

// Reset rewinds the iterator to the first row.
func (it *VarRowIter[Row]) Reset() {
	it.cursor = 0
}
