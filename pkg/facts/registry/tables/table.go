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

// Package tables holds the fixed-width binary row format the registry
// provider materializes the crates.io database dump tables into, and a
// generic row iterator over it.
package tables

import "fmt"

// Table is a fixed-width-row binary blob: every row occupies exactly
// RowSize bytes, back to back, with no header or padding.
type Table struct {
	data    []byte
	rowSize int
}

// NewTable wraps data as a table of fixed-width rows. It returns an
// error if data's length is not an exact multiple of rowSize.
func NewTable(data []byte, rowSize int) (*Table, error) {
	if rowSize <= 0 {
		return nil, fmt.Errorf("row size must be positive, got %d", rowSize)
	}
	if len(data)%rowSize != 0 {
		return nil, fmt.Errorf("table data length %d is not a multiple of row size %d", len(data), rowSize)
	}
	return &Table{data: data, rowSize: rowSize}, nil
}

// Len returns the number of rows in the table.
func (t *Table) Len() int {
	if t.rowSize == 0 {
		return 0
	}
	return len(t.data) / t.rowSize
}

// Row returns the raw bytes of the row at index i. It panics if i is
// out of range, matching slice-indexing semantics.
func (t *Table) Row(i int) []byte {
	start := i * t.rowSize
	return t.data[start : start+t.rowSize]
}

// RowIter walks a Table's rows, decoding each one lazily via decode.
// Index tracks the zero-based position of the row last returned by
// Next, mirroring the original's (Row, Index) pair per iteration step.
type RowIter[Row any] struct {
	table  *Table
	decode func([]byte) Row
	cursor int
}

// NewRowIter builds a RowIter over table, decoding each row with decode.
func NewRowIter[Row any](table *Table, decode func([]byte) Row) *RowIter[Row] {
	return &RowIter[Row]{table: table, decode: decode}
}

// Next returns the next row and its index, and true — or the zero
// value and false once every row has been consumed.
func (it *RowIter[Row]) Next() (row Row, index int, ok bool) {
	if it.cursor >= it.table.Len() {
		return row, 0, false
	}
	index = it.cursor
	row = it.decode(it.table.Row(index))
	it.cursor++
	return row, index, true
}

// Len returns the number of rows remaining to be iterated.
func (it *RowIter[Row]) Len() int {
	return it.table.Len() - it.cursor
}

// Reset rewinds the iterator to the first row.
func (it *RowIter[Row]) Reset() {
	it.cursor = 0
}
