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

import "encoding/binary"

// RowWriter appends fixed- and variable-width fields into one row's
// byte buffer in declaration order; RowReader reads them back in the
// same order. Together they are the encode/decode pair every
// VarTable-backed CSV table in the registry package builds on, so each
// table only has to declare its field order once.
type RowWriter struct {
	buf []byte
}

// NewRowWriter starts an empty row buffer.
func NewRowWriter() *RowWriter { return &RowWriter{} }

// Uint64 appends v as 8 little-endian bytes.
func (w *RowWriter) Uint64(v uint64) *RowWriter {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
	return w
}

// Int64 appends v as 8 little-endian bytes (Unix seconds, typically).
func (w *RowWriter) Int64(v int64) *RowWriter { return w.Uint64(uint64(v)) }

// Bool appends a single byte, 1 for true.
func (w *RowWriter) Bool(v bool) *RowWriter {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
	return w
}

// String appends s as a uint32 length prefix followed by its bytes.
func (w *RowWriter) String(s string) *RowWriter {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
	w.buf = append(w.buf, lenBuf[:]...)
	w.buf = append(w.buf, s...)
	return w
}

// Bytes returns the accumulated row.
func (w *RowWriter) Bytes() []byte { return w.buf }

// RowReader reads fields back out of a row buffer in the order they
// were written.
type RowReader struct {
	buf []byte
	pos int
}

// NewRowReader wraps row for sequential field reads.
func NewRowReader(row []byte) *RowReader { return &RowReader{buf: row} }

// Uint64 reads the next 8 bytes as a little-endian uint64.
func (r *RowReader) Uint64() uint64 {
	v := binary.LittleEndian.Uint64(r.buf[r.pos : r.pos+8])
	r.pos += 8
	return v
}

// Int64 reads the next 8 bytes as a little-endian int64.
func (r *RowReader) Int64() int64 { return int64(r.Uint64()) }

// Bool reads the next single byte as a boolean.
func (r *RowReader) Bool() bool {
	v := r.buf[r.pos] == 1
	r.pos++
	return v
}

// String reads a uint32 length prefix followed by that many bytes.
func (r *RowReader) String() string {
	n := binary.LittleEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	s := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s
}
