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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// csvTable is an open handle to one extracted dump table, with its
// header resolved to a name->column index map so every loader below
// reads columns by name instead of a hardcoded position — the dump's
// column order is not part of its documented contract, only the
// header names are.
type csvTable struct {
	r      *csv.Reader
	f      *os.File
	column map[string]int
}

// openCSVTable opens dir/name and reads its header row. A missing file
// is reported through the error so the caller can decide whether that
// table is optional.
func openCSVTable(dir, name string) (*csvTable, error) {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}
	r := csv.NewReader(f)
	r.ReuseRecord = true
	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read header of %q: %w", name, err)
	}
	column := make(map[string]int, len(header))
	for i, h := range header {
		column[h] = i
	}
	// ReuseRecord means column indices must be copied out before the
	// next Read call overwrites the backing array; the header row
	// itself is never reused again so this copy is safe.
	return &csvTable{r: r, f: f, column: column}, nil
}

func (t *csvTable) close() { t.f.Close() }

// each calls fn with every data row until EOF or fn returns an error.
// Because the underlying reader reuses its record slice, fn must not
// retain the record slice itself past its call.
func (t *csvTable) each(fn func(row []string) error) error {
	for {
		record, err := t.r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		if err := fn(record); err != nil {
			return err
		}
	}
}

func (t *csvTable) col(row []string, name string) string {
	i, ok := t.column[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func (t *csvTable) uintCol(row []string, name string) uint64 {
	v, _ := strconv.ParseUint(t.col(row, name), 10, 64)
	return v
}

func (t *csvTable) timeCol(row []string, name string) time.Time {
	s := t.col(row, name)
	if s == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		ts, err = time.Parse("2006-01-02 15:04:05", s)
		if err != nil {
			return time.Time{}
		}
	}
	return ts
}

func (t *csvTable) dateCol(row []string, name string) time.Time {
	s := t.col(row, name)
	if s == "" {
		return time.Time{}
	}
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func (t *csvTable) boolCol(row []string, name string) bool {
	return t.col(row, name) == "t" || t.col(row, name) == "true"
}
