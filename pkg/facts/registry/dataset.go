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
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/kraklabs/depaprz/pkg/facts/registry/tables"
)

// crateDownloadRowSize is the fixed width of one crate_downloads row:
// crate_id and downloads, each a uint64.
const crateDownloadRowSize = 16

func encodeCrateDownloadRow(crateID, downloads uint64) []byte {
	row := make([]byte, crateDownloadRowSize)
	binary.LittleEndian.PutUint64(row[0:8], crateID)
	binary.LittleEndian.PutUint64(row[8:16], downloads)
	return row
}

func decodeCrateDownloadRow(b []byte) (crateID, downloads uint64) {
	return binary.LittleEndian.Uint64(b[0:8]), binary.LittleEndian.Uint64(b[8:16])
}

// dependencyRowSize is the fixed width of one dependencies row:
// version_id and crate_id (each uint64), plus a single byte marking a
// "normal" (vs. dev/build) kind dependency.
const dependencyRowSize = 17

func encodeDependencyTableRow(versionID, crateID uint64, normal bool) []byte {
	row := make([]byte, dependencyRowSize)
	binary.LittleEndian.PutUint64(row[0:8], versionID)
	binary.LittleEndian.PutUint64(row[8:16], crateID)
	if normal {
		row[16] = 1
	}
	return row
}

func decodeDependencyTableRow(b []byte) (versionID, crateID uint64, normal bool) {
	return binary.LittleEndian.Uint64(b[0:8]), binary.LittleEndian.Uint64(b[8:16]), b[16] == 1
}

// crateRow is one decoded row of the materialized crates table.
type crateRow struct {
	id         uint64
	name       string
	repository string
	createdAt  int64
	updatedAt  int64
}

func encodeCrateRow(r crateRow) []byte {
	return tables.NewRowWriter().Uint64(r.id).String(r.name).String(r.repository).
		Int64(r.createdAt).Int64(r.updatedAt).Bytes()
}

func decodeCrateRow(b []byte) crateRow {
	r := tables.NewRowReader(b)
	return crateRow{id: r.Uint64(), name: r.String(), repository: r.String(), createdAt: r.Int64(), updatedAt: r.Int64()}
}

// versionRow is one decoded row of the materialized versions table.
type versionRow struct {
	id        uint64
	crateID   uint64
	num       string
	license   string
	createdAt int64
	downloads uint64
	yanked    bool
}

func encodeVersionRow(r versionRow) []byte {
	return tables.NewRowWriter().Uint64(r.id).Uint64(r.crateID).String(r.num).String(r.license).
		Int64(r.createdAt).Uint64(r.downloads).Bool(r.yanked).Bytes()
}

func decodeVersionRow(b []byte) versionRow {
	r := tables.NewRowReader(b)
	return versionRow{
		id:        r.Uint64(),
		crateID:   r.Uint64(),
		num:       r.String(),
		license:   r.String(),
		createdAt: r.Int64(),
		downloads: r.Uint64(),
		yanked:    r.Bool(),
	}
}

// dailyDownloadRow is one decoded row of the materialized
// version_downloads table.
type dailyDownloadRow struct {
	versionID uint64
	date      int64
	downloads uint64
}

func encodeDailyDownloadRow(r dailyDownloadRow) []byte {
	return tables.NewRowWriter().Uint64(r.versionID).Int64(r.date).Uint64(r.downloads).Bytes()
}

func decodeDailyDownloadRow(b []byte) dailyDownloadRow {
	r := tables.NewRowReader(b)
	return dailyDownloadRow{versionID: r.Uint64(), date: r.Int64(), downloads: r.Uint64()}
}

// dataset is the in-memory form of the crates.io database dump this
// provider materializes once per run and then serves every lookup
// from. Tables carrying string columns (crates, versions) and the
// per-day version_downloads rows are backed by tables.VarTable; the
// purely-numeric crate_downloads and dependencies tables are backed by
// tables.Table's fixed-width rows and walked once at load time to build
// the derived indices below; the remaining reference tables (categories, keywords,
// crate_owners, users, teams, and their join tables) are orders of
// magnitude smaller and are kept as plain maps — see DESIGN.md for why
// that three-way split is drawn where it is rather than one
// representation for everything.
type dataset struct {
	crates        *tables.VarTable
	crateIndexByID   map[uint64]int
	crateIndexByName map[string]int

	versions         *tables.VarTable
	versionIndexByID map[uint64]int
	versionsByCrate  map[uint64][]int // crateID(db) -> indices into versions

	totalDownloadsByCrate map[uint64]uint64

	dailyDownloads *tables.VarTable

	dependentsOf   map[uint64]map[uint64]bool // crateID(db) -> set of depender crateIDs(db)
	directDepCount map[uint64]int             // versionID(db) -> normal dependency count

	categoryNameByID map[uint64]string
	categoriesByCrate map[uint64][]uint64

	keywordNameByID map[uint64]string
	keywordsByCrate map[uint64][]uint64

	userLoginByID map[uint64]string
	teamLoginByID map[uint64]string
	ownersByCrate map[uint64][]crateOwnerRow
}

type crateOwnerRow struct {
	ownerID uint64
	isTeam  bool
}

// loadDataset reads every wanted CSV table out of dir and materializes
// the dataset described above. Each loader tolerates a missing file by
// leaving its part of the dataset empty, since some dump releases omit
// tables this tool does not strictly require (e.g. teams, for crates
// with no team owners).
func loadDataset(dir string) (*dataset, error) {
	ds := &dataset{
		crateIndexByID:        make(map[uint64]int),
		crateIndexByName:      make(map[string]int),
		versionIndexByID:      make(map[uint64]int),
		versionsByCrate:       make(map[uint64][]int),
		totalDownloadsByCrate: make(map[uint64]uint64),
		dependentsOf:          make(map[uint64]map[uint64]bool),
		directDepCount:        make(map[uint64]int),
		categoryNameByID:      make(map[uint64]string),
		categoriesByCrate:     make(map[uint64][]uint64),
		keywordNameByID:       make(map[uint64]string),
		keywordsByCrate:       make(map[uint64][]uint64),
		userLoginByID:         make(map[uint64]string),
		teamLoginByID:         make(map[uint64]string),
		ownersByCrate:         make(map[uint64][]crateOwnerRow),
	}

	if err := ds.loadCrates(dir); err != nil {
		return nil, err
	}
	if err := ds.loadVersions(dir); err != nil {
		return nil, err
	}
	if err := ds.loadCrateDownloads(dir); err != nil {
		return nil, err
	}
	if err := ds.loadVersionDownloads(dir); err != nil {
		return nil, err
	}
	if err := ds.loadDependencies(dir); err != nil {
		return nil, err
	}
	if err := ds.loadCategories(dir); err != nil {
		return nil, err
	}
	if err := ds.loadKeywords(dir); err != nil {
		return nil, err
	}
	if err := ds.loadUsers(dir); err != nil {
		return nil, err
	}
	if err := ds.loadTeams(dir); err != nil {
		return nil, err
	}
	if err := ds.loadCrateOwners(dir); err != nil {
		return nil, err
	}
	return ds, nil
}

func ignoreMissing(err error) error {
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (ds *dataset) loadCrates(dir string) error {
	t, err := openCSVTable(dir, "crates.csv")
	if err != nil {
		return ignoreMissing(err)
	}
	defer t.close()

	b := tables.NewVarTableBuilder()
	err = t.each(func(row []string) error {
		r := crateRow{
			id:         t.uintCol(row, "id"),
			name:       t.col(row, "name"),
			repository: t.col(row, "repository"),
			createdAt:  t.timeCol(row, "created_at").Unix(),
			updatedAt:  t.timeCol(row, "updated_at").Unix(),
		}
		idx := b.Append(encodeCrateRow(r))
		ds.crateIndexByID[r.id] = idx
		ds.crateIndexByName[r.name] = idx
		return nil
	})
	if err != nil {
		return fmt.Errorf("materialize crates table: %w", err)
	}
	ds.crates = b.Build()
	return nil
}

func (ds *dataset) loadVersions(dir string) error {
	t, err := openCSVTable(dir, "versions.csv")
	if err != nil {
		return ignoreMissing(err)
	}
	defer t.close()

	b := tables.NewVarTableBuilder()
	err = t.each(func(row []string) error {
		r := versionRow{
			id:        t.uintCol(row, "id"),
			crateID:   t.uintCol(row, "crate_id"),
			num:       t.col(row, "num"),
			license:   t.col(row, "license"),
			createdAt: t.timeCol(row, "created_at").Unix(),
			downloads: t.uintCol(row, "downloads"),
			yanked:    t.boolCol(row, "yanked"),
		}
		idx := b.Append(encodeVersionRow(r))
		ds.versionIndexByID[r.id] = idx
		ds.versionsByCrate[r.crateID] = append(ds.versionsByCrate[r.crateID], idx)
		return nil
	})
	if err != nil {
		return fmt.Errorf("materialize versions table: %w", err)
	}
	ds.versions = b.Build()
	return nil
}

func (ds *dataset) loadCrateDownloads(dir string) error {
	t, err := openCSVTable(dir, "crate_downloads.csv")
	if err != nil {
		return ignoreMissing(err)
	}
	defer t.close()

	var blob []byte
	err = t.each(func(row []string) error {
		blob = append(blob, encodeCrateDownloadRow(t.uintCol(row, "crate_id"), t.uintCol(row, "downloads"))...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("materialize crate_downloads table: %w", err)
	}

	table, err := tables.NewTable(blob, crateDownloadRowSize)
	if err != nil {
		return fmt.Errorf("materialize crate_downloads table: %w", err)
	}
	it := tables.NewRowIter(table, func(b []byte) [2]uint64 {
		crateID, downloads := decodeCrateDownloadRow(b)
		return [2]uint64{crateID, downloads}
	})
	for {
		row, _, ok := it.Next()
		if !ok {
			break
		}
		ds.totalDownloadsByCrate[row[0]] = row[1]
	}
	return nil
}

func (ds *dataset) loadVersionDownloads(dir string) error {
	t, err := openCSVTable(dir, "version_downloads.csv")
	if err != nil {
		return ignoreMissing(err)
	}
	defer t.close()

	b := tables.NewVarTableBuilder()
	err = t.each(func(row []string) error {
		r := dailyDownloadRow{
			versionID: t.uintCol(row, "version_id"),
			date:      t.dateCol(row, "date").Unix(),
			downloads: t.uintCol(row, "downloads"),
		}
		b.Append(encodeDailyDownloadRow(r))
		return nil
	})
	if err != nil {
		return fmt.Errorf("materialize version_downloads table: %w", err)
	}
	ds.dailyDownloads = b.Build()
	return nil
}

func (ds *dataset) loadDependencies(dir string) error {
	t, err := openCSVTable(dir, "dependencies.csv")
	if err != nil {
		return ignoreMissing(err)
	}
	defer t.close()

	var blob []byte
	err = t.each(func(row []string) error {
		versionID := t.uintCol(row, "version_id")
		depCrateID := t.uintCol(row, "crate_id")
		normal := t.col(row, "kind") == "0" || t.col(row, "kind") == "normal"
		blob = append(blob, encodeDependencyTableRow(versionID, depCrateID, normal)...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("materialize dependencies table: %w", err)
	}

	table, err := tables.NewTable(blob, dependencyRowSize)
	if err != nil {
		return fmt.Errorf("materialize dependencies table: %w", err)
	}
	type depRow struct {
		versionID, crateID uint64
		normal             bool
	}
	it := tables.NewRowIter(table, func(b []byte) depRow {
		versionID, crateID, normal := decodeDependencyTableRow(b)
		return depRow{versionID: versionID, crateID: crateID, normal: normal}
	})
	for {
		row, _, ok := it.Next()
		if !ok {
			break
		}
		if row.normal {
			ds.directDepCount[row.versionID]++
		}

		depVersionIdx, ok := ds.versionIndexByID[row.versionID]
		if !ok {
			continue
		}
		dependerCrateID := decodeVersionRow(ds.versions.Row(depVersionIdx)).crateID

		if ds.dependentsOf[row.crateID] == nil {
			ds.dependentsOf[row.crateID] = make(map[uint64]bool)
		}
		ds.dependentsOf[row.crateID][dependerCrateID] = true
	}
	return nil
}

func (ds *dataset) loadCategories(dir string) error {
	t, err := openCSVTable(dir, "categories.csv")
	if err == nil {
		defer t.close()
		if loadErr := t.each(func(row []string) error {
			ds.categoryNameByID[t.uintCol(row, "id")] = t.col(row, "slug")
			return nil
		}); loadErr != nil {
			return fmt.Errorf("materialize categories table: %w", loadErr)
		}
	} else if ignoreMissing(err) != nil {
		return err
	}

	jt, err := openCSVTable(dir, "crates_categories.csv")
	if err != nil {
		return ignoreMissing(err)
	}
	defer jt.close()
	return jt.each(func(row []string) error {
		crateID := jt.uintCol(row, "crate_id")
		categoryID := jt.uintCol(row, "category_id")
		ds.categoriesByCrate[crateID] = append(ds.categoriesByCrate[crateID], categoryID)
		return nil
	})
}

func (ds *dataset) loadKeywords(dir string) error {
	t, err := openCSVTable(dir, "keywords.csv")
	if err == nil {
		defer t.close()
		if loadErr := t.each(func(row []string) error {
			ds.keywordNameByID[t.uintCol(row, "id")] = t.col(row, "keyword")
			return nil
		}); loadErr != nil {
			return fmt.Errorf("materialize keywords table: %w", loadErr)
		}
	} else if ignoreMissing(err) != nil {
		return err
	}

	jt, err := openCSVTable(dir, "crates_keywords.csv")
	if err != nil {
		return ignoreMissing(err)
	}
	defer jt.close()
	return jt.each(func(row []string) error {
		crateID := jt.uintCol(row, "crate_id")
		keywordID := jt.uintCol(row, "keyword_id")
		ds.keywordsByCrate[crateID] = append(ds.keywordsByCrate[crateID], keywordID)
		return nil
	})
}

func (ds *dataset) loadUsers(dir string) error {
	t, err := openCSVTable(dir, "users.csv")
	if err != nil {
		return ignoreMissing(err)
	}
	defer t.close()
	return t.each(func(row []string) error {
		ds.userLoginByID[t.uintCol(row, "id")] = t.col(row, "gh_login")
		return nil
	})
}

func (ds *dataset) loadTeams(dir string) error {
	t, err := openCSVTable(dir, "teams.csv")
	if err != nil {
		return ignoreMissing(err)
	}
	defer t.close()
	return t.each(func(row []string) error {
		ds.teamLoginByID[t.uintCol(row, "id")] = t.col(row, "login")
		return nil
	})
}

func (ds *dataset) loadCrateOwners(dir string) error {
	t, err := openCSVTable(dir, "crate_owners.csv")
	if err != nil {
		return ignoreMissing(err)
	}
	defer t.close()
	return t.each(func(row []string) error {
		crateID := t.uintCol(row, "crate_id")
		ds.ownersByCrate[crateID] = append(ds.ownersByCrate[crateID], crateOwnerRow{
			ownerID: t.uintCol(row, "owner_id"),
			isTeam:  t.col(row, "owner_kind") == "1" || t.col(row, "owner_kind") == "team",
		})
		return nil
	})
}

// crate looks up a crate row by name.
func (ds *dataset) crate(name string) (crateRow, bool) {
	idx, ok := ds.crateIndexByName[name]
	if !ok {
		return crateRow{}, false
	}
	return decodeCrateRow(ds.crates.Row(idx)), true
}

// versionsOf returns every materialized version row for a crate,
// newest first is not guaranteed — callers sort as needed.
func (ds *dataset) versionsOf(crateID uint64) []versionRow {
	indices := ds.versionsByCrate[crateID]
	rows := make([]versionRow, len(indices))
	for i, idx := range indices {
		rows[i] = decodeVersionRow(ds.versions.Row(idx))
	}
	return rows
}

// monthlyDownloads buckets every daily_downloads row belonging to any
// of versionIDs into calendar months.
func (ds *dataset) monthlyDownloads(versionIDs map[uint64]bool) map[time.Time]uint64 {
	byMonth := make(map[time.Time]uint64)
	if ds.dailyDownloads == nil {
		return byMonth
	}
	it := tables.NewVarRowIter(ds.dailyDownloads, decodeDailyDownloadRow)
	for {
		row, _, ok := it.Next()
		if !ok {
			break
		}
		if !versionIDs[row.versionID] {
			continue
		}
		date := time.Unix(row.date, 0).UTC()
		month := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
		byMonth[month] += row.downloads
	}
	return byMonth
}

// oneMonthDownloads sums every daily_downloads row belonging to any of
// versionIDs whose date falls within the 30 days before now.
func (ds *dataset) oneMonthDownloads(versionIDs map[uint64]bool, now time.Time) uint64 {
	if ds.dailyDownloads == nil {
		return 0
	}
	cutoff := now.AddDate(0, 0, -30)
	var total uint64
	it := tables.NewVarRowIter(ds.dailyDownloads, decodeDailyDownloadRow)
	for {
		row, _, ok := it.Next()
		if !ok {
			break
		}
		if !versionIDs[row.versionID] {
			continue
		}
		date := time.Unix(row.date, 0).UTC()
		if date.After(cutoff) {
			total += row.downloads
		}
	}
	return total
}
