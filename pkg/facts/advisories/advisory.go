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

// Package advisories mirrors the RustSec advisory database (one TOML
// file per advisory, grouped by crate name) into per-dependency
// facts.AdvisoryData counts.
package advisories

import (
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
)

// severity is the closed set of CVSS severity bands an advisory can
// carry. An advisory with no severity field (most informational
// advisories) is severityNone and is never counted against the four
// severity buckets, matching the upstream database's convention that
// only vulnerabilities carry a severity.
type severity int

const (
	severityNone severity = iota
	severityLow
	severityMedium
	severityHigh
	severityCritical
)

func parseSeverity(s string) severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return severityLow
	case "medium":
		return severityMedium
	case "high":
		return severityHigh
	case "critical":
		return severityCritical
	default:
		return severityNone
	}
}

// informational is the closed set of non-vulnerability advisory kinds.
// An advisory with an empty Informational field is a vulnerability
// rather than an informational notice.
type informational int

const (
	informationalNone informational = iota
	informationalNotice
	informationalUnmaintained
	informationalUnsound
	informationalYanked
)

func parseInformational(s string) informational {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "notice":
		return informationalNotice
	case "unmaintained":
		return informationalUnmaintained
	case "unsound":
		return informationalUnsound
	case "yanked":
		return informationalYanked
	default:
		return informationalNone
	}
}

// advisoryFile is the subset of a RustSec advisory TOML document this
// package needs. The upstream schema carries far more metadata
// (description, references, CVSS vector strings, affected functions);
// everything else is ignored here since only the four fields below
// feed a ranking metric.
type advisoryFile struct {
	Advisory struct {
		ID            string `toml:"id"`
		Package       string `toml:"package"`
		Informational string `toml:"informational"`
		Severity      string `toml:"severity"`
	} `toml:"advisory"`
	Versions struct {
		Patched    []string `toml:"patched"`
		Unaffected []string `toml:"unaffected"`
	} `toml:"versions"`
}

// advisory is a parsed advisory file, decoded once at load time and
// kept resident for the lifetime of the Provider.
type advisory struct {
	id            string
	pkg           string
	informational informational
	severity      severity
	safeRanges    []*semver.Constraints
}

func parseAdvisory(data []byte) (advisory, error) {
	var f advisoryFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return advisory{}, err
	}

	a := advisory{
		id:            f.Advisory.ID,
		pkg:           f.Advisory.Package,
		informational: parseInformational(f.Advisory.Informational),
		severity:      parseSeverity(f.Advisory.Severity),
	}

	for _, raw := range append(append([]string{}, f.Versions.Patched...), f.Versions.Unaffected...) {
		c, err := semver.NewConstraint(raw)
		if err != nil {
			// A malformed version range in one advisory must not sink
			// every other advisory in the database; skip that range. An
			// advisory left with no parseable range at all affects every
			// version, the conservative direction for a security check.
			continue
		}
		a.safeRanges = append(a.safeRanges, c)
	}

	return a, nil
}

// affectsVersion reports whether v is vulnerable to a, i.e. v does not
// fall within any of a's patched or unaffected ranges. An advisory with
// no parseable ranges at all is treated as affecting every version.
func (a advisory) affectsVersion(v *semver.Version) bool {
	if v == nil {
		return true
	}
	for _, safe := range a.safeRanges {
		if safe.Check(v) {
			return false
		}
	}
	return true
}
