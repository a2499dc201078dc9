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

package config

import "strings"

// CheckLicense reports whether spdxExpr is allowed under the given
// allowed-license set.
//
// No library in the pack parses SPDX *expressions* (AND/OR license
// combinators) — the one SPDX-aware dependency available,
// spdx/tools-golang, parses whole SBOM documents, a different problem
// entirely. This is a hand-rolled walk of the same shape as the
// original evaluator: split the expression into AND- and OR-joined
// license requirement tokens, check each against the allowed set with
// a two-way case-insensitive substring match, and combine:
//   - an expression containing " AND " requires every requirement to
//     be allowed
//   - otherwise (single license, or " OR "-joined) at least one
//     requirement must be allowed
//
// A requirement that fails to look like an SPDX license id at all
// (empty after trimming) counts as disallowed. If nothing in the
// expression parses into any requirement, the license is rejected.
func CheckLicense(spdxExpr string, allowed []string) bool {
	requirements := spdxRequirements(spdxExpr)
	if len(requirements) == 0 {
		return substringFallback(spdxExpr, allowed)
	}

	hasAllowed := false
	hasDisallowed := false
	for _, req := range requirements {
		if isLicenseAllowed(req, allowed) {
			hasAllowed = true
		} else {
			hasDisallowed = true
		}
	}

	if strings.Contains(spdxExpr, " AND ") {
		return hasAllowed && !hasDisallowed
	}
	return hasAllowed
}

// spdxRequirements splits an SPDX expression into its individual
// license-id tokens, stripping the AND/OR/WITH combinators and any
// parentheses. It is intentionally permissive: it does not validate
// that the result is a well-formed SPDX expression, only that it can
// extract plausible license identifiers from it.
func spdxRequirements(expr string) []string {
	expr = strings.NewReplacer("(", " ", ")", " ").Replace(expr)
	fields := strings.Fields(expr)

	var requirements []string
	for _, f := range fields {
		switch f {
		case "AND", "OR", "WITH":
			continue
		default:
			trimmed := strings.TrimSpace(f)
			if trimmed != "" {
				requirements = append(requirements, trimmed)
			}
		}
	}
	return requirements
}

func isLicenseAllowed(licenseID string, allowed []string) bool {
	licenseLower := strings.ToLower(licenseID)
	for _, a := range allowed {
		allowedLower := strings.ToLower(a)
		if strings.Contains(licenseLower, allowedLower) || strings.Contains(allowedLower, licenseLower) {
			return true
		}
	}
	return false
}

// substringFallback is used when the expression could not be split
// into any requirement tokens at all (e.g. an empty string) — a plain
// case-insensitive substring match against the allowed set, matching
// the original's parse-failure fallback behavior.
func substringFallback(license string, allowed []string) bool {
	licenseLower := strings.ToLower(license)
	for _, a := range allowed {
		if strings.Contains(licenseLower, strings.ToLower(a)) {
			return true
		}
	}
	return false
}
