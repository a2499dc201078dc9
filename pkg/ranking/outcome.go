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

// Package ranking turns a CrateFacts + Config into a scored verdict: the
// metric calculator evaluates every applicable policy, and the Ranker
// aggregates the outcomes into an overall and per-category score.
package ranking

// PolicyOutcome is the result of evaluating one metric's configured
// policies against a dependency's facts: either the first matching
// policy's scaled points plus a human-readable description of why it
// matched, or a description of why nothing matched.
type PolicyOutcome struct {
	matched bool
	points  float64
	info    string
}

// Match builds an outcome for a policy that matched, carrying the
// (already-scaled) points it awards and a description of the match.
func Match(points float64, info string) PolicyOutcome {
	return PolicyOutcome{matched: true, points: points, info: info}
}

// NoMatch builds an outcome for a metric where no configured policy
// matched, carrying the reason.
func NoMatch(reason string) PolicyOutcome {
	return PolicyOutcome{matched: false, info: reason}
}

// IsMatch reports whether some policy matched.
func (o PolicyOutcome) IsMatch() bool { return o.matched }

// Points returns the awarded points, 0 when no policy matched.
func (o PolicyOutcome) Points() float64 { return o.points }

// Info returns the match description or the no-match reason.
func (o PolicyOutcome) Info() string { return o.info }
