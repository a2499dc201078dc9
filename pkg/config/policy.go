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

// Package config holds the on-disk TOML configuration, the policy types
// a policy table can configure, and the CEL-based eval/high_risk
// expression evaluator.
package config

import (
	"fmt"

	"github.com/kraklabs/depaprz/pkg/metrics"
	"github.com/kraklabs/depaprz/pkg/specs"
)

// Policy is the common interface every policy type satisfies: which
// dependency kinds it applies to, and how many points it awards on a
// match. The metric calculator (pkg/ranking) type-switches on the
// concrete policy type to get at the threshold fields a generic
// Policy cannot expose.
type Policy interface {
	Scope() specs.DependencyTypes
	Points() float64
}

// validateDominance runs the pairwise dominance check shared by every
// policy type: for each pair of policies that apply to at least one
// common dependency type, if the earlier one (lower index, since the
// calculator stops at the first match) would match in every case the
// later one would, the later policy can never be reached.
func validateDominance[T any](metric metrics.Metric, policies []T, scope func(T) specs.DependencyTypes, dominates func(a, b T) bool) []string {
	var warnings []string
	for i := range policies {
		for j := i + 1; j < len(policies); j++ {
			a, b := policies[i], policies[j]
			if !scope(a).Intersects(scope(b)) {
				continue
			}
			if dominates(a, b) {
				warnings = append(warnings, fmt.Sprintf(
					"%s: policy #%d dominates policy #%d for an overlapping dependency type and can never be reached",
					metric, i, j))
			}
		}
	}
	return warnings
}
