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

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/kraklabs/depaprz/pkg/metrics"
	"github.com/kraklabs/depaprz/pkg/specs"
)

// MinCountPolicy matches when an observed count is at least MinCount —
// "more is better" metrics like download counts or owner counts.
type MinCountPolicy struct {
	DependencyTypes specs.DependencyTypes `toml:"dependency_types"`
	MinCount        uint64                `toml:"min_count"`
	PolicyPoints    float64               `toml:"points"`
}

func (p MinCountPolicy) Scope() specs.DependencyTypes { return scopeOrDefault(p.DependencyTypes) }
func (p MinCountPolicy) Points() float64              { return p.PolicyPoints }
func (p MinCountPolicy) Matches(value uint64) bool    { return value >= p.MinCount }

// MaxCountPolicy matches when an observed count is at most MaxCount —
// "fewer is better" metrics like open issues or vulnerability counts.
type MaxCountPolicy struct {
	DependencyTypes specs.DependencyTypes `toml:"dependency_types"`
	MaxCount        uint64                `toml:"max_count"`
	PolicyPoints    float64               `toml:"points"`
}

func (p MaxCountPolicy) Scope() specs.DependencyTypes { return scopeOrDefault(p.DependencyTypes) }
func (p MaxCountPolicy) Points() float64              { return p.PolicyPoints }
func (p MaxCountPolicy) Matches(value uint64) bool    { return value <= p.MaxCount }

// AgedCountPolicy matches when at least MinCount events occurred within
// the last WindowDays days — used for commit activity, where both
// volume and recency matter.
type AgedCountPolicy struct {
	DependencyTypes specs.DependencyTypes `toml:"dependency_types"`
	MinCount        uint64                `toml:"min_count"`
	WindowDays      uint32                `toml:"window_days"`
	PolicyPoints    float64               `toml:"points"`
}

func (p AgedCountPolicy) Scope() specs.DependencyTypes { return scopeOrDefault(p.DependencyTypes) }
func (p AgedCountPolicy) Points() float64              { return p.PolicyPoints }
func (p AgedCountPolicy) Matches(countInWindow uint64) bool {
	return countInWindow >= p.MinCount
}

// AgePolicy matches when an age in days is at most MaxAgeDays — used
// for "last released/committed recently enough" metrics.
type AgePolicy struct {
	DependencyTypes specs.DependencyTypes `toml:"dependency_types"`
	MaxAgeDays       uint32               `toml:"max_age_days"`
	PolicyPoints     float64              `toml:"points"`
}

func (p AgePolicy) Scope() specs.DependencyTypes { return scopeOrDefault(p.DependencyTypes) }
func (p AgePolicy) Points() float64              { return p.PolicyPoints }
func (p AgePolicy) Matches(ageDays float64) bool { return ageDays <= float64(p.MaxAgeDays) }

// VersionPolicy matches when a resolved version is at least MinVersion.
type VersionPolicy struct {
	DependencyTypes specs.DependencyTypes `toml:"dependency_types"`
	MinVersion      string                `toml:"min_version"`
	PolicyPoints    float64               `toml:"points"`
}

func (p VersionPolicy) Scope() specs.DependencyTypes { return scopeOrDefault(p.DependencyTypes) }
func (p VersionPolicy) Points() float64              { return p.PolicyPoints }

// Matches reports whether version is at least MinVersion. An
// unparseable MinVersion never matches — a malformed threshold must
// surface as every lookup failing closed, not as a panic or a silent
// pass.
func (p VersionPolicy) Matches(version *semver.Version) bool {
	min, err := semver.NewVersion(p.MinVersion)
	if err != nil || version == nil {
		return false
	}
	return version.Compare(min) >= 0
}

// BooleanPolicy matches when an observed boolean fact equals Required.
type BooleanPolicy struct {
	DependencyTypes specs.DependencyTypes `toml:"dependency_types"`
	Required        bool                  `toml:"required"`
	PolicyPoints    float64               `toml:"points"`
}

func (p BooleanPolicy) Scope() specs.DependencyTypes { return scopeOrDefault(p.DependencyTypes) }
func (p BooleanPolicy) Points() float64              { return p.PolicyPoints }
func (p BooleanPolicy) Matches(value bool) bool      { return value == p.Required }

// PercentagePolicy matches when an observed percentage (0-100) is at
// least MinPercentage.
type PercentagePolicy struct {
	DependencyTypes specs.DependencyTypes `toml:"dependency_types"`
	MinPercentage   float64               `toml:"min_percentage"`
	PolicyPoints    float64               `toml:"points"`
}

func (p PercentagePolicy) Scope() specs.DependencyTypes { return scopeOrDefault(p.DependencyTypes) }
func (p PercentagePolicy) Points() float64              { return p.PolicyPoints }
func (p PercentagePolicy) Matches(value float64) bool   { return value >= p.MinPercentage }

// ResponsivenessPolicy matches when every configured age-percentile
// threshold is met by the observed stats — all five thresholds must
// hold simultaneously, unlike the single-field policies above.
type ResponsivenessPolicy struct {
	DependencyTypes specs.DependencyTypes `toml:"dependency_types"`
	MaxAverageDays  uint32                `toml:"max_average_days"`
	MaxP50Days      uint32                `toml:"max_p50_days"`
	MaxP75Days      uint32                `toml:"max_p75_days"`
	MaxP90Days      uint32                `toml:"max_p90_days"`
	MaxP95Days      uint32                `toml:"max_p95_days"`
	PolicyPoints    float64               `toml:"points"`
}

func (p ResponsivenessPolicy) Scope() specs.DependencyTypes { return scopeOrDefault(p.DependencyTypes) }
func (p ResponsivenessPolicy) Points() float64              { return p.PolicyPoints }

// AgeStats is the observed average and percentile ages (in days) that a
// ResponsivenessPolicy is checked against.
type AgeStats struct {
	Avg float64
	P50 float64
	P75 float64
	P90 float64
	P95 float64
}

// Matches reports whether every threshold in p holds for stats.
func (p ResponsivenessPolicy) Matches(stats AgeStats) bool {
	return stats.Avg <= float64(p.MaxAverageDays) &&
		stats.P50 <= float64(p.MaxP50Days) &&
		stats.P75 <= float64(p.MaxP75Days) &&
		stats.P90 <= float64(p.MaxP90Days) &&
		stats.P95 <= float64(p.MaxP95Days)
}

// LicensePolicy matches when a crate's SPDX license expression is
// allowed under Allowed (see CheckLicense in license.go for the exact
// matching semantics, including the substring-match fallback).
type LicensePolicy struct {
	DependencyTypes specs.DependencyTypes `toml:"dependency_types"`
	Allowed         []string              `toml:"allowed"`
	PolicyPoints    float64               `toml:"points"`
}

func (p LicensePolicy) Scope() specs.DependencyTypes { return scopeOrDefault(p.DependencyTypes) }
func (p LicensePolicy) Points() float64              { return p.PolicyPoints }
func (p LicensePolicy) Matches(license string) bool  { return CheckLicense(license, p.Allowed) }

// scopeOrDefault substitutes the spec-mandated {Standard} default when
// a policy's dependency_types field was left empty in the TOML table —
// the same default DependencyTypes.UnmarshalText cannot apply on its
// own, since an absent TOML key never calls UnmarshalText at all.
func scopeOrDefault(dt specs.DependencyTypes) specs.DependencyTypes {
	if dt.IsEmpty() {
		return specs.DefaultDependencyTypes()
	}
	return dt
}

// Validate helpers, one per policy type, run from Config.LintWarnings to
// surface configuration-lint warnings about unreachable policies.

func validateMinCount(metric metrics.Metric, policies []MinCountPolicy) []string {
	return validateDominance(metric, policies,
		func(p MinCountPolicy) specs.DependencyTypes { return p.Scope() },
		func(a, b MinCountPolicy) bool { return a.MinCount <= b.MinCount })
}

func validateMaxCount(metric metrics.Metric, policies []MaxCountPolicy) []string {
	return validateDominance(metric, policies,
		func(p MaxCountPolicy) specs.DependencyTypes { return p.Scope() },
		func(a, b MaxCountPolicy) bool { return a.MaxCount >= b.MaxCount })
}

func validateAgedCount(metric metrics.Metric, policies []AgedCountPolicy) []string {
	return validateDominance(metric, policies,
		func(p AgedCountPolicy) specs.DependencyTypes { return p.Scope() },
		func(a, b AgedCountPolicy) bool { return a.MinCount <= b.MinCount && a.WindowDays >= b.WindowDays })
}

func validateVersion(metric metrics.Metric, policies []VersionPolicy) []string {
	return validateDominance(metric, policies,
		func(p VersionPolicy) specs.DependencyTypes { return p.Scope() },
		func(a, b VersionPolicy) bool {
			av, aerr := semver.NewVersion(a.MinVersion)
			bv, berr := semver.NewVersion(b.MinVersion)
			if aerr != nil || berr != nil {
				return false
			}
			return av.Compare(bv) <= 0
		})
}

func validateAge(metric metrics.Metric, policies []AgePolicy) []string {
	return validateDominance(metric, policies,
		func(p AgePolicy) specs.DependencyTypes { return p.Scope() },
		func(a, b AgePolicy) bool { return a.MaxAgeDays >= b.MaxAgeDays })
}

func validatePercentage(metric metrics.Metric, policies []PercentagePolicy) []string {
	return validateDominance(metric, policies,
		func(p PercentagePolicy) specs.DependencyTypes { return p.Scope() },
		func(a, b PercentagePolicy) bool { return a.MinPercentage <= b.MinPercentage })
}

func validateResponsiveness(metric metrics.Metric, policies []ResponsivenessPolicy) []string {
	return validateDominance(metric, policies,
		func(p ResponsivenessPolicy) specs.DependencyTypes { return p.Scope() },
		func(a, b ResponsivenessPolicy) bool {
			return a.MaxAverageDays >= b.MaxAverageDays &&
				a.MaxP50Days >= b.MaxP50Days &&
				a.MaxP75Days >= b.MaxP75Days &&
				a.MaxP90Days >= b.MaxP90Days &&
				a.MaxP95Days >= b.MaxP95Days
		})
}

func validateBoolean(metric metrics.Metric, policies []BooleanPolicy) []string {
	return validateDominance(metric, policies,
		func(p BooleanPolicy) specs.DependencyTypes { return p.Scope() },
		func(a, b BooleanPolicy) bool { return a.Required == b.Required })
}

func validateLicense(metric metrics.Metric, policies []LicensePolicy) []string {
	return validateDominance(metric, policies,
		func(p LicensePolicy) specs.DependencyTypes { return p.Scope() },
		func(a, b LicensePolicy) bool { return licenseSetsOverlap(a.Allowed, b.Allowed) })
}

func licenseSetsOverlap(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[strings.ToLower(v)] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[strings.ToLower(v)]; ok {
			return true
		}
	}
	return false
}
