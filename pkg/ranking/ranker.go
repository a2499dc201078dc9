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

package ranking

import (
	"math"

	"github.com/kraklabs/depaprz/pkg/config"
	"github.com/kraklabs/depaprz/pkg/facts"
	"github.com/kraklabs/depaprz/pkg/metrics"
	"github.com/kraklabs/depaprz/pkg/specs"
)

// RankingOutcome is the verdict for one dependency: an overall score,
// a per-category breakdown, and the raw per-metric outcomes a caller
// can inspect for failure reasons.
type RankingOutcome struct {
	OverallScore   float64
	CategoryScores map[metrics.Category]float64
	Details        map[metrics.Metric]PolicyOutcome
	DependencyType specs.DependencyType
}

// Ranker scores a dependency's facts against a Config's policies.
type Ranker struct {
	config *config.Config
}

// NewRanker creates a Ranker bound to the given configuration.
func NewRanker(cfg *config.Config) *Ranker {
	return &Ranker{config: cfg}
}

// Rank evaluates every metric's configured policies against facts and
// aggregates the results into an overall and per-category score.
func (r *Ranker) Rank(f *facts.CrateFacts, dependencyType specs.DependencyType) RankingOutcome {
	details := Calculate(r.config, f, dependencyType)

	var totalPoints float64
	categoryPoints := make(map[metrics.Category]float64)
	categoryCounts := make(map[metrics.Category]int)

	for metric, outcome := range details {
		category := metric.Category()
		points := outcome.Points()
		totalPoints += points
		categoryPoints[category] += points
		categoryCounts[category]++
	}

	var score float64
	if len(details) > 0 {
		avg := totalPoints / float64(len(details))
		score = round2(avg)
	}

	categoryScores := make(map[metrics.Category]float64, len(categoryPoints))
	for category, points := range categoryPoints {
		if count := categoryCounts[category]; count > 0 {
			categoryScores[category] = round2(points / float64(count))
		}
	}

	return RankingOutcome{
		OverallScore:   score,
		CategoryScores: categoryScores,
		Details:        details,
		DependencyType: dependencyType,
	}
}

// ExtractReasons collects the NoMatch reasons out of a details map, in
// no particular order — callers that need a stable order sort the
// result themselves.
func ExtractReasons(details map[metrics.Metric]PolicyOutcome) []string {
	var reasons []string
	for _, outcome := range details {
		if !outcome.IsMatch() {
			reasons = append(reasons, outcome.Info())
		}
	}
	return reasons
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
