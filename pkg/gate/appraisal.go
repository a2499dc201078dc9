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

package gate

import (
	"fmt"

	"github.com/kraklabs/depaprz/pkg/config"
	"github.com/kraklabs/depaprz/pkg/ranking"
)

// Appraisal is the final verdict for one dependency: its risk
// classification plus the outcome of every configured eval/high_risk
// expression.
type Appraisal struct {
	Risk               Risk
	ExpressionOutcomes []config.ExpressionOutcome
}

// Appraise classifies a ranking outcome against cfg's thresholds, then
// evaluates every high_risk and eval expression. A false high_risk
// expression forces the classification to High regardless of score;
// eval expressions never change the classification, they are reported
// alongside it as an additional acceptance gate for callers that want
// to fail on them independently.
func Appraise(cfg *config.Config, outcome ranking.RankingOutcome) (Appraisal, error) {
	risk := Classify(outcome.OverallScore, cfg.MediumRiskThreshold, cfg.LowRiskThreshold)

	categoryScores := make(map[string]float64, len(outcome.CategoryScores))
	for category, score := range outcome.CategoryScores {
		categoryScores[category.String()] = score
	}
	dependencyType := outcome.DependencyType.String()

	var results []config.ExpressionOutcome
	for i := range cfg.HighRisk {
		out, err := cfg.HighRisk[i].Evaluate(outcome.OverallScore, categoryScores, dependencyType)
		if err != nil {
			return Appraisal{}, fmt.Errorf("evaluate high_risk expression %q: %w", cfg.HighRisk[i].Name, err)
		}
		if !out.Result {
			risk = High
		}
		results = append(results, out)
	}
	for i := range cfg.Eval {
		out, err := cfg.Eval[i].Evaluate(outcome.OverallScore, categoryScores, dependencyType)
		if err != nil {
			return Appraisal{}, fmt.Errorf("evaluate eval expression %q: %w", cfg.Eval[i].Name, err)
		}
		results = append(results, out)
	}

	return Appraisal{Risk: risk, ExpressionOutcomes: results}, nil
}

// EvalFailures returns the names of every eval expression (not
// high_risk — those already fold into Risk) that evaluated to false.
func (a Appraisal) EvalFailures(cfg *config.Config) []string {
	evalNames := make(map[string]struct{}, len(cfg.Eval))
	for _, e := range cfg.Eval {
		evalNames[e.Name] = struct{}{}
	}
	var failures []string
	for _, out := range a.ExpressionOutcomes {
		if _, isEval := evalNames[out.Name]; isEval && !out.Result {
			failures = append(failures, out.Name)
		}
	}
	return failures
}
