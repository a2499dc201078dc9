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
	"fmt"

	"github.com/google/cel-go/cel"
)

// NamedExpression is a boolean policy expression with a human-readable
// name and description, as written under a config's [[eval]] or
// [[high_risk]] tables.
type NamedExpression struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Expression  string `toml:"expression"`

	program cel.Program
}

// exprEnv is the CEL environment every NamedExpression compiles
// against: the ranker's overall score, its per-category scores, and
// the dependency type being appraised.
func exprEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("overall_score", cel.DoubleType),
		cel.Variable("category_scores", cel.MapType(cel.StringType, cel.DoubleType)),
		cel.Variable("dependency_type", cel.StringType),
	)
}

// Compile parses and type-checks the expression, caching the resulting
// program. It must be called once (e.g. from Config.Validate or
// lazily before first use) before Evaluate.
func (e *NamedExpression) Compile() error {
	env, err := exprEnv()
	if err != nil {
		return fmt.Errorf("build expression environment: %w", err)
	}
	ast, issues := env.Compile(e.Expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("compile expression %q: %w", e.Name, issues.Err())
	}
	program, err := env.Program(ast)
	if err != nil {
		return fmt.Errorf("build program for expression %q: %w", e.Name, err)
	}
	e.program = program
	return nil
}

// ExpressionOutcome is the outcome of evaluating one NamedExpression.
type ExpressionOutcome struct {
	Name        string
	Description string
	Result      bool
}

// Evaluate runs the compiled expression against the given activation
// values, compiling it on first use if Compile was never called ahead
// of time.
func (e *NamedExpression) Evaluate(overallScore float64, categoryScores map[string]float64, dependencyType string) (ExpressionOutcome, error) {
	if e.program == nil {
		if err := e.Compile(); err != nil {
			return ExpressionOutcome{}, err
		}
	}
	out, _, err := e.program.Eval(map[string]any{
		"overall_score":   overallScore,
		"category_scores": categoryScores,
		"dependency_type": dependencyType,
	})
	if err != nil {
		return ExpressionOutcome{}, fmt.Errorf("evaluate expression %q: %w", e.Name, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return ExpressionOutcome{}, fmt.Errorf("expression %q did not evaluate to a boolean", e.Name)
	}
	return ExpressionOutcome{Name: e.Name, Description: e.Description, Result: result}, nil
}
