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

// Package gate converts a dependency's ranking outcome, plus the
// configured allow-list and risk thresholds, into a final risk
// classification and a process exit disposition.
package gate

// Risk is a dependency's final classification after scoring and any
// high_risk expression overrides.
type Risk int

const (
	Low Risk = iota
	Medium
	High
)

func (r Risk) String() string {
	switch r {
	case Low:
		return "LOW RISK"
	case Medium:
		return "MEDIUM RISK"
	case High:
		return "HIGH RISK"
	default:
		return "UNKNOWN RISK"
	}
}

// Classify maps an overall score to a Risk using the configured
// thresholds: at or above lowRiskThreshold is Low, below
// mediumRiskThreshold is High, otherwise Medium.
func Classify(overallScore, mediumRiskThreshold, lowRiskThreshold float64) Risk {
	switch {
	case overallScore >= lowRiskThreshold:
		return Low
	case overallScore < mediumRiskThreshold:
		return High
	default:
		return Medium
	}
}
