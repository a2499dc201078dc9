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
	"github.com/Masterminds/semver/v3"

	"github.com/kraklabs/depaprz/pkg/config"
)

// Verdict is one dependency's appraisal plus whether it was exempted
// by the allow-list.
type Verdict struct {
	Name      string
	Version   *semver.Version
	Appraisal Appraisal
	Allowed   bool
}

// Flags controls how far up the risk ladder a gate failure triggers.
type Flags struct {
	ErrorIfMedium bool
	ErrorIfHigh   bool
}

// riskFloor returns the lowest Risk level that counts as a gate
// failure under these flags: ErrorIfMedium floors at Medium,
// ErrorIfHigh floors at High, neither means nothing ever fails (every
// dependency passes regardless of risk).
func (f Flags) riskFloor() (Risk, bool) {
	switch {
	case f.ErrorIfMedium:
		return Medium, true
	case f.ErrorIfHigh:
		return High, true
	default:
		return 0, false
	}
}

// DecisionInput is one dependency's name, resolved version, and
// appraisal — the unit Decide consumes.
type DecisionInput struct {
	Name      string
	Version   *semver.Version
	Appraisal Appraisal
}

// Decide builds one Verdict per dependency, checking the allow-list
// before classifying against the risk floor, and returns the process
// exit code: 0 unless some unallowed dependency is at or above the
// configured floor.
func Decide(cfg *config.Config, inputs []DecisionInput, flags Flags) (verdicts []Verdict, exitCode int) {
	floor, hasFloor := flags.riskFloor()

	for _, in := range inputs {
		allowed := cfg.IsAllowed(in.Name, in.Version)
		v := Verdict{Name: in.Name, Version: in.Version, Appraisal: in.Appraisal, Allowed: allowed}
		verdicts = append(verdicts, v)

		if allowed || !hasFloor {
			continue
		}
		if in.Appraisal.Risk >= floor {
			exitCode = 1
		}
	}

	return verdicts, exitCode
}
