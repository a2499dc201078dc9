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

// Package specs holds the identity types that flow through the whole
// appraisal pipeline: which dependency is being looked at, which
// repository hosts its source, and which part of the dependency graph
// it was pulled in by.
package specs

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// RepoSpec identifies the source repository backing a dependency, when
// one is known. Host is a short identifier such as "github" or "gitlab";
// Owner and Name are the path segments under that host.
type RepoSpec struct {
	Host  string
	Owner string
	Name  string
	URL   string
}

// Key returns a stable string usable as a map key for grouping specs by
// repository.
func (r RepoSpec) Key() string {
	return r.Host + "/" + r.Owner + "/" + r.Name
}

func (r RepoSpec) String() string {
	if r.URL != "" {
		return r.URL
	}
	return r.Key()
}

// CrateSpec names one dependency at one resolved version, plus its
// hosting repository when it could be determined from registry metadata.
type CrateSpec struct {
	Name    string
	Version *semver.Version
	Repo    *RepoSpec
}

// NewCrateSpec parses a name and version string into a CrateSpec. The
// version must be a valid semantic version; an invalid version is
// rejected here rather than deferred to a provider, since every
// downstream policy assumes Version is always usable.
func NewCrateSpec(name, version string) (CrateSpec, error) {
	if strings.TrimSpace(name) == "" {
		return CrateSpec{}, fmt.Errorf("crate name must not be empty")
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return CrateSpec{}, fmt.Errorf("parse version %q for %q: %w", version, name, err)
	}
	return CrateSpec{Name: name, Version: v}, nil
}

// Key returns a stable string usable as a map key, combining name and
// version so that two different versions of the same dependency never
// collide in a facts map.
func (c CrateSpec) Key() string {
	if c.Version == nil {
		return c.Name
	}
	return c.Name + "@" + c.Version.Original()
}

func (c CrateSpec) String() string {
	if c.Version == nil {
		return c.Name
	}
	return fmt.Sprintf("%s %s", c.Name, c.Version.Original())
}

// ByRepo groups specs by their repository, dropping any spec whose Repo
// is nil. Hosting lookups are per-repository, not per-dependency, so the
// hosting provider calls this once up front and issues one request per
// group instead of one per CrateSpec.
func ByRepo(specs []CrateSpec) map[string][]CrateSpec {
	groups := make(map[string][]CrateSpec)
	for _, s := range specs {
		if s.Repo == nil {
			continue
		}
		key := s.Repo.Key()
		groups[key] = append(groups[key], s)
	}
	return groups
}

// DependencyType classifies how a dependency was pulled into the graph.
type DependencyType int

const (
	// Standard is an ordinary runtime dependency.
	Standard DependencyType = iota
	// Dev is a development/test-only dependency.
	Dev
	// Build is a build-time-only dependency (build scripts, codegen).
	Build
)

func (d DependencyType) String() string {
	switch d {
	case Standard:
		return "standard"
	case Dev:
		return "dev"
	case Build:
		return "build"
	default:
		return "unknown"
	}
}

// ParseDependencyType parses one of "standard", "dev", "build" (case
// insensitive). Unknown values are rejected rather than silently mapped
// to Standard, since a typo in a policy table should surface as a
// config error, not a silently-wrong policy scope.
func ParseDependencyType(s string) (DependencyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard":
		return Standard, nil
	case "dev":
		return Dev, nil
	case "build":
		return Build, nil
	default:
		return Standard, fmt.Errorf("unknown dependency type %q", s)
	}
}

// DependencyTypes is a small set of DependencyType, used by policies to
// scope which kinds of dependency they apply to. The zero value is an
// empty set; DefaultDependencyTypes gives the spec-mandated default of
// {Standard} when a policy omits the field entirely.
type DependencyTypes struct {
	values map[DependencyType]struct{}
}

// DefaultDependencyTypes returns the {Standard} set used when a policy's
// dependency_types field is left unset.
func DefaultDependencyTypes() DependencyTypes {
	return NewDependencyTypes(Standard)
}

// NewDependencyTypes builds a set from the given values.
func NewDependencyTypes(values ...DependencyType) DependencyTypes {
	set := DependencyTypes{values: make(map[DependencyType]struct{}, len(values))}
	for _, v := range values {
		set.values[v] = struct{}{}
	}
	return set
}

// Contains reports whether d is a member of the set.
func (s DependencyTypes) Contains(d DependencyType) bool {
	if s.values == nil {
		return false
	}
	_, ok := s.values[d]
	return ok
}

// IsEmpty reports whether the set has no members.
func (s DependencyTypes) IsEmpty() bool {
	return len(s.values) == 0
}

// Intersects reports whether the two sets share at least one member.
func (s DependencyTypes) Intersects(other DependencyTypes) bool {
	for v := range s.values {
		if other.Contains(v) {
			return true
		}
	}
	return false
}

// MarshalText encodes the set as a comma-joined list in Standard, Dev,
// Build order, such as "standard,dev".
func (s DependencyTypes) MarshalText() ([]byte, error) {
	order := []DependencyType{Standard, Dev, Build}
	var parts []string
	for _, v := range order {
		if s.Contains(v) {
			parts = append(parts, v.String())
		}
	}
	return []byte(strings.Join(parts, ",")), nil
}

// UnmarshalText parses a comma-separated list of dependency type names.
// An empty string decodes to the empty set, not the default set — callers
// that want the spec default must apply DefaultDependencyTypes()
// themselves when the field was altogether absent.
func (s *DependencyTypes) UnmarshalText(text []byte) error {
	str := strings.TrimSpace(string(text))
	if str == "" {
		s.values = nil
		return nil
	}
	values := make(map[DependencyType]struct{})
	for _, part := range strings.Split(str, ",") {
		dt, err := ParseDependencyType(part)
		if err != nil {
			return err
		}
		values[dt] = struct{}{}
	}
	s.values = values
	return nil
}

// UnmarshalTOML accepts dependency_types written either as a TOML array
// of names, such as ["standard", "dev"], or as one comma-separated string.
func (s *DependencyTypes) UnmarshalTOML(data any) error {
	items, ok := data.([]any)
	if !ok {
		str, isString := data.(string)
		if !isString {
			return fmt.Errorf("dependency_types must be an array or a string, got %T", data)
		}
		return s.UnmarshalText([]byte(str))
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprint(item)
	}
	return s.UnmarshalText([]byte(strings.Join(parts, ",")))
}
