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
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"

	"github.com/kraklabs/depaprz/pkg/metrics"
	"github.com/kraklabs/depaprz/pkg/specs"
)

//go:embed default_config.toml
var defaultConfigTOML string

// DefaultConfigTOML returns the embedded default_config.toml document, a
// starting point for a user's own aprz.toml. Load does not parse it;
// the in-code equivalent is Default().
func DefaultConfigTOML() string { return defaultConfigTOML }

// Duration wraps time.Duration so BurntSushi/toml can decode values
// like "7d" or "24h" from a TOML string — time.ParseDuration alone does
// not understand a trailing "d" (days) or "w" (weeks) unit, which the
// cache TTL fields use for readability.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string, special-casing a trailing
// "d" or "w" unit before delegating to time.ParseDuration for
// everything else.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		return fmt.Errorf("duration must not be empty")
	}
	if unit := s[len(s)-1]; unit == 'd' || unit == 'w' {
		numPart := s[:len(s)-1]
		n, err := strconv.ParseFloat(numPart, 64)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		days := n
		if unit == 'w' {
			days *= 7
		}
		d.Duration = time.Duration(days * 24 * float64(time.Hour))
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText renders the duration with time.Duration.String, such as
// "168h0m0s" for seven days.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// AllowListEntry exempts a specific crate name + semver version range
// from triggering an error exit code under --error-if-medium-risk or
// --error-if-high-risk.
type AllowListEntry struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Matches reports whether this entry allows the given name/version.
func (e AllowListEntry) Matches(name string, version *semver.Version) bool {
	if e.Name != name || version == nil {
		return false
	}
	constraint, err := semver.NewConstraint(e.Version)
	if err != nil {
		return false
	}
	return constraint.Check(version)
}

// Config is the top-level appraisal configuration, loaded from a single
// TOML document.
type Config struct {
	AllowList []AllowListEntry  `toml:"allow_list"`
	HighRisk  []NamedExpression `toml:"high_risk"`
	Eval      []NamedExpression `toml:"eval"`

	MediumRiskThreshold float64 `toml:"medium_risk_threshold"`
	LowRiskThreshold    float64 `toml:"low_risk_threshold"`

	CratesCacheTTL     Duration `toml:"crates_cache_ttl"`
	HostingCacheTTL    Duration `toml:"hosting_cache_ttl"`
	CodebaseCacheTTL   Duration `toml:"codebase_cache_ttl"`
	CoverageCacheTTL   Duration `toml:"coverage_cache_ttl"`
	AdvisoriesCacheTTL Duration `toml:"advisories_cache_ttl"`
	DocsCacheTTL       Duration `toml:"docs_cache_ttl"`

	// ErrorIfMediumRisk and ErrorIfHighRisk are not part of the TOML
	// schema (they are set from the --error-if-* flags in
	// cmd/depaprz/main.go before cfg reaches driver.Run) but
	// live on Config rather than a separate parameter so driver.Run's
	// signature stays fixed regardless of how many gate flags exist.
	ErrorIfMediumRisk bool `toml:"-"`
	ErrorIfHighRisk   bool `toml:"-"`

	MetricScaling map[string]float64 `toml:"metric_scaling"`

	License                     []LicensePolicy         `toml:"license"`
	Age                         []AgePolicy             `toml:"age"`
	MinVersion                  []VersionPolicy         `toml:"min_version"`
	ReleaseCount                []MinCountPolicy        `toml:"release_count"`
	OverallDownloadCount        []MinCountPolicy        `toml:"overall_download_count"`
	OneMonthDownloadCount       []MinCountPolicy        `toml:"one_month_download_count"`
	OverallOwnerCount           []MinCountPolicy        `toml:"overall_owner_count"`
	UserOwnerCount              []MinCountPolicy        `toml:"user_owner_count"`
	TeamOwnerCount              []MinCountPolicy        `toml:"team_owner_count"`
	DependentCount              []MinCountPolicy        `toml:"dependent_count"`
	DirectDependencyCount       []MaxCountPolicy        `toml:"direct_dependency_count"`
	TransitiveDependencyCount   []MaxCountPolicy        `toml:"transitive_dependency_count"`
	DocCoveragePercentage       []PercentagePolicy      `toml:"doc_coverage_percentage"`
	BrokenDocLinkCount          []MaxCountPolicy        `toml:"broken_doc_link_count"`
	CodeCoveragePercentage      []PercentagePolicy      `toml:"code_coverage_percentage"`
	FullySafeCode               []BooleanPolicy         `toml:"fully_safe_code"`
	ExampleCount                []MinCountPolicy        `toml:"example_count"`
	RepoStarCount               []MinCountPolicy        `toml:"repo_star_count"`
	RepoForkCount               []MinCountPolicy        `toml:"repo_fork_count"`
	RepoSubscriberCount         []MinCountPolicy        `toml:"repo_subscriber_count"`
	RepoContributorCount        []MinCountPolicy        `toml:"repo_contributor_count"`
	CommitActivity              []AgedCountPolicy       `toml:"commit_activity"`
	OpenIssueCount              []MaxCountPolicy        `toml:"open_issue_count"`
	ClosedIssueCount            []MinCountPolicy        `toml:"closed_issue_count"`
	IssueResponsiveness         []ResponsivenessPolicy  `toml:"issue_responsiveness"`
	OpenPullRequestCount        []MaxCountPolicy        `toml:"open_pull_request_count"`
	ClosedPullRequestCount      []MinCountPolicy        `toml:"closed_pull_request_count"`
	PullRequestResponsiveness   []ResponsivenessPolicy  `toml:"pull_request_responsiveness"`

	VulnerabilityCount         []MaxCountPolicy `toml:"vulnerability_count"`
	LowVulnerabilityCount      []MaxCountPolicy `toml:"low_vulnerability_count"`
	MediumVulnerabilityCount   []MaxCountPolicy `toml:"medium_vulnerability_count"`
	HighVulnerabilityCount     []MaxCountPolicy `toml:"high_vulnerability_count"`
	CriticalVulnerabilityCount []MaxCountPolicy `toml:"critical_vulnerability_count"`
	WarningCount               []MaxCountPolicy `toml:"warning_count"`
	NoticeWarningCount         []MaxCountPolicy `toml:"notice_warning_count"`
	UnmaintainedWarningCount   []MaxCountPolicy `toml:"unmaintained_warning_count"`
	UnsoundWarningCount        []MaxCountPolicy `toml:"unsound_warning_count"`
	YankedWarningCount         []MaxCountPolicy `toml:"yanked_warning_count"`

	HistoricalVulnerabilityCount         []MaxCountPolicy `toml:"historical_vulnerability_count"`
	HistoricalLowVulnerabilityCount      []MaxCountPolicy `toml:"historical_low_vulnerability_count"`
	HistoricalMediumVulnerabilityCount   []MaxCountPolicy `toml:"historical_medium_vulnerability_count"`
	HistoricalHighVulnerabilityCount     []MaxCountPolicy `toml:"historical_high_vulnerability_count"`
	HistoricalCriticalVulnerabilityCount []MaxCountPolicy `toml:"historical_critical_vulnerability_count"`
	HistoricalWarningCount               []MaxCountPolicy `toml:"historical_warning_count"`
	HistoricalNoticeWarningCount         []MaxCountPolicy `toml:"historical_notice_warning_count"`
	HistoricalUnmaintainedWarningCount   []MaxCountPolicy `toml:"historical_unmaintained_warning_count"`
	HistoricalUnsoundWarningCount        []MaxCountPolicy `toml:"historical_unsound_warning_count"`
	HistoricalYankedWarningCount         []MaxCountPolicy `toml:"historical_yanked_warning_count"`
}

// Default returns the built-in configuration: empty allow list and
// expression lists, spec-mandated default thresholds, 7-day cache TTLs
// everywhere, and no policies configured for any metric (every metric
// reports "no policy defined" until a policy table is added).
func Default() *Config {
	week := Duration{7 * 24 * time.Hour}
	return &Config{
		MediumRiskThreshold: 30.0,
		LowRiskThreshold:    70.0,
		CratesCacheTTL:      week,
		HostingCacheTTL:     week,
		CodebaseCacheTTL:    week,
		CoverageCacheTTL:    week,
		AdvisoriesCacheTTL:  week,
		DocsCacheTTL:        week,
	}
}

// Load reads and parses the configuration at path. An empty path means
// "no explicit path was given" and returns Default() without reading any
// file (no aprz.toml is looked up); an explicitly named path that does
// not exist is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file %q does not exist", path)
		}
		return nil, fmt.Errorf("read configuration file %q: %w", path, err)
	}

	cfg := Default()
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse configuration file %q: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("configuration file %q has unknown field %q", path, undecoded[0].String())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsAllowed reports whether name/version is exempted by the allow list.
func (c *Config) IsAllowed(name string, version *semver.Version) bool {
	for _, entry := range c.AllowList {
		if entry.Matches(name, version) {
			return true
		}
	}
	return false
}

// MetricScale returns the configured scale factor for metric, or 1.0
// (no scaling) when the metric has no entry in metric_scaling.
func (c *Config) MetricScale(metric metrics.Metric) float64 {
	if c.MetricScaling == nil {
		return 1.0
	}
	if scale, ok := c.MetricScaling[metric.String()]; ok {
		return scale
	}
	return 1.0
}

// Validate checks threshold fields are in range and consistent. It
// does not check policy-level dominance warnings — those are
// non-fatal and surfaced separately by LintWarnings.
func (c *Config) Validate() error {
	if c.MediumRiskThreshold < 0 || c.MediumRiskThreshold > 100 {
		return fmt.Errorf("medium_risk_threshold must be between 0 and 100, got %v", c.MediumRiskThreshold)
	}
	if c.LowRiskThreshold < 0 || c.LowRiskThreshold > 100 {
		return fmt.Errorf("low_risk_threshold must be between 0 and 100, got %v", c.LowRiskThreshold)
	}
	if c.MediumRiskThreshold >= c.LowRiskThreshold {
		return fmt.Errorf("medium_risk_threshold (%v) must be less than low_risk_threshold (%v)",
			c.MediumRiskThreshold, c.LowRiskThreshold)
	}
	for _, entry := range c.AllowList {
		if _, err := semver.NewConstraint(entry.Version); err != nil {
			return fmt.Errorf("allow_list entry %q has an invalid version requirement %q: %w", entry.Name, entry.Version, err)
		}
	}
	for i := range c.HighRisk {
		if err := c.HighRisk[i].Compile(); err != nil {
			return err
		}
	}
	for i := range c.Eval {
		if err := c.Eval[i].Compile(); err != nil {
			return err
		}
	}
	return nil
}

// LintWarnings runs every policy type's pairwise dominance check and
// returns the combined, non-fatal warning list. The normal appraisal
// path does not call it.
func (c *Config) LintWarnings() []string {
	var warnings []string
	warnings = append(warnings, validateLicense(metrics.License, c.License)...)
	warnings = append(warnings, validateAge(metrics.Age, c.Age)...)
	warnings = append(warnings, validateVersion(metrics.MinVersion, c.MinVersion)...)
	warnings = append(warnings, validateMinCount(metrics.ReleaseCount, c.ReleaseCount)...)
	warnings = append(warnings, validateMinCount(metrics.OverallDownloadCount, c.OverallDownloadCount)...)
	warnings = append(warnings, validateMinCount(metrics.OneMonthDownloadCount, c.OneMonthDownloadCount)...)
	warnings = append(warnings, validateMinCount(metrics.OverallOwnerCount, c.OverallOwnerCount)...)
	warnings = append(warnings, validateMinCount(metrics.UserOwnerCount, c.UserOwnerCount)...)
	warnings = append(warnings, validateMinCount(metrics.TeamOwnerCount, c.TeamOwnerCount)...)
	warnings = append(warnings, validateMinCount(metrics.DependentCount, c.DependentCount)...)
	warnings = append(warnings, validateMaxCount(metrics.DirectDependencyCount, c.DirectDependencyCount)...)
	warnings = append(warnings, validateMaxCount(metrics.TransitiveDependencyCount, c.TransitiveDependencyCount)...)
	warnings = append(warnings, validatePercentage(metrics.DocCoveragePercentage, c.DocCoveragePercentage)...)
	warnings = append(warnings, validateMaxCount(metrics.BrokenDocLinkCount, c.BrokenDocLinkCount)...)
	warnings = append(warnings, validatePercentage(metrics.CodeCoveragePercentage, c.CodeCoveragePercentage)...)
	warnings = append(warnings, validateBoolean(metrics.FullySafeCode, c.FullySafeCode)...)
	warnings = append(warnings, validateMinCount(metrics.ExampleCount, c.ExampleCount)...)
	warnings = append(warnings, validateMinCount(metrics.RepoStarCount, c.RepoStarCount)...)
	warnings = append(warnings, validateMinCount(metrics.RepoForkCount, c.RepoForkCount)...)
	warnings = append(warnings, validateMinCount(metrics.RepoSubscriberCount, c.RepoSubscriberCount)...)
	warnings = append(warnings, validateMinCount(metrics.RepoContributorCount, c.RepoContributorCount)...)
	warnings = append(warnings, validateAgedCount(metrics.CommitActivity, c.CommitActivity)...)
	warnings = append(warnings, validateMaxCount(metrics.OpenIssueCount, c.OpenIssueCount)...)
	warnings = append(warnings, validateMinCount(metrics.ClosedIssueCount, c.ClosedIssueCount)...)
	warnings = append(warnings, validateResponsiveness(metrics.IssueResponsiveness, c.IssueResponsiveness)...)
	warnings = append(warnings, validateMaxCount(metrics.OpenPullRequestCount, c.OpenPullRequestCount)...)
	warnings = append(warnings, validateMinCount(metrics.ClosedPullRequestCount, c.ClosedPullRequestCount)...)
	warnings = append(warnings, validateResponsiveness(metrics.PullRequestResponsiveness, c.PullRequestResponsiveness)...)

	warnings = append(warnings, validateMaxCount(metrics.VulnerabilityCount, c.VulnerabilityCount)...)
	warnings = append(warnings, validateMaxCount(metrics.LowVulnerabilityCount, c.LowVulnerabilityCount)...)
	warnings = append(warnings, validateMaxCount(metrics.MediumVulnerabilityCount, c.MediumVulnerabilityCount)...)
	warnings = append(warnings, validateMaxCount(metrics.HighVulnerabilityCount, c.HighVulnerabilityCount)...)
	warnings = append(warnings, validateMaxCount(metrics.CriticalVulnerabilityCount, c.CriticalVulnerabilityCount)...)
	warnings = append(warnings, validateMaxCount(metrics.WarningCount, c.WarningCount)...)
	warnings = append(warnings, validateMaxCount(metrics.NoticeWarningCount, c.NoticeWarningCount)...)
	warnings = append(warnings, validateMaxCount(metrics.UnmaintainedWarningCount, c.UnmaintainedWarningCount)...)
	warnings = append(warnings, validateMaxCount(metrics.UnsoundWarningCount, c.UnsoundWarningCount)...)
	warnings = append(warnings, validateMaxCount(metrics.YankedWarningCount, c.YankedWarningCount)...)

	warnings = append(warnings, validateMaxCount(metrics.HistoricalVulnerabilityCount, c.HistoricalVulnerabilityCount)...)
	warnings = append(warnings, validateMaxCount(metrics.HistoricalLowVulnerabilityCount, c.HistoricalLowVulnerabilityCount)...)
	warnings = append(warnings, validateMaxCount(metrics.HistoricalMediumVulnerabilityCount, c.HistoricalMediumVulnerabilityCount)...)
	warnings = append(warnings, validateMaxCount(metrics.HistoricalHighVulnerabilityCount, c.HistoricalHighVulnerabilityCount)...)
	warnings = append(warnings, validateMaxCount(metrics.HistoricalCriticalVulnerabilityCount, c.HistoricalCriticalVulnerabilityCount)...)
	warnings = append(warnings, validateMaxCount(metrics.HistoricalWarningCount, c.HistoricalWarningCount)...)
	warnings = append(warnings, validateMaxCount(metrics.HistoricalNoticeWarningCount, c.HistoricalNoticeWarningCount)...)
	warnings = append(warnings, validateMaxCount(metrics.HistoricalUnmaintainedWarningCount, c.HistoricalUnmaintainedWarningCount)...)
	warnings = append(warnings, validateMaxCount(metrics.HistoricalUnsoundWarningCount, c.HistoricalUnsoundWarningCount)...)
	warnings = append(warnings, validateMaxCount(metrics.HistoricalYankedWarningCount, c.HistoricalYankedWarningCount)...)

	return warnings
}
