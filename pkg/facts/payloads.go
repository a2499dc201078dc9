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

package facts

import (
	"time"

	"github.com/Masterminds/semver/v3"
)

// RegistryOwner is one login with write access to a crate, either an
// individual user or a team, feeding owner-identity policies that need
// to know who the owners are rather than just how many there are.
type RegistryOwner struct {
	Login  string
	IsTeam bool
}

// MonthlyDownloads is one (month, count) bucket in a crate's download
// history, the series download-trend analysis is run against.
type MonthlyDownloads struct {
	Month     time.Time
	Downloads uint64
}

// RegistryOverall holds facts about a crate that do not vary by version:
// download totals and trend, owner/team composition, category and
// keyword tags, repository linkage, and publication timestamps.
type RegistryOverall struct {
	TotalDownloads    uint64
	OneMonthDownloads uint64
	MonthlyDownloads  []MonthlyDownloads
	OwnerCount        int
	TeamOwnerCount    int
	Owners            []RegistryOwner
	DependentCount    int
	Categories        []string
	Keywords          []string
	VersionCount      int
	FirstPublishedAt  time.Time
	UpdatedAt         time.Time
	RepositoryURL     string
}

// RegistryVersion holds facts scoped to one specific version of a
// crate: its license expression, publish time, download count, yank
// time, and its count of direct normal (non-dev, non-build) dependencies.
type RegistryVersion struct {
	Version            *semver.Version
	License            string
	PublishedAt        time.Time
	Downloads          uint64
	DirectDependencies int
	YankedAt           *time.Time
}

// AdvisoryData tallies RustSec-style security advisories affecting a
// crate, split into historical (ever affected this crate, any version)
// and version-specific (affect the exact resolved version) counts,
// further split by informational category.
type AdvisoryData struct {
	HistoricalVulnerabilityCount int
	HistoricalUnsoundnessCount   int
	HistoricalUnmaintainedCount  int
	HistoricalNoticeCount        int
	HistoricalOtherCount         int

	VersionVulnerabilityCount int
	VersionUnsoundnessCount   int
	VersionUnmaintainedCount  int
	VersionNoticeCount        int
	VersionOtherCount         int

	HistoricalCriticalCount int
	HistoricalHighCount     int
	HistoricalMediumCount   int
	HistoricalLowCount      int

	VersionCriticalCount int
	VersionHighCount     int
	VersionMediumCount   int
	VersionLowCount      int

	HistoricalWithdrawnCount int
	VersionWithdrawnCount    int
	UnpatchedCount           int
}

// CloseTimeStats holds the average and percentile close-time (in hours)
// observed over a set of closed issues or pull requests, feeding
// config.ResponsivenessPolicy's independent per-percentile thresholds.
// A single median cannot drive that policy: a repo with a healthy
// typical close time but a long tail of abandoned issues must still be
// able to fail on P95 even though P50 looks fine.
type CloseTimeStats struct {
	AvgHours float64
	P50Hours float64
	P75Hours float64
	P90Hours float64
	P95Hours float64
}

// HostingData holds facts pulled from the crate's source-hosting
// platform: contributor/commit activity and issue/PR responsiveness.
type HostingData struct {
	ContributorCount       int
	CommitCountLast90Days  int
	LastCommitAt           time.Time
	OpenIssueCount         int
	ClosedIssueCount       int
	OpenPullRequestCount   int
	ClosedPullRequestCount int
	IssueCloseTime         CloseTimeStats
	PullRequestCloseTime   CloseTimeStats
	StarCount              int
	ForkCount              int
	SubscriberCount        int
	Archived               bool
}

// CoverageData holds test-coverage facts from a coverage-reporting
// service.
type CoverageData struct {
	CoveragePercentage float64
}

// DocsMetrics is the payload carried by a DocsData built with FoundDocs.
type DocsMetrics struct {
	DocCoveragePercentage float64
	BrokenDocLinkCount    int
	BuildSucceeded        bool
}

// DocsFormatVersion discriminates whether a docs-service response was
// understood or arrived in a newer schema this build does not know how
// to parse.
type DocsFormatVersion int

const (
	docsFound DocsFormatVersion = iota
	docsUnknownFormatVersion
)

// DocsData is the docs-service payload. Unlike ProviderResult's
// CrateNotFound/VersionNotFound/Error split (which covers "the request
// itself failed"), UnknownFormatVersion covers "the request succeeded,
// but the response schema version is newer than this build understands"
// — a distinct failure mode scoped inside a Found ProviderResult rather
// than surfaced as a ProviderResult variant of its own.
type DocsData struct {
	format  DocsFormatVersion
	metrics DocsMetrics
	version uint64
}

// FoundDocs wraps a successfully parsed docs payload.
func FoundDocs(m DocsMetrics) DocsData {
	return DocsData{format: docsFound, metrics: m}
}

// UnknownDocsFormat records that the docs service responded with a
// schema version newer than this build understands.
func UnknownDocsFormat(version uint64) DocsData {
	return DocsData{format: docsUnknownFormatVersion, version: version}
}

// Metrics returns the parsed metrics and true, or the zero value and
// false when the format version was not understood.
func (d DocsData) Metrics() (DocsMetrics, bool) {
	return d.metrics, d.format == docsFound
}

// UnknownFormatVersion returns the unrecognized schema version number
// and true, or 0 and false when the payload parsed successfully.
func (d DocsData) UnknownFormatVersion() (uint64, bool) {
	return d.version, d.format == docsUnknownFormatVersion
}

// CodebaseData holds facts produced by walking a local checkout of the
// dependency's source with the tree-sitter-based inspector: counts that
// no registry or hosting API exposes directly.
type CodebaseData struct {
	UnsafeBlockCount          int
	ExampleFunctionCount      int
	TransitiveDependencyCount int
	LinesOfCode               int
}

// CrateFacts aggregates every provider's result for one CrateSpec,
// collected at one point in time.
type CrateFacts struct {
	Spec        string // CrateSpec.Key(), kept as a plain string so CrateFacts has no import cycle back to specs
	Registry    ProviderResult[RegistryOverall]
	Version     ProviderResult[RegistryVersion]
	Advisories  ProviderResult[AdvisoryData]
	Hosting     ProviderResult[HostingData]
	Coverage    ProviderResult[CoverageData]
	Docs        ProviderResult[DocsData]
	Codebase    ProviderResult[CodebaseData]
	CollectedAt time.Time
}

// IsComplete reports whether every provider returned a Found result.
// A single CrateNotFound, VersionNotFound, or Error in any field makes
// the whole CrateFacts incomplete — the metric calculator then skips
// any metric whose required fact is not Found rather than guessing.
func (c CrateFacts) IsComplete() bool {
	return c.Registry.IsFound() &&
		c.Version.IsFound() &&
		c.Advisories.IsFound() &&
		c.Hosting.IsFound() &&
		c.Coverage.IsFound() &&
		c.Docs.IsFound() &&
		c.Codebase.IsFound()
}
