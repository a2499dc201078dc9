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

// Package metrics enumerates every fact-derived metric the policy
// engine can score a dependency on, and groups them into the handful of
// categories the ranker averages over.
package metrics

// Metric identifies one scoreable fact about a dependency. The set is
// fixed: adding a metric means adding a case to the calculator, a
// category mapping below, and (usually) a new policy type, so new
// metrics are not meant to be discovered at runtime.
type Metric int

const (
	License Metric = iota
	Age
	MinVersion
	ReleaseCount

	OverallDownloadCount
	OneMonthDownloadCount

	OverallOwnerCount
	UserOwnerCount
	TeamOwnerCount

	DependentCount
	DirectDependencyCount
	TransitiveDependencyCount

	DocCoveragePercentage
	BrokenDocLinkCount
	CodeCoveragePercentage
	FullySafeCode
	ExampleCount

	RepoStarCount
	RepoForkCount
	RepoSubscriberCount
	RepoContributorCount
	CommitActivity

	OpenIssueCount
	ClosedIssueCount
	IssueResponsiveness

	OpenPullRequestCount
	ClosedPullRequestCount
	PullRequestResponsiveness

	VulnerabilityCount
	LowVulnerabilityCount
	MediumVulnerabilityCount
	HighVulnerabilityCount
	CriticalVulnerabilityCount
	WarningCount
	NoticeWarningCount
	UnmaintainedWarningCount
	UnsoundWarningCount
	YankedWarningCount

	HistoricalVulnerabilityCount
	HistoricalLowVulnerabilityCount
	HistoricalMediumVulnerabilityCount
	HistoricalHighVulnerabilityCount
	HistoricalCriticalVulnerabilityCount
	HistoricalWarningCount
	HistoricalNoticeWarningCount
	HistoricalUnmaintainedWarningCount
	HistoricalUnsoundWarningCount
	HistoricalYankedWarningCount

	metricCount // sentinel, not itself a metric
)

var metricNames = [...]string{
	"license", "age", "min_version", "release_count",
	"overall_download_count", "one_month_download_count",
	"overall_owner_count", "user_owner_count", "team_owner_count",
	"dependent_count", "direct_dependency_count", "transitive_dependency_count",
	"doc_coverage_percentage", "broken_doc_link_count", "code_coverage_percentage", "fully_safe_code", "example_count",
	"repo_star_count", "repo_fork_count", "repo_subscriber_count", "repo_contributor_count", "commit_activity",
	"open_issue_count", "closed_issue_count", "issue_responsiveness",
	"open_pull_request_count", "closed_pull_request_count", "pull_request_responsiveness",
	"vulnerability_count", "low_vulnerability_count", "medium_vulnerability_count", "high_vulnerability_count", "critical_vulnerability_count",
	"warning_count", "notice_warning_count", "unmaintained_warning_count", "unsound_warning_count", "yanked_warning_count",
	"historical_vulnerability_count", "historical_low_vulnerability_count", "historical_medium_vulnerability_count",
	"historical_high_vulnerability_count", "historical_critical_vulnerability_count",
	"historical_warning_count", "historical_notice_warning_count", "historical_unmaintained_warning_count",
	"historical_unsound_warning_count", "historical_yanked_warning_count",
}

func (m Metric) String() string {
	if m < 0 || int(m) >= len(metricNames) {
		return "unknown_metric"
	}
	return metricNames[m]
}

// ParseMetric parses a snake_case metric name, as written in a
// configuration file's policy table.
func ParseMetric(name string) (Metric, bool) {
	for i, n := range metricNames {
		if n == name {
			return Metric(i), true
		}
	}
	return 0, false
}

// All returns every Metric in declaration order, the order the
// calculator evaluates them in and the ranker reports them in.
func All() []Metric {
	out := make([]Metric, metricCount)
	for i := range out {
		out[i] = Metric(i)
	}
	return out
}

// Category returns the Category a metric rolls up into for the
// ranker's per-category averages.
func (m Metric) Category() Category {
	switch m {
	case Age, MinVersion, ReleaseCount:
		return Stability
	case OverallDownloadCount, OneMonthDownloadCount, DependentCount:
		return Usage
	case RepoStarCount, RepoForkCount, RepoSubscriberCount, RepoContributorCount:
		return Community
	case CommitActivity, OpenIssueCount, ClosedIssueCount, IssueResponsiveness,
		OpenPullRequestCount, ClosedPullRequestCount, PullRequestResponsiveness:
		return Activity
	case DocCoveragePercentage, BrokenDocLinkCount, ExampleCount:
		return Documentation
	case OverallOwnerCount, UserOwnerCount, TeamOwnerCount, License:
		return Ownership
	case CodeCoveragePercentage, FullySafeCode:
		return Trustworthiness
	case TransitiveDependencyCount, DirectDependencyCount:
		return Cost
	case VulnerabilityCount, LowVulnerabilityCount, MediumVulnerabilityCount, HighVulnerabilityCount,
		CriticalVulnerabilityCount, WarningCount, NoticeWarningCount, UnmaintainedWarningCount,
		UnsoundWarningCount, YankedWarningCount,
		HistoricalVulnerabilityCount, HistoricalLowVulnerabilityCount, HistoricalMediumVulnerabilityCount,
		HistoricalHighVulnerabilityCount, HistoricalCriticalVulnerabilityCount,
		HistoricalWarningCount, HistoricalNoticeWarningCount, HistoricalUnmaintainedWarningCount,
		HistoricalUnsoundWarningCount, HistoricalYankedWarningCount:
		return Advisories
	default:
		return Advisories
	}
}
