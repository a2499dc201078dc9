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
	"fmt"
	"time"

	"github.com/kraklabs/depaprz/pkg/config"
	"github.com/kraklabs/depaprz/pkg/facts"
	"github.com/kraklabs/depaprz/pkg/metrics"
	"github.com/kraklabs/depaprz/pkg/specs"
)

// calculator carries the shared state every metric function needs:
// the config it evaluates policies against, the facts being scored,
// the dependency type in scope (policies with a non-matching scope
// are skipped), and the output map being built up one metric at a time.
type calculator struct {
	cfg *config.Config
	f   *facts.CrateFacts
	dt  specs.DependencyType
	out map[metrics.Metric]PolicyOutcome
}

// Calculate runs every metric function against f and returns the
// resulting policy outcomes, one entry per metric whose required fact
// was available. A metric whose provider result is not Found is
// omitted from the map entirely, rather than reported as a failure —
// an appraisal can't hold an unreachable crate's commit history
// against it.
func Calculate(cfg *config.Config, f *facts.CrateFacts, dt specs.DependencyType) map[metrics.Metric]PolicyOutcome {
	c := &calculator{cfg: cfg, f: f, dt: dt, out: map[metrics.Metric]PolicyOutcome{}}

	c.license()
	c.age()
	c.minVersion()
	c.releaseCount()
	c.overallDownloadCount()
	c.oneMonthDownloadCount()
	c.overallOwnerCount()
	c.teamOwnerCount()
	c.userOwnerCount()
	c.dependentCount()

	c.docCoveragePercentage()
	c.brokenDocLinkCount()
	c.codeCoveragePercentage()
	c.fullySafeCode()
	c.transitiveDependencyCount()
	c.exampleCount()

	c.repoContributorCount()
	c.repoStarCount()
	c.repoForkCount()
	c.repoSubscriberCount()
	c.commitActivity()
	c.openIssueCount()
	c.closedIssueCount()
	c.issueResponsiveness()
	c.openPullRequestCount()
	c.closedPullRequestCount()
	c.pullRequestResponsiveness()

	c.advisoryMaxCountMetric(metrics.VulnerabilityCount, func(a facts.AdvisoryData) uint64 { return uint64(a.VersionVulnerabilityCount) }, "vulnerabilities")
	c.advisoryMaxCountMetric(metrics.LowVulnerabilityCount, func(a facts.AdvisoryData) uint64 { return uint64(a.VersionLowCount) }, "low severity vulnerabilities")
	c.advisoryMaxCountMetric(metrics.MediumVulnerabilityCount, func(a facts.AdvisoryData) uint64 { return uint64(a.VersionMediumCount) }, "medium severity vulnerabilities")
	c.advisoryMaxCountMetric(metrics.HighVulnerabilityCount, func(a facts.AdvisoryData) uint64 { return uint64(a.VersionHighCount) }, "high severity vulnerabilities")
	c.advisoryMaxCountMetric(metrics.CriticalVulnerabilityCount, func(a facts.AdvisoryData) uint64 { return uint64(a.VersionCriticalCount) }, "critical severity vulnerabilities")
	c.advisoryMaxCountMetric(metrics.WarningCount, func(a facts.AdvisoryData) uint64 { return uint64(a.VersionOtherCount) }, "warnings")
	c.advisoryMaxCountMetric(metrics.NoticeWarningCount, func(a facts.AdvisoryData) uint64 { return uint64(a.VersionNoticeCount) }, "notices")
	c.advisoryMaxCountMetric(metrics.UnmaintainedWarningCount, func(a facts.AdvisoryData) uint64 { return uint64(a.VersionUnmaintainedCount) }, "unmaintained warnings")
	c.advisoryMaxCountMetric(metrics.UnsoundWarningCount, func(a facts.AdvisoryData) uint64 { return uint64(a.VersionUnsoundnessCount) }, "unsoundness warnings")
	c.advisoryMaxCountMetric(metrics.YankedWarningCount, func(a facts.AdvisoryData) uint64 { return uint64(a.VersionWithdrawnCount) }, "yanked-version warnings")

	c.advisoryMaxCountMetric(metrics.HistoricalVulnerabilityCount, func(a facts.AdvisoryData) uint64 { return uint64(a.HistoricalVulnerabilityCount) }, "historical vulnerabilities")
	c.advisoryMaxCountMetric(metrics.HistoricalLowVulnerabilityCount, func(a facts.AdvisoryData) uint64 { return uint64(a.HistoricalLowCount) }, "historical low severity vulnerabilities")
	c.advisoryMaxCountMetric(metrics.HistoricalMediumVulnerabilityCount, func(a facts.AdvisoryData) uint64 { return uint64(a.HistoricalMediumCount) }, "historical medium severity vulnerabilities")
	c.advisoryMaxCountMetric(metrics.HistoricalHighVulnerabilityCount, func(a facts.AdvisoryData) uint64 { return uint64(a.HistoricalHighCount) }, "historical high severity vulnerabilities")
	c.advisoryMaxCountMetric(metrics.HistoricalCriticalVulnerabilityCount, func(a facts.AdvisoryData) uint64 { return uint64(a.HistoricalCriticalCount) }, "historical critical severity vulnerabilities")
	c.advisoryMaxCountMetric(metrics.HistoricalWarningCount, func(a facts.AdvisoryData) uint64 { return uint64(a.HistoricalOtherCount) }, "historical warnings")
	c.advisoryMaxCountMetric(metrics.HistoricalNoticeWarningCount, func(a facts.AdvisoryData) uint64 { return uint64(a.HistoricalNoticeCount) }, "historical notices")
	c.advisoryMaxCountMetric(metrics.HistoricalUnmaintainedWarningCount, func(a facts.AdvisoryData) uint64 { return uint64(a.HistoricalUnmaintainedCount) }, "historical unmaintained warnings")
	c.advisoryMaxCountMetric(metrics.HistoricalUnsoundWarningCount, func(a facts.AdvisoryData) uint64 { return uint64(a.HistoricalUnsoundnessCount) }, "historical unsoundness warnings")
	c.advisoryMaxCountMetric(metrics.HistoricalYankedWarningCount, func(a facts.AdvisoryData) uint64 { return uint64(a.HistoricalWithdrawnCount) }, "historical yanked-version warnings")

	return c.out
}

// scalePoints applies the metric's configured scale factor, defaulting
// to 1.0 (no scaling) when the metric has no metric_scaling entry.
func (c *calculator) scalePoints(metric metrics.Metric, points float64) float64 {
	return points * c.cfg.MetricScale(metric)
}

func (c *calculator) addMatched(metric metrics.Metric, points float64, info string) {
	c.out[metric] = Match(points, info)
}

func (c *calculator) addNotMatched(metric metrics.Metric, reason string) {
	c.out[metric] = NoMatch(reason)
}

// applyGeneric runs the shared evaluate-in-order-stop-at-first-match
// loop every non-responsiveness policy family uses: the first policy
// in scope whose predicate matches wins; if none match, the metric's
// failure message (failureMsg) is reported; if no policy in
// scope exists at all, the metric is reported as unconfigured.
func applyGeneric[T config.Policy](c *calculator, metric metrics.Metric, policies []T, matches func(T) bool, successMsg func(T) string, failureMsg func() string) {
	numInScope := 0
	for _, p := range policies {
		if !p.Scope().Contains(c.dt) {
			continue
		}
		numInScope++
		if matches(p) {
			c.addMatched(metric, c.scalePoints(metric, p.Points()), successMsg(p))
			return
		}
	}
	if numInScope == 0 {
		c.addNotMatched(metric, "no policy defined")
		return
	}
	c.addNotMatched(metric, failureMsg())
}

// hoursToAgeStats converts a facts.CloseTimeStats (hours) into the days
// a ResponsivenessPolicy's thresholds are expressed in, keeping every
// percentile distinct rather than collapsing them to one value.
func hoursToAgeStats(stats facts.CloseTimeStats) config.AgeStats {
	return config.AgeStats{
		Avg: stats.AvgHours / 24,
		P50: stats.P50Hours / 24,
		P75: stats.P75Hours / 24,
		P90: stats.P90Hours / 24,
		P95: stats.P95Hours / 24,
	}
}

func applyResponsiveness(c *calculator, metric metrics.Metric, policies []config.ResponsivenessPolicy, stats config.AgeStats) {
	for _, p := range policies {
		if !p.Scope().Contains(c.dt) {
			continue
		}
		if p.Matches(stats) {
			c.addMatched(metric, c.scalePoints(metric, p.Points()), "sufficiently responsive")
			return
		}
	}
	c.addNotMatched(metric, "insufficiently responsive")
}

func (c *calculator) license() {
	v, ok := c.f.Version.Get()
	if !ok {
		return
	}
	license := v.License
	applyGeneric(c, metrics.License, c.cfg.License,
		func(p config.LicensePolicy) bool { return p.Matches(license) },
		func(p config.LicensePolicy) string { return fmt.Sprintf("%q", license) },
		func() string { return fmt.Sprintf("%q is not an allowed license", license) })
}

func (c *calculator) age() {
	overall, ok := c.f.Registry.Get()
	if !ok {
		return
	}
	ageDays := time.Since(overall.FirstPublishedAt).Hours() / 24
	applyGeneric(c, metrics.Age, c.cfg.Age,
		func(p config.AgePolicy) bool { return p.Matches(ageDays) },
		func(p config.AgePolicy) string { return fmt.Sprintf("%.0f days old", ageDays) },
		func() string { return fmt.Sprintf("%.0f days old", ageDays) })
}

func (c *calculator) minVersion() {
	v, ok := c.f.Version.Get()
	if !ok {
		return
	}
	version := v.Version
	applyGeneric(c, metrics.MinVersion, c.cfg.MinVersion,
		func(p config.VersionPolicy) bool { return p.Matches(version) },
		func(p config.VersionPolicy) string {
			if version != nil {
				return fmt.Sprintf("v%s", version.String())
			}
			return "unknown version"
		},
		func() string {
			if version != nil {
				return fmt.Sprintf("v%s is below the required minimum", version.String())
			}
			return "version could not be determined"
		})
}

func (c *calculator) releaseCount() {
	overall, ok := c.f.Registry.Get()
	if !ok {
		return
	}
	count := uint64(overall.VersionCount)
	applyGeneric(c, metrics.ReleaseCount, c.cfg.ReleaseCount,
		func(p config.MinCountPolicy) bool { return p.Matches(count) },
		func(p config.MinCountPolicy) string { return fmt.Sprintf("%d releases", count) },
		func() string { return fmt.Sprintf("%d releases", count) })
}

func (c *calculator) overallDownloadCount() {
	overall, ok := c.f.Registry.Get()
	if !ok {
		return
	}
	downloads := overall.TotalDownloads
	applyGeneric(c, metrics.OverallDownloadCount, c.cfg.OverallDownloadCount,
		func(p config.MinCountPolicy) bool { return p.Matches(downloads) },
		func(p config.MinCountPolicy) string { return fmt.Sprintf("%d total downloads", downloads) },
		func() string { return fmt.Sprintf("%d total downloads", downloads) })
}

func (c *calculator) oneMonthDownloadCount() {
	overall, ok := c.f.Registry.Get()
	if !ok {
		return
	}
	downloads := overall.OneMonthDownloads
	applyGeneric(c, metrics.OneMonthDownloadCount, c.cfg.OneMonthDownloadCount,
		func(p config.MinCountPolicy) bool { return p.Matches(downloads) },
		func(p config.MinCountPolicy) string { return fmt.Sprintf("%d downloads in the last month", downloads) },
		func() string { return fmt.Sprintf("%d downloads in the last month", downloads) })
}

func (c *calculator) overallOwnerCount() {
	overall, ok := c.f.Registry.Get()
	if !ok {
		return
	}
	count := uint64(overall.OwnerCount)
	applyGeneric(c, metrics.OverallOwnerCount, c.cfg.OverallOwnerCount,
		func(p config.MinCountPolicy) bool { return p.Matches(count) },
		func(p config.MinCountPolicy) string { return fmt.Sprintf("%d total owners", count) },
		func() string { return fmt.Sprintf("%d total owners", count) })
}

func (c *calculator) teamOwnerCount() {
	overall, ok := c.f.Registry.Get()
	if !ok {
		return
	}
	count := uint64(overall.TeamOwnerCount)
	applyGeneric(c, metrics.TeamOwnerCount, c.cfg.TeamOwnerCount,
		func(p config.MinCountPolicy) bool { return p.Matches(count) },
		func(p config.MinCountPolicy) string { return fmt.Sprintf("%d team owners", count) },
		func() string { return fmt.Sprintf("%d team owners", count) })
}

func (c *calculator) userOwnerCount() {
	overall, ok := c.f.Registry.Get()
	if !ok {
		return
	}
	userOwners := overall.OwnerCount - overall.TeamOwnerCount
	if userOwners < 0 {
		userOwners = 0
	}
	count := uint64(userOwners)
	applyGeneric(c, metrics.UserOwnerCount, c.cfg.UserOwnerCount,
		func(p config.MinCountPolicy) bool { return p.Matches(count) },
		func(p config.MinCountPolicy) string { return fmt.Sprintf("%d user owners", count) },
		func() string { return fmt.Sprintf("%d user owners", count) })
}

func (c *calculator) dependentCount() {
	overall, ok := c.f.Registry.Get()
	if !ok {
		return
	}
	count := uint64(overall.DependentCount)
	applyGeneric(c, metrics.DependentCount, c.cfg.DependentCount,
		func(p config.MinCountPolicy) bool { return p.Matches(count) },
		func(p config.MinCountPolicy) string { return fmt.Sprintf("%d dependents", count) },
		func() string { return fmt.Sprintf("%d dependents", count) })
}

func (c *calculator) docCoveragePercentage() {
	docs, ok := c.f.Docs.Get()
	if !ok {
		return
	}
	m, ok := docs.Metrics()
	if !ok {
		return
	}
	pct := m.DocCoveragePercentage
	applyGeneric(c, metrics.DocCoveragePercentage, c.cfg.DocCoveragePercentage,
		func(p config.PercentagePolicy) bool { return p.Matches(pct) },
		func(p config.PercentagePolicy) string { return fmt.Sprintf("%.1f%% documentation coverage", pct) },
		func() string { return fmt.Sprintf("%.1f%% documentation coverage", pct) })
}

func (c *calculator) brokenDocLinkCount() {
	docs, ok := c.f.Docs.Get()
	if !ok {
		return
	}
	m, ok := docs.Metrics()
	if !ok {
		return
	}
	count := uint64(m.BrokenDocLinkCount)
	applyGeneric(c, metrics.BrokenDocLinkCount, c.cfg.BrokenDocLinkCount,
		func(p config.MaxCountPolicy) bool { return p.Matches(count) },
		func(p config.MaxCountPolicy) string { return fmt.Sprintf("%d broken documentation links", count) },
		func() string { return fmt.Sprintf("%d broken documentation links", count) })
}

func (c *calculator) codeCoveragePercentage() {
	cov, ok := c.f.Coverage.Get()
	if !ok {
		return
	}
	pct := cov.CoveragePercentage
	applyGeneric(c, metrics.CodeCoveragePercentage, c.cfg.CodeCoveragePercentage,
		func(p config.PercentagePolicy) bool { return p.Matches(pct) },
		func(p config.PercentagePolicy) string { return fmt.Sprintf("%.1f%% codebase coverage", pct) },
		func() string { return fmt.Sprintf("%.1f%% codebase coverage", pct) })
}

func (c *calculator) fullySafeCode() {
	cb, ok := c.f.Codebase.Get()
	if !ok {
		return
	}
	hasUnsafe := cb.UnsafeBlockCount > 0
	applyGeneric(c, metrics.FullySafeCode, c.cfg.FullySafeCode,
		func(p config.BooleanPolicy) bool { return p.Matches(!hasUnsafe) },
		func(p config.BooleanPolicy) string { return "crate contains no unsafe codebase" },
		func() string { return "crate contains unsafe codebase" })
}

func (c *calculator) transitiveDependencyCount() {
	cb, ok := c.f.Codebase.Get()
	if !ok {
		return
	}
	count := uint64(cb.TransitiveDependencyCount)
	applyGeneric(c, metrics.TransitiveDependencyCount, c.cfg.TransitiveDependencyCount,
		func(p config.MaxCountPolicy) bool { return p.Matches(count) },
		func(p config.MaxCountPolicy) string { return fmt.Sprintf("%d transitive dependencies", count) },
		func() string { return fmt.Sprintf("%d transitive dependencies", count) })
}

func (c *calculator) exampleCount() {
	cb, ok := c.f.Codebase.Get()
	if !ok {
		return
	}
	count := uint64(cb.ExampleFunctionCount)
	applyGeneric(c, metrics.ExampleCount, c.cfg.ExampleCount,
		func(p config.MinCountPolicy) bool { return p.Matches(count) },
		func(p config.MinCountPolicy) string { return fmt.Sprintf("%d examples", count) },
		func() string { return fmt.Sprintf("%d examples", count) })
}

func (c *calculator) repoContributorCount() {
	h, ok := c.f.Hosting.Get()
	if !ok {
		return
	}
	count := uint64(h.ContributorCount)
	applyGeneric(c, metrics.RepoContributorCount, c.cfg.RepoContributorCount,
		func(p config.MinCountPolicy) bool { return p.Matches(count) },
		func(p config.MinCountPolicy) string { return fmt.Sprintf("%d contributors", count) },
		func() string { return fmt.Sprintf("%d contributors", count) })
}

func (c *calculator) repoStarCount() {
	h, ok := c.f.Hosting.Get()
	if !ok {
		return
	}
	count := uint64(h.StarCount)
	applyGeneric(c, metrics.RepoStarCount, c.cfg.RepoStarCount,
		func(p config.MinCountPolicy) bool { return p.Matches(count) },
		func(p config.MinCountPolicy) string { return fmt.Sprintf("%d stars", count) },
		func() string { return fmt.Sprintf("%d stars", count) })
}

func (c *calculator) repoForkCount() {
	h, ok := c.f.Hosting.Get()
	if !ok {
		return
	}
	count := uint64(h.ForkCount)
	applyGeneric(c, metrics.RepoForkCount, c.cfg.RepoForkCount,
		func(p config.MinCountPolicy) bool { return p.Matches(count) },
		func(p config.MinCountPolicy) string { return fmt.Sprintf("%d forks", count) },
		func() string { return fmt.Sprintf("%d forks", count) })
}

func (c *calculator) repoSubscriberCount() {
	h, ok := c.f.Hosting.Get()
	if !ok {
		return
	}
	count := uint64(h.SubscriberCount)
	applyGeneric(c, metrics.RepoSubscriberCount, c.cfg.RepoSubscriberCount,
		func(p config.MinCountPolicy) bool { return p.Matches(count) },
		func(p config.MinCountPolicy) string { return fmt.Sprintf("%d subscribers", count) },
		func() string { return fmt.Sprintf("%d subscribers", count) })
}

// commitActivitySupportedWindowDays is the only window the commit
// activity metric currently supports; a policy configured with a
// different window_days never matches.
const commitActivitySupportedWindowDays = 90

func (c *calculator) commitActivity() {
	h, ok := c.f.Hosting.Get()
	if !ok {
		return
	}
	commits := uint64(h.CommitCountLast90Days)
	applyGeneric(c, metrics.CommitActivity, c.cfg.CommitActivity,
		func(p config.AgedCountPolicy) bool {
			if p.WindowDays != commitActivitySupportedWindowDays {
				return false
			}
			return p.Matches(commits)
		},
		func(p config.AgedCountPolicy) string {
			return fmt.Sprintf("%d commits in last %d days", commits, p.WindowDays)
		},
		func() string {
			return fmt.Sprintf("%d commits in last %d days", commits, commitActivitySupportedWindowDays)
		})
}

func (c *calculator) openIssueCount() {
	h, ok := c.f.Hosting.Get()
	if !ok {
		return
	}
	count := uint64(h.OpenIssueCount)
	applyGeneric(c, metrics.OpenIssueCount, c.cfg.OpenIssueCount,
		func(p config.MaxCountPolicy) bool { return p.Matches(count) },
		func(p config.MaxCountPolicy) string { return fmt.Sprintf("%d open issues", count) },
		func() string { return fmt.Sprintf("%d open issues", count) })
}

func (c *calculator) closedIssueCount() {
	h, ok := c.f.Hosting.Get()
	if !ok {
		return
	}
	count := uint64(h.ClosedIssueCount)
	applyGeneric(c, metrics.ClosedIssueCount, c.cfg.ClosedIssueCount,
		func(p config.MinCountPolicy) bool { return p.Matches(count) },
		func(p config.MinCountPolicy) string { return fmt.Sprintf("%d closed issues", count) },
		func() string { return fmt.Sprintf("%d closed issues", count) })
}

func (c *calculator) issueResponsiveness() {
	h, ok := c.f.Hosting.Get()
	if !ok {
		return
	}
	applyResponsiveness(c, metrics.IssueResponsiveness, c.cfg.IssueResponsiveness, hoursToAgeStats(h.IssueCloseTime))
}

func (c *calculator) openPullRequestCount() {
	h, ok := c.f.Hosting.Get()
	if !ok {
		return
	}
	count := uint64(h.OpenPullRequestCount)
	applyGeneric(c, metrics.OpenPullRequestCount, c.cfg.OpenPullRequestCount,
		func(p config.MaxCountPolicy) bool { return p.Matches(count) },
		func(p config.MaxCountPolicy) string { return fmt.Sprintf("%d open pull requests", count) },
		func() string { return fmt.Sprintf("%d open pull requests", count) })
}

func (c *calculator) closedPullRequestCount() {
	h, ok := c.f.Hosting.Get()
	if !ok {
		return
	}
	count := uint64(h.ClosedPullRequestCount)
	applyGeneric(c, metrics.ClosedPullRequestCount, c.cfg.ClosedPullRequestCount,
		func(p config.MinCountPolicy) bool { return p.Matches(count) },
		func(p config.MinCountPolicy) string { return fmt.Sprintf("%d closed pull requests", count) },
		func() string { return fmt.Sprintf("%d closed pull requests", count) })
}

func (c *calculator) pullRequestResponsiveness() {
	h, ok := c.f.Hosting.Get()
	if !ok {
		return
	}
	applyResponsiveness(c, metrics.PullRequestResponsiveness, c.cfg.PullRequestResponsiveness, hoursToAgeStats(h.PullRequestCloseTime))
}

// advisoryMaxCountMetric is the common shape shared by all 20 advisory
// count metrics: a MaxCountPolicy checked against a single counter
// field of AdvisoryData.
func (c *calculator) advisoryMaxCountMetric(metric metrics.Metric, field func(facts.AdvisoryData) uint64, label string) {
	a, ok := c.f.Advisories.Get()
	if !ok {
		return
	}
	policies := advisoryPolicies(c.cfg, metric)
	count := field(a)
	applyGeneric(c, metric, policies,
		func(p config.MaxCountPolicy) bool { return p.Matches(count) },
		func(p config.MaxCountPolicy) string { return fmt.Sprintf("%d %s", count, label) },
		func() string { return fmt.Sprintf("%d %s", count, label) })
}

// advisoryPolicies looks up the configured policy slice for one of the
// 20 advisory metrics by name, since they don't share a single config
// field the way the generic helper's input type would otherwise need.
func advisoryPolicies(cfg *config.Config, metric metrics.Metric) []config.MaxCountPolicy {
	switch metric {
	case metrics.VulnerabilityCount:
		return cfg.VulnerabilityCount
	case metrics.LowVulnerabilityCount:
		return cfg.LowVulnerabilityCount
	case metrics.MediumVulnerabilityCount:
		return cfg.MediumVulnerabilityCount
	case metrics.HighVulnerabilityCount:
		return cfg.HighVulnerabilityCount
	case metrics.CriticalVulnerabilityCount:
		return cfg.CriticalVulnerabilityCount
	case metrics.WarningCount:
		return cfg.WarningCount
	case metrics.NoticeWarningCount:
		return cfg.NoticeWarningCount
	case metrics.UnmaintainedWarningCount:
		return cfg.UnmaintainedWarningCount
	case metrics.UnsoundWarningCount:
		return cfg.UnsoundWarningCount
	case metrics.YankedWarningCount:
		return cfg.YankedWarningCount
	case metrics.HistoricalVulnerabilityCount:
		return cfg.HistoricalVulnerabilityCount
	case metrics.HistoricalLowVulnerabilityCount:
		return cfg.HistoricalLowVulnerabilityCount
	case metrics.HistoricalMediumVulnerabilityCount:
		return cfg.HistoricalMediumVulnerabilityCount
	case metrics.HistoricalHighVulnerabilityCount:
		return cfg.HistoricalHighVulnerabilityCount
	case metrics.HistoricalCriticalVulnerabilityCount:
		return cfg.HistoricalCriticalVulnerabilityCount
	case metrics.HistoricalWarningCount:
		return cfg.HistoricalWarningCount
	case metrics.HistoricalNoticeWarningCount:
		return cfg.HistoricalNoticeWarningCount
	case metrics.HistoricalUnmaintainedWarningCount:
		return cfg.HistoricalUnmaintainedWarningCount
	case metrics.HistoricalUnsoundWarningCount:
		return cfg.HistoricalUnsoundWarningCount
	case metrics.HistoricalYankedWarningCount:
		return cfg.HistoricalYankedWarningCount
	default:
		return nil
	}
}
