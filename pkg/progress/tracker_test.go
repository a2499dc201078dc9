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

package progress

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrackerTotals(t *testing.T) {
	reporter := NewReporter(&bytes.Buffer{}, time.Hour, false)
	tracker := NewTracker(reporter, nil)

	tracker.AddRequests("hosting", 3)
	tracker.AddRequest("docs")
	tracker.CompleteRequest("hosting")
	tracker.CompleteRequest("hosting")

	issued, completed := tracker.Totals()
	assert.Equal(t, uint64(4), issued)
	assert.Equal(t, uint64(2), completed)
}

func TestTrackerNeverCompletedExceedsIssued(t *testing.T) {
	reporter := NewReporter(&bytes.Buffer{}, time.Hour, false)
	tracker := NewTracker(reporter, nil)

	tracker.AddRequest("registry")
	tracker.CompleteRequest("registry")

	issued, completed := tracker.Totals()
	assert.LessOrEqual(t, completed, issued)
}

func TestReporterDelayedVisibility(t *testing.T) {
	reporter := NewReporter(&bytes.Buffer{}, 50*time.Millisecond, true)
	reporter.SetTotal(10)
	assert.False(t, reporter.IsVisible(), "bar must stay hidden before the delay elapses")

	time.Sleep(60 * time.Millisecond)
	reporter.SetPosition(1)
	assert.True(t, reporter.IsVisible(), "bar must become visible once delay has elapsed and content exists")
}

func TestReporterNeverVisibleWithoutContent(t *testing.T) {
	reporter := NewReporter(&bytes.Buffer{}, time.Millisecond, true)
	time.Sleep(5 * time.Millisecond)
	reporter.TickVisibility()
	assert.False(t, reporter.IsVisible(), "bar must not appear without content even past the delay")
}
