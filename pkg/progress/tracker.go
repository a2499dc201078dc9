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
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// counter holds the issued/completed tallies for one named request
// category (e.g. "registry", "hosting", "advisories").
type counter struct {
	issued    atomic.Uint64
	completed atomic.Uint64
}

// Tracker counts outstanding requests per named category and keeps a
// Reporter's message in sync: "3/5 hosting, 1/2 docs" style summaries,
// recomputed from scratch on every mutation so the displayed totals are
// always a faithful snapshot rather than an incrementally-drifting one.
type Tracker struct {
	mu       sync.Mutex
	counters map[string]*counter
	progress *Reporter
	issuedVec    *prometheus.CounterVec
	completedVec *prometheus.CounterVec
}

// NewTracker creates a Tracker that drives progress and, when registry
// is non-nil, also publishes issued/completed totals as Prometheus
// counters labeled by category — for pipelines running under a
// scrape-based dashboard instead of an interactive terminal.
func NewTracker(progress *Reporter, registry prometheus.Registerer) *Tracker {
	t := &Tracker{
		counters: make(map[string]*counter),
		progress: progress,
	}
	if registry != nil {
		t.issuedVec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "depaprz_requests_issued_total",
			Help: "Total number of fact-provider requests issued, by category.",
		}, []string{"category"})
		t.completedVec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "depaprz_requests_completed_total",
			Help: "Total number of fact-provider requests completed, by category.",
		}, []string{"category"})
		registry.MustRegister(t.issuedVec, t.completedVec)
	}
	return t
}

func (t *Tracker) getCounter(name string) *counter {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.counters[name]
	if !ok {
		c = &counter{}
		t.counters[name] = c
	}
	return c
}

// AddRequest marks that one new request has been issued under name.
func (t *Tracker) AddRequest(name string) {
	t.AddRequests(name, 1)
}

// AddRequests marks that count new requests have been issued under name.
func (t *Tracker) AddRequests(name string, count uint64) {
	if count == 0 {
		return
	}
	t.getCounter(name).issued.Add(count)
	if t.issuedVec != nil {
		t.issuedVec.WithLabelValues(name).Add(float64(count))
	}
	t.updateProgress()
}

// CompleteRequest marks that one request under name has completed.
// completed never exceeds issued across the tracker's lifetime, since
// every CompleteRequest call is paired with a prior AddRequest(s) call
// by the aggregator that drives it.
func (t *Tracker) CompleteRequest(name string) {
	t.getCounter(name).completed.Add(1)
	if t.completedVec != nil {
		t.completedVec.WithLabelValues(name).Add(1)
	}
	t.updateProgress()
}

// Totals returns the current issued/completed totals across every
// named category, for tests and for a final summary line.
func (t *Tracker) Totals() (issued, completed uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.counters {
		issued += c.issued.Load()
		completed += c.completed.Load()
	}
	return issued, completed
}

func (t *Tracker) updateProgress() {
	if t.progress == nil {
		return
	}

	t.mu.Lock()
	names := make([]string, 0, len(t.counters))
	for name := range t.counters {
		names = append(names, name)
	}
	sort.Strings(names)

	var totalIssued, totalCompleted uint64
	parts := make([]string, 0, len(names))
	for _, name := range names {
		c := t.counters[name]
		issued := c.issued.Load()
		completed := c.completed.Load()
		if issued == 0 {
			continue
		}
		totalIssued += issued
		totalCompleted += completed
		parts = append(parts, fmt.Sprintf("%d/%d %s", completed, issued, name))
	}
	t.mu.Unlock()

	if totalIssued == 0 {
		return
	}

	t.progress.SetTotal(int64(totalIssued))
	t.progress.SetPosition(int64(totalCompleted))

	message := "no requests"
	if len(parts) > 0 {
		message = strings.Join(parts, ", ")
	}
	t.progress.SetMessage(message)
}
