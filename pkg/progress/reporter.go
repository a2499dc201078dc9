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

// Package progress reports the status of the long-running fact-gathering
// pipeline: a delayed-visibility progress bar that never flashes on
// screen for operations quick enough not to need one, and a request
// tracker that counts issued/completed lookups per provider.
package progress

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Reporter wraps a progressbar.ProgressBar and suppresses all rendering
// until the operation has both run longer than a delay threshold and
// has meaningful content (a length or a message). This prevents a flash
// of progress UI for batches small enough to finish instantly: until
// Reporter decides the bar is visible, every Set* call only updates
// internal bookkeeping and never reaches the terminal.
type Reporter struct {
	bar        *progressbar.ProgressBar
	startTime  time.Time
	delay      time.Duration
	visible    atomic.Bool
	hasContent atomic.Bool
	enabled    bool // false when stderr is not a TTY: never draw at all
}

// NewReporter creates a Reporter writing to w, staying hidden until
// delay has elapsed and content has been set. tty should reflect
// whether the destination is an interactive terminal
// (IsTerminalStderr); a non-TTY destination (piped output, CI logs)
// never shows the bar regardless of delay.
func NewReporter(w io.Writer, delay time.Duration, tty bool) *Reporter {
	bar := progressbar.NewOptions(0,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(25),
		progressbar.OptionClearOnFinish(),
	)
	return &Reporter{
		bar:       bar,
		startTime: time.Now(),
		delay:     delay,
		enabled:   tty,
	}
}

// IsTerminalStderr reports whether the given file descriptor looks like
// an interactive terminal, the same check the teacher's CLI uses to
// decide whether to draw color/progress output at all.
func IsTerminalStderr(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (r *Reporter) ensureVisible() {
	if r.visible.Load() || !r.hasContent.Load() || !r.enabled {
		return
	}
	if time.Since(r.startTime) < r.delay {
		return
	}
	r.visible.Store(true)
}

// ForceVisible bypasses the delay and shows the bar immediately, for
// callers that already know an operation is going to be long-running.
func (r *Reporter) ForceVisible() {
	if r.enabled && r.hasContent.Load() {
		r.visible.Store(true)
	}
}

// SetTotal sets the total length of the determinate progress bar.
func (r *Reporter) SetTotal(n int64) {
	if n > 0 {
		r.hasContent.Store(true)
	}
	r.ensureVisible()
	if r.visible.Load() {
		r.bar.ChangeMax64(n)
	}
}

// SetPosition sets the current position of the determinate progress bar.
func (r *Reporter) SetPosition(n int64) {
	r.ensureVisible()
	if r.visible.Load() {
		_ = r.bar.Set64(n)
	}
}

// SetMessage sets the message shown alongside the bar.
func (r *Reporter) SetMessage(msg string) {
	if msg != "" {
		r.hasContent.Store(true)
	}
	r.ensureVisible()
	if r.visible.Load() {
		r.bar.Describe(msg)
	}
}

// TickVisibility re-checks whether the bar should become visible. A
// caller runs this from a background timer so a bar that was set up
// once and then awaited on (no further Set* calls until the operation
// finishes) still appears once the delay elapses.
func (r *Reporter) TickVisibility() {
	if !r.visible.Load() {
		r.ensureVisible()
	}
}

// FinishAndClear finalizes the bar, clearing it from the terminal. It
// is a no-op if the bar was never made visible, since there is nothing
// on screen to clear.
func (r *Reporter) FinishAndClear() {
	if r.visible.Load() {
		_ = r.bar.Finish()
	}
}

// StartVisibilityChecking launches a goroutine that calls TickVisibility
// every 250ms until ctx is canceled, so the bar still appears once the
// delay elapses even if the caller is blocked on a long await with no
// further Set* calls in between. The caller must cancel ctx (or its
// parent) to stop the goroutine.
func (r *Reporter) StartVisibilityChecking(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.TickVisibility()
			}
		}
	}()
}

// IsVisible reports whether the bar has been shown yet. Exposed mainly
// for tests asserting the delayed-visibility invariant.
func (r *Reporter) IsVisible() bool {
	return r.visible.Load()
}
