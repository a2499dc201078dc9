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

// Package apperr is the top-level fatal-error type printed by cmd/depaprz:
// a short title, a detail line explaining what happened, and a hint
// telling the user what to do about it.
package apperr

import (
	"encoding/json"
	"fmt"
	"os"
)

// Kind classifies an AppError for callers that branch on error category
// (a config error and a network error warrant different remediation
// text even though both are fatal).
type Kind string

const (
	KindConfig   Kind = "config"
	KindInput    Kind = "input"
	KindNetwork  Kind = "network"
	KindInternal Kind = "internal"
)

// AppError is a fatal, user-facing error: a short title, a detail
// explaining what went wrong, a hint telling the user what to do about
// it, and the underlying cause (if any).
type AppError struct {
	Kind   Kind
	Title  string
	Detail string
	Hint   string
	Cause  error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Title, e.Detail, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Title, e.Detail)
}

func (e *AppError) Unwrap() error { return e.Cause }

func newError(kind Kind, title, detail, hint string, cause error) *AppError {
	return &AppError{Kind: kind, Title: title, Detail: detail, Hint: hint, Cause: cause}
}

// NewConfigError reports a problem loading or validating the TOML
// configuration file.
func NewConfigError(title, detail, hint string, cause error) *AppError {
	return newError(KindConfig, title, detail, hint, cause)
}

// NewInputError reports a problem with the crate list or other
// user-supplied input.
func NewInputError(title, detail, hint string, cause error) *AppError {
	return newError(KindInput, title, detail, hint, cause)
}

// NewNetworkError reports a problem reaching a fact-provider API or
// git remote.
func NewNetworkError(title, detail, hint string, cause error) *AppError {
	return newError(KindNetwork, title, detail, hint, cause)
}

// NewInternalError reports a bug or an unexpected environment failure
// (disk full, cache directory unwritable) rather than a user mistake.
func NewInternalError(title, detail, hint string, cause error) *AppError {
	return newError(KindInternal, title, detail, hint, cause)
}

// jsonError is AppError's shape when --json output is requested.
type jsonError struct {
	Kind   Kind   `json:"kind"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Hint   string `json:"hint"`
	Cause  string `json:"cause,omitempty"`
}

// Fatal prints err to stderr and exits the process with status 1. A
// plain error (not an *AppError) is wrapped as an internal error first,
// since every fatal exit path should carry a title and a hint rather
// than a bare Go error string reaching the terminal.
func Fatal(err error, jsonOutput bool) {
	appErr, ok := err.(*AppError)
	if !ok {
		appErr = NewInternalError("Unexpected error", err.Error(), "This is a bug. Please report it.", err)
	}

	if jsonOutput {
		je := jsonError{Kind: appErr.Kind, Title: appErr.Title, Detail: appErr.Detail, Hint: appErr.Hint}
		if appErr.Cause != nil {
			je.Cause = appErr.Cause.Error()
		}
		data, marshalErr := json.Marshal(je)
		if marshalErr == nil {
			fmt.Fprintln(os.Stderr, string(data))
		} else {
			fmt.Fprintf(os.Stderr, "error: %s: %s\n", appErr.Title, appErr.Detail)
		}
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", appErr.Title)
		fmt.Fprintf(os.Stderr, "  %s\n", appErr.Detail)
		if appErr.Hint != "" {
			fmt.Fprintf(os.Stderr, "  Hint: %s\n", appErr.Hint)
		}
		if appErr.Cause != nil {
			fmt.Fprintf(os.Stderr, "  Cause: %v\n", appErr.Cause)
		}
	}

	os.Exit(1)
}
