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

// Package facts holds the per-provider fact payloads and the tagged
// ProviderResult/CrateFacts types that every provider and the
// aggregator exchange.
package facts

import "fmt"

// resultKind discriminates the closed set of ways a provider lookup for
// one CrateSpec can come back. It is unexported: callers interact with
// ProviderResult only through the constructors and accessor methods
// below, never by comparing kinds directly, so a new kind can be added
// without breaking call sites that already use a type switch over the
// accessors.
type resultKind int

const (
	kindFound resultKind = iota
	kindCrateNotFound
	kindVersionNotFound
	kindError
)

// ProviderResult is the outcome of one provider's lookup for one
// CrateSpec: either a complete payload, one of two "doesn't exist"
// states, or an error message. It deliberately has no exported fields —
// constructing one outside this package would let code build a Found
// result without a payload, which would violate CrateFacts.IsComplete's
// assumption that Found always carries data.
type ProviderResult[T any] struct {
	kind    resultKind
	value   T
	message string
}

// Found wraps a complete payload.
func Found[T any](value T) ProviderResult[T] {
	return ProviderResult[T]{kind: kindFound, value: value}
}

// CrateNotFound reports that the registry has never heard of this
// crate name at all.
func CrateNotFound[T any]() ProviderResult[T] {
	return ProviderResult[T]{kind: kindCrateNotFound}
}

// VersionNotFound reports that the crate exists but not at the
// requested version.
func VersionNotFound[T any]() ProviderResult[T] {
	return ProviderResult[T]{kind: kindVersionNotFound}
}

// Errorf builds an Error result from a formatted message. Providers use
// this (rather than returning a Go error) for any failure
// that is scoped to a single CrateSpec — a malformed upstream response,
// a rate limit, a transient network error for just that lookup.
func Errorf(format string, args ...any) ProviderResult[any] {
	return ProviderResult[any]{kind: kindError, message: fmt.Sprintf(format, args...)}
}

// Error wraps a plain message as an Error result, typed to T so it can
// be assigned directly into a ProviderResult[T] field.
func Error[T any](message string) ProviderResult[T] {
	return ProviderResult[T]{kind: kindError, message: message}
}

// IsFound reports whether the result carries a usable payload.
func (r ProviderResult[T]) IsFound() bool { return r.kind == kindFound }

// IsCrateNotFound reports whether the crate name itself is unknown.
func (r ProviderResult[T]) IsCrateNotFound() bool { return r.kind == kindCrateNotFound }

// IsVersionNotFound reports whether the crate exists but not this version.
func (r ProviderResult[T]) IsVersionNotFound() bool { return r.kind == kindVersionNotFound }

// IsError reports whether the lookup failed outright.
func (r ProviderResult[T]) IsError() bool { return r.kind == kindError }

// Message returns the error message when IsError is true, and the empty
// string otherwise.
func (r ProviderResult[T]) Message() string { return r.message }

// Get returns the payload and true when IsFound, or the zero value and
// false otherwise — the idiomatic Go "comma ok" shape for a result that
// might not carry data.
func (r ProviderResult[T]) Get() (T, bool) {
	return r.value, r.kind == kindFound
}
