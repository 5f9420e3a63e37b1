// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package schedule implements §4.C of the broadcast specification: parsing
// the weekly schedule config, validating full-day coverage at load time,
// and resolving "which show is on right now" deterministically from base
// blocks and day-aware overrides. When no schedule file is configured it
// synthesizes a seven-period time-of-day schedule so the rest of the
// daemon sees a uniform ResolvedShow interface either way.
package schedule
