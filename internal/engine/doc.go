// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine implements §4.E of the broadcast specification: the
// streaming engine that owns the single persistent encoder connected to
// the Icecast mount and drives the per-asset decode/publish/stream/record
// loop from one dedicated goroutine. Nothing outside this package ever
// writes to the encoder's stdin.
package engine
