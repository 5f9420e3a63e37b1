// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package publisher implements §4.F of the broadcast specification: the
// State Publisher. It writes the NowPlaying document atomically to one or
// more configured file paths, pushes it to connected websocket subscribers,
// and serves a cached, circuit-broken Icecast listener count back to the
// Streaming Engine.
package publisher
