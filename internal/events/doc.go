// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package events implements the optional asset-transition event bus: an
// embedded NATS JetStream server fronted by Watermill, publishing one
// AssetTransitionEvent per asset the Streaming Engine starts. It exists so
// additional consumers (a future analytics sink, a remote dashboard, a
// second process) can subscribe to playback history without coupling to
// the Engine directly.
//
// The real implementation lives behind the "nats" build tag, mirroring how
// this station's teacher gates its own embedded-NATS integration; a no-op
// stub satisfies the same Bus interface in default builds so the daemon
// never requires NATS to start.
package events
