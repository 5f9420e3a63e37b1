// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the station's now-playing/control HTTP surface.
// Every handler returns a literal JSON document rather than a wrapped
// response envelope, since this is a small public-facing surface consumed
// directly by the station's web player, not an internal service-to-service
// API.
package api
