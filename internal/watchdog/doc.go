// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package watchdog periodically probes the station's components —
// including ones the supervisor tree doesn't own, like the external
// Icecast server and tunnel process — and raises operator alerts when a
// component stays down past its retry budget.
package watchdog
