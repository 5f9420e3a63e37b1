// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assetindex implements §4.A of the broadcast specification: a
// lazy, re-scannable catalog of music, segment, and podcast files, a
// purely lexical mood classifier over a longest-keyword-wins signature
// table, and an external duration probe used by the chopping decision.
package assetindex
