// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package director implements §4.D of the broadcast specification: the
// program director that, given the resolved show and the asset libraries,
// builds a scored and shuffled music queue, interleaves podcasts and
// segments under the cadence/slot policy, and computes chopped playback
// windows for long music tracks. Mutation only ever happens from the
// single streaming thread that calls Next.
package director
