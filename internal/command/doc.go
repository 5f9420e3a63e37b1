// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package command implements §4.G of the broadcast specification: a
// file-based, single-slot command mailbox. One write produces at most one
// action — Poll atomically reads and truncates the file so a command is
// never delivered twice.
package command
