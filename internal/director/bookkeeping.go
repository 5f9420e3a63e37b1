// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package director

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Bookkeeping persists the Director's cross-restart state — last podcast
// slot consumed, last segment type played, and the one-shot forced-action
// flags — in a durable single-process KV store. This replaces the
// source's module-level singletons (spec.md §9 "Global mutable state")
// with fields the Director owns and mutates, backed by Badger so a
// process restart mid-hour doesn't replay a podcast slot or forced
// command twice.
type Bookkeeping struct {
	db *badger.DB
}

const (
	keyLastPodcastSlot = "director:last_podcast_slot"
	keyLastSegmentType = "director:last_segment_type"
	keyForceSegment    = "director:force_segment"
	keyForcePodcast    = "director:force_podcast"
)

// OpenBookkeeping opens (or creates) the Badger store at dir.
func OpenBookkeeping(dir string) (*Bookkeeping, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open director bookkeeping store at %s: %w", dir, err)
	}
	return &Bookkeeping{db: db}, nil
}

// Close releases the underlying database handle.
func (b *Bookkeeping) Close() error {
	return b.db.Close()
}

func (b *Bookkeeping) get(key string) (string, bool) {
	var val string
	found := true
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			val = string(v)
			return nil
		})
	})
	if err != nil {
		return "", false
	}
	return val, found
}

func (b *Bookkeeping) set(key, val string) {
	_ = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(val))
	})
}

func (b *Bookkeeping) delete(key string) {
	_ = b.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// LastPodcastSlot returns the last "YYYYMMDDHH" slot a podcast was
// injected for, if any.
func (b *Bookkeeping) LastPodcastSlot() (string, bool) {
	return b.get(keyLastPodcastSlot)
}

// SetLastPodcastSlot records the slot just consumed.
func (b *Bookkeeping) SetLastPodcastSlot(slot string) {
	b.set(keyLastPodcastSlot, slot)
}

// LastSegmentType returns the segment type most recently played, if any.
func (b *Bookkeeping) LastSegmentType() (string, bool) {
	return b.get(keyLastSegmentType)
}

// SetLastSegmentType records the segment type just played.
func (b *Bookkeeping) SetLastSegmentType(segType string) {
	b.set(keyLastSegmentType, segType)
}

// ForceSegment sets the one-shot forced-segment flag from the command
// channel.
func (b *Bookkeeping) ForceSegment() {
	b.set(keyForceSegment, "1")
}

// ConsumeForceSegment reports and clears the forced-segment flag.
func (b *Bookkeeping) ConsumeForceSegment() bool {
	_, found := b.get(keyForceSegment)
	if found {
		b.delete(keyForceSegment)
	}
	return found
}

// ForcePodcast sets the one-shot forced-podcast flag from the command
// channel.
func (b *Bookkeeping) ForcePodcast() {
	b.set(keyForcePodcast, "1")
}

// ConsumeForcePodcast reports and clears the forced-podcast flag.
func (b *Bookkeeping) ConsumeForcePodcast() bool {
	_, found := b.get(keyForcePodcast)
	if found {
		b.delete(keyForcePodcast)
	}
	return found
}
