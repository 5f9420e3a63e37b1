// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// messageRateLimiter enforces the one-submission-per-cooldown-per-client
// rule on POST /message, durably — a restart mid-cooldown must not let a
// client bypass it. Grounded on the same get/set-over-Badger shape as
// internal/director.Bookkeeping, but here each entry carries a TTL equal
// to the cooldown so expiry is Badger's job, not ours.
type messageRateLimiter struct {
	db       *badger.DB
	cooldown time.Duration
}

func newMessageRateLimiter(dir string, cooldown time.Duration) (*messageRateLimiter, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open message rate-limit ledger at %s: %w", dir, err)
	}
	return &messageRateLimiter{db: db, cooldown: cooldown}, nil
}

func (l *messageRateLimiter) Close() error {
	return l.db.Close()
}

// allow reports whether clientKey may submit now. If not, it returns the
// number of seconds the client must still wait. If so, it records the
// submission so the next call within the cooldown is rejected.
func (l *messageRateLimiter) allow(clientKey string) (ok bool, waitSeconds int) {
	key := []byte("msg_ratelimit:" + clientKey)

	var expiresAt time.Time
	found := false
	_ = l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return nil
		}
		found = true
		return item.Value(func(v []byte) error {
			t, err := time.Parse(time.RFC3339Nano, string(v))
			if err == nil {
				expiresAt = t
			}
			return nil
		})
	})

	if found {
		if remaining := time.Until(expiresAt); remaining > 0 {
			return false, int(remaining.Seconds()) + 1
		}
	}

	_ = l.db.Update(func(txn *badger.Txn) error {
		until := time.Now().Add(l.cooldown)
		entry := badger.NewEntry(key, []byte(until.Format(time.RFC3339Nano))).WithTTL(l.cooldown)
		return txn.SetEntry(entry)
	})
	return true, 0
}
