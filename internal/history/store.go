// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history implements §4.B of the broadcast specification: a
// durable, DuckDB-backed record of past plays queryable by recency and by
// aggregate stats. Every operation here degrades rather than fails the
// caller — reads return empty defaults on error, writes are best-effort —
// because the streaming thread must never block on this store.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/wvoid-fm/broadcast/internal/logging"
	"github.com/wvoid-fm/broadcast/internal/metrics"
	"github.com/wvoid-fm/broadcast/internal/model"
)

// Store is the Play History Store keyed by asset path.
type Store struct {
	db *sql.DB
}

// Open creates (or attaches to) the history database at path, creating
// parent directories and the schema if needed.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create history directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open history database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // single-writer from the streaming thread, per spec §5

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history schema: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS plays (
			path              VARCHAR NOT NULL,
			track_name        VARCHAR NOT NULL,
			artist            VARCHAR,
			vibe              VARCHAR NOT NULL,
			time_period       VARCHAR,
			show_id           VARCHAR,
			listeners_at_play INTEGER NOT NULL DEFAULT 0,
			played_at         TIMESTAMP NOT NULL
		)
	`)
	return err
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends a play. It never fails the caller meaningfully — on
// error it logs and increments a metric, matching the "writes are
// best-effort and MUST NOT block the streaming path" contract. Call this
// from a goroutine (or accept the small insert latency) after the engine
// has committed to streaming the asset, never before.
func (s *Store) Record(ctx context.Context, rec model.PlayRecord) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plays (path, track_name, artist, vibe, time_period, show_id, listeners_at_play, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Path, rec.TrackName, rec.Artist, string(rec.Vibe), rec.TimePeriod, rec.ShowID, rec.ListenersAtPlay, rec.PlayedAt)
	if err != nil {
		metrics.HistoryWriteErrorsTotal.Inc()
		logging.WithComponent("history").Warn().Err(err).Str("path", rec.Path).Msg("failed to record play, skipping row")
	}
}

// WasPlayedRecently reports whether path has a record within the last
// window. Returns false (never blocks, never panics) on query error.
func (s *Store) WasPlayedRecently(ctx context.Context, path string, window time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-window)
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM plays WHERE path = ? AND played_at >= ?
	`, path, cutoff).Scan(&count)
	if err != nil {
		logging.WithComponent("history").Warn().Err(err).Str("path", path).Msg("recency query failed, assuming not recently played")
		return false
	}
	return count > 0
}

// FilterRecent returns the subset of candidates with no play record within
// window — the set difference the Director uses to build its queue.
func (s *Store) FilterRecent(ctx context.Context, candidates []string, window time.Duration) []string {
	if len(candidates) == 0 {
		return nil
	}
	recent := s.recentlyPlayedSet(ctx, candidates, window)
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if !recent[c] {
			out = append(out, c)
		}
	}
	return out
}

func (s *Store) recentlyPlayedSet(ctx context.Context, candidates []string, window time.Duration) map[string]bool {
	result := make(map[string]bool, len(candidates))
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-window)
	query, args := buildInQuery(`SELECT DISTINCT path FROM plays WHERE played_at >= ? AND path IN (`, cutoff, candidates)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logging.WithComponent("history").Warn().Err(err).Msg("recent-set query failed, treating all candidates as unplayed")
		return result
	}
	defer rows.Close()

	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			continue
		}
		result[path] = true
	}
	return result
}

func buildInQuery(prefix string, cutoff time.Time, candidates []string) (string, []any) {
	args := make([]any, 0, len(candidates)+1)
	args = append(args, cutoff)
	query := prefix
	for i, c := range candidates {
		if i > 0 {
			query += ", "
		}
		query += "?"
		args = append(args, c)
	}
	query += ")"
	return query, args
}

// Recent returns the most recent plays, newest first, up to limit.
func (s *Store) Recent(ctx context.Context, limit int) []model.PlayRecord {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, track_name, artist, vibe, time_period, show_id, listeners_at_play, played_at
		FROM plays ORDER BY played_at DESC LIMIT ?
	`, limit)
	if err != nil {
		logging.WithComponent("history").Warn().Err(err).Msg("recent query failed")
		return nil
	}
	defer rows.Close()
	return scanPlayRows(rows)
}

// MostPlayedEntry is one row of the most-played ranking.
type MostPlayedEntry struct {
	Path      string `json:"path"`
	TrackName string `json:"track_name"`
	Plays     int    `json:"plays"`
}

// MostPlayed returns the tracks with the most plays, descending.
func (s *Store) MostPlayed(ctx context.Context, limit int) []MostPlayedEntry {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, any_value(track_name), COUNT(*) as plays
		FROM plays GROUP BY path ORDER BY plays DESC LIMIT ?
	`, limit)
	if err != nil {
		logging.WithComponent("history").Warn().Err(err).Msg("most-played query failed")
		return nil
	}
	defer rows.Close()

	var out []MostPlayedEntry
	for rows.Next() {
		var e MostPlayedEntry
		if err := rows.Scan(&e.Path, &e.TrackName, &e.Plays); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Stats computes the aggregate summary served by /history.
func (s *Store) Stats(ctx context.Context) model.HistoryStats {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	stats := model.HistoryStats{
		ByTimePeriod: map[string]int{},
		ByVibe:       map[string]int{},
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT path), COALESCE(SUM(listeners_at_play), 0),
		       MIN(played_at), MAX(played_at)
		FROM plays
	`)
	var first, last sql.NullTime
	var listeners int64
	if err := row.Scan(&stats.Plays, &stats.UniqueTracks, &listeners, &first, &last); err != nil {
		logging.WithComponent("history").Warn().Err(err).Msg("stats query failed")
		return stats
	}
	stats.ListenersServed = listeners
	if first.Valid {
		t := first.Time
		stats.FirstPlay = &t
	}
	if last.Valid {
		t := last.Time
		stats.LastPlay = &t
	}

	if rows, err := s.db.QueryContext(ctx, `SELECT time_period, COUNT(*) FROM plays WHERE time_period IS NOT NULL GROUP BY time_period`); err == nil {
		defer rows.Close()
		for rows.Next() {
			var period string
			var count int
			if rows.Scan(&period, &count) == nil {
				stats.ByTimePeriod[period] = count
			}
		}
	}

	if rows, err := s.db.QueryContext(ctx, `SELECT vibe, COUNT(*) FROM plays GROUP BY vibe`); err == nil {
		defer rows.Close()
		for rows.Next() {
			var vibe string
			var count int
			if rows.Scan(&vibe, &count) == nil {
				stats.ByVibe[vibe] = count
			}
		}
	}

	return stats
}

func scanPlayRows(rows *sql.Rows) []model.PlayRecord {
	var out []model.PlayRecord
	for rows.Next() {
		var rec model.PlayRecord
		var vibe string
		var artist, timePeriod, showID sql.NullString
		if err := rows.Scan(&rec.Path, &rec.TrackName, &artist, &vibe, &timePeriod, &showID, &rec.ListenersAtPlay, &rec.PlayedAt); err != nil {
			continue
		}
		rec.Artist = artist.String
		rec.TimePeriod = timePeriod.String
		rec.ShowID = showID.String
		rec.Vibe = model.Vibe(vibe)
		out = append(out, rec)
	}
	return out
}
