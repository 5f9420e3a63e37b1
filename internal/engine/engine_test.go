// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wvoid-fm/broadcast/internal/model"
)

type fakeProc struct {
	killed bool
	waited bool
}

func (p *fakeProc) Wait() error { p.waited = true; return nil }
func (p *fakeProc) Kill() error { p.killed = true; return nil }

type fakeDecoder struct {
	data    []byte
	spawnErr error
	proc    *fakeProc
}

func (d *fakeDecoder) Spawn(ctx context.Context, item model.PlaybackItem) (io.ReadCloser, Process, error) {
	if d.spawnErr != nil {
		return nil, nil, d.spawnErr
	}
	d.proc = &fakeProc{}
	return io.NopCloser(bytes.NewReader(d.data)), d.proc, nil
}

type fakeEncoder struct {
	writes  [][]byte
	writeErr error
	closed  bool
}

func (e *fakeEncoder) Write(ctx context.Context, p []byte) (int, error) {
	if e.writeErr != nil {
		return 0, e.writeErr
	}
	cp := append([]byte(nil), p...)
	e.writes = append(e.writes, cp)
	return len(p), nil
}

func (e *fakeEncoder) Close() error { e.closed = true; return nil }

type fakeSource struct {
	segmentForced bool
	podcastForced bool
}

func (s *fakeSource) Next(now time.Time) (model.PlaybackItem, error) { return model.PlaybackItem{}, nil }
func (s *fakeSource) OnAssetCompleted(item model.PlaybackItem, aborted bool) {}
func (s *fakeSource) ForceSegment() { s.segmentForced = true }
func (s *fakeSource) ForcePodcast() { s.podcastForced = true }

type fakePublisher struct {
	published []model.NowPlaying
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, np model.NowPlaying) error {
	p.published = append(p.published, np)
	return p.err
}

type fakeHistory struct {
	records []model.PlayRecord
}

func (h *fakeHistory) Record(ctx context.Context, rec model.PlayRecord) {
	h.records = append(h.records, rec)
}

type fakeCommands struct {
	queue []model.CommandKind
}

func (c *fakeCommands) Poll() (model.CommandKind, bool) {
	if len(c.queue) == 0 {
		return "", false
	}
	cmd := c.queue[0]
	c.queue = c.queue[1:]
	return cmd, true
}

type fakeListeners struct{ n int }

func (l *fakeListeners) Current() int { return l.n }

func newTestEngine(decoder *fakeDecoder, enc *fakeEncoder, source *fakeSource, pub *fakePublisher, hist *fakeHistory, cmds *fakeCommands) *Engine {
	return &Engine{
		source:    source,
		decoder:   decoder,
		encoder:   enc,
		publisher: pub,
		history:   hist,
		commands:  cmds,
		listeners: &fakeListeners{n: 7},
	}
}

func testItem() model.PlaybackItem {
	return model.PlaybackItem{
		Asset:      model.Asset{Path: "music/a.mp3", TrackName: "Song", Artist: "Artist"},
		Kind:       model.KindMusic,
		PlayLength: 3 * time.Minute,
	}
}

func TestPlayAsset_PublishesBeforeStreamingAndRecordsAfterFirstChunk(t *testing.T) {
	decoder := &fakeDecoder{data: []byte("some-pcm-bytes")}
	enc := &fakeEncoder{}
	source := &fakeSource{}
	pub := &fakePublisher{}
	hist := &fakeHistory{}
	cmds := &fakeCommands{}

	e := newTestEngine(decoder, enc, source, pub, hist, cmds)
	aborted := e.playAsset(context.Background(), testItem())

	require.False(t, aborted)
	require.Len(t, pub.published, 1, "now-playing must be published exactly once")
	require.Len(t, enc.writes, 1, "all pcm bytes fit in a single read in this test")
	require.Len(t, hist.records, 1, "history is recorded once the first chunk streams")
	require.Equal(t, "music/a.mp3", hist.records[0].Path)
	require.Equal(t, 7, hist.records[0].ListenersAtPlay)
	require.True(t, decoder.proc.waited)
	require.False(t, decoder.proc.killed, "a completed asset must not be killed")
}

func TestPlayAsset_SkipCommandAbortsImmediately(t *testing.T) {
	decoder := &fakeDecoder{data: bytes.Repeat([]byte{0}, 1024)}
	enc := &fakeEncoder{}
	source := &fakeSource{}
	pub := &fakePublisher{}
	hist := &fakeHistory{}
	cmds := &fakeCommands{queue: []model.CommandKind{model.CommandSkip}}

	e := newTestEngine(decoder, enc, source, pub, hist, cmds)
	aborted := e.playAsset(context.Background(), testItem())

	require.True(t, aborted)
	require.Empty(t, hist.records, "an aborted asset is never counted as played")
	require.True(t, decoder.proc.killed)
}

func TestPlayAsset_SegmentCommandForwardsToDirectorAndContinues(t *testing.T) {
	decoder := &fakeDecoder{data: []byte("pcm")}
	enc := &fakeEncoder{}
	source := &fakeSource{}
	pub := &fakePublisher{}
	hist := &fakeHistory{}
	cmds := &fakeCommands{queue: []model.CommandKind{model.CommandSegment}}

	e := newTestEngine(decoder, enc, source, pub, hist, cmds)
	aborted := e.playAsset(context.Background(), testItem())

	require.False(t, aborted)
	require.True(t, source.segmentForced)
	require.Len(t, hist.records, 1, "a forced segment command does not abort the currently streaming asset")
}

func TestPlayAsset_DecoderSpawnFailureAbandonsAsset(t *testing.T) {
	decoder := &fakeDecoder{spawnErr: errors.New("no such file")}
	enc := &fakeEncoder{}
	source := &fakeSource{}
	pub := &fakePublisher{}
	hist := &fakeHistory{}
	cmds := &fakeCommands{}

	e := newTestEngine(decoder, enc, source, pub, hist, cmds)
	aborted := e.playAsset(context.Background(), testItem())

	require.True(t, aborted)
	require.Empty(t, pub.published, "never publish now-playing for an asset that failed to start")
	require.Empty(t, hist.records)
}

func TestPlayAsset_EncoderWriteFailureAbortsAndKillsDecoder(t *testing.T) {
	decoder := &fakeDecoder{data: []byte("pcm")}
	enc := &fakeEncoder{writeErr: errors.New("broken pipe")}
	source := &fakeSource{}
	pub := &fakePublisher{}
	hist := &fakeHistory{}
	cmds := &fakeCommands{}

	e := newTestEngine(decoder, enc, source, pub, hist, cmds)
	aborted := e.playAsset(context.Background(), testItem())

	require.True(t, aborted)
	require.True(t, decoder.proc.killed)
	require.Empty(t, hist.records)
}

func TestDisplayTrack_FallsBackToFilename(t *testing.T) {
	item := model.PlaybackItem{Asset: model.Asset{Path: "music/unlabeled.mp3"}}
	require.Equal(t, "unlabeled.mp3", displayTrack(item))
}
