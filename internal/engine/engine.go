// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"io"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/wvoid-fm/broadcast/internal/config"
	"github.com/wvoid-fm/broadcast/internal/logging"
	"github.com/wvoid-fm/broadcast/internal/metrics"
	"github.com/wvoid-fm/broadcast/internal/model"
)

// readBufferSize is the PCM chunk size read from the decoder and written
// to the encoder per iteration of the streaming loop.
const readBufferSize = 32 * 1024

// selectBackoff is how long the loop waits before retrying Next after the
// Director fails to produce an asset (e.g. an empty library).
const selectBackoff = 2 * time.Second

// AssetSource is the pull side of the Director: the single place the
// Engine asks "what plays next" and reports back what happened to it.
type AssetSource interface {
	Next(now time.Time) (model.PlaybackItem, error)
	OnAssetCompleted(item model.PlaybackItem, aborted bool)
}

// CommandTarget receives the one-shot effects of command-channel requests
// that the Director, not the Engine, is responsible for acting on.
type CommandTarget interface {
	ForceSegment()
	ForcePodcast()
}

// Source is the full interface the Engine needs from the Director.
type Source interface {
	AssetSource
	CommandTarget
}

// CommandPoller is a single non-blocking peek at the command channel. A
// true second return means a command was present and has already been
// consumed (edge-triggered, per spec.md §4.G).
type CommandPoller interface {
	Poll() (model.CommandKind, bool)
}

// Publisher writes the current NowPlaying document wherever it needs to
// go (files, websocket subscribers, the event bus).
type Publisher interface {
	Publish(ctx context.Context, np model.NowPlaying) error
}

// HistoryRecorder appends a completed play; implementations must not
// block the streaming thread on failure.
type HistoryRecorder interface {
	Record(ctx context.Context, rec model.PlayRecord)
}

// ListenerCounter reports the last known listener count.
type ListenerCounter interface {
	Current() int
}

// Engine is the Streaming Engine (§4.E). Run must only ever be called from
// one goroutine; that goroutine is "the streaming thread" referenced
// throughout the specification.
type Engine struct {
	source    Source
	decoder   decoderSource
	encoder   encoderSink
	publisher Publisher
	history   HistoryRecorder
	commands  CommandPoller
	listeners ListenerCounter

	running atomic.Bool
}

// New wires a Director-backed Source, the State Publisher, the Play
// History Store, the Command Channel, and a listener counter into an
// Engine that shells out to decoderCommand/encoderCommand (both default
// "ffmpeg" when empty).
func New(source Source, publisher Publisher, history HistoryRecorder, commands CommandPoller, listeners ListenerCounter, decoderCommand, encoderCommand string, icecast config.IcecastConfig) *Engine {
	return &Engine{
		source:    source,
		decoder:   NewDecoder(decoderCommand),
		encoder:   NewEncoder(encoderCommand, icecast),
		publisher: publisher,
		history:   history,
		commands:  commands,
		listeners: listeners,
	}
}

// Run drives the asset loop until ctx is cancelled or Stop is called. It
// never returns because of an asset-level failure — only context
// cancellation or an explicit Stop ends it, matching the propagation
// policy in spec.md §7.
func (e *Engine) Run(ctx context.Context) error {
	e.running.Store(true)
	defer e.running.Store(false)

	log := logging.WithComponent("engine")
	for e.running.Load() {
		if err := ctx.Err(); err != nil {
			return err
		}

		item, err := e.source.Next(time.Now())
		if err != nil {
			log.Warn().Err(err).Msg("director could not select next asset, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(selectBackoff):
			}
			continue
		}

		aborted := e.playAsset(ctx, item)
		e.source.OnAssetCompleted(item, aborted)
	}
	return nil
}

// Stop requests a graceful exit: the loop finishes (or aborts) whatever
// asset is currently streaming, then returns from Run. Call this from a
// SIGINT/SIGTERM handler alongside cancelling the context passed to Run.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// Shutdown tears down the persistent encoder. Call after Run returns.
func (e *Engine) Shutdown() error {
	return e.encoder.Close()
}

// playAsset runs one asset through Selecting(already done by the
// caller)->Decoding->Publishing->Streaming->Completed|Aborted. It returns
// true if the asset was aborted (skip, encoder failure, decoder failure,
// or shutdown) rather than completed.
func (e *Engine) playAsset(ctx context.Context, item model.PlaybackItem) bool {
	log := logging.WithComponent("engine")

	stdout, proc, err := e.decoder.Spawn(ctx, item)
	if err != nil {
		metrics.AssetFailuresTotal.WithLabelValues("decoder_spawn").Inc()
		log.Warn().Err(err).Str("path", item.Asset.Path).Msg("failed to spawn decoder, abandoning asset")
		return true
	}
	defer stdout.Close()

	np := model.NowPlaying{
		Track:     displayTrack(item),
		Kind:      item.Kind,
		Vibe:      item.Asset.Mood.Vibe,
		ShowID:    item.ShowID,
		ShowName:  item.ShowName,
		Timestamp: time.Now(),
		Listeners: e.currentListeners(),
	}
	if err := e.publisher.Publish(ctx, np); err != nil {
		log.Warn().Err(err).Msg("failed to publish now-playing")
	}

	aborted := e.stream(ctx, item, stdout, np)

	if aborted {
		_ = proc.Kill()
	}
	_ = proc.Wait()
	return aborted
}

// stream copies PCM from the decoder to the encoder in readBufferSize
// chunks, polling the command channel between chunks (spec.md §4.E point
// 5) and recording history the instant the first chunk is committed to
// the encoder (spec.md §5 publish-before-play / record-after-first-chunk
// ordering).
func (e *Engine) stream(ctx context.Context, item model.PlaybackItem, stdout io.Reader, np model.NowPlaying) bool {
	log := logging.WithComponent("engine")
	buf := make([]byte, readBufferSize)
	firstChunk := true

	for {
		if cmd, ok := e.commands.Poll(); ok {
			switch cmd {
			case model.CommandSkip:
				return true
			case model.CommandSegment:
				e.source.ForceSegment()
			case model.CommandPodcast:
				e.source.ForcePodcast()
			}
		}

		n, readErr := stdout.Read(buf)
		if n > 0 {
			if _, writeErr := e.encoder.Write(ctx, buf[:n]); writeErr != nil {
				metrics.EncoderRestartsTotal.Inc()
				log.Warn().Err(writeErr).Msg("encoder write failed, aborting asset")
				return true
			}
			if firstChunk {
				firstChunk = false
				e.recordPlay(ctx, item, np)
			}
		}

		if readErr != nil {
			if readErr != io.EOF {
				log.Warn().Err(readErr).Str("path", item.Asset.Path).Msg("decoder read error")
				return true
			}
			return false
		}

		if ctx.Err() != nil {
			return true
		}
	}
}

func (e *Engine) recordPlay(ctx context.Context, item model.PlaybackItem, np model.NowPlaying) {
	now := time.Now()
	e.history.Record(ctx, model.PlayRecord{
		Path:            item.Asset.Path,
		TrackName:       item.Asset.TrackName,
		Artist:          item.Asset.Artist,
		Vibe:            item.Asset.Mood.Vibe,
		TimePeriod:      string(model.PeriodForMinute(now.Hour()*60 + now.Minute())),
		ShowID:          item.ShowID,
		ListenersAtPlay: np.Listeners,
		PlayedAt:        now,
	})
	metrics.TracksPlayedTotal.WithLabelValues(string(item.Kind)).Inc()
}

func (e *Engine) currentListeners() int {
	if e.listeners == nil {
		return 0
	}
	return e.listeners.Current()
}

func displayTrack(item model.PlaybackItem) string {
	switch {
	case item.Asset.Artist != "" && item.Asset.TrackName != "":
		return item.Asset.Artist + " - " + item.Asset.TrackName
	case item.Asset.TrackName != "":
		return item.Asset.TrackName
	default:
		return filepath.Base(item.Asset.Path)
	}
}
