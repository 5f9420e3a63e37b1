// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/wvoid-fm/broadcast/internal/model"
)

// Process abstracts the lifecycle of a spawned decoder child so the Engine
// can wait on and kill it without depending on os/exec directly, which
// keeps the streaming loop substitutable in tests.
type Process interface {
	Wait() error
	Kill() error
}

type cmdProcess struct {
	cmd *exec.Cmd
}

func (p *cmdProcess) Wait() error { return p.cmd.Wait() }

func (p *cmdProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

// decoderSource spawns one short-lived decoder per playback item and
// returns its raw PCM stdout stream.
type decoderSource interface {
	Spawn(ctx context.Context, item model.PlaybackItem) (io.ReadCloser, Process, error)
}

// Decoder spawns a per-asset decode subprocess implementing spec.md
// §4.E points 2-3: loudness normalization, fades on chopped music, and
// seek/duration flags for the chopped window.
type Decoder struct {
	Command string
}

// NewDecoder builds a Decoder that shells out to command (default
// "ffmpeg").
func NewDecoder(command string) *Decoder {
	if command == "" {
		command = "ffmpeg"
	}
	return &Decoder{Command: command}
}

// Spawn starts the decoder for item and returns its stdout stream, raw
// s16le/44.1kHz/stereo PCM ready to feed straight to the encoder.
func (d *Decoder) Spawn(ctx context.Context, item model.PlaybackItem) (io.ReadCloser, Process, error) {
	cmd := exec.CommandContext(ctx, d.Command, buildDecodeArgs(item)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("decoder stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("spawn decoder for %s: %w", item.Asset.Path, err)
	}
	return stdout, &cmdProcess{cmd: cmd}, nil
}

func buildDecodeArgs(item model.PlaybackItem) []string {
	args := []string{"-nostdin", "-hide_banner", "-loglevel", "error"}
	if item.StartOffset > 0 {
		args = append(args, "-ss", formatSeconds(item.StartOffset))
	}
	args = append(args, "-i", item.Asset.Path)
	if item.PlayLength > 0 && (!item.Asset.DurationKnown || item.PlayLength < item.Asset.Duration) {
		args = append(args, "-t", formatSeconds(item.PlayLength))
	}
	if filters := buildFilterChain(item); len(filters) > 0 {
		args = append(args, "-af", strings.Join(filters, ","))
	}
	args = append(args, "-ar", "44100", "-ac", "2", "-f", "s16le", "pipe:1")
	return args
}

// buildFilterChain implements the loudness/fade contract: -16 LUFS for
// music, -14 LUFS for speech, and an 8s in/out fade for music chopped to
// longer than 16s.
func buildFilterChain(item model.PlaybackItem) []string {
	var filters []string
	if item.IsSpeech {
		filters = append(filters, "loudnorm=I=-14:TP=-1.5:LRA=11")
	} else {
		filters = append(filters, "loudnorm=I=-16:TP=-1.5:LRA=11")
	}

	const fadeDuration = 8 * time.Second
	if item.Kind == model.KindMusic && item.PlayLength > 16*time.Second {
		filters = append(filters, "afade=t=in:d=8")
		fadeStart := item.PlayLength - fadeDuration
		filters = append(filters, fmt.Sprintf("afade=t=out:st=%s:d=8", formatSeconds(fadeStart)))
	}
	return filters
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
