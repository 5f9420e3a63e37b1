// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/wvoid-fm/broadcast/internal/config"
)

// ErrEncoderDown is returned when the encoder could not be (re)connected.
var ErrEncoderDown = errors.New("engine: encoder is down")

// connectGrace is how long a freshly spawned encoder gets to prove it
// started cleanly before the caller treats the connection as down.
const connectGrace = 300 * time.Millisecond

// reconnectBackoff is the delay between respawn attempts, per spec.md
// §4.E point 6.
const reconnectBackoff = 10 * time.Second

// encoderSink is the write side of the single persistent encoder.
type encoderSink interface {
	Write(ctx context.Context, p []byte) (int, error)
	Close() error
}

// Encoder owns the one ffmpeg child connected to the Icecast mount. A
// mutex around spawn/teardown guarantees spec.md §4.E point 7: at most one
// encoder ever attaches to the mount.
type Encoder struct {
	command string
	icecast config.IcecastConfig

	mu            sync.Mutex
	cmd           *exec.Cmd
	stdin         io.WriteCloser
	lastAttemptAt time.Time
}

// NewEncoder builds an Encoder that shells out to command (default
// "ffmpeg") to push PCM to the configured Icecast mount.
func NewEncoder(command string, icecast config.IcecastConfig) *Encoder {
	if command == "" {
		command = "ffmpeg"
	}
	return &Encoder{command: command, icecast: icecast}
}

// Write ensures the encoder is connected, then writes p to its stdin. A
// write failure tears the encoder down so the next call respawns it.
func (e *Encoder) Write(ctx context.Context, p []byte) (int, error) {
	if err := e.ensureRunning(ctx); err != nil {
		return 0, err
	}

	e.mu.Lock()
	stdin := e.stdin
	e.mu.Unlock()
	if stdin == nil {
		return 0, ErrEncoderDown
	}

	n, err := stdin.Write(p)
	if err != nil {
		e.teardown()
		return n, fmt.Errorf("encoder write: %w", err)
	}
	return n, nil
}

func (e *Encoder) ensureRunning(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd != nil && e.cmd.ProcessState == nil {
		return nil
	}

	if !e.lastAttemptAt.IsZero() && time.Since(e.lastAttemptAt) < reconnectBackoff {
		return ErrEncoderDown
	}
	e.lastAttemptAt = time.Now()

	cmd := exec.CommandContext(ctx, e.command, e.buildArgs()...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("encoder stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrEncoderDown, err)
	}

	// A process that exits again within connectGrace never actually
	// connected to the mount — treat that the same as a failed connection
	// attempt rather than handing back a stdin pipe nothing is reading.
	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	select {
	case waitErr := <-exited:
		stdin.Close()
		return fmt.Errorf("%w: exited within connect grace: %v", ErrEncoderDown, waitErr)
	case <-time.After(connectGrace):
	}

	e.cmd = cmd
	e.stdin = stdin
	return nil
}

func (e *Encoder) buildArgs() []string {
	mountURL := fmt.Sprintf("icecast://%s:%s@%s:%d%s",
		e.icecast.User, e.icecast.Password, e.icecast.Host, e.icecast.Port, e.icecast.Mount)
	return []string{
		"-nostdin", "-hide_banner", "-loglevel", "error",
		"-re",
		"-f", "s16le", "-ar", "44100", "-ac", "2", "-i", "pipe:0",
		"-acodec", "libmp3lame", "-b:a", "192k",
		"-content_type", "audio/mpeg",
		"-ice_name", "WVOID-FM",
		mountURL,
	}
}

func (e *Encoder) teardown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stdin != nil {
		e.stdin.Close()
	}
	if e.cmd != nil && e.cmd.Process != nil {
		e.cmd.Process.Kill()
	}
	e.cmd = nil
	e.stdin = nil
}

// Close tears down the encoder for a graceful shutdown.
func (e *Encoder) Close() error {
	e.teardown()
	return nil
}
