// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package assetindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/wvoid-fm/broadcast/internal/logging"
)

// ProbeTimeout bounds a single external audio-probe invocation per spec
// §6/§7 ("short timeouts, ≤10s").
const ProbeTimeout = 10 * time.Second

// probeFormat is the subset of an ffprobe -show_format JSON document the
// Prober reads.
type probeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Prober obtains an asset's duration via an external audio-probe command
// (ffprobe by default). Failures degrade to "unknown" — callers must treat
// the asset as unchoppable, never as a fatal error, per §4.A/§7.
type Prober struct {
	command  string
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[time.Duration]
}

// NewProber constructs a Prober. command defaults to "ffprobe" when empty.
func NewProber(command string) *Prober {
	if command == "" {
		command = "ffprobe"
	}
	st := gobreaker.Settings{
		Name:        "audio-probe",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Prober{
		command: command,
		limiter: rate.NewLimiter(rate.Every(50*time.Millisecond), 4),
		breaker: gobreaker.NewCircuitBreaker[time.Duration](st),
	}
}

// Probe returns the asset's duration. The bool return reports whether the
// duration is known; false on any failure (process error, timeout, circuit
// open, unparsable output).
func (p *Prober) Probe(ctx context.Context, path string) (time.Duration, bool) {
	if err := p.limiter.Wait(ctx); err != nil {
		return 0, false
	}

	d, err := p.breaker.Execute(func() (time.Duration, error) {
		return p.run(ctx, path)
	})
	if err != nil {
		logging.WithComponent("assetindex").Warn().Err(err).Str("path", path).Msg("audio probe failed, treating as unchoppable")
		return 0, false
	}
	return d, true
}

func (p *Prober) run(ctx context.Context, path string) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.command,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		path,
	)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("probe %s: %w", path, err)
	}

	var parsed probeFormat
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		return 0, fmt.Errorf("parse probe output for %s: %w", path, err)
	}

	seconds, err := time.ParseDuration(parsed.Format.Duration + "s")
	if err != nil {
		return 0, fmt.Errorf("parse duration %q for %s: %w", parsed.Format.Duration, path, err)
	}
	return seconds, nil
}
