// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package services

import "context"

// Runner matches the Streaming Engine's Run/Stop lifecycle: Run blocks
// until ctx is cancelled or a fatal error occurs, Stop requests an
// immediate halt of the current asset.
type Runner interface {
	Run(ctx context.Context) error
	Stop()
}

// EngineService wraps a Runner (the Streaming Engine) as a supervised
// service, so a decoder/encoder crash restarts the streaming loop instead
// of taking down the whole process.
type EngineService struct {
	runner Runner
	name   string
}

// NewEngineService wraps runner under name (used in supervisor logs).
func NewEngineService(runner Runner, name string) *EngineService {
	if name == "" {
		name = "streaming-engine"
	}
	return &EngineService{runner: runner, name: name}
}

// Serve implements suture.Service.
func (s *EngineService) Serve(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- s.runner.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		s.runner.Stop()
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func (s *EngineService) String() string { return s.name }
