// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build nats

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	natsserver "github.com/nats-io/nats-server/v2/server"

	"github.com/wvoid-fm/broadcast/internal/config"
	"github.com/wvoid-fm/broadcast/internal/logging"
)

const (
	streamName    = "WVOID_PLAYBACK"
	streamSubject = "playback.>"
	readyTimeout  = 30 * time.Second
)

// natsBus is the embedded-NATS-backed Bus: an in-process NATS server with
// JetStream enabled, a durable stream retaining playback events, and a
// Watermill publisher on top of it.
type natsBus struct {
	server    *natsserver.Server
	conn      *natsgo.Conn
	publisher message.Publisher
}

// NewBus starts an embedded NATS JetStream server under cfg.StoreDir and
// returns a Bus publishing to it. Returns an error if the server fails to
// become ready within readyTimeout or the backing stream can't be created.
func NewBus(cfg config.EventsConfig) (Bus, error) {
	log := logging.WithComponent("events")

	opts := &natsserver.Options{
		ServerName: "wvoid-playback",
		Host:       "127.0.0.1",
		Port:       -1, // random free port, client-only use
		JetStream:  true,
		StoreDir:   cfg.StoreDir,
		NoLog:      true,
	}

	ns, err := natsserver.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create embedded nats server: %w", err)
	}
	ns.ConfigureLogger()
	go ns.Start()
	if !ns.ReadyForConnections(readyTimeout) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded nats server not ready within %s", readyTimeout)
	}

	nc, err := natsgo.Connect(ns.ClientURL(), natsgo.RetryOnFailedConnect(true))
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("connect to embedded nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		ns.Shutdown()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), readyTimeout)
	defer cancel()
	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{streamSubject},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   jetstream.FileStorage,
	}); err != nil {
		nc.Close()
		ns.Shutdown()
		return nil, fmt.Errorf("ensure playback stream: %w", err)
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL: ns.ClientURL(),
		NatsOptions: []natsgo.Option{
			natsgo.RetryOnFailedConnect(true),
		},
		Marshaler: &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
		},
	}, watermill.NewStdLogger(false, false))
	if err != nil {
		nc.Close()
		ns.Shutdown()
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	log.Info().Str("url", ns.ClientURL()).Msg("embedded playback event bus ready")
	return &natsBus{server: ns, conn: nc, publisher: pub}, nil
}

func (b *natsBus) Publish(_ context.Context, evt AssetTransitionEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal asset transition event: %w", err)
	}
	msg := message.NewMessage(evt.EventID, payload)
	return b.publisher.Publish(evt.Topic(), msg)
}

func (b *natsBus) Close() error {
	if err := b.publisher.Close(); err != nil {
		logging.WithComponent("events").Warn().Err(err).Msg("failed to close watermill publisher")
	}
	b.conn.Close()
	b.server.Shutdown()
	b.server.WaitForShutdown()
	return nil
}
