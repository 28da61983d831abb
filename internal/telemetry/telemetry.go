// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package telemetry publishes sensor samples to an MQTT broker as JSON.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/GermanBionicSystems/clickdevices/temphum18"
)

var (
	errStopped      = errors.New("telemetry: publisher stopped")
	errNotConnected = errors.New("telemetry: not connected")
)

// Config configures the MQTT connection.
type Config struct {
	// Broker is a broker URL such as tcp://localhost:1883.
	Broker   string
	ClientID string
	Username string
	Password string
	// StationID selects the topic stations/<StationID>/telemetry.
	StationID string
	// PublishTimeout bounds the wait for a QoS 1 acknowledgement. Defaults
	// to 5s.
	PublishTimeout time.Duration
}

// Message is the JSON payload of one sample.
type Message struct {
	StationID   string    `json:"station_id"`
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature_c"`
	Humidity    float64   `json:"humidity_pct"`
	Resolution  int       `json:"resolution_bits"`
	Status      string    `json:"status"`
	Sequence    int       `json:"sequence"`
}

// Topic returns the telemetry topic of a station.
func Topic(stationID string) string {
	return fmt.Sprintf("stations/%s/telemetry", stationID)
}

// Publisher sends samples to the broker. It is safe for concurrent use.
type Publisher struct {
	client mqtt.Client
	cfg    Config
	logger *slog.Logger

	mu  sync.Mutex
	seq int

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New returns a Publisher. It does not connect, call Connect.
func New(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, errors.New("telemetry: broker is required")
	}
	if cfg.StationID == "" {
		return nil, errors.New("telemetry: station id is required")
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info("mqtt connected", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})
	return newPublisher(mqtt.NewClient(opts), cfg, logger), nil
}

func newPublisher(c mqtt.Client, cfg Config, logger *slog.Logger) *Publisher {
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	return &Publisher{client: c, cfg: cfg, logger: logger, stopCh: make(chan struct{})}
}

// Connect waits for the first connection to the broker. It returns early
// when ctx is done or Close is called.
func (p *Publisher) Connect(ctx context.Context) error {
	select {
	case <-p.stopCh:
		return errStopped
	default:
	}
	if p.client.IsConnected() {
		return nil
	}
	token := p.client.Connect()
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("telemetry: connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return errStopped
		default:
		}
	}
}

// Publish sends s with QoS 1. The sequence number increases with every
// successful publication.
func (p *Publisher) Publish(s temphum18.Sample, res temphum18.Resolution, ts time.Time) error {
	if !p.client.IsConnected() {
		return errNotConnected
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	msg := Message{
		StationID:   p.cfg.StationID,
		Timestamp:   ts.UTC(),
		Temperature: s.Temperature,
		Humidity:    s.Humidity,
		Resolution:  res.Bits(),
		Status:      s.Status.String(),
		Sequence:    p.seq + 1,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("telemetry: marshal: %w", err)
	}
	topic := Topic(p.cfg.StationID)
	token := p.client.Publish(topic, 1, false, data)
	if !token.WaitTimeout(p.cfg.PublishTimeout) {
		return fmt.Errorf("telemetry: publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("telemetry: publish: %w", err)
	}
	p.seq++
	p.logger.Debug("published telemetry", "topic", topic, "sequence", msg.Sequence)
	return nil
}

// Close disconnects from the broker. It is safe to call more than once.
func (p *Publisher) Close() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.client.Disconnect(250)
}
