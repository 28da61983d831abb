// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/go-cmp/cmp"

	"github.com/GermanBionicSystems/clickdevices/temphum18"
)

type fakeToken struct {
	done bool
	err  error
}

func (t *fakeToken) Wait() bool { return t.done }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.done }
func (t *fakeToken) Done() <-chan struct{} {
	c := make(chan struct{})
	if t.done {
		close(c)
	}
	return c
}
func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient implements the parts of mqtt.Client used by Publisher.
type fakeClient struct {
	mqtt.Client
	connected    bool
	connectToken *fakeToken
	publishToken *fakeToken
	published    []published
	disconnected bool
}

func (c *fakeClient) IsConnected() bool { return c.connected }
func (c *fakeClient) Connect() mqtt.Token {
	return c.connectToken
}
func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.published = append(c.published, published{topic, qos, retained, payload.([]byte)})
	return c.publishToken
}
func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublish(t *testing.T) {
	c := &fakeClient{connected: true, publishToken: &fakeToken{done: true}}
	p := newPublisher(c, Config{StationID: "lab"}, discard())
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := temphum18.Sample{Temperature: 21.5, Humidity: 40.25, Status: temphum18.StatusValid}
	for i := 0; i < 2; i++ {
		if err := p.Publish(s, temphum18.Resolution14Bit, ts); err != nil {
			t.Fatal(err)
		}
	}
	if len(c.published) != 2 {
		t.Fatalf("published %d messages", len(c.published))
	}
	got := c.published[1]
	if got.topic != "stations/lab/telemetry" || got.qos != 1 || got.retained {
		t.Errorf("unexpected publication %+v", got)
	}
	var msg Message
	if err := json.Unmarshal(got.payload, &msg); err != nil {
		t.Fatal(err)
	}
	want := Message{
		StationID:   "lab",
		Timestamp:   ts,
		Temperature: 21.5,
		Humidity:    40.25,
		Resolution:  14,
		Status:      "valid",
		Sequence:    2,
	}
	if diff := cmp.Diff(want, msg); diff != "" {
		t.Errorf("message (-want +got):\n%s", diff)
	}
}

func TestPublish_errors(t *testing.T) {
	s := temphum18.Sample{}
	p := newPublisher(&fakeClient{}, Config{StationID: "lab"}, discard())
	if err := p.Publish(s, temphum18.Resolution14Bit, time.Now()); !errors.Is(err, errNotConnected) {
		t.Errorf("err = %v, want %v", err, errNotConnected)
	}

	p = newPublisher(&fakeClient{connected: true, publishToken: &fakeToken{}}, Config{StationID: "lab", PublishTimeout: time.Millisecond}, discard())
	if err := p.Publish(s, temphum18.Resolution14Bit, time.Now()); err == nil {
		t.Error("expected timeout")
	}

	brokerErr := errors.New("not authorized")
	c := &fakeClient{connected: true, publishToken: &fakeToken{done: true, err: brokerErr}}
	p = newPublisher(c, Config{StationID: "lab"}, discard())
	if err := p.Publish(s, temphum18.Resolution14Bit, time.Now()); !errors.Is(err, brokerErr) {
		t.Errorf("err = %v, want %v", err, brokerErr)
	}
	if p.seq != 0 {
		t.Errorf("sequence advanced on failure: %d", p.seq)
	}
}

func TestConnect(t *testing.T) {
	c := &fakeClient{connectToken: &fakeToken{done: true}}
	p := newPublisher(c, Config{StationID: "lab"}, discard())
	if err := p.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	refused := errors.New("refused")
	c.connectToken = &fakeToken{done: true, err: refused}
	if err := p.Connect(context.Background()); !errors.Is(err, refused) {
		t.Errorf("err = %v, want %v", err, refused)
	}

	// A pending connection is abandoned when ctx is done.
	c.connectToken = &fakeToken{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Connect(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}

	p.Close()
	p.Close()
	if !c.disconnected {
		t.Error("Close did not disconnect")
	}
	if err := p.Connect(context.Background()); !errors.Is(err, errStopped) {
		t.Errorf("err = %v, want %v", err, errStopped)
	}
}

func TestNew(t *testing.T) {
	if _, err := New(Config{StationID: "lab"}, discard()); err == nil {
		t.Error("expected error without broker")
	}
	if _, err := New(Config{Broker: "tcp://localhost:1883"}, discard()); err == nil {
		t.Error("expected error without station")
	}
	p, err := New(Config{Broker: "tcp://localhost:1883", StationID: "lab"}, discard())
	if err != nil {
		t.Fatal(err)
	}
	if p.cfg.PublishTimeout != 5*time.Second {
		t.Errorf("PublishTimeout = %s", p.cfg.PublishTimeout)
	}
}

func TestTopic(t *testing.T) {
	if got := Topic("roof"); got != "stations/roof/telemetry" {
		t.Errorf("Topic() = %q", got)
	}
}
