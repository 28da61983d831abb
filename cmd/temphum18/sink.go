// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"

	"github.com/GermanBionicSystems/clickdevices/internal/history"
	"github.com/GermanBionicSystems/clickdevices/internal/telemetry"
	"github.com/GermanBionicSystems/clickdevices/panel"
	"github.com/GermanBionicSystems/clickdevices/screen1d"
)

// sink receives every valid sample.
type sink interface {
	fmt.Stringer
	Write(ctx context.Context, r history.Reading) error
	Close() error
}

type mqttSink struct {
	p *telemetry.Publisher
}

func (s *mqttSink) String() string { return "mqtt" }

func (s *mqttSink) Write(_ context.Context, r history.Reading) error {
	return s.p.Publish(r.Sample, r.Resolution, r.Time)
}

func (s *mqttSink) Close() error {
	s.p.Close()
	return nil
}

type historySink struct {
	st *history.Store
}

func (s *historySink) String() string { return "history" }

func (s *historySink) Write(ctx context.Context, r history.Reading) error {
	return s.st.Insert(ctx, r)
}

func (s *historySink) Close() error {
	return s.st.Close()
}

type gaugeSink struct {
	d *screen1d.Dev
}

func (s *gaugeSink) String() string { return "gauge" }

func (s *gaugeSink) Write(_ context.Context, r history.Reading) error {
	s.d.SetLabel(fmt.Sprintf("%5.1f%%RH %6.2f°C", r.Sample.Humidity, r.Sample.Temperature))
	img := panel.Strip(r.Sample.Env(), s.d.Bounds().Dx())
	return s.d.Draw(s.d.Bounds(), img, img.Bounds().Min)
}

func (s *gaugeSink) Close() error {
	return s.d.Halt()
}

type pngSink struct {
	path    string
	caption string
}

func (s *pngSink) String() string { return "png" }

func (s *pngSink) Write(_ context.Context, r history.Reading) error {
	caption := fmt.Sprintf("%s %s", s.caption, r.Time.Format("15:04:05"))
	return panel.SavePNG(s.path, r.Sample.Env(), caption, 250, 122)
}

func (s *pngSink) Close() error { return nil }
