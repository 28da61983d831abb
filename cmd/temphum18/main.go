// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// temphum18 polls a Temp&Hum 18 click and forwards the samples to the log,
// an MQTT broker, a SQLite file, a terminal gauge or a PNG card.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/clickdevices/internal/history"
	"github.com/GermanBionicSystems/clickdevices/internal/telemetry"
	"github.com/GermanBionicSystems/clickdevices/screen1d"
	"github.com/GermanBionicSystems/clickdevices/temphum18"
)

const appName = "temphum18"

var version = "dev"

// reader is the part of *temphum18.Dev used by the polling loop.
type reader interface {
	Read(res temphum18.Resolution) (temphum18.Sample, error)
}

func main() {
	cfg, err := loadConfig(os.Args[1:], os.Getenv, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "temphum18: %v\n", err)
		os.Exit(2)
	}
	logger := newLogger(os.Stderr, cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
	logger.Info("shutting down")
}

func run(ctx context.Context, cfg config, logger *slog.Logger) error {
	if _, err := host.Init(); err != nil {
		return err
	}
	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return fmt.Errorf("failed to open I²C: %w", err)
	}
	defer bus.Close()

	dev, err := temphum18.NewI2C(bus, uint16(cfg.Addr), &temphum18.Opts{Resolution: cfg.Resolution})
	if err != nil {
		return err
	}
	logger.Info("sensor ready", "device", dev.String(), "resolution", cfg.Resolution.String())

	if cfg.Program {
		if err := program(dev, cfg.Resolution); err != nil {
			return err
		}
		logger.Info("resolution programmed", "resolution", cfg.Resolution.String())
	}

	sinks, err := openSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, s := range sinks {
			if err := s.Close(); err != nil {
				logger.Warn("close failed", "sink", s.String(), "error", err)
			}
		}
	}()
	return poll(ctx, dev, cfg.Resolution, cfg.Interval, cfg.Count, sinks, logger)
}

// program stores res for both channels. The sensor only enters programming
// mode right after power up.
func program(dev *temphum18.Dev, res temphum18.Resolution) error {
	if err := dev.EnterProgrammingMode(); err != nil {
		return err
	}
	if err := dev.SetHumidityResolution(res); err != nil {
		return err
	}
	if err := dev.SetTemperatureResolution(res); err != nil {
		return err
	}
	return dev.EnterMeasurementMode()
}

func openSinks(ctx context.Context, cfg config, logger *slog.Logger) ([]sink, error) {
	var sinks []sink
	if cfg.MQTT.Broker != "" {
		p, err := telemetry.New(cfg.MQTT, logger)
		if err != nil {
			return nil, err
		}
		go func() {
			if err := p.Connect(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("mqtt connect failed", "error", err)
			}
		}()
		sinks = append(sinks, &mqttSink{p: p})
	}
	if cfg.DBPath != "" {
		st, err := history.Open(cfg.DBPath)
		if err != nil {
			closeSinks(sinks)
			return nil, err
		}
		sinks = append(sinks, &historySink{st: st})
	}
	if cfg.Gauge {
		d, err := screen1d.New(&screen1d.Opts{X: cfg.GaugeWidth})
		if err != nil {
			closeSinks(sinks)
			return nil, err
		}
		sinks = append(sinks, &gaugeSink{d: d})
	}
	if cfg.PNGPath != "" {
		sinks = append(sinks, &pngSink{path: cfg.PNGPath, caption: cfg.MQTT.StationID})
	}
	return sinks, nil
}

func closeSinks(sinks []sink) {
	for _, s := range sinks {
		_ = s.Close()
	}
}

// poll reads a sample right away and then every interval until ctx is done
// or count valid samples were taken. Failed reads are logged and retried on
// the next tick.
func poll(ctx context.Context, r reader, res temphum18.Resolution, interval time.Duration, count int, sinks []sink, logger *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	taken := 0
	for {
		s, err := r.Read(res)
		switch {
		case err != nil:
			logger.Warn("read failed", "error", err)
		case s.Status != temphum18.StatusValid:
			logger.Warn("stale sample", "status", s.Status.String())
		default:
			taken++
			logger.Info("sample",
				"temperature_c", s.Temperature,
				"humidity_pct", s.Humidity,
				"sequence", taken,
			)
			reading := history.Reading{Time: time.Now(), Sample: s, Resolution: res}
			for _, k := range sinks {
				if err := k.Write(ctx, reading); err != nil {
					logger.Warn("sink failed", "sink", k.String(), "error", err)
				}
			}
			if count > 0 && taken >= count {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
