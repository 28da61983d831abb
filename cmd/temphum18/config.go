// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/GermanBionicSystems/clickdevices/internal/telemetry"
	"github.com/GermanBionicSystems/clickdevices/temphum18"
)

type config struct {
	AppEnv   string
	LogLevel slog.Level

	Bus        string
	Addr       i2c.Addr
	Resolution temphum18.Resolution
	// Program writes Resolution to both channels before polling.
	Program  bool
	Interval time.Duration
	Count    int

	MQTT       telemetry.Config
	DBPath     string
	Gauge      bool
	GaugeWidth int
	PNGPath    string
}

// loadConfig parses flags. Every flag defaults to an environment variable so
// the poller can run unattended from a service manager.
func loadConfig(args []string, getenv func(string) string, output io.Writer) (config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := config{Addr: i2c.Addr(temphum18.DefaultAddress)}
	fs := flag.NewFlagSet("temphum18", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.AppEnv, "env", env("APP_ENV", "dev"), "dev for colored logs, prod for JSON logs")
	logLevel := fs.String("log-level", env("LOG_LEVEL", "info"), "debug, info, warn or error")
	fs.StringVar(&cfg.Bus, "i2c", env("TEMPHUM18_BUS", ""), "I²C bus to use, empty for the first one")
	if v := getenv("TEMPHUM18_ADDR"); v != "" {
		if err := cfg.Addr.Set(v); err != nil {
			return config{}, fmt.Errorf("invalid TEMPHUM18_ADDR %q: %w", v, err)
		}
	}
	fs.Var(&cfg.Addr, "addr", "I²C address of the click")
	bits := fs.Int("res", envInt(env("TEMPHUM18_RESOLUTION", "14")), "resolution in bits: 8, 10, 12 or 14")
	fs.BoolVar(&cfg.Program, "program", false, "program -res into the sensor before polling")
	interval := fs.String("interval", env("TEMPHUM18_INTERVAL", "1s"), "polling interval")
	fs.IntVar(&cfg.Count, "n", 0, "number of samples to take, 0 for no limit")
	fs.StringVar(&cfg.MQTT.Broker, "mqtt", env("MQTT_BROKER", ""), "MQTT broker URL, empty to disable")
	fs.StringVar(&cfg.MQTT.ClientID, "mqtt-client-id", env("MQTT_CLIENT_ID", "temphum18"), "MQTT client id")
	fs.StringVar(&cfg.MQTT.StationID, "station", env("DEVICE_STATION_ID", "home"), "station id used in the MQTT topic")
	fs.StringVar(&cfg.DBPath, "db", env("TEMPHUM18_DB", ""), "SQLite file to log samples to, empty to disable")
	fs.BoolVar(&cfg.Gauge, "gauge", false, "draw a gauge on the terminal")
	fs.IntVar(&cfg.GaugeWidth, "gauge-width", 40, "gauge width in blocks")
	fs.StringVar(&cfg.PNGPath, "png", env("TEMPHUM18_PNG", ""), "PNG file to render the last sample to, empty to disable")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if fs.NArg() != 0 {
		return config{}, fmt.Errorf("unexpected arguments %q", fs.Args())
	}

	cfg.MQTT.Username = getenv("MQTT_USERNAME")
	cfg.MQTT.Password = getenv("MQTT_PASSWORD")

	switch cfg.AppEnv {
	case "dev", "prod":
	default:
		return config{}, fmt.Errorf("invalid env %q (allowed: dev, prod)", cfg.AppEnv)
	}
	var err error
	if cfg.LogLevel, err = parseLogLevel(*logLevel); err != nil {
		return config{}, err
	}
	if cfg.Resolution, err = temphum18.ParseResolution(*bits); err != nil {
		return config{}, err
	}
	if cfg.Interval, err = time.ParseDuration(*interval); err != nil {
		return config{}, fmt.Errorf("invalid interval %q: %w", *interval, err)
	}
	// The interval must leave room for the conversion itself.
	if cfg.Interval < cfg.Resolution.SettleDelay() {
		return config{}, fmt.Errorf("interval %s is shorter than the %s conversion time %s", cfg.Interval, cfg.Resolution, cfg.Resolution.SettleDelay())
	}
	if cfg.Count < 0 {
		return config{}, fmt.Errorf("invalid sample count %d", cfg.Count)
	}
	if cfg.Gauge && cfg.GaugeWidth < 2 {
		return config{}, fmt.Errorf("gauge width must be at least 2, got %d", cfg.GaugeWidth)
	}
	return cfg, nil
}

// envInt returns -1 for an unparsable value so validation reports it.
func envInt(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return v
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (allowed: debug, info, warn, error)", s)
	}
}
