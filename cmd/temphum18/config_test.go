// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"flag"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/GermanBionicSystems/clickdevices/temphum18"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadConfig_defaults(t *testing.T) {
	cfg, err := loadConfig(nil, envMap(nil), io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AppEnv != "dev" || cfg.LogLevel != slog.LevelInfo {
		t.Errorf("env %q level %s", cfg.AppEnv, cfg.LogLevel)
	}
	if cfg.Addr != i2c.Addr(0x44) {
		t.Errorf("addr %s", cfg.Addr)
	}
	if cfg.Resolution != temphum18.Resolution14Bit || cfg.Interval != time.Second {
		t.Errorf("resolution %s interval %s", cfg.Resolution, cfg.Interval)
	}
	if cfg.MQTT.Broker != "" || cfg.MQTT.StationID != "home" || cfg.DBPath != "" || cfg.Gauge || cfg.PNGPath != "" {
		t.Errorf("sinks enabled by default: %+v", cfg)
	}
}

func TestLoadConfig_envAndFlags(t *testing.T) {
	env := envMap(map[string]string{
		"APP_ENV":              "prod",
		"LOG_LEVEL":            "debug",
		"TEMPHUM18_ADDR":       "0x45",
		"TEMPHUM18_RESOLUTION": "10",
		"MQTT_BROKER":          "tcp://broker:1883",
		"MQTT_USERNAME":        "user",
		"MQTT_PASSWORD":        "secret",
	})
	args := []string{"-res", "12", "-interval", "250ms", "-n", "3", "-db", "/tmp/x.db", "-program"}
	cfg, err := loadConfig(args, env, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AppEnv != "prod" || cfg.LogLevel != slog.LevelDebug {
		t.Errorf("env %q level %s", cfg.AppEnv, cfg.LogLevel)
	}
	if cfg.Addr != 0x45 {
		t.Errorf("addr %s", cfg.Addr)
	}
	// Flags win over the environment.
	if cfg.Resolution != temphum18.Resolution12Bit {
		t.Errorf("resolution %s", cfg.Resolution)
	}
	if cfg.Interval != 250*time.Millisecond || cfg.Count != 3 || !cfg.Program || cfg.DBPath != "/tmp/x.db" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.MQTT.Broker != "tcp://broker:1883" || cfg.MQTT.Username != "user" || cfg.MQTT.Password != "secret" {
		t.Errorf("mqtt %+v", cfg.MQTT)
	}
}

func TestLoadConfig_invalid(t *testing.T) {
	data := []struct {
		args []string
		env  map[string]string
	}{
		{args: []string{"-res", "16"}},
		{env: map[string]string{"TEMPHUM18_RESOLUTION": "fourteen"}},
		{args: []string{"-interval", "soon"}},
		{args: []string{"-interval", "1ms"}},
		{args: []string{"-n", "-1"}},
		{args: []string{"-env", "staging"}},
		{args: []string{"-log-level", "loud"}},
		{args: []string{"-addr", "0xFFFF"}},
		{env: map[string]string{"TEMPHUM18_ADDR": "nope"}},
		{args: []string{"-gauge", "-gauge-width", "1"}},
		{args: []string{"extra"}},
	}
	for _, line := range data {
		if _, err := loadConfig(line.args, envMap(line.env), io.Discard); err == nil {
			t.Errorf("loadConfig(%q, %v) succeeded", line.args, line.env)
		}
	}
}

func TestLoadConfig_help(t *testing.T) {
	var out bytes.Buffer
	_, err := loadConfig([]string{"-h"}, envMap(nil), &out)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("err = %v, want flag.ErrHelp", err)
	}
	if !strings.Contains(out.String(), "-res") {
		t.Errorf("usage does not list -res:\n%s", out.String())
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, config{AppEnv: "prod", LogLevel: slog.LevelInfo}).Info("hello")
	if s := buf.String(); !strings.Contains(s, `"app":"temphum18"`) || !strings.Contains(s, `"msg":"hello"`) {
		t.Errorf("unexpected JSON log %q", s)
	}
	buf.Reset()
	newLogger(&buf, config{AppEnv: "dev", LogLevel: slog.LevelWarn}).Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %q", buf.String())
	}
}
