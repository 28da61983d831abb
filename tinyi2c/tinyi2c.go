// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tinyi2c exposes a TinyGo drivers.I2C bus as a periph i2c.Bus.
//
// This lets periph style device drivers run on a bus obtained from a TinyGo
// board package, for example machine.I2C0 once configured.
package tinyi2c

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

var errNoSpeed = errors.New("tinyi2c: bus does not support changing speed")

// baudRateSetter is implemented by the TinyGo machine.I2C type.
type baudRateSetter interface {
	SetBaudRate(br uint32) error
}

// Bus wraps a drivers.I2C.
type Bus struct {
	bus  drivers.I2C
	name string
}

// New returns a Bus named name wrapping b.
func New(b drivers.I2C, name string) *Bus {
	return &Bus{bus: b, name: name}
}

func (b *Bus) String() string {
	if b.name == "" {
		return "tinyi2c"
	}
	return b.name
}

// Tx implements i2c.Bus.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	return b.bus.Tx(addr, w, r)
}

// SetSpeed implements i2c.Bus. It only works when the wrapped bus has a
// SetBaudRate method.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	s, ok := b.bus.(baudRateSetter)
	if !ok {
		return errNoSpeed
	}
	if f <= 0 || f/physic.Hertz > 1<<32-1 {
		return fmt.Errorf("tinyi2c: invalid speed %s", f)
	}
	return s.SetBaudRate(uint32(f / physic.Hertz))
}

var _ i2c.Bus = &Bus{}
