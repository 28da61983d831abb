// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package temphum18

import (
	"fmt"
	"math"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

// DefaultAddress is the I²C address of the sensor.
const DefaultAddress uint16 = 0x44

const (
	cmdWakeUp                  byte = 0x00
	cmdDummy                   byte = 0x00
	cmdEnterProgrammingMode    byte = 0xA0
	cmdEnterMeasurementMode    byte = 0x80
	regHumidityResolutionRead  byte = 0x06
	regHumidityResolutionWrite byte = 0x46
	regTempResolutionRead      byte = 0x11
	regTempResolutionWrite     byte = 0x51
)

const (
	nvmStatusSuccess   byte = 0x81
	maskStatus         byte = 0x03
	maskResolutionBits byte = 0xF3
)

const (
	loadDelay   = 220 * time.Microsecond
	commitDelay = 14 * time.Millisecond
)

const (
	// The conversion always uses the 14 bit full scale, lower resolutions
	// only produce coarser raw values.
	fullScale         float64 = 0x3FFF
	temperatureScalar float64 = 165.0
	temperatureOffset float64 = -40.0
	humidityScalar    float64 = 100.0
)

// sleep is replaced in tests.
var sleep = time.Sleep

// Status is the two bit status field reported with every sample.
type Status uint8

const (
	// StatusValid means the sample was never read before.
	StatusValid Status = 0
	// StatusStale means the sample was already read since the last
	// measurement cycle.
	StatusStale Status = 1
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusStale:
		return "stale"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// RawSample is a decoded but unconverted measurement.
type RawSample struct {
	Temperature int16
	Humidity    uint16
	Status      Status
}

// Sample is a measurement in physical units.
type Sample struct {
	// Temperature in °C.
	Temperature float64
	// Humidity in %RH.
	Humidity float64
	Status   Status
}

// Physical converts the raw counts to °C and %RH.
func (r RawSample) Physical() Sample {
	return Sample{
		Temperature: float64(r.Temperature)/fullScale*temperatureScalar + temperatureOffset,
		Humidity:    float64(r.Humidity) / fullScale * humidityScalar,
		Status:      r.Status,
	}
}

// Env returns the sample as physic values.
func (s Sample) Env() physic.Env {
	return physic.Env{
		Temperature: physic.ZeroCelsius + physic.Temperature(s.Temperature*float64(physic.Celsius)),
		Humidity:    physic.RelativeHumidity(s.Humidity * float64(physic.PercentRH)),
	}
}

// Opts holds the configuration options for the device.
type Opts struct {
	// Resolution used by Sense and Update. It must match the resolution
	// programmed in the sensor to decode values correctly.
	Resolution Resolution
}

// DefaultOpts holds the default configuration options, matching the factory
// setting of the sensor.
var DefaultOpts = Opts{
	Resolution: Resolution14Bit,
}

// Dev is a handle to a Temp&Hum 18 click.
type Dev struct {
	c    conn.Conn
	opts Opts
	last Sample
}

// NewI2C returns a device on the given I²C bus. The Opts can be nil.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	return New(&i2c.Dev{Bus: b, Addr: addr}, opts)
}

// New returns a device communicating over c and wakes the sensor up. The
// Opts can be nil.
func New(c conn.Conn, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if !opts.Resolution.valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResolution, opts.Resolution)
	}
	d := &Dev{c: c, opts: *opts}
	if err := d.WakeUp(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("TempHum18{%s}", d.c)
}

// WakeUp starts a measurement cycle. The result is available after the
// settle delay of the programmed resolution.
func (d *Dev) WakeUp() error {
	if err := d.c.Tx([]byte{cmdWakeUp}, nil); err != nil {
		return fmt.Errorf("temphum18: %w", err)
	}
	return nil
}

// ReadRaw triggers a measurement, waits for it and decodes both channels
// with the masks of res.
func (d *Dev) ReadRaw(res Resolution) (RawSample, error) {
	if !res.valid() {
		return RawSample{}, fmt.Errorf("%w: %s", ErrInvalidResolution, res)
	}
	if err := d.WakeUp(); err != nil {
		return RawSample{}, err
	}
	sleep(res.SettleDelay())
	var b [4]byte
	if err := d.c.Tx(nil, b[:]); err != nil {
		return RawSample{}, fmt.Errorf("temphum18: %w", err)
	}
	return decode(b, res), nil
}

// Read triggers a measurement and returns it converted to °C and %RH.
//
// A stale sample is not an error, check Sample.Status.
func (d *Dev) Read(res Resolution) (Sample, error) {
	raw, err := d.ReadRaw(res)
	if err != nil {
		return Sample{}, err
	}
	return raw.Physical(), nil
}

// SetHumidityResolution programs the humidity resolution into non-volatile
// memory. The sensor must be in programming mode.
func (d *Dev) SetHumidityResolution(res Resolution) error {
	return d.setResolution(regHumidityResolutionRead, regHumidityResolutionWrite, res)
}

// SetTemperatureResolution programs the temperature resolution into
// non-volatile memory. The sensor must be in programming mode.
func (d *Dev) SetTemperatureResolution(res Resolution) error {
	return d.setResolution(regTempResolutionRead, regTempResolutionWrite, res)
}

// EnterProgrammingMode switches the sensor to programming mode. The sensor
// only accepts it within 10ms after power up.
func (d *Dev) EnterProgrammingMode() error {
	return d.command(cmdEnterProgrammingMode)
}

// EnterMeasurementMode leaves programming mode and resumes normal operation.
func (d *Dev) EnterMeasurementMode() error {
	return d.command(cmdEnterMeasurementMode)
}

// Sense implements physic.SenseEnv. It measures with the resolution set in
// Opts. The pressure is not modified.
func (d *Dev) Sense(e *physic.Env) error {
	s, err := d.Read(d.opts.Resolution)
	if err != nil {
		return err
	}
	if s.Status != StatusValid {
		return ErrStaleData
	}
	env := s.Env()
	e.Temperature = env.Temperature
	e.Humidity = env.Humidity
	return nil
}

// SenseContinuous implements physic.SenseEnv. It is not supported, poll
// Sense instead.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	return nil, errContinuous
}

// Precision implements physic.SenseEnv. It returns one count of the 14 bit
// conversion scale.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = physic.Temperature(math.Round(temperatureScalar / fullScale * float64(physic.Celsius)))
	e.Humidity = physic.RelativeHumidity(math.Round(humidityScalar / fullScale * float64(physic.PercentRH)))
}

// Halt implements conn.Resource. The sensor goes back to sleep on its own
// after every measurement.
func (d *Dev) Halt() error {
	return nil
}

// Update implements drivers.Sensor. Only drivers.Temperature and
// drivers.Humidity are measured.
func (d *Dev) Update(which drivers.Measurement) error {
	if which&(drivers.Temperature|drivers.Humidity) == 0 {
		return nil
	}
	s, err := d.Read(d.opts.Resolution)
	if err != nil {
		return err
	}
	if s.Status != StatusValid {
		return ErrStaleData
	}
	d.last = s
	return nil
}

// Temperature returns the temperature of the last Update in milli °C.
func (d *Dev) Temperature() int32 {
	return int32(math.Round(d.last.Temperature * 1000))
}

// Humidity returns the humidity of the last Update in hundredths of %RH.
func (d *Dev) Humidity() int32 {
	return int32(math.Round(d.last.Humidity * 100))
}

func (d *Dev) command(cmd byte) error {
	if err := d.c.Tx([]byte{cmd, cmdDummy, cmdDummy}, nil); err != nil {
		return fmt.Errorf("temphum18: %w", err)
	}
	return nil
}

// setResolution does a read-verify-modify-write of a resolution register.
func (d *Dev) setResolution(readReg, writeReg byte, res Resolution) error {
	if !res.valid() {
		return fmt.Errorf("%w: %s", ErrInvalidResolution, res)
	}
	if err := d.command(readReg); err != nil {
		return err
	}
	sleep(loadDelay)
	var r [3]byte
	if err := d.c.Tx(nil, r[:]); err != nil {
		return fmt.Errorf("temphum18: %w", err)
	}
	sleep(loadDelay)
	if r[0] != nvmStatusSuccess {
		return &ConfigurationUnavailableError{Status: r[0]}
	}
	w := []byte{writeReg, r[1]&maskResolutionBits | byte(res)<<2, r[2]}
	if err := d.c.Tx(w, nil); err != nil {
		return fmt.Errorf("temphum18: %w", err)
	}
	sleep(commitDelay)
	return nil
}

// decode extracts the status and both channels from a 4 byte measurement.
func decode(b [4]byte, res Resolution) RawSample {
	mask := res.mask()
	threshold := res.signThreshold()
	hum := (uint16(b[0])<<8 | uint16(b[1])) & mask
	t := ((uint16(b[2])<<8 | uint16(b[3])) >> 2) & mask
	temp := int16(t)
	if t > threshold {
		// Narrow signed window sized by the resolution, not by int16.
		temp = int16(threshold+1) - int16(t)
	}
	return RawSample{
		Temperature: temp,
		Humidity:    hum,
		Status:      Status(b[0]>>6) & Status(maskStatus),
	}
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
var _ drivers.Sensor = &Dev{}
