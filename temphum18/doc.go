// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package temphum18 controls a MikroE Temp&Hum 18 Click over I²C.
//
// The click carries a Renesas HS3001 relative humidity and temperature sensor.
// Measurements are triggered by a wake-up write and read back after a fixed
// conversion delay, the sensor gives no ready signal. The output resolution
// (8, 10, 12 or 14 bits) selects that delay and the bit masks used to decode
// both channels. Resolutions are stored in the sensor's non-volatile memory
// and can be changed with SetHumidityResolution and SetTemperatureResolution
// while the sensor is in programming mode.
//
// The temphum18.Dev type implements physic.SenseEnv and the TinyGo
// drivers.Sensor interface. The pressure value of physic.Env is never set.
//
// The Dev is not safe for concurrent use, a single goroutine is expected to
// poll it.
//
// # Datasheet
//
// https://www.renesas.com/us/en/document/dst/hs300x-datasheet
//
// # Product page
//
// https://www.mikroe.com/temphum-18-click
package temphum18
