// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package clickdevices is a container for drivers of MikroElektronika Click
// boards and the output devices used to show their readings.
//
// temphum18 drives the Temp&Hum 18 click. tinyi2c lets the drivers run on a
// TinyGo bus. screen1d and panel render samples on a terminal or an image.
package clickdevices
