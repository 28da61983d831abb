// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package temphum18

import (
	"fmt"
	"strconv"
	"time"
)

// Resolution is the output bit width of a measurement channel.
type Resolution uint8

const (
	Resolution8Bit Resolution = iota
	Resolution10Bit
	Resolution12Bit
	Resolution14Bit
)

// ParseResolution returns the Resolution for a bit width of 8, 10, 12 or 14.
func ParseResolution(bits int) (Resolution, error) {
	switch bits {
	case 8:
		return Resolution8Bit, nil
	case 10:
		return Resolution10Bit, nil
	case 12:
		return Resolution12Bit, nil
	case 14:
		return Resolution14Bit, nil
	}
	return 0, fmt.Errorf("%w: %d bits", ErrInvalidResolution, bits)
}

// Bits returns the bit width, or 0 for an invalid value.
func (r Resolution) Bits() int {
	if !r.valid() {
		return 0
	}
	return 8 + 2*int(r)
}

func (r Resolution) String() string {
	if !r.valid() {
		return "Resolution(" + strconv.Itoa(int(r)) + ")"
	}
	return strconv.Itoa(r.Bits()) + "bit"
}

// SettleDelay returns how long the sensor needs after a wake-up before the
// conversion result can be read. It returns 0 for an invalid value.
func (r Resolution) SettleDelay() time.Duration {
	switch r {
	case Resolution8Bit:
		return 1200 * time.Microsecond
	case Resolution10Bit:
		return 2720 * time.Microsecond
	case Resolution12Bit:
		return 9100 * time.Microsecond
	case Resolution14Bit:
		return 33900 * time.Microsecond
	}
	return 0
}

func (r Resolution) valid() bool {
	return r <= Resolution14Bit
}

// mask returns the bits kept from each channel word.
func (r Resolution) mask() uint16 {
	switch r {
	case Resolution10Bit:
		return 0x03FF
	case Resolution12Bit:
		return 0x0FFF
	case Resolution14Bit:
		return 0x3FFF
	default:
		return 0x00FF
	}
}

// signThreshold returns the largest temperature word decoded as non-negative.
func (r Resolution) signThreshold() uint16 {
	switch r {
	case Resolution10Bit:
		return 0x01FF
	case Resolution12Bit:
		return 0x07FF
	case Resolution14Bit:
		return 0x1FFF
	default:
		return 0x007F
	}
}
