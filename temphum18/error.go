// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package temphum18

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidResolution is returned for a resolution outside 8..14 bits.
	// No bus access is made when it is returned.
	ErrInvalidResolution = errors.New("temphum18: invalid resolution")
	// ErrStaleData is returned by Sense and Update when the sensor reports
	// that the sample was already read.
	ErrStaleData = errors.New("temphum18: stale data")

	errContinuous = errors.New("temphum18: SenseContinuous is not supported")
)

// ConfigurationUnavailableError is returned when the sensor did not report a
// successful non-volatile memory load while reading a resolution register.
// Nothing is written to the sensor in that case.
type ConfigurationUnavailableError struct {
	Status byte
}

func (e *ConfigurationUnavailableError) Error() string {
	return fmt.Sprintf("temphum18: configuration unavailable, non-volatile memory status %#02x", e.Status)
}
