// Package scanner runs the registered sensors of an analysis, skipping those
// the Optimizer finds inapplicable, and post-processes their findings.
package scanner

import (
	"github.com/garagon/sensorgate/internal/sensor"
)

// Sensor is re-exported so callers registering sensors need only this package.
type Sensor = sensor.Sensor
