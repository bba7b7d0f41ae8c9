// Package device talks to the distance sensor and indicator LEDs through the
// kernel's sysfs interfaces.
package device

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Sensor returns the distance to the nearest object in centimeters.
type Sensor interface {
	Read(ctx context.Context) (float64, error)
}

// IIOSensor reads a raw distance attribute exported by an IIO driver, such
// as in_distance_raw from the srf04 ultrasonic driver.
type IIOSensor struct {
	path   string
	scale  float64
	settle time.Duration
}

// NewIIOSensor returns a sensor reading path; raw values are multiplied by
// scale to get centimeters.
func NewIIOSensor(path string, scale float64, settle time.Duration) *IIOSensor {
	return &IIOSensor{path: path, scale: scale, settle: settle}
}

// Settle waits for the sensor to stabilize after power-up.
func (s *IIOSensor) Settle(ctx context.Context) error {
	if s.settle <= 0 {
		return nil
	}
	timer := time.NewTimer(s.settle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Read blocks while the driver performs a measurement.
func (s *IIOSensor) Read(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return 0, fmt.Errorf("failed to read distance from %s: %w", s.path, err)
	}

	raw, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid distance reading %q: %w", strings.TrimSpace(string(data)), err)
	}
	return raw * s.scale, nil
}

// IsPresent reports whether an object at distanceCM is within proximityCM.
func IsPresent(distanceCM, proximityCM float64) bool {
	return distanceCM < proximityCM
}
