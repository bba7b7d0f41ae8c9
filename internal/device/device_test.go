package device

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SoarinFerret/ReadRemind/internal/logging"
)

func writeFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "in_distance_raw")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIIOSensor_Read(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		scale       float64
		expected    float64
		expectError bool
	}{
		{"millimeters to centimeters", "153\n", 0.1, 15.3, false},
		{"already centimeters", "42.5", 1, 42.5, false},
		{"garbage", "n/a\n", 0.1, 0, true},
		{"empty", "", 0.1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewIIOSensor(writeFile(t, tt.content), tt.scale, 0)
			got, err := s.Read(context.Background())
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.InDelta(t, tt.expected, got, 1e-9)
			}
		})
	}
}

func TestIIOSensor_ReadMissingFile(t *testing.T) {
	s := NewIIOSensor(filepath.Join(t.TempDir(), "missing"), 1, 0)
	_, err := s.Read(context.Background())
	assert.Error(t, err)
}

func TestIIOSensor_SettleHonorsContext(t *testing.T) {
	s := NewIIOSensor("", 1, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Settle(ctx), context.Canceled)

	assert.NoError(t, NewIIOSensor("", 1, time.Millisecond).Settle(context.Background()))
}

func TestIsPresent(t *testing.T) {
	assert.True(t, IsPresent(5, 20))
	assert.False(t, IsPresent(20, 20))
	assert.False(t, IsPresent(120, 20))
}

func TestLED_Set(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brightness")
	led := NewLED(path, logging.NewNop())

	led.Set(true)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))

	led.Set(false)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0", string(data))
}

func TestLED_DisabledAndFailing(t *testing.T) {
	assert.NoError(t, NewLED("", logging.NewNop()).set(true))

	bad := NewLED(filepath.Join(t.TempDir(), "no", "such", "brightness"), logging.NewNop())
	assert.Error(t, bad.set(true))
	bad.Set(true) // logged, not fatal
}
