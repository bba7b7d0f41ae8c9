package device

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/SoarinFerret/ReadRemind/internal/logging"
)

// LED drives a sysfs LED brightness file. An empty path disables it.
type LED struct {
	path   string
	logger *slog.Logger
}

func NewLED(path string, logger *slog.Logger) *LED {
	return &LED{path: path, logger: logger}
}

// Set turns the LED on or off. Write failures are logged only.
func (l *LED) Set(on bool) {
	if err := l.set(on); err != nil {
		l.logger.Warn("Failed to set LED", logging.Path(l.path), logging.Err(err))
	}
}

func (l *LED) set(on bool) error {
	if l.path == "" {
		return nil
	}
	value := "0"
	if on {
		value = "1"
	}
	if err := os.WriteFile(l.path, []byte(value), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", l.path, err)
	}
	return nil
}
