package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Environment variables holding the Pushover credentials.
const (
	EnvAppToken  = "PUSHOVER_APP_TOKEN"
	EnvUserToken = "PUSHOVER_USER_TOKEN"
)

// LoadEnvFiles loads .env next to the config file and in the working
// directory. Variables already set in the environment win; missing files are
// skipped. It returns the files that were loaded.
func LoadEnvFiles(configPath string) ([]string, error) {
	candidates := []string{filepath.Join(filepath.Dir(configPath), ".env"), ".env"}

	var loaded []string
	seen := make(map[string]bool)
	for _, path := range candidates {
		abs, err := filepath.Abs(path)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true

		if err := godotenv.Load(abs); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, err
		}
		loaded = append(loaded, abs)
	}
	return loaded, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAppToken); v != "" {
		c.Notify.AppToken = v
	}
	if v := os.Getenv(EnvUserToken); v != "" {
		c.Notify.UserToken = v
	}
}
