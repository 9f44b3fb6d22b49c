package config

import (
	"os"
	"path/filepath"
	"time"
)

// Field client settings. Read from the environment so the sync daemon and
// the CLI share one configuration surface with the server.

func QueueDir() string {
	if dir := os.Getenv("QUEUE_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ecoalert/queue"
	}
	return filepath.Join(home, ".ecoalert", "queue")
}

func APIBaseURL() string {
	if url := os.Getenv("API_BASE_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func APIToken() string {
	return os.Getenv("API_TOKEN")
}

// SyncInterval is the advisory re-drain period. Defaults to 30s.
func SyncInterval() time.Duration {
	if raw := os.Getenv("SYNC_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	return 30 * time.Second
}
