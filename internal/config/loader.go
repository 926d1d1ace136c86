package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the booking service.
type Config struct {
	HTTPPort  int
	SQLiteDSN string
	// DeletePasswordHash guards reservation deletion when set. The value
	// is an argon2id hash in the standard encoded form.
	DeletePasswordHash string
	EventBufferSize    int
}

// Load parses configuration values from the current process environment.
// A .env file in the working directory is read first when present; real
// environment variables win over file entries.
//
// The loader applies defaults for optional fields and accumulates every
// invalid value into a single error instead of stopping at the first.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:        8080,
		SQLiteDSN:       "file:roombook.db",
		EventBufferSize: 64,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("ROOMBOOK_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "ROOMBOOK_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("ROOMBOOK_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if hash := strings.TrimSpace(os.Getenv("ROOMBOOK_DELETE_PASSWORD_HASH")); hash != "" {
		if !strings.HasPrefix(hash, "$argon2id$") {
			invalid = append(invalid, "ROOMBOOK_DELETE_PASSWORD_HASH")
		} else {
			cfg.DeletePasswordHash = hash
		}
	}

	if bufValue := strings.TrimSpace(os.Getenv("ROOMBOOK_EVENT_BUFFER")); bufValue != "" {
		size, err := strconv.Atoi(bufValue)
		if err != nil || size <= 0 {
			invalid = append(invalid, "ROOMBOOK_EVENT_BUFFER")
		} else {
			cfg.EventBufferSize = size
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
