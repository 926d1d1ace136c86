package config

import (
	"os"
	"strings"
	"testing"
)

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unset := []string{
			"ROOMBOOK_HTTP_PORT",
			"ROOMBOOK_SQLITE_DSN",
			"ROOMBOOK_DELETE_PASSWORD_HASH",
			"ROOMBOOK_EVENT_BUFFER",
		}
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:roombook.db" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.DeletePasswordHash != "" {
			t.Fatalf("expected empty delete password hash, got %q", cfg.DeletePasswordHash)
		}
		if cfg.EventBufferSize != 64 {
			t.Fatalf("expected default event buffer 64, got %d", cfg.EventBufferSize)
		}
	})

	t.Run("parses numeric fields", func(t *testing.T) {
		t.Setenv("ROOMBOOK_HTTP_PORT", "9090")
		t.Setenv("ROOMBOOK_SQLITE_DSN", "file:/tmp/roombook.db")
		t.Setenv("ROOMBOOK_EVENT_BUFFER", "128")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:/tmp/roombook.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.EventBufferSize != 128 {
			t.Fatalf("expected event buffer 128, got %d", cfg.EventBufferSize)
		}
	})

	t.Run("accumulates invalid values into one error", func(t *testing.T) {
		t.Setenv("ROOMBOOK_HTTP_PORT", "not-a-port")
		t.Setenv("ROOMBOOK_DELETE_PASSWORD_HASH", "plaintext-password")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for invalid values")
		}
		for _, key := range []string{"ROOMBOOK_HTTP_PORT", "ROOMBOOK_DELETE_PASSWORD_HASH"} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("error %q does not mention %s", err.Error(), key)
			}
		}
	})

	t.Run("rejects non positive buffer", func(t *testing.T) {
		t.Setenv("ROOMBOOK_EVENT_BUFFER", "0")

		_, err := Load()
		if err == nil || !strings.Contains(err.Error(), "ROOMBOOK_EVENT_BUFFER") {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
