package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("STATUS_POLL_SECONDS", "")
	t.Setenv("DB_DRIVER", "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.APIBaseURL != defaultAPIBaseURL {
		t.Errorf("expected default api base url, got %q", cfg.APIBaseURL)
	}
	if cfg.StatusPollInterval != 10*time.Second {
		t.Errorf("expected 10s poll interval, got %s", cfg.StatusPollInterval)
	}
	if cfg.DBDriver != "postgres" {
		t.Errorf("expected postgres driver, got %q", cfg.DBDriver)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STATUS_POLL_SECONDS", "3")
	t.Setenv("CACHE_TTL_SECONDS", "120")
	t.Setenv("DB_DRIVER", "mysql")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.StatusPollInterval != 3*time.Second {
		t.Errorf("expected 3s, got %s", cfg.StatusPollInterval)
	}
	if cfg.CacheTTL != 2*time.Minute {
		t.Errorf("expected 2m, got %s", cfg.CacheTTL)
	}
	if cfg.DBDriver != "mysql" {
		t.Errorf("expected mysql, got %q", cfg.DBDriver)
	}
}

func TestFromEnvRejectsInvalid(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"non numeric poll", "STATUS_POLL_SECONDS", "ten"},
		{"zero poll", "STATUS_POLL_SECONDS", "0"},
		{"unknown driver", "DB_DRIVER", "sqlite"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.value)
			}
		})
	}
}
