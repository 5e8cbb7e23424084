package config

import (
	"os"
	"testing"
	"time"
)

const sampleConfig = `
environment: staging
api:
  base_url: https://api.example.com/api
  search_limit: 8
chat:
  reveal_interval: 20ms
logging:
  level: debug
analytics:
  enabled: true
  ga_measurement_id: G-TEST
server:
  host: 0.0.0.0
  port: "9090"
llm:
  model: local-model
  base_url: http://localhost:11434/v1
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	tmp, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	if _, err := tmp.WriteString(body); err != nil {
		t.Fatalf("write: %v", err)
	}
	tmp.Close()
	return tmp.Name()
}

// TestLoad_File verifies that Load reads values from the file named by CONFIG_PATH
// and keeps defaults for everything else.
func TestLoad_File(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, sampleConfig))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.API.BaseURL != "https://api.example.com/api" {
		t.Fatalf("unexpected base url: %s", cfg.API.BaseURL)
	}
	if cfg.API.SearchLimit != 8 {
		t.Fatalf("unexpected search limit: %d", cfg.API.SearchLimit)
	}
	if cfg.Chat.RevealInterval != 20*time.Millisecond {
		t.Fatalf("unexpected reveal interval: %s", cfg.Chat.RevealInterval)
	}
	if cfg.Chat.ClearDelay != 100*time.Millisecond {
		t.Fatalf("clear delay default not applied: %s", cfg.Chat.ClearDelay)
	}
	if !cfg.Analytics.Enabled || cfg.Analytics.GAMeasurementID != "G-TEST" {
		t.Fatalf("analytics not parsed: %+v", cfg.Analytics)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("unexpected port: %s", cfg.Server.Port)
	}
	if !cfg.Logging.Enabled {
		t.Fatalf("logging should default to enabled outside production")
	}
	if cfg.LLM.Model != "local-model" || cfg.LLM.BaseURL != "http://localhost:11434/v1" {
		t.Fatalf("llm not parsed: %+v", cfg.LLM)
	}
	if cfg.LLM.MaxTurns != 5 {
		t.Fatalf("llm max turns default not applied: %d", cfg.LLM.MaxTurns)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, sampleConfig))
	t.Setenv("DERMACHAT_API_BASE_URL", "http://override:5000/api")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.API.BaseURL != "http://override:5000/api" {
		t.Fatalf("env override not applied: %s", cfg.API.BaseURL)
	}
}

func TestLoad_ProductionDisablesLogging(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "environment: production\n"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.Production() {
		t.Fatalf("expected production environment")
	}
	if cfg.Logging.Enabled {
		t.Fatalf("logging should be off in production unless configured")
	}
}

func TestLoad_ProductionExplicitLogging(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "environment: production\nlogging:\n  enabled: true\n"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.Logging.Enabled {
		t.Fatalf("explicit logging.enabled should win over the production default")
	}
}
