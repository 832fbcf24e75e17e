package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault_IsValid(t *testing.T) {
	if errs := Default().Validate(); len(errs) != 0 {
		t.Fatalf("expected defaults to be valid, got %v", errs)
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectree.yaml")
	content := `
ai:
  provider: mock
  timeout: 90s
tracker:
  transport: rest
  base_url: https://tracker.example.com
  team_key: eng
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AI.Provider != "mock" || cfg.AI.Timeout != 90*time.Second {
		t.Errorf("unexpected AI config %+v", cfg.AI)
	}
	if cfg.AI.MaxRetries != 2 {
		t.Errorf("expected default max_retries, got %d", cfg.AI.MaxRetries)
	}
	if cfg.Tracker.Transport != TransportREST || cfg.Tracker.TeamKey != "eng" {
		t.Errorf("unexpected tracker config %+v", cfg.Tracker)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("unexpected level %q", cfg.Logging.Level)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectree.yaml")
	if err := os.WriteFile(path, []byte("ai:\n  provider: ollama\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SPECTREE_AI_PROVIDER", "anthropic")
	t.Setenv("SPECTREE_AI_TIMEOUT", "0s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AI.Provider != "anthropic" {
		t.Errorf("expected env to win, got %q", cfg.AI.Provider)
	}
	if cfg.AI.Timeout != 0 {
		t.Errorf("expected unbounded timeout, got %v", cfg.AI.Timeout)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing explicit config file")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectree.yaml")
	content := "ai:\n  provider: skynet\ntracker:\n  transport: mcp\nlogging:\n  format: xml\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if len(verrs) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(verrs), verrs)
	}
	if !strings.Contains(err.Error(), "tracker.mcp_command") {
		t.Errorf("expected mcp_command to be reported, got %q", err.Error())
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "spectree.yaml")
	cfg := Default()
	cfg.AI.Timeout = 2 * time.Minute
	cfg.Tracker.MCPArgs = []string{"serve", "--stdio"}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "timeout: 2m0s") {
		t.Errorf("expected durations written as strings, got:\n%s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.AI.Timeout != 2*time.Minute || len(loaded.Tracker.MCPArgs) != 2 {
		t.Errorf("unexpected round trip %+v", loaded)
	}
}

func TestConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := ConfigFile(); got != filepath.Join("/tmp/xdg", "spectree", "spectree.yaml") {
		t.Errorf("ConfigFile() = %q", got)
	}
}

func TestLoad_NotifyWebhooks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectree.yaml")
	content := `
notify:
  webhooks:
    - name: ci
      url: https://hooks.example.com/plan
      secret: s3cret
      events: [plan.materialized]
      retry_delay: 2s
      enabled: true
    - name: team-chat
      url: https://hooks.slack.com/services/x
      format: slack
      enabled: true
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Notify.Webhooks) != 2 {
		t.Fatalf("expected 2 webhooks, got %d", len(cfg.Notify.Webhooks))
	}
	ci := cfg.Notify.Webhooks[0]
	if ci.Secret != "s3cret" || ci.RetryDelay != 2*time.Second || len(ci.Events) != 1 || !ci.Enabled {
		t.Errorf("unexpected webhook %+v", ci)
	}
	if cfg.Notify.Webhooks[1].Format != FormatSlack {
		t.Errorf("expected slack format, got %q", cfg.Notify.Webhooks[1].Format)
	}
}

func TestValidate_Webhooks(t *testing.T) {
	cfg := Default()
	cfg.Notify.Webhooks = []WebhookConfig{{Name: "bad", Format: "teams", MaxRetries: -1}}

	errs := cfg.Validate()
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(errs), errs)
	}
	if errs[0].Field != "notify.webhooks[0].url" {
		t.Errorf("unexpected field %q", errs[0].Field)
	}
}
