package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func tempConfigPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "config.json")
}

func writeTestConfig(t *testing.T, path string, cfg *Config) {
	t.Helper()
	if err := Save(path, cfg); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
}

func TestSave_ReloadRoundTrip(t *testing.T) {
	t.Setenv("STORYNEST_BACKEND_URL", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	path := tempConfigPath(t)

	original := &Config{
		DataDir:       "/tmp/test-data",
		LogLevel:      "debug",
		MaxConcurrent: 4,
	}
	original.Backend.BaseURL = "http://bedtime.local:9000"
	original.Backend.TimeoutSeconds = 60
	original.History.MaxContextTokens = 8000
	original.History.OutputReserve = 512
	original.History.Encoding = "cl100k_base"
	original.TTS.Lang = "es"
	original.TTS.Slow = true
	original.Illustration.Width = 1024
	original.Telegram.Token = "bot-token-456"

	if err := Save(path, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file does not exist after Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.DataDir != original.DataDir {
		t.Errorf("DataDir mismatch: %v != %v", loaded.DataDir, original.DataDir)
	}
	if loaded.LogLevel != original.LogLevel {
		t.Errorf("LogLevel mismatch: %v != %v", loaded.LogLevel, original.LogLevel)
	}
	if loaded.MaxConcurrent != original.MaxConcurrent {
		t.Errorf("MaxConcurrent mismatch: %v != %v", loaded.MaxConcurrent, original.MaxConcurrent)
	}
	if loaded.Backend.BaseURL != original.Backend.BaseURL {
		t.Errorf("Backend.BaseURL mismatch: %v != %v", loaded.Backend.BaseURL, original.Backend.BaseURL)
	}
	if loaded.Backend.TimeoutSeconds != original.Backend.TimeoutSeconds {
		t.Errorf("Backend.TimeoutSeconds mismatch: %v != %v", loaded.Backend.TimeoutSeconds, original.Backend.TimeoutSeconds)
	}
	if loaded.History.MaxContextTokens != original.History.MaxContextTokens {
		t.Errorf("History.MaxContextTokens mismatch: %v != %v", loaded.History.MaxContextTokens, original.History.MaxContextTokens)
	}
	if loaded.TTS.Lang != original.TTS.Lang {
		t.Errorf("TTS.Lang mismatch: %v != %v", loaded.TTS.Lang, original.TTS.Lang)
	}
	if loaded.TTS.Slow != original.TTS.Slow {
		t.Errorf("TTS.Slow mismatch: %v != %v", loaded.TTS.Slow, original.TTS.Slow)
	}
	if loaded.Telegram.Token != original.Telegram.Token {
		t.Errorf("Telegram.Token mismatch: %v != %v", loaded.Telegram.Token, original.Telegram.Token)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORYNEST_BACKEND_URL", "http://override:8080")
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	path := tempConfigPath(t)

	cfg := &Config{LogLevel: "info"}
	cfg.Backend.BaseURL = "http://file-value:8000"
	writeTestConfig(t, path, cfg)

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Backend.BaseURL != "http://override:8080" {
		t.Errorf("env must win over file, got %v", loaded.Backend.BaseURL)
	}
	if loaded.Telegram.Token != "env-token" {
		t.Errorf("env must win over file, got %v", loaded.Telegram.Token)
	}
}

func TestLoad_WritesDefaults(t *testing.T) {
	t.Setenv("STORYNEST_BACKEND_URL", "")
	path := tempConfigPath(t)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backend.BaseURL != "http://localhost:8000" {
		t.Errorf("expected default backend URL, got %v", cfg.Backend.BaseURL)
	}
	if cfg.History.Encoding != "cl100k_base" {
		t.Errorf("expected default encoding, got %v", cfg.History.Encoding)
	}
	if !cfg.Illustration.Enabled {
		t.Error("illustrations must default to enabled")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Load must write defaults to disk: %v", err)
	}
}

func TestSave_AtomicWrite(t *testing.T) {
	path := tempConfigPath(t)

	cfg := &Config{LogLevel: "info"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	tmpPath := path + ".tmp"
	if _, err := os.Stat(tmpPath); !os.IsNotExist(err) {
		t.Errorf("temp file should not exist after successful save")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved config: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Errorf("saved file is not valid JSON: %v", err)
	}
}

func TestToMap(t *testing.T) {
	cfg := &Config{
		DataDir:  "/tmp/test",
		LogLevel: "debug",
	}
	cfg.Backend.BaseURL = "http://localhost:8000"
	cfg.Backend.TimeoutSeconds = 90

	m, err := ToMap(cfg)
	if err != nil {
		t.Fatalf("ToMap failed: %v", err)
	}

	if m["data_dir"] != "/tmp/test" {
		t.Errorf("expected data_dir=/tmp/test, got %v", m["data_dir"])
	}
	if m["log_level"] != "debug" {
		t.Errorf("expected log_level=debug, got %v", m["log_level"])
	}

	backend, ok := m["backend"].(map[string]any)
	if !ok {
		t.Fatalf("expected backend to be map, got %T", m["backend"])
	}
	if backend["base_url"] != "http://localhost:8000" {
		t.Errorf("expected backend.base_url, got %v", backend["base_url"])
	}
	// JSON numbers are float64
	if backend["timeout_seconds"] != float64(90) {
		t.Errorf("expected backend.timeout_seconds=90, got %v", backend["timeout_seconds"])
	}
}

func TestListValues_NoMask(t *testing.T) {
	cfg := &Config{
		LogLevel: "info",
	}
	cfg.Telegram.Token = "bot-token-abcd"

	flat, err := ListValues(cfg, false)
	if err != nil {
		t.Fatalf("ListValues failed: %v", err)
	}

	if flat["telegram.token"] != "bot-token-abcd" {
		t.Errorf("expected unmasked telegram.token, got %v", flat["telegram.token"])
	}
	if flat["log_level"] != "info" {
		t.Errorf("expected log_level=info, got %v", flat["log_level"])
	}
}

func TestListValues_WithMask(t *testing.T) {
	cfg := &Config{
		LogLevel: "info",
	}
	cfg.Telegram.Token = "bot-token-abcd"

	flat, err := ListValues(cfg, true)
	if err != nil {
		t.Fatalf("ListValues failed: %v", err)
	}

	if flat["telegram.token"] != "***abcd" {
		t.Errorf("expected masked telegram.token=***abcd, got %v", flat["telegram.token"])
	}
	if flat["log_level"] != "info" {
		t.Errorf("expected log_level=info, got %v", flat["log_level"])
	}
}

func TestGetValue_ExistingKey(t *testing.T) {
	t.Setenv("STORYNEST_BACKEND_URL", "")
	path := tempConfigPath(t)

	cfg := &Config{
		LogLevel:      "debug",
		MaxConcurrent: 8,
	}
	cfg.Backend.BaseURL = "http://localhost:8000"
	cfg.TTS.Lang = "fr"
	writeTestConfig(t, path, cfg)

	v, err := GetValue(path, "log_level")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != "debug" {
		t.Errorf("expected log_level=debug, got %v", v)
	}

	v, err = GetValue(path, "tts.lang")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != "fr" {
		t.Errorf("expected tts.lang=fr, got %v", v)
	}

	v, err = GetValue(path, "max_concurrent")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	// JSON numbers are float64
	if v != float64(8) {
		t.Errorf("expected max_concurrent=8, got %v (%T)", v, v)
	}
}

func TestGetValue_UnknownKey(t *testing.T) {
	path := tempConfigPath(t)

	cfg := &Config{LogLevel: "info"}
	writeTestConfig(t, path, cfg)

	_, err := GetValue(path, "nonexistent.key")
	if err == nil {
		t.Fatal("expected error for unknown key, got nil")
	}
	expected := "unknown config key: nonexistent.key"
	if err.Error() != expected {
		t.Errorf("expected error %q, got %q", expected, err.Error())
	}
}

func TestSetValue_String(t *testing.T) {
	path := tempConfigPath(t)

	cfg := &Config{LogLevel: "info"}
	cfg.TTS.Lang = "en"
	writeTestConfig(t, path, cfg)

	if err := SetValue(path, "log_level", "debug"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}

	v, err := GetValue(path, "log_level")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != "debug" {
		t.Errorf("expected log_level=debug after set, got %v", v)
	}

	// Other values are preserved
	v, err = GetValue(path, "tts.lang")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != "en" {
		t.Errorf("expected tts.lang=en (preserved), got %v", v)
	}
}

func TestSetValue_Numeric(t *testing.T) {
	path := tempConfigPath(t)

	cfg := &Config{MaxConcurrent: 2}
	writeTestConfig(t, path, cfg)

	if err := SetValue(path, "max_concurrent", "16"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}

	v, err := GetValue(path, "max_concurrent")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != float64(16) {
		t.Errorf("expected max_concurrent=16, got %v (%T)", v, v)
	}
}

func TestSetValue_Boolean(t *testing.T) {
	path := tempConfigPath(t)

	cfg := &Config{LogLevel: "info"}
	writeTestConfig(t, path, cfg)

	if err := SetValue(path, "tts.slow", "true"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}

	v, err := GetValue(path, "tts.slow")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != true {
		t.Errorf("expected tts.slow=true, got %v (%T)", v, v)
	}
}

func TestSetValue_NestedKey(t *testing.T) {
	t.Setenv("STORYNEST_BACKEND_URL", "")
	path := tempConfigPath(t)

	cfg := &Config{}
	cfg.Backend.BaseURL = "http://localhost:8000"
	writeTestConfig(t, path, cfg)

	if err := SetValue(path, "backend.base_url", "http://bedtime.local:9000"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}

	v, err := GetValue(path, "backend.base_url")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != "http://bedtime.local:9000" {
		t.Errorf("expected updated backend.base_url, got %v", v)
	}
}

func TestSetValue_NewNestedKey(t *testing.T) {
	path := tempConfigPath(t)

	cfg := &Config{LogLevel: "info"}
	writeTestConfig(t, path, cfg)

	// A key outside the Config struct still round-trips through the file
	if err := SetValue(path, "custom.setting", "value"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}

	v, err := GetValue(path, "custom.setting")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != "value" {
		t.Errorf("expected custom.setting=value, got %v", v)
	}
}

func TestSetValue_NonexistentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist", "config.json")
	err := SetValue(path, "log_level", "debug")
	if err == nil {
		t.Fatal("expected error for nonexistent file, got nil")
	}
}

func TestGetValue_NonexistentFile(t *testing.T) {
	path := tempConfigPath(t)

	// File doesn't exist yet; Load writes it with defaults first
	v, err := GetValue(path, "log_level")
	if err != nil {
		t.Fatalf("GetValue on new config failed: %v", err)
	}
	if v != "info" {
		t.Errorf("expected default log_level=info, got %v", v)
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config.json")

	cfg := &Config{LogLevel: "warn"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save should create parent directory, got: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file should exist: %v", err)
	}
}
