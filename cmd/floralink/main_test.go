package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("FLORALINK_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, false)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_UnrecognisedMode verifies run fails before touching any broker
// when the reporting mode is not one of the accepted strings.
func TestRun_UnrecognisedMode(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
reporting:
  mode: mqtt-json

daemon:
  enabled: false
  period_miflora: 300
  period_mitempbt: 60

reader:
  command: /bin/true
  timeout: 5

sensors:
  miflora:
    Petunia: "C4:7C:8D:11:22:33"

journal:
  enabled: false

influxdb:
  enabled: false

logging:
  level: error
  format: text
  output: stderr
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("FLORALINK_CONFIG", configPath)
	t.Setenv("FLORALINK_REPORTING_MODE", "mqtt-jsn")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, false)
	if err == nil {
		t.Fatal("run() should fail with an unrecognised reporting mode")
	}
}

// TestRun_LocalModeOneShot exercises a complete startup and single polling
// pass in local output mode. No broker is needed: the reader helper is a
// shell script emitting fixed values and results land on stdout only.
func TestRun_LocalModeOneShot(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")
	helperPath := filepath.Join(tmpDir, "misensor-read")

	helper := `#!/bin/sh
echo '{"temperature": 21.5, "humidity": 48, "battery": 80, "firmware": "00.00.66"}'
`
	if err := os.WriteFile(helperPath, []byte(helper), 0755); err != nil {
		t.Fatalf("failed to write helper script: %v", err)
	}

	journalPath := filepath.Join(tmpDir, "floralink.db")

	configContent := `
reporting:
  mode: json

daemon:
  enabled: false
  period_miflora: 300
  period_mitempbt: 60

reader:
  command: "` + helperPath + `"
  timeout: 5

sensors:
  mitempbt:
    Bedroom: "4C:65:A8:AA:BB:CC"

journal:
  enabled: true
  path: "` + journalPath + `"
  wal_mode: true
  busy_timeout: 5

influxdb:
  enabled: false

logging:
  level: error
  format: text
  output: stderr
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("FLORALINK_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := run(ctx, false); err != nil {
		t.Fatalf("run() failed: %v", err)
	}

	if _, err := os.Stat(journalPath); err != nil {
		t.Errorf("journal database was not created: %v", err)
	}
}

// TestRun_GenOpenHABItems verifies the one-shot items export completes
// without a broker: the export path returns before any MQTT connection
// is attempted.
func TestRun_GenOpenHABItems(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
reporting:
  mode: mqtt-json

daemon:
  enabled: false
  period_miflora: 300
  period_mitempbt: 60

reader:
  command: /bin/true
  timeout: 5

sensors:
  miflora:
    Petunia@Balcony: "C4:7C:8D:11:22:33"

journal:
  enabled: false

influxdb:
  enabled: false

logging:
  level: error
  format: text
  output: stderr
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("FLORALINK_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, true); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("FLORALINK_CONFIG", "")
	os.Unsetenv("FLORALINK_CONFIG")

	path := getConfigPath()
	if path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("FLORALINK_CONFIG", expected)

	path := getConfigPath()
	if path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}
