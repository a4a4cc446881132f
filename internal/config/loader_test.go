package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestLoad(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")

	configContent := `
document:
  path: /data/models/site
  family: Viewport
  sync_writes: true

selection:
  mode: scripted
  purge:
    - "Detail View 2"
    - "Detail View 3"
  replacement: "Detail View 1"

processing:
  progress_every: 25

logging:
  level: debug
  format: text
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify document config
	if cfg.Document.Path != "/data/models/site" {
		t.Errorf("expected document path '/data/models/site', got %s", cfg.Document.Path)
	}
	if cfg.Document.Family != "Viewport" {
		t.Errorf("expected family 'Viewport', got %s", cfg.Document.Family)
	}
	if !cfg.Document.SyncWrites {
		t.Error("expected sync_writes true")
	}

	// Verify selection config
	if !cfg.Selection.Scripted() {
		t.Error("expected scripted selection mode")
	}
	if len(cfg.Selection.Purge) != 2 {
		t.Errorf("expected 2 purge entries, got %d", len(cfg.Selection.Purge))
	}
	if cfg.Selection.Replacement != "Detail View 1" {
		t.Errorf("expected replacement 'Detail View 1', got %s", cfg.Selection.Replacement)
	}

	// Verify processing config
	if cfg.Processing.ProgressEvery != 25 {
		t.Errorf("expected progress_every 25, got %d", cfg.Processing.ProgressEvery)
	}

	// Verify logging config
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected logging level 'debug', got %s", cfg.Logging.Level)
	}
}

func TestLoadWithEnvVars(t *testing.T) {
	// Set environment variables for test
	os.Setenv("TEST_DOC_ROOT", "/mnt/models")
	os.Setenv("TEST_LOG_DIR", "/var/log/typemerge")
	defer func() {
		os.Unsetenv("TEST_DOC_ROOT")
		os.Unsetenv("TEST_LOG_DIR")
	}()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-env.yaml")

	configContent := `
document:
  path: ${TEST_DOC_ROOT}/site
  family: Viewport

logging:
  level: info
  output: $TEST_LOG_DIR/run.log
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Document.Path != "/mnt/models/site" {
		t.Errorf("expected substituted path '/mnt/models/site', got %s", cfg.Document.Path)
	}
	if cfg.Logging.Output != "/var/log/typemerge/run.log" {
		t.Errorf("expected substituted output '/var/log/typemerge/run.log', got %s", cfg.Logging.Output)
	}
}

func TestLoadMissingEnvVarKeepsOriginal(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-missing-env.yaml")

	configContent := `
document:
  path: ${TYPEMERGE_UNSET_VAR}/site
  family: Viewport
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Document.Path != "${TYPEMERGE_UNSET_VAR}/site" {
		t.Errorf("expected unresolved env var to remain, got %s", cfg.Document.Path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadFromViper(t *testing.T) {
	v := viper.New()
	v.Set("document.path", "/data/site")
	v.Set("document.family", "Viewport")
	v.Set("logging.level", "warn")

	cfg, err := LoadFromViper(v)
	if err != nil {
		t.Fatalf("LoadFromViper failed: %v", err)
	}

	if cfg.Document.Path != "/data/site" {
		t.Errorf("expected path '/data/site', got %s", cfg.Document.Path)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected level 'warn', got %s", cfg.Logging.Level)
	}
	// Defaults survive for unset keys
	if cfg.Processing.ProgressEvery != 100 {
		t.Errorf("expected default progress_every 100, got %d", cfg.Processing.ProgressEvery)
	}
}

func TestExpandEnvVar(t *testing.T) {
	os.Setenv("TYPEMERGE_TEST_VALUE", "resolved")
	defer os.Unsetenv("TYPEMERGE_TEST_VALUE")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "braced form",
			input:    "${TYPEMERGE_TEST_VALUE}",
			expected: "resolved",
		},
		{
			name:     "bare form",
			input:    "$TYPEMERGE_TEST_VALUE",
			expected: "resolved",
		},
		{
			name:     "embedded",
			input:    "prefix-${TYPEMERGE_TEST_VALUE}-suffix",
			expected: "prefix-resolved-suffix",
		},
		{
			name:     "no variables",
			input:    "plain string",
			expected: "plain string",
		},
		{
			name:     "unset variable kept",
			input:    "${TYPEMERGE_TEST_UNSET}",
			expected: "${TYPEMERGE_TEST_UNSET}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := expandEnvVar(tt.input)
			if got != tt.expected {
				t.Errorf("expandEnvVar(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}
