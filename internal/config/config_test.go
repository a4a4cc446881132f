package config

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Test document defaults
	if cfg.Document.Path != "" {
		t.Errorf("expected empty document path, got %s", cfg.Document.Path)
	}
	if cfg.Document.SyncWrites {
		t.Error("expected sync_writes disabled by default")
	}

	// Test selection defaults
	if cfg.Selection.Mode != SelectionModeInteractive {
		t.Errorf("expected selection mode 'interactive', got %s", cfg.Selection.Mode)
	}
	if cfg.Selection.Scripted() {
		t.Error("expected default selection to not be scripted")
	}

	// Test processing defaults
	if cfg.Processing.ProgressEvery != 100 {
		t.Errorf("expected progress_every 100, got %d", cfg.Processing.ProgressEvery)
	}

	// Test verification defaults
	if cfg.Verification.SkipVerification {
		t.Error("expected verification enabled by default")
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected logging level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected logging format 'text', got %s", cfg.Logging.Format)
	}
}

func TestSelectionScripted(t *testing.T) {
	tests := []struct {
		mode     string
		expected bool
	}{
		{SelectionModeScripted, true},
		{SelectionModeInteractive, false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			s := SelectionConfig{Mode: tt.mode}
			if s.Scripted() != tt.expected {
				t.Errorf("Scripted() with mode %q = %v, expected %v", tt.mode, s.Scripted(), tt.expected)
			}
		})
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Document.Path = "/data/site"
	cfg.Document.Family = "Viewport"

	cfg.ApplyOverrides("debug", "json", "", "")

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected format 'json', got %s", cfg.Logging.Format)
	}
	// Empty overrides leave existing values alone
	if cfg.Document.Path != "/data/site" {
		t.Errorf("expected path '/data/site', got %s", cfg.Document.Path)
	}
	if cfg.Document.Family != "Viewport" {
		t.Errorf("expected family 'Viewport', got %s", cfg.Document.Family)
	}

	cfg.ApplyOverrides("", "", "/data/other", "Wall")
	if cfg.Document.Path != "/data/other" {
		t.Errorf("expected path '/data/other', got %s", cfg.Document.Path)
	}
	if cfg.Document.Family != "Wall" {
		t.Errorf("expected family 'Wall', got %s", cfg.Document.Family)
	}
}

func TestApplySelectionOverrides(t *testing.T) {
	cfg := DefaultConfig()

	// No values: configuration untouched
	cfg.ApplySelectionOverrides(nil, "")
	if cfg.Selection.Mode != SelectionModeInteractive {
		t.Errorf("expected mode unchanged, got %s", cfg.Selection.Mode)
	}

	// Purge and replacement switch to scripted mode
	cfg.ApplySelectionOverrides([]string{"Detail View 2", "Detail View 3"}, "Detail View 1")
	if cfg.Selection.Mode != SelectionModeScripted {
		t.Errorf("expected scripted mode, got %s", cfg.Selection.Mode)
	}
	if len(cfg.Selection.Purge) != 2 {
		t.Errorf("expected 2 purge entries, got %d", len(cfg.Selection.Purge))
	}
	if cfg.Selection.Replacement != "Detail View 1" {
		t.Errorf("expected replacement 'Detail View 1', got %s", cfg.Selection.Replacement)
	}
}
