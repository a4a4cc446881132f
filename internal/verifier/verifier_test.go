// Package verifier provides tests for post-merge verification.
package verifier

import (
	"context"
	"testing"

	"github.com/dbsmedya/typemerge/internal/docstore"
	"github.com/dbsmedya/typemerge/internal/logger"
	"github.com/dbsmedya/typemerge/internal/model"
)

// ============================================================================
// Test Helpers
// ============================================================================

func newTestSession(t *testing.T) *docstore.Session {
	t.Helper()

	s, err := docstore.Open(context.Background(), docstore.Options{InMemory: true})
	if err != nil {
		t.Fatalf("Failed to open document: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// seedTypes creates one fully merged type, one type still referenced by
// a visible and a hidden instance, and the replacement everything else
// points at.
func seedTypes(t *testing.T, s *docstore.Session) (merged, busy, keep model.TypeRecord) {
	t.Helper()

	txn, err := s.Begin("seed")
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}

	merged, err = s.CreateType("Detail View 1", "Viewport")
	if err != nil {
		t.Fatalf("Failed to create type: %v", err)
	}
	busy, err = s.CreateType("Detail View 2", "Viewport")
	if err != nil {
		t.Fatalf("Failed to create type: %v", err)
	}
	keep, err = s.CreateType("Standard", "Viewport")
	if err != nil {
		t.Fatalf("Failed to create type: %v", err)
	}

	if _, err := s.CreateInstance(keep.ID, docstore.InstanceOptions{}); err != nil {
		t.Fatalf("Failed to create instance: %v", err)
	}
	if _, err := s.CreateInstance(busy.ID, docstore.InstanceOptions{}); err != nil {
		t.Fatalf("Failed to create instance: %v", err)
	}
	if _, err := s.CreateInstance(busy.ID, docstore.InstanceOptions{Hidden: true}); err != nil {
		t.Fatalf("Failed to create instance: %v", err)
	}

	if err := txn.Commit(); err != nil {
		t.Fatalf("Failed to commit seed: %v", err)
	}
	return merged, busy, keep
}

// ============================================================================
// New Tests
// ============================================================================

func TestNewRequiresSession(t *testing.T) {
	if _, err := New(nil, logger.NewDefault()); err == nil {
		t.Fatal("Expected error for nil session")
	}
}

func TestNewDefaultsLogger(t *testing.T) {
	s := newTestSession(t)

	v, err := New(s, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if v == nil {
		t.Fatal("New returned nil")
	}
}

// ============================================================================
// RemainingReferences Tests
// ============================================================================

func TestRemainingReferencesMixedResults(t *testing.T) {
	s := newTestSession(t)
	merged, busy, _ := seedTypes(t, s)

	v, err := New(s, logger.NewDefault())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	report, err := v.RemainingReferences([]model.ID{merged.ID, busy.ID})
	if err != nil {
		t.Fatalf("RemainingReferences failed: %v", err)
	}

	if report.TypesChecked != 2 {
		t.Errorf("Expected 2 types checked, got %d", report.TypesChecked)
	}
	if report.TypesRemovable != 1 {
		t.Errorf("Expected 1 removable type, got %d", report.TypesRemovable)
	}
	if report.TypesBlocked != 1 {
		t.Errorf("Expected 1 blocked type, got %d", report.TypesBlocked)
	}

	first := report.PerType[0]
	if first.Name != "Detail View 1" {
		t.Errorf("Expected results in purge order, got %q first", first.Name)
	}
	if !first.Removable || first.Remaining != 0 {
		t.Errorf("Expected %q removable with 0 remaining, got removable=%t remaining=%d",
			first.Name, first.Removable, first.Remaining)
	}

	// The hidden instance counts against the busy type too
	second := report.PerType[1]
	if second.Removable {
		t.Errorf("Expected %q blocked", second.Name)
	}
	if second.Remaining != 2 {
		t.Errorf("Expected 2 remaining references, got %d", second.Remaining)
	}
}

func TestRemainingReferencesHiddenOnly(t *testing.T) {
	s := newTestSession(t)

	txn, err := s.Begin("seed")
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	hiddenOnly, err := s.CreateType("Detail View 3", "Viewport")
	if err != nil {
		t.Fatalf("Failed to create type: %v", err)
	}
	if _, err := s.CreateInstance(hiddenOnly.ID, docstore.InstanceOptions{Hidden: true}); err != nil {
		t.Fatalf("Failed to create instance: %v", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("Failed to commit seed: %v", err)
	}

	v, err := New(s, logger.NewDefault())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// A type that looks unused in normal enumeration must still report
	// its hidden reference
	report, err := v.RemainingReferences([]model.ID{hiddenOnly.ID})
	if err != nil {
		t.Fatalf("RemainingReferences failed: %v", err)
	}
	if report.PerType[0].Remaining != 1 {
		t.Errorf("Expected 1 remaining reference, got %d", report.PerType[0].Remaining)
	}
	if report.PerType[0].Removable {
		t.Error("Expected type blocked by its hidden instance")
	}
}

func TestRemainingReferencesUnknownType(t *testing.T) {
	s := newTestSession(t)
	seedTypes(t, s)

	v, err := New(s, logger.NewDefault())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	report, err := v.RemainingReferences([]model.ID{9999})
	if err != nil {
		t.Fatalf("RemainingReferences failed: %v", err)
	}

	result := report.PerType[0]
	if !result.Removable {
		t.Error("Expected unknown type to verify removable")
	}
	if result.Name != "9999" {
		t.Errorf("Expected id fallback for the name, got %q", result.Name)
	}
}
