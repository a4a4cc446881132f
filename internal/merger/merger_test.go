package merger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/typemerge/internal/config"
	"github.com/dbsmedya/typemerge/internal/docstore"
	"github.com/dbsmedya/typemerge/internal/logger"
	"github.com/dbsmedya/typemerge/internal/model"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(&config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"})
	require.NoError(t, err)
	return log
}

func newTestDocument(t *testing.T) (*docstore.Session, *SessionDocument) {
	t.Helper()

	s, err := docstore.Open(context.Background(), docstore.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, NewSessionDocument(s)
}

// mergeSeed is the canonical fixture: three types of one family, a
// visible instance on each, a hidden instance on dupA and an annotation
// hanging off the hidden instance.
type mergeSeed struct {
	dupA, dupB, keep model.TypeRecord
	v1, v2, v3, h1   model.InstanceRecord
	note             model.AnnotationRecord
}

func seedMergeDocument(t *testing.T, s *docstore.Session) mergeSeed {
	t.Helper()

	txn, err := s.Begin("seed")
	require.NoError(t, err)

	var seed mergeSeed
	seed.dupA, err = s.CreateType("Detail View 1", "Viewport")
	require.NoError(t, err)
	seed.dupB, err = s.CreateType("Detail View 2", "Viewport")
	require.NoError(t, err)
	seed.keep, err = s.CreateType("Standard", "Viewport")
	require.NoError(t, err)

	seed.v1, err = s.CreateInstance(seed.dupA.ID, docstore.InstanceOptions{})
	require.NoError(t, err)
	seed.v2, err = s.CreateInstance(seed.dupB.ID, docstore.InstanceOptions{})
	require.NoError(t, err)
	seed.v3, err = s.CreateInstance(seed.keep.ID, docstore.InstanceOptions{})
	require.NoError(t, err)
	seed.h1, err = s.CreateInstance(seed.dupA.ID, docstore.InstanceOptions{Hidden: true})
	require.NoError(t, err)

	seed.note, err = s.CreateAnnotation(seed.h1.ID, "legacy viewport")
	require.NoError(t, err)

	require.NoError(t, txn.Commit())
	return seed
}

// stubSelector returns canned selections in order and records how it
// was called. Exhausted selections read as cancellation.
type stubSelector struct {
	selections [][]model.TypeRecord
	err        error

	calls      int
	titles     []string
	multis     []bool
	candidates [][]model.TypeRecord
}

func (s *stubSelector) SelectTypes(candidates []model.TypeRecord, title string, multi bool) ([]model.TypeRecord, error) {
	s.calls++
	s.titles = append(s.titles, title)
	s.multis = append(s.multis, multi)
	s.candidates = append(s.candidates, candidates)

	if s.err != nil {
		return nil, s.err
	}
	if len(s.selections) == 0 {
		return nil, nil
	}
	selected := s.selections[0]
	s.selections = s.selections[1:]
	return selected, nil
}

// stubDocument serves canned element types for tests that never touch a
// store. Any other Document method panics, which flags the unexpected
// call.
type stubDocument struct {
	Document
	types    []model.TypeRecord
	typesErr error
}

func (d *stubDocument) ElementTypes() ([]model.TypeRecord, error) {
	return d.types, d.typesErr
}

// countingDocument counts scope openings on the way through.
type countingDocument struct {
	Document
	begins      int
	beginGroups int
}

func (d *countingDocument) Begin(name string) (Scope, error) {
	d.begins++
	return d.Document.Begin(name)
}

func (d *countingDocument) BeginGroup(name string) (Scope, error) {
	d.beginGroups++
	return d.Document.BeginGroup(name)
}

// failingDocument sabotages the named scopes: beginErrs fails the Begin
// outright, commitErrs hands out a scope whose Commit discards the work
// and reports the given error.
type failingDocument struct {
	Document
	beginErrs  map[string]error
	commitErrs map[string]error
}

func (d *failingDocument) Begin(name string) (Scope, error) {
	if err, ok := d.beginErrs[name]; ok {
		return nil, err
	}

	sc, err := d.Document.Begin(name)
	if err != nil {
		return nil, err
	}
	if commitErr, ok := d.commitErrs[name]; ok {
		return &commitFailingScope{Scope: sc, err: commitErr}, nil
	}
	return sc, nil
}

// commitFailingScope simulates a commit failure after the store has
// already dropped the transaction's work.
type commitFailingScope struct {
	Scope
	err error
}

func (sc *commitFailingScope) Commit() error {
	_ = sc.Scope.Rollback()
	return sc.err
}

// scriptedScope records commit/rollback calls and can fail either one.
type scriptedScope struct {
	commits     int
	rollbacks   int
	commitErr   error
	rollbackErr error
}

func (sc *scriptedScope) Commit() error {
	sc.commits++
	return sc.commitErr
}

func (sc *scriptedScope) Rollback() error {
	sc.rollbacks++
	return sc.rollbackErr
}

// probeDocument scripts the begin/delete surface a probe touches.
type probeDocument struct {
	Document
	scope     *scriptedScope
	beginErr  error
	linked    []model.ID
	deleteErr error

	begun   []string
	deleted []model.ID
}

func (d *probeDocument) Begin(name string) (Scope, error) {
	d.begun = append(d.begun, name)
	if d.beginErr != nil {
		return nil, d.beginErr
	}
	return d.scope, nil
}

func (d *probeDocument) Delete(id model.ID) ([]model.ID, error) {
	d.deleted = append(d.deleted, id)
	if d.deleteErr != nil {
		return nil, d.deleteErr
	}
	return d.linked, nil
}
