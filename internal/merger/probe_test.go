package merger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/typemerge/internal/docstore"
	"github.com/dbsmedya/typemerge/internal/model"
)

func TestProbeCapturesCascade(t *testing.T) {
	doc := &probeDocument{
		scope:  &scriptedScope{},
		linked: []model.ID{2, 4, 7},
	}

	probe, err := NewProbe(doc, testLogger(t))
	require.NoError(t, err)

	result, err := probe.Run(model.ID(2))
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, model.ID(2), result.TypeID)
	assert.Equal(t, []model.ID{2, 4, 7}, result.Linked)
	assert.Equal(t, []string{"probe type 2"}, doc.begun)
	assert.Equal(t, []model.ID{2}, doc.deleted)

	// The trial deletion never commits
	assert.Equal(t, 0, doc.scope.commits)
	assert.Equal(t, 1, doc.scope.rollbacks)
}

func TestProbeBeginFailure(t *testing.T) {
	beginErr := errors.New("store closed")
	doc := &probeDocument{beginErr: beginErr}

	probe, err := NewProbe(doc, testLogger(t))
	require.NoError(t, err)

	result, err := probe.Run(model.ID(2))
	assert.Nil(t, result)
	assert.ErrorIs(t, err, beginErr)

	var probeErr *ProbeError
	require.ErrorAs(t, err, &probeErr)
	assert.Equal(t, "begin", probeErr.Op)
	assert.Empty(t, doc.deleted)
}

func TestProbeCascadeFailureStillRollsBack(t *testing.T) {
	cascadeErr := errors.New("record vanished")
	doc := &probeDocument{
		scope:     &scriptedScope{},
		deleteErr: cascadeErr,
	}

	probe, err := NewProbe(doc, testLogger(t))
	require.NoError(t, err)

	result, err := probe.Run(model.ID(2))
	assert.Nil(t, result)

	var probeErr *ProbeError
	require.ErrorAs(t, err, &probeErr)
	assert.Equal(t, "cascade", probeErr.Op)
	assert.Equal(t, 1, doc.scope.rollbacks)
}

func TestProbeRollbackFailureOverridesResult(t *testing.T) {
	doc := &probeDocument{
		scope:  &scriptedScope{rollbackErr: errors.New("scope jammed")},
		linked: []model.ID{2, 4},
	}

	probe, err := NewProbe(doc, testLogger(t))
	require.NoError(t, err)

	// The cascade succeeded, but without the rollback the document can
	// no longer be assumed unchanged.
	result, err := probe.Run(model.ID(2))
	assert.Nil(t, result)

	var probeErr *ProbeError
	require.ErrorAs(t, err, &probeErr)
	assert.Equal(t, "rollback", probeErr.Op)
}

func TestProbeIdempotentOnRealDocument(t *testing.T) {
	s, doc := newTestDocument(t)
	seed := seedMergeDocument(t, s)

	before, err := s.Checksum()
	require.NoError(t, err)

	probe, err := NewProbe(doc, testLogger(t))
	require.NoError(t, err)

	first, err := probe.Run(seed.dupA.ID)
	require.NoError(t, err)
	second, err := probe.Run(seed.dupA.ID)
	require.NoError(t, err)

	expected := model.NewIDSet(seed.dupA.ID, seed.v1.ID, seed.h1.ID, seed.note.ID).Sorted()
	assert.Equal(t, expected, first.Linked)
	assert.Equal(t, first.Linked, second.Linked)

	after, err := s.Checksum()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestProbeUnknownTypeFailsCascade(t *testing.T) {
	s, doc := newTestDocument(t)
	seedMergeDocument(t, s)

	probe, err := NewProbe(doc, testLogger(t))
	require.NoError(t, err)

	result, err := probe.Run(model.ID(9999))
	assert.Nil(t, result)
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	var probeErr *ProbeError
	require.ErrorAs(t, err, &probeErr)
	assert.Equal(t, "cascade", probeErr.Op)
}

func TestNewProbeValidation(t *testing.T) {
	_, err := NewProbe(nil, testLogger(t))
	assert.Error(t, err)

	_, err = NewProbe(&probeDocument{}, nil)
	assert.Error(t, err)
}
