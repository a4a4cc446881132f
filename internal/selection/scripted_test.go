package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/typemerge/internal/config"
	"github.com/dbsmedya/typemerge/internal/logger"
	"github.com/dbsmedya/typemerge/internal/model"
)

var scriptedCandidates = []model.TypeRecord{
	{ID: 4, Name: "Detail View 1", Family: "Viewport"},
	{ID: 7, Name: "Detail View 2", Family: "Viewport"},
	{ID: 9, Name: "Standard", Family: "Viewport"},
}

func newScripted(purge []string, replacement string) *ScriptedSelector {
	cfg := config.SelectionConfig{
		Mode:        config.SelectionModeScripted,
		Purge:       purge,
		Replacement: replacement,
	}
	return NewScriptedSelector(cfg, logger.NewDefault())
}

func TestScriptedSelectorResolvesNames(t *testing.T) {
	s := newScripted([]string{"Detail View 1", "Detail View 2"}, "Standard")

	chosen, err := s.SelectTypes(scriptedCandidates, "purge", true)
	require.NoError(t, err)
	require.Len(t, chosen, 2)
	assert.Equal(t, model.ID(4), chosen[0].ID)
	assert.Equal(t, model.ID(7), chosen[1].ID)
}

func TestScriptedSelectorResolvesIDs(t *testing.T) {
	s := newScripted([]string{"7", "4"}, "9")

	chosen, err := s.SelectTypes(scriptedCandidates, "purge", true)
	require.NoError(t, err)
	require.Len(t, chosen, 2)

	// Entry order wins over catalog order
	assert.Equal(t, "Detail View 2", chosen[0].Name)
	assert.Equal(t, "Detail View 1", chosen[1].Name)
}

func TestScriptedSelectorReplacementCall(t *testing.T) {
	s := newScripted([]string{"Detail View 1"}, "Standard")

	chosen, err := s.SelectTypes(scriptedCandidates, "replacement", false)
	require.NoError(t, err)
	require.Len(t, chosen, 1)
	assert.Equal(t, model.ID(9), chosen[0].ID)
}

func TestScriptedSelectorUnknownEntry(t *testing.T) {
	s := newScripted([]string{"Detail View 1", "Ghost"}, "Standard")

	chosen, err := s.SelectTypes(scriptedCandidates, "purge", true)
	assert.Nil(t, chosen)
	assert.ErrorContains(t, err, `"Ghost"`)
}

func TestScriptedSelectorEmptyPurgeCancels(t *testing.T) {
	s := newScripted(nil, "Standard")

	chosen, err := s.SelectTypes(scriptedCandidates, "purge", true)
	require.NoError(t, err)
	assert.Empty(t, chosen)
}

func TestScriptedSelectorEmptyReplacementCancels(t *testing.T) {
	s := newScripted([]string{"Detail View 1"}, "")

	chosen, err := s.SelectTypes(scriptedCandidates, "replacement", false)
	require.NoError(t, err)
	assert.Empty(t, chosen)
}

func TestResolveEntryPrefersIDOverName(t *testing.T) {
	candidates := []model.TypeRecord{
		{ID: 4, Name: "7"},
		{ID: 7, Name: "Detail View"},
	}

	rec, ok := resolveEntry(candidates, "7")
	require.True(t, ok)
	assert.Equal(t, model.ID(7), rec.ID)
}

func TestResolveEntryFallsBackToName(t *testing.T) {
	candidates := []model.TypeRecord{
		{ID: 4, Name: "42"},
	}

	// "42" parses as an id but no candidate has it, the name still wins
	rec, ok := resolveEntry(candidates, "42")
	require.True(t, ok)
	assert.Equal(t, model.ID(4), rec.ID)
}
