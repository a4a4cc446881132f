package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/typemerge/internal/logger"
	"github.com/dbsmedya/typemerge/internal/model"
)

// The interactive paths need a terminal; only the pure pieces are
// covered here.

func TestPromptSelectorEmptyCandidates(t *testing.T) {
	p := NewPromptSelector(logger.NewDefault())

	chosen, err := p.SelectTypes(nil, "Select types", true)
	require.NoError(t, err)
	assert.Nil(t, chosen)
}

func TestOptionLabel(t *testing.T) {
	rec := model.TypeRecord{ID: 42, Name: "Detail View 1", Family: "Viewport"}
	assert.Equal(t, "Detail View 1 (Viewport, id 42)", optionLabel(rec))
}
