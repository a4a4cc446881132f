package selection

import (
	"fmt"

	"github.com/dbsmedya/typemerge/internal/config"
	"github.com/dbsmedya/typemerge/internal/logger"
	"github.com/dbsmedya/typemerge/internal/model"
)

// ScriptedSelector answers selection calls from configuration instead
// of a prompt, for automation and tests. Multi selects resolve the
// configured purge list, single selects the configured replacement.
// Entries match a candidate by numeric id first, then by exact display
// name.
type ScriptedSelector struct {
	purge       []string
	replacement string
	log         *logger.Logger
}

// NewScriptedSelector creates a selector over the configured selection.
func NewScriptedSelector(cfg config.SelectionConfig, log *logger.Logger) *ScriptedSelector {
	return &ScriptedSelector{
		purge:       cfg.Purge,
		replacement: cfg.Replacement,
		log:         log,
	}
}

// SelectTypes resolves the configured entries against the candidates.
// An entry matching no candidate is an error; an empty configuration
// reads as cancellation.
func (s *ScriptedSelector) SelectTypes(candidates []model.TypeRecord, title string, multi bool) ([]model.TypeRecord, error) {
	entries := s.purge
	if !multi {
		if s.replacement == "" {
			return nil, nil
		}
		entries = []string{s.replacement}
	}
	if len(entries) == 0 {
		return nil, nil
	}

	out := make([]model.TypeRecord, 0, len(entries))
	for _, entry := range entries {
		rec, ok := resolveEntry(candidates, entry)
		if !ok {
			return nil, fmt.Errorf("no candidate type matches %q", entry)
		}
		out = append(out, rec)
	}

	s.log.Debugw("Scripted selection resolved", "title", title, "chosen", len(out))
	return out, nil
}

// resolveEntry matches an entry against the candidates, by id when the
// entry parses as one, falling back to the exact display name.
func resolveEntry(candidates []model.TypeRecord, entry string) (model.TypeRecord, bool) {
	if id, err := model.ParseID(entry); err == nil {
		for _, rec := range candidates {
			if rec.ID == id {
				return rec, true
			}
		}
	}
	for _, rec := range candidates {
		if rec.Name == entry {
			return rec, true
		}
	}
	return model.TypeRecord{}, false
}
