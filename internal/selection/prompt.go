// Package selection implements the engine's selection capability: an
// interactive terminal prompt and a scripted selector driven by
// configuration for non-interactive runs.
package selection

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/dbsmedya/typemerge/internal/logger"
	"github.com/dbsmedya/typemerge/internal/model"
)

// PromptSelector asks the operator to pick element types on the
// terminal. The call blocks until the prompt is submitted or aborted.
type PromptSelector struct {
	log *logger.Logger
}

// NewPromptSelector creates an interactive selector.
func NewPromptSelector(log *logger.Logger) *PromptSelector {
	return &PromptSelector{log: log}
}

// SelectTypes renders a select list over the candidates in the order
// given. Aborting the prompt, or submitting a multi select with nothing
// chosen, reads as cancellation: an empty result with a nil error.
func (p *PromptSelector) SelectTypes(candidates []model.TypeRecord, title string, multi bool) ([]model.TypeRecord, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	byID := make(map[model.ID]model.TypeRecord, len(candidates))
	options := make([]huh.Option[model.ID], len(candidates))
	for i, rec := range candidates {
		byID[rec.ID] = rec
		options[i] = huh.NewOption(optionLabel(rec), rec.ID)
	}

	var picked []model.ID
	if multi {
		field := huh.NewMultiSelect[model.ID]().
			Title(title).
			Options(options...).
			Value(&picked)
		aborted, err := p.runPrompt(field, title)
		if err != nil {
			return nil, err
		}
		if aborted {
			return nil, nil
		}
	} else {
		var single model.ID
		field := huh.NewSelect[model.ID]().
			Title(title).
			Options(options...).
			Value(&single)
		aborted, err := p.runPrompt(field, title)
		if err != nil {
			return nil, err
		}
		if aborted || !single.Valid() {
			return nil, nil
		}
		picked = []model.ID{single}
	}

	out := make([]model.TypeRecord, 0, len(picked))
	for _, id := range picked {
		if rec, ok := byID[id]; ok {
			out = append(out, rec)
		}
	}

	p.log.Debugw("Selection submitted", "title", title, "chosen", len(out))
	return out, nil
}

// runPrompt runs a single field as its own form and reports whether the
// operator aborted it.
func (p *PromptSelector) runPrompt(field huh.Field, title string) (bool, error) {
	if err := huh.NewForm(huh.NewGroup(field)).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			p.log.Debugw("Selection aborted", "title", title)
			return true, nil
		}
		return false, fmt.Errorf("selection prompt failed: %w", err)
	}
	return false, nil
}

func optionLabel(rec model.TypeRecord) string {
	return fmt.Sprintf("%s (%s, id %s)", rec.Name, rec.Family, rec.ID)
}
