package merger

import (
	"fmt"

	"github.com/dbsmedya/typemerge/internal/model"
)

// Plan is the immutable description of one merge: the types to purge, in
// selection order, and the replacement every linked instance moves to.
type Plan struct {
	purge       []model.TypeRecord
	purgeIDs    model.IDSet
	replacement model.TypeRecord
}

// NewPlan validates and freezes a merge plan. The purge set keeps its
// selection order with duplicates collapsed; it must be non-empty and
// must not contain the replacement.
func NewPlan(purge []model.TypeRecord, replacement model.TypeRecord) (*Plan, error) {
	purgeIDs := model.NewIDSet()
	deduped := make([]model.TypeRecord, 0, len(purge))
	for _, rec := range purge {
		if !rec.ID.Valid() {
			return nil, &InvalidPlanError{Reason: fmt.Sprintf("purge entry %q has no valid id", rec.Name)}
		}
		if purgeIDs.Has(rec.ID) {
			continue
		}
		purgeIDs.Add(rec.ID)
		deduped = append(deduped, rec)
	}

	if len(deduped) == 0 {
		return nil, &InvalidPlanError{Reason: "purge set is empty"}
	}
	if !replacement.ID.Valid() {
		return nil, &InvalidPlanError{Reason: "replacement type has no valid id"}
	}
	if purgeIDs.Has(replacement.ID) {
		return nil, &InvalidPlanError{Reason: fmt.Sprintf("replacement %q is itself marked for purge", replacement.Name)}
	}

	return &Plan{
		purge:       deduped,
		purgeIDs:    purgeIDs,
		replacement: replacement,
	}, nil
}

// PurgeTypes returns a copy of the purge set in selection order.
func (p *Plan) PurgeTypes() []model.TypeRecord {
	out := make([]model.TypeRecord, len(p.purge))
	copy(out, p.purge)
	return out
}

// PurgeIDs returns the purge ids in selection order.
func (p *Plan) PurgeIDs() []model.ID {
	out := make([]model.ID, len(p.purge))
	for i, rec := range p.purge {
		out[i] = rec.ID
	}
	return out
}

// Replacement returns the surviving type.
func (p *Plan) Replacement() model.TypeRecord {
	return p.replacement
}

// IsPurge reports whether id is in the purge set.
func (p *Plan) IsPurge(id model.ID) bool {
	return p.purgeIDs.Has(id)
}

// PurgeType returns the purge record with the given id.
func (p *Plan) PurgeType(id model.ID) (model.TypeRecord, bool) {
	for _, rec := range p.purge {
		if rec.ID == id {
			return rec, true
		}
	}
	return model.TypeRecord{}, false
}
