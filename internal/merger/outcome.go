package merger

import (
	"time"

	orderedmap "github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/typemerge/internal/model"
)

// TypeOutcome accumulates what happened to one purge type across both
// reassignment sweeps.
type TypeOutcome struct {
	Type              model.TypeRecord
	LinkedFound       int  // Records captured by the probe, the type's own id included
	VisibleReassigned int  // Instances moved during the visible sweep
	LinkedReassigned  int  // Instances moved during the linked sweep
	SkippedStale      int  // Probe ids that needed no work when re-resolved
	Failures          int  // Per-instance failures across both sweeps
	HadErrors         bool // At least one failure was recorded
}

// Outcome is the record of one merge run. PerType iterates in plan
// order.
type Outcome struct {
	RunID       string
	Stage       Stage
	Replacement model.TypeRecord
	PerType     *orderedmap.OrderedMap[model.ID, TypeOutcome]
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
}

func newOutcome(runID string, plan *Plan, startedAt time.Time) *Outcome {
	perType := orderedmap.NewOrderedMap[model.ID, TypeOutcome]()
	for _, rec := range plan.PurgeTypes() {
		perType.Set(rec.ID, TypeOutcome{Type: rec})
	}
	return &Outcome{
		RunID:       runID,
		Stage:       StagePlanBuilt,
		Replacement: plan.Replacement(),
		PerType:     perType,
		StartedAt:   startedAt,
	}
}

// update applies fn to the accumulated outcome of one purge type.
func (o *Outcome) update(id model.ID, fn func(*TypeOutcome)) {
	entry, ok := o.PerType.Get(id)
	if !ok {
		return
	}
	fn(&entry)
	o.PerType.Set(id, entry)
}

// TotalReassigned returns the number of instances moved across both
// sweeps.
func (o *Outcome) TotalReassigned() int {
	total := 0
	for el := o.PerType.Front(); el != nil; el = el.Next() {
		total += el.Value.VisibleReassigned + el.Value.LinkedReassigned
	}
	return total
}

// TotalFailures returns the number of per-instance failures across both
// sweeps.
func (o *Outcome) TotalFailures() int {
	total := 0
	for el := o.PerType.Front(); el != nil; el = el.Next() {
		total += el.Value.Failures
	}
	return total
}

// HadErrors reports whether any purge type recorded a failure.
func (o *Outcome) HadErrors() bool {
	for el := o.PerType.Front(); el != nil; el = el.Next() {
		if el.Value.HadErrors {
			return true
		}
	}
	return false
}
