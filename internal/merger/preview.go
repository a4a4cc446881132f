package merger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	orderedmap "github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/typemerge/internal/model"
)

// Preview is the dry-run report behind the plan command: the frozen
// plan plus, per purge type, what a merge would touch. Nothing the
// preview does reaches the document.
type Preview struct {
	Plan    *Plan
	PerType *orderedmap.OrderedMap[model.ID, TypeForecast]
}

// TypeForecast is the per-type forecast: the size of the deletion
// cascade the probe captured and the number of visible instances
// currently referencing the type.
type TypeForecast struct {
	Type    model.TypeRecord
	Linked  int
	Visible int
}

// Preview builds the plan and probes every purge type without running
// the sweeps. The probes execute inside a group that is always rolled
// back, so the document checksum is identical before and after. Like
// Run, Preview consumes the orchestrator.
func (o *Orchestrator) Preview(ctx context.Context) (*Preview, error) {
	if o.started {
		return nil, fmt.Errorf("orchestrator is single-shot, create a new one per run")
	}
	o.started = true

	runID := uuid.NewString()
	log := o.log.WithRun(runID)

	log.Infow("Starting plan preview", "family", o.opts.Family)

	plan, err := o.buildPlan(ctx, log)
	if err != nil {
		return nil, err
	}

	group, err := o.doc.BeginGroup("plan preview")
	if err != nil {
		return nil, &CommitError{Scope: "plan preview", Op: "begin", Err: err}
	}
	defer func() {
		if rbErr := group.Rollback(); rbErr != nil {
			log.Errorw("Failed to roll back preview group", "error", rbErr)
		}
	}()

	probe, err := NewProbe(o.doc, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create probe: %w", err)
	}

	visible, err := o.visibleCounts()
	if err != nil {
		return nil, err
	}

	perType := orderedmap.NewOrderedMap[model.ID, TypeForecast]()
	for _, rec := range plan.PurgeTypes() {
		result, probeErr := probe.Run(rec.ID)
		if probeErr != nil {
			return nil, probeErr
		}
		perType.Set(rec.ID, TypeForecast{
			Type:    rec,
			Linked:  len(result.Linked),
			Visible: visible[rec.ID],
		})
	}
	o.advance(nil, StageProbed)

	log.Infow("Plan preview complete",
		"purge", perType.Len(),
		"replacement", plan.Replacement().Name,
	)
	return &Preview{Plan: plan, PerType: perType}, nil
}

// visibleCounts tallies visible instances by the type they currently
// reference.
func (o *Orchestrator) visibleCounts() (map[model.ID]int, error) {
	instances, err := o.doc.VisibleInstances()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate visible instances: %w", err)
	}

	counts := make(map[model.ID]int, len(instances))
	for _, inst := range instances {
		counts[inst.CurrentTypeID()]++
	}
	return counts, nil
}
