package merger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dbsmedya/typemerge/internal/logger"
	"github.com/dbsmedya/typemerge/internal/model"
)

// Options tunes a merge run.
type Options struct {
	// Family restricts the catalog to one family. Empty means all types.
	Family string

	// ProgressEvery sets the progress-log interval for the sweeps, in
	// instances. Zero disables progress logging.
	ProgressEvery int
}

// Orchestrator drives one complete merge run: catalog snapshot, purge
// and replacement selection, plan, probes and the two reassignment
// sweeps under a single umbrella group. An orchestrator is single-shot;
// create a new one per run.
type Orchestrator struct {
	doc      Document
	selector Selector
	log      *logger.Logger
	opts     Options
	stage    Stage
	started  bool
}

// NewOrchestrator creates an orchestrator over the given document and
// selection capability.
func NewOrchestrator(doc Document, selector Selector, log *logger.Logger, opts Options) (*Orchestrator, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}
	if selector == nil {
		return nil, fmt.Errorf("selector is nil")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	return &Orchestrator{
		doc:      doc,
		selector: selector,
		log:      log,
		opts:     opts,
		stage:    StageIdle,
	}, nil
}

// Stage returns the stage the run has reached.
func (o *Orchestrator) Stage() Stage {
	return o.stage
}

// Run executes the merge. The returned outcome is nil whenever the
// document was left untouched (cancellation, invalid plan, any fatal
// error before the first commit); it is non-nil once the visible sweep
// has committed, even when a later error is returned alongside it.
func (o *Orchestrator) Run(ctx context.Context) (*Outcome, error) {
	if o.started {
		return nil, fmt.Errorf("orchestrator is single-shot, create a new one per run")
	}
	o.started = true

	runID := uuid.NewString()
	log := o.log.WithRun(runID)
	startedAt := time.Now()

	log.Infow("Starting merge run", "family", o.opts.Family)

	if err := o.checkCancelled(ctx); err != nil {
		return nil, err
	}

	plan, err := o.buildPlan(ctx, log)
	if err != nil {
		return nil, err
	}

	outcome := newOutcome(runID, plan, startedAt)

	// The umbrella group spans the probes and both sweeps. Until the
	// visible sweep commits, rolling it back returns the document to
	// its pre-run state.
	group, err := o.doc.BeginGroup("merge duplicate types")
	if err != nil {
		return nil, &CommitError{Scope: "merge duplicate types", Op: "begin", Err: err}
	}
	defer func() {
		if group != nil {
			log.Warnw("Rolling back merge group")
			if rbErr := group.Rollback(); rbErr != nil {
				log.Errorw("Failed to roll back merge group", "error", rbErr)
			}
		}
	}()

	probe, err := NewProbe(o.doc, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create probe: %w", err)
	}

	probes := make([]*ProbeResult, 0, len(plan.PurgeTypes()))
	for _, rec := range plan.PurgeTypes() {
		result, probeErr := probe.Run(rec.ID)
		if probeErr != nil {
			return nil, probeErr
		}
		outcome.update(rec.ID, func(t *TypeOutcome) { t.LinkedFound = len(result.Linked) })
		probes = append(probes, result)
	}
	o.advance(outcome, StageProbed)
	log.Infow("Probes complete", "types", len(probes))

	// Last checkpoint. Once the visible sweep starts the run goes to
	// completion, tolerating per-instance failures.
	if err := o.checkCancelled(ctx); err != nil {
		return nil, err
	}

	reassigner, err := NewReassigner(o.doc, log, o.opts.ProgressEvery)
	if err != nil {
		return nil, fmt.Errorf("failed to create reassigner: %w", err)
	}

	if err := reassigner.ReassignVisible(plan, outcome); err != nil {
		return nil, err
	}
	o.advance(outcome, StagePhase1Committed)

	// From here correction is forward-only: a fatal error in the linked
	// sweep must not cost the committed visible sweep, so the group
	// commits either way and the error propagates afterwards.
	sweepErr := reassigner.ReassignLinked(plan, probes, outcome)
	if sweepErr == nil {
		o.advance(outcome, StagePhase2Committed)
	} else {
		log.Errorw("Linked sweep failed", "error", sweepErr)
	}

	commitErr := group.Commit()
	group = nil

	outcome.CompletedAt = time.Now()
	outcome.Duration = outcome.CompletedAt.Sub(outcome.StartedAt)

	if commitErr != nil {
		return outcome, &CommitError{Scope: "merge duplicate types", Op: "commit", Err: commitErr}
	}
	if sweepErr != nil {
		return outcome, sweepErr
	}

	o.advance(outcome, StageDone)
	log.Infow("Merge run complete",
		"duration", outcome.Duration,
		"reassigned", outcome.TotalReassigned(),
		"skipped", sumSkipped(outcome),
		"failures", outcome.TotalFailures(),
	)
	return outcome, nil
}

// buildPlan takes the catalog snapshot, runs both selections and
// freezes the plan. It opens no scopes, so cancellation and every
// failure here leave the document untouched.
func (o *Orchestrator) buildPlan(ctx context.Context, log *logger.Logger) (*Plan, error) {
	catalog, err := NewCatalog(o.doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog: %w", err)
	}

	types, err := catalog.List(FamilyFilter(o.opts.Family))
	if err != nil {
		return nil, fmt.Errorf("failed to collect element types: %w", err)
	}
	o.stage = StageTypesCollected
	log.Infow("Element types collected", "count", len(types))

	if err := o.checkCancelled(ctx); err != nil {
		return nil, err
	}

	purge, err := o.selector.SelectTypes(types, "Select the duplicate types to purge", true)
	if err != nil {
		return nil, fmt.Errorf("purge selection failed: %w", err)
	}
	if len(purge) == 0 {
		o.stage = StageCancelled
		log.Infow("Purge selection cancelled, document untouched")
		return nil, ErrSelectionCancelled
	}

	candidates := replacementCandidates(types, purge)
	if len(candidates) == 0 {
		return nil, &InvalidPlanError{Reason: "every type is marked for purge, none is left to replace them"}
	}

	replacement, err := o.selector.SelectTypes(candidates, "Select the replacement type", false)
	if err != nil {
		return nil, fmt.Errorf("replacement selection failed: %w", err)
	}
	if len(replacement) == 0 {
		o.stage = StageCancelled
		log.Infow("Replacement selection cancelled, document untouched")
		return nil, ErrSelectionCancelled
	}

	plan, err := NewPlan(purge, replacement[0])
	if err != nil {
		return nil, err
	}
	o.stage = StagePlanBuilt

	log.Infow("Merge plan built",
		"purge", len(plan.PurgeTypes()),
		"replacement", plan.Replacement().Name,
	)
	return plan, nil
}

// checkCancelled maps context cancellation to the terminal cancelled
// stage. Only called at points where the document holds no uncommitted
// work of ours that a caller could lose.
func (o *Orchestrator) checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		o.stage = StageCancelled
		return fmt.Errorf("merge cancelled: %w", err)
	}
	return nil
}

func (o *Orchestrator) advance(outcome *Outcome, stage Stage) {
	o.stage = stage
	if outcome != nil {
		outcome.Stage = stage
	}
}

// replacementCandidates returns types minus the purge selection,
// preserving catalog order.
func replacementCandidates(types, purge []model.TypeRecord) []model.TypeRecord {
	purgeIDs := model.NewIDSet()
	for _, rec := range purge {
		purgeIDs.Add(rec.ID)
	}

	out := make([]model.TypeRecord, 0, len(types))
	for _, rec := range types {
		if !purgeIDs.Has(rec.ID) {
			out = append(out, rec)
		}
	}
	return out
}
