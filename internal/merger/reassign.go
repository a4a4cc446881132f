package merger

import (
	"fmt"

	"github.com/dbsmedya/typemerge/internal/logger"
	"github.com/dbsmedya/typemerge/internal/model"
)

// Reassigner executes the two reassignment sweeps of a merge run. Each
// sweep runs in its own transaction and commits once every attempt has
// been tried: individual instance failures are recorded in the outcome
// and never abort a sweep. Only a begin or commit failure is fatal.
type Reassigner struct {
	doc           Document
	log           *logger.Logger
	progressEvery int
}

// NewReassigner creates a reassigner over the given document.
// progressEvery sets the progress-log interval in instances; zero
// disables progress logging.
func NewReassigner(doc Document, log *logger.Logger, progressEvery int) (*Reassigner, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	return &Reassigner{
		doc:           doc,
		log:           log,
		progressEvery: progressEvery,
	}, nil
}

// ReassignVisible runs the visible sweep: every enumerable instance
// whose current type is in the purge set moves to the replacement.
func (r *Reassigner) ReassignVisible(plan *Plan, outcome *Outcome) error {
	const scope = "visible sweep"
	log := r.log.WithPhase("visible")

	txn, err := r.doc.Begin(scope)
	if err != nil {
		return &CommitError{Scope: scope, Op: "begin", Err: err}
	}
	defer func() {
		if txn != nil {
			log.Warnw("Rolling back visible sweep")
			if rbErr := txn.Rollback(); rbErr != nil {
				log.Errorw("Failed to roll back visible sweep", "error", rbErr)
			}
		}
	}()

	instances, err := r.doc.VisibleInstances()
	if err != nil {
		return fmt.Errorf("failed to enumerate visible instances: %w", err)
	}
	log.Debugw("Visible sweep started", "instances", len(instances))

	target := plan.Replacement()
	processed := 0
	for _, inst := range instances {
		current := inst.CurrentTypeID()
		if !plan.IsPurge(current) {
			continue
		}

		processed++
		if err := inst.ReassignType(target.ID); err != nil {
			r.recordFailure(log, outcome, plan, current, inst.ID(), err)
			continue
		}
		outcome.update(current, func(t *TypeOutcome) { t.VisibleReassigned++ })
		r.progress(log, processed)
	}

	if err := txn.Commit(); err != nil {
		return &CommitError{Scope: scope, Op: "commit", Err: err}
	}
	txn = nil

	log.Infow("Visible sweep committed",
		"attempted", processed,
		"reassigned", sumVisible(outcome),
		"failures", outcome.TotalFailures(),
	)
	return nil
}

// ReassignLinked runs the linked sweep: for each purge type, every id
// its probe captured is re-resolved against live state. Ids that no
// longer resolve to an instance (the type's own id, annotations,
// deletions since the probe) or whose instance already left the purge
// set are skipped as stale no-ops.
func (r *Reassigner) ReassignLinked(plan *Plan, probes []*ProbeResult, outcome *Outcome) error {
	const scope = "linked sweep"
	log := r.log.WithPhase("linked")

	txn, err := r.doc.Begin(scope)
	if err != nil {
		return &CommitError{Scope: scope, Op: "begin", Err: err}
	}
	defer func() {
		if txn != nil {
			log.Warnw("Rolling back linked sweep")
			if rbErr := txn.Rollback(); rbErr != nil {
				log.Errorw("Failed to roll back linked sweep", "error", rbErr)
			}
		}
	}()

	target := plan.Replacement()
	processed := 0
	for _, probe := range probes {
		typeLog := log.WithType(typeName(plan, probe.TypeID))
		for _, id := range probe.Linked {
			inst, ok := r.doc.Instance(id)
			if !ok {
				outcome.update(probe.TypeID, func(t *TypeOutcome) { t.SkippedStale++ })
				continue
			}
			if !plan.IsPurge(inst.CurrentTypeID()) {
				outcome.update(probe.TypeID, func(t *TypeOutcome) { t.SkippedStale++ })
				continue
			}

			processed++
			if err := inst.ReassignType(target.ID); err != nil {
				r.recordFailure(typeLog, outcome, plan, probe.TypeID, inst.ID(), err)
				continue
			}
			outcome.update(probe.TypeID, func(t *TypeOutcome) { t.LinkedReassigned++ })
			r.progress(typeLog, processed)
		}
	}

	if err := txn.Commit(); err != nil {
		return &CommitError{Scope: scope, Op: "commit", Err: err}
	}
	txn = nil

	log.Infow("Linked sweep committed",
		"attempted", processed,
		"reassigned", sumLinked(outcome),
		"skipped", sumSkipped(outcome),
		"failures", outcome.TotalFailures(),
	)
	return nil
}

// recordFailure counts a per-instance failure against typeID and logs
// it. The failed instance is unchanged; the sweep continues.
func (r *Reassigner) recordFailure(log *logger.Logger, outcome *Outcome, plan *Plan, typeID, instanceID model.ID, err error) {
	outcome.update(typeID, func(t *TypeOutcome) {
		t.Failures++
		t.HadErrors = true
	})
	log.Warnw("Instance reassignment failed",
		"instance", instanceID.String(),
		"type", typeName(plan, typeID),
		"error", err,
	)
}

func (r *Reassigner) progress(log *logger.Logger, processed int) {
	if r.progressEvery > 0 && processed%r.progressEvery == 0 {
		log.Infow("Reassignment progress", "processed", processed)
	}
}

func typeName(plan *Plan, id model.ID) string {
	if rec, ok := plan.PurgeType(id); ok {
		return rec.Name
	}
	return id.String()
}

func sumVisible(o *Outcome) int {
	total := 0
	for el := o.PerType.Front(); el != nil; el = el.Next() {
		total += el.Value.VisibleReassigned
	}
	return total
}

func sumLinked(o *Outcome) int {
	total := 0
	for el := o.PerType.Front(); el != nil; el = el.Next() {
		total += el.Value.LinkedReassigned
	}
	return total
}

func sumSkipped(o *Outcome) int {
	total := 0
	for el := o.PerType.Front(); el != nil; el = el.Next() {
		total += el.Value.SkippedStale
	}
	return total
}
