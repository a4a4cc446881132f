// Package merger implements the merge engine: type cataloguing, linked
// instance probing, plan construction and the two-phase transactional
// reassignment of instances from duplicate types onto a replacement.
//
// The engine talks to the document through the small capability
// interfaces below. adapter.go binds them to a docstore session; tests
// bind them to hand-rolled fakes.
package merger

import (
	"github.com/dbsmedya/typemerge/internal/model"
)

// Stage identifies how far a merge run has progressed.
type Stage string

const (
	StageIdle            Stage = "idle"
	StageTypesCollected  Stage = "types_collected"
	StagePlanBuilt       Stage = "plan_built"
	StageProbed          Stage = "probed"
	StagePhase1Committed Stage = "phase1_committed"
	StagePhase2Committed Stage = "phase2_committed"
	StageDone            Stage = "done"

	// StageCancelled is terminal and reachable from any stage that
	// precedes the first commit.
	StageCancelled Stage = "cancelled"
)

// TypeBearer is the read side of an instance: its identity and the type
// it references at call time.
type TypeBearer interface {
	ID() model.ID
	CurrentTypeID() model.ID
}

// Reassignable is an instance that can be pointed at a different type.
// ReassignType either succeeds or leaves the instance unchanged.
type Reassignable interface {
	TypeBearer
	ReassignType(target model.ID) error
}

// Scope is an open transaction or transaction group on the document.
type Scope interface {
	Commit() error
	Rollback() error
}

// Document is the slice of a document session the engine needs. Reads
// always reflect the innermost open scope.
type Document interface {
	// ElementTypes returns every element type in the current state.
	ElementTypes() ([]model.TypeRecord, error)

	// VisibleInstances returns live handles for the instances normal
	// enumeration can see. Hidden instances are excluded.
	VisibleInstances() ([]Reassignable, error)

	// Instance resolves any instance id, hidden included. The second
	// result is false when the id does not identify an instance in the
	// current state.
	Instance(id model.ID) (Reassignable, bool)

	// Begin opens a transaction; BeginGroup opens a transaction group
	// whose rollback also discards transactions committed inside it.
	Begin(name string) (Scope, error)
	BeginGroup(name string) (Scope, error)

	// Delete removes the record and everything that references it inside
	// the current transaction, returning every removed id ascending.
	Delete(id model.ID) ([]model.ID, error)
}

// Selector picks element types from a candidate list. The call blocks
// until the operator (or script) answers; an empty result with a nil
// error means the selection was cancelled.
type Selector interface {
	SelectTypes(candidates []model.TypeRecord, title string, multi bool) ([]model.TypeRecord, error)
}
