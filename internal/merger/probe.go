package merger

import (
	"fmt"

	"github.com/dbsmedya/typemerge/internal/logger"
	"github.com/dbsmedya/typemerge/internal/model"
)

// ProbeResult is the captured deletion-cascade set for one type: every
// id that would disappear with it, ascending, the type's own id and any
// dependent annotation ids included. The set describes the document at
// capture time only; consumers must re-resolve each id against live
// state before acting on it.
type ProbeResult struct {
	TypeID model.ID
	Linked []model.ID
}

// Probe discovers the records linked to a type by running the store's
// own deletion cascade inside a transaction that is always rolled back.
// Hidden instances surface here and nowhere else.
type Probe struct {
	doc Document
	log *logger.Logger
}

// NewProbe creates a probe over the given document.
func NewProbe(doc Document, log *logger.Logger) (*Probe, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	return &Probe{doc: doc, log: log}, nil
}

// Run captures the cascade set for typeID. The trial deletion is rolled
// back on every exit path, so two probes with no mutation in between
// return identical results and the document is bit-for-bit unchanged
// afterwards. A rollback failure overrides any result: the probe then
// fails because the unchanged-document guarantee is gone.
func (p *Probe) Run(typeID model.ID) (result *ProbeResult, err error) {
	txn, txnErr := p.doc.Begin(fmt.Sprintf("probe type %s", typeID))
	if txnErr != nil {
		return nil, &ProbeError{TypeID: typeID, Op: "begin", Err: txnErr}
	}

	defer func() {
		if rbErr := txn.Rollback(); rbErr != nil {
			p.log.Errorw("Probe rollback failed", "type", typeID.String(), "error", rbErr)
			result = nil
			err = &ProbeError{TypeID: typeID, Op: "rollback", Err: rbErr}
		}
	}()

	linked, cascadeErr := p.doc.Delete(typeID)
	if cascadeErr != nil {
		return nil, &ProbeError{TypeID: typeID, Op: "cascade", Err: cascadeErr}
	}

	p.log.Debugw("Probe captured cascade", "type", typeID.String(), "records", len(linked))
	return &ProbeResult{TypeID: typeID, Linked: linked}, nil
}
