// Package verifier provides post-merge verification for typemerge.
package verifier

import (
	"fmt"

	"github.com/dbsmedya/typemerge/internal/docstore"
	"github.com/dbsmedya/typemerge/internal/logger"
	"github.com/dbsmedya/typemerge/internal/model"
)

// TypeReport holds the verification result for a single purge type.
type TypeReport struct {
	TypeID    model.ID
	Name      string
	Remaining int  // Instances still referencing the type, hidden included
	Removable bool // Nothing references the type anymore
}

// Report contains the verification results for one merge run.
type Report struct {
	PerType        []TypeReport
	TypesChecked   int
	TypesRemovable int
	TypesBlocked   int
}

// Verifier re-queries live document state after a merge and reports,
// per purge type, how many instances still reference it. It only
// reports: removing emptied types is left to a separate cleanup pass
// that must re-validate safety on its own.
type Verifier struct {
	session *docstore.Session
	log     *logger.Logger
}

// New creates a verifier over an open session.
func New(session *docstore.Session, log *logger.Logger) (*Verifier, error) {
	if session == nil {
		return nil, fmt.Errorf("session is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}

	return &Verifier{
		session: session,
		log:     log,
	}, nil
}

// RemainingReferences counts the instances still referencing each purge
// type, hidden instances included. A type with zero remaining
// references is marked removable.
func (v *Verifier) RemainingReferences(purgeIDs []model.ID) (*Report, error) {
	v.log.Infow("Starting post-merge verification", "types", len(purgeIDs))

	report := &Report{PerType: make([]TypeReport, 0, len(purgeIDs))}
	for _, typeID := range purgeIDs {
		remaining, err := v.session.Instances(func(rec model.InstanceRecord) bool {
			return rec.TypeID == typeID
		})
		if err != nil {
			return nil, fmt.Errorf("failed to count references to type %s: %w", typeID, err)
		}

		name := typeID.String()
		if rec, ok := v.session.Type(typeID); ok {
			name = rec.Name
		}

		result := TypeReport{
			TypeID:    typeID,
			Name:      name,
			Remaining: len(remaining),
			Removable: len(remaining) == 0,
		}
		report.PerType = append(report.PerType, result)
		report.TypesChecked++

		if result.Removable {
			report.TypesRemovable++
			v.log.Debugw("Type verified removable", "type", result.Name)
		} else {
			report.TypesBlocked++
			v.log.Warnw("Type still referenced", "type", result.Name, "remaining", result.Remaining)
		}
	}

	v.log.Infow("Verification complete",
		"checked", report.TypesChecked,
		"removable", report.TypesRemovable,
		"blocked", report.TypesBlocked,
	)
	return report, nil
}
