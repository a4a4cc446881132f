package docstore

import (
	"fmt"
	"sort"

	"github.com/dbsmedya/typemerge/internal/model"
)

// IntegrityProblem describes a dangling reference found in the document.
type IntegrityProblem struct {
	Kind model.Kind // Kind of the record holding the bad reference
	ID   model.ID   // Record holding the reference
	Ref  model.ID   // Reference that does not resolve
}

func (p IntegrityProblem) String() string {
	return fmt.Sprintf("%s %s references missing record %s", p.Kind, p.ID, p.Ref)
}

// Integrity scans the current state for dangling references: instances
// whose type is gone and annotations whose instance is gone. Problems are
// ordered by the holding record's id.
func (s *Session) Integrity() ([]IntegrityProblem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}

	st := s.top()
	var problems []IntegrityProblem

	for id, rec := range st.instances {
		if _, ok := st.types[rec.TypeID]; !ok {
			problems = append(problems, IntegrityProblem{
				Kind: model.KindInstance,
				ID:   id,
				Ref:  rec.TypeID,
			})
		}
	}
	for id, rec := range st.annotations {
		if _, ok := st.instances[rec.InstanceID]; !ok {
			problems = append(problems, IntegrityProblem{
				Kind: model.KindAnnotation,
				ID:   id,
				Ref:  rec.InstanceID,
			})
		}
	}

	sort.Slice(problems, func(i, j int) bool { return problems[i].ID < problems[j].ID })
	return problems, nil
}
