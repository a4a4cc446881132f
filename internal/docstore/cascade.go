package docstore

import (
	"fmt"

	"github.com/dbsmedya/typemerge/internal/model"
)

// Delete removes the record with the given id together with every record
// depending on it, inside the current transaction: deleting a type removes
// its instances (visible and hidden) and their annotations. It returns the
// ids of every removed record, the given id included, in ascending order.
func (s *Session) Delete(id model.ID) ([]model.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.mutable()
	if err != nil {
		return nil, err
	}
	if _, ok := st.kindOf(id); !ok {
		return nil, fmt.Errorf("record %s: %w", id, ErrNotFound)
	}

	// BFS over the containment hierarchy, one level per iteration
	removed := model.NewIDSet()
	levels := 0
	current := []model.ID{id}

	for len(current) > 0 {
		var next []model.ID

		for _, rid := range current {
			if removed.Has(rid) {
				continue
			}

			if _, ok := st.types[rid]; ok {
				delete(st.types, rid)
				removed.Add(rid)
				for iid, inst := range st.instances {
					if inst.TypeID == rid {
						next = append(next, iid)
					}
				}
				continue
			}

			if _, ok := st.instances[rid]; ok {
				delete(st.instances, rid)
				removed.Add(rid)
				for aid, ann := range st.annotations {
					if ann.InstanceID == rid {
						next = append(next, aid)
					}
				}
				continue
			}

			if _, ok := st.annotations[rid]; ok {
				delete(st.annotations, rid)
				removed.Add(rid)
			}
		}

		current = next
		levels++
	}

	s.log.Debugw("Deletion cascade complete",
		"root", id.String(),
		"records", len(removed),
		"levels", levels,
	)

	return removed.Sorted(), nil
}
