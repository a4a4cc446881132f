package docstore

import (
	"fmt"
	"sort"

	"github.com/dbsmedya/typemerge/internal/model"
)

// InstanceOptions sets optional flags on a new instance.
type InstanceOptions struct {
	Hidden bool // Excluded from VisibleInstances, reachable only via cascade
	Locked bool // Refuses type reassignment
}

// CreateType adds an element type inside the current transaction.
func (s *Session) CreateType(name, family string) (model.TypeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.mutable()
	if err != nil {
		return model.TypeRecord{}, err
	}
	if name == "" {
		return model.TypeRecord{}, fmt.Errorf("type name is required")
	}

	id, err := s.nextID()
	if err != nil {
		return model.TypeRecord{}, err
	}

	rec := model.TypeRecord{ID: id, Name: name, Family: family}
	st.types[id] = rec
	return rec, nil
}

// CreateInstance places an instance of the given type inside the current
// transaction.
func (s *Session) CreateInstance(typeID model.ID, opts InstanceOptions) (model.InstanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.mutable()
	if err != nil {
		return model.InstanceRecord{}, err
	}
	if _, ok := st.types[typeID]; !ok {
		return model.InstanceRecord{}, fmt.Errorf("type %s: %w", typeID, ErrNotFound)
	}

	id, err := s.nextID()
	if err != nil {
		return model.InstanceRecord{}, err
	}

	rec := model.InstanceRecord{
		ID:     id,
		TypeID: typeID,
		Hidden: opts.Hidden,
		Locked: opts.Locked,
	}
	st.instances[id] = rec
	return rec, nil
}

// CreateAnnotation attaches an annotation to an instance inside the
// current transaction.
func (s *Session) CreateAnnotation(instanceID model.ID, text string) (model.AnnotationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.mutable()
	if err != nil {
		return model.AnnotationRecord{}, err
	}
	if _, ok := st.instances[instanceID]; !ok {
		return model.AnnotationRecord{}, fmt.Errorf("instance %s: %w", instanceID, ErrNotFound)
	}

	id, err := s.nextID()
	if err != nil {
		return model.AnnotationRecord{}, err
	}

	rec := model.AnnotationRecord{ID: id, InstanceID: instanceID, Text: text}
	st.annotations[id] = rec
	return rec, nil
}

// nextID allocates a record id from the persistent sequence. Caller holds
// s.mu.
func (s *Session) nextID() (model.ID, error) {
	for {
		v, err := s.seq.Next()
		if err != nil {
			return model.InvalidID, fmt.Errorf("failed to allocate record id: %w", err)
		}
		// The sequence starts at zero, which is reserved as the invalid id
		if v != 0 {
			return model.ID(v), nil
		}
	}
}

// ElementTypes returns every type record in the current state, ascending
// by id.
func (s *Session) ElementTypes() ([]model.TypeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}

	st := s.top()
	out := make([]model.TypeRecord, 0, len(st.types))
	for _, rec := range st.types {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Type returns the type record with the given id from the current state.
func (s *Session) Type(id model.ID) (model.TypeRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.top().types[id]
	return rec, ok
}

// Instances returns instance records matching pred from the current state,
// hidden included, ascending by id. A nil pred matches everything.
func (s *Session) Instances(pred func(model.InstanceRecord) bool) ([]model.InstanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}

	st := s.top()
	out := make([]model.InstanceRecord, 0, len(st.instances))
	for _, rec := range st.instances {
		if pred == nil || pred(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Annotations returns annotation records matching pred from the current
// state, ascending by id. A nil pred matches everything.
func (s *Session) Annotations(pred func(model.AnnotationRecord) bool) ([]model.AnnotationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}

	st := s.top()
	out := make([]model.AnnotationRecord, 0, len(st.annotations))
	for _, rec := range st.annotations {
		if pred == nil || pred(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// VisibleInstances returns live handles for every non-hidden instance in
// the current state, ascending by id.
func (s *Session) VisibleInstances() ([]*Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}

	st := s.top()
	ids := make([]model.ID, 0, len(st.instances))
	for id, rec := range st.instances {
		if !rec.Hidden {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*Instance, len(ids))
	for i, id := range ids {
		out[i] = &Instance{s: s, id: id}
	}
	return out, nil
}

// Instance returns a live handle for the instance with the given id,
// hidden or not. The second result is false when the id does not resolve
// to an instance in the current state.
func (s *Session) Instance(id model.ID) (*Instance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.top().instances[id]; !ok {
		return nil, false
	}
	return &Instance{s: s, id: id}, true
}

// Instance is a live handle to an instance record. It reads and writes the
// session's current state at call time, so a handle stays usable across
// scope boundaries and reports the record as it stands now.
type Instance struct {
	s  *Session
	id model.ID
}

// ID returns the instance's record id.
func (i *Instance) ID() model.ID {
	return i.id
}

// CurrentTypeID returns the type the instance references right now, or
// the invalid id when the instance no longer resolves.
func (i *Instance) CurrentTypeID() model.ID {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()

	rec, ok := i.s.top().instances[i.id]
	if !ok {
		return model.InvalidID
	}
	return rec.TypeID
}

// Record returns a snapshot of the instance record from the current state.
func (i *Instance) Record() (model.InstanceRecord, bool) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()

	rec, ok := i.s.top().instances[i.id]
	return rec, ok
}

// ReassignType points the instance at a different type inside the current
// transaction. The target must exist and share the family of the
// instance's current type; locked instances refuse. On failure the
// instance is unchanged.
func (i *Instance) ReassignType(target model.ID) error {
	s := i.s
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.mutable()
	if err != nil {
		return err
	}

	rec, ok := st.instances[i.id]
	if !ok {
		return fmt.Errorf("instance %s: %w", i.id, ErrNotFound)
	}
	if rec.Locked {
		return fmt.Errorf("instance %s: %w", i.id, ErrInstanceLocked)
	}

	targetType, ok := st.types[target]
	if !ok {
		return fmt.Errorf("target type %s: %w", target, ErrNotFound)
	}

	// A dangling current type does not block the repair
	if current, ok := st.types[rec.TypeID]; ok && current.Family != targetType.Family {
		return fmt.Errorf("instance %s family %q, target family %q: %w",
			i.id, current.Family, targetType.Family, ErrFamilyMismatch)
	}

	rec.TypeID = target
	st.instances[i.id] = rec
	return nil
}
