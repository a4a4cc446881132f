package merger

import (
	"github.com/dbsmedya/typemerge/internal/docstore"
	"github.com/dbsmedya/typemerge/internal/model"
)

// SessionDocument adapts a docstore session to the engine's Document
// capability. The indirection keeps the engine free of store imports
// and lets tests substitute counting or failing documents.
type SessionDocument struct {
	s *docstore.Session
}

// NewSessionDocument wraps an open session.
func NewSessionDocument(s *docstore.Session) *SessionDocument {
	return &SessionDocument{s: s}
}

func (d *SessionDocument) ElementTypes() ([]model.TypeRecord, error) {
	return d.s.ElementTypes()
}

func (d *SessionDocument) VisibleInstances() ([]Reassignable, error) {
	instances, err := d.s.VisibleInstances()
	if err != nil {
		return nil, err
	}

	out := make([]Reassignable, len(instances))
	for i, inst := range instances {
		out[i] = inst
	}
	return out, nil
}

func (d *SessionDocument) Instance(id model.ID) (Reassignable, bool) {
	inst, ok := d.s.Instance(id)
	if !ok {
		return nil, false
	}
	return inst, true
}

func (d *SessionDocument) Begin(name string) (Scope, error) {
	sc, err := d.s.Begin(name)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func (d *SessionDocument) BeginGroup(name string) (Scope, error) {
	sc, err := d.s.BeginGroup(name)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func (d *SessionDocument) Delete(id model.ID) ([]model.ID, error) {
	return d.s.Delete(id)
}
