// Package model contains the shared document record model used across
// multiple packages to avoid import cycles.
package model

import (
	"fmt"
	"strconv"
)

// ID identifies a record in a document. IDs come from a single persistent
// store sequence, so an ID is unique across record kinds. Zero is never
// allocated and marks an invalid or missing ID.
type ID uint64

// InvalidID is the zero ID.
const InvalidID ID = 0

// Valid reports whether the ID could have been allocated by the store.
func (id ID) Valid() bool { return id != InvalidID }

// String returns the decimal form of the ID.
func (id ID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseID parses the decimal form produced by String.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return InvalidID, fmt.Errorf("invalid record id %q: %w", s, err)
	}
	if v == 0 {
		return InvalidID, fmt.Errorf("invalid record id %q: zero is reserved", s)
	}
	return ID(v), nil
}

// Kind distinguishes the record kinds stored in a document.
type Kind string

const (
	KindType       Kind = "type"
	KindInstance   Kind = "instance"
	KindAnnotation Kind = "annotation"
)

// TypeRecord is an element type: the shared definition that placed
// instances reference.
type TypeRecord struct {
	ID     ID     `json:"id"`
	Name   string `json:"name"`   // Display name shown to the operator
	Family string `json:"family"` // Family the type belongs to
}

// InstanceRecord is a placed element referencing a TypeRecord. Hidden
// instances are excluded from normal enumeration and are only reachable
// through the deletion cascade. Locked instances refuse type reassignment.
type InstanceRecord struct {
	ID     ID   `json:"id"`
	TypeID ID   `json:"typeId"`
	Hidden bool `json:"hidden,omitempty"`
	Locked bool `json:"locked,omitempty"`
}

// AnnotationRecord is a dependent record attached to an instance. The
// deletion cascade removes it together with its instance.
type AnnotationRecord struct {
	ID         ID     `json:"id"`
	InstanceID ID     `json:"instanceId"`
	Text       string `json:"text,omitempty"`
}
