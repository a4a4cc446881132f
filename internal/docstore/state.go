package docstore

import (
	"github.com/dbsmedya/typemerge/internal/model"
)

// documentState holds the full record set of a document at one layer of
// the scope stack. Records are value types, so a shallow map copy is a
// complete clone.
type documentState struct {
	types       map[model.ID]model.TypeRecord
	instances   map[model.ID]model.InstanceRecord
	annotations map[model.ID]model.AnnotationRecord
}

func newDocumentState() documentState {
	return documentState{
		types:       make(map[model.ID]model.TypeRecord),
		instances:   make(map[model.ID]model.InstanceRecord),
		annotations: make(map[model.ID]model.AnnotationRecord),
	}
}

func (st documentState) clone() documentState {
	out := documentState{
		types:       make(map[model.ID]model.TypeRecord, len(st.types)),
		instances:   make(map[model.ID]model.InstanceRecord, len(st.instances)),
		annotations: make(map[model.ID]model.AnnotationRecord, len(st.annotations)),
	}
	for id, rec := range st.types {
		out.types[id] = rec
	}
	for id, rec := range st.instances {
		out.instances[id] = rec
	}
	for id, rec := range st.annotations {
		out.annotations[id] = rec
	}
	return out
}

func (st documentState) stats() DocumentStats {
	return DocumentStats{
		Types:       len(st.types),
		Instances:   len(st.instances),
		Annotations: len(st.annotations),
	}
}

// kindOf reports which record map holds id, if any.
func (st documentState) kindOf(id model.ID) (model.Kind, bool) {
	if _, ok := st.types[id]; ok {
		return model.KindType, true
	}
	if _, ok := st.instances[id]; ok {
		return model.KindInstance, true
	}
	if _, ok := st.annotations[id]; ok {
		return model.KindAnnotation, true
	}
	return "", false
}
