package merger

import (
	"fmt"
	"sort"

	"github.com/dbsmedya/typemerge/internal/model"
)

// Catalog produces the sorted element-type listing a run starts from.
// The listing is a snapshot: the engine takes it once per run and never
// refreshes it.
type Catalog struct {
	doc Document
}

// NewCatalog creates a catalog over the given document.
func NewCatalog(doc Document) (*Catalog, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}
	return &Catalog{doc: doc}, nil
}

// List returns the element types matching pred, sorted by display name
// ascending (byte order, case-sensitive) with the id as tie-break for
// duplicate names. A nil pred matches everything.
func (c *Catalog) List(pred func(model.TypeRecord) bool) ([]model.TypeRecord, error) {
	types, err := c.doc.ElementTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate element types: %w", err)
	}

	out := make([]model.TypeRecord, 0, len(types))
	for _, rec := range types {
		if pred == nil || pred(rec) {
			out = append(out, rec)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// FamilyFilter matches types belonging to the given family. An empty
// family matches every type.
func FamilyFilter(family string) func(model.TypeRecord) bool {
	return func(rec model.TypeRecord) bool {
		return family == "" || rec.Family == family
	}
}
