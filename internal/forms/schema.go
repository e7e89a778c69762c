package forms

import (
	"sort"

	"github.com/InQuant/plusforms/internal/models"
)

// Schema is a synthesized form: the ordered, resolved field set of one form
// configuration. It is rebuilt per render; nothing here outlives a request.
type Schema struct {
	Form   models.Form
	Fields []*BoundField
	index  map[string]*BoundField
}

// Build resolves every field child of the form configuration in stored order.
// Two children sharing a field identifier is a configuration error, not a
// silent shadowing.
func Build(form models.Form) (*Schema, error) {
	cfgs := make([]models.FormField, len(form.Fields))
	copy(cfgs, form.Fields)
	sort.SliceStable(cfgs, func(i, j int) bool { return cfgs[i].Position < cfgs[j].Position })

	s := &Schema{
		Form:   form,
		Fields: make([]*BoundField, 0, len(cfgs)),
		index:  make(map[string]*BoundField, len(cfgs)),
	}

	for _, cfg := range cfgs {
		if _, exists := s.index[cfg.FieldID]; exists {
			return nil, &ConfigError{FieldID: cfg.FieldID, Message: ErrDuplicateField.Error()}
		}
		bf, err := ResolveField(cfg)
		if err != nil {
			return nil, err
		}
		s.Fields = append(s.Fields, bf)
		s.index[cfg.FieldID] = bf
	}

	return s, nil
}

// Field returns the bound field with the given identifier, or nil.
func (s *Schema) Field(id string) *BoundField {
	return s.index[id]
}

// Marker is the per-form submit marker name. It distinguishes which of
// possibly several forms on one page was submitted.
func (s *Schema) Marker() string {
	return "form-" + s.Form.Slug
}

// FieldKinds maps field identifier to input kind, the shape stored in
// meta_data and consumed by the exports.
func (s *Schema) FieldKinds() map[string]string {
	kinds := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		kinds[f.ID] = f.Type.Kind()
	}
	return kinds
}
