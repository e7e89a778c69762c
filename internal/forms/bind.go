package forms

import (
	"encoding/json"
	"mime/multipart"

	"github.com/InQuant/plusforms/internal/fields"
	"github.com/InQuant/plusforms/internal/models"
)

// Instance is one bound form: a schema plus the submitted (and, for edits,
// the previously stored) values of a single request cycle.
type Instance struct {
	Schema  *Schema
	Initial map[string]any
	Values  map[string]any
	Errors  FieldErrors

	raw      map[string]any
	optional map[string]bool
}

// Bind attaches submitted values and uploads to the schema. When existing is
// given, its stored form_data is deserialized field by field and used as
// initial values; a field whose stored value cannot be restored gets a
// field-scoped error and binding continues with the remaining fields.
func (s *Schema) Bind(values map[string][]string, files map[string]*multipart.FileHeader, existing *models.SubmittedForm) *Instance {
	inst := &Instance{
		Schema:   s,
		Initial:  map[string]any{},
		Values:   map[string]any{},
		raw:      map[string]any{},
		optional: map[string]bool{},
	}

	if existing != nil {
		inst.deserializeInitial(existing)
	}

	for _, f := range s.Fields {
		inst.raw[f.ID] = inst.rawValue(f, values, files)
	}
	return inst
}

func (inst *Instance) deserializeInitial(existing *models.SubmittedForm) {
	stored := map[string]any{}
	if len(existing.FormData) > 0 {
		if err := json.Unmarshal(existing.FormData, &stored); err != nil {
			inst.Errors = append(inst.Errors, FieldError{Field: "", Message: "stored form data is unreadable"})
			return
		}
	}

	for _, f := range inst.Schema.Fields {
		sv, ok := stored[f.ID]
		if !ok {
			continue
		}
		ser, canDeserialize := f.Type.(fields.Serializer)
		if !canDeserialize {
			inst.Initial[f.ID] = sv
			continue
		}
		v, err := ser.Deserialize(sv)
		if err != nil {
			inst.Errors = append(inst.Errors, FieldError{Field: f.ID, Message: err.Error()})
			continue
		}
		inst.Initial[f.ID] = v
	}
}

// rawValue picks the submitted value for one field. A file field without a
// new upload falls back to its initial value and is downgraded to optional:
// creation requires the file, an update does not force a re-upload.
func (inst *Instance) rawValue(f *BoundField, values map[string][]string, files map[string]*multipart.FileHeader) any {
	if fields.IsFileKind(f.Type.Kind()) {
		if fh := files[f.ID]; fh != nil {
			return fh
		}
		if initial := inst.Initial[f.ID]; initial != nil {
			inst.optional[f.ID] = true
			return initial
		}
		return nil
	}

	if f.Type.Kind() == fields.KindCaptcha {
		return []string{first(values[f.ID+"_token"]), first(values[f.ID])}
	}

	if mv, ok := f.Type.(fields.MultiValue); ok && mv.Multi() {
		if vals, ok := values[f.ID]; ok {
			return vals
		}
		return inst.Initial[f.ID]
	}

	if vals, ok := values[f.ID]; ok {
		return first(vals)
	}
	return inst.Initial[f.ID]
}

// Validate runs every field's type check and constraint validators, collecting
// all failures. It never stops at the first invalid field.
func (inst *Instance) Validate() bool {
	for _, f := range inst.Schema.Fields {
		raw := inst.raw[f.ID]
		required := f.Required && !inst.optional[f.ID]

		if isEmpty(f, raw) {
			if required {
				inst.Errors = append(inst.Errors, FieldError{Field: f.ID, Message: "this field is required"})
				continue
			}
			inst.Values[f.ID] = emptyValue(f)
			continue
		}

		v, err := f.Type.Validate(raw, f.Options)
		if err != nil {
			inst.Errors = append(inst.Errors, FieldError{Field: f.ID, Message: err.Error()})
			continue
		}

		ok := true
		for _, validate := range f.Validators {
			if err := validate(v); err != nil {
				inst.Errors = append(inst.Errors, FieldError{Field: f.ID, Message: err.Error()})
				ok = false
			}
		}
		if ok {
			inst.Values[f.ID] = v
		}
	}
	return len(inst.Errors) == 0
}

// SerializeData converts the validated values into their JSON-storable form.
// Transient field types are serialized for validation purposes only and never
// appear in the result.
func (inst *Instance) SerializeData() (map[string]any, error) {
	out := make(map[string]any, len(inst.Values))
	for _, f := range inst.Schema.Fields {
		if tr, ok := f.Type.(fields.Transient); ok && tr.Transient() {
			continue
		}
		v, bound := inst.Values[f.ID]
		if !bound {
			continue
		}
		if ser, ok := f.Type.(fields.Serializer); ok {
			sv, err := ser.Serialize(v)
			if err != nil {
				return nil, err
			}
			out[f.ID] = sv
			continue
		}
		out[f.ID] = v
	}
	return out, nil
}

// SetValue overrides a bound value, used by the lifecycle to swap an uploaded
// file stream for its stored handle.
func (inst *Instance) SetValue(id string, v any) {
	inst.Values[id] = v
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func isEmpty(f *BoundField, raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []string:
		if f.Type.Kind() == fields.KindCaptcha {
			return len(v) < 2 || v[1] == ""
		}
		return len(v) == 0
	}
	return false
}

// emptyValue keeps the submitted key set complete: an unchecked checkbox is
// false, every other omitted optional field stores null.
func emptyValue(f *BoundField) any {
	if f.Type.Kind() == fields.KindCheckbox {
		return false
	}
	return nil
}
