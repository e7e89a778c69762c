package fields

// Input kinds. A field type carries exactly one; the resolver and the export
// code branch on it (file-backed kinds get upload handling and archive
// bundling, select kinds get choice lists).
const (
	KindText     = "text"
	KindTextarea = "textarea"
	KindPassword = "password"
	KindEmail    = "email"
	KindNumber   = "number"
	KindCheckbox = "checkbox"
	KindFile     = "file"
	KindImage    = "image"
	KindURL      = "url"
	KindDate     = "date"
	KindTime     = "time"
	KindDatetime = "datetime"
	KindCaptcha  = "captcha"
	KindSelect   = "select"
)

// IsFileKind reports whether values of this kind are uploaded files.
func IsFileKind(kind string) bool {
	return kind == KindFile || kind == KindImage
}

// Options is the editor-entered option bag of one field configuration,
// decoded from its stored JSON.
type Options map[string]any

// String returns the option as a string, or "" when absent.
func (o Options) String(key string) string {
	if v, ok := o[key].(string); ok {
		return v
	}
	return ""
}

// Int returns the option as an int, or 0 when absent. JSON numbers decode to
// float64, so both forms are accepted.
func (o Options) Int(key string) int {
	switch v := o[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// Float returns the option as a float64, or 0.
func (o Options) Float(key string) float64 {
	switch v := o[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// Bool returns the option as a bool, or false.
func (o Options) Bool(key string) bool {
	if v, ok := o[key].(bool); ok {
		return v
	}
	return false
}

// Strings returns the option as a string slice, accepting both []string and
// the []any produced by JSON decoding.
func (o Options) Strings(key string) []string {
	switch v := o[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Map returns the option as a string-keyed map, or nil.
func (o Options) Map(key string) map[string]any {
	if v, ok := o[key].(map[string]any); ok {
		return v
	}
	return nil
}

// Choice is one selectable option of a select-kind field.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldType is one registered field implementation. Validate coerces the raw
// submitted value (string, []string or *multipart.FileHeader depending on the
// kind) into its typed form and rejects values the type cannot represent.
// Constraint checks beyond the base type (lengths, sizes, dimensions) are
// validators built by the resolver, not part of Validate.
type FieldType interface {
	Name() string
	Label() string
	Kind() string
	OptionNames() []string
	Validate(raw any, opts Options) (any, error)
}

// Serializer converts between the in-memory typed value and its JSON-storable
// representation. Deserialize(Serialize(v)) must be semantically equivalent
// to v. Field types without a Serializer store their values as-is.
type Serializer interface {
	Serialize(v any) (any, error)
	Deserialize(stored any) (any, error)
}

// ChoiceField is implemented by select-kind types that resolve a choice list
// from their options.
type ChoiceField interface {
	Choices(opts Options) ([]Choice, error)
}

// Transient marks field types whose values are validated but stripped before
// persistence (challenge/response fields).
type Transient interface {
	Transient() bool
}

// MultiValue marks field types whose submitted value is the full value list
// of the input, not just its first entry.
type MultiValue interface {
	Multi() bool
}
