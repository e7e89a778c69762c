package fields

import (
	"fmt"
	"mime/multipart"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/InQuant/plusforms/internal/storage"
)

// Built-in field types, registered in this order. External types added via
// Register appear after these in Available().
func init() {
	mustRegister(textType{base{"text", "Text field", KindText, textOptions}})
	mustRegister(textType{base{"textarea", "Textarea field", KindTextarea, textOptions}})
	mustRegister(decimalType{base{"decimal", "Decimal field", KindNumber, nil}})
	mustRegister(decimalType{base{"float", "Float field", KindNumber, nil}})
	mustRegister(integerType{base{"integer", "Integer field", KindNumber, nil}})
	mustRegister(textType{base{"password", "Password field", KindPassword, textOptions}})
	mustRegister(emailType{base{"email", "Email field", KindEmail, textOptions}})
	mustRegister(checkboxType{base{"checkbox", "Checkbox field", KindCheckbox, nil}})
	mustRegister(fileType{base{"file", "File field", KindFile, fileOptions}})
	mustRegister(imageType{fileType{base{"image", "Image field", KindImage, imageOptions}}})
	mustRegister(urlType{base{"url", "URL field", KindURL, nil}})
	mustRegister(temporalType{base{"date", "Date field", KindDate, nil}, dateFormats})
	mustRegister(temporalType{base{"time", "Time field", KindTime, nil}, timeFormats})
	mustRegister(temporalType{base{"datetime", "Date time field", KindDatetime, nil}, datetimeFormats})
	mustRegister(captchaType{base{"captcha", "Captcha field", KindCaptcha, nil}})
	mustRegister(selectType{base{"select", "Select field", KindSelect, selectOptions}, false})
	mustRegister(selectType{base{"select_multiple", "Select multiple field", KindSelect, selectOptions}, true})
}

var (
	textOptions   = []string{"max_length"}
	fileOptions   = []string{"max_mb", "allowed_extensions"}
	imageOptions  = []string{"max_mb", "allowed_extensions", "min_px_width", "min_px_height", "px_width", "px_height"}
	selectOptions = []string{"choices_static", "choices_dynamic", "choices_dynamic_filter", "choices_allow_empty"}
)

// base carries the descriptor identity shared by every built-in. Concrete
// types embed it and add only the behavior they need.
type base struct {
	name    string
	label   string
	kind    string
	options []string
}

func (b base) Name() string          { return b.name }
func (b base) Label() string         { return b.label }
func (b base) Kind() string          { return b.kind }
func (b base) OptionNames() []string { return b.options }

type textType struct{ base }

func (textType) Validate(raw any, _ Options) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("must be text")
	}
	return s, nil
}

type integerType struct{ base }

func (integerType) Validate(raw any, _ Options) (any, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case float64:
		// restored from stored JSON
		if v != float64(int64(v)) {
			return nil, fmt.Errorf("must be a whole number")
		}
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("must be a whole number")
		}
		return n, nil
	}
	return nil, fmt.Errorf("must be a whole number")
}

type decimalType struct{ base }

func (decimalType) Validate(raw any, _ Options) (any, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("must be a number")
		}
		return f, nil
	}
	return nil, fmt.Errorf("must be a number")
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

type emailType struct{ base }

func (emailType) Validate(raw any, _ Options) (any, error) {
	s, ok := raw.(string)
	if !ok || !emailRegex.MatchString(s) {
		return nil, fmt.Errorf("must be a valid email address")
	}
	return s, nil
}

type urlType struct{ base }

func (urlType) Validate(raw any, _ Options) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("must be a valid URL")
	}
	if _, err := url.ParseRequestURI(s); err != nil {
		return nil, fmt.Errorf("must be a valid URL")
	}
	return s, nil
}

type checkboxType struct{ base }

func (checkboxType) Validate(raw any, _ Options) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(v) {
		case "", "0", "false", "off":
			return false, nil
		default:
			// browsers post "on" for checked boxes
			return true, nil
		}
	}
	return nil, fmt.Errorf("must be a checkbox value")
}

var (
	dateFormats     = []string{"2006-01-02", "02.01.2006"}
	timeFormats     = []string{"15:04", "15:04:05"}
	datetimeFormats = []string{"2006-01-02 15:04", time.RFC3339}
)

// temporalType normalizes its value to the first format of the list.
type temporalType struct {
	base
	formats []string
}

func (t temporalType) Validate(raw any, _ Options) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("must be a date/time value [%s]", formatExamples(t.formats))
	}
	for _, f := range t.formats {
		if parsed, err := time.Parse(f, strings.TrimSpace(s)); err == nil {
			return parsed.Format(t.formats[0]), nil
		}
	}
	return nil, fmt.Errorf("does not match a supported format [%s]", formatExamples(t.formats))
}

// formatExamples renders the accepted formats as concrete example values.
func formatExamples(formats []string) string {
	now := time.Now()
	examples := make([]string, len(formats))
	for i, f := range formats {
		examples[i] = now.Format(f)
	}
	return strings.Join(examples, ", ")
}

type fileType struct{ base }

func (fileType) Validate(raw any, _ Options) (any, error) {
	switch v := raw.(type) {
	case *multipart.FileHeader:
		return v, nil
	case *storage.StoredFile:
		// kept value from an earlier submission, already validated
		return v, nil
	}
	return nil, fmt.Errorf("must be an uploaded file")
}

func (fileType) Serialize(v any) (any, error) {
	switch f := v.(type) {
	case nil:
		return nil, nil
	case *storage.StoredFile:
		return f.Name, nil
	case *multipart.FileHeader:
		return f.Filename, nil
	case string:
		return f, nil
	}
	return nil, fmt.Errorf("cannot serialize file value %T", v)
}

func (fileType) Deserialize(stored any) (any, error) {
	switch s := stored.(type) {
	case nil:
		return nil, nil
	case string:
		if s == "" {
			return nil, nil
		}
		return storage.Open(s)
	}
	return nil, fmt.Errorf("cannot deserialize file value %T", stored)
}

type imageType struct{ fileType }

type selectType struct {
	base
	multiple bool
}

func (t selectType) Multi() bool { return t.multiple }

func (t selectType) Validate(raw any, _ Options) (any, error) {
	if t.multiple {
		switch v := raw.(type) {
		case []string:
			return v, nil
		case string:
			return []string{v}, nil
		}
		return nil, fmt.Errorf("must be a list of choices")
	}
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("must be a choice value")
	}
	return s, nil
}

func (selectType) Serialize(v any) (any, error) {
	return v, nil
}

// Deserialize restores a stored choice value. JSON arrays come back as []any
// and must be rebuilt into the value slice a multi-select validates.
func (selectType) Deserialize(stored any) (any, error) {
	vals, ok := stored.([]any)
	if !ok {
		return stored, nil
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("cannot restore choice value of type %T", v)
		}
		out = append(out, s)
	}
	return out, nil
}

// Choices resolves the configured choice list: dynamic source first, else the
// static list. choices_allow_empty prepends a blank choice.
func (t selectType) Choices(opts Options) ([]Choice, error) {
	var choices []Choice

	if source := opts.String("choices_dynamic"); source != "" {
		var err error
		choices, err = DynamicChoices(source, opts.Map("choices_dynamic_filter"))
		if err != nil {
			return nil, err
		}
	} else if static := opts["choices_static"]; static != nil {
		choices = staticChoices(static)
	}

	if opts.Bool("choices_allow_empty") {
		choices = append([]Choice{{Value: "", Label: "------"}}, choices...)
	}
	return choices, nil
}

// staticChoices reads an editor-entered [{"value": ..., "name": ...}] list.
func staticChoices(raw any) []Choice {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]Choice, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		value, _ := m["value"].(string)
		label, _ := m["name"].(string)
		if label == "" {
			label, _ = m["label"].(string)
		}
		out = append(out, Choice{Value: value, Label: label})
	}
	return out
}
