package forms

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/InQuant/plusforms/internal/fields"
	"github.com/InQuant/plusforms/internal/models"
)

// BoundField is one resolved, ready-to-validate field of a synthesized form.
type BoundField struct {
	ID          string
	Type        fields.FieldType
	Required    bool
	Label       string
	HelpText    string
	Placeholder string
	Options     fields.Options
	Choices     []fields.Choice
	Validators  []fields.Validator
}

// ResolveField binds one field configuration: it looks up the field type,
// builds constraint validators from the option bag, resolves choice lists and
// assembles the help text. The configuration itself is never mutated.
func ResolveField(cfg models.FormField) (*BoundField, error) {
	ft, err := fields.Resolve(cfg.FieldType)
	if err != nil {
		return nil, err
	}

	opts := fields.Options{}
	if len(cfg.Options) > 0 {
		if err := json.Unmarshal(cfg.Options, &opts); err != nil {
			return nil, &ConfigError{FieldID: cfg.FieldID, Message: fmt.Sprintf("unreadable options: %v", err)}
		}
	}

	bf := &BoundField{
		ID:          cfg.FieldID,
		Type:        ft,
		Required:    cfg.Required,
		Label:       cfg.Label,
		Placeholder: cfg.Placeholder,
		Options:     opts,
	}

	// help text fragments accumulate in a fixed order:
	// base, length, size, extensions, dimensions
	help := []string{cfg.HelpText}

	if maxLen := opts.Int("max_length"); maxLen > 0 {
		bf.Validators = append(bf.Validators, fields.MaxLength(maxLen))
		help = append(help, fmt.Sprintf("Max. length: %d.", maxLen))
	}

	if fields.IsFileKind(ft.Kind()) {
		if maxMB := opts.Float("max_mb"); maxMB > 0 {
			bf.Validators = append(bf.Validators, fields.FileMaxSize(maxMB))
			help = append(help, fmt.Sprintf("Max. %g MB.", maxMB))
		}
		if exts := opts.Strings("allowed_extensions"); len(exts) > 0 {
			bf.Validators = append(bf.Validators, fields.FileExtensions(exts))
			help = append(help, fmt.Sprintf("(%s)", strings.Join(exts, ", ")))
		}
	}

	if ft.Kind() == fields.KindImage {
		dimValidator, dimHelp, err := dimensionConstraint(cfg.FieldID, opts)
		if err != nil {
			return nil, err
		}
		if dimValidator != nil {
			bf.Validators = append(bf.Validators, dimValidator)
			help = append(help, dimHelp)
		}
	}

	if cf, ok := ft.(fields.ChoiceField); ok {
		choices, err := cf.Choices(opts)
		if err != nil {
			return nil, err
		}
		bf.Choices = choices
		bf.Validators = append(bf.Validators, fields.ChoiceIn(choices))
	}

	bf.HelpText = joinHelp(help)
	return bf, nil
}

// dimensionConstraint builds the pixel validator for image fields. Minimum
// and exact dimensions are mutually exclusive modes.
func dimensionConstraint(fieldID string, opts fields.Options) (fields.Validator, string, error) {
	minW := opts.Int("min_px_width")
	minH := opts.Int("min_px_height")
	exactW := opts.Int("px_width")
	exactH := opts.Int("px_height")

	minMode := minW > 0 || minH > 0
	exactMode := exactW > 0 && exactH > 0

	if minMode && exactMode {
		return nil, "", &ConfigError{
			FieldID: fieldID,
			Message: "minimum and exact pixel dimensions are mutually exclusive",
		}
	}

	if minMode {
		return fields.MinPixels(minW, minH), fmt.Sprintf("Minimum %s x %s.", pxOrStar(minW), pxOrStar(minH)), nil
	}
	if exactMode {
		return fields.ExactPixels(exactW, exactH), fmt.Sprintf("Pixel format: %d x %d.", exactW, exactH), nil
	}
	return nil, "", nil
}

func pxOrStar(v int) string {
	if v <= 0 {
		return "*"
	}
	return fmt.Sprintf("%dpx", v)
}

func joinHelp(parts []string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
