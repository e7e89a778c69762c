package form

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/InQuant/plusforms/internal/database"
	"github.com/InQuant/plusforms/internal/fields"
	"github.com/InQuant/plusforms/internal/forms"
	"github.com/InQuant/plusforms/internal/models"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// editor-entered rich text keeps basic markup, identifiers and labels
	// are stripped to plain text
	richPolicy  = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()

	slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)
)

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

func CreateForm(slug, name, description, successText, buttonText string) (*models.Form, error) {
	if !slugRegex.MatchString(slug) {
		return nil, fmt.Errorf("slug must contain lowercase letters, numbers and hyphens only")
	}

	f := models.Form{
		Slug:        slug,
		Name:        plainPolicy.Sanitize(name),
		Description: richPolicy.Sanitize(description),
		SuccessText: richPolicy.Sanitize(successText),
		ButtonText:  plainPolicy.Sanitize(buttonText),
	}
	if err := database.DB.Create(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// AddField appends a field configuration to a form. The field type must be
// registered and the identifier must be a slug unique inside the form; a
// duplicate would otherwise surface as a ConfigError on every later render.
func AddField(formID uint, fieldID, fieldType string, required bool, label, helpText, placeholder string, options map[string]any) (*models.FormField, error) {
	if _, err := fields.Resolve(fieldType); err != nil {
		return nil, err
	}
	if !slugRegex.MatchString(fieldID) {
		return nil, fmt.Errorf("field identifier must be a slug")
	}

	var count int64
	if err := database.DB.Model(&models.FormField{}).
		Where("form_id = ? AND field_id = ?", formID, fieldID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: %q", forms.ErrDuplicateField, fieldID)
	}

	var position int64
	database.DB.Model(&models.FormField{}).Where("form_id = ?", formID).Count(&position)

	field := models.FormField{
		FormID:      formID,
		FieldID:     fieldID,
		FieldType:   fieldType,
		Required:    required,
		Label:       plainPolicy.Sanitize(label),
		HelpText:    plainPolicy.Sanitize(helpText),
		Placeholder: plainPolicy.Sanitize(placeholder),
		Position:    int(position),
	}

	if options != nil {
		raw, err := json.Marshal(options)
		if err != nil {
			return nil, err
		}
		field.Options = datatypes.JSON(raw)
	}

	if err := database.DB.Create(&field).Error; err != nil {
		return nil, err
	}
	return &field, nil
}

// GetForm loads a form with its fields in stored order.
func GetForm(slug string) (*models.Form, error) {
	var f models.Form
	if err := database.DB.Preload("Fields", orderByPosition).
		Where("slug = ?", slug).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// CheckConfig synthesizes the form once to surface configuration faults
// (unknown types, duplicate identifiers, conflicting dimension modes) at
// authoring time instead of at the first render.
func CheckConfig(f *models.Form) error {
	_, err := forms.Build(*f)
	return err
}
