package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Form is one editor-authored form configuration. Its Slug doubles as the
// submit marker prefix ("form-<slug>") and as the grouping key for exports.
type Form struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Slug        string         `gorm:"size:100;uniqueIndex" json:"slug"`
	Name        string         `gorm:"size:200" json:"name"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	SuccessText string         `gorm:"type:text" json:"success_text,omitempty"`
	ButtonText  string         `gorm:"size:100" json:"button_text,omitempty"`
	Fields      []FormField    `gorm:"foreignKey:FormID" json:"fields"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// DisplayName falls back to the slug when the editor left the name empty.
func (f Form) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	return f.Slug
}

// FormField is one field configuration inside a form. FieldID is the storage
// key and HTML name attribute, unique inside its form. Position defines the
// visual and validation order among siblings. Options carries the
// type-specific option bag (max_length, max_mb, allowed_extensions,
// min_px_width/min_px_height, px_width/px_height, choices_static,
// choices_dynamic, choices_dynamic_filter, choices_allow_empty).
type FormField struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	FormID      uint           `gorm:"index" json:"form_id"`
	FieldID     string         `gorm:"size:100" json:"field_id"`
	FieldType   string         `gorm:"size:50" json:"field_type"`
	Required    bool           `json:"required"`
	Label       string         `gorm:"size:200" json:"label,omitempty"`
	HelpText    string         `gorm:"size:500" json:"help_text,omitempty"`
	Placeholder string         `gorm:"size:255" json:"placeholder,omitempty"`
	Position    int            `gorm:"index" json:"position"`
	Options     datatypes.JSON `json:"options,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
