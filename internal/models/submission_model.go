package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SubmittedForm is one persisted, validated form fill-in. The ID is supplied
// by the rendered form and acts as an idempotency key: re-submitting the same
// ID must not create a second record. Form and User are weak back-references,
// both nullable; the JSON payloads are self-sufficient once written.
type SubmittedForm struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FormID    *uint          `gorm:"index" json:"form_id,omitempty"`
	Form      *Form          `gorm:"foreignKey:FormID;constraint:OnDelete:SET NULL" json:"form,omitempty"`
	UserID    *uint          `gorm:"index" json:"user_id,omitempty"`
	User      *User          `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`
	Name      string         `gorm:"size:200" json:"name"`
	FormData  datatypes.JSON `json:"form_data"`
	MetaData  datatypes.JSON `json:"meta_data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
