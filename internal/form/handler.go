package form

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/InQuant/plusforms/internal/database"
	"github.com/InQuant/plusforms/internal/fields"
	"github.com/InQuant/plusforms/internal/forms"
	"github.com/InQuant/plusforms/internal/models"
	"github.com/InQuant/plusforms/internal/response"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CreateFormRequest struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SuccessText string `json:"success_text"`
	ButtonText  string `json:"button_text"`
}

type AddFieldRequest struct {
	FieldID     string         `json:"field_id"`
	FieldType   string         `json:"field_type"`
	Required    bool           `json:"required"`
	Label       string         `json:"label"`
	HelpText    string         `json:"help_text"`
	Placeholder string         `json:"placeholder"`
	Options     map[string]any `json:"options"`
}

func CreateFormHandler(c *fiber.Ctx) error {
	var body CreateFormRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if body.Slug == "" {
		return response.ValidationError(c, map[string]string{
			"slug": "slug is required",
		})
	}

	f, err := CreateForm(body.Slug, body.Name, body.Description, body.SuccessText, body.ButtonText)
	if err != nil {
		return response.BadRequest(c, "Failed to create form", err.Error())
	}

	return response.Created(c, f, "Form created successfully")
}

func ListFormsHandler(c *fiber.Ctx) error {
	var list []models.Form
	if err := database.DB.Preload("Fields", orderByPosition).Find(&list).Error; err != nil {
		return response.InternalError(c, "Failed to list forms")
	}
	return response.Success(c, list, "")
}

func GetFormHandler(c *fiber.Ctx) error {
	f, err := GetForm(c.Params("slug"))
	if err != nil {
		return response.NotFound(c, "Form")
	}
	return response.Success(c, f, "")
}

func UpdateFormHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid form ID", nil)
	}

	var f models.Form
	if err := database.DB.First(&f, id).Error; err != nil {
		return response.NotFound(c, "Form")
	}

	var body CreateFormRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if body.Name != "" {
		f.Name = plainPolicy.Sanitize(body.Name)
	}
	if body.Description != "" {
		f.Description = richPolicy.Sanitize(body.Description)
	}
	if body.SuccessText != "" {
		f.SuccessText = richPolicy.Sanitize(body.SuccessText)
	}
	if body.ButtonText != "" {
		f.ButtonText = plainPolicy.Sanitize(body.ButtonText)
	}

	if err := database.DB.Save(&f).Error; err != nil {
		return response.InternalError(c, "Failed to update form")
	}
	return response.Success(c, f, "Form updated successfully")
}

func DeleteFormHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid form ID", nil)
	}
	if err := database.DB.Delete(&models.Form{}, id).Error; err != nil {
		return response.InternalError(c, "Failed to delete form")
	}
	return response.NoContent(c)
}

func AddFieldHandler(c *fiber.Ctx) error {
	formID, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid form ID", nil)
	}

	var f models.Form
	if err := database.DB.First(&f, formID).Error; err != nil {
		return response.NotFound(c, "Form")
	}

	var body AddFieldRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if body.FieldID == "" || body.FieldType == "" {
		return response.ValidationError(c, map[string]string{
			"field_id":   "field_id is required",
			"field_type": "field_type is required",
		})
	}

	field, err := AddField(uint(formID), body.FieldID, body.FieldType, body.Required,
		body.Label, body.HelpText, body.Placeholder, body.Options)
	if err != nil {
		if errors.Is(err, fields.ErrUnknownFieldType) {
			return response.ValidationError(c, map[string]string{"field_type": err.Error()})
		}
		if errors.Is(err, forms.ErrDuplicateField) {
			return response.Conflict(c, err.Error())
		}
		return response.BadRequest(c, "Failed to add field", err.Error())
	}

	return response.Created(c, field, "Field added successfully")
}

func UpdateFieldHandler(c *fiber.Ctx) error {
	fieldID, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid field ID", nil)
	}

	var field models.FormField
	if err := database.DB.First(&field, fieldID).Error; err != nil {
		return response.NotFound(c, "Field")
	}

	var body AddFieldRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if body.FieldType != "" {
		if _, err := fields.Resolve(body.FieldType); err != nil {
			return response.ValidationError(c, map[string]string{"field_type": err.Error()})
		}
		field.FieldType = body.FieldType
	}
	field.Required = body.Required
	if body.Label != "" {
		field.Label = plainPolicy.Sanitize(body.Label)
	}
	if body.HelpText != "" {
		field.HelpText = plainPolicy.Sanitize(body.HelpText)
	}
	if body.Placeholder != "" {
		field.Placeholder = plainPolicy.Sanitize(body.Placeholder)
	}
	if body.Options != nil {
		raw, err := json.Marshal(body.Options)
		if err != nil {
			return response.BadRequest(c, "Invalid options", err.Error())
		}
		field.Options = datatypes.JSON(raw)
	}

	if err := database.DB.Save(&field).Error; err != nil {
		return response.InternalError(c, "Failed to update field")
	}
	return response.Success(c, field, "Field updated successfully")
}

func DeleteFieldHandler(c *fiber.Ctx) error {
	fieldID, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid field ID", nil)
	}
	if err := database.DB.Delete(&models.FormField{}, fieldID).Error; err != nil {
		return response.InternalError(c, "Failed to delete field")
	}
	return response.NoContent(c)
}

// renderedField is one field of the public schema payload.
type renderedField struct {
	ID          string                   `json:"id"`
	Type        string                   `json:"type"`
	Kind        string                   `json:"kind"`
	Required    bool                     `json:"required"`
	Label       string                   `json:"label,omitempty"`
	HelpText    string                   `json:"help_text,omitempty"`
	Placeholder string                   `json:"placeholder,omitempty"`
	Choices     []fields.Choice          `json:"choices,omitempty"`
	Captcha     *fields.CaptchaChallenge `json:"captcha,omitempty"`
}

// SchemaHandler renders the synthesized form for a client: resolved fields in
// order, assembled help texts, choice lists, a fresh captcha challenge per
// captcha field, plus the submit marker and a submission ID for idempotent
// posting.
func SchemaHandler(c *fiber.Ctx) error {
	f, err := GetForm(c.Params("slug"))
	if err != nil {
		return response.NotFound(c, "Form")
	}

	schema, err := forms.Build(*f)
	if err != nil {
		log.Printf("form %q is misconfigured: %v", f.Slug, err)
		return response.ConfigError(c, "Form is misconfigured")
	}

	rendered := make([]renderedField, 0, len(schema.Fields))
	for _, bf := range schema.Fields {
		rf := renderedField{
			ID:          bf.ID,
			Type:        bf.Type.Name(),
			Kind:        bf.Type.Kind(),
			Required:    bf.Required,
			Label:       bf.Label,
			HelpText:    bf.HelpText,
			Placeholder: bf.Placeholder,
			Choices:     bf.Choices,
		}
		if bf.Type.Kind() == fields.KindCaptcha {
			challenge := fields.NewCaptchaChallenge()
			rf.Captcha = &challenge
		}
		rendered = append(rendered, rf)
	}

	return response.Success(c, fiber.Map{
		"form":          f,
		"marker":        schema.Marker(),
		"submission_id": uuid.New(),
		"button_text":   f.ButtonText,
		"fields":        rendered,
	}, "")
}

// ListFieldTypesHandler lists the registered field types for the editor UI,
// built-ins first.
func ListFieldTypesHandler(c *fiber.Ctx) error {
	available := fields.Available()
	out := make([]fiber.Map, 0, len(available))
	for _, ft := range available {
		out = append(out, fiber.Map{
			"name":    ft.Name(),
			"label":   ft.Label(),
			"kind":    ft.Kind(),
			"options": ft.OptionNames(),
		})
	}
	return response.Success(c, out, "")
}
