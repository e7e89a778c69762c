package submission

import (
	"errors"
	"log"
	"mime/multipart"
	"strconv"

	"github.com/InQuant/plusforms/internal/auth"
	"github.com/InQuant/plusforms/internal/database"
	"github.com/InQuant/plusforms/internal/fields"
	"github.com/InQuant/plusforms/internal/forms"
	"github.com/InQuant/plusforms/internal/models"
	"github.com/InQuant/plusforms/internal/response"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

// SubmitHandler accepts a form POST (multipart or urlencoded). The body must
// carry the form's submit marker ("form-<slug>"); a request without it did
// not target this form and is not processed.
func SubmitHandler(c *fiber.Ctx) error {
	var form models.Form
	if err := database.DB.Preload("Fields", orderByPosition).
		Where("slug = ?", c.Params("slug")).First(&form).Error; err != nil {
		return response.NotFound(c, "Form")
	}

	values, files := requestData(c)

	if _, submitted := values["form-"+form.Slug]; !submitted {
		return response.BadRequest(c, "Form was not submitted", nil)
	}

	id := uuid.New()
	if raw, ok := values["submission_id"]; ok && len(raw) > 0 && raw[0] != "" {
		parsed, err := uuid.Parse(raw[0])
		if err != nil {
			return response.BadRequest(c, "Invalid submission id", nil)
		}
		id = parsed
	}

	sub, inst, err := Submit(form, id, values, files, MetaFromCtx(c), auth.UserID(c))
	if err != nil {
		var cfgErr *forms.ConfigError
		if errors.As(err, &cfgErr) || errors.Is(err, fields.ErrUnknownFieldType) || errors.Is(err, fields.ErrChoiceSourceNotFound) {
			log.Printf("form %q is misconfigured: %v", form.Slug, err)
			return response.ConfigError(c, "Form is misconfigured")
		}
		log.Printf("submission for form %q failed: %v", form.Slug, err)
		return response.InternalError(c, "Failed to store submission")
	}
	if inst != nil && len(inst.Errors) > 0 {
		return response.ValidationError(c, inst.Errors)
	}

	message := form.SuccessText
	if message == "" {
		message = "Form submitted successfully"
	}
	return response.Created(c, sub, message)
}

func ListHandler(c *fiber.Ctx) error {
	var form models.Form
	if err := database.DB.Where("slug = ?", c.Params("slug")).First(&form).Error; err != nil {
		return response.NotFound(c, "Form")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", "25"))
	if limit < 1 || limit > 200 {
		limit = 25
	}

	query := database.DB.Model(&models.SubmittedForm{}).Where("form_id = ?", form.ID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalError(c, "Failed to count submissions")
	}

	var subs []models.SubmittedForm
	if err := query.Order("created_at desc").
		Offset((page - 1) * limit).Limit(limit).
		Find(&subs).Error; err != nil {
		return response.InternalError(c, "Failed to list submissions")
	}

	return response.SuccessWithMeta(c, subs, response.CalculateMeta(page, limit, total), "")
}

func GetHandler(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid submission id", nil)
	}

	var sub models.SubmittedForm
	if err := database.DB.First(&sub, "id = ?", id).Error; err != nil {
		return response.NotFound(c, "Submission")
	}
	return response.Success(c, sub, "")
}

// UpdateHandler re-opens a submission for editing: the stored values become
// the initial state, the posted values are re-validated and re-serialized.
func UpdateHandler(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid submission id", nil)
	}

	var sub models.SubmittedForm
	if err := database.DB.First(&sub, "id = ?", id).Error; err != nil {
		return response.NotFound(c, "Submission")
	}

	values, files := requestData(c)

	inst, err := Update(&sub, values, files)
	if err != nil {
		var cfgErr *forms.ConfigError
		if errors.As(err, &cfgErr) {
			log.Printf("submission %s: %v", sub.ID, err)
			return response.ConfigError(c, "Form is misconfigured")
		}
		log.Printf("updating submission %s failed: %v", sub.ID, err)
		return response.InternalError(c, "Failed to update submission")
	}
	if inst != nil && len(inst.Errors) > 0 {
		return response.ValidationError(c, inst.Errors)
	}

	return response.Success(c, sub, "Submission updated successfully")
}

func DeleteHandler(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid submission id", nil)
	}

	if err := database.DB.Delete(&models.SubmittedForm{}, "id = ?", id).Error; err != nil {
		return response.InternalError(c, "Failed to delete submission")
	}
	return response.NoContent(c)
}

// requestData flattens the incoming POST body into value and file maps. Only
// the first file per field is considered; fields are single-upload.
func requestData(c *fiber.Ctx) (map[string][]string, map[string]*multipart.FileHeader) {
	values := map[string][]string{}
	files := map[string]*multipart.FileHeader{}

	if mp, err := c.MultipartForm(); err == nil && mp != nil {
		for k, v := range mp.Value {
			values[k] = v
		}
		for k, fhs := range mp.File {
			if len(fhs) > 0 {
				files[k] = fhs[0]
			}
		}
		return values, files
	}

	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		k := string(key)
		values[k] = append(values[k], string(value))
	})
	return values, files
}
