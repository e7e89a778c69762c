package submission

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/InQuant/plusforms/internal/database"
	"github.com/InQuant/plusforms/internal/fields"
	"github.com/InQuant/plusforms/internal/forms"
	"github.com/InQuant/plusforms/internal/models"
	"github.com/InQuant/plusforms/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequestMeta is the provenance snapshot persisted with every submission.
type RequestMeta struct {
	Host      string
	Origin    string
	Referrer  string
	UserAgent string
	RemoteIP  string
}

// MetaFromCtx extracts request provenance. The remote IP prefers the first
// X-Forwarded-For entry and falls back to the direct connection address.
func MetaFromCtx(c *fiber.Ctx) RequestMeta {
	ip := c.IP()
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		ip = strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	return RequestMeta{
		Host:      c.Hostname(),
		Origin:    c.Get("Origin"),
		Referrer:  c.Get("Referer"),
		UserAgent: c.Get("User-Agent"),
		RemoteIP:  ip,
	}
}

// Hook points for the embedding program: PreSave may enrich or reject a
// validated instance before serialization, PostSave runs side effects after a
// record was written. Neither is called for rejected or duplicate submissions.
var (
	PreSave  func(*forms.Instance) error
	PostSave func(*models.SubmittedForm)
)

// Submit drives one submission through the lifecycle:
// bind -> validate -> serialize -> persist.
//
// A rejected submission returns the instance carrying its field errors and no
// record. A duplicate submission ID is silently absorbed: exactly one record
// exists afterwards and neither caller sees an error.
func Submit(form models.Form, id uuid.UUID, values map[string][]string, files map[string]*multipart.FileHeader, meta RequestMeta, userID *uint) (*models.SubmittedForm, *forms.Instance, error) {
	schema, err := forms.Build(form)
	if err != nil {
		return nil, nil, err
	}

	inst := schema.Bind(values, files, nil)
	if !inst.Validate() {
		return nil, inst, nil
	}

	// Duplicate IDs short-circuit before any upload is written, so a replayed
	// request leaves no orphan files and answers with the standing record.
	var standing models.SubmittedForm
	err = database.DB.First(&standing, "id = ?", id).Error
	if err == nil {
		return &standing, inst, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, inst, err
	}

	if PreSave != nil {
		if err := PreSave(inst); err != nil {
			return nil, inst, err
		}
	}

	if err := persistUploads(schema, inst); err != nil {
		return nil, inst, err
	}

	sub, err := buildRecord(schema, inst, id, meta, userID)
	if err != nil {
		return nil, inst, err
	}

	res := database.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(sub)
	if res.Error != nil {
		return nil, inst, res.Error
	}
	if res.RowsAffected == 0 {
		// lost the race against a concurrent replay, the earlier record stands
		if err := database.DB.First(&standing, "id = ?", id).Error; err != nil {
			return nil, inst, err
		}
		return &standing, inst, nil
	}

	if PostSave != nil {
		PostSave(sub)
	}
	return sub, inst, nil
}

// Update re-runs the lifecycle over an existing submission. File fields keep
// their stored value when no new upload arrives.
func Update(sub *models.SubmittedForm, values map[string][]string, files map[string]*multipart.FileHeader) (*forms.Instance, error) {
	if sub.FormID == nil {
		return nil, fmt.Errorf("the originating form no longer exists")
	}

	var form models.Form
	if err := database.DB.Preload("Fields", orderByPosition).First(&form, *sub.FormID).Error; err != nil {
		return nil, err
	}

	schema, err := forms.Build(form)
	if err != nil {
		return nil, err
	}

	inst := schema.Bind(values, files, sub)
	if !inst.Validate() {
		return inst, nil
	}

	if err := persistUploads(schema, inst); err != nil {
		return inst, err
	}

	data, err := inst.SerializeData()
	if err != nil {
		return inst, err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return inst, err
	}

	sub.FormData = datatypes.JSON(raw)
	if err := database.DB.Save(sub).Error; err != nil {
		return inst, err
	}
	return inst, nil
}

// persistUploads streams every freshly uploaded file to durable storage and
// swaps the stream for its stored handle. Any write failure aborts the whole
// attempt; no partial record is ever persisted.
func persistUploads(schema *forms.Schema, inst *forms.Instance) error {
	for _, f := range schema.Fields {
		if !fields.IsFileKind(f.Type.Kind()) {
			continue
		}
		fh, ok := inst.Values[f.ID].(*multipart.FileHeader)
		if !ok {
			continue
		}
		stored, err := storage.SaveUpload(fh)
		if err != nil {
			return fmt.Errorf("upload for field %q failed: %w", f.ID, err)
		}
		inst.SetValue(f.ID, stored)
	}
	return nil
}

func buildRecord(schema *forms.Schema, inst *forms.Instance, id uuid.UUID, meta RequestMeta, userID *uint) (*models.SubmittedForm, error) {
	data, err := inst.SerializeData()
	if err != nil {
		return nil, err
	}
	formData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	form := schema.Form
	metaData, err := json.Marshal(map[string]any{
		"host":             meta.Host,
		"origin":           meta.Origin,
		"referrer":         meta.Referrer,
		"user_agent":       meta.UserAgent,
		"remote_ip":        meta.RemoteIP,
		"form_field_types": schema.FieldKinds(),
		"form": map[string]any{
			"form_id": form.ID,
			"slug":    form.Slug,
			"name":    form.DisplayName(),
		},
	})
	if err != nil {
		return nil, err
	}

	return &models.SubmittedForm{
		ID:       id,
		FormID:   &form.ID,
		UserID:   userID,
		Name:     form.DisplayName(),
		FormData: datatypes.JSON(formData),
		MetaData: datatypes.JSON(metaData),
	}, nil
}
