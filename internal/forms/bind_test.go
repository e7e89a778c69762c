package forms_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/InQuant/plusforms/internal/fields"
	"github.com/InQuant/plusforms/internal/forms"
	"github.com/InQuant/plusforms/internal/models"
	"github.com/InQuant/plusforms/internal/storage"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func build(t *testing.T, form models.Form) *forms.Schema {
	schema, err := forms.Build(form)
	assert.NoError(t, err)
	return schema
}

func TestValidateCollectsAllErrors(t *testing.T) {
	form := models.Form{
		Slug: "broken-input",
		Fields: []models.FormField{
			{FieldID: "name", FieldType: "text", Required: true, Position: 0},
			{FieldID: "age", FieldType: "integer", Position: 1},
			{FieldID: "contact", FieldType: "email", Position: 2},
		},
	}

	inst := build(t, form).Bind(map[string][]string{
		"age":     {"not-a-number"},
		"contact": {"also not an email"},
	}, nil, nil)

	assert.False(t, inst.Validate())
	assert.Len(t, inst.Errors, 3)
	assert.NotEmpty(t, inst.Errors.ForField("name"))
	assert.NotEmpty(t, inst.Errors.ForField("age"))
	assert.NotEmpty(t, inst.Errors.ForField("contact"))
}

func TestValidateKeepsKeySetComplete(t *testing.T) {
	form := models.Form{
		Slug: "newsletter",
		Fields: []models.FormField{
			{FieldID: "email", FieldType: "email", Required: true, Position: 0},
			{FieldID: "nickname", FieldType: "text", Position: 1},
			{FieldID: "subscribe", FieldType: "checkbox", Position: 2},
		},
	}

	inst := build(t, form).Bind(map[string][]string{
		"email": {"jane@example.com"},
	}, nil, nil)

	assert.True(t, inst.Validate())

	data, err := inst.SerializeData()
	assert.NoError(t, err)
	assert.Equal(t, map[string]any{
		"email":     "jane@example.com",
		"nickname":  nil,
		"subscribe": false,
	}, data)
}

func TestValidateConstraints(t *testing.T) {
	form := models.Form{
		Slug: "feedback",
		Fields: []models.FormField{
			{FieldID: "subject", FieldType: "text", Options: datatypes.JSON(`{"max_length": 10}`), Position: 0},
		},
	}

	t.Run("Error - Constraint violation carries the field id", func(t *testing.T) {
		inst := build(t, form).Bind(map[string][]string{
			"subject": {"way too long for ten characters"},
		}, nil, nil)

		assert.False(t, inst.Validate())
		assert.Equal(t, "subject", inst.Errors[0].Field)
	})

	t.Run("Success - Within constraint", func(t *testing.T) {
		inst := build(t, form).Bind(map[string][]string{
			"subject": {"short"},
		}, nil, nil)
		assert.True(t, inst.Validate())
	})
}

func TestSerializeDataSkipsTransient(t *testing.T) {
	ch := fields.NewCaptchaChallenge()
	var answer int
	switch ch.Op {
	case "+":
		answer = ch.X + ch.Y
	case "-":
		answer = ch.X - ch.Y
	case "*":
		answer = ch.X * ch.Y
	}

	form := models.Form{
		Slug: "protected",
		Fields: []models.FormField{
			{FieldID: "name", FieldType: "text", Position: 0},
			{FieldID: "check", FieldType: "captcha", Required: true, Position: 1},
		},
	}

	inst := build(t, form).Bind(map[string][]string{
		"name":        {"Jane"},
		"check":       {fmt.Sprint(answer)},
		"check_token": {ch.Token},
	}, nil, nil)

	assert.True(t, inst.Validate())

	data, err := inst.SerializeData()
	assert.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Jane"}, data)
}

func TestBindWithExisting(t *testing.T) {
	form := models.Form{
		Slug: "profile",
		Fields: []models.FormField{
			{FieldID: "name", FieldType: "text", Required: true, Position: 0},
			{FieldID: "age", FieldType: "integer", Position: 1},
		},
	}

	existing := &models.SubmittedForm{
		FormData: datatypes.JSON(`{"name": "Jane", "age": 30}`),
	}

	t.Run("Stored values become initial values", func(t *testing.T) {
		inst := build(t, form).Bind(nil, nil, existing)
		assert.Equal(t, "Jane", inst.Initial["name"])
	})

	t.Run("Posted values win over initial values", func(t *testing.T) {
		inst := build(t, form).Bind(map[string][]string{"name": {"Joan"}}, nil, existing)
		assert.True(t, inst.Validate())
		assert.Equal(t, "Joan", inst.Values["name"])
	})

	t.Run("Omitted fields fall back to initial values", func(t *testing.T) {
		inst := build(t, form).Bind(map[string][]string{"name": {"Joan"}}, nil, existing)
		assert.True(t, inst.Validate())
		assert.Equal(t, int64(30), inst.Values["age"])
	})
}

func TestBindWithExistingMultiSelect(t *testing.T) {
	form := models.Form{
		Slug: "tagging",
		Fields: []models.FormField{
			{FieldID: "tags", FieldType: "select_multiple", Required: true, Position: 0,
				Options: datatypes.JSON(`{"choices_static": [
					{"value": "a", "name": "A"},
					{"value": "b", "name": "B"},
					{"value": "c", "name": "C"}
				]}`)},
		},
	}

	existing := &models.SubmittedForm{
		FormData: datatypes.JSON(`{"tags": ["a", "b"]}`),
	}

	t.Run("Untouched multi-select keeps its stored values", func(t *testing.T) {
		inst := build(t, form).Bind(nil, nil, existing)
		assert.True(t, inst.Validate())
		assert.Equal(t, []string{"a", "b"}, inst.Values["tags"])

		data, err := inst.SerializeData()
		assert.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, data["tags"])
	})

	t.Run("Posted values win over stored values", func(t *testing.T) {
		inst := build(t, form).Bind(map[string][]string{"tags": {"c"}}, nil, existing)
		assert.True(t, inst.Validate())
		assert.Equal(t, []string{"c"}, inst.Values["tags"])
	})
}

func TestBindFileDowngrade(t *testing.T) {
	assert.NoError(t, storage.Init(t.TempDir(), "/uploads"))
	assert.NoError(t, os.MkdirAll(filepath.Join(storage.Root(), "forms"), 0o755))
	assert.NoError(t, os.WriteFile(filepath.Join(storage.Root(), "forms", "abc_cv.pdf"), []byte("pdf"), 0o644))

	form := models.Form{
		Slug: "application",
		Fields: []models.FormField{
			{FieldID: "cv", FieldType: "file", Required: true, Position: 0},
		},
	}

	t.Run("Error - Creation requires the upload", func(t *testing.T) {
		inst := build(t, form).Bind(nil, nil, nil)
		assert.False(t, inst.Validate())
		assert.NotEmpty(t, inst.Errors.ForField("cv"))
	})

	t.Run("Success - Edit keeps the stored file without re-upload", func(t *testing.T) {
		existing := &models.SubmittedForm{
			FormData: datatypes.JSON(`{"cv": "forms/abc_cv.pdf"}`),
		}
		inst := build(t, form).Bind(nil, nil, existing)
		assert.True(t, inst.Validate())

		data, err := inst.SerializeData()
		assert.NoError(t, err)
		assert.Equal(t, "forms/abc_cv.pdf", data["cv"])
	})

	t.Run("Error - Missing stored file is a field-scoped fault", func(t *testing.T) {
		existing := &models.SubmittedForm{
			FormData: datatypes.JSON(`{"cv": "forms/gone.pdf"}`),
		}
		inst := build(t, form).Bind(nil, nil, existing)
		assert.False(t, inst.Validate())
		assert.NotEmpty(t, inst.Errors.ForField("cv"))
	})
}
