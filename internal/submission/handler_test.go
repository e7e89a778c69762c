package submission_test

import (
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/InQuant/plusforms/internal/database"
	"github.com/InQuant/plusforms/internal/models"
	"github.com/InQuant/plusforms/internal/storage"
	"github.com/InQuant/plusforms/internal/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func workshopForm(t *testing.T) *models.Form {
	return testutils.CreateTestForm(t, database.DB, "workshop",
		models.FormField{FieldID: "name", FieldType: "text", Required: true, Label: "Name"},
		models.FormField{
			FieldID:   "photo",
			FieldType: "image",
			Required:  true,
			Options:   testutils.FieldOptions(t, map[string]any{"min_px_width": 100, "min_px_height": 100}),
		},
	)
}

func submissionCount(t *testing.T) int64 {
	var count int64
	err := database.DB.Model(&models.SubmittedForm{}).Count(&count).Error
	assert.NoError(t, err)
	return count
}

func TestSubmitHandler(t *testing.T) {
	app := testutils.SetupTestApp(t)
	workshopForm(t)

	t.Run("Error - Unknown form", func(t *testing.T) {
		resp, err := testutils.MakeMultipartRequest(app, "POST", "/forms/nope/submissions",
			url.Values{"form-nope": {""}}, nil, "", nil)
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})

	t.Run("Error - Missing submit marker", func(t *testing.T) {
		resp, err := testutils.MakeMultipartRequest(app, "POST", "/forms/workshop/submissions",
			url.Values{"name": {"Jane"}}, nil, "", nil)
		assert.NoError(t, err)
		assert.Equal(t, 400, resp.Code)
		testutils.AssertError(t, resp, "BAD_REQUEST")
	})

	t.Run("Error - Undersized image rejected, nothing persisted", func(t *testing.T) {
		resp, err := testutils.MakeMultipartRequest(app, "POST", "/forms/workshop/submissions",
			url.Values{"form-workshop": {""}, "name": {"Jane"}},
			map[string]testutils.UploadFile{"photo": {Name: "photo.png", Content: testutils.MakePNG(t, 50, 50)}},
			"", nil)
		assert.NoError(t, err)
		assert.Equal(t, 422, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		assert.False(t, result.Success)
		details := result.Error.Details.([]interface{})
		assert.Len(t, details, 1)
		fieldErr := details[0].(map[string]interface{})
		assert.Equal(t, "photo", fieldErr["field"])

		assert.Equal(t, int64(0), submissionCount(t))
	})

	t.Run("Success - Valid submission persists data and provenance", func(t *testing.T) {
		resp, err := testutils.MakeMultipartRequest(app, "POST", "/forms/workshop/submissions",
			url.Values{"form-workshop": {""}, "name": {"Jane"}},
			map[string]testutils.UploadFile{"photo": {Name: "photo.png", Content: testutils.MakePNG(t, 200, 200)}},
			"", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"})
		assert.NoError(t, err)
		assert.Equal(t, 201, resp.Code)

		var sub models.SubmittedForm
		assert.NoError(t, database.DB.First(&sub).Error)

		var data map[string]any
		assert.NoError(t, json.Unmarshal(sub.FormData, &data))
		assert.Equal(t, "Jane", data["name"])
		assert.Contains(t, data["photo"], "forms/")
		assert.Contains(t, data["photo"], "photo.png")

		var meta map[string]any
		assert.NoError(t, json.Unmarshal(sub.MetaData, &meta))
		assert.Equal(t, "203.0.113.7", meta["remote_ip"])
		kinds := meta["form_field_types"].(map[string]any)
		assert.Equal(t, "text", kinds["name"])
		assert.Equal(t, "image", kinds["photo"])
	})
}

func TestSubmitHandlerIdempotency(t *testing.T) {
	app := testutils.SetupTestApp(t)
	workshopForm(t)

	id := uuid.New().String()
	post := func(name string) *httptest.ResponseRecorder {
		resp, err := testutils.MakeMultipartRequest(app, "POST", "/forms/workshop/submissions",
			url.Values{"form-workshop": {""}, "submission_id": {id}, "name": {name}},
			map[string]testutils.UploadFile{"photo": {Name: "p.png", Content: testutils.MakePNG(t, 150, 150)}},
			"", nil)
		assert.NoError(t, err)
		return resp
	}

	assert.Equal(t, 201, post("Jane").Code)

	replay := post("Impostor")
	assert.Equal(t, 201, replay.Code)
	assert.Equal(t, int64(1), submissionCount(t))

	var sub models.SubmittedForm
	assert.NoError(t, database.DB.First(&sub, "id = ?", id).Error)
	var data map[string]any
	assert.NoError(t, json.Unmarshal(sub.FormData, &data))
	assert.Equal(t, "Jane", data["name"], "the first submission stands")

	var result testutils.StandardResponse
	testutils.ParseResponse(t, replay, &result)
	replayed := result.Data.(map[string]any)["form_data"].(map[string]any)
	assert.Equal(t, "Jane", replayed["name"], "the replay answers with the standing record")

	entries, err := os.ReadDir(filepath.Join(storage.Root(), "forms"))
	assert.NoError(t, err)
	assert.Len(t, entries, 1, "the replayed upload is never written")
}

func submitWorkshop(t *testing.T, app *fiber.App) models.SubmittedForm {
	resp, err := testutils.MakeMultipartRequest(app, "POST", "/forms/workshop/submissions",
		url.Values{"form-workshop": {""}, "name": {"Jane"}},
		map[string]testutils.UploadFile{"photo": {Name: "photo.png", Content: testutils.MakePNG(t, 150, 150)}},
		"", nil)
	assert.NoError(t, err)
	assert.Equal(t, 201, resp.Code)

	var sub models.SubmittedForm
	assert.NoError(t, database.DB.First(&sub).Error)
	return sub
}

func TestUpdateHandler(t *testing.T) {
	app := testutils.SetupTestApp(t)
	workshopForm(t)
	sub := submitWorkshop(t, app)

	admin := testutils.CreateTestUser(t, database.DB, "admin@test.com", "password")
	token := testutils.GetAuthToken(t, admin.ID)

	var before map[string]any
	assert.NoError(t, json.Unmarshal(sub.FormData, &before))

	t.Run("Success - Edit without re-upload keeps the stored file", func(t *testing.T) {
		resp, err := testutils.MakeMultipartRequest(app, "PUT", "/submissions/"+sub.ID.String(),
			url.Values{"name": {"Joan"}}, nil, token, nil)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var updated models.SubmittedForm
		assert.NoError(t, database.DB.First(&updated, "id = ?", sub.ID).Error)

		var data map[string]any
		assert.NoError(t, json.Unmarshal(updated.FormData, &data))
		assert.Equal(t, "Joan", data["name"])
		assert.Equal(t, before["photo"], data["photo"])
	})

	t.Run("Error - Unauthenticated", func(t *testing.T) {
		resp, err := testutils.MakeMultipartRequest(app, "PUT", "/submissions/"+sub.ID.String(),
			url.Values{"name": {"Mallory"}}, nil, "", nil)
		assert.NoError(t, err)
		assert.Equal(t, 401, resp.Code)
	})
}

func TestListAndGetHandlers(t *testing.T) {
	app := testutils.SetupTestApp(t)
	workshopForm(t)
	sub := submitWorkshop(t, app)

	admin := testutils.CreateTestUser(t, database.DB, "admin@test.com", "password")
	token := testutils.GetAuthToken(t, admin.ID)

	t.Run("Success - List submissions with pagination meta", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "GET", "/forms/workshop/submissions", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		assert.True(t, result.Success)
		assert.NotNil(t, result.Meta)
		assert.Equal(t, int64(1), result.Meta.Total)
	})

	t.Run("Success - Get single submission", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "GET", "/submissions/"+sub.ID.String(), nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
		testutils.AssertSuccess(t, resp)
	})

	t.Run("Error - Malformed submission id", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "GET", "/submissions/not-a-uuid", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 400, resp.Code)
	})

	t.Run("Success - Delete submission", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "DELETE", "/submissions/"+sub.ID.String(), nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 204, resp.Code)
		assert.Equal(t, int64(0), submissionCount(t))
	})
}
