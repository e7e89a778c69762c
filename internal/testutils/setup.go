package testutils

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/InQuant/plusforms/internal/database"
	"github.com/InQuant/plusforms/internal/models"
	"github.com/InQuant/plusforms/internal/server"
	"github.com/InQuant/plusforms/internal/storage"
	"github.com/InQuant/plusforms/internal/utils"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func TestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err, "Failed to create test database")

	err = db.AutoMigrate(
		&models.User{},
		&models.Form{},
		&models.FormField{},
		&models.SubmittedForm{},
	)
	assert.NoError(t, err, "Failed to migrate test database")

	return db
}

func SetupTestApp(t *testing.T) *fiber.App {
	db := TestDB(t)
	database.DB = db

	err := storage.Init(t.TempDir(), "/uploads")
	assert.NoError(t, err, "Failed to initialize storage")

	app := server.New(db)
	return app
}

func CreateTestUser(t *testing.T, db *gorm.DB, email, password string) *models.User {
	hashedPassword, _ := utils.HashPassword(password)

	user := &models.User{
		Name:     "Test User",
		Email:    email,
		Password: hashedPassword,
	}

	err := db.Create(user).Error
	assert.NoError(t, err, "Failed to create test user")

	return user
}

func GetAuthToken(t *testing.T, userID uint) string {
	token, err := utils.GenerateJWT(userID)
	assert.NoError(t, err, "Failed to generate test token")
	return token
}

// CreateTestForm inserts a form plus its fields; options may be nil per field.
func CreateTestForm(t *testing.T, db *gorm.DB, slug string, fields ...models.FormField) *models.Form {
	form := &models.Form{
		Slug:        slug,
		Name:        "Test Form",
		SuccessText: "Thank you!",
	}
	err := db.Create(form).Error
	assert.NoError(t, err, "Failed to create test form")

	for i := range fields {
		fields[i].FormID = form.ID
		fields[i].Position = i
		err := db.Create(&fields[i]).Error
		assert.NoError(t, err, "Failed to create test field")
	}

	db.Preload("Fields").First(form, form.ID)
	return form
}

// FieldOptions marshals an option bag for a test FormField.
func FieldOptions(t *testing.T, opts map[string]any) datatypes.JSON {
	raw, err := json.Marshal(opts)
	assert.NoError(t, err, "Failed to marshal field options")
	return datatypes.JSON(raw)
}

// MakePNG renders a blank PNG of the given dimensions.
func MakePNG(t *testing.T, w, h int) []byte {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	err := png.Encode(&buf, img)
	assert.NoError(t, err, "Failed to encode test image")
	return buf.Bytes()
}

func MakeRequest(app *fiber.App, method, url string, body interface{}, token string) (*httptest.ResponseRecorder, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, url, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()

	resp, err := app.Test(req, -1)
	if err != nil {
		return rec, err
	}

	rec.Code = resp.StatusCode
	for k, v := range resp.Header {
		for _, val := range v {
			rec.Header().Add(k, val)
		}
	}
	io.Copy(rec.Body, resp.Body)
	resp.Body.Close()

	return rec, nil
}

// UploadFile is a named file payload for multipart requests.
type UploadFile struct {
	Name    string
	Content []byte
}

func MakeMultipartRequest(app *fiber.App, method, target string, fields url.Values, files map[string]UploadFile, token string, headers map[string]string) (*httptest.ResponseRecorder, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, vals := range fields {
		for _, val := range vals {
			writer.WriteField(key, val)
		}
	}

	for fieldName, file := range files {
		part, err := writer.CreateFormFile(fieldName, file.Name)
		if err != nil {
			return nil, err
		}
		part.Write(file.Content)
	}

	contentType := writer.FormDataContentType()
	writer.Close()

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", contentType)

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	resp, err := app.Test(req, -1)
	if err != nil {
		return rec, err
	}

	rec.Code = resp.StatusCode
	for k, v := range resp.Header {
		for _, val := range v {
			rec.Header().Add(k, val)
		}
	}
	io.Copy(rec.Body, resp.Body)
	resp.Body.Close()

	return rec, nil
}

func ParseResponse(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	if resp.Body.Len() == 0 {
		t.Log("Warning: Response body is empty")
		return
	}

	err := json.NewDecoder(resp.Body).Decode(v)
	if err != nil && err != io.EOF {
		t.Logf("Response body: %s", resp.Body.String())
		assert.NoError(t, err, "Failed to parse response")
	}
}

type StandardResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    interface{}  `json:"data"`
	Error   *ErrorDetail `json:"error"`
	Meta    *Meta        `json:"meta"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

func AssertSuccess(t *testing.T, resp *httptest.ResponseRecorder) {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.True(t, result.Success, "Expected success response")
	assert.Empty(t, result.Error, "Expected no error")
}

func AssertError(t *testing.T, resp *httptest.ResponseRecorder, expectedCode string) {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.False(t, result.Success, "Expected error response")
	assert.NotNil(t, result.Error, "Expected error object")
	assert.Equal(t, expectedCode, result.Error.Code, "Error code mismatch")
}
