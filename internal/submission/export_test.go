package submission_test

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"net/url"
	"testing"

	"github.com/InQuant/plusforms/internal/database"
	"github.com/InQuant/plusforms/internal/testutils"
	"github.com/stretchr/testify/assert"
)

func TestExportCSVHandler(t *testing.T) {
	app := testutils.SetupTestApp(t)
	workshopForm(t)

	admin := testutils.CreateTestUser(t, database.DB, "admin@test.com", "password")
	token := testutils.GetAuthToken(t, admin.ID)

	for _, name := range []string{"Jane", "Joan"} {
		resp, err := testutils.MakeMultipartRequest(app, "POST", "/forms/workshop/submissions",
			url.Values{"form-workshop": {""}, "name": {name}},
			map[string]testutils.UploadFile{"photo": {Name: name + ".png", Content: testutils.MakePNG(t, 150, 150)}},
			"", nil)
		assert.NoError(t, err)
		assert.Equal(t, 201, resp.Code)
	}

	t.Run("Success - One row per submission, sorted columns", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "GET", "/forms/workshop/submissions/export.csv", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
		assert.Contains(t, resp.Header().Get("Content-Type"), "text/csv")

		rows, err := csv.NewReader(bytes.NewReader(resp.Body.Bytes())).ReadAll()
		assert.NoError(t, err)
		assert.Len(t, rows, 3, "header plus two submissions")
		assert.Equal(t, "name", rows[0][0])
		assert.Equal(t, "photo", rows[0][1])
		assert.ElementsMatch(t, []string{"Jane", "Joan"}, []string{rows[1][0], rows[2][0]})
	})

	t.Run("Error - Unknown form", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "GET", "/forms/nope/submissions/export.csv", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})
}

func TestExportZIPHandler(t *testing.T) {
	app := testutils.SetupTestApp(t)
	workshopForm(t)

	admin := testutils.CreateTestUser(t, database.DB, "admin@test.com", "password")
	token := testutils.GetAuthToken(t, admin.ID)

	resp, err := testutils.MakeMultipartRequest(app, "POST", "/forms/workshop/submissions",
		url.Values{"form-workshop": {""}, "name": {"Jane"}},
		map[string]testutils.UploadFile{"photo": {Name: "photo.png", Content: testutils.MakePNG(t, 150, 150)}},
		"", nil)
	assert.NoError(t, err)
	assert.Equal(t, 201, resp.Code)

	t.Run("Success - Archive bundles the CSV and uploaded files", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "GET", "/forms/workshop/submissions/export.zip", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
		assert.Contains(t, resp.Header().Get("Content-Type"), "application/zip")

		body := resp.Body.Bytes()
		zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
		assert.NoError(t, err)

		names := make([]string, 0, len(zr.File))
		for _, f := range zr.File {
			names = append(names, f.Name)
		}
		assert.Contains(t, names, "export.csv")
		assert.Len(t, names, 2, "CSV plus the one uploaded photo")
	})
}
