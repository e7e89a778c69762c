package submission

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"github.com/InQuant/plusforms/internal/database"
	"github.com/InQuant/plusforms/internal/fields"
	"github.com/InQuant/plusforms/internal/models"
	"github.com/InQuant/plusforms/internal/response"
	"github.com/InQuant/plusforms/internal/storage"
	"github.com/gofiber/fiber/v2"
)

// ExportCSVHandler streams every submission of one form as CSV. Columns come
// from the newest submission's field-type snapshot, so an export stays
// consistent even after the editor changed the form.
func ExportCSVHandler(c *fiber.Ctx) error {
	subs, columns, _, err := exportData(c.Params("slug"))
	if err != nil {
		return response.NotFound(c, "Form")
	}

	var buf bytes.Buffer
	if err := writeCSV(&buf, columns, subs); err != nil {
		return response.InternalError(c, "Failed to build export")
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=export_%d.csv", time.Now().Unix()))
	return c.Send(buf.Bytes())
}

// ExportZIPHandler bundles the CSV export together with every uploaded file
// referenced by file-kind fields.
func ExportZIPHandler(c *fiber.Ctx) error {
	subs, columns, kinds, err := exportData(c.Params("slug"))
	if err != nil {
		return response.NotFound(c, "Form")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	var csvBuf bytes.Buffer
	if err := writeCSV(&csvBuf, columns, subs); err != nil {
		return response.InternalError(c, "Failed to build export")
	}
	w, err := zw.Create("export.csv")
	if err != nil {
		return response.InternalError(c, "Failed to build export")
	}
	if _, err := w.Write(csvBuf.Bytes()); err != nil {
		return response.InternalError(c, "Failed to build export")
	}

	for _, sub := range subs {
		data := formData(sub)
		for col, kind := range kinds {
			if !fields.IsFileKind(kind) {
				continue
			}
			rel, ok := data[col].(string)
			if !ok || rel == "" {
				continue
			}
			if err := addStoredFile(zw, rel); err != nil {
				log.Printf("export: skipping %q: %v", rel, err)
			}
		}
	}

	if err := zw.Close(); err != nil {
		return response.InternalError(c, "Failed to build export")
	}

	c.Set("Content-Type", "application/zip")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=export_%d.zip", time.Now().Unix()))
	return c.Send(buf.Bytes())
}

func exportData(slug string) ([]models.SubmittedForm, []string, map[string]string, error) {
	var form models.Form
	if err := database.DB.Where("slug = ?", slug).First(&form).Error; err != nil {
		return nil, nil, nil, err
	}

	var subs []models.SubmittedForm
	if err := database.DB.Where("form_id = ?", form.ID).Order("created_at").Find(&subs).Error; err != nil {
		return nil, nil, nil, err
	}

	kinds := map[string]string{}
	if len(subs) > 0 {
		var meta struct {
			FormFieldTypes map[string]string `json:"form_field_types"`
		}
		if err := json.Unmarshal(subs[len(subs)-1].MetaData, &meta); err == nil {
			kinds = meta.FormFieldTypes
		}
	}

	columns := make([]string, 0, len(kinds))
	for col := range kinds {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	return subs, columns, kinds, nil
}

func writeCSV(w io.Writer, columns []string, subs []models.SubmittedForm) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}

	for _, sub := range subs {
		data := formData(sub)
		row := make([]string, len(columns))
		for i, col := range columns {
			if v, ok := data[col]; ok && v != nil {
				row[i] = fmt.Sprint(v)
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formData(sub models.SubmittedForm) map[string]any {
	data := map[string]any{}
	if len(sub.FormData) > 0 {
		_ = json.Unmarshal(sub.FormData, &data)
	}
	return data
}

func addStoredFile(zw *zip.Writer, rel string) error {
	stored, err := storage.Open(rel)
	if err != nil {
		return err
	}
	src, err := stored.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := zw.Create(rel)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
