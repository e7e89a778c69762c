package form

import (
	"fmt"
	"strconv"

	"github.com/InQuant/plusforms/internal/database"
	"github.com/InQuant/plusforms/internal/fields"
	"github.com/InQuant/plusforms/internal/models"
)

// formSource exposes the stored forms as a dynamic choice source, so a select
// field can offer "pick one of the site's forms". It doubles as the reference
// implementation of the choice-source contract.
type formSource struct{}

// filterable columns; anything else is an invalid filter and degrades the
// choice list to empty instead of failing the render
var formFilterColumns = map[string]bool{
	"id":   true,
	"slug": true,
	"name": true,
}

func (formSource) List(filter map[string]any) ([]fields.ChoiceRecord, error) {
	for key := range filter {
		if !formFilterColumns[key] {
			return nil, fmt.Errorf("%w: forms have no attribute %q", fields.ErrInvalidFilter, key)
		}
	}

	query := database.DB.Model(&models.Form{}).Order("id")
	if len(filter) > 0 {
		query = query.Where(filter)
	}

	var rows []models.Form
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]fields.ChoiceRecord, 0, len(rows))
	for _, f := range rows {
		records = append(records, fields.ChoiceRecord{
			ID:    strconv.FormatUint(uint64(f.ID), 10),
			Label: f.DisplayName(),
		})
	}
	return records, nil
}

// RegisterChoiceSources wires the built-in dynamic choice sources. Called
// once at startup.
func RegisterChoiceSources() {
	fields.RegisterChoiceSource("form", formSource{})
}
