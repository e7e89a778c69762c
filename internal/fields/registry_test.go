package fields_test

import (
	"testing"

	"github.com/InQuant/plusforms/internal/fields"
	"github.com/stretchr/testify/assert"
)

type customType struct{ name string }

func (t customType) Name() string          { return t.name }
func (customType) Label() string           { return "Custom field" }
func (customType) Kind() string            { return fields.KindText }
func (customType) OptionNames() []string   { return nil }
func (customType) Validate(raw any, _ fields.Options) (any, error) {
	return raw, nil
}

func TestRegistry(t *testing.T) {
	t.Run("Success - Built-ins resolve by name", func(t *testing.T) {
		for _, name := range []string{"text", "textarea", "integer", "email", "checkbox", "file", "image", "date", "captcha", "select", "select_multiple"} {
			ft, err := fields.Resolve(name)
			assert.NoError(t, err)
			assert.Equal(t, name, ft.Name())
		}
	})

	t.Run("Success - Register custom type", func(t *testing.T) {
		err := fields.Register(customType{name: "custom_text"})
		assert.NoError(t, err)

		ft, err := fields.Resolve("custom_text")
		assert.NoError(t, err)
		assert.Equal(t, "Custom field", ft.Label())
	})

	t.Run("Error - Duplicate registration", func(t *testing.T) {
		err := fields.Register(customType{name: "text"})
		assert.ErrorIs(t, err, fields.ErrDuplicateFieldType)
	})

	t.Run("Error - Unknown type", func(t *testing.T) {
		_, err := fields.Resolve("telepathy")
		assert.ErrorIs(t, err, fields.ErrUnknownFieldType)
	})
}

func TestAvailable(t *testing.T) {
	available := fields.Available()
	assert.GreaterOrEqual(t, len(available), 17)

	names := make([]string, 0, len(available))
	for _, ft := range available {
		names = append(names, ft.Name())
	}

	t.Run("Built-ins come first in declared order", func(t *testing.T) {
		assert.Equal(t, "text", names[0])
		assert.Equal(t, "textarea", names[1])
		assert.Equal(t, "select_multiple", names[16])
	})

	t.Run("Listing order is stable", func(t *testing.T) {
		again := fields.Available()
		for i, ft := range again {
			assert.Equal(t, names[i], ft.Name())
		}
	})
}
