package task

import (
	"testing"

	"taxonomy/scraper/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	category := domain.Category{Name: "Almacén", URL: "https://www.jumbo.com.ar/almacen"}

	t.Run("each type decodes to its own task", func(t *testing.T) {
		for _, original := range []Task{
			&CategoryTask{Site: "jumbo", Version: "jumbo_scraper_v1.0", Category: category},
			&CategoryRetryTask{Site: "jumbo", Version: "jumbo_scraper_v1.0", Category: category, RetryCount: 2, Error: "navigation failed"},
		} {
			value, err := original.TaskValue()
			require.NoError(t, err)

			decoded, err := Decode(original.TaskType(), value)
			require.NoError(t, err)
			assert.Equal(t, original, decoded)
		}
	})

	t.Run("every published type is decodable", func(t *testing.T) {
		value, err := (&CategoryRetryTask{Site: "jumbo", Category: category}).TaskValue()
		require.NoError(t, err)

		for _, taskType := range Types {
			_, err := Decode(taskType, value)
			assert.NoError(t, err, taskType)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := Decode("ProductTask", []byte(`{}`))
		assert.ErrorIs(t, err, ErrUnknownType)
	})

	t.Run("malformed payloads are rejected", func(t *testing.T) {
		_, err := Decode(TypeCategory, []byte(`{"site":`))
		assert.Error(t, err)

		_, err = Decode(TypeCategory, []byte(`{"site":"jumbo"}`))
		assert.ErrorContains(t, err, "missing site or category url")

		_, err = Decode(TypeCategoryRetry, []byte(`{"category":{"url":"https://www.jumbo.com.ar/almacen"}}`))
		assert.Error(t, err)
	})
}
