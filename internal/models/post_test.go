package models_test

import (
	"testing"

	"github.com/SergeiKhy/blog-analytics/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTags_RoundTrip проверяет сохранение порядка и повторов
func TestTags_RoundTrip(t *testing.T) {
	tags := []string{"go", "blog", "go", "Сервер"}

	raw, err := models.EncodeTags(tags)
	require.NoError(t, err)

	decoded, err := models.DecodeTags(raw)
	require.NoError(t, err)
	assert.Equal(t, tags, decoded)
}

func TestTags_Empty(t *testing.T) {
	raw, err := models.EncodeTags(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)

	decoded, err := models.DecodeTags("")
	require.NoError(t, err)
	assert.Empty(t, decoded)
	assert.NotNil(t, decoded)

	decoded, err = models.DecodeTags("null")
	require.NoError(t, err)
	assert.NotNil(t, decoded)
}

func TestDecodeTags_Malformed(t *testing.T) {
	_, err := models.DecodeTags("go, blog")
	assert.Error(t, err)
}
