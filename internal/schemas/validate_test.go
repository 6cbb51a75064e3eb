package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_SitemapEnvelope(t *testing.T) {
	valid := `{"success": true, "data": {"type": "standard_sitemap", "urls": [{"loc": "https://a.com/x"}]}}`
	assert.NoError(t, Validate(SitemapEnvelope, valid))

	failed := `{"success": false, "error": "not found"}`
	assert.NoError(t, Validate(SitemapEnvelope, failed))
}

func TestValidate_SitemapEnvelope_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing success", `{"data": {"type": "standard_sitemap"}}`},
		{"unknown type", `{"success": true, "data": {"type": "rss"}}`},
		{"success without data", `{"success": true}`},
		{"url without loc", `{"success": true, "data": {"type": "standard_sitemap", "urls": [{}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(SitemapEnvelope, tt.doc)
			require.Error(t, err)

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr), "error should be ValidationError type")
			assert.Greater(t, len(validationErr.Errors), 0)
		})
	}
}

func TestValidate_Sources(t *testing.T) {
	assert.NoError(t, Validate(Sources, `[{"address": "https://a.com", "status": "ready"}]`))
	assert.Error(t, Validate(Sources, `[{"address": "https://a.com", "status": "done"}]`))
}

func TestValidate_ChatHistory(t *testing.T) {
	assert.NoError(t, Validate(ChatHistory, `[{"sender": "user", "text": "hi"}, {"sender": "ai", "text": "hello"}]`))
	assert.Error(t, Validate(ChatHistory, `[{"sender": "bot", "text": "hi"}]`))
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("missing.schema.json", `{}`)
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestValidate_SourcesReportsField(t *testing.T) {
	err := Validate(Sources, `[{"address": 5, "status": "ready"}]`)
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "0.address", validationErr.Errors[0].Field)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	msg := err.Error()
	assert.Contains(t, msg, "1. a: bad")
	assert.Contains(t, msg, "2. b: worse")
}
