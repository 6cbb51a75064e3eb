package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"https", "https://example.com", true},
		{"http with path", "http://example.com/docs/page?x=1", true},
		{"port", "https://localhost:8080", true},
		{"surrounding whitespace", "  https://example.com  ", true},
		{"ftp", "ftp://files.example.com/a.txt", true},
		{"empty", "", false},
		{"no scheme", "example.com", false},
		{"no scheme with path", "example.com/page", false},
		{"scheme only", "https://", false},
		{"mailto has no authority", "mailto:someone@example.com", false},
		{"relative path", "/docs/page", false},
		{"garbage", "ht!tp://%%%", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidURL(tt.input))
		})
	}
}

func TestValidate_WrapsSentinel(t *testing.T) {
	err := Validate("not a url")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.NoError(t, Validate("https://example.com"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "https://example.com", Normalize("https://example.com/"))
	assert.Equal(t, "https://example.com/a", Normalize(" https://example.com/a "))
}
