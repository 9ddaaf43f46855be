package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadValidator(t *testing.T) {
	v := NewPayloadValidator(64)

	assert.NoError(t, v.Validate(nil))
	assert.NoError(t, v.Validate(map[string]interface{}{"x": 1}))

	err := v.Validate(map[string]interface{}{"blob": strings.Repeat("a", 100)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")
}

func TestPayloadValidatorDepth(t *testing.T) {
	v := DefaultPayloadValidator()

	var nested interface{} = "leaf"
	for i := 0; i < MaxPayloadDepth+2; i++ {
		nested = map[string]interface{}{"n": nested}
	}

	err := v.Validate(nested.(map[string]interface{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nesting depth")
}

func TestValidateLocator(t *testing.T) {
	tests := []struct {
		name    string
		locator string
		wantErr bool
	}{
		{"scheme locator", "page://settings", false},
		{"https locator", "https://example.com/a?b=c", false},
		{"empty", "", true},
		{"padded", " page://a", true},
		{"null byte", "page://a\x00", true},
		{"too long", "page://" + strings.Repeat("a", MaxLocatorLength), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLocator(tt.locator)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateIDs(t *testing.T) {
	assert.NoError(t, ValidateID("page_01HZX", "page_id", true))
	assert.Error(t, ValidateID("page id", "page_id", true))
	assert.Error(t, ValidateID("", "page_id", true))
	assert.NoError(t, ValidateID("", "page_id", false))

	assert.NoError(t, ValidateToolID("navigator.push", "tool_id", true))
	assert.Error(t, ValidateToolID("navigator/push", "tool_id", true))
}

func TestLocatorPolicy(t *testing.T) {
	open, err := NewLocatorPolicy(nil)
	require.NoError(t, err)
	assert.True(t, open.Allows("anything://at/all"))

	policy, err := NewLocatorPolicy([]string{"page://**", "https://*.example.com/**"})
	require.NoError(t, err)

	assert.True(t, policy.Allows("page://settings"))
	assert.True(t, policy.Allows("page://settings/advanced"))
	assert.True(t, policy.Allows("https://docs.example.com/guide/intro"))
	assert.False(t, policy.Allows("https://evil.test/"))
	assert.False(t, policy.Allows("file:///etc/passwd"))

	_, err = NewLocatorPolicy([]string{"page://[a"})
	assert.Error(t, err)
}

func TestSanitizeTitle(t *testing.T) {
	assert.Equal(t, "Settings", SanitizeTitle("<b>Settings</b>"))
	assert.Equal(t, "Tom & Jerry", SanitizeTitle("Tom &amp; Jerry"))
	assert.Equal(t, "a b", SanitizeTitle("  a \n\t b "))
	assert.Equal(t, "", SanitizeTitle("<script>alert(1)</script>"))
	assert.Len(t, []rune(SanitizeTitle(strings.Repeat("é", MaxTitleLength+10))), MaxTitleLength)
}
