package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"
)

// Payload limits (in bytes)
const (
	MaxPayloadSize  = 256 * 1024 // 256KB - launch payloads, messages, results
	MaxPayloadDepth = 20
)

// String length limits
const (
	MaxIDLength      = 128
	MaxLocatorLength = 2048
	MaxTitleLength   = 256
)

var (
	// SafeIDPattern allows alphanumeric, hyphens, underscores
	SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// ToolIDPattern allows alphanumeric, hyphens, underscores, and dots (for service.tool format)
	ToolIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

// PayloadValidator validates payload size and nesting limits
type PayloadValidator struct {
	maxSize  int
	maxDepth int
}

// NewPayloadValidator creates a validator with the given limits.
// A non-positive maxSize falls back to MaxPayloadSize.
func NewPayloadValidator(maxSize int) *PayloadValidator {
	if maxSize <= 0 {
		maxSize = MaxPayloadSize
	}
	return &PayloadValidator{maxSize: maxSize, maxDepth: MaxPayloadDepth}
}

// DefaultPayloadValidator returns a validator with the default limits
func DefaultPayloadValidator() *PayloadValidator {
	return NewPayloadValidator(MaxPayloadSize)
}

// ValidateSize checks if the data size is within limits
func (v *PayloadValidator) ValidateSize(data []byte) error {
	if size := len(data); size > v.maxSize {
		return fmt.Errorf("payload size %d bytes exceeds maximum %d bytes", size, v.maxSize)
	}
	return nil
}

// Validate checks the encoded size and the nesting depth of a payload.
// A nil payload is valid.
func (v *PayloadValidator) Validate(payload map[string]interface{}) error {
	if payload == nil {
		return nil
	}

	data, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("payload is not serializable: %w", err)
	}
	if err := v.ValidateSize(data); err != nil {
		return err
	}

	return ValidateJSONDepth(payload, v.maxDepth)
}

// ValidateJSONDepth checks if JSON nesting depth is within limits
func ValidateJSONDepth(data interface{}, maxDepth int) error {
	return checkDepth(data, 0, maxDepth)
}

func checkDepth(data interface{}, currentDepth int, maxDepth int) error {
	if currentDepth > maxDepth {
		return fmt.Errorf("JSON nesting depth %d exceeds maximum %d", currentDepth, maxDepth)
	}

	switch v := data.(type) {
	case map[string]interface{}:
		for _, value := range v {
			if err := checkDepth(value, currentDepth+1, maxDepth); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, value := range v {
			if err := checkDepth(value, currentDepth+1, maxDepth); err != nil {
				return err
			}
		}
	}

	return nil
}

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates an ID field
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateToolID validates a tool ID field (allows dots for service.tool format)
func ValidateToolID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !ToolIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, dots, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateLocator validates a surface locator
func ValidateLocator(locator string) error {
	if err := ValidateString(locator, "locator", 1, MaxLocatorLength, true); err != nil {
		return err
	}
	if strings.TrimSpace(locator) != locator {
		return fmt.Errorf("locator must not have leading or trailing whitespace")
	}
	return nil
}
