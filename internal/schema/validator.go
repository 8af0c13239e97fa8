package schema

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validator checks feed responses against the canonical rule schema.
// A response that fails validation must be treated as a failed fetch.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// ValidateResponse validates a full feed response.
func (v *Validator) ValidateResponse(resp *FeedResponse) error {
	if err := v.validate.Struct(resp); err != nil {
		return fmt.Errorf("feed response validation failed: %w", err)
	}
	return nil
}

// ValidateRule validates a single rule record.
func (v *Validator) ValidateRule(rule *Rule) error {
	if err := v.validate.Struct(rule); err != nil {
		return fmt.Errorf("rule validation failed: %w", err)
	}
	return nil
}
