package schema

import (
	"testing"
	"time"
)

func validRule() Rule {
	return Rule{
		Name:        "SUSP_PowerShell_Download",
		Description: "Detects PowerShell download cradles",
		Content:     "rule SUSP_PowerShell_Download { condition: true }",
		Tags:        []string{"T1059", "SUSP"},
		References:  []string{"https://example.com/analysis"},
		Score:       75,
		Date:        time.Now().UTC(),
	}
}

func TestValidator_ValidateRule(t *testing.T) {
	v := NewValidator()

	rule := validRule()
	if err := v.ValidateRule(&rule); err != nil {
		t.Errorf("ValidateRule() = %v, want nil", err)
	}
}

func TestValidator_ValidateRule_MissingName(t *testing.T) {
	v := NewValidator()

	rule := validRule()
	rule.Name = ""
	if err := v.ValidateRule(&rule); err == nil {
		t.Error("ValidateRule() = nil, want error for missing name")
	}
}

func TestValidator_ValidateRule_MissingContent(t *testing.T) {
	v := NewValidator()

	rule := validRule()
	rule.Content = ""
	if err := v.ValidateRule(&rule); err == nil {
		t.Error("ValidateRule() = nil, want error for missing content")
	}
}

func TestValidator_ValidateRule_ScoreBounds(t *testing.T) {
	v := NewValidator()

	rule := validRule()
	rule.Score = 101
	if err := v.ValidateRule(&rule); err == nil {
		t.Error("ValidateRule() = nil, want error for score > 100")
	}

	rule.Score = -1
	if err := v.ValidateRule(&rule); err == nil {
		t.Error("ValidateRule() = nil, want error for negative score")
	}
}

func TestValidator_ValidateResponse(t *testing.T) {
	v := NewValidator()

	resp := &FeedResponse{
		Status:  StatusOK,
		Version: 2,
		Rules:   []Rule{validRule()},
	}
	if err := v.ValidateResponse(resp); err != nil {
		t.Errorf("ValidateResponse() = %v, want nil", err)
	}
}

func TestValidator_ValidateResponse_InvalidRule(t *testing.T) {
	v := NewValidator()

	bad := validRule()
	bad.Content = ""

	resp := &FeedResponse{
		Status: StatusOK,
		Rules:  []Rule{validRule(), bad},
	}
	if err := v.ValidateResponse(resp); err == nil {
		t.Error("ValidateResponse() = nil, want error when a rule is invalid")
	}
}

func TestValidator_ValidateResponse_MissingStatus(t *testing.T) {
	v := NewValidator()

	resp := &FeedResponse{Rules: []Rule{validRule()}}
	if err := v.ValidateResponse(resp); err == nil {
		t.Error("ValidateResponse() = nil, want error for missing status")
	}
}
