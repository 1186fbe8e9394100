package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"polyclassify/internal/models"
)

type rawResult struct {
	Label            *string  `json:"label"`
	Confidence       *float64 `json:"confidence"`
	Reasoning        *string  `json:"reasoning"`
	DetectedLanguage *string  `json:"detectedLanguage"`
}

// ParseResult decodes a model answer into a ClassificationResult.
// Empty bodies, invalid JSON, missing fields and out-of-range confidence are contract violations.
func ParseResult(content string) (models.ClassificationResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.ClassificationResult{}, models.NewContractError("empty response from model", nil)
	}

	var parsed rawResult
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return models.ClassificationResult{}, models.NewContractError("response is not valid JSON", err)
	}

	var missing []string
	if parsed.Label == nil {
		missing = append(missing, FieldLabel)
	}
	if parsed.Confidence == nil {
		missing = append(missing, FieldConfidence)
	}
	if parsed.Reasoning == nil {
		missing = append(missing, FieldReasoning)
	}
	if parsed.DetectedLanguage == nil {
		missing = append(missing, FieldDetectedLanguage)
	}
	if len(missing) > 0 {
		return models.ClassificationResult{}, models.NewContractError(
			fmt.Sprintf("response is missing required fields: %s", strings.Join(missing, ", ")), nil)
	}

	if *parsed.Confidence < 0 || *parsed.Confidence > 1 {
		return models.ClassificationResult{}, models.NewContractError(
			fmt.Sprintf("confidence %v is outside [0, 1]", *parsed.Confidence), nil)
	}

	return models.ClassificationResult{
		Label:            *parsed.Label,
		Confidence:       *parsed.Confidence,
		Reasoning:        *parsed.Reasoning,
		DetectedLanguage: *parsed.DetectedLanguage,
	}, nil
}
