package classifier

import (
	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Field names of the response contract. All four are required.
const (
	FieldLabel            = "label"
	FieldConfidence       = "confidence"
	FieldReasoning        = "reasoning"
	FieldDetectedLanguage = "detectedLanguage"
)

// RequiredFields lists the response fields in declaration order.
var RequiredFields = []string{FieldLabel, FieldConfidence, FieldReasoning, FieldDetectedLanguage}

var fieldDescriptions = map[string]string{
	FieldLabel:            "The predicted category label from the allowed list.",
	FieldConfidence:       "Confidence score between 0.0 and 1.0",
	FieldReasoning:        "A brief explanation of why this label was chosen.",
	FieldDetectedLanguage: "The language detected in the input text (e.g., English, Spanish, Japanese).",
}

// GeminiResponseSchema declares the response contract for the Gemini API.
func GeminiResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			FieldLabel:            {Type: genai.TypeString, Description: fieldDescriptions[FieldLabel]},
			FieldConfidence:       {Type: genai.TypeNumber, Description: fieldDescriptions[FieldConfidence]},
			FieldReasoning:        {Type: genai.TypeString, Description: fieldDescriptions[FieldReasoning]},
			FieldDetectedLanguage: {Type: genai.TypeString, Description: fieldDescriptions[FieldDetectedLanguage]},
		},
		Required: append([]string(nil), RequiredFields...),
	}
}

// OpenAIResponseSchema declares the response contract as a strict JSON schema.
func OpenAIResponseSchema() *jsonschema.Definition {
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			FieldLabel:            {Type: jsonschema.String, Description: fieldDescriptions[FieldLabel]},
			FieldConfidence:       {Type: jsonschema.Number, Description: fieldDescriptions[FieldConfidence]},
			FieldReasoning:        {Type: jsonschema.String, Description: fieldDescriptions[FieldReasoning]},
			FieldDetectedLanguage: {Type: jsonschema.String, Description: fieldDescriptions[FieldDetectedLanguage]},
		},
		Required:             append([]string(nil), RequiredFields...),
		AdditionalProperties: false,
	}
}
