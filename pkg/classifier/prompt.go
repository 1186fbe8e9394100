package classifier

import (
	"fmt"
	"strings"

	"polyclassify/internal/models"
)

// Placeholders understood by instruction templates.
const (
	LabelsPlaceholder   = "{{LABELS}}"
	ExamplesPlaceholder = "{{EXAMPLES}}"
)

// DefaultInstructionTemplate is used when no template file is configured.
const DefaultInstructionTemplate = `You are an expert multi-language text classifier.
Your task is to classify the provided text into exactly one of the following categories: {{LABELS}}.

{{EXAMPLES}}
Analyze the user input, determine the language, pick the most appropriate category from the allowed list, and explain your reasoning briefly.
The confidence score should be between 0 and 1.
`

const examplesHeader = "Here are some few-shot examples to guide your classification:\n"

// PromptBuilder renders the system instruction for one attempt.
type PromptBuilder struct {
	template string
}

// NewPromptBuilder validates tmpl; an empty tmpl selects DefaultInstructionTemplate.
func NewPromptBuilder(tmpl string) (*PromptBuilder, error) {
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultInstructionTemplate
	}
	if !strings.Contains(tmpl, LabelsPlaceholder) {
		return nil, fmt.Errorf("instruction template must contain %s", LabelsPlaceholder)
	}
	return &PromptBuilder{template: tmpl}, nil
}

// DefaultPromptBuilder returns a builder for DefaultInstructionTemplate.
func DefaultPromptBuilder() *PromptBuilder {
	return &PromptBuilder{template: DefaultInstructionTemplate}
}

// Build renders the instruction. Labels are comma-joined in order; the examples
// block is omitted entirely when there are no examples.
func (b *PromptBuilder) Build(labels []string, examples []models.Example) string {
	instruction := b.template
	instruction = strings.ReplaceAll(instruction, LabelsPlaceholder, strings.Join(labels, ", "))
	instruction = strings.ReplaceAll(instruction, ExamplesPlaceholder, FormatExamples(examples))
	return instruction
}

// FormatExamples serializes examples as delimited (text, label) blocks in insertion order.
// Text and label are quoted so embedded quotes or newlines cannot break the delimiters.
func FormatExamples(examples []models.Example) string {
	if len(examples) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(examplesHeader)
	for i, ex := range examples {
		fmt.Fprintf(&sb, "Example %d:\nInput: %q\nLabel: %q\n---\n", i+1, ex.Text, ex.Label)
	}
	return sb.String()
}

// CheckRequest enforces the preconditions that must hold before any call to a model.
func CheckRequest(req Request) error {
	if len(req.Labels) == 0 {
		return models.NewConfigurationError("System Error: No classification labels defined.")
	}
	if strings.TrimSpace(req.Text) == "" {
		return fmt.Errorf("%w: input text is empty", models.ErrValidation)
	}
	return nil
}
