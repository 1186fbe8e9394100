package clix

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// ExampleParam is a few-shot example given on the command line as "text=label".
type ExampleParam struct {
	Text  string
	Label string
}

// ParseLabels reads the repeatable --label flag. Each value may also hold a
// comma-separated list. Blank entries are dropped.
func ParseLabels(flags *pflag.FlagSet) ([]string, error) {
	raw, err := flags.GetStringArray("label")
	if err != nil {
		return nil, err
	}
	var labels []string
	for _, v := range raw {
		// Trim space and filter out empty strings in one pass
		for _, l := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(l)
			if trimmed != "" {
				labels = append(labels, trimmed)
			}
		}
	}
	return labels, nil
}

// ParseExamples reads the repeatable --example flag. The label is taken after
// the last '=' so the text itself may contain '='.
func ParseExamples(flags *pflag.FlagSet) ([]ExampleParam, error) {
	raw, err := flags.GetStringArray("example")
	if err != nil {
		return nil, err
	}
	examples := make([]ExampleParam, 0, len(raw))
	for _, v := range raw {
		i := strings.LastIndex(v, "=")
		if i < 0 {
			return nil, fmt.Errorf("invalid example %q: expected \"text=label\"", v)
		}
		text := strings.TrimSpace(v[:i])
		label := strings.TrimSpace(v[i+1:])
		if text == "" || label == "" {
			return nil, fmt.Errorf("invalid example %q: text and label must not be empty", v)
		}
		examples = append(examples, ExampleParam{Text: text, Label: label})
	}
	return examples, nil
}
