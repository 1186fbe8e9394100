package services

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// LanguageDetector names the language of a text, or returns "" when unsure.
type LanguageDetector interface {
	Detect(text string) string
}

// WhatlangDetector detects languages locally with whatlanggo.
type WhatlangDetector struct{}

// Detect returns the English name of the language (e.g. "Spanish") when the detection is reliable.
func (WhatlangDetector) Detect(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.String()
}
