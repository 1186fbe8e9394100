package util

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
)

const maxBinaryCheckBytes = 512

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Typographic characters normalized before text is sent for classification.
var charReplacementMap = map[string]string{
	"\u2018": "'", "\u2019": "'", "\u201C": "\"", "\u201D": "\"",
	"\u2013": "-", "\u2014": "--", "\u2026": "...", "\u00a0": " ",
	"\u0096": "-", "\u0097": "--", "\u0091": "'", "\u0092": "'",
	"\u0093": "\"", "\u0094": "\"",
}

// IsLikelyBinary reports whether the first bytes of data contain a NUL byte.
func IsLikelyBinary(data []byte) bool {
	n := len(data)
	if n > maxBinaryCheckBytes {
		n = maxBinaryCheckBytes
	}
	return bytes.IndexByte(data[:n], 0) >= 0
}

// CleanInputText turns raw piped or file input into classification text.
// src names the input in log and error messages.
func CleanInputText(raw []byte, src string) (string, error) {
	if IsLikelyBinary(raw) {
		return "", fmt.Errorf("%s looks like binary data", src)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	if !utf8.Valid(raw) {
		log.Warnf("%s invalid UTF-8, replacing invalid chars", src)
		raw = bytes.ToValidUTF8(raw, []byte(string(utf8.RuneError)))
	}

	str := string(raw)
	for bad, good := range charReplacementMap {
		str = strings.ReplaceAll(str, bad, good)
	}

	if !utf8.ValidString(str) {
		log.Errorf("%s still invalid after cleaning", src)
		return "", fmt.Errorf("invalid UTF-8 after replacements: %s", src)
	}
	return strings.TrimSpace(str), nil
}
