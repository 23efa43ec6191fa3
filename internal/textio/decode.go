// Package textio decodes document bytes into text, stripping a leading
// UTF-8 byte-order mark and rejecting content that is not valid UTF-8
// (spec §7's UnicodeDecodeError).
package textio

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// DecodeUTF8 transforms raw document bytes into text. The input is first
// validated as well-formed UTF-8 (the decoder below would otherwise replace
// malformed sequences with U+FFFD); a leading UTF-8 BOM is then stripped via
// golang.org/x/text's BOM-aware decoder, matching the spec's strict decode
// step ahead of detection.
func DecodeUTF8(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", fmt.Errorf("decode utf-8: invalid byte sequence")
	}
	decoded, err := unicode.UTF8BOM.NewDecoder().Bytes(content)
	if err != nil {
		return "", fmt.Errorf("decode utf-8: %w", err)
	}
	return string(decoded), nil
}
