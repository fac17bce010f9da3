package textutil

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DecodeInput converts raw file content to NFC-normalized UTF-8 text with
// Unix line endings. A UTF-8 or UTF-16 byte-order mark selects the source
// encoding and is stripped; input without a BOM is treated as UTF-8 and
// invalid sequences are replaced with U+FFFD.
func DecodeInput(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", fmt.Errorf("decode input: %w", err)
	}
	text := norm.NFC.String(string(out))
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n"), nil
}
