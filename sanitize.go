package agentgraph

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/meshed/agentgraph/pkg/domain"
)

// DefaultMaxRequestSize bounds request text, in bytes.
const DefaultMaxRequestSize = 4096

// SanitizeRequest enforces the size limit, validates UTF-8 and strips control
// characters other than newline, tab and carriage return. Oversized input is
// rejected rather than truncated. A limit of zero or less disables the size check.
func SanitizeRequest(input string, limit int) (string, error) {
	if limit > 0 && len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", domain.ErrInvalidRequest, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", fmt.Errorf("%w: invalid UTF-8", domain.ErrInvalidRequest)
	}

	if strings.IndexFunc(input, unsafeControl) < 0 {
		return input, nil
	}
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}
