package projection

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// uuidPattern matches a UUID in canonical textual form. Boundary checks
// are done separately because Go's \b treats '-' as a boundary, which
// would let a UUID match inside a longer hyphenated hex run.
var uuidPattern = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// AppendUUID embeds the plan's UUID token into an event description.
// The token goes on its own line so that delimited matching holds even
// against descriptions that already contain hex-looking text.
func AppendUUID(description, id string) string {
	if description == "" {
		return id
	}
	return description + "\n" + id
}

// ExtractUUID returns the first valid UUID token found in the
// description, honoring token boundaries.
func ExtractUUID(description string) (string, bool) {
	for _, loc := range uuidPattern.FindAllStringIndex(description, -1) {
		if !delimited(description, loc[0], loc[1]) {
			continue
		}
		candidate := description[loc[0]:loc[1]]
		if _, err := uuid.Parse(candidate); err == nil {
			return strings.ToLower(candidate), true
		}
	}
	return "", false
}

// ContainsUUID reports whether the description carries the given UUID as
// a delimited token. A UUID embedded inside a longer hex or hyphen run
// does not match.
func ContainsUUID(description, id string) bool {
	if id == "" {
		return false
	}
	lower := strings.ToLower(description)
	id = strings.ToLower(id)
	for from := 0; ; {
		i := strings.Index(lower[from:], id)
		if i < 0 {
			return false
		}
		start := from + i
		if delimited(description, start, start+len(id)) {
			return true
		}
		from = start + 1
	}
}

// delimited reports whether description[start:end] is bounded by
// characters that can not extend a UUID token.
func delimited(description string, start, end int) bool {
	if start > 0 && isTokenByte(description[start-1]) {
		return false
	}
	if end < len(description) && isTokenByte(description[end]) {
		return false
	}
	return true
}

func isTokenByte(b byte) bool {
	switch {
	case b >= '0' && b <= '9':
		return true
	case b >= 'a' && b <= 'f', b >= 'A' && b <= 'F':
		return true
	case b == '-':
		return true
	}
	return false
}
