package extract

import (
	"fmt"
	"strings"

	"github.com/roach88/schemaforge/internal/model"
)

// ParseTypeRef parses the type notation used by CUE declarations:
// "Name", "Name!", "[Name]", "[Name!]", "[Name]!", "[Name!]!".
// Nested lists are rejected.
func ParseTypeRef(s string) (model.TypeRef, error) {
	var ref model.TypeRef
	t := strings.TrimSpace(s)

	if strings.HasSuffix(t, "!") {
		ref.NonNull = true
		t = strings.TrimSpace(strings.TrimSuffix(t, "!"))
	}
	if strings.HasPrefix(t, "[") {
		if !strings.HasSuffix(t, "]") {
			return model.TypeRef{}, fmt.Errorf("unbalanced list brackets in %q", s)
		}
		ref.List = true
		t = strings.TrimSpace(t[1 : len(t)-1])
		if strings.HasSuffix(t, "!") {
			ref.ElemNonNull = true
			t = strings.TrimSpace(strings.TrimSuffix(t, "!"))
		}
	}
	if !validName(t) {
		return model.TypeRef{}, fmt.Errorf("invalid type name in %q", s)
	}
	ref.Name = t
	return ref, nil
}

func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
