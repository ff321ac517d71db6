package protected

import (
	"strings"

	"github.com/dmitrijs2005/decksync/internal/client/models"
)

// normalize trims and de-duplicates field names, preserving first-seen
// order. A name that is blank after trimming is a validation error.
func normalize(fields []string) ([]string, error) {
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		name := strings.TrimSpace(f)
		if name == "" {
			return nil, &models.ValidationError{Field: "field_name", Reason: "must not be blank"}
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}
