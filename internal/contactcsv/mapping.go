package contactcsv

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mapping renames CSV headers to contact fields, e.g. {"e-mail": "email"}.
// Keys are matched after header normalization (lowercase, spaces to
// underscores); values must be canonical contact fields.
type Mapping map[string]string

// LoadMapping reads a YAML header mapping.
func LoadMapping(r io.Reader) (Mapping, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping: %w", err)
	}

	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse mapping YAML: %w", err)
	}

	mapping := make(Mapping, len(raw))
	for key, field := range raw {
		field = strings.ToLower(strings.TrimSpace(field))
		if !isKnownField(field) {
			return nil, fmt.Errorf("mapping targets unknown contact field: %q", field)
		}
		mapping[normalizeHeader(key)] = field
	}

	return mapping, nil
}
