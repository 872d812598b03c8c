package quota

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a catalog from a YAML document of the form
//
//	cpu:
//	  - key: CPU_REQUEST_1_LIMIT_2
//	    label: 1 CPU Request, 2 CPU Limit
//	memory: [...]
//	storage: [...]
func LoadFile(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quota catalog: %w", err)
	}
	return Parse(b)
}

// Parse decodes a YAML catalog document.
func Parse(b []byte) (*Catalog, error) {
	var raw map[ResourceKind][]Tier
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode quota catalog: %w", err)
	}
	return NewCatalog(raw)
}
