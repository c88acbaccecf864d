package profiles

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type fileDocument struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadFile reads and validates the profiles declared in a YAML file.
func LoadFile(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}
	profiles, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return profiles, nil
}

// Parse decodes a YAML profiles document. Unknown keys are rejected.
func Parse(data []byte) ([]Profile, error) {
	var doc fileDocument
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("decode profiles yaml: %w", err)
	}

	seen := make(map[string]struct{}, len(doc.Profiles))
	out := make([]Profile, 0, len(doc.Profiles))
	for _, p := range doc.Profiles {
		p = p.Normalize()
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("duplicate profile %q", p.Name)
		}
		seen[p.Name] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// Find returns the profile called name from list.
func Find(list []Profile, name string) (Profile, error) {
	for _, p := range list {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}
