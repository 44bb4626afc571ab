package config

import (
	"errors"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"
)

// ProfilesFile is the default name of the named-environment file.
const ProfilesFile = "profiles.yaml"

// Profiles maps environment names (e.g. "staging", "prod") to overlays.
type Profiles map[string]Overlay

// LoadProfiles reads a profiles.yaml file from the given filesystem. A
// missing file is only an error when a profile was explicitly requested;
// callers decide that, so absence is reported via the bool.
func LoadProfiles(fsys fs.FS, name string) (Profiles, bool, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading %s: %w", name, err)
	}

	var p Profiles
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, false, fmt.Errorf("parsing %s: %w", name, err)
	}

	return p, true, nil
}

// Select returns the overlay for the named profile.
func (p Profiles) Select(name string) (Overlay, error) {
	o, ok := p[name]
	if !ok {
		return Overlay{}, fmt.Errorf("profile %q not found", name)
	}
	return o, nil
}
