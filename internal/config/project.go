package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
)

// ProjectFile is the default name of the per-repository deployment file,
// looked up in the build context.
const ProjectFile = "deploy.toml"

// LoadProject reads a deploy.toml overlay from the given filesystem.
// A missing file is not an error: deployments work on flags and defaults
// alone.
func LoadProject(fsys fs.FS, name string) (Overlay, bool, error) {
	var o Overlay

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return o, false, nil
		}
		return o, false, fmt.Errorf("reading %s: %w", name, err)
	}

	md, err := toml.Decode(string(data), &o)
	if err != nil {
		return o, false, fmt.Errorf("parsing %s: %w", name, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return o, false, fmt.Errorf("parsing %s: unknown key %q", name, undec[0].String())
	}

	return o, true, nil
}
