package environment

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File holds all saved environments.
type File struct {
	Active       string        `yaml:"active,omitempty"`
	Environments []Environment `yaml:"environments"`
}

// Environment is a named set of variables, e.g. "staging" or "production".
type Environment struct {
	Name      string            `yaml:"name"`
	Variables map[string]string `yaml:"variables"`
}

// Load reads environments from a YAML file. A missing file is an empty set,
// not an error.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("reading environments: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing environments: %w", err)
	}
	return &f, nil
}

// Save writes environments back to disk.
func Save(f *File, path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling environments: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing environments: %w", err)
	}
	return nil
}

// Variables returns the flat name -> value map for a named environment.
func (f *File) Variables(name string) map[string]string {
	for _, env := range f.Environments {
		if env.Name == name {
			out := make(map[string]string, len(env.Variables))
			for k, v := range env.Variables {
				out[k] = v
			}
			return out
		}
	}
	return map[string]string{}
}

// ActiveVariables returns the variables of the active environment.
func (f *File) ActiveVariables() map[string]string {
	return f.Variables(f.Active)
}

// Names returns all environment names.
func (f *File) Names() []string {
	names := make([]string, len(f.Environments))
	for i, e := range f.Environments {
		names[i] = e.Name
	}
	return names
}
