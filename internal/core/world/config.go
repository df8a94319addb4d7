package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadOptions reads simulation options from a YAML file. Unset fields
// keep their defaults.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("load options %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parse options %s: %w", path, err)
	}
	if opts.Timestep <= 0 {
		opts.Timestep = DefaultOptions().Timestep
	}
	return opts, nil
}
