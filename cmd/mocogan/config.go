package main

import (
	"os"

	"github.com/gorgonia/mocogan"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// loadConfig reads the YAML file at path over the defaults of f. An empty
// path yields the defaults.
func loadConfig(path string, f mocogan.Flavor) (mocogan.Config, error) {
	conf := mocogan.DefaultConfig(f)
	if path == "" {
		return conf, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return conf, errors.WithStack(err)
	}
	if err = yaml.Unmarshal(data, &conf); err != nil {
		return conf, errors.Wrapf(err, "parsing %s", path)
	}
	return conf, nil
}
