package main

import (
	"fmt"
)

// Config is the generator's config file: one entry per program to generate
// bindings for. JSON and YAML are both accepted.
type Config struct {
	originalFilepath string
	Programs         []ProgramConfig `json:"programs" yaml:"programs"`
}

// ProgramConfig describes one IDL to generate bindings from.
type ProgramConfig struct {
	// IDL is the path to the Anchor IDL JSON file.
	IDL string `json:"idl" yaml:"idl"`
	// Package overrides the generated package name (defaults to the
	// program name from the IDL).
	Package string `json:"package" yaml:"package"`
	// Out is the path of the generated Go file. Defaults to
	// <package>.gen.go next to the IDL.
	Out string `json:"out" yaml:"out"`
}

func (c *Config) ConfigFilepath() string {
	return c.originalFilepath
}

// Validate checks that every entry names an existing IDL file.
func (c *Config) Validate() error {
	if len(c.Programs) == 0 {
		return fmt.Errorf("config %q lists no programs", c.originalFilepath)
	}
	for i, prog := range c.Programs {
		if prog.IDL == "" {
			return fmt.Errorf("config %q: program %d has no idl path", c.originalFilepath, i)
		}
		ok, err := exists(prog.IDL)
		if err != nil {
			return fmt.Errorf("config %q: program %d: %w", c.originalFilepath, i, err)
		}
		if !ok {
			return fmt.Errorf("config %q: program %d: IDL file %q does not exist", c.originalFilepath, i, prog.IDL)
		}
	}
	return nil
}

func loadConfig(configFilepath string) (*Config, error) {
	var config Config
	if isJSONFile(configFilepath) {
		if err := loadFromJSON(configFilepath, &config); err != nil {
			return nil, err
		}
	} else if isYAMLFile(configFilepath) {
		if err := loadFromYAML(configFilepath, &config); err != nil {
			return nil, err
		}
	} else {
		return nil, fmt.Errorf("config file %q must be JSON or YAML", configFilepath)
	}
	config.originalFilepath = configFilepath
	return &config, nil
}
