package config

import (
	"github.com/flyteorg/flytestdlib/config"
)

const configSectionKey = "allocator"

var (
	// Root config section. Components needing config register a subsection
	// under this root.
	rootSection = config.MustRegisterSection(configSectionKey, &Config{})
)

// Top level allocator config.
type Config struct {
}

// Retrieves the current config value or default.
func GetConfig() *Config {
	return rootSection.GetConfig().(*Config)
}

func MustRegisterSubSection(subSectionKey string, section config.Config) config.Section {
	return rootSection.MustRegisterSection(subSectionKey, section)
}
