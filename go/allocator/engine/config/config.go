package config

//go:generate pflags Config --default-var=defaultConfig

import (
	allocatorConfig "github.com/ska-telescope/ska-low-mccs-allocator/go/allocator/config"
)

const engineConfigSectionKey = "engine"

var (
	defaultConfig = Config{
		ReadinessGate: true,
	}

	engineConfigSection = allocatorConfig.MustRegisterSubSection(engineConfigSectionKey, &defaultConfig)
)

// Config declares the fixed universe the engine is constructed over. The
// universe cannot change at run time; redeploy to add or remove capacity.
type Config struct {
	Allocatees []string `json:"allocatees" pflag:",Fixed set of entities resources can be assigned to."`

	// Per resource type, the identifiers the engine manages.
	Resources map[string][]string `json:"resources" pflag:"-,"`
	HealthGatedTypes []string `json:"healthGatedTypes" pflag:",Resource types whose first acquisition requires a healthy flag."`
	ReadinessGate    bool     `json:"readinessGate" pflag:",Require allocatees to be marked ready before receiving resources."`
}

// Retrieves the current config value or default.
func GetEngineConfig() *Config {
	return engineConfigSection.GetConfig().(*Config)
}

func SetEngineConfig(cfg *Config) error {
	return engineConfigSection.SetConfig(cfg)
}
