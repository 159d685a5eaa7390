package config

// Default configuration values.
const (
	DefaultSourceDir = "src"
	DefaultExtension = ".leap"
	DefaultStateFile = ".leapc/state.db"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "leapc.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "leapc.yml"
