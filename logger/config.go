package logger

import "sync"

// Config defines the logging configuration for the context it is attached to.
type Config struct {
	Main               *systemConfig
	IncludedSubSystems map[string]bool          // If true, log in main log
	SubSystems         map[string]*systemConfig // SubSystem specific loggers

	mutex sync.Mutex
}

// DefaultConfig is used by Log/Info/Warn/... when the context passed to
// them carries no Config of its own.
var DefaultConfig = NewProductionConfig()

// emptyConfig is attached by ContextWithNoLogger to silence logging
// entirely for a context and everything derived from it.
var emptyConfig = NewEmptyConfig()

// NewProductionConfig creates a new config with default production values.
// Logs info level and above, JSON formatted, to stderr.
func NewProductionConfig() *Config {
	result := &Config{
		IncludedSubSystems: make(map[string]bool),
		SubSystems:         make(map[string]*systemConfig),
	}

	main, _ := newSystemConfig(false, false, "")
	result.Main = &main
	return result
}

// NewProductionTextConfig creates a new config with default production
// values. Logs info level and above, tab delimited, to stderr.
func NewProductionTextConfig() *Config {
	result := &Config{
		IncludedSubSystems: make(map[string]bool),
		SubSystems:         make(map[string]*systemConfig),
	}

	main, _ := newSystemConfig(false, true, "")
	result.Main = &main
	return result
}

// NewDevelopmentConfig creates a new config with default development
// values. Logs verbose level and above, JSON formatted, to stderr.
func NewDevelopmentConfig() *Config {
	result := &Config{
		IncludedSubSystems: make(map[string]bool),
		SubSystems:         make(map[string]*systemConfig),
	}

	main, _ := newSystemConfig(true, false, "")
	result.Main = &main
	return result
}

// NewDevelopmentTextConfig creates a new config with default development
// values. Logs verbose level and above, tab delimited, to stderr.
func NewDevelopmentTextConfig() *Config {
	result := &Config{
		IncludedSubSystems: make(map[string]bool),
		SubSystems:         make(map[string]*systemConfig),
	}

	main, _ := newSystemConfig(true, true, "")
	result.Main = &main
	return result
}

// NewEmptyConfig creates a new config that doesn't log.
func NewEmptyConfig() *Config {
	result := &Config{
		IncludedSubSystems: make(map[string]bool),
		SubSystems:         make(map[string]*systemConfig),
	}

	main, _ := newEmptySystemConfig()
	result.Main = &main
	return result
}

// EnableSubSystem enables a subsystem to log to the main log.
func (config *Config) EnableSubSystem(subsystem string) {
	config.IncludedSubSystems[subsystem] = true
}
