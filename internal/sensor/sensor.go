// Package sensor defines analysis units (sensors), the descriptors through
// which they declare their interests, and the Optimizer that decides whether
// a sensor is worth running for the current project.
package sensor

import (
	"context"
	"log/slog"

	"github.com/garagon/sensorgate/internal/types"
)

// Sensor is the interface every analysis unit implements.
type Sensor interface {
	// Describe fills d with the sensor's name and interests.
	Describe(d *Descriptor)
	Execute(ctx context.Context, sc *Context) ([]types.Finding, error)
}

// FileIndex is the read view of project files handed to running sensors.
type FileIndex interface {
	FileSystem
	Files(pred FilePredicate) []*types.InputFile
}

// RuleSet is the read view of the active rules handed to running sensors.
type RuleSet interface {
	ActiveRules
	// Active returns the effective severity of rule id and whether it is active.
	Active(id string) (types.Severity, bool)
}

// Configuration is the read view of analysis properties.
type Configuration interface {
	Settings
	Get(key string) (string, bool)
}

// Context carries everything a sensor may read while executing.
type Context struct {
	Files  FileIndex
	Rules  RuleSet
	Config Configuration
	Logger *slog.Logger
}

// Describe returns the descriptor a sensor declares.
func Describe(s Sensor) *Descriptor {
	d := &Descriptor{}
	s.Describe(d)
	return d
}

// Log returns the context logger, or slog.Default() when none is set.
func (c *Context) Log() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
