package sensor

import (
	"strings"

	"github.com/garagon/sensorgate/internal/types"
)

// Descriptor declares what makes a sensor relevant to an analysis.
// Empty collections and the empty Type mean "no restriction".
type Descriptor struct {
	Name             string
	Languages        []string
	Type             types.FileType
	RuleRepositories []string
	Properties       []string
}

// Named sets the display name used in diagnostics.
func (d *Descriptor) Named(name string) *Descriptor {
	d.Name = name
	return d
}

// OnlyOnLanguages restricts the sensor to projects containing files of at
// least one of the given languages.
func (d *Descriptor) OnlyOnLanguages(langs ...string) *Descriptor {
	for _, l := range langs {
		d.Languages = appendUnique(d.Languages, strings.ToLower(strings.TrimSpace(l)))
	}
	return d
}

// OnlyOnFileType restricts the sensor to projects containing files of the given type.
func (d *Descriptor) OnlyOnFileType(t types.FileType) *Descriptor {
	d.Type = t
	return d
}

// CreateIssuesForRuleRepositories ties the sensor to rule repositories. The
// sensor is relevant as soon as one of them has an active rule.
func (d *Descriptor) CreateIssuesForRuleRepositories(repos ...string) *Descriptor {
	for _, r := range repos {
		d.RuleRepositories = appendUnique(d.RuleRepositories, strings.TrimSpace(r))
	}
	return d
}

// RequireProperties lists configuration keys that must all be set.
func (d *Descriptor) RequireProperties(keys ...string) *Descriptor {
	for _, k := range keys {
		d.Properties = appendUnique(d.Properties, strings.TrimSpace(k))
	}
	return d
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
