// Package plugin provides named instantiation of renderable objects from
// configuration bundles. Object packages register constructors in their
// init functions; consumers create instances by plugin name.
package plugin

import (
	"github.com/lumen-render/lumen/pkg/core"
)

// Properties is a typed configuration bundle passed to plugin constructors
type Properties struct {
	name   string
	values map[string]interface{}
}

// NewProperties creates an empty configuration bundle for the named plugin
func NewProperties(name string) Properties {
	return Properties{name: name, values: make(map[string]interface{})}
}

// PluginName returns the plugin name this bundle was created for
func (p Properties) PluginName() string {
	return p.name
}

// Set stores a configuration value
func (p Properties) Set(key string, value interface{}) Properties {
	p.values[key] = value
	return p
}

// Has reports whether a key was set
func (p Properties) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Float returns the float64 value for key, or def when absent
func (p Properties) Float(key string, def float64) float64 {
	if v, ok := p.values[key].(float64); ok {
		return v
	}
	return def
}

// Int returns the int value for key, or def when absent
func (p Properties) Int(key string, def int) int {
	if v, ok := p.values[key].(int); ok {
		return v
	}
	return def
}

// Bool returns the bool value for key, or def when absent
func (p Properties) Bool(key string, def bool) bool {
	if v, ok := p.values[key].(bool); ok {
		return v
	}
	return def
}

// Vec3 returns the vector value for key, or def when absent
func (p Properties) Vec3(key string, def core.Vec3) core.Vec3 {
	if v, ok := p.values[key].(core.Vec3); ok {
		return v
	}
	return def
}
