// Package config loads the build configuration of a documentation project.
//
// Configuration is layered with koanf: the embedded defaults, then the
// project's conf.toml from the configuration directory, then the caller's
// overrides. Later layers win.
package config
