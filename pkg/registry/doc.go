// Package registry provides a generic, thread-safe registry keyed by name.
//
// It backs the engine's builder table and the two process-wide caches that
// fixtures must reset between runs: the theme registry and the
// auto-documentation registry.
package registry
