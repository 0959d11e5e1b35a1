// Package testutil provides fixtures for exercising the docfix engine end to end.
//
// Key components:
//   - ListOutput: a warning sink that keeps every write as a separate entry
//   - TestApp: an engine App wrapped with directory provisioning and teardown
//   - WithApp / Run: scoped construction with guaranteed teardown
//
// Source trees are provisioned through a Source:
//   - FromExisting(dir) builds dir in place
//   - NewEmpty() allocates a temporary project holding an empty conf.toml
//   - DuplicateOf(dir) copies dir into a temporary directory first
//
// Usage guidelines:
//   - Prefer NewEmpty or DuplicateOf so nothing is written next to test data
//   - Pass fresh Themes/Documenters registries when tests may run in parallel
//   - Directories handed in by the caller are never removed by teardown
package testutil
