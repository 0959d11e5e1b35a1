// Package paths provides the Path utility used by the fixture and the
// engine, and the temporary-directory allocator.
//
// A Path pairs a filesystem (any afero.Fs) with a name, so the same code runs
// against the real disk in isolated tests and against afero.MemMapFs in fast
// ones.
package paths
