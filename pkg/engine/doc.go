// Package engine is docfix's documentation-build engine.
//
// An App is constructed from a source directory, a configuration directory
// holding conf.toml, an output directory and a doctree cache directory.
// Construction loads the configuration and selects a builder; Build then
// runs two phases:
//
//  1. reading: every source document is read, pre-processed (front matter,
//     tag-conditional blocks, autodoc directives) and stored as an XML
//     doctree in the doctree directory. Up-to-date doctrees are reused
//     unless the environment is fresh.
//  2. writing: the builder turns every doctree into an output file.
//
// Informational output goes to the status writer and diagnostics to the
// warning writer, one Write per line.
package engine
