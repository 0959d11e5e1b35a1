package main

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort    = "Run documentation builds inside disposable fixtures"
	MsgBuildShort   = "Build a documentation project inside a fixture"
	MsgVersionShort = "Print version information"

	// Flags
	MsgFlagVerbose        = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagBuilder        = "Builder to use (html, text, xml)"
	MsgFlagDefine         = "Override a configuration value (key=value, repeatable)"
	MsgFlagTag            = "Define a build tag (repeatable)"
	MsgFlagFreshEnv       = "Ignore cached doctrees"
	MsgFlagWarningIsError = "Turn warnings into errors"
	MsgFlagNew            = "Build a new empty project in a temporary directory"
	MsgFlagCopy           = "Copy the project to a temporary directory before building"
	MsgFlagCleanEnv       = "Remove the doctree cache on teardown"
	MsgFlagKeep           = "Skip teardown so the output can be inspected"
	MsgFlagKeepOnError    = "Skip teardown when the build fails"

	// Output
	MsgStatusHeader   = "Status"
	MsgWarningsHeader = "Warnings (%d)"
	MsgOutputHeader   = "Output in %s"
	MsgOutputItem     = "  %s"
	MsgKept           = "Fixture kept at %s"
	MsgBuildFailed    = "Build failed"

	// Errors
	MsgErrNewWithSource = "--new cannot be combined with a source directory"
	MsgErrNoSource      = "a source directory is required unless --new is given"
	MsgErrNewWithCopy   = "--new cannot be combined with --copy"
	MsgErrBadDefine     = "invalid -D value %q, expected key=value"
)

// MsgRootLong is the long description of the root command
const MsgRootLong = `docfix builds documentation projects inside disposable fixtures.

A fixture provisions the source tree (in place, copied to a temporary
directory, or created empty), derives the output and doctree directories,
runs the build and removes everything it created afterwards.`
