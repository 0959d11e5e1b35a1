package version

import "fmt"

// Build information set by ldflags
var (
	Version = "dev"     // -X github.com/arthur-debert/docfix/internal/version.Version={{.Version}}
	Commit  = "unknown" // -X github.com/arthur-debert/docfix/internal/version.Commit={{.Commit}}
	Date    = "unknown" // -X github.com/arthur-debert/docfix/internal/version.Date={{.Date}}
)

// String is the one-line build description printed by the version command
func String() string {
	return fmt.Sprintf("docfix %s (commit %s, built %s)", Version, Commit, Date)
}
