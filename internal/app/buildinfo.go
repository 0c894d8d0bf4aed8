package app

// Build information populated via -ldflags at build time.
// Defaults are meaningful for local development and tests.
var (
	// BuildVersion is the semantic version of the built binary.
	BuildVersion = "0.0.0-dev"
	// BuildCommit is the VCS commit SHA associated with the build.
	BuildCommit = "unknown"
)

// VersionString renders the version for logs and report footers.
func VersionString() string {
	if BuildCommit == "" || BuildCommit == "unknown" {
		return BuildVersion
	}
	c := BuildCommit
	if len(c) > 12 {
		c = c[:12]
	}
	return BuildVersion + "+" + c
}
