package buildinfo

// Injected with -ldflags "-X github.com/aidanlsb/wikiroll/internal/buildinfo.Version=..."
// for release binaries. Empty for local builds.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)
