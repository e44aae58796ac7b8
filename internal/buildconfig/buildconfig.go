package buildconfig

// Set at link time with -ldflags "-X ...=v1.2.3"; defaults cover local runs.
var (
	version = "dev"
	commit  = "unknown"
)

// Version reports the release version stamped into the binary.
func Version() string {
	return version
}

// Commit reports the git revision the binary was built from.
func Commit() string {
	return commit
}

// VersionInfo bundles the build identifiers for the health endpoint.
func VersionInfo() map[string]string {
	return map[string]string{
		"version": version,
		"commit":  commit,
	}
}
