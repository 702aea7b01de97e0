// Package buildinfo holds version metadata set at link time via ldflags,
// shared by both binaries' version subcommands.
package buildinfo

// Version, Commit, and Date are overridden at build time, e.g.:
//
//	go build -ldflags "-X github.com/el-ev/bird-lg-go/internal/buildinfo.Version=1.2.3"
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
