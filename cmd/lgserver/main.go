// Package main is the entry point for the lgserver binary.
package main

import (
	"os"

	"github.com/el-ev/bird-lg-go/cmd/lgserver/cmd"
	"github.com/el-ev/bird-lg-go/internal/buildinfo"
)

// Build-time variables set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	buildinfo.Version = version
	buildinfo.Commit = commit
	buildinfo.Date = date
	cmd.SetVersionInfo(version, commit, date)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
