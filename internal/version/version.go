// Package version reports docsection build metadata. Release builds set the
// variables with -ldflags "-X"; otherwise the VCS stamp embedded by the Go
// toolchain is used when present.
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)

// String formats the metadata for the named binary, e.g.
// "sectionize v1.2.0 (commit 1a2b3c4, built 2026-01-02)".
func String(binary string) string {
	commit, built := Commit, BuildDate
	if commit == "" || built == "" {
		vcsCommit, vcsTime := vcsStamp()
		if commit == "" {
			commit = vcsCommit
		}
		if built == "" {
			built = vcsTime
		}
	}
	return fmt.Sprintf("%s %s (commit %s, built %s)", binary, Version, orUnknown(commit), orUnknown(built))
}

func vcsStamp() (revision, time string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
			if len(revision) > 7 {
				revision = revision[:7]
			}
		case "vcs.time":
			time = s.Value
		}
	}
	return revision, time
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
