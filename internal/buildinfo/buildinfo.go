// Package buildinfo provides build metadata for hashwriter binaries.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Version is the hashwriter version and is intended to be injected at build time.
	Version string
	// Commit is the source control revision and is intended to be injected at build time.
	Commit string
	// Date is the build timestamp and is intended to be injected at build time.
	Date string
)

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Info contains normalized build metadata.
type Info struct {
	Version string
	Commit  string
	Date    string
	Go      string
	OS      string
	Arch    string
}

// Get returns build metadata. Values not injected with -ldflags fall back to
// the module version and VCS stamps recorded by the Go toolchain.
func Get() Info {
	version, commit, date := Version, Commit, Date
	if bi, ok := readBuildInfo(); ok {
		if version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if commit == "" {
					commit = s.Value
				}
			case "vcs.time":
				if date == "" {
					date = s.Value
				}
			}
		}
	}

	return Info{
		Version: orDefault(version, "dev"),
		Commit:  orDefault(commit, "unknown"),
		Date:    orDefault(date, "unknown"),
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// String formats build metadata for CLI output.
func (i Info) String() string {
	return fmt.Sprintf("hashwriter %s\ncommit: %s\nbuilt:  %s\ngo:     %s\nos/arch:%s/%s", i.Version, i.Commit, i.Date, i.Go, i.OS, i.Arch)
}
