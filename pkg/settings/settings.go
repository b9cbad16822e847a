// Package settings provides build metadata, runtime configuration, and
// context helpers used across the jsondash CLI and library packages.
package settings

import "strings"

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "jsondash"

// VersionInformation is populated at build time via ldflags and holds the
// commit hash, semantic version, and build timestamp of the running binary.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// SourceSettings records where a command's input comes from.
// Exactly one of FromStdin or FromURL is set, or neither for a file Path.
type SourceSettings struct {
	FromStdin bool
	FromURL   bool
	Path      string
}

// VersionInfo holds metadata about the build, including the commit hash,
// build version, and build timestamp.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// Run holds the settings of a single CLI execution once flags and the config
// file are resolved. The CLI stores it in the command context.
type Run struct {
	MinLogLevel int8
	// ConfigFile is the --config-file value; empty means the default location.
	ConfigFile string
	// StorePath is the --store value; empty means the configured store.
	StorePath string
	NoColor   bool
}

// NewCliParams returns the settings of a run with no flags given.
func NewCliParams() *Run {
	return &Run{}
}

// SourceFor classifies a CLI source argument.
func SourceFor(arg string) SourceSettings {
	switch {
	case arg == "" || arg == "-":
		return SourceSettings{FromStdin: true}
	case hasURLScheme(arg):
		return SourceSettings{FromURL: true, Path: arg}
	default:
		return SourceSettings{Path: arg}
	}
}

func hasURLScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
