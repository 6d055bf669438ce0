// Package buildinfo holds build-time metadata separate from user configuration.
package buildinfo

import "fmt"

// UnknownValue is reported for metadata that was not injected at build time.
const UnknownValue = "unknown"

// BuildInfo provides access to build-time metadata.
type BuildInfo interface {
	// GetVersion returns the build version string
	GetVersion() string
	// GetBuildDate returns the build date string
	GetBuildDate() string
	// GetCommit returns the source revision
	GetCommit() string
}

// Context contains build-time metadata that is not user-configurable.
// It is injected at startup from linker flags.
type Context struct {
	Version   string
	BuildDate string
	Commit    string
}

// NewContext creates a build context.
func NewContext(version, buildDate, commit string) *Context {
	return &Context{Version: version, BuildDate: buildDate, Commit: commit}
}

func orUnknown(v string) string {
	if v == "" {
		return UnknownValue
	}
	return v
}

// GetVersion implements BuildInfo.GetVersion
func (c *Context) GetVersion() string {
	if c == nil {
		return UnknownValue
	}
	return orUnknown(c.Version)
}

// GetBuildDate implements BuildInfo.GetBuildDate
func (c *Context) GetBuildDate() string {
	if c == nil {
		return UnknownValue
	}
	return orUnknown(c.BuildDate)
}

// GetCommit implements BuildInfo.GetCommit
func (c *Context) GetCommit() string {
	if c == nil {
		return UnknownValue
	}
	return orUnknown(c.Commit)
}

// String formats the metadata for the version command.
func (c *Context) String() string {
	return fmt.Sprintf("birdscout %s (commit %s, built %s)", c.GetVersion(), c.GetCommit(), c.GetBuildDate())
}
