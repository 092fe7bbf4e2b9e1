// Package build holds build-time version information injected via ldflags.
//
// To inject values at build time:
//
//	go build -ldflags "-X github.com/haivivi/bipbuf/cmd/bipbuf/internal/build.Version=v1.0.0 \
//	  -X github.com/haivivi/bipbuf/cmd/bipbuf/internal/build.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/haivivi/bipbuf/cmd/bipbuf/internal/build.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package build

import (
	"fmt"
	"runtime"
)

// These variables are set at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info is the structured form of the build information.
type Info struct {
	Version string `yaml:"version" json:"version"`
	Commit  string `yaml:"commit" json:"commit"`
	Date    string `yaml:"date" json:"date"`
	Go      string `yaml:"go" json:"go"`
	OS      string `yaml:"os" json:"os"`
	Arch    string `yaml:"arch" json:"arch"`
}

// Get returns the build information of the running binary.
func Get() Info {
	return Info{
		Version: Version,
		Commit:  Commit,
		Date:    Date,
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
}

// String returns a formatted version string.
func String() string {
	return fmt.Sprintf("bipbuf %s (%s) built %s %s/%s",
		Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}
