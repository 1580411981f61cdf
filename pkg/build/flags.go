// SPDX-License-Identifier: MIT
//
// Package build reports which tuner binary is running. Release builds stamp
// the values with the linker:
//
//	go build -ldflags "-X tuner/pkg/build.version=v1.2.0 \
//	    -X tuner/pkg/build.commit=$(git rev-parse --short HEAD) \
//	    -X tuner/pkg/build.date=$(date -u +%Y-%m-%d)"
//
// A plain go build keeps the development defaults.
package build

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DevName is the command name when the binary was not renamed at link time.
	DevName = "tuner"
	// DevVersion marks a binary built without ldflags.
	DevVersion = "dev"

	unknown = "unknown"
)

// ErrUnstamped reports that some linker values are missing.
var ErrUnstamped = errors.New("build info not stamped")

// Info describes the running binary.
type Info struct {
	Name    string
	Version string
	Commit  string
	Date    string
}

// Set with -ldflags -X.
var (
	name    string
	version string
	commit  string
	date    string
)

var current = devInfo()

func devInfo() Info {
	return Info{Name: DevName, Version: DevVersion, Commit: unknown, Date: unknown}
}

// Initialize applies the linker-stamped values over the development
// defaults. Values that are stamped are applied even when others are
// missing; the missing ones are listed in the returned ErrUnstamped.
func Initialize() error {
	info := devInfo()
	var missing []string
	for _, v := range []struct {
		flag  string
		value string
		dst   *string
	}{
		{"name", name, &info.Name},
		{"version", version, &info.Version},
		{"commit", commit, &info.Commit},
		{"date", date, &info.Date},
	} {
		if v.value == "" {
			missing = append(missing, v.flag)
			continue
		}
		*v.dst = v.value
	}
	current = info

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrUnstamped, strings.Join(missing, ", "))
	}
	return nil
}

// Current returns the build info of the running binary.
func Current() Info {
	return current
}

// IsDev reports whether the binary carries no release version.
func (i Info) IsDev() bool {
	return i.Version == DevVersion
}

// String is the text printed by --version.
func (i Info) String() string {
	if i.Commit == unknown {
		return i.Version
	}
	if i.Date == unknown {
		return fmt.Sprintf("%s (commit %s)", i.Version, i.Commit)
	}
	return fmt.Sprintf("%s (commit %s, built %s)", i.Version, i.Commit, i.Date)
}
