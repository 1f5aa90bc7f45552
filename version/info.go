// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package version holds the build information of saquery.
package version

import (
	"fmt"
	"runtime"
)

// Build information, set via "-X" ldflags
var (
	Version   = "dev"
	Revision  string
	Branch    string
	BuildUser string
	BuildDate string
)

func BuildContext() string {
	return fmt.Sprintf("(go=%s, user=%s, date=%s)", runtime.Version(), BuildUser, BuildDate)
}

func Info() string {
	return fmt.Sprintf("(version=%s, branch=%s, revision=%s)", Version, Branch, Revision)
}

// Print returns the version banner for program, as shown by --version.
func Print(program string) string {
	return fmt.Sprintf("%s %s\n  build: %s", program, Info(), BuildContext())
}

// UserAgent is the HTTP User-Agent sent to remote services.
func UserAgent() string {
	return "saquery/" + Version
}
