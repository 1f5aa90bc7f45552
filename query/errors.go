// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package query

import (
	"github.com/pkg/errors"
)

// ErrUnknown is returned when a path query cannot be issued because an endpoint did not resolve.
var ErrUnknown = errors.New("unknown error")

// UsageError reports missing or malformed command line arguments.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

// ResolutionError reports a name, LID or GID argument which could not be resolved.
type ResolutionError struct {
	Msg string
}

func (e *ResolutionError) Error() string {
	return e.Msg
}

// IsUsage reports whether err is a usage or resolution error, both of which exit with status 255.
func IsUsage(err error) bool {
	switch errors.Cause(err).(type) {
	case *UsageError, *ResolutionError:
		return true
	}

	return false
}
