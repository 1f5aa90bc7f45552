// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/dswarbrick/saquery/query"
)

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// parseSMKey parses an SM_Key argument. A value which does not start with a hex digit causes the
// key to be read with prompt instead.
func parseSMKey(s string, prompt func() (string, error)) (uint64, error) {
	if s == "" || !isHexDigit(s[0]) {
		v, err := prompt()
		if err != nil {
			return 0, errors.Wrap(err, "cannot read SM_Key")
		}
		s = strings.TrimSpace(v)
	}

	key, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, &query.UsageError{Msg: fmt.Sprintf("invalid SM_Key %q", s)}
	}

	return key, nil
}

// promptSMKey reads an SM_Key from the controlling terminal without echo.
func promptSMKey() (string, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return "", err
	}
	defer tty.Close()

	fmt.Fprint(tty, "SM_Key: ")
	b, err := term.ReadPassword(int(tty.Fd()))
	fmt.Fprintln(tty)

	return string(b), err
}
