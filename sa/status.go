// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package sa

import (
	"fmt"

	"github.com/pkg/errors"
)

// Generic MAD status codes (bits 2-4 of the MAD status), cf. table 112
var madStatusCodes = [...]string{
	"success",
	"bad base or class version",
	"method not supported",
	"method / attribute combination not supported",
	"reserved (4)",
	"reserved (5)",
	"reserved (6)",
	"invalid attribute or attribute modifier value",
}

// SA class specific status codes (bits 8-14 of the MAD status), cf. table 185
var saStatusCodes = [...]string{
	"",
	"ERR_NO_RESOURCES",
	"ERR_REQ_INVALID",
	"ERR_NO_RECORDS",
	"ERR_TOO_MANY_RECORDS",
	"ERR_REQ_INVALID_GID",
	"ERR_REQ_INSUFFICIENT_COMPONENTS",
	"ERR_REQ_DENIED",
}

const (
	statusBusy     = 0x0001
	statusRedirect = 0x0002
)

// StatusError is returned when the SA answers with a non-success MAD status.
type StatusError struct {
	AttrID AttrID
	Status uint16
}

// Code returns the generic MAD status code.
func (e *StatusError) Code() int {
	return int(e.Status>>2) & 0x7
}

// SACode returns the SA class specific status code.
func (e *StatusError) SACode() int {
	return int(e.Status>>8) & 0x7f
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s query result returned: %s", e.AttrID, StatusString(e.Status))
}

// StatusString renders a raw MAD status.
func StatusString(status uint16) string {
	var s string

	e := StatusError{Status: status}

	switch {
	case e.SACode() > 0 && e.SACode() < len(saStatusCodes):
		s = saStatusCodes[e.SACode()]
	case e.SACode() > 0:
		s = fmt.Sprintf("SA status %d", e.SACode())
	default:
		s = madStatusCodes[e.Code()]
	}

	if status&statusBusy != 0 {
		s += " (busy)"
	}
	if status&statusRedirect != 0 {
		s += " (redirect)"
	}

	return fmt.Sprintf("%s (status %#04x)", s, status)
}

// QueryError is returned when a query cannot be completed at all, e.g. because the SA did not
// answer before the timeout.
type QueryError struct {
	AttrID AttrID
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s query SA failed: %s", e.AttrID, e.Err)
}

func (e *QueryError) Cause() error {
	return e.Err
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// ExitCode maps a query error to a process exit status: the SA specific status code, else the
// generic MAD status code, else 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	if se, ok := errors.Cause(err).(*StatusError); ok {
		switch {
		case se.SACode() != 0:
			return se.SACode()
		case se.Code() != 0:
			return se.Code()
		}
	}

	return 1
}
