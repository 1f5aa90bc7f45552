// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package query

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/dswarbrick/saquery/dump"
	"github.com/dswarbrick/saquery/sa"
)

// LIDFromName returns the LID of the first node whose description equals name. It returns 0 if no
// node matches.
func (d *Dispatcher) LIDFromName(name string) (uint16, error) {
	res, err := d.client.GetAllRecords(sa.AttrNodeRecord, false)
	if err != nil {
		return 0, err
	}

	for _, n := range res.NodeRecords() {
		if n.DescMatches(name) {
			return n.LID, nil
		}
	}

	return 0, nil
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// GetLID resolves a node name or decimal LID. Names must begin with an ASCII letter. A result of 0
// means the LID could not be found, and is logged.
func (d *Dispatcher) GetLID(name string) (uint16, error) {
	var lid uint16

	if name != "" && isAlpha(name[0]) {
		var err error
		if lid, err = d.LIDFromName(name); err != nil {
			return 0, err
		}
	} else {
		lid = uint16(dump.Atoi(name))
	}

	if lid == 0 {
		log.Errorf("Failed to find lid for %q", name)
	}

	return lid, nil
}

// parsePort parses the numeric prefix of a port or block number in any base, returning -1 if s
// does not start with a number.
func parsePort(s string) int {
	v, ok := dump.ParseNumber(s, 0)
	if !ok {
		return -1
	}

	return int(v)
}

// ParseLIDAndPorts parses a "lid[/port1[/port2]]" filter. Ports which are absent or invalid are
// returned as -1.
func (d *Dispatcher) ParseLIDAndPorts(s string) (lid int, port1 int, port2 int, err error) {
	port1, port2 = -1, -1

	parts := strings.SplitN(s, "/", 3)

	l, err := d.GetLID(parts[0])
	if err != nil {
		return 0, -1, -1, err
	}
	lid = int(l)

	if len(parts) > 1 {
		port1 = parsePort(parts[1])
	}
	if len(parts) > 2 {
		port2 = parsePort(parts[2])
	}

	return lid, port1, port2, nil
}
