// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package infiniband holds the pure-Go helpers shared by saquery: byte order conversion, node name
// maps, node description cleaning, CA enumeration and the string tables for InfiniBand enums. The
// libibumad transport lives in the umad subpackage.
package infiniband

import (
	"fmt"
)

// Node types, cf. NodeInfo, table 146
const (
	NodeTypeCA     = 1
	NodeTypeSwitch = 2
	NodeTypeRouter = 3
)

// PortInfo CapabilityMask bits (host byte order)
const (
	PortCapIsSM       = 0x00000002
	PortCapSMDisabled = 0x00000400
)

// Port states, cf. PortInfo, table 155
const (
	LinkDown   = 1
	LinkInit   = 2
	LinkArmed  = 3
	LinkActive = 4
)

// NodeDescSize is the fixed size of the NodeDescription attribute.
const NodeDescSize = 64

var nodeTypes = [...]string{
	0:              "UNKNOWN",
	NodeTypeCA:     "Channel Adapter",
	NodeTypeSwitch: "Switch",
	NodeTypeRouter: "Router",
}

// cf. PortInfo, table 155
var portStates = [...]string{
	0:          "No state change", // Valid only on Set() port state
	LinkDown:   "Down",            // Includes failed links
	LinkInit:   "Initialize",
	LinkArmed:  "Armed",
	LinkActive: "Active",
}

// cf. PortInfo, table 155
var portPhysStates = [...]string{
	"No state change", // Valid only on Set() port state
	"Sleep",
	"Polling",
	"Disabled",
	"PortConfigurationTraining",
	"LinkUp",
	"LinkErrorRecovery",
	"Phy Test",
}

// NodeTypeToStr returns the display name of a node type. Unknown types map to "UNKNOWN".
func NodeTypeToStr(nodeType uint8) string {
	if int(nodeType) < len(nodeTypes) {
		return nodeTypes[nodeType]
	}

	return nodeTypes[0]
}

func PortStateToStr(state uint) string {
	if state < uint(len(portStates)) {
		return portStates[state]
	}

	return fmt.Sprintf("undefined (%d)", state)
}

func PortPhysStateToStr(state uint) string {
	if state < uint(len(portPhysStates)) {
		return portPhysStates[state]
	}

	return fmt.Sprintf("undefined (%d)", state)
}

// CleanNodeDesc converts a NUL-padded node description to a string. At most NodeDescSize-1 bytes
// are used, and any non-printable byte is replaced by a space.
func CleanNodeDesc(desc []byte) string {
	if len(desc) > NodeDescSize-1 {
		desc = desc[:NodeDescSize-1]
	}

	buf := make([]byte, 0, len(desc))

	for _, c := range desc {
		if c == 0 {
			break
		}

		if c < 0x20 || c > 0x7e {
			c = ' '
		}

		buf = append(buf, c)
	}

	return string(buf)
}
