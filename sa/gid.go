// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package sa

import (
	"encoding/binary"
	"fmt"
	"net"
	"strings"

	"github.com/pkg/errors"
)

// GID is a 128-bit InfiniBand global identifier, stored in wire (big-endian) order.
type GID [16]byte

// Prefix returns the subnet prefix (upper 64 bits) of the GID.
func (g GID) Prefix() uint64 {
	return binary.BigEndian.Uint64(g[:8])
}

// InterfaceID returns the interface ID (lower 64 bits) of the GID.
func (g GID) InterfaceID() uint64 {
	return binary.BigEndian.Uint64(g[8:])
}

// String returns the GID in IPv6 notation.
func (g GID) String() string {
	return net.IP(g[:]).String()
}

// Hex returns the GID as 32 upper case hex digits.
func (g GID) Hex() string {
	return fmt.Sprintf("%X", g[:])
}

// ParseGID parses a GID written as an IPv6 address literal, e.g. fe80::2:c903:a:1b2c.
func ParseGID(s string) (GID, error) {
	var g GID

	ip := net.ParseIP(s)
	if ip == nil || !strings.Contains(s, ":") {
		return g, errors.Errorf("invalid gid: %s", s)
	}

	copy(g[:], ip.To16())

	return g, nil
}
