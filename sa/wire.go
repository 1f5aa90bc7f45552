// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package sa

import (
	"encoding/binary"
)

// wire is a fixed-size big-endian attribute buffer. Reads past the data received are padded with
// zeroes, so a short record decodes with its missing fields zeroed.
type wire []byte

func newWire(b []byte, size int) wire {
	if len(b) >= size {
		return wire(b[:size])
	}

	w := make(wire, size)
	copy(w, b)

	return w
}

func (w wire) u8(off int) uint8 {
	return w[off]
}

func (w wire) u16(off int) uint16 {
	return binary.BigEndian.Uint16(w[off:])
}

func (w wire) u32(off int) uint32 {
	return binary.BigEndian.Uint32(w[off:])
}

func (w wire) u64(off int) uint64 {
	return binary.BigEndian.Uint64(w[off:])
}

func (w wire) gid(off int) (g GID) {
	copy(g[:], w[off:off+len(g)])
	return
}

func (w wire) put16(off int, v uint16) {
	binary.BigEndian.PutUint16(w[off:], v)
}

func (w wire) put32(off int, v uint32) {
	binary.BigEndian.PutUint32(w[off:], v)
}

func (w wire) putGID(off int, g GID) {
	copy(w[off:], g[:])
}
