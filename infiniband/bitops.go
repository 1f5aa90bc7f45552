// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Low-level bit operations.

package infiniband

import (
	"encoding/binary"
	"math/bits"
	"unsafe"
)

var nativeEndian binary.ByteOrder

// Determine native endianness of system
func init() {
	i := uint32(1)
	b := (*[4]byte)(unsafe.Pointer(&i))
	if b[0] == 1 {
		nativeEndian = binary.LittleEndian
	} else {
		nativeEndian = binary.BigEndian
	}
}

// NativeEndian returns the byte order of the host.
func NativeEndian() binary.ByteOrder {
	return nativeEndian
}

// Ntohll converts a uint64 from network byte order to host byte order
func Ntohll(x uint64) uint64 {
	if nativeEndian != binary.BigEndian {
		return bits.ReverseBytes64(x)
	}
	return x
}
