// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package sa

// Component mask bits, cf. IBA v1.3 section 15.2.5
const (
	// PathRecord
	PRCompMaskDGID uint64 = 1 << 2
	PRCompMaskSGID uint64 = 1 << 3
	PRCompMaskDLID uint64 = 1 << 4
	PRCompMaskSLID uint64 = 1 << 5

	// PortInfoRecord
	PIRCompMaskCapMask uint64 = 1 << 7

	// LinkRecord
	LRCompMaskFromLID  uint64 = 1 << 0
	LRCompMaskFromPort uint64 = 1 << 1
	LRCompMaskToPort   uint64 = 1 << 2
	LRCompMaskToLID    uint64 = 1 << 3

	// SLtoVLMappingTableRecord
	SLVLCompMaskLID     uint64 = 1 << 0
	SLVLCompMaskInPort  uint64 = 1 << 1
	SLVLCompMaskOutPort uint64 = 1 << 2

	// VLArbitrationTableRecord
	VLACompMaskLID     uint64 = 1 << 0
	VLACompMaskOutPort uint64 = 1 << 1
	VLACompMaskBlock   uint64 = 1 << 2

	// P_KeyTableRecord
	PKeyCompMaskLID   uint64 = 1 << 0
	PKeyCompMaskBlock uint64 = 1 << 1
	PKeyCompMaskPort  uint64 = 1 << 2
)
