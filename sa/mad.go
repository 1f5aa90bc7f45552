// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package sa implements the subnet administration (SA) class: MAD encoding and decoding, the SA
// attribute records, and a synchronous query client that runs on top of a MAD transport.
package sa

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// MAD layout, cf. IBA v1.3 section 13.4 (common MAD) and 15.2 (SA MAD)
const (
	MADSize      = 256
	saHdrOffset  = 36
	SADataOffset = 56
	SADataSize   = MADSize - SADataOffset

	BaseVersion    = 1
	MgmtClassSA    = 0x03
	SAClassVersion = 2
	methodRespBit  = 0x80
)

// SA methods
const (
	MethodGet          uint8 = 0x01
	MethodGetResp      uint8 = 0x81
	MethodGetTable     uint8 = 0x12
	MethodGetTableResp uint8 = 0x92
)

// AttrID is an SA attribute ID.
type AttrID uint16

const (
	AttrClassPortInfo    AttrID = 0x0001
	AttrNodeRecord       AttrID = 0x0011
	AttrPortInfoRecord   AttrID = 0x0012
	AttrSLVLTableRecord  AttrID = 0x0013
	AttrLinkRecord       AttrID = 0x0020
	AttrServiceRecord    AttrID = 0x0031
	AttrPKeyTableRecord  AttrID = 0x0033
	AttrPathRecord       AttrID = 0x0035
	AttrVLArbTableRecord AttrID = 0x0036
	AttrMCMemberRecord   AttrID = 0x0038
	AttrInformInfoRecord AttrID = 0x00f3
)

var attrNames = map[AttrID]string{
	AttrClassPortInfo:    "ClassPortInfo",
	AttrNodeRecord:       "NodeRecord",
	AttrPortInfoRecord:   "PortInfoRecord",
	AttrSLVLTableRecord:  "SL2VLTableRecord",
	AttrLinkRecord:       "LinkRecord",
	AttrServiceRecord:    "ServiceRecord",
	AttrPKeyTableRecord:  "PKeyTableRecord",
	AttrPathRecord:       "PathRecord",
	AttrVLArbTableRecord: "VLArbitrationTableRecord",
	AttrMCMemberRecord:   "MCMemberRecord",
	AttrInformInfoRecord: "InformInfoRecord",
}

func (a AttrID) String() string {
	if s, ok := attrNames[a]; ok {
		return s
	}

	return fmt.Sprintf("attribute %#04x", uint16(a))
}

// Header holds the common MAD header plus the SA header fields of an SA MAD. The RMPP header is
// left zeroed on requests; the kernel handles RMPP reassembly of responses.
type Header struct {
	BaseVersion   uint8
	MgmtClass     uint8
	ClassVersion  uint8
	Method        uint8
	Status        uint16
	ClassSpecific uint16
	TID           uint64
	AttrID        AttrID
	AttrMod       uint32
	SMKey         uint64
	AttrOffset    uint16
	CompMask      uint64
}

func (h *Header) marshal(buf []byte) {
	buf[0] = h.BaseVersion
	buf[1] = h.MgmtClass
	buf[2] = h.ClassVersion
	buf[3] = h.Method
	binary.BigEndian.PutUint16(buf[4:], h.Status)
	binary.BigEndian.PutUint16(buf[6:], h.ClassSpecific)
	binary.BigEndian.PutUint64(buf[8:], h.TID)
	binary.BigEndian.PutUint16(buf[16:], uint16(h.AttrID))
	binary.BigEndian.PutUint32(buf[20:], h.AttrMod)
	binary.BigEndian.PutUint64(buf[saHdrOffset:], h.SMKey)
	binary.BigEndian.PutUint16(buf[saHdrOffset+8:], h.AttrOffset)
	binary.BigEndian.PutUint64(buf[saHdrOffset+12:], h.CompMask)
}

func parseHeader(buf []byte) (Header, error) {
	var h Header

	if len(buf) < SADataOffset {
		return h, errors.Errorf("short SA MAD (%d bytes)", len(buf))
	}

	h.BaseVersion = buf[0]
	h.MgmtClass = buf[1]
	h.ClassVersion = buf[2]
	h.Method = buf[3]
	h.Status = binary.BigEndian.Uint16(buf[4:])
	h.ClassSpecific = binary.BigEndian.Uint16(buf[6:])
	h.TID = binary.BigEndian.Uint64(buf[8:])
	h.AttrID = AttrID(binary.BigEndian.Uint16(buf[16:]))
	h.AttrMod = binary.BigEndian.Uint32(buf[20:])
	h.SMKey = binary.BigEndian.Uint64(buf[saHdrOffset:])
	h.AttrOffset = binary.BigEndian.Uint16(buf[saHdrOffset+8:])
	h.CompMask = binary.BigEndian.Uint64(buf[saHdrOffset+12:])

	return h, nil
}

// TransactionID returns the TID of a raw MAD, or 0 if buf is too short to hold one.
func TransactionID(buf []byte) uint64 {
	if len(buf) < 16 {
		return 0
	}

	return binary.BigEndian.Uint64(buf[8:])
}

// AttrOffset returns the SA AttributeOffset (in units of 8 bytes) for a record of the given size.
func AttrOffset(size int) uint16 {
	return uint16((size + 7) / 8)
}

// encodeRequest builds a complete SA request MAD.
func encodeRequest(req *Request, tid uint64) ([]byte, error) {
	if len(req.Attr) > SADataSize {
		return nil, errors.Errorf("%s filter too large (%d bytes)", req.AttrID, len(req.Attr))
	}

	buf := make([]byte, MADSize)

	h := Header{
		BaseVersion:  BaseVersion,
		MgmtClass:    MgmtClassSA,
		ClassVersion: SAClassVersion,
		Method:       req.Method,
		TID:          tid,
		AttrID:       req.AttrID,
		AttrMod:      req.AttrMod,
		SMKey:        req.SMKey,
		AttrOffset:   AttrOffset(wireSize(req.AttrID)),
		CompMask:     req.CompMask,
	}
	h.marshal(buf)
	copy(buf[SADataOffset:], req.Attr)

	return buf, nil
}

// splitRecords returns the raw record payloads of a response MAD. A GetTable response carries
// AttributeOffset-strided records up to the end of the (RMPP reassembled) payload; a Get response
// carries exactly one record.
func splitRecords(h *Header, buf []byte) [][]byte {
	data := buf[SADataOffset:]

	if h.Method != MethodGetTableResp {
		return [][]byte{data}
	}

	stride := int(h.AttrOffset) * 8
	if stride == 0 {
		return nil
	}

	records := make([][]byte, 0, len(data)/stride)
	for off := 0; off+stride <= len(data); off += stride {
		records = append(records, data[off:off+stride])
	}

	return records
}
