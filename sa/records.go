// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// SA attribute records. All multi-byte fields are held in host byte order; conversion from wire
// order happens in UnmarshalBinary. Layouts are defined in IBA v1.3 chapter 15.2.5.

package sa

import (
	"encoding"
)

// Record is a decoded SA attribute record.
type Record interface {
	AttrID() AttrID
	encoding.BinaryUnmarshaler
}

// Wire sizes of the SA attributes, in bytes
const (
	ClassPortInfoSize    = 72
	NodeRecordSize       = 108
	PortInfoRecordSize   = 68
	SLVLTableRecordSize  = 16
	LinkRecordSize       = 8
	ServiceRecordSize    = 176
	PKeyTableRecordSize  = 72
	PathRecordSize       = 64
	VLArbTableRecordSize = 72
	MCMemberRecordSize   = 52
	InformInfoRecordSize = 80

	NodeDescSize    = 64
	ServiceNameSize = 64
	ServiceKeySize  = 16
)

var recordTypes = map[AttrID]struct {
	size int
	new  func() Record
}{
	AttrClassPortInfo:    {ClassPortInfoSize, func() Record { return new(ClassPortInfo) }},
	AttrNodeRecord:       {NodeRecordSize, func() Record { return new(NodeRecord) }},
	AttrPortInfoRecord:   {PortInfoRecordSize, func() Record { return new(PortInfoRecord) }},
	AttrSLVLTableRecord:  {SLVLTableRecordSize, func() Record { return new(SLVLTableRecord) }},
	AttrLinkRecord:       {LinkRecordSize, func() Record { return new(LinkRecord) }},
	AttrServiceRecord:    {ServiceRecordSize, func() Record { return new(ServiceRecord) }},
	AttrPKeyTableRecord:  {PKeyTableRecordSize, func() Record { return new(PKeyTableRecord) }},
	AttrPathRecord:       {PathRecordSize, func() Record { return new(PathRecord) }},
	AttrVLArbTableRecord: {VLArbTableRecordSize, func() Record { return new(VLArbTableRecord) }},
	AttrMCMemberRecord:   {MCMemberRecordSize, func() Record { return new(MCMemberRecord) }},
	AttrInformInfoRecord: {InformInfoRecordSize, func() Record { return new(InformInfoRecord) }},
}

func wireSize(a AttrID) int {
	return recordTypes[a].size
}

// DecodeRecord decodes one raw record of the given attribute.
func DecodeRecord(a AttrID, b []byte) (Record, bool) {
	t, ok := recordTypes[a]
	if !ok {
		return nil, false
	}

	rec := t.new()
	rec.UnmarshalBinary(b)

	return rec, true
}

// ClassPortInfo, cf. table 114
type ClassPortInfo struct {
	BaseVersion      uint8
	ClassVersion     uint8
	CapMask          uint16
	CapMask2RespTime uint32
	RedirGID         GID
	RedirTCSLFL      uint32
	RedirLID         uint16
	RedirPKey        uint16
	RedirQP          uint32
	RedirQKey        uint32
	TrapGID          GID
	TrapTCSLFL       uint32
	TrapLID          uint16
	TrapPKey         uint16
	TrapHopQP        uint32
	TrapQKey         uint32
}

func (*ClassPortInfo) AttrID() AttrID { return AttrClassPortInfo }

// CapMask2 returns the 27-bit CapabilityMask2.
func (c *ClassPortInfo) CapMask2() uint32 {
	return c.CapMask2RespTime >> 5
}

// RespTimeValue returns the 5-bit response time value.
func (c *ClassPortInfo) RespTimeValue() uint8 {
	return uint8(c.CapMask2RespTime & 0x1f)
}

func (c *ClassPortInfo) UnmarshalBinary(b []byte) error {
	w := newWire(b, ClassPortInfoSize)

	c.BaseVersion = w.u8(0)
	c.ClassVersion = w.u8(1)
	c.CapMask = w.u16(2)
	c.CapMask2RespTime = w.u32(4)
	c.RedirGID = w.gid(8)
	c.RedirTCSLFL = w.u32(24)
	c.RedirLID = w.u16(28)
	c.RedirPKey = w.u16(30)
	c.RedirQP = w.u32(32)
	c.RedirQKey = w.u32(36)
	c.TrapGID = w.gid(40)
	c.TrapTCSLFL = w.u32(56)
	c.TrapLID = w.u16(60)
	c.TrapPKey = w.u16(62)
	c.TrapHopQP = w.u32(64)
	c.TrapQKey = w.u32(68)

	return nil
}

// NodeInfo, cf. table 146
type NodeInfo struct {
	BaseVersion  uint8
	ClassVersion uint8
	NodeType     uint8
	NumPorts     uint8
	SysGUID      uint64
	NodeGUID     uint64
	PortGUID     uint64
	PartitionCap uint16
	DeviceID     uint16
	Revision     uint32
	LocalPortNum uint8
	VendorID     uint32
}

// NodeRecord, cf. table 187
type NodeRecord struct {
	LID      uint16
	Reserved uint16
	NodeInfo
	NodeDesc [NodeDescSize]byte
}

func (*NodeRecord) AttrID() AttrID { return AttrNodeRecord }

func (n *NodeRecord) UnmarshalBinary(b []byte) error {
	w := newWire(b, NodeRecordSize)

	n.LID = w.u16(0)
	n.Reserved = w.u16(2)
	n.BaseVersion = w.u8(4)
	n.ClassVersion = w.u8(5)
	n.NodeType = w.u8(6)
	n.NumPorts = w.u8(7)
	n.SysGUID = w.u64(8)
	n.NodeGUID = w.u64(16)
	n.PortGUID = w.u64(24)
	n.PartitionCap = w.u16(32)
	n.DeviceID = w.u16(34)
	n.Revision = w.u32(36)
	n.LocalPortNum = w.u8(40)
	n.VendorID = w.u32(40) & 0x00ffffff
	copy(n.NodeDesc[:], w[44:])

	return nil
}

// DescMatches reports whether name equals the node description, comparing at most NodeDescSize
// bytes, with the description treated as NUL-padded.
func (n *NodeRecord) DescMatches(name string) bool {
	for i := 0; i < NodeDescSize; i++ {
		var c byte
		if i < len(name) {
			c = name[i]
		}

		if c != n.NodeDesc[i] {
			return false
		}

		if c == 0 {
			return true
		}
	}

	return true
}

// PortInfo holds the leading components of PortInfo (table 155) that saquery displays.
type PortInfo struct {
	MKey               uint64
	SubnetPrefix       uint64
	BaseLID            uint16
	MasterSMBaseLID    uint16
	CapabilityMask     uint32
	LocalPortNum       uint8
	LinkWidthSupported uint8
	LinkWidthActive    uint8
	PortState          uint8
	PortPhysState      uint8
	LinkSpeedActive    uint8
}

// PortInfoRecord, cf. table 188
type PortInfoRecord struct {
	LID      uint16
	PortNum  uint8
	Options  uint8
	PortInfo PortInfo
}

func (*PortInfoRecord) AttrID() AttrID { return AttrPortInfoRecord }

func (p *PortInfoRecord) UnmarshalBinary(b []byte) error {
	w := newWire(b, PortInfoRecordSize)

	p.LID = w.u16(0)
	p.PortNum = w.u8(2)
	p.Options = w.u8(3)

	pi := &p.PortInfo
	pi.MKey = w.u64(4)
	pi.SubnetPrefix = w.u64(12)
	pi.BaseLID = w.u16(20)
	pi.MasterSMBaseLID = w.u16(22)
	pi.CapabilityMask = w.u32(24)
	pi.LocalPortNum = w.u8(32)
	pi.LinkWidthSupported = w.u8(34)
	pi.LinkWidthActive = w.u8(35)
	pi.PortState = w.u8(36) & 0x0f
	pi.PortPhysState = w.u8(37) >> 4
	pi.LinkSpeedActive = w.u8(39) >> 4

	return nil
}

func (p *PortInfoRecord) MarshalBinary() ([]byte, error) {
	w := make(wire, PortInfoRecordSize)

	w.put16(0, p.LID)
	w[2] = p.PortNum
	w.put16(20, p.PortInfo.BaseLID)
	w.put32(24, p.PortInfo.CapabilityMask)

	return w, nil
}

// SLVLTableRecord, cf. table 189
type SLVLTableRecord struct {
	LID       uint16
	InPort    uint8
	OutPort   uint8
	RawVLBySL [8]uint8
}

func (*SLVLTableRecord) AttrID() AttrID { return AttrSLVLTableRecord }

// VL returns the VL to which sl (0-15) is mapped.
func (s *SLVLTableRecord) VL(sl int) uint8 {
	b := s.RawVLBySL[sl/2]
	if sl%2 == 0 {
		return b >> 4
	}

	return b & 0x0f
}

func (s *SLVLTableRecord) UnmarshalBinary(b []byte) error {
	w := newWire(b, SLVLTableRecordSize)

	s.LID = w.u16(0)
	s.InPort = w.u8(2)
	s.OutPort = w.u8(3)
	copy(s.RawVLBySL[:], w[8:])

	return nil
}

func (s *SLVLTableRecord) MarshalBinary() ([]byte, error) {
	w := make(wire, SLVLTableRecordSize)

	w.put16(0, s.LID)
	w[2] = s.InPort
	w[3] = s.OutPort

	return w, nil
}

// LinkRecord, cf. table 196
type LinkRecord struct {
	FromLID  uint16
	FromPort uint8
	ToPort   uint8
	ToLID    uint16
}

func (*LinkRecord) AttrID() AttrID { return AttrLinkRecord }

func (l *LinkRecord) UnmarshalBinary(b []byte) error {
	w := newWire(b, LinkRecordSize)

	l.FromLID = w.u16(0)
	l.FromPort = w.u8(2)
	l.ToPort = w.u8(3)
	l.ToLID = w.u16(4)

	return nil
}

func (l *LinkRecord) MarshalBinary() ([]byte, error) {
	w := make(wire, LinkRecordSize)

	w.put16(0, l.FromLID)
	w[2] = l.FromPort
	w[3] = l.ToPort
	w.put16(4, l.ToLID)

	return w, nil
}

// ServiceRecord, cf. table 197
type ServiceRecord struct {
	ServiceID     uint64
	ServiceGID    GID
	ServicePKey   uint16
	ServiceLease  uint32
	ServiceKey    [ServiceKeySize]byte
	ServiceName   [ServiceNameSize]byte
	ServiceData8  [16]uint8
	ServiceData16 [8]uint16
	ServiceData32 [4]uint32
	ServiceData64 [2]uint64
}

func (*ServiceRecord) AttrID() AttrID { return AttrServiceRecord }

func (s *ServiceRecord) UnmarshalBinary(b []byte) error {
	w := newWire(b, ServiceRecordSize)

	s.ServiceID = w.u64(0)
	s.ServiceGID = w.gid(8)
	s.ServicePKey = w.u16(24)
	s.ServiceLease = w.u32(28)
	copy(s.ServiceKey[:], w[32:48])
	copy(s.ServiceName[:], w[48:112])
	copy(s.ServiceData8[:], w[112:128])

	for i := range s.ServiceData16 {
		s.ServiceData16[i] = w.u16(128 + 2*i)
	}
	for i := range s.ServiceData32 {
		s.ServiceData32[i] = w.u32(144 + 4*i)
	}
	for i := range s.ServiceData64 {
		s.ServiceData64[i] = w.u64(160 + 8*i)
	}

	return nil
}

// PKeyTableRecord, cf. table 192
type PKeyTableRecord struct {
	LID      uint16
	BlockNum uint16
	PortNum  uint8
	PKeys    [32]uint16
}

func (*PKeyTableRecord) AttrID() AttrID { return AttrPKeyTableRecord }

func (p *PKeyTableRecord) UnmarshalBinary(b []byte) error {
	w := newWire(b, PKeyTableRecordSize)

	p.LID = w.u16(0)
	p.BlockNum = w.u16(2)
	p.PortNum = w.u8(4)

	for i := range p.PKeys {
		p.PKeys[i] = w.u16(8 + 2*i)
	}

	return nil
}

func (p *PKeyTableRecord) MarshalBinary() ([]byte, error) {
	w := make(wire, PKeyTableRecordSize)

	w.put16(0, p.LID)
	w.put16(2, p.BlockNum)
	w[4] = p.PortNum

	return w, nil
}

// PathRecord, cf. table 209
type PathRecord struct {
	ServiceID  uint64
	DGID       GID
	SGID       GID
	DLID       uint16
	SLID       uint16
	HopFlowRaw uint32
	TClass     uint8
	NumPath    uint8
	PKey       uint16
	QoSClassSL uint16
	MTU        uint8
	Rate       uint8
	PktLife    uint8
	Preference uint8
	Reserved   [6]byte
}

func (*PathRecord) AttrID() AttrID { return AttrPathRecord }

// QoSClass returns the 12-bit QoS class.
func (p *PathRecord) QoSClass() uint16 {
	return p.QoSClassSL >> 4
}

// SL returns the 4-bit service level.
func (p *PathRecord) SL() uint8 {
	return uint8(p.QoSClassSL & 0x0f)
}

func (p *PathRecord) UnmarshalBinary(b []byte) error {
	w := newWire(b, PathRecordSize)

	p.ServiceID = w.u64(0)
	p.DGID = w.gid(8)
	p.SGID = w.gid(24)
	p.DLID = w.u16(40)
	p.SLID = w.u16(42)
	p.HopFlowRaw = w.u32(44)
	p.TClass = w.u8(48)
	p.NumPath = w.u8(49)
	p.PKey = w.u16(50)
	p.QoSClassSL = w.u16(52)
	p.MTU = w.u8(54)
	p.Rate = w.u8(55)
	p.PktLife = w.u8(56)
	p.Preference = w.u8(57)
	copy(p.Reserved[:], w[58:64])

	return nil
}

func (p *PathRecord) MarshalBinary() ([]byte, error) {
	w := make(wire, PathRecordSize)

	w.putGID(8, p.DGID)
	w.putGID(24, p.SGID)
	w.put16(40, p.DLID)
	w.put16(42, p.SLID)
	w[49] = p.NumPath

	return w, nil
}

// VLArbElement is one VLArbitrationTable entry.
type VLArbElement struct {
	VL     uint8
	Weight uint8
}

// VLArbTableRecord, cf. table 190
type VLArbTableRecord struct {
	LID      uint16
	PortNum  uint8
	BlockNum uint8
	Entries  [32]VLArbElement
}

func (*VLArbTableRecord) AttrID() AttrID { return AttrVLArbTableRecord }

func (v *VLArbTableRecord) UnmarshalBinary(b []byte) error {
	w := newWire(b, VLArbTableRecordSize)

	v.LID = w.u16(0)
	v.PortNum = w.u8(2)
	v.BlockNum = w.u8(3)

	for i := range v.Entries {
		v.Entries[i] = VLArbElement{VL: w.u8(8 + 2*i), Weight: w.u8(9 + 2*i)}
	}

	return nil
}

func (v *VLArbTableRecord) MarshalBinary() ([]byte, error) {
	w := make(wire, VLArbTableRecordSize)

	w.put16(0, v.LID)
	w[2] = v.PortNum
	w[3] = v.BlockNum

	return w, nil
}

// MCMemberRecord, cf. table 200
type MCMemberRecord struct {
	MGID       GID
	PortGID    GID
	QKey       uint32
	MLID       uint16
	MTU        uint8
	TClass     uint8
	PKey       uint16
	Rate       uint8
	PktLife    uint8
	SLFlowHop  uint32
	ScopeState uint8
	ProxyJoin  uint8
}

func (*MCMemberRecord) AttrID() AttrID { return AttrMCMemberRecord }

// SL returns the 4-bit service level.
func (m *MCMemberRecord) SL() uint8 {
	return uint8(m.SLFlowHop >> 28)
}

func (m *MCMemberRecord) UnmarshalBinary(b []byte) error {
	w := newWire(b, MCMemberRecordSize)

	m.MGID = w.gid(0)
	m.PortGID = w.gid(16)
	m.QKey = w.u32(32)
	m.MLID = w.u16(36)
	m.MTU = w.u8(38)
	m.TClass = w.u8(39)
	m.PKey = w.u16(40)
	m.Rate = w.u8(42)
	m.PktLife = w.u8(43)
	m.SLFlowHop = w.u32(44)
	m.ScopeState = w.u8(48)
	m.ProxyJoin = w.u8(49) >> 7

	return nil
}

// InformInfo, cf. table 174. TrapNumDevID holds TrapNumber for generic subscriptions and DeviceID
// for vendor-specific ones; ProducerType likewise holds the node type or the vendor ID.
type InformInfo struct {
	GID           GID
	LIDRangeBegin uint16
	LIDRangeEnd   uint16
	IsGeneric     uint8
	Subscribe     uint8
	TrapType      uint16
	TrapNumDevID  uint16
	QPNRespTime   uint32
	ProducerType  uint32
}

// QPN returns the 24-bit queue pair number.
func (i *InformInfo) QPN() uint32 {
	return (i.QPNRespTime >> 8) & 0x00ffffff
}

// RespTimeValue returns the 5-bit response time value.
func (i *InformInfo) RespTimeValue() uint8 {
	return uint8(i.QPNRespTime & 0x1f)
}

// InformInfoRecord, cf. table 199
type InformInfoRecord struct {
	SubscriberGID  GID
	SubscriberEnum uint16
	InformInfo     InformInfo
}

func (*InformInfoRecord) AttrID() AttrID { return AttrInformInfoRecord }

func (r *InformInfoRecord) UnmarshalBinary(b []byte) error {
	w := newWire(b, InformInfoRecordSize)

	r.SubscriberGID = w.gid(0)
	r.SubscriberEnum = w.u16(16)

	ii := &r.InformInfo
	ii.GID = w.gid(24)
	ii.LIDRangeBegin = w.u16(40)
	ii.LIDRangeEnd = w.u16(42)
	ii.IsGeneric = w.u8(46)
	ii.Subscribe = w.u8(47)
	ii.TrapType = w.u16(48)
	ii.TrapNumDevID = w.u16(50)
	ii.QPNRespTime = w.u32(52)
	ii.ProducerType = uint32(w.u8(57))<<16 | uint32(w.u16(58))

	return nil
}
