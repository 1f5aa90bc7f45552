// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package dump

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dswarbrick/saquery/infiniband"
	"github.com/dswarbrick/saquery/sa"
)

type fakeNames map[uint64]string

func (f fakeNames) RemapNodeName(guid uint64, nodeDesc string) string {
	if name, ok := f[guid]; ok {
		return name
	}
	return nodeDesc
}

func mkNode(t *testing.T, lid uint16, nodeType uint8, guid uint64, desc string) *sa.NodeRecord {
	b := make([]byte, sa.NodeRecordSize)

	binary.BigEndian.PutUint16(b[0:], lid)
	b[6] = nodeType
	binary.BigEndian.PutUint64(b[16:], guid)
	binary.BigEndian.PutUint64(b[24:], guid)
	copy(b[44:], desc)

	n := new(sa.NodeRecord)
	require.NoError(t, n.UnmarshalBinary(b))

	return n
}

func mkMember(t *testing.T, mlid uint16, portGUID uint64) *sa.MCMemberRecord {
	b := make([]byte, sa.MCMemberRecordSize)

	binary.BigEndian.PutUint64(b[0:], 0xff12401bffff0000)
	binary.BigEndian.PutUint64(b[8:], 0x00000000ffffffff)
	binary.BigEndian.PutUint64(b[16:], 0xfe80000000000000)
	binary.BigEndian.PutUint64(b[24:], portGUID)
	binary.BigEndian.PutUint16(b[36:], mlid)

	m := new(sa.MCMemberRecord)
	require.NoError(t, m.UnmarshalBinary(b))

	return m
}

func TestNodeRecordDump(t *testing.T) {
	var buf bytes.Buffer

	n := mkNode(t, 1, infiniband.NodeTypeCA, 0x0002c90300a1b2c3, "host1 mlx4_0")
	NodeRecord(&buf, n, NodeFilter{}, nil)

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "NodeRecord dump:\n\t\tlid.....................0x1\n"))
	require.Contains(t, out, "\t\tnode_type...............Channel Adapter\n")
	require.Contains(t, out, "\t\tport_guid...............0x0002c90300a1b2c3\n")
	require.True(t, strings.HasSuffix(out, "\t\tNodeDescription.........host1 mlx4_0\n"))
}

func TestNodeModes(t *testing.T) {
	nodes := []*sa.NodeRecord{
		mkNode(t, 3, infiniband.NodeTypeSwitch, 0x10, "switch"),
		mkNode(t, 5, infiniband.NodeTypeCA, 0x20, "host1"),
		mkNode(t, 7, infiniband.NodeTypeCA, 0x30, "host1"),
	}

	tests := []struct {
		filter NodeFilter
		want   string
	}{
		{NodeFilter{Mode: NodeLIDOnly, Name: "host1"}, "5\n7\n"},
		{NodeFilter{Mode: NodeUniqueLIDOnly, Name: "host1"}, "5\n"},
		{NodeFilter{Mode: NodeGUIDOnly, Name: "host1"}, "0x0000000000000020\n0x0000000000000030\n"},
		{NodeFilter{Mode: NodeLIDOnly}, "3\n5\n7\n"},
		{NodeFilter{Mode: NodeAllDesc}, "   LID \"name\"\n================\n     5  \"host1\"\n     7  \"host1\"\n"},
		{NodeFilter{Mode: NodeNameOfLID, LID: 3}, "switch\n"},
		{NodeFilter{Mode: NodeNameOfGUID, GUID: 0x30}, "compute-7\n"},
		{NodeFilter{Mode: NodeNameOfLID, LID: 9}, ""},
	}

	names := fakeNames{0x30: "compute-7"}

	for _, tt := range tests {
		var buf bytes.Buffer

		NodeRecords(&buf, nodes, tt.filter, names)
		require.Equal(t, tt.want, buf.String(), tt.filter.Mode.String())
	}
}

func TestMCMemberFilter(t *testing.T) {
	nodes := []*sa.NodeRecord{mkNode(t, 5, infiniband.NodeTypeCA, 0x20, "host1")}
	members := []*sa.MCMemberRecord{
		mkMember(t, 0xc000, 0x20),
		mkMember(t, 0xc001, 0x20),
		mkMember(t, 0xc000, 0x99),
	}

	var buf bytes.Buffer
	MCMembers(&buf, members, nodes, "0xC000")

	require.Equal(t,
		"\t\tPortGid.................0xfe80000000000000 : 0x0000000000000020 (host1)\n"+
			"\t\tPortGid.................0xfe80000000000000 : 0x0000000000000099 ()\n",
		buf.String())

	buf.Reset()
	MCMembers(&buf, members[:1], nodes, "")
	require.Contains(t, buf.String(), "MCMemberRecord member dump:\n")
	require.Contains(t, buf.String(), "\t\tMlid....................0xC000\n")
	require.Contains(t, buf.String(), "\t\tNodeDescription.........host1\n")
}

func TestMCGroup(t *testing.T) {
	var buf bytes.Buffer

	Record(&buf, mkMember(t, 0xc001, 0x20))
	require.Equal(t, "MCMemberRecord group dump:\n"+
		"\t\tMGID....................0xff12401bffff0000 : 0x00000000ffffffff\n"+
		"\t\tMlid....................0xC001\n"+
		"\t\tMtu.....................0x0\n"+
		"\t\tpkey....................0x0\n"+
		"\t\tRate....................0x0\n"+
		"\t\tSL......................0x0\n", buf.String())
}

func TestLinkRecord(t *testing.T) {
	var buf bytes.Buffer

	l := &sa.LinkRecord{FromLID: 1, FromPort: 2, ToPort: 3, ToLID: 4}
	Record(&buf, l)

	require.Equal(t, "LinkRecord dump:\n"+
		"\t\tFromLID....................1\n"+
		"\t\tFromPort...................2\n"+
		"\t\tToPort.....................3\n"+
		"\t\tToLID......................4\n", buf.String())
}

func TestSLVLTable(t *testing.T) {
	var buf bytes.Buffer

	s := &sa.SLVLTableRecord{LID: 2, InPort: 1, OutPort: 3}
	s.RawVLBySL[0] = 0x01
	s.RawVLBySL[7] = 0xf0

	SLVLTableRecord(&buf, s)
	require.Contains(t, buf.String(), "\t\tVL: 0| 1| 0| 0| 0| 0| 0| 0| 0| 0| 0| 0| 0| 0|15| 0|\n")
}

func TestPKeyTable(t *testing.T) {
	var buf bytes.Buffer

	p := &sa.PKeyTableRecord{LID: 2, PortNum: 1}
	p.PKeys[0] = 0xffff
	p.PKeys[9] = 0x8001

	PKeyTableRecord(&buf, p)

	lines := strings.Split(buf.String(), "\n")
	require.Equal(t, "\t\t0xffff 0x0000 0x0000 0x0000 0x0000 0x0000 0x0000 0x0000", lines[5])
	require.Equal(t, "\t\t0x0000 0x8001 0x0000 0x0000 0x0000 0x0000 0x0000 0x0000", lines[6])
	require.True(t, strings.HasSuffix(buf.String(), "0x0000\n\n"))
}

func TestVLArbTable(t *testing.T) {
	var buf bytes.Buffer

	v := &sa.VLArbTableRecord{LID: 1, PortNum: 1, BlockNum: 1}
	v.Entries[0] = sa.VLArbElement{VL: 1, Weight: 64}

	VLArbTableRecord(&buf, v)

	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 9)
	require.True(t, strings.HasPrefix(lines[4], "\t\tVL    : 1| 0|"))
	require.True(t, strings.HasPrefix(lines[5], "\t\tWeight:64| 0|"))
}

func TestServiceRecord(t *testing.T) {
	var buf bytes.Buffer

	s := &sa.ServiceRecord{ServiceID: 0x1000117500000000}
	copy(s.ServiceName[:], "DAPL")
	s.ServiceKey[15] = 0xab
	s.ServiceData8[9] = 0x7

	ServiceRecord(&buf, s)

	out := buf.String()
	require.Contains(t, out, "\t\tServiceKey..............0x000000000000000000000000000000ab\n")
	require.Contains(t, out, "\t\tServiceName.............DAPL\n")
	require.Contains(t, out, "\t\tServiceData8.10.........0x7\n")
	require.Contains(t, out, "\t\tServiceData16.8.........0x0\n")
	require.Contains(t, out, "\t\tServiceData64.2.........0x0000000000000000\n")
}

func TestInformInfoVariants(t *testing.T) {
	var buf bytes.Buffer

	r := &sa.InformInfoRecord{}
	r.InformInfo.IsGeneric = 1
	r.InformInfo.TrapNumDevID = 64

	InformInfoRecord(&buf, r)
	require.Contains(t, buf.String(), "\t\ttrap_num................64\n")
	require.Contains(t, buf.String(), "\t\tnode_type...............0x000000\n")

	buf.Reset()
	r.InformInfo.IsGeneric = 0
	InformInfoRecord(&buf, r)
	require.Contains(t, buf.String(), "\t\tdev_id..................0x40\n")
	require.Contains(t, buf.String(), "\t\tvendor_id...............0x000000\n")
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0xC000", 0xc000},
		{"49152", 49152},
		{"010", 8},
		{"  -12abc", -12},
		{"bogus", 0},
		{"0x", 0},
		{"", 0},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, ParseInt(tt.in), tt.in)
	}
}

func TestAtoi(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"16", 16},
		{"010", 10},
		{"0x10", 0},
		{" 42xyz", 42},
		{"", 0},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, Atoi(tt.in), tt.in)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"2", 2, true},
		{"2abc", 2, true},
		{"0", 0, true},
		{"0x1f", 31, true},
		{"0x", 0, true},
		{"abc", 0, false},
		{"", 0, false},
		{"-", 0, false},
	}

	for _, tt := range tests {
		v, ok := ParseNumber(tt.in, 0)
		require.Equal(t, tt.want, v, tt.in)
		require.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestPathRecordDump(t *testing.T) {
	b := make([]byte, sa.PathRecordSize)

	binary.BigEndian.PutUint64(b[0:], 0x1122334455667788)
	binary.BigEndian.PutUint64(b[8:], 0xfe80000000000000)
	binary.BigEndian.PutUint64(b[16:], 0x0002c90300a1b2c4)
	binary.BigEndian.PutUint64(b[24:], 0xfe80000000000000)
	binary.BigEndian.PutUint64(b[32:], 0x0002c90300a1b2c3)
	binary.BigEndian.PutUint16(b[40:], 9)
	binary.BigEndian.PutUint16(b[42:], 4)
	binary.BigEndian.PutUint32(b[44:], 0x140)
	b[49] = 0x80
	binary.BigEndian.PutUint16(b[50:], 0xffff)
	binary.BigEndian.PutUint16(b[52:], 0x0013)
	b[54] = 0x84
	b[55] = 0x87
	b[56] = 0x92
	b[58] = 0x01
	b[62] = 0x02

	p := new(sa.PathRecord)
	require.NoError(t, p.UnmarshalBinary(b))

	// Reserved fields are printed as read from memory, without byte swapping
	resv2, resv3 := "0x1000000", "0x200"
	if infiniband.NativeEndian() == binary.LittleEndian {
		resv2, resv3 = "0x1", "0x2"
	}

	var buf bytes.Buffer
	Record(&buf, p)

	require.Equal(t, "PathRecord dump:\n"+
		"\t\tservice_id..............0x1122334455667788\n"+
		"\t\tdgid....................0xfe80000000000000 : 0x0002c90300a1b2c4\n"+
		"\t\tsgid....................0xfe80000000000000 : 0x0002c90300a1b2c3\n"+
		"\t\tdlid....................0x9\n"+
		"\t\tslid....................0x4\n"+
		"\t\thop_flow_raw............0x140\n"+
		"\t\ttclass..................0x0\n"+
		"\t\tnum_path_revers.........0x80\n"+
		"\t\tpkey....................0xFFFF\n"+
		"\t\tqos_class...............0x1\n"+
		"\t\tsl......................0x3\n"+
		"\t\tmtu.....................0x84\n"+
		"\t\trate....................0x87\n"+
		"\t\tpkt_life................0x92\n"+
		"\t\tpreference..............0x0\n"+
		"\t\tresv2..................."+resv2+"\n"+
		"\t\tresv3..................."+resv3+"\n", buf.String())
}

func TestClassPortInfoDump(t *testing.T) {
	b := make([]byte, sa.ClassPortInfoSize)

	b[0] = 1
	b[1] = 2
	binary.BigEndian.PutUint16(b[2:], 0x2602)
	binary.BigEndian.PutUint32(b[4:], 5<<5|0x12)
	b[8], b[9], b[23] = 0xfe, 0x80, 0x01
	binary.BigEndian.PutUint32(b[24:], 0x01000000)
	binary.BigEndian.PutUint16(b[28:], 5)
	binary.BigEndian.PutUint16(b[30:], 0xffff)
	binary.BigEndian.PutUint32(b[32:], 1)
	binary.BigEndian.PutUint32(b[36:], 0x80010000)
	binary.BigEndian.PutUint16(b[60:], 7)
	binary.BigEndian.PutUint16(b[62:], 0x7fff)
	binary.BigEndian.PutUint32(b[64:], 0xff000001)
	binary.BigEndian.PutUint32(b[68:], 0x80010000)

	c := new(sa.ClassPortInfo)
	require.NoError(t, c.UnmarshalBinary(b))

	var buf bytes.Buffer
	Record(&buf, c)

	require.Equal(t, "SA ClassPortInfo:\n"+
		"\t\tBase version.............1\n"+
		"\t\tClass version............2\n"+
		"\t\tCapability mask..........0x2602\n"+
		"\t\tCapability mask 2........0x00000005\n"+
		"\t\tResponse time value......0x12\n"+
		"\t\tRedirect GID.............0xFE800000000000000000000000000001\n"+
		"\t\tRedirect TC/SL/FL........0x01000000\n"+
		"\t\tRedirect LID.............0x0005\n"+
		"\t\tRedirect PKey............0xFFFF\n"+
		"\t\tRedirect QP..............0x00000001\n"+
		"\t\tRedirect QKey............0x80010000\n"+
		"\t\tTrap GID.................0x00000000000000000000000000000000\n"+
		"\t\tTrap TC/SL/FL............0x00000000\n"+
		"\t\tTrap LID.................0x0007\n"+
		"\t\tTrap PKey................0x7FFF\n"+
		"\t\tTrap HL/QP...............0xFF000001\n"+
		"\t\tTrap QKey................0x80010000\n", buf.String())
}

func TestPortInfoRecordDump(t *testing.T) {
	b := make([]byte, sa.PortInfoRecordSize)

	binary.BigEndian.PutUint16(b[0:], 0x12)
	b[2] = 1
	binary.BigEndian.PutUint16(b[20:], 0x12)
	binary.BigEndian.PutUint16(b[22:], 0x1)
	binary.BigEndian.PutUint32(b[24:], 0x0251084a)

	p := new(sa.PortInfoRecord)
	require.NoError(t, p.UnmarshalBinary(b))

	var buf bytes.Buffer
	Record(&buf, p)

	require.Equal(t, "PortInfoRecord dump:\n"+
		"\t\tEndPortLid..............0x12\n"+
		"\t\tPortNum.................0x1\n"+
		"\t\tbase_lid................0x12\n"+
		"\t\tmaster_sm_base_lid......0x1\n"+
		"\t\tcapability_mask.........0x251084A\n", buf.String())
}
