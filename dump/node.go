// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package dump

import (
	"fmt"
	"io"

	"github.com/dswarbrick/saquery/infiniband"
	"github.com/dswarbrick/saquery/sa"
)

// NodeMode selects how node records are presented.
type NodeMode int

const (
	NodeAll NodeMode = iota
	NodeLIDOnly
	NodeUniqueLIDOnly
	NodeGUIDOnly
	NodeAllDesc
	NodeNameOfLID
	NodeNameOfGUID
)

var nodeModeNames = [...]string{"all", "lid", "unique-lid", "guid", "list", "name-of-lid", "name-of-guid"}

func (m NodeMode) String() string {
	if int(m) < len(nodeModeNames) {
		return nodeModeNames[m]
	}

	return fmt.Sprintf("NodeMode(%d)", int(m))
}

// NameMapper substitutes a friendly name for a node description.
type NameMapper interface {
	RemapNodeName(guid uint64, nodeDesc string) string
}

// NodeFilter restricts which node records are printed, and how.
type NodeFilter struct {
	Mode NodeMode
	// Name, if not empty, must equal the node description (ignored for the list and name-of modes).
	Name string
	LID  uint16
	GUID uint64
}

func remap(names NameMapper, n *sa.NodeRecord) string {
	desc := infiniband.CleanNodeDesc(n.NodeDesc[:])
	if names == nil {
		return desc
	}

	return names.RemapNodeName(n.NodeGUID, desc)
}

// NodeRecord writes a single node record in the presentation selected by f.Mode.
func NodeRecord(w io.Writer, n *sa.NodeRecord, f NodeFilter, names NameMapper) {
	switch f.Mode {
	case NodeLIDOnly, NodeUniqueLIDOnly:
		fmt.Fprintf(w, "%d\n", n.LID)
		return
	case NodeGUIDOnly:
		fmt.Fprintf(w, "0x%016x\n", n.PortGUID)
		return
	case NodeNameOfLID, NodeNameOfGUID:
		fmt.Fprintf(w, "%s\n", remap(names, n))
		return
	}

	fmt.Fprintf(w, "NodeRecord dump:\n"+
		"\t\tlid.....................0x%X\n"+
		"\t\treserved................0x%X\n"+
		"\t\tbase_version............0x%X\n"+
		"\t\tclass_version...........0x%X\n"+
		"\t\tnode_type...............%s\n"+
		"\t\tnum_ports...............0x%X\n"+
		"\t\tsys_guid................0x%016x\n"+
		"\t\tnode_guid...............0x%016x\n"+
		"\t\tport_guid...............0x%016x\n"+
		"\t\tpartition_cap...........0x%X\n"+
		"\t\tdevice_id...............0x%X\n"+
		"\t\trevision................0x%X\n"+
		"\t\tport_num................0x%X\n"+
		"\t\tvendor_id...............0x%X\n"+
		"\t\tNodeDescription.........%s\n",
		n.LID,
		n.Reserved,
		n.BaseVersion,
		n.ClassVersion,
		infiniband.NodeTypeToStr(n.NodeType),
		n.NumPorts,
		n.SysGUID,
		n.NodeGUID,
		n.PortGUID,
		n.PartitionCap,
		n.DeviceID,
		n.Revision,
		n.LocalPortNum,
		n.VendorID,
		infiniband.CleanNodeDesc(n.NodeDesc[:]))
}

// NodeDesc writes the terse "LID "description"" line for channel adapters. Other node types
// produce no output.
func NodeDesc(w io.Writer, n *sa.NodeRecord) {
	if n.NodeType != infiniband.NodeTypeCA {
		return
	}

	fmt.Fprintf(w, "%6d  \"%s\"\n", n.LID, infiniband.CleanNodeDesc(n.NodeDesc[:]))
}

// NodeRecords writes every node record selected by f. In unique LID mode, output stops after the
// first match.
func NodeRecords(w io.Writer, nodes []*sa.NodeRecord, f NodeFilter, names NameMapper) {
	if f.Mode == NodeAllDesc {
		fmt.Fprint(w, "   LID \"name\"\n================\n")
	}

	for _, n := range nodes {
		switch f.Mode {
		case NodeAllDesc:
			NodeDesc(w, n)
		case NodeNameOfLID:
			if n.LID == f.LID {
				NodeRecord(w, n, f, names)
			}
		case NodeNameOfGUID:
			if n.PortGUID == f.GUID {
				NodeRecord(w, n, f, names)
			}
		default:
			if f.Name == "" || n.DescMatches(f.Name) {
				NodeRecord(w, n, f, names)

				if f.Mode == NodeUniqueLIDOnly {
					return
				}
			}
		}
	}
}
