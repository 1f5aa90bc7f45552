// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package dump

import (
	"fmt"
	"io"

	"github.com/dswarbrick/saquery/infiniband"
	"github.com/dswarbrick/saquery/sa"
)

// MCGroup writes the group view of a multicast member record.
func MCGroup(w io.Writer, m *sa.MCMemberRecord) {
	fmt.Fprintf(w, "MCMemberRecord group dump:\n"+
		"\t\tMGID....................0x%016x : 0x%016x\n"+
		"\t\tMlid....................0x%X\n"+
		"\t\tMtu.....................0x%X\n"+
		"\t\tpkey....................0x%X\n"+
		"\t\tRate....................0x%X\n"+
		"\t\tSL......................0x%X\n",
		m.MGID.Prefix(), m.MGID.InterfaceID(),
		m.MLID,
		m.MTU,
		m.PKey,
		m.Rate,
		m.SL())
}

// memberDesc returns the cleaned description of the node whose port GUID equals the interface ID
// of the member's port GID, or an empty string if there is none.
func memberDesc(m *sa.MCMemberRecord, nodes []*sa.NodeRecord) string {
	iid := m.PortGID.InterfaceID()

	for _, n := range nodes {
		if n.PortGUID == iid {
			return infiniband.CleanNodeDesc(n.NodeDesc[:])
		}
	}

	return ""
}

// MCMember writes the member view of a multicast member record, naming the member from nodes.
// If group is not empty, only members of the MLID it denotes are printed, as a bare GID / name
// line.
func MCMember(w io.Writer, m *sa.MCMemberRecord, nodes []*sa.NodeRecord, group string) {
	desc := memberDesc(m, nodes)

	if group != "" {
		if ParseInt(group) == int64(m.MLID) {
			fmt.Fprintf(w, "\t\tPortGid.................0x%016x : 0x%016x (%s)\n",
				m.PortGID.Prefix(), m.PortGID.InterfaceID(), desc)
		}
		return
	}

	fmt.Fprintf(w, "MCMemberRecord member dump:\n"+
		"\t\tMGID....................0x%016x : 0x%016x\n"+
		"\t\tMlid....................0x%X\n"+
		"\t\tPortGid.................0x%016x : 0x%016x\n"+
		"\t\tScopeState..............0x%X\n"+
		"\t\tProxyJoin...............0x%X\n"+
		"\t\tNodeDescription.........%s\n",
		m.MGID.Prefix(), m.MGID.InterfaceID(),
		m.MLID,
		m.PortGID.Prefix(), m.PortGID.InterfaceID(),
		m.ScopeState,
		m.ProxyJoin,
		desc)
}

// MCMembers writes the member view of every record in members.
func MCMembers(w io.Writer, members []*sa.MCMemberRecord, nodes []*sa.NodeRecord, group string) {
	for _, m := range members {
		MCMember(w, m, nodes, group)
	}
}
