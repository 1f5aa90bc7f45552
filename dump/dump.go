// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package dump renders decoded SA records as text, in the classic saquery layout. Formatting never
// fails; write errors on the output stream are ignored.
package dump

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dswarbrick/saquery/infiniband"
	"github.com/dswarbrick/saquery/sa"
)

var formatters = map[sa.AttrID]func(io.Writer, sa.Record){
	sa.AttrClassPortInfo: func(w io.Writer, r sa.Record) { ClassPortInfo(w, r.(*sa.ClassPortInfo)) },
	sa.AttrNodeRecord: func(w io.Writer, r sa.Record) {
		NodeRecord(w, r.(*sa.NodeRecord), NodeFilter{}, nil)
	},
	sa.AttrPortInfoRecord:   func(w io.Writer, r sa.Record) { PortInfoRecord(w, r.(*sa.PortInfoRecord)) },
	sa.AttrSLVLTableRecord:  func(w io.Writer, r sa.Record) { SLVLTableRecord(w, r.(*sa.SLVLTableRecord)) },
	sa.AttrLinkRecord:       func(w io.Writer, r sa.Record) { LinkRecord(w, r.(*sa.LinkRecord)) },
	sa.AttrServiceRecord:    func(w io.Writer, r sa.Record) { ServiceRecord(w, r.(*sa.ServiceRecord)) },
	sa.AttrPKeyTableRecord:  func(w io.Writer, r sa.Record) { PKeyTableRecord(w, r.(*sa.PKeyTableRecord)) },
	sa.AttrPathRecord:       func(w io.Writer, r sa.Record) { PathRecord(w, r.(*sa.PathRecord)) },
	sa.AttrVLArbTableRecord: func(w io.Writer, r sa.Record) { VLArbTableRecord(w, r.(*sa.VLArbTableRecord)) },
	sa.AttrMCMemberRecord:   func(w io.Writer, r sa.Record) { MCGroup(w, r.(*sa.MCMemberRecord)) },
	sa.AttrInformInfoRecord: func(w io.Writer, r sa.Record) { InformInfoRecord(w, r.(*sa.InformInfoRecord)) },
}

// Record writes the default dump of any record.
func Record(w io.Writer, rec sa.Record) {
	if f, ok := formatters[rec.AttrID()]; ok {
		f(w, rec)
	}
}

// Records writes the default dump of each record, in order.
func Records(w io.Writer, recs []sa.Record) {
	for _, rec := range recs {
		Record(w, rec)
	}
}

func PathRecord(w io.Writer, p *sa.PathRecord) {
	fmt.Fprintf(w, "PathRecord dump:\n"+
		"\t\tservice_id..............0x%016x\n"+
		"\t\tdgid....................0x%016x : 0x%016x\n"+
		"\t\tsgid....................0x%016x : 0x%016x\n"+
		"\t\tdlid....................0x%X\n"+
		"\t\tslid....................0x%X\n"+
		"\t\thop_flow_raw............0x%X\n"+
		"\t\ttclass..................0x%X\n"+
		"\t\tnum_path_revers.........0x%X\n"+
		"\t\tpkey....................0x%X\n"+
		"\t\tqos_class...............0x%X\n"+
		"\t\tsl......................0x%X\n"+
		"\t\tmtu.....................0x%X\n"+
		"\t\trate....................0x%X\n"+
		"\t\tpkt_life................0x%X\n"+
		"\t\tpreference..............0x%X\n"+
		"\t\tresv2...................0x%X\n"+
		"\t\tresv3...................0x%X\n",
		p.ServiceID,
		p.DGID.Prefix(), p.DGID.InterfaceID(),
		p.SGID.Prefix(), p.SGID.InterfaceID(),
		p.DLID,
		p.SLID,
		p.HopFlowRaw,
		p.TClass,
		p.NumPath,
		p.PKey,
		p.QoSClass(),
		p.SL(),
		p.MTU,
		p.Rate,
		p.PktLife,
		p.Preference,
		// The reserved bytes are shown as the host would read them from memory
		infiniband.NativeEndian().Uint32(p.Reserved[0:4]),
		infiniband.NativeEndian().Uint16(p.Reserved[4:6]))
}

func ClassPortInfo(w io.Writer, c *sa.ClassPortInfo) {
	fmt.Fprintf(w, "SA ClassPortInfo:\n"+
		"\t\tBase version.............%d\n"+
		"\t\tClass version............%d\n"+
		"\t\tCapability mask..........0x%04X\n"+
		"\t\tCapability mask 2........0x%08X\n"+
		"\t\tResponse time value......0x%02X\n"+
		"\t\tRedirect GID.............0x%s\n"+
		"\t\tRedirect TC/SL/FL........0x%08X\n"+
		"\t\tRedirect LID.............0x%04X\n"+
		"\t\tRedirect PKey............0x%04X\n"+
		"\t\tRedirect QP..............0x%08X\n"+
		"\t\tRedirect QKey............0x%08X\n"+
		"\t\tTrap GID.................0x%s\n"+
		"\t\tTrap TC/SL/FL............0x%08X\n"+
		"\t\tTrap LID.................0x%04X\n"+
		"\t\tTrap PKey................0x%04X\n"+
		"\t\tTrap HL/QP...............0x%08X\n"+
		"\t\tTrap QKey................0x%08X\n",
		c.BaseVersion,
		c.ClassVersion,
		c.CapMask,
		c.CapMask2(),
		c.RespTimeValue(),
		c.RedirGID.Hex(),
		c.RedirTCSLFL,
		c.RedirLID,
		c.RedirPKey,
		c.RedirQP,
		c.RedirQKey,
		c.TrapGID.Hex(),
		c.TrapTCSLFL,
		c.TrapLID,
		c.TrapPKey,
		c.TrapHopQP,
		c.TrapQKey)
}

func PortInfoRecord(w io.Writer, p *sa.PortInfoRecord) {
	fmt.Fprintf(w, "PortInfoRecord dump:\n"+
		"\t\tEndPortLid..............0x%X\n"+
		"\t\tPortNum.................0x%X\n"+
		"\t\tbase_lid................0x%X\n"+
		"\t\tmaster_sm_base_lid......0x%X\n"+
		"\t\tcapability_mask.........0x%X\n",
		p.LID,
		p.PortNum,
		p.PortInfo.BaseLID,
		p.PortInfo.MasterSMBaseLID,
		p.PortInfo.CapabilityMask)
}

func ServiceRecord(w io.Writer, s *sa.ServiceRecord) {
	name := s.ServiceName[:]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}

	fmt.Fprintf(w, "ServiceRecord dump:\n"+
		"\t\tServiceID...............0x%016x\n"+
		"\t\tServiceGID..............0x%016x : 0x%016x\n"+
		"\t\tServiceP_Key............0x%X\n"+
		"\t\tServiceLease............0x%X\n"+
		"\t\tServiceKey..............0x%x\n"+
		"\t\tServiceName.............%s\n",
		s.ServiceID,
		s.ServiceGID.Prefix(), s.ServiceGID.InterfaceID(),
		s.ServicePKey,
		s.ServiceLease,
		s.ServiceKey[:],
		name)

	for i, v := range s.ServiceData8 {
		fmt.Fprintf(w, "\t\t%s0x%X\n", label(fmt.Sprintf("ServiceData8.%d", i+1)), v)
	}
	for i, v := range s.ServiceData16 {
		fmt.Fprintf(w, "\t\t%s0x%X\n", label(fmt.Sprintf("ServiceData16.%d", i+1)), v)
	}
	for i, v := range s.ServiceData32 {
		fmt.Fprintf(w, "\t\t%s0x%X\n", label(fmt.Sprintf("ServiceData32.%d", i+1)), v)
	}
	for i, v := range s.ServiceData64 {
		fmt.Fprintf(w, "\t\t%s0x%016x\n", label(fmt.Sprintf("ServiceData64.%d", i+1)), v)
	}
}

// label pads a field name with dots to the 24 column layout used by the record dumps.
func label(name string) string {
	const width = 24

	if len(name) >= width {
		return name
	}

	return name + string(bytes.Repeat([]byte{'.'}, width-len(name)))
}

func InformInfoRecord(w io.Writer, r *sa.InformInfoRecord) {
	ii := &r.InformInfo

	fmt.Fprintf(w, "InformInfoRecord dump:\n"+
		"\t\tRID\n"+
		"\t\tSubscriberGID...........0x%016x : 0x%016x\n"+
		"\t\tSubscriberEnum..........0x%X\n"+
		"\t\tInformInfo dump:\n"+
		"\t\tgid.....................0x%016x : 0x%016x\n"+
		"\t\tlid_range_begin.........0x%X\n"+
		"\t\tlid_range_end...........0x%X\n"+
		"\t\tis_generic..............0x%X\n"+
		"\t\tsubscribe...............0x%X\n"+
		"\t\ttrap_type...............0x%X\n",
		r.SubscriberGID.Prefix(), r.SubscriberGID.InterfaceID(),
		r.SubscriberEnum,
		ii.GID.Prefix(), ii.GID.InterfaceID(),
		ii.LIDRangeBegin,
		ii.LIDRangeEnd,
		ii.IsGeneric,
		ii.Subscribe,
		ii.TrapType)

	if ii.IsGeneric != 0 {
		fmt.Fprintf(w, "\t\ttrap_num................%d\n", ii.TrapNumDevID)
	} else {
		fmt.Fprintf(w, "\t\tdev_id..................0x%X\n", ii.TrapNumDevID)
	}

	fmt.Fprintf(w, "\t\tqpn.....................0x%06X\n"+
		"\t\tresp_time_val...........0x%X\n",
		ii.QPN(),
		ii.RespTimeValue())

	if ii.IsGeneric != 0 {
		fmt.Fprintf(w, "\t\tnode_type...............0x%06X\n", ii.ProducerType)
	} else {
		fmt.Fprintf(w, "\t\tvendor_id...............0x%06X\n", ii.ProducerType)
	}
}

func LinkRecord(w io.Writer, l *sa.LinkRecord) {
	fmt.Fprintf(w, "LinkRecord dump:\n"+
		"\t\tFromLID....................%d\n"+
		"\t\tFromPort...................%d\n"+
		"\t\tToPort.....................%d\n"+
		"\t\tToLID......................%d\n",
		l.FromLID, l.FromPort, l.ToPort, l.ToLID)
}

func SLVLTableRecord(w io.Writer, s *sa.SLVLTableRecord) {
	fmt.Fprintf(w, "SL2VLTableRecord dump:\n"+
		"\t\tLID........................%d\n"+
		"\t\tInPort.....................%d\n"+
		"\t\tOutPort....................%d\n"+
		"\t\tSL: 0| 1| 2| 3| 4| 5| 6| 7| 8| 9|10|11|12|13|14|15|\n"+
		"\t\tVL:",
		s.LID, s.InPort, s.OutPort)

	for sl := 0; sl < 16; sl++ {
		fmt.Fprintf(w, "%2d|", s.VL(sl))
	}

	fmt.Fprintln(w)
}

func VLArbTableRecord(w io.Writer, v *sa.VLArbTableRecord) {
	fmt.Fprintf(w, "VLArbTableRecord dump:\n"+
		"\t\tLID........................%d\n"+
		"\t\tPort.......................%d\n"+
		"\t\tBlock......................%d\n",
		v.LID, v.PortNum, v.BlockNum)

	for i := 0; i < len(v.Entries); i += 16 {
		fmt.Fprint(w, "\t\tVL    :")
		for _, e := range v.Entries[i : i+16] {
			fmt.Fprintf(w, "%2d|", e.VL)
		}

		fmt.Fprint(w, "\n\t\tWeight:")
		for _, e := range v.Entries[i : i+16] {
			fmt.Fprintf(w, "%2d|", e.Weight)
		}

		fmt.Fprintln(w)
	}
}

func PKeyTableRecord(w io.Writer, p *sa.PKeyTableRecord) {
	fmt.Fprintf(w, "PKeyTableRecord dump:\n"+
		"\t\tLID........................%d\n"+
		"\t\tPort.......................%d\n"+
		"\t\tBlock......................%d\n"+
		"\t\tPKey Table:\n",
		p.LID, p.PortNum, p.BlockNum)

	for i := 0; i < len(p.PKeys); i += 8 {
		fmt.Fprint(w, "\t\t")
		for j, pkey := range p.PKeys[i : i+8] {
			if j > 0 {
				fmt.Fprint(w, " ")
			}
			fmt.Fprintf(w, "0x%04x", pkey)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w)
}
