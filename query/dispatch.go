// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package query

import (
	"encoding"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/dswarbrick/saquery/dump"
	"github.com/dswarbrick/saquery/infiniband"
	"github.com/dswarbrick/saquery/sa"
)

// ResultSet is the outcome of one query, as passed to result writers.
type ResultSet struct {
	Hostname   string
	CAName     string
	SourcePort int
	Kind       Kind
	Time       time.Time
	Records    []sa.Record
	// Nodes holds node records fetched to cross-reference Records, if any.
	Nodes []*sa.NodeRecord
}

// Dispatcher issues queries through an SA client and prints their results.
type Dispatcher struct {
	client *sa.Client
	out    io.Writer
	names  dump.NameMapper

	// Source identifies the local port in result sets.
	Hostname   string
	CAName     string
	SourcePort int

	// FetchNodes requests node records alongside link records, for topology writers.
	FetchNodes bool
}

// NewDispatcher returns a Dispatcher printing to out. names may be nil.
func NewDispatcher(client *sa.Client, out io.Writer, names dump.NameMapper) *Dispatcher {
	return &Dispatcher{client: client, out: out, names: names}
}

// Run executes the query described by opts and prints the result.
func (d *Dispatcher) Run(opts *Options) (*ResultSet, error) {
	var (
		rs  *ResultSet
		err error
	)

	logger := log.WithField("kind", opts.Kind)
	logger.Debug("Running query")

	switch opts.Kind {
	case KindNode:
		rs, err = d.nodes(opts)
	case KindPath:
		rs, err = d.paths(opts)
	case KindClassPortInfo:
		rs, err = d.classPortInfo()
	case KindSMPorts:
		rs, err = d.smPorts()
	case KindMCGroups:
		rs, err = d.multicast(opts, false)
	case KindMCMembers:
		rs, err = d.multicast(opts, true)
	case KindService:
		rs, err = d.all(sa.AttrServiceRecord)
	case KindInformInfo:
		rs, err = d.all(sa.AttrInformInfoRecord)
	case KindLink:
		rs, err = d.links(opts)
	case KindSL2VL:
		rs, err = d.sl2vl(opts)
	case KindPKeyTable:
		rs, err = d.pkeyTable(opts)
	case KindVLArb:
		rs, err = d.vlArb(opts)
	default:
		return nil, errors.Errorf("unknown query type %d", opts.Kind)
	}

	if err != nil {
		return nil, err
	}

	rs.Hostname = d.Hostname
	rs.CAName = d.CAName
	rs.SourcePort = d.SourcePort
	rs.Kind = opts.Kind
	rs.Time = time.Now()

	logger.WithField("records", len(rs.Records)).Debug("Query complete")

	return rs, nil
}

func (d *Dispatcher) nodes(opts *Options) (*ResultSet, error) {
	res, err := d.client.GetAllRecords(sa.AttrNodeRecord, false)
	if err != nil {
		return nil, err
	}

	nodes := res.NodeRecords()
	dump.NodeRecords(d.out, nodes, opts.Nodes, d.names)

	return &ResultSet{Records: res.Records, Nodes: nodes}, nil
}

func (d *Dispatcher) paths(opts *Options) (*ResultSet, error) {
	var (
		res *sa.Result
		err error
	)

	switch {
	case opts.Src != "" && opts.Dst != "":
		var slid, dlid uint16

		if slid, err = d.GetLID(opts.Src); err != nil {
			return nil, err
		}
		if dlid, err = d.GetLID(opts.Dst); err != nil {
			return nil, err
		}

		fmt.Fprintf(d.out, "Path record for %s -> %s\n", opts.Src, opts.Dst)

		if slid == 0 || dlid == 0 {
			return nil, ErrUnknown
		}

		res, err = d.client.PathRecordByLIDs(slid, dlid)

	case opts.SGID != "" && opts.DGID != "":
		sgid, perr := sa.ParseGID(opts.SGID)
		if perr != nil {
			return nil, &ResolutionError{"invalid src gid: " + opts.SGID}
		}

		dgid, perr := sa.ParseGID(opts.DGID)
		if perr != nil {
			return nil, &ResolutionError{"invalid dst gid: " + opts.DGID}
		}

		res, err = d.client.PathRecordByGIDs(sgid, dgid)

	default:
		res, err = d.client.GetAllRecords(sa.AttrPathRecord, false)
	}

	if err != nil {
		return nil, err
	}

	dump.Records(d.out, res.Records)

	return &ResultSet{Records: res.Records}, nil
}

func (d *Dispatcher) classPortInfo() (*ResultSet, error) {
	res, err := d.client.ClassPortInfo()
	if err != nil {
		return nil, err
	}

	dump.Records(d.out, res.Records)

	return &ResultSet{Records: res.Records}, nil
}

// smRecords returns the PortInfoRecords of all ports having capMask set.
func (d *Dispatcher) smRecords(capMask uint32) (*sa.Result, error) {
	pir := &sa.PortInfoRecord{}
	pir.PortInfo.CapabilityMask = capMask

	return d.client.GetTable(sa.AttrPortInfoRecord, sa.PortInfoAllPorts, sa.PIRCompMaskCapMask, pir, false)
}

func (d *Dispatcher) smPorts() (*ResultSet, error) {
	rs := &ResultSet{}

	res, err := d.smRecords(infiniband.PortCapIsSM)
	if err != nil {
		return nil, err
	}

	fmt.Fprint(d.out, "IsSM ports\n")
	dump.Records(d.out, res.Records)
	rs.Records = append(rs.Records, res.Records...)

	res, err = d.smRecords(infiniband.PortCapSMDisabled)
	if err != nil {
		return nil, err
	}

	fmt.Fprint(d.out, "\nIsSMdisabled ports\n")
	dump.Records(d.out, res.Records)
	rs.Records = append(rs.Records, res.Records...)

	return rs, nil
}

func (d *Dispatcher) multicast(opts *Options, members bool) (*ResultSet, error) {
	mc, err := d.client.GetAllRecords(sa.AttrMCMemberRecord, members)
	if err != nil {
		return nil, err
	}

	res, err := d.client.GetAllRecords(sa.AttrNodeRecord, false)
	if err != nil {
		return nil, err
	}

	nodes := res.NodeRecords()

	groups := make([]*sa.MCMemberRecord, 0, len(mc.Records))
	for _, rec := range mc.Records {
		groups = append(groups, rec.(*sa.MCMemberRecord))
	}

	if members {
		dump.MCMembers(d.out, groups, nodes, opts.Nodes.Name)
	} else {
		for _, m := range groups {
			dump.MCGroup(d.out, m)
		}
	}

	return &ResultSet{Records: mc.Records, Nodes: nodes}, nil
}

func (d *Dispatcher) all(attr sa.AttrID) (*ResultSet, error) {
	res, err := d.client.GetAllRecords(attr, false)
	if err != nil {
		return nil, err
	}

	dump.Records(d.out, res.Records)

	return &ResultSet{Records: res.Records}, nil
}

func (d *Dispatcher) links(opts *Options) (*ResultSet, error) {
	var (
		lr       sa.LinkRecord
		compMask uint64
	)

	fromLID, fromPort, toLID, toPort := 0, -1, 0, -1

	if len(opts.Args) > 0 {
		lid, port, _, err := d.ParseLIDAndPorts(opts.Args[0])
		if err != nil {
			return nil, err
		}
		fromLID, fromPort = lid, port
	}

	if len(opts.Args) > 1 {
		lid, port, _, err := d.ParseLIDAndPorts(opts.Args[1])
		if err != nil {
			return nil, err
		}
		toLID, toPort = lid, port
	}

	if fromLID > 0 {
		lr.FromLID = uint16(fromLID)
		compMask |= sa.LRCompMaskFromLID
	}
	if fromPort >= 0 {
		lr.FromPort = uint8(fromPort)
		compMask |= sa.LRCompMaskFromPort
	}
	if toLID > 0 {
		lr.ToLID = uint16(toLID)
		compMask |= sa.LRCompMaskToLID
	}
	if toPort >= 0 {
		lr.ToPort = uint8(toPort)
		compMask |= sa.LRCompMaskToPort
	}

	res, err := d.client.GetTable(sa.AttrLinkRecord, 0, compMask, &lr, false)
	if err != nil {
		return nil, err
	}

	dump.Records(d.out, res.Records)

	rs := &ResultSet{Records: res.Records}

	if d.FetchNodes {
		nr, err := d.client.GetAllRecords(sa.AttrNodeRecord, false)
		if err != nil {
			return nil, err
		}
		rs.Nodes = nr.NodeRecords()
	}

	return rs, nil
}

// tableFilter parses the first positional filter as lid/a/b.
func (d *Dispatcher) tableFilter(opts *Options) (lid, a, b int, err error) {
	if len(opts.Args) == 0 {
		return 0, -1, -1, nil
	}

	return d.ParseLIDAndPorts(opts.Args[0])
}

func (d *Dispatcher) sl2vl(opts *Options) (*ResultSet, error) {
	var (
		slvl     sa.SLVLTableRecord
		compMask uint64
	)

	lid, inPort, outPort, err := d.tableFilter(opts)
	if err != nil {
		return nil, err
	}

	if lid > 0 {
		slvl.LID = uint16(lid)
		compMask |= sa.SLVLCompMaskLID
	}
	if inPort >= 0 {
		slvl.InPort = uint8(inPort)
		compMask |= sa.SLVLCompMaskInPort
	}
	if outPort >= 0 {
		slvl.OutPort = uint8(outPort)
		compMask |= sa.SLVLCompMaskOutPort
	}

	return d.table(sa.AttrSLVLTableRecord, compMask, &slvl, false)
}

func (d *Dispatcher) vlArb(opts *Options) (*ResultSet, error) {
	var (
		vla      sa.VLArbTableRecord
		compMask uint64
	)

	lid, port, block, err := d.tableFilter(opts)
	if err != nil {
		return nil, err
	}

	if lid > 0 {
		vla.LID = uint16(lid)
		compMask |= sa.VLACompMaskLID
	}
	if port >= 0 {
		vla.PortNum = uint8(port)
		compMask |= sa.VLACompMaskOutPort
	}
	if block >= 0 {
		vla.BlockNum = uint8(block)
		compMask |= sa.VLACompMaskBlock
	}

	return d.table(sa.AttrVLArbTableRecord, compMask, &vla, false)
}

func (d *Dispatcher) pkeyTable(opts *Options) (*ResultSet, error) {
	var (
		pktr     sa.PKeyTableRecord
		compMask uint64
	)

	lid, port, block, err := d.tableFilter(opts)
	if err != nil {
		return nil, err
	}

	if lid > 0 {
		pktr.LID = uint16(lid)
		compMask |= sa.PKeyCompMaskLID
	}
	if port >= 0 {
		pktr.PortNum = uint8(port)
		compMask |= sa.PKeyCompMaskPort
	}
	if block >= 0 {
		pktr.BlockNum = uint16(block)
		compMask |= sa.PKeyCompMaskBlock
	}

	return d.table(sa.AttrPKeyTableRecord, compMask, &pktr, true)
}

func (d *Dispatcher) table(attr sa.AttrID, compMask uint64, filter encoding.BinaryMarshaler, trusted bool) (*ResultSet, error) {
	res, err := d.client.GetTable(attr, 0, compMask, filter, trusted)
	if err != nil {
		return nil, err
	}

	dump.Records(d.out, res.Records)

	return &ResultSet{Records: res.Records}, nil
}
