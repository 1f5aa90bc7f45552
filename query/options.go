// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package query

import (
	"strconv"
	"strings"

	"github.com/dswarbrick/saquery/dump"
)

// Options holds a fully selected query.
type Options struct {
	Kind  Kind
	Nodes dump.NodeFilter
	// Args holds the positional filter arguments following the query name, if any.
	Args []string

	// Path endpoints, by name or LID, or by GID.
	Src, Dst   string
	SGID, DGID string
}

// parseUint parses s in any base, like strtoul(s, NULL, 0). Invalid input yields 0.
func parseUint(s string) uint64 {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return 0
	}

	return v
}

// Select resolves the query kind and filters. flagged holds the kinds requested by flag, in
// precedence order; the first one wins over any positional query name.
func Select(flagged []Kind, mode dump.NodeMode, args []string) (*Options, error) {
	opts := &Options{Nodes: dump.NodeFilter{Mode: mode}}

	switch {
	case len(flagged) > 0:
		opts.Kind = flagged[0]
	case len(args) > 0 && FindCommand(args[0]) != nil:
		opts.Kind = FindCommand(args[0]).Kind
		args = args[1:]
	default:
		opts.Kind = KindNode
	}

	opts.Args = args

	var haveLID, haveGUID bool

	if len(args) > 0 {
		switch mode {
		case dump.NodeNameOfLID:
			opts.Nodes.LID = uint16(parseUint(args[0]))
			haveLID = true
		case dump.NodeNameOfGUID:
			opts.Nodes.GUID = parseUint(args[0])
			haveGUID = true
		default:
			opts.Nodes.Name = args[0]
		}
	}

	switch mode {
	case dump.NodeLIDOnly, dump.NodeUniqueLIDOnly, dump.NodeGUIDOnly:
		if opts.Nodes.Name == "" {
			return nil, &UsageError{"name not specified"}
		}
	case dump.NodeNameOfLID:
		if !haveLID {
			return nil, &UsageError{"lid not specified"}
		}
		// LID 0 is reserved, cf. IBA 4.1.3
		if opts.Nodes.LID == 0 {
			return nil, &UsageError{"lid invalid"}
		}
	case dump.NodeNameOfGUID:
		if !haveGUID {
			return nil, &UsageError{"guid not specified"}
		}
	}

	return opts, nil
}

// SetSrcToDst sets the path endpoints from a "src:dst" argument. Either side may be empty.
func (o *Options) SetSrcToDst(arg string) error {
	i := strings.IndexByte(arg, ':')
	if i < 0 {
		return &UsageError{"--src-to-dst <node>:<node>"}
	}

	o.Src, o.Dst = arg[:i], arg[i+1:]

	return nil
}

// SetSGIDToDGID sets the path endpoints from a "sgid-dgid" argument.
func (o *Options) SetSGIDToDGID(arg string) error {
	sgid, dgid, ok := splitGIDPair(arg)
	if !ok {
		return &UsageError{"--sgid-to-dgid <GID>-<GID>"}
	}

	o.SGID, o.DGID = sgid, dgid

	return nil
}

// splitGIDPair splits at the first '-' following any leading ones, mirroring strtok(arg, "-").
func splitGIDPair(arg string) (string, string, bool) {
	s := strings.TrimLeft(arg, "-")

	i := strings.IndexByte(s, '-')
	if i <= 0 || i == len(s)-1 {
		return "", "", false
	}

	return s[:i], s[i+1:], true
}
