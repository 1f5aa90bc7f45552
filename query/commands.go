// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package query maps a requested query kind and its filter arguments onto SA requests, and prints
// the records returned.
package query

import (
	"fmt"
	"strings"
)

// Kind is a query kind.
type Kind int

const (
	KindNode Kind = iota
	KindPath
	KindClassPortInfo
	KindSMPorts
	KindMCGroups
	KindMCMembers
	KindService
	KindInformInfo
	KindLink
	KindSL2VL
	KindPKeyTable
	KindVLArb
)

var kindNames = [...]string{
	"node",
	"path",
	"class_port_info",
	"sm_ports",
	"mcast_groups",
	"mcast_members",
	"service",
	"inform_info",
	"link",
	"sl2vl",
	"pkey_table",
	"vlarb",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// Command is a query which may be selected by name on the command line.
type Command struct {
	Name  string
	Alias string
	Kind  Kind
	Usage string
}

// Commands lists the positional query names, in lookup order.
var Commands = []Command{
	{"ClassPortInfo", "CPI", KindClassPortInfo, ""},
	{"NodeRecord", "NR", KindNode, ""},
	{"PortInfoRecord", "PIR", KindSMPorts, ""},
	{"SL2VLTableRecord", "SL2VL", KindSL2VL, "[[lid]/[in_port]/[out_port]]"},
	{"PKeyTableRecord", "PKTR", KindPKeyTable, "[[lid]/[port]/[block]]"},
	{"VLArbitrationTableRecord", "VLAR", KindVLArb, "[[lid]/[port]/[block]]"},
	{"InformInfoRecord", "IIR", KindInformInfo, ""},
	{"LinkRecord", "LR", KindLink, "[[from_lid]/[from_port]] [[to_lid]/[to_port]]"},
	{"ServiceRecord", "SR", KindService, ""},
	{"PathRecord", "PR", KindPath, ""},
	{"MCMemberRecord", "MCMR", KindMCGroups, ""},
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// FindCommand returns the first command whose name or alias starts with name, ignoring case. It
// returns nil if there is no such command.
func FindCommand(name string) *Command {
	for i := range Commands {
		if hasPrefixFold(Commands[i].Name, name) || hasPrefixFold(Commands[i].Alias, name) {
			return &Commands[i]
		}
	}

	return nil
}

// CommandsHelp renders the list of query names and aliases for the usage text.
func CommandsHelp() string {
	var sb strings.Builder

	sb.WriteString("Supported query names (and aliases):\n")
	for _, c := range Commands {
		fmt.Fprintf(&sb, "  %s (%s) %s\n", c.Name, c.Alias, c.Usage)
	}

	return sb.String()
}
