// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package forcegraph implements the ForceGraphWriter, which writes the fabric topology described by
// link records to a JSON file suitable for use by the d3.js force graph functions.
package forcegraph

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/dswarbrick/saquery/infiniband"
	"github.com/dswarbrick/saquery/query"
	"github.com/dswarbrick/saquery/sa"
)

type d3Node struct {
	ID       string `json:"id"`
	Desc     string `json:"desc"`
	NodeType int    `json:"nodetype"`
	VendorID uint   `json:"vendor_id"`
	DeviceID uint   `json:"device_id"`
}

type d3Link struct {
	Source     string `json:"source"`
	Target     string `json:"target"`
	SourcePort uint8  `json:"source_port"`
	TargetPort uint8  `json:"target_port"`
}

type linkKey struct {
	a     uint64
	aPort uint8
	b     uint64
	bPort uint8
}

type d3Topology struct {
	Nodes []d3Node `json:"nodes"`
	Links []d3Link `json:"links"`
}

type ForceGraphWriter struct {
	OutputDir string
	Names     *infiniband.NodeNameMap
}

func (fg *ForceGraphWriter) Receiver(input chan query.ResultSet) {
	for rs := range input {
		if rs.Kind != query.KindLink || len(rs.Nodes) == 0 {
			continue
		}

		if fg.OutputDir != "" {
			if err := writeTopology(fg.OutputDir, rs, fg.Names); err != nil {
				log.WithError(err).Error("cannot marshal link records to force graph topology")
			}
		}
	}
}

func guidID(guid uint64) string {
	return fmt.Sprintf("%016x", guid)
}

// buildTopology transforms node and link records into d3.js nodes and links. Switches report one
// node record per switch, CAs one per port, so nodes are keyed by node GUID. Links whose endpoints
// are not among the node records are omitted.
func buildTopology(nodes []*sa.NodeRecord, records []sa.Record, names *infiniband.NodeNameMap) d3Topology {
	topo := d3Topology{Nodes: []d3Node{}, Links: []d3Link{}}

	lidToGUID := make(map[uint16]uint64, len(nodes))
	seen := make(map[uint64]bool, len(nodes))
	seenLinks := make(map[linkKey]bool, len(records))

	for _, n := range nodes {
		lidToGUID[n.LID] = n.NodeGUID

		if seen[n.NodeGUID] {
			continue
		}
		seen[n.NodeGUID] = true

		desc := infiniband.CleanNodeDesc(n.NodeDesc[:])
		if names != nil {
			desc = names.RemapNodeName(n.NodeGUID, desc)
		}

		topo.Nodes = append(topo.Nodes, d3Node{
			ID:       guidID(n.NodeGUID),
			NodeType: int(n.NodeType),
			Desc:     desc,
			VendorID: uint(n.VendorID),
			DeviceID: uint(n.DeviceID),
		})
	}

	for _, rec := range records {
		lr, ok := rec.(*sa.LinkRecord)
		if !ok {
			continue
		}

		from, ok := lidToGUID[lr.FromLID]
		if !ok {
			continue
		}

		to, ok := lidToGUID[lr.ToLID]
		if !ok {
			continue
		}

		// Each physical link is reported once in each direction
		key := linkKey{from, lr.FromPort, to, lr.ToPort}
		if from > to || (from == to && lr.FromPort > lr.ToPort) {
			key = linkKey{to, lr.ToPort, from, lr.FromPort}
		}
		if seenLinks[key] {
			continue
		}
		seenLinks[key] = true

		topo.Links = append(topo.Links, d3Link{
			Source:     guidID(from),
			Target:     guidID(to),
			SourcePort: lr.FromPort,
			TargetPort: lr.ToPort,
		})
	}

	return topo
}

// writeTopology writes a d3.js force graph JSON object file.
func writeTopology(outputDir string, rs query.ResultSet, names *infiniband.NodeNameMap) error {
	// Write d3.js topology to a temporary file, then rename it to target file, to ensure atomic
	// updates and avoid partial reads by clients.
	tempFile, err := ioutil.TempFile(outputDir, ".saquery")
	if err != nil {
		return errors.Wrap(err, "cannot create temporary topology file")
	}

	enc := json.NewEncoder(tempFile)
	if err := enc.Encode(buildTopology(rs.Nodes, rs.Records, names)); err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return err
	}

	tempFile.Close()
	destFile := fmt.Sprintf("%s-%s-p%d.json", rs.Hostname, rs.CAName, rs.SourcePort)

	if err := os.Rename(tempFile.Name(), filepath.Join(outputDir, destFile)); err != nil {
		os.Remove(tempFile.Name())
		return err
	}

	log.WithField("file", destFile).Debug("Wrote force graph topology")

	return nil
}
