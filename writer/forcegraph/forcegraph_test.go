// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package forcegraph

import (
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dswarbrick/saquery/infiniband"
	"github.com/dswarbrick/saquery/query"
	"github.com/dswarbrick/saquery/sa"
)

func node(lid uint16, nodeType uint8, guid uint64, desc string) *sa.NodeRecord {
	n := &sa.NodeRecord{LID: lid}
	n.NodeType = nodeType
	n.NodeGUID = guid
	n.PortGUID = guid + uint64(lid)
	n.VendorID = 0x02c9
	copy(n.NodeDesc[:], desc)

	return n
}

func testResultSet() query.ResultSet {
	return query.ResultSet{
		Hostname:   "host1",
		CAName:     "mlx5_0",
		SourcePort: 1,
		Kind:       query.KindLink,
		Nodes: []*sa.NodeRecord{
			node(1, infiniband.NodeTypeSwitch, 0x100, "spine01"),
			node(5, infiniband.NodeTypeCA, 0x200, "host1 mlx5_0"),
			node(6, infiniband.NodeTypeCA, 0x200, "host1 mlx5_0"),
		},
		Records: []sa.Record{
			&sa.LinkRecord{FromLID: 1, FromPort: 3, ToLID: 5, ToPort: 1},
			&sa.LinkRecord{FromLID: 5, FromPort: 1, ToLID: 1, ToPort: 3},
			&sa.LinkRecord{FromLID: 6, FromPort: 2, ToLID: 1, ToPort: 4},
			&sa.LinkRecord{FromLID: 9, FromPort: 1, ToLID: 1, ToPort: 5},
		},
	}
}

func TestBuildTopology(t *testing.T) {
	rs := testResultSet()
	topo := buildTopology(rs.Nodes, rs.Records, nil)

	// The CA's two ports share one node
	require.Len(t, topo.Nodes, 2)
	require.Equal(t, "0000000000000100", topo.Nodes[0].ID)
	require.Equal(t, "spine01", topo.Nodes[0].Desc)
	require.Equal(t, infiniband.NodeTypeCA, topo.Nodes[1].NodeType)
	require.Equal(t, uint(0x02c9), topo.Nodes[1].VendorID)

	require.Equal(t, []d3Link{
		{Source: "0000000000000100", Target: "0000000000000200", SourcePort: 3, TargetPort: 1},
		{Source: "0000000000000200", Target: "0000000000000100", SourcePort: 2, TargetPort: 4},
	}, topo.Links)
}

func TestWriteTopology(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, writeTopology(dir, testResultSet(), nil))

	content, err := ioutil.ReadFile(filepath.Join(dir, "host1-mlx5_0-p1.json"))
	require.NoError(t, err)

	var topo d3Topology
	require.NoError(t, json.Unmarshal(content, &topo))
	require.Len(t, topo.Nodes, 2)
	require.Len(t, topo.Links, 2)

	// No temporary files are left behind
	files, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestReceiverSkipsOtherKinds(t *testing.T) {
	dir := t.TempDir()
	fg := &ForceGraphWriter{OutputDir: dir}

	rs := testResultSet()
	rs.Kind = query.KindNode

	ch := make(chan query.ResultSet, 1)
	ch <- rs
	close(ch)
	fg.Receiver(ch)

	files, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, files)
}
