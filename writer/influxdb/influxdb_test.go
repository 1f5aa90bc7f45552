// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package influxdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dswarbrick/saquery/config"
	"github.com/dswarbrick/saquery/query"
	"github.com/dswarbrick/saquery/sa"
)

func TestMakeBatch(t *testing.T) {
	w := &InfluxDBWriter{Config: config.InfluxDBConf{Database: "saquery", RetentionPolicy: "autogen"}}

	n := &sa.NodeRecord{LID: 5}
	n.NodeType = 1
	n.NodeGUID = 0x200
	copy(n.NodeDesc[:], "host1 mlx5_0")

	rs := query.ResultSet{
		Hostname:   "host1",
		CAName:     "mlx5_0",
		SourcePort: 1,
		Kind:       query.KindNode,
		Time:       time.Unix(1500000000, 0),
		Records:    []sa.Record{n},
	}

	batch, err := w.makeBatch(rs)
	require.NoError(t, err)
	require.Equal(t, "saquery", batch.Database())
	require.Equal(t, "autogen", batch.RetentionPolicy())

	points := batch.Points()
	require.Len(t, points, 2)

	require.Equal(t, "saquery_node", points[0].Name())
	require.Equal(t, "5", points[0].Tags()["lid"])
	require.Equal(t, "host1 mlx5_0", points[0].Tags()["node_desc"])
	require.Equal(t, "Channel Adapter", points[0].Tags()["node_type"])
	require.Equal(t, "mlx5_0", points[0].Tags()["hca"])

	require.Equal(t, "saquery_results", points[1].Name())
	require.Equal(t, "node", points[1].Tags()["kind"])

	fields, err := points[1].Fields()
	require.NoError(t, err)
	require.EqualValues(t, 1, fields["count"])
}

func TestRecordPoint(t *testing.T) {
	tags, fields := recordPoint(&sa.LinkRecord{FromLID: 1, FromPort: 2, ToPort: 3, ToLID: 4})
	require.Equal(t, map[string]string{"from_lid": "1", "from_port": "2"}, tags)
	require.Equal(t, map[string]interface{}{"to_lid": int64(4), "to_port": int64(3)}, fields)

	pk := &sa.PKeyTableRecord{LID: 2}
	pk.PKeys[0] = 0xffff
	pk.PKeys[1] = 0x8000
	_, fields = recordPoint(pk)
	require.Equal(t, int64(1), fields["pkeys"])

	pi := &sa.PortInfoRecord{LID: 7, PortNum: 1}
	pi.PortInfo.PortState = 4
	pi.PortInfo.PortPhysState = 5
	tags, fields = recordPoint(pi)
	require.Equal(t, map[string]string{"lid": "7", "port": "1"}, tags)
	require.Equal(t, "Active", fields["state"])
	require.Equal(t, "LinkUp", fields["phys_state"])
}
