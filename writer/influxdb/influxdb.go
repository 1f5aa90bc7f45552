// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// InfluxDB client functions.

package influxdb

import (
	"fmt"
	"strconv"

	"github.com/influxdata/influxdb/client/v2"
	log "github.com/sirupsen/logrus"

	"github.com/dswarbrick/saquery/config"
	"github.com/dswarbrick/saquery/infiniband"
	"github.com/dswarbrick/saquery/query"
	"github.com/dswarbrick/saquery/sa"
	"github.com/dswarbrick/saquery/version"
)

type InfluxDBWriter struct {
	Config config.InfluxDBConf
}

func (w *InfluxDBWriter) Receiver(input chan query.ResultSet) {
	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:      w.Config.URL,
		Username:  w.Config.Username,
		Password:  w.Config.Password,
		UserAgent: version.UserAgent(),
	})

	if err != nil {
		log.Error(err)
		// Keep draining so that the sender never blocks
		for range input {
		}
		return
	}

	if rtt, ver, err := c.Ping(0); err == nil {
		log.WithFields(log.Fields{"version": ver, "rtt": rtt}).Debug("InfluxDB ping reply")
	}

	for rs := range input {
		batch, err := w.makeBatch(rs)
		if err != nil {
			log.Error(err)
			continue
		}

		log.Debugf("InfluxDB batch contains %d points", len(batch.Points()))

		if err := c.Write(batch); err != nil {
			log.Error(err)
		}
	}

	log.Debug("InfluxDBWriter input channel closed.")
	c.Close()
}

// makeBatch converts a result set to a batch of points: one per record, plus a summary point
// carrying the record count.
func (w *InfluxDBWriter) makeBatch(rs query.ResultSet) (client.BatchPoints, error) {
	batch, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:        w.Config.Database,
		RetentionPolicy: w.Config.RetentionPolicy,
		Precision:       "s",
	})
	if err != nil {
		return nil, err
	}

	measurement := "saquery_" + rs.Kind.String()

	for _, rec := range rs.Records {
		tags, fields := recordPoint(rec)
		if fields == nil {
			continue
		}

		tags["host"] = rs.Hostname
		tags["hca"] = rs.CAName
		tags["src_port"] = strconv.Itoa(rs.SourcePort)

		if point, err := client.NewPoint(measurement, tags, fields, rs.Time); err == nil {
			batch.AddPoint(point)
		}
	}

	tags := map[string]string{
		"host":     rs.Hostname,
		"hca":      rs.CAName,
		"src_port": strconv.Itoa(rs.SourcePort),
		"kind":     rs.Kind.String(),
	}
	fields := map[string]interface{}{"count": len(rs.Records)}

	if point, err := client.NewPoint("saquery_results", tags, fields, rs.Time); err == nil {
		batch.AddPoint(point)
	}

	return batch, nil
}

func hex64(v uint64) string {
	return fmt.Sprintf("%016x", v)
}

// recordPoint returns the tags identifying a record, and its numeric attributes as fields.
// Records of unknown type yield nil fields.
func recordPoint(rec sa.Record) (tags map[string]string, fields map[string]interface{}) {
	tags = map[string]string{}

	switch r := rec.(type) {
	case *sa.NodeRecord:
		tags["lid"] = strconv.Itoa(int(r.LID))
		tags["node_guid"] = hex64(r.NodeGUID)
		tags["port_guid"] = hex64(r.PortGUID)
		tags["node_type"] = infiniband.NodeTypeToStr(r.NodeType)
		tags["node_desc"] = infiniband.CleanNodeDesc(r.NodeDesc[:])
		fields = map[string]interface{}{
			"num_ports": int64(r.NumPorts),
			"vendor_id": int64(r.VendorID),
			"device_id": int64(r.DeviceID),
			"revision":  int64(r.Revision),
		}

	case *sa.PortInfoRecord:
		tags["lid"] = strconv.Itoa(int(r.LID))
		tags["port"] = strconv.Itoa(int(r.PortNum))
		fields = map[string]interface{}{
			"base_lid":           int64(r.PortInfo.BaseLID),
			"master_sm_base_lid": int64(r.PortInfo.MasterSMBaseLID),
			"capability_mask":    int64(r.PortInfo.CapabilityMask),
			"state":              infiniband.PortStateToStr(uint(r.PortInfo.PortState)),
			"phys_state":         infiniband.PortPhysStateToStr(uint(r.PortInfo.PortPhysState)),
		}

	case *sa.LinkRecord:
		tags["from_lid"] = strconv.Itoa(int(r.FromLID))
		tags["from_port"] = strconv.Itoa(int(r.FromPort))
		fields = map[string]interface{}{
			"to_lid":  int64(r.ToLID),
			"to_port": int64(r.ToPort),
		}

	case *sa.PathRecord:
		tags["slid"] = strconv.Itoa(int(r.SLID))
		tags["dlid"] = strconv.Itoa(int(r.DLID))
		fields = map[string]interface{}{
			"mtu":      int64(r.MTU & 0x3f),
			"rate":     int64(r.Rate & 0x3f),
			"sl":       int64(r.SL()),
			"pkt_life": int64(r.PktLife & 0x3f),
			"pkey":     int64(r.PKey),
		}

	case *sa.MCMemberRecord:
		tags["mgid"] = r.MGID.String()
		tags["mlid"] = fmt.Sprintf("0x%X", r.MLID)
		tags["port_gid"] = r.PortGID.String()
		fields = map[string]interface{}{
			"mtu":         int64(r.MTU & 0x3f),
			"rate":        int64(r.Rate & 0x3f),
			"pkey":        int64(r.PKey),
			"sl":          int64(r.SL()),
			"scope_state": int64(r.ScopeState),
		}

	case *sa.ServiceRecord:
		tags["service_id"] = hex64(r.ServiceID)
		tags["service_gid"] = r.ServiceGID.String()
		fields = map[string]interface{}{
			"lease": int64(r.ServiceLease),
			"pkey":  int64(r.ServicePKey),
		}

	case *sa.InformInfoRecord:
		tags["subscriber_gid"] = r.SubscriberGID.String()
		fields = map[string]interface{}{
			"trap_type":  int64(r.InformInfo.TrapType),
			"trap_num":   int64(r.InformInfo.TrapNumDevID),
			"is_generic": int64(r.InformInfo.IsGeneric),
			"qpn":        int64(r.InformInfo.QPN()),
		}

	case *sa.SLVLTableRecord:
		tags["lid"] = strconv.Itoa(int(r.LID))
		tags["in_port"] = strconv.Itoa(int(r.InPort))
		tags["out_port"] = strconv.Itoa(int(r.OutPort))
		fields = make(map[string]interface{}, 16)
		for sl := 0; sl < 16; sl++ {
			fields[fmt.Sprintf("sl%d", sl)] = int64(r.VL(sl))
		}

	case *sa.VLArbTableRecord:
		var active, weight int64
		for _, e := range r.Entries {
			if e.Weight > 0 {
				active++
				weight += int64(e.Weight)
			}
		}
		tags["lid"] = strconv.Itoa(int(r.LID))
		tags["port"] = strconv.Itoa(int(r.PortNum))
		tags["block"] = strconv.Itoa(int(r.BlockNum))
		fields = map[string]interface{}{
			"active_entries": active,
			"total_weight":   weight,
		}

	case *sa.PKeyTableRecord:
		var members int64
		for _, pkey := range r.PKeys {
			// Ignore the membership bit
			if pkey&0x7fff != 0 {
				members++
			}
		}
		tags["lid"] = strconv.Itoa(int(r.LID))
		tags["port"] = strconv.Itoa(int(r.PortNum))
		tags["block"] = strconv.Itoa(int(r.BlockNum))
		fields = map[string]interface{}{
			"pkeys": members,
		}

	case *sa.ClassPortInfo:
		fields = map[string]interface{}{
			"cap_mask":        int64(r.CapMask),
			"cap_mask2":       int64(r.CapMask2()),
			"resp_time_value": int64(r.RespTimeValue()),
		}
	}

	return tags, fields
}
