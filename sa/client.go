// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package sa

import (
	"encoding"
	"sync/atomic"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultSMKey is the SM_Key sent with trusted queries when none is configured.
const DefaultSMKey = 1

// Attribute modifier used by OpenSM for PortInfoRecord queries spanning all ports of a node
const PortInfoAllPorts = 1 << 31

// Transport sends one SA MAD and returns the (RMPP reassembled) response MAD. Implementations
// apply their own timeout and retry count.
type Transport interface {
	Exchange(mad []byte) ([]byte, error)
}

// Request describes a single SA query.
type Request struct {
	Method   uint8
	AttrID   AttrID
	AttrMod  uint32
	CompMask uint64
	SMKey    uint64
	Attr     []byte
}

// Result holds the records returned by one query, in response order.
type Result struct {
	AttrID  AttrID
	Status  uint16
	Records []Record
}

// Client is a synchronous SA query client. Only one query is in flight at any time.
type Client struct {
	transport Transport
	smKey     uint64
	tid       uint64
}

// NewClient returns a Client issuing queries over t. smKey is attached to trusted queries.
func NewClient(t Transport, smKey uint64) *Client {
	return &Client{transport: t, smKey: smKey}
}

// SMKey returns the SM_Key used for trusted queries.
func (c *Client) SMKey() uint64 {
	return c.smKey
}

// Query issues req and decodes the response. A response with zero records is not an error.
func (c *Client) Query(req *Request) (*Result, error) {
	tid := atomic.AddUint64(&c.tid, 1)

	mad, err := encodeRequest(req, tid)
	if err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{
		"tid":       tid,
		"attr":      req.AttrID.String(),
		"method":    req.Method,
		"comp_mask": req.CompMask,
		"attr_mod":  req.AttrMod,
	})
	logger.Debug("Sending SA query")

	resp, err := c.transport.Exchange(mad)
	if err != nil {
		return nil, &QueryError{AttrID: req.AttrID, Err: err}
	}

	h, err := parseHeader(resp)
	if err != nil {
		return nil, &QueryError{AttrID: req.AttrID, Err: err}
	}

	if h.TID != tid {
		return nil, &QueryError{
			AttrID: req.AttrID,
			Err:    errors.Errorf("stale response (tid %#x, expected %#x)", h.TID, tid),
		}
	}

	if h.Method&methodRespBit == 0 || h.AttrID != req.AttrID {
		return nil, &QueryError{
			AttrID: req.AttrID,
			Err:    errors.Errorf("unexpected response (method %#02x, %s)", h.Method, h.AttrID),
		}
	}

	if h.Status != 0 {
		return nil, &StatusError{AttrID: req.AttrID, Status: h.Status}
	}

	res := &Result{AttrID: h.AttrID, Status: h.Status}

	for _, raw := range splitRecords(&h, resp) {
		if rec, ok := DecodeRecord(h.AttrID, raw); ok {
			res.Records = append(res.Records, rec)
		}
	}

	logger.WithField("records", len(res.Records)).Debug("SA query complete")

	return res, nil
}

// GetTable issues a GetTable query for attr, using filter (if not nil) and compMask to constrain
// the result. trusted queries carry the SM_Key.
func (c *Client) GetTable(attr AttrID, attrMod uint32, compMask uint64, filter encoding.BinaryMarshaler, trusted bool) (*Result, error) {
	return c.query(MethodGetTable, attr, attrMod, compMask, filter, trusted)
}

// Get issues a Get query, which returns exactly one record.
func (c *Client) Get(attr AttrID, compMask uint64, filter encoding.BinaryMarshaler) (*Result, error) {
	return c.query(MethodGet, attr, 0, compMask, filter, false)
}

// GetAllRecords returns all records of the given attribute.
func (c *Client) GetAllRecords(attr AttrID, trusted bool) (*Result, error) {
	return c.GetTable(attr, 0, 0, nil, trusted)
}

func (c *Client) query(method uint8, attr AttrID, attrMod uint32, compMask uint64, filter encoding.BinaryMarshaler, trusted bool) (*Result, error) {
	req := &Request{
		Method:   method,
		AttrID:   attr,
		AttrMod:  attrMod,
		CompMask: compMask,
	}

	if trusted {
		req.SMKey = c.smKey
	}

	if filter != nil {
		b, err := filter.MarshalBinary()
		if err != nil {
			return nil, errors.Wrapf(err, "cannot encode %s filter", attr)
		}
		req.Attr = b
	}

	return c.Query(req)
}

// PathRecordByLIDs queries the path record(s) between two LIDs.
func (c *Client) PathRecordByLIDs(slid, dlid uint16) (*Result, error) {
	pr := &PathRecord{SLID: slid, DLID: dlid}
	return c.Get(AttrPathRecord, PRCompMaskSLID|PRCompMaskDLID, pr)
}

// PathRecordByGIDs queries the path record(s) between two GIDs.
func (c *Client) PathRecordByGIDs(sgid, dgid GID) (*Result, error) {
	pr := &PathRecord{SGID: sgid, DGID: dgid}
	return c.Get(AttrPathRecord, PRCompMaskSGID|PRCompMaskDGID, pr)
}

// ClassPortInfo queries the SA ClassPortInfo.
func (c *Client) ClassPortInfo() (*Result, error) {
	return c.Get(AttrClassPortInfo, 0, nil)
}

// NodeRecords returns the node records of the result.
func (r *Result) NodeRecords() []*NodeRecord {
	nodes := make([]*NodeRecord, 0, len(r.Records))

	for _, rec := range r.Records {
		if n, ok := rec.(*NodeRecord); ok {
			nodes = append(nodes, n)
		}
	}

	return nodes
}
