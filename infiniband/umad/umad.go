// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package umad is a cgo wrapper around libibumad, providing an SA MAD transport bound to a local
// CA port. Due to the usual permissions on /dev/infiniband/umad*, this will probably need to be
// executed as root.
package umad

// #cgo CFLAGS: -I/usr/include/infiniband
// #cgo LDFLAGS: -libumad
// #include <stdlib.h>
// #include <string.h>
// #include <umad.h>
import "C"

import (
	"time"
	"unsafe"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/dswarbrick/saquery/infiniband"
	"github.com/dswarbrick/saquery/sa"
)

const (
	rmppVersion = 1
	sendRetries = 1
)

// SA MADs are sent to QP1 using the well-known GSI Q_Key
var (
	saQP   = 1
	saQKey = uint32(0x80010000)
)

// ErrNoActivePort is returned by Open when no matching ACTIVE port was found.
var ErrNoActivePort = errors.New("Failed to find active port, check port status with \"ibstat\"")

// Port is an open umad port with a registered SA agent.
type Port struct {
	CAName   string
	PortNum  int
	PortGUID uint64
	SMLID    uint16
	SMSL     uint8

	fd      C.int
	agent   C.int
	timeout time.Duration
}

func errnoErr(rc C.int, what string) error {
	return errors.Wrap(unix.Errno(-rc), what)
}

// caNames returns the local CA names, from sysfs if possible, else from libibumad.
func caNames() []string {
	if names, err := infiniband.GetCANames(); err == nil && len(names) > 0 {
		return names
	}

	var cas [C.UMAD_MAX_DEVICES][C.UMAD_CA_NAME_LEN]C.char

	n := C.umad_get_cas_names(&cas[0], C.UMAD_MAX_DEVICES)

	names := make([]string, 0, int(n))
	for i := 0; i < int(n); i++ {
		names = append(names, C.GoString(&cas[i][0]))
	}

	return names
}

// findActivePort walks the ports of each CA (optionally only caName) and fills p from the first
// ACTIVE port matching portNum (any port if portNum <= 0).
func (p *Port) findActivePort(caName string, portNum int) bool {
	for _, name := range caNames() {
		if caName != "" && name != caName {
			continue
		}

		var ca C.umad_ca_t

		cName := C.CString(name)
		rc := C.umad_get_ca(cName, &ca)
		C.free(unsafe.Pointer(cName))

		if rc < 0 {
			log.WithError(errnoErr(rc, "umad_get_ca")).WithField("ca", name).Warn("Cannot get CA attributes")
			continue
		}

		found := false

		// ca.ports may contain noncontiguous umad_port pointers
		for _, port := range ca.ports {
			if port == nil {
				continue
			}

			if portNum > 0 && int(port.portnum) != portNum {
				continue
			}

			log.WithFields(log.Fields{
				"ca":    name,
				"port":  int(port.portnum),
				"state": infiniband.PortStateToStr(uint(port.state)),
			}).Debug("Checking port")

			if port.state != infiniband.LinkActive {
				continue
			}

			p.CAName = name
			p.PortNum = int(port.portnum)
			p.PortGUID = infiniband.Ntohll(uint64(port.port_guid))
			p.SMLID = uint16(port.sm_lid)
			p.SMSL = uint8(port.sm_sl)
			found = true

			break
		}

		C.umad_release_ca(&ca)

		if found {
			return true
		}
	}

	return false
}

// Open selects the first ACTIVE port matching caName and portNum (either of which may be left
// unset), opens it and registers an SA agent with kernel RMPP handling.
func Open(caName string, portNum int, timeout time.Duration) (*Port, error) {
	if C.umad_init() < 0 {
		return nil, errors.New("Failed to initialize libibumad")
	}

	p := &Port{timeout: timeout, fd: -1, agent: -1}

	if !p.findActivePort(caName, portNum) {
		C.umad_done()
		return nil, ErrNoActivePort
	}

	cName := C.CString(p.CAName)
	defer C.free(unsafe.Pointer(cName))

	p.fd = C.umad_open_port(cName, C.int(p.PortNum))
	if p.fd < 0 {
		err := errnoErr(p.fd, "umad_open_port")
		C.umad_done()
		return nil, err
	}

	p.agent = C.umad_register(p.fd, C.UMAD_CLASS_SUBN_ADM, C.int(sa.SAClassVersion), rmppVersion, nil)
	if p.agent < 0 {
		err := errnoErr(p.agent, "umad_register")
		C.umad_close_port(p.fd)
		C.umad_done()
		return nil, err
	}

	log.WithFields(log.Fields{
		"ca":     p.CAName,
		"port":   p.PortNum,
		"sm_lid": p.SMLID,
		"sm_sl":  p.SMSL,
	}).Debug("Bound to SA")

	return p, nil
}

// Exchange sends an SA MAD to the SM and waits for the (RMPP reassembled) response.
func (p *Port) Exchange(mad []byte) ([]byte, error) {
	if len(mad) != sa.MADSize {
		return nil, errors.Errorf("invalid MAD size %d", len(mad))
	}

	timeoutMs := C.int(p.timeout / time.Millisecond)

	umad := C.umad_alloc(1, C.umad_size()+C.size_t(sa.MADSize))
	if umad == nil {
		return nil, errors.New("cannot allocate umad buffer")
	}
	defer func() { C.umad_free(umad) }()

	C.memcpy(C.umad_get_mad(umad), unsafe.Pointer(&mad[0]), C.size_t(len(mad)))
	C.umad_set_addr(umad, C.int(p.SMLID), C.int(saQP), C.int(p.SMSL), C.int(saQKey))

	if rc := C.umad_send(p.fd, p.agent, umad, C.int(len(mad)), timeoutMs, sendRetries); rc < 0 {
		return nil, errnoErr(rc, "umad_send")
	}

	tid := sa.TransactionID(mad)
	size := C.int(sa.MADSize)

	for {
		length := size

		if rc := C.umad_recv(p.fd, umad, &length, timeoutMs); rc < 0 {
			if unix.Errno(-rc) != unix.ENOSPC {
				return nil, errnoErr(rc, "umad_recv")
			}

			// Grow the buffer to hold the complete RMPP payload and retry
			log.WithField("length", int(length)).Debug("Growing receive buffer")

			C.umad_free(umad)
			size = length
			umad = C.umad_alloc(1, C.umad_size()+C.size_t(size))
			if umad == nil {
				return nil, errors.New("cannot allocate umad buffer")
			}
			continue
		}

		resp := C.GoBytes(C.umad_get_mad(umad), length)

		// A late reply to an earlier, timed out query
		if respTID := sa.TransactionID(resp); respTID != tid {
			log.WithFields(log.Fields{"tid": respTID, "expected": tid}).Debug("Dropping stale response")
			continue
		}

		if status := C.umad_status(umad); status != 0 {
			return nil, errnoErr(-status, "umad_recv status")
		}

		return resp, nil
	}
}

// Close unregisters the SA agent and closes the port.
func (p *Port) Close() error {
	if p.agent >= 0 {
		C.umad_unregister(p.fd, p.agent)
	}

	var err error
	if p.fd >= 0 {
		if rc := C.umad_close_port(p.fd); rc < 0 {
			err = errnoErr(rc, "umad_close_port")
		}
	}

	C.umad_done()

	return err
}
