// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Functions analogous to libosmcomp.

package infiniband

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

const DEFAULT_NODE_NAME_MAP = "/etc/opensm/ib-node-name-map"

// The NodeNameMap type holds a mapping of a 64-bit GUID to an InfiniBand node name / description.
type NodeNameMap struct {
	path    string
	nodes   map[uint64]string
	lock    sync.RWMutex
	watcher *fsnotify.Watcher
}

// NewNodeNameMap opens and parses the SM node name map, returning a NodeNameMap of GUIDs and their
// node descriptions. The format of the node name map file is described in man page
// ibnetdiscover(8). An empty path selects DEFAULT_NODE_NAME_MAP, whose absence is not an error.
func NewNodeNameMap(path string) (*NodeNameMap, error) {
	n := &NodeNameMap{path: path, nodes: make(map[uint64]string)}

	if path == "" {
		n.path = DEFAULT_NODE_NAME_MAP
	}

	if err := n.reload(); err != nil {
		if path == "" && os.IsNotExist(err) {
			return n, nil
		}
		return n, err
	}

	return n, nil
}

// Watch starts an fsnotify watch on the node name map file, reloading the map whenever the file
// changes. It is only worth calling for long-running processes.
func (n *NodeNameMap) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.WithError(err).Error("Cannot create fsnotify watcher")
		return err
	}

	if err := watcher.Add(n.path); err != nil {
		log.WithError(err).Error("Cannot add fsnotify watch for node name map")
	}

	n.lock.Lock()
	n.watcher = watcher
	n.lock.Unlock()

	go n.watch(watcher)

	return nil
}

func (n *NodeNameMap) watch(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			// Ignore chmod, everything else requires a reload
			if event.Op == fsnotify.Chmod {
				break
			}

			log.Infof("NodeNameMap watcher event: %s", event.Op)

			if event.Op&fsnotify.Remove != 0 {
				if err := watcher.Add(n.path); err != nil {
					log.WithError(err).Error("Cannot re-add fsnotify watcher for node name map")
				}
			} else {
				if err := n.reload(); err != nil {
					log.WithError(err).Error("Failed to reload node name map")
				} else {
					log.Info("Node name map reloaded")
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				log.WithError(err).Error("Error watching node name map")
			}
		}
	}
}

// Close stops the fsnotify watch, if any.
func (n *NodeNameMap) Close() error {
	n.lock.Lock()
	defer n.lock.Unlock()

	if n.watcher == nil {
		return nil
	}

	err := n.watcher.Close()
	n.watcher = nil

	return err
}

// RemapNodeName attempts to map the specified GUID to a node description from the NodeNameMap. If
// the GUID is not found in the map, the supplied node description is simply returned unmodified.
func (n *NodeNameMap) RemapNodeName(guid uint64, nodeDesc string) string {
	n.lock.RLock()
	defer n.lock.RUnlock()

	if mapDesc, ok := n.nodes[guid]; ok {
		return mapDesc
	}
	return nodeDesc
}

// Len returns the number of GUIDs in the map.
func (n *NodeNameMap) Len() int {
	n.lock.RLock()
	defer n.lock.RUnlock()

	return len(n.nodes)
}

func (n *NodeNameMap) reload() error {
	nodes := make(map[uint64]string)

	file, err := os.Open(n.path)
	if err != nil {
		return err
	}

	defer file.Close()

	scanner := bufio.NewScanner(file)

	// Tokenize line, honouring quoted strings
	lastQuote := rune(0)
	f := func(c rune) bool {
		switch {
		case c == lastQuote:
			lastQuote = rune(0)
			return false
		case lastQuote != rune(0):
			return false
		case unicode.In(c, unicode.Quotation_Mark):
			lastQuote = c
			return false
		default:
			return unicode.IsSpace(c)
		}
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}

		lastQuote = rune(0)
		fields := strings.FieldsFunc(line, f)
		if len(fields) < 2 || strings.HasPrefix(fields[1], "#") {
			continue
		}

		guid, err := strconv.ParseUint(fields[0], 0, 64)
		if err != nil {
			continue
		}

		nodes[guid] = unquote(fields[1])
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	n.lock.Lock()
	n.nodes = nodes
	n.lock.Unlock()

	return nil
}

// unquote strips one pair of matching quotation marks surrounding s.
func unquote(s string) string {
	r := []rune(s)
	if len(r) >= 2 && unicode.In(r[0], unicode.Quotation_Mark) && r[len(r)-1] == r[0] {
		return string(r[1 : len(r)-1])
	}

	return s
}
