// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package main

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/dswarbrick/saquery/dump"
	"github.com/dswarbrick/saquery/query"
)

func parseArgs(t *testing.T, args ...string) *cli {
	c := &cli{}
	_, err := newApp(c).Parse(args)
	require.NoError(t, err)
	return c
}

func TestFlagSelection(t *testing.T) {
	tests := []struct {
		args  []string
		kind  query.Kind
		mode  dump.NodeMode
		name  string
		extra []string
	}{
		{nil, query.KindNode, dump.NodeAll, "", nil},
		{[]string{"-L", "node01"}, query.KindNode, dump.NodeLIDOnly, "node01", []string{"node01"}},
		{[]string{"-x", "-s"}, query.KindSMPorts, dump.NodeAll, "", nil},
		{[]string{"-D", "-G", "hca"}, query.KindNode, dump.NodeAllDesc, "hca", []string{"hca"}},
		{[]string{"LR", "4", "1"}, query.KindLink, dump.NodeAll, "4", []string{"4", "1"}},
		{[]string{"-m", "-g"}, query.KindMCMembers, dump.NodeAll, "", nil},
		{[]string{"-g", "-m"}, query.KindMCMembers, dump.NodeAll, "", nil},
		{[]string{"-g"}, query.KindMCGroups, dump.NodeAll, "", nil},
	}

	for _, tt := range tests {
		c := parseArgs(t, tt.args...)

		opts, err := c.options()
		require.NoError(t, err, "%v", tt.args)
		require.Equal(t, tt.kind, opts.Kind, "%v", tt.args)
		require.Equal(t, tt.mode, opts.Nodes.Mode, "%v", tt.args)
		require.Equal(t, tt.name, opts.Nodes.Name, "%v", tt.args)
		if tt.extra == nil {
			require.Empty(t, opts.Args, "%v", tt.args)
		} else {
			require.Equal(t, tt.extra, opts.Args, "%v", tt.args)
		}
	}
}

func TestPathFlags(t *testing.T) {
	c := parseArgs(t, "--src-to-dst", "node01:node02")
	opts, err := c.options()
	require.NoError(t, err)
	require.Equal(t, query.KindPath, opts.Kind)
	require.Equal(t, "node01", opts.Src)
	require.Equal(t, "node02", opts.Dst)

	c = parseArgs(t, "--sgid-to-dgid", "fe80::1-fe80::2")
	opts, err = c.options()
	require.NoError(t, err)
	require.Equal(t, query.KindPath, opts.Kind)
	require.Equal(t, "fe80::1", opts.SGID)
	require.Equal(t, "fe80::2", opts.DGID)

	c = parseArgs(t, "--src-to-dst", "node01")
	_, err = c.options()
	require.True(t, query.IsUsage(err))
}

func TestNameOfLIDRequiresLID(t *testing.T) {
	c := parseArgs(t, "-O")
	_, err := c.options()
	require.EqualError(t, err, "lid not specified")
	require.Equal(t, exitUsage, exitStatus(err))

	c = parseArgs(t, "-O", "0x12")
	opts, err := c.options()
	require.NoError(t, err)
	require.EqualValues(t, 0x12, opts.Nodes.LID)
}

func TestLoadConfigOverrides(t *testing.T) {
	c := parseArgs(t, "--config", "config/testdata/saquery.yml",
		"-C", "mlx5_1", "-P", "2", "-t", "250", "--smkey", "0x10", "-d")

	conf, err := c.loadConfig()
	require.NoError(t, err)
	require.Equal(t, "mlx5_1", conf.CA)
	require.Equal(t, 2, conf.Port)
	require.Equal(t, 250*time.Millisecond, time.Duration(conf.Timeout))
	require.Equal(t, "0x10", conf.SMKey)
	require.Equal(t, "debug", conf.Logging.LogLevel.String())
}

func TestLoadConfigMissing(t *testing.T) {
	c := parseArgs(t, "--config", "testdata/does-not-exist.yml")
	_, err := c.loadConfig()
	require.Error(t, err)
}

func TestParseSMKey(t *testing.T) {
	noPrompt := func() (string, error) {
		t.Fatal("unexpected prompt")
		return "", nil
	}

	key, err := parseSMKey("0x1234", noPrompt)
	require.NoError(t, err)
	require.EqualValues(t, 0x1234, key)

	key, err = parseSMKey("42", noPrompt)
	require.NoError(t, err)
	require.EqualValues(t, 42, key)

	key, err = parseSMKey("x", func() (string, error) { return " 0xdeadbeef\n", nil })
	require.NoError(t, err)
	require.EqualValues(t, 0xdeadbeef, key)

	_, err = parseSMKey("x", func() (string, error) { return "", errors.New("no tty") })
	require.Error(t, err)

	_, err = parseSMKey("0xzz", noPrompt)
	require.True(t, query.IsUsage(err))
}

func TestExitStatus(t *testing.T) {
	require.Equal(t, 0, exitStatus(nil))
	require.Equal(t, exitUsage, exitStatus(&query.UsageError{Msg: "name not specified"}))
	require.Equal(t, exitUsage, exitStatus(&query.ResolutionError{Msg: "invalid src gid: x"}))
	require.Equal(t, 1, exitStatus(query.ErrUnknown))
	require.Equal(t, 1, exitStatus(errors.New("timeout")))
}

func TestWatchLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	errTimeout := errors.New("timeout")

	var n int
	err := watchLoop(ctx, time.Millisecond, func() error {
		n++
		if n == 3 {
			cancel()
		}
		return errTimeout
	})

	require.Equal(t, errTimeout, err)
	require.GreaterOrEqual(t, n, 3)
}
