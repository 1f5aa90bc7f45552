// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// saquery - query InfiniBand subnet administration (SA) attributes.
// Note: Due to the usual permissions on /dev/infiniband/umad*, this will probably need to be
// executed as root.
package main

import (
	"context"
	"fmt"
	"io"
	"log/syslog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	lSyslog "github.com/sirupsen/logrus/hooks/syslog"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/dswarbrick/saquery/config"
	"github.com/dswarbrick/saquery/dump"
	"github.com/dswarbrick/saquery/infiniband"
	"github.com/dswarbrick/saquery/infiniband/umad"
	"github.com/dswarbrick/saquery/query"
	"github.com/dswarbrick/saquery/sa"
	"github.com/dswarbrick/saquery/version"
	"github.com/dswarbrick/saquery/writer"
	"github.com/dswarbrick/saquery/writer/forcegraph"
	"github.com/dswarbrick/saquery/writer/influxdb"
)

// Exit status for usage errors and local port setup failures (-1)
const exitUsage = 255

// cli holds the parsed command line.
type cli struct {
	configFile string
	watch      time.Duration

	// Query kinds
	path, cpi, service, informInfo, node, sm, groups, members, link bool
	srcToDst, sgidToDgid                                            string

	// Node presentation modes
	list, lids, uniqueLID, guids, nameOfLID, nameOfGUID bool

	ca          string
	port        int
	timeout     uint
	smKey       string
	nodeNameMap string
	debug       bool

	args []string
}

func newApp(c *cli) *kingpin.Application {
	app := kingpin.New("saquery", "Query InfiniBand subnet administration attributes. Queries node records by default.\n\n"+
		query.CommandsHelp())

	app.Version(version.Print("saquery"))
	app.VersionFlag.Short('V')
	app.HelpFlag.Short('h')

	app.Flag("config", "Path to config file.").Default(config.DefaultConfigFile).StringVar(&c.configFile)
	app.Flag("watch", "Repeat the query at this interval until interrupted.").DurationVar(&c.watch)

	app.Flag("path", "get PathRecord info").Short('p').BoolVar(&c.path)
	app.Flag("class-port-info", "get the SA's class port info").Short('c').BoolVar(&c.cpi)
	app.Flag("service", "get ServiceRecord info").Short('S').BoolVar(&c.service)
	app.Flag("inform-info", "get InformInfoRecord (subscription) info").Short('I').BoolVar(&c.informInfo)
	app.Flag("node", "get NodeRecord info").Short('N').BoolVar(&c.node)
	app.Flag("sm", "return the PortInfoRecords with isSM or isSMdisabled capability mask bit on").Short('s').BoolVar(&c.sm)
	app.Flag("mcast-groups", "get multicast group info").Short('g').BoolVar(&c.groups)
	app.Flag("mcast-members", "get multicast member info (if a multicast group is specified, list member GIDs only, e.g. 'saquery -m 0xC000')").
		Short('m').BoolVar(&c.members)
	app.Flag("link", "get LinkRecord info").Short('x').BoolVar(&c.link)
	app.Flag("src-to-dst", "get a PathRecord for <src:dst>, where src and dst are either node names or LIDs").
		PlaceHolder("SRC:DST").StringVar(&c.srcToDst)
	app.Flag("sgid-to-dgid", "get a PathRecord for <sgid-dgid>, where sgid and dgid are addresses in IPv6 format").
		PlaceHolder("SGID-DGID").StringVar(&c.sgidToDgid)

	app.Flag("list", "the node desc of the CA's").Short('D').BoolVar(&c.list)
	app.Flag("lids", "return the Lids of the name specified").Short('L').BoolVar(&c.lids)
	app.Flag("unique-lid", "return the unique Lid of the name specified").Short('l').BoolVar(&c.uniqueLID)
	app.Flag("guids", "return the Guids of the name specified").Short('G').BoolVar(&c.guids)
	app.Flag("name-of-lid", "return name for the Lid specified").Short('O').BoolVar(&c.nameOfLID)
	app.Flag("name-of-guid", "return name for the Guid specified").Short('U').BoolVar(&c.nameOfGUID)

	app.Flag("ca", "specify the SA query HCA").Short('C').StringVar(&c.ca)
	app.Flag("port", "specify the SA query port").Short('P').IntVar(&c.port)
	app.Flag("timeout", "specify the SA query response timeout in ms (default 1000)").Short('t').UintVar(&c.timeout)
	app.Flag("smkey", "specify SM_Key value for the query. If a non-numeric value (like 'x') is specified, saquery will prompt for a value").
		StringVar(&c.smKey)
	app.Flag("node-name-map", "specify a node name map").StringVar(&c.nodeNameMap)
	app.Flag("debug", "enable debugging").Short('d').BoolVar(&c.debug)

	app.Arg("query", "[query-name] [<name> | <lid> | <guid>] [filters...]").StringsVar(&c.args)

	return app
}

// kinds returns the query kinds selected by flag, in precedence order.
func (c *cli) kinds() []query.Kind {
	var kinds []query.Kind

	for _, f := range []struct {
		set  bool
		kind query.Kind
	}{
		{c.path || c.srcToDst != "" || c.sgidToDgid != "", query.KindPath},
		{c.cpi, query.KindClassPortInfo},
		{c.service, query.KindService},
		{c.informInfo, query.KindInformInfo},
		{c.node, query.KindNode},
		{c.sm, query.KindSMPorts},
		// Member view wins whenever -m is given
		{c.members, query.KindMCMembers},
		{c.groups, query.KindMCGroups},
		{c.link, query.KindLink},
	} {
		if f.set {
			kinds = append(kinds, f.kind)
		}
	}

	return kinds
}

// nodeMode returns the node presentation mode. If several are given, the first of -D, -L, -l, -G,
// -O, -U wins.
func (c *cli) nodeMode() dump.NodeMode {
	switch {
	case c.list:
		return dump.NodeAllDesc
	case c.lids:
		return dump.NodeLIDOnly
	case c.uniqueLID:
		return dump.NodeUniqueLIDOnly
	case c.guids:
		return dump.NodeGUIDOnly
	case c.nameOfLID:
		return dump.NodeNameOfLID
	case c.nameOfGUID:
		return dump.NodeNameOfGUID
	}

	return dump.NodeAll
}

// options builds the query options from the command line.
func (c *cli) options() (*query.Options, error) {
	opts, err := query.Select(c.kinds(), c.nodeMode(), c.args)
	if err != nil {
		return nil, err
	}

	if c.srcToDst != "" {
		if err := opts.SetSrcToDst(c.srcToDst); err != nil {
			return nil, err
		}
	}

	if c.sgidToDgid != "" {
		if err := opts.SetSGIDToDGID(c.sgidToDgid); err != nil {
			return nil, err
		}
	}

	return opts, nil
}

// loadConfig reads the config file, and applies command line overrides. A missing config file is
// only an error if it was named explicitly.
func (c *cli) loadConfig() (*config.SaqueryConf, error) {
	conf, err := config.ReadConfig(c.configFile)
	if err != nil {
		if c.configFile != config.DefaultConfigFile || !os.IsNotExist(errors.Cause(err)) {
			return nil, err
		}
		conf = config.Default()
	}

	if c.ca != "" {
		conf.CA = c.ca
	}
	if c.port != 0 {
		conf.Port = c.port
	}
	if c.timeout != 0 {
		conf.Timeout = config.Duration(time.Duration(c.timeout) * time.Millisecond)
	}
	if c.smKey != "" {
		conf.SMKey = c.smKey
	}
	if c.nodeNameMap != "" {
		conf.NodeNameMap = c.nodeNameMap
	}
	if c.debug {
		conf.Logging.LogLevel = config.LogLevel(log.DebugLevel)
	}

	return conf, nil
}

func setupLogging(conf *config.SaqueryConf, watch bool) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: !watch, FullTimestamp: watch})
	log.SetLevel(log.Level(conf.Logging.LogLevel))

	if conf.Logging.EnableSyslog {
		hook, err := lSyslog.NewSyslogHook("", "", syslog.LOG_INFO, "saquery")
		if err != nil {
			log.WithError(err).Warn("Cannot connect to syslog")
		} else {
			log.AddHook(hook)
		}
	}
}

// exitStatus maps the outcome of a query to the process exit status.
func exitStatus(err error) int {
	switch {
	case err == nil:
		return 0
	case query.IsUsage(err):
		return exitUsage
	}

	return sa.ExitCode(err)
}

// startWriters starts a goroutine per configured result writer, returning their input channels
// and a function which closes the channels and waits for the writers to finish.
func startWriters(conf *config.SaqueryConf, names *infiniband.NodeNameMap) ([]chan query.ResultSet, func()) {
	var (
		writers  []writer.ResultWriter
		channels []chan query.ResultSet
		wg       sync.WaitGroup
	)

	if conf.Topology.Enabled {
		writers = append(writers, &forcegraph.ForceGraphWriter{OutputDir: conf.Topology.OutputDir, Names: names})
	}

	for _, c := range conf.InfluxDB {
		writers = append(writers, &influxdb.InfluxDBWriter{Config: c})
	}

	for _, w := range writers {
		ch := make(chan query.ResultSet)
		channels = append(channels, ch)

		wg.Add(1)
		go func(w writer.ResultWriter) {
			defer wg.Done()
			w.Receiver(ch)
		}(w)
	}

	return channels, func() {
		for _, ch := range channels {
			close(ch)
		}
		wg.Wait()
	}
}

// runQuery runs one query, fanning out the result set to the writers.
func runQuery(d *query.Dispatcher, opts *query.Options, channels []chan query.ResultSet) error {
	rs, err := d.Run(opts)
	if err != nil {
		log.Error(err)
		return err
	}

	for _, ch := range channels {
		ch <- *rs
	}

	return nil
}

// watchLoop repeats the query every interval until ctx is cancelled. A query in flight is not
// interrupted.
func watchLoop(ctx context.Context, interval time.Duration, fn func() error) error {
	err := fn()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return err
		case <-ticker.C:
			err = fn()
		}
	}
}

func run(args []string, stdout io.Writer) int {
	c := &cli{}
	app := newApp(c)

	if _, err := app.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		app.Usage(args)
		return exitUsage
	}

	conf, err := c.loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		return exitUsage
	}

	setupLogging(conf, c.watch > 0)

	opts, err := c.options()
	if err != nil {
		log.Error(err)
		app.Usage(args)
		return exitUsage
	}

	smKey := uint64(sa.DefaultSMKey)
	if conf.SMKey != "" {
		if smKey, err = parseSMKey(conf.SMKey, promptSMKey); err != nil {
			log.Error(err)
			app.Usage(args)
			return exitUsage
		}
	}

	names, err := infiniband.NewNodeNameMap(conf.NodeNameMap)
	if err != nil {
		log.WithError(err).Error("Cannot open node name map")
		return exitUsage
	}
	defer names.Close()

	port, err := umad.Open(conf.CA, conf.Port, time.Duration(conf.Timeout))
	if err != nil {
		log.Error(err)
		return exitUsage
	}
	defer port.Close()

	hostname, _ := os.Hostname()

	client := sa.NewClient(port, smKey)
	log.WithField("smkey", fmt.Sprintf("%#016x", client.SMKey())).Debug("Trusted queries use SM_Key")

	d := query.NewDispatcher(client, stdout, names)
	d.Hostname = hostname
	d.CAName = port.CAName
	d.SourcePort = port.PortNum
	d.FetchNodes = conf.Topology.Enabled

	channels, stopWriters := startWriters(conf, names)
	defer stopWriters()

	if c.watch <= 0 {
		return exitStatus(runQuery(d, opts, channels))
	}

	if err := names.Watch(); err != nil {
		log.WithError(err).Warn("Cannot watch node name map")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"kind":     opts.Kind,
		"interval": c.watch,
		"ca":       port.CAName,
		"port":     port.PortNum,
	}).Info("Watching")

	err = watchLoop(ctx, c.watch, func() error {
		return runQuery(d, opts, channels)
	})

	log.Info("Exiting")

	return exitStatus(err)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}
