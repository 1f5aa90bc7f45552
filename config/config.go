// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package config handles the configuration parsing for saquery.
package config

import (
	"io/ioutil"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v2"
)

const (
	DefaultConfigFile = "/etc/saquery.yml"
	DefaultTimeout    = 1000 * time.Millisecond
)

// SaqueryConf is the main configuration struct for saquery. Command line flags take precedence
// over all values.
type SaqueryConf struct {
	CA          string   `yaml:"ca"`
	Port        int      `yaml:"port"`
	Timeout     Duration `yaml:"timeout"`
	SMKey       string   `yaml:"smkey"`
	NodeNameMap string   `yaml:"node_name_map"`
	InfluxDB    []InfluxDBConf
	Logging     LoggingConf
	Topology    TopologyConf
}

func (conf *SaqueryConf) validate() error {
	if conf.Timeout <= 0 {
		return errors.New("timeout must be greater than zero")
	}

	for i, db := range conf.InfluxDB {
		if db.URL == "" || db.Database == "" {
			return errors.Errorf("influxdb entry %d: url and database are required", i)
		}
	}

	return nil
}

// InfluxDBConf holds the configuration values for a single InfluxDB instance.
type InfluxDBConf struct {
	URL             string
	Database        string
	Username        string
	Password        string
	RetentionPolicy string `yaml:"retention_policy"`
}

type LoggingConf struct {
	EnableSyslog bool     `yaml:"enable_syslog"`
	LogLevel     LogLevel `yaml:"log_level"`
}

type TopologyConf struct {
	Enabled   bool
	OutputDir string `yaml:"output_dir"`
}

func (conf *TopologyConf) validate() error {
	if conf.Enabled {
		if err := unix.Access(conf.OutputDir, unix.W_OK); err != nil {
			return errors.Wrap(err, "topology output directory")
		}
	}

	return nil
}

// LogLevel is a wrapper type for logrus.Level.
type LogLevel logrus.Level

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	return logrus.Level(l).String()
}

// UnmarshalText parses a byte slice value into a logrus.Level value.
func (l *LogLevel) UnmarshalText(text []byte) error {
	level, err := logrus.ParseLevel(string(text))

	if err == nil {
		*l = LogLevel(level)
	}

	return err
}

// Duration is a time.Duration which may be written either as a Go duration string ("1.5s") or as
// a bare number of milliseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	if ms, err := strconv.ParseUint(s, 10, 32); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", s)
	}

	*d = Duration(v)

	return nil
}

// Default returns the configuration used when no config file is present.
func Default() *SaqueryConf {
	return &SaqueryConf{
		Timeout: Duration(DefaultTimeout),
		Logging: LoggingConf{
			LogLevel: LogLevel(logrus.InfoLevel),
		},
	}
}

func ReadConfig(configFile string) (*SaqueryConf, error) {
	content, err := ioutil.ReadFile(configFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	conf := Default()

	if err := yaml.Unmarshal(content, conf); err != nil {
		return nil, errors.Wrapf(err, "error parsing config file %s", configFile)
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}

	if err := conf.Topology.validate(); err != nil {
		return nil, err
	}

	return conf, nil
}
