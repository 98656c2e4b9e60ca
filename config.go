package swarmpeer

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// Config is the fully resolved peer configuration: the INI file's [Peer]
// and [Tracker] sections. Every field except PeerAddress can be overridden
// from the command line.
type Config struct {
	PeerAddress string
	PeerPort    uint16

	TrackerAddress string
	TrackerPort    uint16

	MaxConnections   int
	UpdatePeriodSecs int
	LengthTCP        int
	LogLevel         string
}

// DefaultConfig mirrors the values LoadConfig falls back to when a key is
// absent from the INI file.
var DefaultConfig = Config{
	PeerAddress:      "0.0.0.0",
	PeerPort:         6000,
	TrackerAddress:   "127.0.0.1",
	TrackerPort:      6969,
	MaxConnections:   4,
	UpdatePeriodSecs: 30,
	LengthTCP:        4096,
	LogLevel:         "info",
}

// LoadConfig reads an INI file shaped like:
//
//	[Peer]
//	address = 0.0.0.0
//	port = 6000
//	max-connections = 4
//	update-period = 30
//	length-tcp = 4096
//	log-level = info
//
//	[Tracker]
//	address = tracker.example.com
//	port = 6969
func LoadConfig(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}

	peer, err := f.GetSection("Peer")
	if err != nil {
		return nil, fmt.Errorf("config: missing [Peer] section: %w", err)
	}
	tracker, err := f.GetSection("Tracker")
	if err != nil {
		return nil, fmt.Errorf("config: missing [Tracker] section: %w", err)
	}

	c := DefaultConfig
	c.PeerAddress = peer.Key("address").MustString(c.PeerAddress)
	c.PeerPort = uint16(peer.Key("port").MustUint(uint(c.PeerPort)))
	c.TrackerAddress = tracker.Key("address").MustString(c.TrackerAddress)
	c.TrackerPort = uint16(tracker.Key("port").MustUint(uint(c.TrackerPort)))
	c.MaxConnections = peer.Key("max-connections").MustInt(c.MaxConnections)
	c.UpdatePeriodSecs = peer.Key("update-period").MustInt(c.UpdatePeriodSecs)
	c.LengthTCP = peer.Key("length-tcp").MustInt(c.LengthTCP)
	c.LogLevel = peer.Key("log-level").MustString(c.LogLevel)
	return &c, nil
}
