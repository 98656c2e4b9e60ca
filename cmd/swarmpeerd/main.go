// Command swarmpeerd runs a single tracker-mediated swarm peer.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	swarmpeer "github.com/mistnet/swarmpeer"
	"github.com/mistnet/swarmpeer/internal/logger"
	"github.com/mistnet/swarmpeer/node"
)

var log = logger.New("main")

type options struct {
	Port             *uint16 `short:"p" long:"port" description:"peer listening port"`
	Tracker          string  `short:"t" long:"tracker" description:"tracker address, ip:port, domain:port, ip, domain, or port"`
	Verbose          string  `short:"v" long:"verbose" description:"log level: error|warn|info|debug|trace"`
	MaxConnections   *int    `short:"m" long:"max-connection" description:"number of worker threads"`
	Config           string  `short:"c" long:"config" default:"config.ini" description:"path to the INI config file"`
	LengthTCP        *int    `short:"l" long:"length-tcp" description:"length-tcp config value; stored in the config, not used by the node"`
	UpdatePeriodSecs *int    `short:"u" long:"update-period-secs" description:"seconds between tracker updates and have broadcasts"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	cfg, err := swarmpeer.LoadConfig(opts.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "swarmpeerd: %v\n", err)
		os.Exit(1)
	}
	applyOverrides(cfg, &opts)

	logger.SetLevel(cfg.LogLevel)
	log.Infof("starting with config: %+v", cfg)

	n := node.New(node.Config{
		PeerAddress:    cfg.PeerAddress,
		PeerPort:       cfg.PeerPort,
		TrackerAddress: cfg.TrackerAddress,
		TrackerPort:    cfg.TrackerPort,
		Workers:        cfg.MaxConnections,
		FileDir:        ".",
		UpdatePeriod:   time.Duration(cfg.UpdatePeriodSecs) * time.Second,
	})

	if err := n.Start(); err != nil {
		log.Errorf("failed to start: %v", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	if err := n.Close(); err != nil {
		log.Warnf("error during shutdown: %v", err)
	}
}

func applyOverrides(cfg *swarmpeer.Config, opts *options) {
	if opts.Port != nil {
		cfg.PeerPort = *opts.Port
	}
	if opts.Tracker != "" {
		parseTrackerFlag(cfg, opts.Tracker)
	}
	if opts.Verbose != "" {
		cfg.LogLevel = opts.Verbose
	}
	if opts.MaxConnections != nil {
		cfg.MaxConnections = *opts.MaxConnections
	}
	if opts.LengthTCP != nil {
		cfg.LengthTCP = *opts.LengthTCP
	}
	if opts.UpdatePeriodSecs != nil {
		cfg.UpdatePeriodSecs = *opts.UpdatePeriodSecs
	}
}
