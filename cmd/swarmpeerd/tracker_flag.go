package main

import (
	"regexp"
	"strconv"
	"strings"

	swarmpeer "github.com/mistnet/swarmpeer"
)

var (
	reHostPort = regexp.MustCompile(`^(?:\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}|[a-zA-Z0-9.-]+):\d{1,5}$`)
	reHost     = regexp.MustCompile(`^(?:\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}|[a-zA-Z0-9.-]+)$`)
	rePort     = regexp.MustCompile(`^\d{1,5}$`)
)

// parseTrackerFlag accepts "-t" in any of ip:port, domain:port, ip, domain,
// or a bare port, overriding only the parts the flag actually specifies.
func parseTrackerFlag(cfg *swarmpeer.Config, tracker string) {
	switch {
	case reHostPort.MatchString(tracker):
		host, portStr, _ := strings.Cut(tracker, ":")
		cfg.TrackerAddress = host
		if port, err := strconv.ParseUint(portStr, 10, 16); err == nil {
			cfg.TrackerPort = uint16(port)
		}
	case rePort.MatchString(tracker):
		if port, err := strconv.ParseUint(tracker, 10, 16); err == nil {
			cfg.TrackerPort = uint16(port)
		}
	case reHost.MatchString(tracker):
		cfg.TrackerAddress = tracker
	default:
		log.Warnf("wrong tracker flag format %q, keeping config value", tracker)
	}
}
