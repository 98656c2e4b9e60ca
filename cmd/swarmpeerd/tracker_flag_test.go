package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	swarmpeer "github.com/mistnet/swarmpeer"
)

func TestParseTrackerFlagHostPort(t *testing.T) {
	cfg := &swarmpeer.Config{TrackerAddress: "old", TrackerPort: 1}
	parseTrackerFlag(cfg, "tracker.example.com:7000")
	assert.Equal(t, "tracker.example.com", cfg.TrackerAddress)
	assert.Equal(t, uint16(7000), cfg.TrackerPort)
}

func TestParseTrackerFlagHostOnly(t *testing.T) {
	cfg := &swarmpeer.Config{TrackerAddress: "old", TrackerPort: 1}
	parseTrackerFlag(cfg, "192.168.1.1")
	assert.Equal(t, "192.168.1.1", cfg.TrackerAddress)
	assert.Equal(t, uint16(1), cfg.TrackerPort)
}

func TestParseTrackerFlagPortOnly(t *testing.T) {
	cfg := &swarmpeer.Config{TrackerAddress: "old", TrackerPort: 1}
	parseTrackerFlag(cfg, "9999")
	assert.Equal(t, "old", cfg.TrackerAddress)
	assert.Equal(t, uint16(9999), cfg.TrackerPort)
}
