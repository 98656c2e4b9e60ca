package peerwire

import (
	"net"
	"strconv"
	"time"

	"github.com/mistnet/swarmpeer/internal/swarm"
	"github.com/mistnet/swarmpeer/internal/trackerclient"
	"github.com/mistnet/swarmpeer/internal/wire"
)

// HaveBroadcaster periodically connects to every known peer of every
// leeched file and sends a have announcement, the ambient keep-alive
// announce loop the download tasks otherwise rely on a reply to trigger.
type HaveBroadcaster struct {
	Deps     *Deps
	Interval time.Duration
	stop     chan struct{}
}

// NewHaveBroadcaster builds a broadcaster; call Start to begin its ticker.
func NewHaveBroadcaster(deps *Deps, interval time.Duration) *HaveBroadcaster {
	return &HaveBroadcaster{Deps: deps, Interval: interval, stop: make(chan struct{})}
}

// Start runs the broadcast loop until Stop is called. Intended to run in
// its own goroutine.
func (b *HaveBroadcaster) Start() {
	ticker := time.NewTicker(b.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.broadcastOnce()
		case <-b.stop:
			return
		}
	}
}

// Stop ends the broadcast loop.
func (b *HaveBroadcaster) Stop() {
	close(b.stop)
}

func (b *HaveBroadcaster) broadcastOnce() {
	for _, meta := range b.Deps.Store.LeechingFiles() {
		local := b.Deps.LocalBuffermap(meta)
		message := wire.FormatHave(string(meta.Hash), local)
		for _, peer := range b.Deps.Store.PeersForFile(meta.Hash) {
			sendHave(peer, message)
		}
	}
}

func sendHave(peer swarm.PeerAddr, message string) {
	addr := net.JoinHostPort(peer.Address, strconv.Itoa(int(peer.Port)))
	conn, err := net.DialTimeout("tcp", addr, connectTimeout)
	if err != nil {
		log.Debugf("have broadcast could not reach %s: %v", addr, err)
		return
	}
	defer conn.Close()
	if _, err := conn.Write([]byte(message)); err != nil {
		log.Debugf("have broadcast write to %s failed: %v", addr, err)
	}
}

// UpdateDriver periodically re-announces the local peer's seed/leech set
// to the tracker, independent of any peer-to-peer activity.
type UpdateDriver struct {
	Deps     *Deps
	Tracker  *trackerclient.Client
	Interval time.Duration
	stop     chan struct{}
}

// NewUpdateDriver builds an update driver; call Start to begin its ticker.
func NewUpdateDriver(deps *Deps, tracker *trackerclient.Client, interval time.Duration) *UpdateDriver {
	return &UpdateDriver{Deps: deps, Tracker: tracker, Interval: interval, stop: make(chan struct{})}
}

// Start runs the update loop until Stop is called.
func (d *UpdateDriver) Start() {
	ticker := time.NewTicker(d.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.updateOnce()
		case <-d.stop:
			return
		}
	}
}

// Stop ends the update loop.
func (d *UpdateDriver) Stop() {
	close(d.stop)
}

func (d *UpdateDriver) updateOnce() {
	seeded := fileHashes(d.Deps.Store.SeedingFiles())
	leeched := fileHashes(d.Deps.Store.LeechingFiles())
	if err := d.Tracker.Update(seeded, leeched); err != nil {
		log.Warnf("tracker update failed: %v", err)
	}
}

func fileHashes(metas []swarm.FileMeta) []string {
	out := make([]string, len(metas))
	for i, m := range metas {
		out[i] = string(m.Hash)
	}
	return out
}
