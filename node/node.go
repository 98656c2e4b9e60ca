// Package node wires the swarm store, worker pool, tracker client, and
// network listener into a single running peer.
package node

import (
	"fmt"
	"time"

	"github.com/mistnet/swarmpeer/internal/acceptor"
	"github.com/mistnet/swarmpeer/internal/fsio"
	"github.com/mistnet/swarmpeer/internal/logger"
	"github.com/mistnet/swarmpeer/internal/peerwire"
	"github.com/mistnet/swarmpeer/internal/scheduler"
	"github.com/mistnet/swarmpeer/internal/swarm"
	"github.com/mistnet/swarmpeer/internal/trackerclient"
	"github.com/mistnet/swarmpeer/internal/wire"
)

var log = logger.New("node")

// Config configures a Node's network identity and background cadence.
type Config struct {
	PeerAddress      string
	PeerPort         uint16
	TrackerAddress   string
	TrackerPort      uint16
	Workers          int
	FileDir          string
	UpdatePeriod     time.Duration
	HaveBroadcastInterval time.Duration
}

// Node is a single running peer: its swarm state, worker pool, tracker
// client, and listening socket.
type Node struct {
	cfg     Config
	store   *swarm.Store
	pool    *scheduler.Pool
	tracker *trackerclient.Client
	deps    *peerwire.Deps
	accept  *acceptor.Acceptor

	broadcaster *peerwire.HaveBroadcaster
	updater     *peerwire.UpdateDriver
}

// New constructs a Node but does not start listening or any background
// loop; call Start for that.
func New(cfg Config) *Node {
	self := swarm.PeerAddr{Address: cfg.PeerAddress, Port: cfg.PeerPort}
	store := swarm.New(self)
	pool := scheduler.New(cfg.Workers)
	deps := &peerwire.Deps{Store: store, Pool: pool, FileDir: cfg.FileDir}
	tracker := trackerclient.New(cfg.TrackerAddress, cfg.TrackerPort)

	return &Node{
		cfg:     cfg,
		store:   store,
		pool:    pool,
		tracker: tracker,
		deps:    deps,
	}
}

// Store exposes the underlying swarm state store, e.g. for status reporting.
func (n *Node) Store() *swarm.Store {
	return n.store
}

// AddSeedFile hashes and registers a local file as fully available, then
// announces it to the tracker.
func (n *Node) AddSeedFile(path, name string, pieceSize int64) (swarm.FileMeta, error) {
	hash, err := fsio.HashFile(path)
	if err != nil {
		return swarm.FileMeta{}, fmt.Errorf("node: hashing %s: %w", path, err)
	}
	info, err := statSize(path)
	if err != nil {
		return swarm.FileMeta{}, fmt.Errorf("node: stat %s: %w", path, err)
	}

	meta := swarm.FileMeta{Hash: swarm.FileID(hash), Name: name, Length: info, PieceSize: pieceSize}
	n.store.UpsertFile(meta)
	if err := n.store.SetBuffermap(meta.Hash, n.store.Self(), swarm.NewFullBuffermap(meta.BufferLen())); err != nil {
		return swarm.FileMeta{}, err
	}

	if err := n.tracker.GetFile(string(meta.Hash)); err != nil {
		log.Warnf("registering %s with tracker: %v", meta.Name, err)
	}
	return meta, n.announceNow()
}

// AddLeechFile registers a file the local peer wants but does not have yet,
// then looks up peers for it from the tracker and bootstraps a download
// from each.
func (n *Node) AddLeechFile(meta swarm.FileMeta) error {
	n.store.UpsertFile(meta)
	if err := n.store.SetBuffermap(meta.Hash, n.store.Self(), swarm.NewZeroBuffermap(meta.BufferLen())); err != nil {
		return err
	}
	if err := n.announceNow(); err != nil {
		log.Warnf("announcing leech of %s: %v", meta.Name, err)
	}

	peers, err := n.tracker.Peers(string(meta.Hash))
	if err != nil {
		return fmt.Errorf("node: fetching peers for %s: %w", meta.Name, err)
	}
	for _, p := range peers {
		addr := swarm.PeerAddr{Address: p.Address, Port: p.Port}
		n.pool.Enqueue(&peerwire.BootstrapTask{Deps: n.deps, Peer: addr, FileID: meta.Hash})
	}
	return nil
}

// Lookup asks the tracker which files match a name and/or size. Files the
// store does not know yet are registered with an all-zero local buffermap.
func (n *Node) Lookup(filename, filesize string) ([]swarm.FileMeta, error) {
	entries, err := n.tracker.Look(filename, filesize)
	if err != nil {
		return nil, err
	}
	out := make([]swarm.FileMeta, len(entries))
	for i, e := range entries {
		out[i] = swarm.FileMeta{Hash: swarm.FileID(e.Hash), Name: e.Name, Length: e.Length, PieceSize: e.PieceSize}
		if _, known := n.store.File(out[i].Hash); !known {
			n.store.UpsertFile(out[i])
			if err := n.store.SetBuffermap(out[i].Hash, n.store.Self(), swarm.NewZeroBuffermap(out[i].BufferLen())); err != nil {
				log.Warnf("registering looked-up file %s: %v", out[i].Name, err)
			}
		}
	}
	return out, nil
}

func (n *Node) announceNow() error {
	seeded := toWireEntries(n.store.SeedingFiles())
	leeched := fileHashes(n.store.LeechingFiles())
	return n.tracker.Announce(n.cfg.PeerPort, seeded, leeched)
}

func toWireEntries(metas []swarm.FileMeta) []wire.FileEntry {
	out := make([]wire.FileEntry, len(metas))
	for i, m := range metas {
		out[i] = wire.FileEntry{Name: m.Name, Length: m.Length, PieceSize: m.PieceSize, Hash: string(m.Hash)}
	}
	return out
}

func fileHashes(metas []swarm.FileMeta) []string {
	out := make([]string, len(metas))
	for i, m := range metas {
		out[i] = string(m.Hash)
	}
	return out
}

// Start binds the listening socket and begins the background have and
// update loops.
func (n *Node) Start() error {
	accept, err := acceptor.Listen(n.deps, n.cfg.PeerAddress, n.cfg.PeerPort)
	if err != nil {
		return err
	}
	n.accept = accept
	go n.accept.Run()

	updatePeriod := n.cfg.UpdatePeriod
	if updatePeriod <= 0 {
		updatePeriod = 30 * time.Second
	}

	interval := n.cfg.HaveBroadcastInterval
	if interval <= 0 {
		interval = updatePeriod
	}
	n.broadcaster = peerwire.NewHaveBroadcaster(n.deps, interval)
	go n.broadcaster.Start()

	n.updater = peerwire.NewUpdateDriver(n.deps, n.tracker, updatePeriod)
	go n.updater.Start()

	log.Infof("node started on %s", n.accept.Addr())
	return nil
}

// Close stops all background loops, the listener, and the worker pool.
func (n *Node) Close() error {
	if n.broadcaster != nil {
		n.broadcaster.Stop()
	}
	if n.updater != nil {
		n.updater.Stop()
	}
	var closeErr error
	if n.accept != nil {
		closeErr = n.accept.Close()
	}
	n.pool.Close()
	return closeErr
}
