// Package peerwire implements the peer-to-peer side of the protocol: tasks
// that read an incoming connection, answer have/interested/getpieces
// requests, and drive the download loop against a remote peer.
package peerwire

import (
	"path/filepath"

	"github.com/mistnet/swarmpeer/internal/fsio"
	"github.com/mistnet/swarmpeer/internal/logger"
	"github.com/mistnet/swarmpeer/internal/scheduler"
	"github.com/mistnet/swarmpeer/internal/swarm"
)

var log = logger.New("peerwire")

// MaxGetpiecesRetry bounds how many consecutive empty reads a Getpieces
// task tolerates on an idle connection before giving it up.
const MaxGetpiecesRetry = 20

// IdleReceiveTimeoutMs is the read deadline applied while a Getpieces task
// waits for the next request on a connection it already answered.
const IdleReceiveTimeoutMs = 250

// Deps bundles everything a task needs to act on the local swarm state: the
// store, the pool it reschedules itself onto, and where files live on
// disk.
type Deps struct {
	Store   *swarm.Store
	Pool    *scheduler.Pool
	FileDir string
}

// PathFor resolves a file's on-disk path from its registered name.
func (d *Deps) PathFor(meta swarm.FileMeta) string {
	return filepath.Join(d.FileDir, meta.Name)
}

// LocalBuffermap returns the local peer's buffermap for a file, or a fresh
// all-zero map sized to the file's BufferLen if the local peer has not
// recorded one yet.
func (d *Deps) LocalBuffermap(meta swarm.FileMeta) swarm.Buffermap {
	if bm, ok := d.Store.GetBuffermap(meta.Hash, d.Store.Self()); ok {
		return bm
	}
	return swarm.NewZeroBuffermap(meta.BufferLen())
}

// ReadPieces loads the requested piece indices for a file from disk.
func (d *Deps) ReadPieces(meta swarm.FileMeta, indices []int) ([]fsio.Chunk, error) {
	return fsio.ReadChunks(d.PathFor(meta), int(meta.PieceSize), indices)
}
