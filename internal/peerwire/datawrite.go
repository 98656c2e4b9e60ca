package peerwire

import (
	"net"
	"strconv"
	"time"

	"github.com/mistnet/swarmpeer/internal/fsio"
	"github.com/mistnet/swarmpeer/internal/piecepicker"
	"github.com/mistnet/swarmpeer/internal/swarm"
	"github.com/mistnet/swarmpeer/internal/wire"
)

// DataWriteTask is the self-rescheduling download loop: pick the rarest
// pieces the local peer lacks (see piecepicker.Select), request them, write the
// reply to disk, update the local buffermap, and reschedule itself. It
// exits quietly once the piece picker has nothing left to offer.
type DataWriteTask struct {
	Deps      *Deps
	Peer      swarm.PeerAddr
	FileID    swarm.FileID
	BatchSize int

	// Conn is reused across reschedules when non-nil; a nil Conn means a
	// fresh connection must be dialed first.
	Conn net.Conn
}

func (t *DataWriteTask) Run() {
	meta, ok := t.Deps.Store.File(t.FileID)
	if !ok {
		log.Warnf("data write for unknown file %s", t.FileID)
		t.closeConn()
		return
	}

	peerKey := t.Peer.PeerKey()
	local := t.Deps.LocalBuffermap(meta)
	target, ok := t.Deps.Store.GetBuffermap(t.FileID, peerKey)
	if !ok {
		t.closeConn()
		return
	}

	all := t.Deps.Store.AllPeerBuffermaps(t.FileID)
	var others [][]byte
	for k, bm := range all {
		if k != peerKey {
			others = append(others, bm)
		}
	}

	indices := piecepicker.Select(string(t.FileID), local, target, others, t.BatchSize)
	if len(indices) == 0 {
		t.closeConn()
		return
	}

	if t.Conn == nil {
		addr := net.JoinHostPort(t.Peer.Address, strconv.Itoa(int(t.Peer.Port)))
		conn, err := net.DialTimeout("tcp", addr, connectTimeout)
		if err != nil {
			log.Warnf("could not connect to %s: %v", addr, err)
			piecepicker.Unreserve(string(t.FileID), indices)
			return
		}
		t.Conn = conn
	}

	request := wire.FormatGetpieces(string(t.FileID), indices)
	if _, err := t.Conn.Write([]byte(request)); err != nil {
		log.Warnf("sending getpieces to %s: %v", peerKey, err)
		piecepicker.Unreserve(string(t.FileID), indices)
		t.closeConn()
		return
	}

	_ = t.Conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	reply, err := readLine(t.Conn, 3*time.Second)
	if err != nil {
		log.Warnf("receiving data from %s: %v", peerKey, err)
		piecepicker.Unreserve(string(t.FileID), indices)
		t.closeConn()
		return
	}

	msg, err := wire.Parse([]byte(reply))
	if err != nil || msg.Verb != wire.VerbData {
		log.Warnf("unexpected reply from %s: %v", peerKey, err)
		piecepicker.Unreserve(string(t.FileID), indices)
		t.closeConn()
		return
	}

	path := t.Deps.PathFor(meta)
	var received []int
	for _, c := range msg.Chunks {
		if err := fsio.WriteChunk(path, int(meta.PieceSize), c.Index, c.Data); err != nil {
			log.Warnf("writing chunk %d of %s: %v", c.Index, t.FileID, err)
			continue
		}
		received = append(received, c.Index)
	}

	piecepicker.Unreserve(string(t.FileID), indices)
	if err := t.Deps.Store.MarkReceived(t.FileID, t.Deps.Store.Self(), received); err != nil {
		log.Warnf("updating local buffermap for %s: %v", t.FileID, err)
	}

	t.Deps.Pool.Enqueue(&DataWriteTask{Deps: t.Deps, Peer: t.Peer, FileID: t.FileID, BatchSize: t.BatchSize, Conn: t.Conn})
}

func (t *DataWriteTask) closeConn() {
	if t.Conn != nil {
		t.Conn.Close()
		t.Conn = nil
	}
}
