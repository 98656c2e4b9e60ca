package peerwire

import (
	"bufio"
	"net"
	"time"

	"github.com/mistnet/swarmpeer/internal/scheduler"
	"github.com/mistnet/swarmpeer/internal/swarm"
	"github.com/mistnet/swarmpeer/internal/wire"
)

// ToBeProcessedTask reads exactly one request line off a freshly accepted
// connection, parses it, and hands the resulting concrete task to the pool.
// It never answers the request itself.
type ToBeProcessedTask struct {
	Deps *Deps
	Conn net.Conn
}

func (t *ToBeProcessedTask) Run() {
	_ = t.Conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	line, err := bufio.NewReader(t.Conn).ReadString('\n')
	if err != nil && line == "" {
		log.Debugf("closing idle connection from %s: %v", t.Conn.RemoteAddr(), err)
		t.Conn.Close()
		return
	}

	msg, err := wire.Parse([]byte(line))
	if err != nil {
		log.Warnf("dropping unparseable request from %s: %v", t.Conn.RemoteAddr(), err)
		t.Conn.Close()
		return
	}

	peerAddr := remotePeerAddr(t.Conn)

	var next scheduler.Task
	switch msg.Verb {
	case wire.VerbHave:
		next = &HaveTask{Deps: t.Deps, Conn: t.Conn, Key: swarm.FileID(msg.Key), Buffermap: msg.Buffermap, Peer: peerAddr}
	case wire.VerbInterested:
		next = &InterestedTask{Deps: t.Deps, Conn: t.Conn, Key: swarm.FileID(msg.Key)}
	case wire.VerbGetpieces:
		chunkSize := 1024
		if meta, ok := t.Deps.Store.File(swarm.FileID(msg.Key)); ok {
			chunkSize = int(meta.PieceSize)
		}
		next = &GetpiecesTask{Deps: t.Deps, Conn: t.Conn, Key: swarm.FileID(msg.Key), ChunkSize: chunkSize, Indices: msg.Indices}
	default:
		log.Warnf("unexpected verb %s from %s on accept path", msg.Verb, t.Conn.RemoteAddr())
		t.Conn.Close()
		return
	}
	t.Deps.Pool.Enqueue(next)
}

func remotePeerAddr(conn net.Conn) swarm.PeerAddr {
	addr, ok := conn.RemoteAddr().(*net.TCPAddr)
	if !ok {
		return swarm.PeerAddr{}
	}
	return swarm.PeerAddr{Address: addr.IP.String(), Port: uint16(addr.Port)}
}
