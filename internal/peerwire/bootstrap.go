package peerwire

import (
	"bufio"
	"net"
	"strconv"
	"time"

	"github.com/mistnet/swarmpeer/internal/swarm"
	"github.com/mistnet/swarmpeer/internal/wire"
)

// connectTimeout bounds the initial dial to a remote peer.
const connectTimeout = 3 * time.Second

// BootstrapTask opens a connection to a remote peer known to have a file
// the local peer wants, announces interest, records the peer's reply
// buffermap, and fans out a handful of DataWriteTask workers to race the
// download against each other over independent connections.
type BootstrapTask struct {
	Deps   *Deps
	Peer   swarm.PeerAddr
	FileID swarm.FileID

	// Workers is how many concurrent DataWriteTask downloaders to start
	// against this peer, matching the source system's fixed fan-out of 3.
	Workers int
}

func (t *BootstrapTask) Run() {
	meta, ok := t.Deps.Store.File(t.FileID)
	if !ok {
		log.Warnf("bootstrap for unknown file %s", t.FileID)
		return
	}

	addr := net.JoinHostPort(t.Peer.Address, strconv.Itoa(int(t.Peer.Port)))
	conn, err := net.DialTimeout("tcp", addr, connectTimeout)
	if err != nil {
		log.Warnf("could not connect to %s: %v", addr, err)
		return
	}

	if _, err := conn.Write([]byte(wire.FormatInterested(string(t.FileID)))); err != nil {
		log.Warnf("sending interested to %s: %v", addr, err)
		conn.Close()
		return
	}

	reply, err := readLine(conn, 3*time.Second)
	if err == nil {
		if msg, perr := wire.Parse([]byte(reply)); perr == nil && msg.Verb == wire.VerbHave {
			peerKey := t.Peer.PeerKey()
			t.Deps.Store.UpsertPeer(peerKey, t.Peer)
			if serr := t.Deps.Store.SetBuffermap(t.FileID, peerKey, msg.Buffermap); serr != nil {
				log.Warnf("recording bootstrap buffermap from %s: %v", addr, serr)
			}
		}
	}
	conn.Close()

	workers := t.Workers
	if workers <= 0 {
		workers = 3
	}
	nbPieces := int(meta.BufferLen())
	for i := 0; i < workers; i++ {
		t.Deps.Pool.Enqueue(&DataWriteTask{Deps: t.Deps, Peer: t.Peer, FileID: t.FileID, BatchSize: nbPieces})
	}
}

func readLine(conn net.Conn, timeout time.Duration) (string, error) {
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return line, nil
}
