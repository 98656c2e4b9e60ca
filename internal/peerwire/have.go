package peerwire

import (
	"net"

	"github.com/mistnet/swarmpeer/internal/swarm"
	"github.com/mistnet/swarmpeer/internal/wire"
)

// HaveTask records a remote peer's announced buffermap and answers with
// the local peer's own buffermap for the same file.
type HaveTask struct {
	Deps      *Deps
	Conn      net.Conn
	Key       swarm.FileID
	Buffermap swarm.Buffermap
	Peer      swarm.PeerAddr
}

func (t *HaveTask) Run() {
	defer t.Conn.Close()

	peerKey := t.Peer.PeerKey()
	t.Deps.Store.UpsertPeer(peerKey, t.Peer)
	if err := t.Deps.Store.SetBuffermap(t.Key, peerKey, t.Buffermap); err != nil {
		log.Warnf("recording have from %s for %s: %v", peerKey, t.Key, err)
	}

	meta, ok := t.Deps.Store.File(t.Key)
	var local swarm.Buffermap
	if ok {
		local = t.Deps.LocalBuffermap(meta)
	} else {
		local = swarm.NewZeroBuffermap(int64(len(t.Buffermap)))
	}

	reply := wire.FormatHave(string(t.Key), local)
	if _, err := t.Conn.Write([]byte(reply)); err != nil {
		log.Warnf("replying to have from %s: %v", peerKey, err)
	}
}
