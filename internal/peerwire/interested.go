package peerwire

import (
	"net"

	"github.com/mistnet/swarmpeer/internal/swarm"
	"github.com/mistnet/swarmpeer/internal/wire"
)

// InterestedTask answers an interested request with the local peer's
// buffermap for the requested file, mirrored as a have message so the
// caller can seed its own view of this peer's availability.
type InterestedTask struct {
	Deps *Deps
	Conn net.Conn
	Key  swarm.FileID
}

func (t *InterestedTask) Run() {
	meta, ok := t.Deps.Store.File(t.Key)
	if !ok {
		log.Warnf("interested request for unknown file %s", t.Key)
		t.Conn.Close()
		return
	}
	local := t.Deps.LocalBuffermap(meta)
	reply := wire.FormatHave(string(t.Key), local)
	if _, err := t.Conn.Write([]byte(reply)); err != nil {
		log.Warnf("replying to interested for %s: %v", t.Key, err)
	}

	// Keep the connection open: the caller follows up with getpieces
	// requests on the same socket, handled by GetpiecesTask.
	t.Deps.Pool.Enqueue(&ToBeProcessedTask{Deps: t.Deps, Conn: t.Conn})
}
