package peerwire

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"github.com/mistnet/swarmpeer/internal/scheduler"
	"github.com/mistnet/swarmpeer/internal/swarm"
	"github.com/mistnet/swarmpeer/internal/wire"
)

// GetpiecesTask serves one getpieces request, then keeps the connection
// alive waiting up to IdleReceiveTimeoutMs for the next one. Once more than
// MaxGetpiecesRetry consecutive reads have come back empty it gives up and
// closes the connection.
type GetpiecesTask struct {
	Deps      *Deps
	Conn      net.Conn
	Key       swarm.FileID
	ChunkSize int
	Indices   []int
	Retry     int
}

func (t *GetpiecesTask) Run() {
	if t.Retry > MaxGetpiecesRetry {
		t.Conn.Close()
		return
	}

	if t.Retry == 0 && len(t.Indices) > 0 {
		if err := t.serve(); err != nil {
			log.Warnf("serving getpieces for %s: %v", t.Key, err)
			t.Conn.Close()
			return
		}
	}

	_ = t.Conn.SetReadDeadline(time.Now().Add(IdleReceiveTimeoutMs * time.Millisecond))
	line, err := bufio.NewReader(t.Conn).ReadString('\n')
	if err != nil && line == "" {
		t.Deps.Pool.Enqueue(&GetpiecesTask{Deps: t.Deps, Conn: t.Conn, Key: t.Key, ChunkSize: t.ChunkSize, Retry: t.Retry + 1})
		return
	}

	msg, err := wire.Parse([]byte(line))
	if err != nil {
		log.Warnf("dropping unparseable follow-up from %s: %v", t.Conn.RemoteAddr(), err)
		t.Conn.Close()
		return
	}

	var next scheduler.Task
	switch msg.Verb {
	case wire.VerbGetpieces:
		chunkSize := t.ChunkSize
		if meta, ok := t.Deps.Store.File(swarm.FileID(msg.Key)); ok {
			chunkSize = int(meta.PieceSize)
		}
		next = &GetpiecesTask{Deps: t.Deps, Conn: t.Conn, Key: swarm.FileID(msg.Key), ChunkSize: chunkSize, Indices: msg.Indices}
	case wire.VerbHave:
		next = &HaveTask{Deps: t.Deps, Conn: t.Conn, Key: swarm.FileID(msg.Key), Buffermap: msg.Buffermap, Peer: remotePeerAddr(t.Conn)}
	default:
		t.Conn.Close()
		return
	}
	t.Deps.Pool.Enqueue(next)
}

func (t *GetpiecesTask) serve() error {
	meta, ok := t.Deps.Store.File(t.Key)
	if !ok {
		return fmt.Errorf("peerwire: unknown file %s", t.Key)
	}
	chunks, err := t.Deps.ReadPieces(meta, t.Indices)
	if err != nil {
		return err
	}
	wireChunks := make([]wire.IndexedChunk, len(chunks))
	for i, c := range chunks {
		wireChunks[i] = wire.IndexedChunk{Index: c.Index, Data: c.Data}
	}
	message := wire.FormatData(string(t.Key), wireChunks)
	_, err = t.Conn.Write([]byte(message))
	return err
}
