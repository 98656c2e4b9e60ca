// Package acceptor binds the peer listening port and hands every accepted
// connection to the worker pool as a ToBeProcessed task.
package acceptor

import (
	"fmt"
	"net"

	"github.com/mistnet/swarmpeer/internal/logger"
	"github.com/mistnet/swarmpeer/internal/peerwire"
)

var log = logger.New("acceptor")

// Acceptor owns the listening socket for incoming peer connections.
type Acceptor struct {
	Deps *peerwire.Deps

	listener net.Listener
	stop     chan struct{}
}

// Listen binds address:port. The caller must call Run to start accepting.
func Listen(deps *peerwire.Deps, address string, port uint16) (*Acceptor, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", address, port))
	if err != nil {
		return nil, fmt.Errorf("acceptor: listen on %s:%d: %w", address, port, err)
	}
	return &Acceptor{Deps: deps, listener: ln, stop: make(chan struct{})}, nil
}

// Run accepts connections until Close is called, enqueueing each one as a
// ToBeProcessedTask. Intended to run in its own goroutine.
func (a *Acceptor) Run() {
	log.Infof("listening on %s", a.listener.Addr())
	for {
		conn, err := a.listener.Accept()
		if err != nil {
			select {
			case <-a.stop:
				return
			default:
				log.Warnf("accept error: %v", err)
				continue
			}
		}
		log.Debugf("incoming connection from %s", conn.RemoteAddr())
		a.Deps.Pool.Enqueue(&peerwire.ToBeProcessedTask{Deps: a.Deps, Conn: conn})
	}
}

// Addr returns the bound local address, useful when the caller asked for
// an ephemeral port.
func (a *Acceptor) Addr() net.Addr {
	return a.listener.Addr()
}

// Close stops accepting new connections.
func (a *Acceptor) Close() error {
	close(a.stop)
	return a.listener.Close()
}
