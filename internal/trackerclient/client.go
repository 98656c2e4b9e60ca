// Package trackerclient talks to the tracker over a fresh TCP connection
// per request: connect, send one line, read one reply, close.
package trackerclient

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"github.com/mistnet/swarmpeer/internal/logger"
	"github.com/mistnet/swarmpeer/internal/wire"
)

var log = logger.New("trackerclient")

// DefaultTimeout is the read deadline applied to every tracker round trip
// when the caller does not override it.
const DefaultTimeout = 3000 * time.Millisecond

// Client issues tracker requests against a fixed address.
type Client struct {
	Address string
	Port    uint16
	Timeout time.Duration
}

// New returns a Client with DefaultTimeout applied.
func New(address string, port uint16) *Client {
	return &Client{Address: address, Port: port, Timeout: DefaultTimeout}
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// roundTrip opens one connection, writes line, reads one line back, and
// closes the connection. Every tracker verb is a single request/response
// exchange; there is no persistent tracker session.
func (c *Client) roundTrip(line string) (string, error) {
	addr := fmt.Sprintf("%s:%d", c.Address, c.Port)
	conn, err := net.DialTimeout("tcp", addr, c.timeout())
	if err != nil {
		return "", fmt.Errorf("trackerclient: dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Debugf("sending to %s: %.128s", addr, line)
	if _, err := conn.Write([]byte(line)); err != nil {
		return "", fmt.Errorf("trackerclient: write: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(c.timeout())); err != nil {
		return "", fmt.Errorf("trackerclient: set read deadline: %w", err)
	}
	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && reply == "" {
		return "", fmt.Errorf("trackerclient: read: %w", err)
	}
	log.Debugf("received from %s: %.128s", addr, reply)
	return reply, nil
}

// GetFile registers a newly discovered file with the tracker and expects
// an ok reply.
func (c *Client) GetFile(key string) error {
	reply, err := c.roundTrip(wire.FormatGetFile(key))
	if err != nil {
		return err
	}
	return wire.ParseOk(reply)
}

// Announce registers the local peer's seed/leech set and expects an ok
// reply.
func (c *Client) Announce(peerPort uint16, seeded []wire.FileEntry, leeched []string) error {
	reply, err := c.roundTrip(wire.FormatAnnounce(peerPort, seeded, leeched))
	if err != nil {
		return err
	}
	return wire.ParseOk(reply)
}

// Update re-registers the local peer's seed/leech set by hash, used by the
// periodic announce-refresh loop.
func (c *Client) Update(seededHashes []string, leechedHashes []string) error {
	reply, err := c.roundTrip(wire.FormatUpdate(seededHashes, leechedHashes))
	if err != nil {
		return err
	}
	return wire.ParseOk(reply)
}

// Look queries the tracker for files matching a name and/or size and
// returns the matching file list.
func (c *Client) Look(filename, filesize string) ([]wire.FileEntry, error) {
	reply, err := c.roundTrip(wire.FormatLook(filename, filesize))
	if err != nil {
		return nil, err
	}
	return wire.ParseList(reply)
}

// Peers fetches the known peer set for a file key from the tracker.
func (c *Client) Peers(key string) ([]wire.PeerEntry, error) {
	reply, err := c.roundTrip(fmt.Sprintf("peers %s\n", key))
	if err != nil {
		return nil, err
	}
	_, peers, err := wire.ParsePeers(reply)
	return peers, err
}
