package node

import (
	"bufio"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTracker replies "ok\r\n" to everything except a "look" line, which it
// answers with a canned list reply, and a "peers" line, answered with an
// empty peer set.
func fakeTracker(t *testing.T) (host string, port uint16, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				line, _ := bufio.NewReader(conn).ReadString('\n')
				switch {
				case len(line) >= 4 && line[:4] == "look":
					conn.Write([]byte("list [found.bin 10 5 0123456789abcdef0123456789abcdef]\r\n"))
				case len(line) >= 5 && line[:5] == "peers":
					conn.Write([]byte("peers somehash []\r\n"))
				default:
					conn.Write([]byte("ok\r\n"))
				}
			}()
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), uint16(addr.Port), func() { ln.Close() }
}

func TestAddSeedFileRegistersAndAnnounces(t *testing.T) {
	host, port, stop := fakeTracker(t)
	defer stop()

	dir := t.TempDir()
	path := filepath.Join(dir, "seed.bin")
	require.NoError(t, os.WriteFile(path, []byte("Hello, world!"), 0o644))

	n := New(Config{
		PeerAddress:    "127.0.0.1",
		PeerPort:       freePort(t),
		TrackerAddress: host,
		TrackerPort:    port,
		Workers:        1,
		FileDir:        dir,
	})
	defer n.pool.Close()

	meta, err := n.AddSeedFile(path, "seed.bin", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(13), meta.Length)

	seeding := n.Store().SeedingFiles()
	require.Len(t, seeding, 1)
	assert.Equal(t, meta.Hash, seeding[0].Hash)
}

func TestLookupParsesTrackerReply(t *testing.T) {
	host, port, stop := fakeTracker(t)
	defer stop()

	n := New(Config{
		PeerAddress:    "127.0.0.1",
		PeerPort:       freePort(t),
		TrackerAddress: host,
		TrackerPort:    port,
		Workers:        1,
		FileDir:        t.TempDir(),
	})
	defer n.pool.Close()

	results, err := n.Lookup("found.bin", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "found.bin", results[0].Name)
}

func freePort(t *testing.T) uint16 {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return uint16(port)
}
