package trackerclient

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTracker accepts exactly one connection, reads one line, and replies
// with the given response.
func fakeTracker(t *testing.T, response string) (addr string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = bufio.NewReader(conn).ReadString('\n')
		_, _ = conn.Write([]byte(response))
		close(done)
	}()

	return ln.Addr().String(), func() {
		ln.Close()
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}

// fakeTrackerCapturing is like fakeTracker but also hands back the request
// line the client sent, for assertions on the exact wire grammar.
func fakeTrackerCapturing(t *testing.T, response string) (addr string, line *string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var got string
	done := make(chan struct{})
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		got, _ = bufio.NewReader(conn).ReadString('\n')
		_, _ = conn.Write([]byte(response))
		close(done)
	}()

	return ln.Addr().String(), &got, func() {
		ln.Close()
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}

func splitHostPort(t *testing.T, addr string) (string, uint16) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, uint16(port)
}

func TestGetFileOk(t *testing.T) {
	addr, stop := fakeTracker(t, "ok\r\n")
	defer stop()
	host, port := splitHostPort(t, addr)

	c := New(host, port)
	c.Timeout = time.Second
	err := c.GetFile("deadbeef")
	assert.NoError(t, err)
}

func TestGetFileRejectsBadReply(t *testing.T) {
	addr, stop := fakeTracker(t, "nope\r\n")
	defer stop()
	host, port := splitHostPort(t, addr)

	c := New(host, port)
	c.Timeout = time.Second
	err := c.GetFile("deadbeef")
	assert.Error(t, err)
}

func TestLookParsesList(t *testing.T) {
	addr, stop := fakeTracker(t, "list [movie.mkv 2097152 1024 8905e92afeb80fc7722ec89eb0bf0966]\r\n")
	defer stop()
	host, port := splitHostPort(t, addr)

	c := New(host, port)
	c.Timeout = time.Second
	entries, err := c.Look("movie.mkv", "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "movie.mkv", entries[0].Name)
}

func TestUpdateSendsHashesOnlyGrammar(t *testing.T) {
	addr, line, stop := fakeTrackerCapturing(t, "ok\r\n")
	defer stop()
	host, port := splitHostPort(t, addr)

	c := New(host, port)
	c.Timeout = time.Second
	err := c.Update([]string{"abc123"}, []string{"def456"})
	require.NoError(t, err)
	assert.Equal(t, "update seed [abc123] leech [def456]\n", *line)
}

func TestDialFailureIsReported(t *testing.T) {
	c := New("127.0.0.1", 1)
	c.Timeout = 100 * time.Millisecond
	err := c.GetFile("deadbeef")
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "trackerclient"))
}
