package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaveRoundTrip(t *testing.T) {
	buffermap := []byte{0, 1, 1, 0, 1}
	line := FormatHave("deadbeef", buffermap)
	assert.Equal(t, "have deadbeef 01101\n", line)

	msg, err := Parse([]byte(line))
	require.NoError(t, err)
	assert.Equal(t, VerbHave, msg.Verb)
	assert.Equal(t, "deadbeef", msg.Key)
	assert.Equal(t, buffermap, msg.Buffermap)
}

func TestGetpiecesRoundTrip(t *testing.T) {
	line := FormatGetpieces("abc123", []int{0, 2, 5})
	assert.Equal(t, "getpieces abc123 [0 2 5]\n", line)

	msg, err := Parse([]byte(line))
	require.NoError(t, err)
	assert.Equal(t, VerbGetpieces, msg.Verb)
	assert.Equal(t, []int{0, 2, 5}, msg.Indices)
}

func TestGetpiecesEmptyIndices(t *testing.T) {
	line := FormatGetpieces("abc123", nil)
	assert.Equal(t, "getpieces abc123 []\n", line)

	msg, err := Parse([]byte(line))
	require.NoError(t, err)
	assert.Empty(t, msg.Indices)
}

func TestDataRoundTrip(t *testing.T) {
	chunks := []IndexedChunk{
		{Index: 0, Data: []byte("Hello")},
		{Index: 1, Data: []byte(", wor")},
	}
	line := FormatData("av12", chunks)

	msg, err := Parse([]byte(line))
	require.NoError(t, err)
	assert.Equal(t, VerbData, msg.Verb)
	assert.Equal(t, "av12", msg.Key)
	require.Len(t, msg.Chunks, 2)
	assert.Equal(t, "Hello", string(msg.Chunks[0].Data))
	assert.Equal(t, ", wor", string(msg.Chunks[1].Data))
}

func TestInterestedRoundTrip(t *testing.T) {
	line := FormatInterested("abc123")
	assert.Equal(t, "interested abc123\n", line)

	msg, err := Parse([]byte(line))
	require.NoError(t, err)
	assert.Equal(t, VerbInterested, msg.Verb)
	assert.Equal(t, "abc123", msg.Key)
}

func TestParseUnrecognizedIsError(t *testing.T) {
	_, err := Parse([]byte("not-a-verb foo\n"))
	assert.Error(t, err)
}

func TestFormatAnnounce(t *testing.T) {
	seeded := []FileEntry{
		{Name: "file1.txt", Length: 100, PieceSize: 10, Hash: "abc123"},
		{Name: "file2.txt", Length: 200, PieceSize: 20, Hash: "def456"},
	}
	line := FormatAnnounce(8000, seeded, []string{"file3.txt"})
	assert.Equal(t, "announce listen 8000 seed [file1.txt 100 10 abc123 file2.txt 200 20 def456] leech [file3.txt]\r\n", line)
}

func TestFormatUpdate(t *testing.T) {
	line := FormatUpdate([]string{"abc123", "def456"}, []string{"ghi789"})
	assert.Equal(t, "update seed [abc123 def456] leech [ghi789]\n", line)
}

func TestFormatUpdateEmptyBothSides(t *testing.T) {
	line := FormatUpdate(nil, nil)
	assert.Equal(t, "update seed [] leech []\n", line)
}

func TestParseOk(t *testing.T) {
	assert.NoError(t, ParseOk("ok\r\n"))
	assert.Error(t, ParseOk("nope\r\n"))
}

func TestParseList(t *testing.T) {
	answer := "list [file_a.dat 2097152 1024 8905e92afeb80fc7722ec89eb0bf0966]\r\n"
	entries, err := ParseList(answer)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "file_a.dat", entries[0].Name)
	assert.Equal(t, int64(2097152), entries[0].Length)
	assert.Equal(t, int64(1024), entries[0].PieceSize)
	assert.Equal(t, "8905e92afeb80fc7722ec89eb0bf0966", entries[0].Hash)
}

func TestParseListMultipleEntries(t *testing.T) {
	answer := "list [file_a.dat 2097152 1024 8905e92afeb80fc7722ec89eb0bf0966 file_b.dat 50 10 deadbeef]\r\n"
	entries, err := ParseList(answer)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "file_b.dat", entries[1].Name)
}

func TestParseListDeduplicatesByHash(t *testing.T) {
	answer := "list [file_a.dat 2097152 1024 8905e92afeb80fc7722ec89eb0bf0966 " +
		"file_a_copy.dat 2097152 1024 8905e92afeb80fc7722ec89eb0bf0966]\r\n"
	entries, err := ParseList(answer)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "file_a.dat", entries[0].Name)
}

func TestParseListEmpty(t *testing.T) {
	entries, err := ParseList("list []\r\n")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParsePeers(t *testing.T) {
	key, peers, err := ParsePeers("peers abc123 [10.0.0.1:6000 10.0.0.2:6001]\r\n")
	require.NoError(t, err)
	assert.Equal(t, "abc123", key)
	require.Len(t, peers, 2)
	assert.Equal(t, PeerEntry{Address: "10.0.0.1", Port: 6000}, peers[0])
	assert.Equal(t, PeerEntry{Address: "10.0.0.2", Port: 6001}, peers[1])
}

func TestParsePeersMalformed(t *testing.T) {
	_, _, err := ParsePeers("peers abc123 [garbage]\r\n")
	assert.Error(t, err)
}

func TestFormatLookFilenameOnly(t *testing.T) {
	line := FormatLook("movie.mkv", "")
	assert.Equal(t, "look [filename=\"movie.mkv\"]\n", line)
}
