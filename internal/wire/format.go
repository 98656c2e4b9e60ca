package wire

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// FormatHave renders a have announcement: "have {key} {bits}\n", where bits
// is the buffermap rendered as a contiguous run of '0'/'1' characters.
func FormatHave(key string, buffermap []byte) string {
	var b strings.Builder
	for _, v := range buffermap {
		if v == 1 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return fmt.Sprintf("have %s %s\n", key, b.String())
}

// FormatInterested renders "interested {key}\n".
func FormatInterested(key string) string {
	return fmt.Sprintf("interested %s\n", key)
}

// FormatGetpieces renders "getpieces {key} [{indices}]\n", space-separated.
func FormatGetpieces(key string, indices []int) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = strconv.Itoa(idx)
	}
	return fmt.Sprintf("getpieces %s [%s]\n", strings.TrimSpace(key), strings.Join(parts, " "))
}

// FormatData renders "data {key} [{index}:{base64} ...]\n". Each chunk is
// base64-encoded independently, matching the sender-side encoding of the
// source protocol.
func FormatData(key string, chunks []IndexedChunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = fmt.Sprintf("%d:%s", c.Index, base64.StdEncoding.EncodeToString(c.Data))
	}
	return fmt.Sprintf("data %s [%s]\n", key, strings.Join(parts, " "))
}

// FormatGetFile renders "getfile {key}\n".
func FormatGetFile(key string) string {
	return fmt.Sprintf("getfile %s\n", key)
}

// FormatAnnounce renders the tracker registration line: "announce listen
// {port} seed [{entries}] leech [{keys}]\r\n".
func FormatAnnounce(peerPort uint16, seeded []FileEntry, leeched []string) string {
	seededParts := make([]string, len(seeded))
	for i, f := range seeded {
		seededParts[i] = fmt.Sprintf("%s %d %d %s", f.Name, f.Length, f.PieceSize, f.Hash)
	}
	return fmt.Sprintf("announce listen %d seed [%s] leech [%s]\r\n",
		peerPort, strings.Join(seededParts, " "), strings.Join(leeched, " "))
}

// FormatUpdate renders "update seed [{hash}...] leech [{hash}...]\n", used
// for periodic re-registration. Unlike announce, update carries only file
// hashes, not full metadata, and no listen port.
func FormatUpdate(seededHashes []string, leechedHashes []string) string {
	return fmt.Sprintf("update seed [%s] leech [%s]\n",
		strings.Join(seededHashes, " "), strings.Join(leechedHashes, " "))
}

// FormatLook renders a look request. filename and filesize are each
// optional; an empty string omits that field, preserving the source
// formatter's ambiguous concatenation of filesize with no '=' separator.
func FormatLook(filename, filesize string) string {
	var b strings.Builder
	b.WriteString("look [")
	wroteFilename := false
	if filename != "" {
		fmt.Fprintf(&b, "filename=%q", filename)
		wroteFilename = true
	}
	if filesize != "" {
		if wroteFilename {
			b.WriteByte(' ')
		}
		b.WriteString("filesize")
		b.WriteString(filesize)
	}
	b.WriteString("]\n")
	return b.String()
}
