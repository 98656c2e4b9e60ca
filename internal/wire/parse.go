package wire

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	reData       = regexp.MustCompile(`^data ([[:alnum:]]+) \[((?:[[:digit:]]+:\S* ?)*)\]$`)
	reHave       = regexp.MustCompile(`^have ([[:alnum:]]+) ([01]*)$`)
	reGetpieces  = regexp.MustCompile(`^getpieces ([[:alnum:]]+) \[((?:[[:digit:]]+ ?)*)\]$`)
	reInterested = regexp.MustCompile(`^interested ([[:alnum:]]+)$`)
	reOk         = regexp.MustCompile(`^ok$`)
	reList       = regexp.MustCompile(`^list \[((?:\S+ \d+ \d+ \w+ ?)*)\] ?$`)
	rePeers      = regexp.MustCompile(`^peers ([[:alnum:]]+) \[((?:\S+:\d+ ?)*)\]$`)
)

// trim drops the \0, \n, \r and space padding the original protocol allows
// around a line before it is matched against a verb grammar.
func trim(s string) string {
	return strings.Trim(s, "\x00\r\n ")
}

// Parse dispatches an incoming line to the matching verb grammar, mirroring
// the parser's try-each-regex-in-turn approach. It returns an error instead
// of silently falling through to an empty task when nothing matches.
func Parse(line []byte) (Message, error) {
	s := trim(string(line))

	if m := reData.FindStringSubmatch(s); m != nil {
		return parseData(m)
	}
	if m := reHave.FindStringSubmatch(s); m != nil {
		return parseHave(m)
	}
	if m := reGetpieces.FindStringSubmatch(s); m != nil {
		return parseGetpieces(m)
	}
	if m := reInterested.FindStringSubmatch(s); m != nil {
		return Message{Verb: VerbInterested, Key: m[1]}, nil
	}
	return Message{}, fmt.Errorf("wire: unrecognized request: %.128s", s)
}

func parseData(m []string) (Message, error) {
	var chunks []IndexedChunk
	body := strings.TrimSpace(m[2])
	if body != "" {
		for _, pair := range strings.Fields(body) {
			idxStr, dataStr, ok := strings.Cut(pair, ":")
			if !ok {
				return Message{}, fmt.Errorf("wire: malformed data pair %q", pair)
			}
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return Message{}, fmt.Errorf("wire: malformed data index %q: %w", idxStr, err)
			}
			data, err := base64.StdEncoding.DecodeString(dataStr)
			if err != nil {
				return Message{}, fmt.Errorf("wire: malformed data payload for index %d: %w", idx, err)
			}
			chunks = append(chunks, IndexedChunk{Index: idx, Data: data})
		}
	}
	return Message{Verb: VerbData, Key: m[1], Chunks: chunks}, nil
}

func parseHave(m []string) (Message, error) {
	bits := m[2]
	buf := make([]byte, len(bits))
	for i, c := range bits {
		if c == '1' {
			buf[i] = 1
		}
	}
	return Message{Verb: VerbHave, Key: m[1], Buffermap: buf}, nil
}

func parseGetpieces(m []string) (Message, error) {
	body := strings.TrimSpace(m[2])
	var indices []int
	if body != "" {
		for _, tok := range strings.Fields(body) {
			idx, err := strconv.Atoi(tok)
			if err != nil {
				return Message{}, fmt.Errorf("wire: malformed piece index %q: %w", tok, err)
			}
			indices = append(indices, idx)
		}
	}
	return Message{Verb: VerbGetpieces, Key: m[1], Indices: indices}, nil
}

// ParseOk validates a tracker "ok" reply.
func ParseOk(answer string) error {
	line := firstLine(answer)
	if !reOk.MatchString(line) {
		return fmt.Errorf("wire: expected ok, got %.128s", line)
	}
	return nil
}

// ParseList validates and decodes a tracker "list [...]" reply into file
// entries.
func ParseList(answer string) ([]FileEntry, error) {
	line := firstLine(answer)
	m := reList.FindStringSubmatch(line)
	if m == nil {
		return nil, fmt.Errorf("wire: malformed list reply: %.128s", line)
	}
	body := strings.TrimSpace(m[1])
	if body == "" {
		return nil, nil
	}
	fields := strings.Fields(body)
	if len(fields)%4 != 0 {
		return nil, fmt.Errorf("wire: malformed list reply field count: %.128s", line)
	}
	entries := make([]FileEntry, 0, len(fields)/4)
	seen := make(map[string]bool, len(fields)/4)
	for i := 0; i < len(fields); i += 4 {
		length, err := strconv.ParseInt(fields[i+1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("wire: malformed list length: %w", err)
		}
		pieceSize, err := strconv.ParseInt(fields[i+2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("wire: malformed list piece size: %w", err)
		}
		hash := fields[i+3]
		if seen[hash] {
			continue
		}
		seen[hash] = true
		entries = append(entries, FileEntry{
			Name:      fields[i],
			Length:    length,
			PieceSize: pieceSize,
			Hash:      hash,
		})
	}
	return entries, nil
}

// ParsePeers validates and decodes a tracker "peers {key} [{addr}:{port} ...]"
// reply. Unlike the source system's stub check, this applies a real
// grammar derived from the announce/getfile family of replies.
func ParsePeers(answer string) (string, []PeerEntry, error) {
	line := firstLine(answer)
	m := rePeers.FindStringSubmatch(line)
	if m == nil {
		return "", nil, fmt.Errorf("wire: malformed peers reply: %.128s", line)
	}
	key := m[1]
	body := strings.TrimSpace(m[2])
	if body == "" {
		return key, nil, nil
	}
	var peers []PeerEntry
	for _, tok := range strings.Fields(body) {
		addr, portStr, ok := strings.Cut(tok, ":")
		if !ok {
			return "", nil, fmt.Errorf("wire: malformed peer entry %q", tok)
		}
		port, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return "", nil, fmt.Errorf("wire: malformed peer port %q: %w", tok, err)
		}
		peers = append(peers, PeerEntry{Address: addr, Port: uint16(port)})
	}
	return key, peers, nil
}

func firstLine(s string) string {
	s = trim(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	return s
}
