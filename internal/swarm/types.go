// Package swarm holds the swarm state store: the mapping from (file, peer)
// to availability bitmap, and the file/peer directories it is keyed by.
package swarm

import "fmt"

// FileID is a 32-character lowercase hex MD5 digest of a file's contents.
type FileID string

// FileMeta identifies a sharable file. Immutable once registered.
type FileMeta struct {
	Hash      FileID
	Name      string
	Length    int64
	PieceSize int64
}

// BufferLen is the number of entries a buffermap for this file must have.
// The unconditional +1 is preserved from the source system even though it
// means the final chunk index is never covered by a real chunk when Length
// is an exact multiple of PieceSize; see DESIGN.md Open Question 1.
func (m FileMeta) BufferLen() int64 {
	return m.Length/m.PieceSize + 1
}

// PeerAddr is an (address, port) pair. PeerKey is the canonical string form
// used as a map key and sent on the wire inside peer lists.
type PeerAddr struct {
	Address string
	Port    uint16
}

// PeerKey returns the canonical "{address}:{port}" form of the address.
func (a PeerAddr) PeerKey() PeerKey {
	return PeerKey(fmt.Sprintf("%s:%d", a.Address, a.Port))
}

// PeerKey is the canonical string key for a peer, "{address}:{port}".
type PeerKey string

// Addr splits a PeerKey back into a PeerAddr by its last ':'. Used by
// PeersForFile, which derives peer addresses from the buffermap table keys.
func (k PeerKey) Addr() (PeerAddr, error) {
	s := string(k)
	i := lastColon(s)
	if i < 0 {
		return PeerAddr{}, fmt.Errorf("swarm: malformed peer key %q", s)
	}
	var port uint16
	if _, err := fmt.Sscanf(s[i+1:], "%d", &port); err != nil {
		return PeerAddr{}, fmt.Errorf("swarm: malformed peer key %q: %w", s, err)
	}
	return PeerAddr{Address: s[:i], Port: port}, nil
}

func lastColon(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ':' {
			return i
		}
	}
	return -1
}

// Buffermap is a fixed-length availability vector, one byte per chunk,
// values 0 or 1 only. Length must equal the owning file's BufferLen.
type Buffermap []byte

// Clone returns an independent copy, used whenever a caller needs to hand a
// point-in-time snapshot to SetBuffermap without aliasing the original slice.
func (b Buffermap) Clone() Buffermap {
	out := make(Buffermap, len(b))
	copy(out, b)
	return out
}

// AllOnes reports whether every entry is 1 (seeding this file).
func (b Buffermap) AllOnes() bool {
	for _, v := range b {
		if v != 1 {
			return false
		}
	}
	return true
}

// AnyZero reports whether at least one entry is 0 (leeching this file).
func (b Buffermap) AnyZero() bool {
	for _, v := range b {
		if v == 0 {
			return true
		}
	}
	return false
}

// NewZeroBuffermap returns a fresh all-zeros map of the given length.
func NewZeroBuffermap(length int64) Buffermap {
	return make(Buffermap, length)
}

// NewFullBuffermap returns a fresh all-ones map of the given length.
func NewFullBuffermap(length int64) Buffermap {
	b := make(Buffermap, length)
	for i := range b {
		b[i] = 1
	}
	return b
}
