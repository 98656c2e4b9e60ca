package swarm

import (
	"errors"
	"fmt"
	"sync"
)

// ErrLengthMismatch is returned by SetBuffermap when new_map's length does
// not match the length already on file for this (file, peer) pair. The
// source panicked on a slice-copy-length mismatch; this is the hardened
// replacement the Design Notes call for.
var ErrLengthMismatch = errors.New("swarm: buffermap length mismatch")

// ErrUnknownFile is returned when an operation references a file id that
// was never registered with UpsertFile.
var ErrUnknownFile = errors.New("swarm: unknown file")

// Store is the concurrent-safe swarm state store: {file -> {peer ->
// buffermap}} plus the file and peer directories it is keyed by. The zero
// value is not usable; construct with New.
type Store struct {
	mu sync.RWMutex

	self PeerKey

	files      map[FileID]FileMeta
	peers      map[PeerKey]PeerAddr
	buffermaps map[FileID]map[PeerKey]Buffermap
}

// New returns an empty Store. self identifies the local peer; its entry is
// expected to exist for every file registered on this node (see UpsertFile).
func New(self PeerAddr) *Store {
	s := &Store{
		self:       self.PeerKey(),
		files:      make(map[FileID]FileMeta),
		peers:      make(map[PeerKey]PeerAddr),
		buffermaps: make(map[FileID]map[PeerKey]Buffermap),
	}
	s.peers[s.self] = self
	return s
}

// Self returns the local peer's key.
func (s *Store) Self() PeerKey {
	return s.self
}

// UpsertFile registers or replaces a file's metadata. It does not touch any
// buffermaps; callers that are registering a brand new file must also call
// SetBuffermap for the local peer (seeding: all ones, leeching: all zeros).
func (s *Store) UpsertFile(meta FileMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[meta.Hash] = meta
	if _, ok := s.buffermaps[meta.Hash]; !ok {
		s.buffermaps[meta.Hash] = make(map[PeerKey]Buffermap)
	}
}

// RemoveFile deletes a file's metadata and cascades to every per-peer
// buffermap recorded for it.
func (s *Store) RemoveFile(id FileID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, id)
	delete(s.buffermaps, id)
}

// File returns the metadata for a file, if known.
func (s *Store) File(id FileID) (FileMeta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.files[id]
	return m, ok
}

// UpsertPeer registers or replaces a peer's address.
func (s *Store) UpsertPeer(key PeerKey, addr PeerAddr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[key] = addr
}

// RemovePeer deletes a peer from the peer directory and from every file's
// buffermap table.
func (s *Store) RemovePeer(key PeerKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.peers, key)
	for _, perPeer := range s.buffermaps {
		delete(perPeer, key)
	}
}

// SetBuffermap inserts a new (file, peer) buffermap or overwrites the
// existing one in place. newMap is treated as a point-in-time snapshot: the
// caller must pre-compute the full array, partial updates do not exist at
// this interface. Returns ErrUnknownFile if the file was never registered,
// and ErrLengthMismatch if an existing entry's length disagrees with
// newMap's (and with the file's BufferLen).
func (s *Store) SetBuffermap(fileID FileID, peerKey PeerKey, newMap Buffermap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, ok := s.files[fileID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFile, fileID)
	}
	if int64(len(newMap)) != meta.BufferLen() {
		return fmt.Errorf("%w: file %s wants %d, got %d", ErrLengthMismatch, fileID, meta.BufferLen(), len(newMap))
	}

	perPeer, ok := s.buffermaps[fileID]
	if !ok {
		perPeer = make(map[PeerKey]Buffermap)
		s.buffermaps[fileID] = perPeer
	}
	if existing, ok := perPeer[peerKey]; ok && len(existing) != len(newMap) {
		return fmt.Errorf("%w: peer %s has %d, got %d", ErrLengthMismatch, peerKey, len(existing), len(newMap))
	}
	perPeer[peerKey] = newMap.Clone()
	return nil
}

// MarkReceived sets indices to 1 in (file, peer)'s buffermap under the store
// lock, read-modify-write, so concurrent callers updating disjoint indices
// (e.g. several download tasks against the same peer) never clobber each
// other's bits the way a clone-mutate-overwrite of the whole map would.
// Returns ErrUnknownFile if the file was never registered. A peer with no
// buffermap yet is seeded with an all-zero one sized to the file's
// BufferLen before the indices are set.
func (s *Store) MarkReceived(fileID FileID, peerKey PeerKey, indices []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, ok := s.files[fileID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFile, fileID)
	}

	perPeer, ok := s.buffermaps[fileID]
	if !ok {
		perPeer = make(map[PeerKey]Buffermap)
		s.buffermaps[fileID] = perPeer
	}
	bm, ok := perPeer[peerKey]
	if !ok {
		bm = NewZeroBuffermap(meta.BufferLen())
	} else {
		bm = bm.Clone()
	}
	for _, idx := range indices {
		if idx >= 0 && idx < len(bm) {
			bm[idx] = 1
		}
	}
	perPeer[peerKey] = bm
	return nil
}

// GetBuffermap returns the buffermap for (file, peer), if any.
func (s *Store) GetBuffermap(fileID FileID, peerKey PeerKey) (Buffermap, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	perPeer, ok := s.buffermaps[fileID]
	if !ok {
		return nil, false
	}
	m, ok := perPeer[peerKey]
	if !ok {
		return nil, false
	}
	return m.Clone(), true
}

// PeersForFile returns every known peer address recorded for a file,
// derived by splitting each peer key on ':'.
func (s *Store) PeersForFile(fileID FileID) []PeerAddr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	perPeer, ok := s.buffermaps[fileID]
	if !ok {
		return nil
	}
	out := make([]PeerAddr, 0, len(perPeer))
	for key := range perPeer {
		if addr, ok := s.peers[key]; ok {
			out = append(out, addr)
			continue
		}
		if addr, err := key.Addr(); err == nil {
			out = append(out, addr)
		}
	}
	return out
}

// SeedingFiles returns the files where the local peer's buffermap is
// all-ones.
func (s *Store) SeedingFiles() []FileMeta {
	return s.filesWhere(func(b Buffermap) bool { return b.AllOnes() })
}

// LeechingFiles returns the files where the local peer's buffermap
// contains at least one zero.
func (s *Store) LeechingFiles() []FileMeta {
	return s.filesWhere(func(b Buffermap) bool { return b.AnyZero() })
}

func (s *Store) filesWhere(pred func(Buffermap) bool) []FileMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []FileMeta
	for id, perPeer := range s.buffermaps {
		b, ok := perPeer[s.self]
		if !ok || !pred(b) {
			continue
		}
		if meta, ok := s.files[id]; ok {
			out = append(out, meta)
		}
	}
	return out
}

// AllPeerBuffermaps returns a snapshot of every peer's buffermap for a
// file, including the local peer's if present. Used by the piece selector
// to build its scoreboard without holding the store lock across I/O.
func (s *Store) AllPeerBuffermaps(fileID FileID) map[PeerKey]Buffermap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	perPeer, ok := s.buffermaps[fileID]
	if !ok {
		return nil
	}
	out := make(map[PeerKey]Buffermap, len(perPeer))
	for k, v := range perPeer {
		out[k] = v.Clone()
	}
	return out
}
