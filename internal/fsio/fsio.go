// Package fsio reads and writes fixed-size file chunks and computes the MD5
// file identity used throughout the swarm.
package fsio

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
)

// Chunk is one piece of a file, read from or destined for a given index.
type Chunk struct {
	Index int
	Data  []byte
}

// ReadChunks opens path once and reads each requested index in turn,
// seeking to index*pieceSize and reading at most pieceSize bytes. The final
// chunk of a file is shorter than pieceSize and is returned truncated
// rather than padded.
func ReadChunks(path string, pieceSize int, indices []int) ([]Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	chunks := make([]Chunk, 0, len(indices))
	for _, index := range indices {
		data, err := readChunk(f, pieceSize, index)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, Chunk{Index: index, Data: data})
	}
	return chunks, nil
}

func readChunk(f *os.File, pieceSize, index int) ([]byte, error) {
	start := int64(pieceSize) * int64(index)
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, pieceSize)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

// WriteChunk opens path for read-write (creating it if absent), seeks to
// index*pieceSize and writes data there. Used by the download loop to
// place incoming chunks at their final offset regardless of arrival order.
func WriteChunk(path string, pieceSize, index int, data []byte) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	start := int64(pieceSize) * int64(index)
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return err
	}
	_, err = f.Write(data)
	return err
}

// HashFile returns the lowercase hex MD5 digest of a file's contents, used
// as the file's identity throughout the swarm.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
