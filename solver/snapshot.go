package solver

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"
)

// Snapshot layout, little endian:
//
//	magic    [4]byte "C4TT"
//	version  uint32
//	capacity uint32
//	keys     [capacity]uint32
//	evals    [capacity]uint8
//	checksum uint64 xxhash of keys and evals as written
const (
	snapshotMagic   = "C4TT"
	snapshotVersion = 1
)

var (
	ErrSnapshotFormat   = errors.New("not a transposition table snapshot")
	ErrSnapshotChecksum = errors.New("snapshot checksum mismatch")
)

// WriteSnapshot serializes the table to w.
func (t *TranspositionTable) WriteSnapshot(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(snapshotMagic); err != nil {
		return err
	}
	header := [2]uint32{snapshotVersion, TableCapacity}
	if err := binary.Write(bw, binary.LittleEndian, header); err != nil {
		return err
	}
	digest := xxhash.New()
	body := io.MultiWriter(bw, digest)
	if err := binary.Write(body, binary.LittleEndian, t.keys); err != nil {
		return err
	}
	if _, err := body.Write(t.evals); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, digest.Sum64()); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadSnapshot builds a table from data written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*TranspositionTable, error) {
	br := bufio.NewReader(r)
	magic := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotFormat, err)
	}
	if string(magic) != snapshotMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrSnapshotFormat, magic)
	}
	var header [2]uint32
	if err := binary.Read(br, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotFormat, err)
	}
	if header[0] != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrSnapshotFormat, header[0])
	}
	if header[1] != TableCapacity {
		return nil, fmt.Errorf("%w: capacity %d, want %d", ErrTableSize, header[1], TableCapacity)
	}

	keys := make([]uint32, TableCapacity)
	evals := make([]uint8, TableCapacity)
	digest := xxhash.New()
	body := io.TeeReader(br, digest)
	if err := binary.Read(body, binary.LittleEndian, keys); err != nil {
		return nil, fmt.Errorf("%w: keys: %w", ErrSnapshotFormat, err)
	}
	if _, err := io.ReadFull(body, evals); err != nil {
		return nil, fmt.Errorf("%w: evals: %w", ErrSnapshotFormat, err)
	}
	var sum uint64
	if err := binary.Read(br, binary.LittleEndian, &sum); err != nil {
		return nil, fmt.Errorf("%w: checksum: %w", ErrSnapshotFormat, err)
	}
	if sum != digest.Sum64() {
		return nil, ErrSnapshotChecksum
	}
	return NewTranspositionTableFrom(keys, evals)
}

func compressed(path string) bool {
	return strings.HasSuffix(path, ".gz")
}

// SaveSnapshot writes the table to path, gzipped if the name ends in .gz.
func (t *TranspositionTable) SaveSnapshot(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var w io.Writer = f
	var zw *gzip.Writer
	if compressed(path) {
		zw = gzip.NewWriter(f)
		w = zw
	}
	if err := t.WriteSnapshot(w); err != nil {
		return err
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return err
		}
	}
	log.Info().Str("path", path).Msg("saved-ttable-snapshot")
	return f.Close()
}

// LoadSnapshot reads a table saved by SaveSnapshot.
func LoadSnapshot(path string) (*TranspositionTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r io.Reader = f
	if compressed(path) {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSnapshotFormat, err)
		}
		defer zr.Close()
		r = zr
	}
	t, err := ReadSnapshot(r)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Msg("loaded-ttable-snapshot")
	return t, nil
}
