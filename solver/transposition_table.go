package solver

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/domino14/connect4/board"
)

// TableCapacity is the number of slots in a transposition table. It is
// odd and prime so that the slot index and the low 32 bits of a key
// together identify any key below 2^55.
const TableCapacity = 1<<23 + 9

// bytes per slot: a uint32 key fragment and a uint8 value
const entrySize = 5

const (
	TTUpper = 0x01
	TTLower = 0x02
)

// The range of scores a search window can hold, derived from the board
// dimensions. Stored values are offset so that 0 stays free to mean "empty".
const (
	lowestScore  = -board.BoardSize / 2
	highestScore = (board.BoardSize + 1) / 2
	boundSpan    = highestScore - lowestScore + 1
)

// Both encodings must fit in a byte.
const _ uint8 = 2 * boundSpan

var ErrTableSize = errors.New("transposition table arrays have the wrong length")

// A TranspositionTable maps position keys to small encoded values. Each
// slot holds one entry; a newer store always replaces whatever was there.
// It is not safe for concurrent use.
type TranspositionTable struct {
	keys  []uint32
	evals []uint8

	created atomic.Uint64
	lookups atomic.Uint64
	hits    atomic.Uint64
	// "type 2" collisions: the slot is occupied by a different key.
	t2collisions atomic.Uint64
}

// NewTranspositionTable allocates an empty table.
func NewTranspositionTable() *TranspositionTable {
	t := &TranspositionTable{
		keys:  make([]uint32, TableCapacity),
		evals: make([]uint8, TableCapacity),
	}
	logSize(false)
	return t
}

// NewTranspositionTableFrom wraps previously saved arrays. Both must have
// exactly TableCapacity elements.
func NewTranspositionTableFrom(keys []uint32, evals []uint8) (*TranspositionTable, error) {
	if len(keys) != TableCapacity || len(evals) != TableCapacity {
		return nil, fmt.Errorf("%w: %d keys, %d evals, want %d",
			ErrTableSize, len(keys), len(evals), TableCapacity)
	}
	return &TranspositionTable{keys: keys, evals: evals}, nil
}

func logSize(reset bool) {
	log.Debug().Int("num-elems", TableCapacity).
		Int("estimated-total-memory-bytes", TableCapacity*entrySize).
		Uint64("total-system-memory-bytes", memory.TotalMemory()).
		Bool("reset", reset).
		Msg("transposition-table-size")
}

func index(key uint64) uint64 {
	return key % TableCapacity
}

// Put stores eval for key, replacing the previous occupant of the slot.
// An eval of 0 erases the slot.
func (t *TranspositionTable) Put(key uint64, eval uint8) {
	idx := index(key)
	t.keys[idx] = uint32(key)
	t.evals[idx] = eval
	t.created.Add(1)
}

// Get returns the value stored for key, or 0 if the slot holds nothing or
// holds another key.
func (t *TranspositionTable) Get(key uint64) uint8 {
	t.lookups.Add(1)
	idx := index(key)
	if t.keys[idx] != uint32(key) {
		if t.evals[idx] != 0 {
			t.t2collisions.Add(1)
		}
		return 0
	}
	if t.evals[idx] != 0 {
		t.hits.Add(1)
	}
	return t.evals[idx]
}

// StoreUpper records that the value of key is at most v.
func (t *TranspositionTable) StoreUpper(key uint64, v int) {
	t.Put(key, uint8(v-lowestScore+1))
}

// StoreLower records that the value of key is at least v.
func (t *TranspositionTable) StoreLower(key uint64, v int) {
	t.Put(key, uint8(v-lowestScore+1+boundSpan))
}

// Lookup decodes the entry for key. flag is 0 on a miss, otherwise TTUpper
// or TTLower.
func (t *TranspositionTable) Lookup(key uint64) (flag uint8, v int) {
	e := int(t.Get(key))
	switch {
	case e == 0:
		return 0, 0
	case e <= boundSpan:
		return TTUpper, e + lowestScore - 1
	default:
		return TTLower, e + lowestScore - 1 - boundSpan
	}
}

// Reset empties every slot and zeroes the counters.
func (t *TranspositionTable) Reset() {
	clear(t.keys)
	clear(t.evals)
	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.t2collisions.Store(0)
	logSize(true)
}

// Keys and Evals expose the backing arrays for serialization.
func (t *TranspositionTable) Keys() []uint32 { return t.keys }
func (t *TranspositionTable) Evals() []uint8 { return t.evals }

type TableStats struct {
	Created    uint64 `yaml:"created"`
	Lookups    uint64 `yaml:"lookups"`
	Hits       uint64 `yaml:"hits"`
	Collisions uint64 `yaml:"collisions"`
	// Used counts occupied slots; UpperBounds + LowerBounds == Used.
	Used        int `yaml:"used"`
	UpperBounds int `yaml:"upper_bounds"`
	LowerBounds int `yaml:"lower_bounds"`
}

// Stats scans the table. It walks every slot, so don't call it in a loop.
func (t *TranspositionTable) Stats() TableStats {
	st := TableStats{
		Created:    t.created.Load(),
		Lookups:    t.lookups.Load(),
		Hits:       t.hits.Load(),
		Collisions: t.t2collisions.Load(),
	}
	for _, e := range t.evals {
		switch {
		case e == 0:
			continue
		case e <= boundSpan:
			st.UpperBounds++
		default:
			st.LowerBounds++
		}
		st.Used++
	}
	return st
}
