package expectimax

import (
	"math/bits"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
)

const entrySize = 24 // bytes, including padding

// tableEntry caches the exact value of a fully searched agent node at
// one specific remaining depth. The packed board is its own 64-bit key,
// so we store it whole and never suffer type-1 collisions. Depth is
// stored off by one so the zero entry reads as empty.
type tableEntry struct {
	key       uint64
	score     float64
	depthPlus uint8
}

func (t tableEntry) depth() int {
	return int(t.depthPlus) - 1
}

func (t tableEntry) valid() bool {
	return t.depthPlus != 0
}

// TranspositionTable is a fixed-size, single-threaded cache of agent
// node values, indexed by a mixed form of the packed board. Every node
// above an agent node is an expectation, and an expectation needs the
// exact value of each child it expands, so the table holds only exact
// scores and serves them only at the probed depth. Bound entries and
// deeper-than-asked values would shift the weighted averages above.
type TranspositionTable struct {
	table    []tableEntry
	sizeMask uint64

	lookups uint64
	hits    uint64
}

// NewTranspositionTable allocates a table using the given fraction of
// physical memory, clamped to a sane range.
func NewTranspositionTable(memFraction float64) *TranspositionTable {
	budget := float64(memory.TotalMemory()) * memFraction
	numEntries := uint64(budget / entrySize)
	power := bits.Len64(numEntries) - 1
	if power < 16 {
		power = 16
	}
	if power > 26 {
		power = 26
	}
	t := &TranspositionTable{}
	t.table = make([]tableEntry, 1<<power)
	t.sizeMask = 1<<power - 1
	log.Debug().Int("num-entries", 1<<power).Msg("transposition-table-created")
	return t
}

// Reset zeroes the table between moves of a real game; positions from
// prior turns are unreachable and only waste slots.
func (t *TranspositionTable) Reset() {
	for i := range t.table {
		t.table[i] = tableEntry{}
	}
	t.lookups = 0
	t.hits = 0
}

// lookup serves a cached score only on an exact key and depth match.
// A position searched to a different remaining depth has a different
// value, so near misses stay misses.
func (t *TranspositionTable) lookup(key uint64, depth int) (float64, bool) {
	t.lookups++
	entry := t.table[mix(key)&t.sizeMask]
	if !entry.valid() || entry.key != key || entry.depth() != depth {
		return 0, false
	}
	t.hits++
	return entry.score, true
}

// store saves an entry, overwriting whatever occupied the slot. With
// depth-exact serving there is no ordering between entries worth
// preserving; the latest write is as likely to be probed as the old.
func (t *TranspositionTable) store(key uint64, score float64, depth int) {
	if depth < 0 || depth > 254 {
		return
	}
	t.table[mix(key)&t.sizeMask] = tableEntry{
		key:       key,
		score:     score,
		depthPlus: uint8(depth + 1),
	}
}

// Hits returns lookup/hit counters for logging.
func (t *TranspositionTable) Hits() (lookups, hits uint64) {
	return t.lookups, t.hits
}

// mix is a splitmix64-style finalizer. Packed boards are highly
// structured (the low bits are the first row), so they need scrambling
// before masking into a bucket index.
func mix(key uint64) uint64 {
	key ^= key >> 30
	key *= 0xbf58476d1ce4e5b9
	key ^= key >> 27
	key *= 0x94d049bb133111eb
	key ^= key >> 31
	return key
}
