package dynarec

import (
	"encoding/binary"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
	"golang.org/x/crypto/blake2b"

	"github.com/Gamr13/pcsx2/insts"
)

// BlockCache is the dynarec's registry of translated fragments, keyed by
// guest PC. Set/way bookkeeping and LRU victim selection use Akita cache
// components; each entry additionally carries a digest of the guest words
// it was translated from, so a fragment whose guest code was overwritten
// misses instead of running stale host code.
type BlockCache struct {
	directory *akitacache.DirectoryImpl
	assoc     int
	entries   []blockEntry

	stats BlockCacheStats
}

type blockEntry struct {
	sum   [blake2b.Size256]byte
	block *Block
}

// BlockCacheStats holds lookup statistics.
type BlockCacheStats struct {
	Hits          uint64
	Misses        uint64
	Invalidations uint64
	Evictions     uint64
}

// guestWordBytes is the directory block size: one 32-bit instruction word.
const guestWordBytes = 4

// NewBlockCache creates a block cache with the given geometry.
func NewBlockCache(numSets, assoc int) *BlockCache {
	return &BlockCache{
		directory: akitacache.NewDirectory(
			numSets,
			assoc,
			guestWordBytes,
			akitacache.NewLRUVictimFinder(),
		),
		assoc:   assoc,
		entries: make([]blockEntry, numSets*assoc),
	}
}

// Stats returns lookup statistics.
func (c *BlockCache) Stats() BlockCacheStats {
	return c.stats
}

func (c *BlockCache) entryIndex(block *akitacache.Block) int {
	return block.SetID*c.assoc + block.WayID
}

// HashWords digests a guest instruction window.
func HashWords(words []insts.Word) [blake2b.Size256]byte {
	buf := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(w))
	}
	return blake2b.Sum256(buf)
}

// Lookup returns the cached fragment for pc if present and still valid for
// the given guest words. A digest mismatch invalidates the entry.
func (c *BlockCache) Lookup(pc uint32, words []insts.Word) *Block {
	tag := c.directory.Lookup(0, uint64(pc))
	if tag == nil || !tag.IsValid {
		c.stats.Misses++
		return nil
	}

	entry := &c.entries[c.entryIndex(tag)]
	if entry.sum != HashWords(words) {
		// Guest code was overwritten; drop the stale fragment.
		tag.IsValid = false
		entry.block = nil
		c.stats.Invalidations++
		c.stats.Misses++
		return nil
	}

	c.directory.Visit(tag)
	c.stats.Hits++
	return entry.block
}

// Insert registers a freshly translated fragment, evicting the LRU victim
// of the set if necessary.
func (c *BlockCache) Insert(pc uint32, words []insts.Word, block *Block) {
	victim := c.directory.FindVictim(uint64(pc))
	if victim == nil {
		return
	}
	if victim.IsValid {
		c.stats.Evictions++
	}

	victim.Tag = uint64(pc)
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	c.entries[c.entryIndex(victim)] = blockEntry{
		sum:   HashWords(words),
		block: block,
	}
}
