package filter

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// BloomFilter answers "does this short code possibly exist" before the
// cache and database are consulted. Thread-safe.
type BloomFilter struct {
	filter *bloom.BloomFilter
	mu     sync.RWMutex
}

// NewBloomFilter creates a Bloom filter sized for capacity entries at
// the given false positive rate.
func NewBloomFilter(capacity uint, fpRate float64) *BloomFilter {
	return &BloomFilter{
		filter: bloom.NewWithEstimates(capacity, fpRate),
	}
}

// Add records a short code
func (bf *BloomFilter) Add(shortCode string) {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	bf.filter.AddString(shortCode)
}

// AddBatch records multiple short codes, used when warming from the store
func (bf *BloomFilter) AddBatch(shortCodes []string) {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	for _, code := range shortCodes {
		bf.filter.AddString(code)
	}
}

// Test reports whether a short code might exist. False means the code
// definitely does not exist; true may be a false positive.
func (bf *BloomFilter) Test(shortCode string) bool {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	return bf.filter.TestString(shortCode)
}

// Clear resets the filter
func (bf *BloomFilter) Clear() {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	bf.filter.ClearAll()
}
