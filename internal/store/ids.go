package store

import (
	"math/rand"
	"sync"
	"time"

	trie "github.com/derekparker/trie/v3"

	"github.com/mwaldstein/qipu-go/internal/note"
)

// liveIDSet tracks every id currently live in a store so allocation can
// do an O(len(id)) collision check instead of a linear scan, per
// spec.md §4.3's "collision-checked against existing IDs". Backed by
// the teacher's unused derekparker/trie/v3 dependency.
type liveIDSet struct {
	mu sync.Mutex
	t  *trie.Trie[struct{}]
}

func newLiveIDSet(seed []string) *liveIDSet {
	s := &liveIDSet{t: trie.New[struct{}]()}
	for _, id := range seed {
		s.t.Add(id, struct{}{})
	}
	return s
}

func (s *liveIDSet) has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.t.Find(id)
	return ok
}

func (s *liveIDSet) add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.t.Add(id, struct{}{})
}

func (s *liveIDSet) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.t.Remove(id)
}

// idAllocator generates collision-checked ids of the form qp-<base36>.
type idAllocator struct {
	rng  *rand.Rand
	live *liveIDSet
}

func newIDAllocator(live *liveIDSet) *idAllocator {
	return &idAllocator{rng: rand.New(rand.NewSource(time.Now().UnixNano())), live: live}
}

// next allocates a fresh id not currently present in live, retrying
// with a longer suffix if collisions keep happening (astronomically
// unlikely past the first retry at 4+ random base-36 chars).
func (a *idAllocator) next() string {
	suffixLen := 4
	for {
		candidate := note.NewID(suffixLen, a.rng)
		if !a.live.has(candidate) {
			return candidate
		}
		suffixLen++
	}
}
