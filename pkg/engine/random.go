package engine

import (
	"math/rand/v2"
	"sync"
)

// Random yields uniform draws in [0, 1).
type Random interface {
	Float64() float64
}

// lockedRand is a seeded PCG source safe for concurrent use.
type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandom returns a concurrency-safe source seeded with seed. Equal seeds
// produce equal sequences.
func NewRandom(seed uint64) Random {
	return &lockedRand{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Float64()
}

// Sequence replays a fixed list of draws, wrapping around at the end.
// It is meant for tests and demos that need reproducible outcomes.
type Sequence struct {
	mu    sync.Mutex
	draws []float64
	next  int
}

// NewSequence returns a Sequence over draws. With no draws it always yields 0.
func NewSequence(draws ...float64) *Sequence {
	return &Sequence{draws: append([]float64(nil), draws...)}
}

func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.draws) == 0 {
		return 0
	}
	v := s.draws[s.next%len(s.draws)]
	s.next++
	return v
}

// Drawn reports how many values have been consumed so far.
func (s *Sequence) Drawn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
