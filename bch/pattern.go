package bch

// Patterns enumerates error patterns of a fixed Hamming weight over n bit
// positions. Position sets are produced in lexicographic order, lowest
// positions first, so every caller observes the same search order:
//
//	w=2, n=4: {0,1} {0,2} {0,3} {1,2} {1,3} {2,3}
type Patterns struct {
	n, w    int
	pos     []int
	started bool
}

// NewPatterns returns an iterator over all weight w patterns of n bits.
func NewPatterns(n, w int) *Patterns {
	return &Patterns{n: n, w: w, pos: make([]int, w)}
}

// Next advances to the next pattern, returning false when exhausted.
func (p *Patterns) Next() bool {
	if !p.started {
		if p.w < 0 || p.w > p.n {
			return false
		}
		for i := range p.pos {
			p.pos[i] = i
		}
		p.started = true
		return true
	}

	// Find the rightmost position that can still move right.
	i := p.w - 1
	for ; i >= 0 && p.pos[i] == p.n-p.w+i; i-- {
	}
	if i < 0 {
		return false
	}

	p.pos[i]++
	for j := i + 1; j < p.w; j++ {
		p.pos[j] = p.pos[j-1] + 1
	}

	return true
}

// Positions returns the bit positions of the current pattern. The slice is
// reused by Next.
func (p *Patterns) Positions() []int {
	return p.pos
}

// Pattern returns the current pattern as a bit mask.
func (p *Patterns) Pattern() (e uint64) {
	for _, i := range p.pos {
		e |= 1 << uint(i)
	}
	return e
}
