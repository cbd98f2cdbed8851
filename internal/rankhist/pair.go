package rankhist

// Pair is two cursors sharing one bars array, used to answer "integral
// between rank1 and rank2" without duplicating the bars array for
// percentile-pair queries. Include/Exclude mutate the shared bars once and
// keep both cursors' invariants consistent; MoveToRank/MoveToPreciseRank
// act on one cursor at a time.
type Pair struct {
	shared   *Histogram
	first    cursor
	second   cursor
}

type cursor struct {
	value    uint32
	rank     uint32
	sum      float64
	lastRank float64
}

// NewPair builds a Pair over a fresh histogram with the given bar count
// and bit-level configuration (see New).
func NewPair(barCount uint32, baseBits int, bitLevels []int) (*Pair, error) {
	h, err := New(barCount, baseBits, bitLevels)
	if err != nil {
		return nil, err
	}
	return &Pair{shared: h}, nil
}

// Include adds one element to the shared bars and updates both cursors'
// rank/sum invariants atomically.
func (p *Pair) Include(q uint32) {
	p.shared.Include(q)
	advanceCursorOnInclude(&p.first, q)
	advanceCursorOnInclude(&p.second, q)
}

// Exclude removes one element from the shared bars and updates both
// cursors' rank/sum invariants atomically.
func (p *Pair) Exclude(q uint32) error {
	if err := p.shared.Exclude(q); err != nil {
		return err
	}
	retreatCursorOnExclude(&p.first, q)
	retreatCursorOnExclude(&p.second, q)
	return nil
}

func advanceCursorOnInclude(c *cursor, q uint32) {
	if q < c.value {
		c.rank++
		c.sum += float64(q)
	}
}

func retreatCursorOnExclude(c *cursor, q uint32) {
	if q < c.value {
		c.rank--
		c.sum -= float64(q)
	}
}

// moveTo positions cursor c (p.first or p.second) at rank r; the
// MoveFirst*/MoveSecond* methods below pick which of the two independent
// percentile cursors it acts on.
func (p *Pair) moveTo(c *cursor, r float64, precise bool) {
	// Swap the shared histogram's own cursor fields for c's, run the normal
	// single-cursor seek logic, then swap back. This reuses Histogram's
	// seek/seekTieBreak/seekLevels without duplicating them per cursor.
	h := p.shared
	savedValue, savedRank, savedSum, savedLast := h.curValue, h.curRank, h.curSum, h.lastRank
	h.curValue, h.curRank, h.curSum = c.value, c.rank, c.sum
	if precise {
		h.MoveToPreciseRank(r)
	} else {
		h.MoveToRank(uint32(r))
	}
	c.value, c.rank, c.sum, c.lastRank = h.curValue, h.curRank, h.curSum, h.lastRank
	h.curValue, h.curRank, h.curSum, h.lastRank = savedValue, savedRank, savedSum, savedLast
}

// MoveFirstToRank positions the first cursor at integer rank r.
func (p *Pair) MoveFirstToRank(r uint32) { p.moveTo(&p.first, float64(r), false) }

// MoveSecondToRank positions the second cursor at integer rank r.
func (p *Pair) MoveSecondToRank(r uint32) { p.moveTo(&p.second, float64(r), false) }

// MoveFirstToPreciseRank positions the first cursor at real-valued rank r.
func (p *Pair) MoveFirstToPreciseRank(r float64) { p.moveTo(&p.first, r, true) }

// MoveSecondToPreciseRank positions the second cursor at real-valued rank r.
func (p *Pair) MoveSecondToPreciseRank(r float64) { p.moveTo(&p.second, r, true) }

func integralOf(c *cursor) float64 {
	frac := c.lastRank - float64(c.rank)
	return c.sum + frac*float64(c.value)
}

func preciseIntegralOf(h *Histogram, c *cursor) float64 {
	base := c.sum + 0.5*float64(c.rank)
	frac := c.lastRank - float64(c.rank)
	if frac <= 0 {
		return base
	}
	count := h.bars[c.value]
	if count == 0 {
		return base
	}
	delta := frac / float64(count)
	return base + frac*(float64(c.value)+0.5*delta)
}

// BetweenSimple returns the simple integral of the aperture between the
// first and second cursors' current positions (second - first). The
// caller is responsible for having positioned first at the lower rank.
func (p *Pair) BetweenSimple() float64 {
	return integralOf(&p.second) - integralOf(&p.first)
}

// BetweenPrecise is BetweenSimple's piecewise-linear counterpart.
func (p *Pair) BetweenPrecise() float64 {
	return preciseIntegralOf(p.shared, &p.second) - preciseIntegralOf(p.shared, &p.first)
}

// Size returns N, the current aperture size.
func (p *Pair) Size() uint32 { return p.shared.n }

// Verify runs the shared histogram's debug cross-check.
func (p *Pair) Verify() error { return p.shared.Verify() }
