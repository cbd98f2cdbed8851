package rankhist

// level is one coarser companion histogram, grouping 2^(baseBits-k) base
// bars into each of its own 2^k buckets. It mirrors the base histogram's
// occupancy (bars) and weighted sum (sums) at coarser granularity so that
// seekLevels can skip whole groups instead of visiting every base bar.
type level struct {
	k     int
	shift uint // baseBits - k; base bar q belongs to group q >> shift
	bars  []uint32
	sums  []float64
}

func newLevel(k, baseBits int) level {
	return level{
		k:     k,
		shift: uint(baseBits - k),
		bars:  make([]uint32, 1<<uint(k)),
		sums:  make([]float64, 1<<uint(k)),
	}
}

func (lv *level) group(q uint32) uint32 { return q >> lv.shift }

func (lv *level) include(q uint32) {
	g := lv.group(q)
	lv.bars[g]++
	lv.sums[g] += float64(q)
}

func (lv *level) exclude(q uint32) {
	g := lv.group(q)
	lv.bars[g]--
	lv.sums[g] -= float64(q)
}

func (lv *level) reset() {
	for i := range lv.bars {
		lv.bars[i] = 0
		lv.sums[i] = 0
	}
}

// groupSize is the number of base bars each bucket of this level covers.
func (lv *level) groupSize() uint32 { return 1 << lv.shift }

// seekLevels narrows [lo, hi) from the full bar range down to one group of
// the finest configured level, using each level's coarse counts to skip
// whole groups, then finishes with a linear scan over the base bars in
// the narrowed range. h.levels must be sorted coarsest (smallest k) first.
func (h *Histogram) seekLevels(target uint32) {
	lo, hi := uint32(0), uint32(len(h.bars))
	var rankBefore uint32
	var sumBefore float64

	for li := range h.levels {
		lv := &h.levels[li]
		gs := lv.groupSize()
		loGroup, hiGroup := lo/gs, hi/gs

		j := loGroup
		found := false
		for j < hiGroup {
			if rankBefore+lv.bars[j] <= target {
				rankBefore += lv.bars[j]
				sumBefore += lv.sums[j]
				j++
				continue
			}
			found = true
			break
		}
		lo = j * gs
		if found {
			hi = (j + 1) * gs
		}
	}

	h.curRank = rankBefore
	h.curSum = sumBefore
	v := lo
	for v < hi && h.curRank+h.bars[v] <= target {
		h.curRank += h.bars[v]
		h.curSum += float64(v) * float64(h.bars[v])
		v++
	}
	h.curValue = v
}
