package quant

// bitQuantiser is the degenerate one-bit quantiser: the bar index is the
// element's own value, 0 or 1. Bar count is fixed at 2 and multiplier_inv
// is 1 since the bit kernel never rescales its output.
type bitQuantiser struct{}

func (bitQuantiser) ElementType() ElementType   { return Bit }
func (bitQuantiser) Bits() int                  { return 1 }
func (bitQuantiser) BarCount() uint32           { return 2 }
func (bitQuantiser) MultiplierInv() float64     { return 1 }
func (bitQuantiser) QuantiseInt(v int64) uint32 {
	if v&1 != 0 {
		return 1
	}
	return 0
}
func (bitQuantiser) QuantiseFloat(v float64) uint32 {
	if v != 0 {
		return 1
	}
	return 0
}
