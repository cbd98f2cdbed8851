// Package matrix provides concrete, swappable driver.Storage
// implementations: a dense flat-slice buffer per element type, and a
// tiled view that deliberately has no contiguous backing buffer so the
// circular-wrap invariant can be exercised independent of direct-buffer
// indexing. Neither is a general-purpose matrix API; both exist solely to
// feed internal/driver.
package matrix

import "github.com/cwbudde/rankmorph/internal/quant"

// Dense is a flat, contiguous buffer Storage over one of the seven
// supported element types: a single []T slice addressed by flat index.
type Dense struct {
	elemType quant.ElementType
	ints     []int64
	floats   []float64
}

// NewDenseInt builds a Dense storage over integer-backed data (Bit, U8,
// U16, I32, I64).
func NewDenseInt(t quant.ElementType, data []int64) *Dense {
	return &Dense{elemType: t, ints: data}
}

// NewDenseFloat builds a Dense storage over float-backed data (F32, F64).
func NewDenseFloat(t quant.ElementType, data []float64) *Dense {
	return &Dense{elemType: t, floats: data}
}

func (d *Dense) Length() int64 {
	if d.IsFloat() {
		return int64(len(d.floats))
	}
	return int64(len(d.ints))
}

func (d *Dense) IsFloat() bool { return d.elemType.IsFloat() }

func (d *Dense) GetInt(i int64) int64 { return d.ints[i] }

func (d *Dense) GetDouble(i int64) float64 { return d.floats[i] }

func (d *Dense) ElementBits() int { return d.elemType.NativeBits() }

// BackingBuffer exposes the contiguous slice directly, enabling the
// driver's direct-buffer read path (KernelOptions's
// optimise_direct_arrays).
func (d *Dense) BackingBuffer() (buf any, offset int, ok bool) {
	if d.IsFloat() {
		return d.floats, 0, true
	}
	return d.ints, 0, true
}

// ElementType reports the quantiser type this storage was built for.
func (d *Dense) ElementType() quant.ElementType { return d.elemType }
