package matrix

import "github.com/cwbudde/rankmorph/internal/quant"

// Tiled is a Storage view over several fixed-size chunks that are not
// contiguous in memory (e.g. pages fetched independently). It always
// reports no BackingBuffer, forcing the indexed GetInt/GetDouble path, so
// tests can verify the circular-wrap invariant without a single-slice
// buffer making the wrap arithmetic trivially satisfiable.
type Tiled struct {
	elemType  quant.ElementType
	tileSize  int64
	intTiles  [][]int64
	floatTiles [][]float64
}

// NewTiledInt builds a Tiled integer storage from equally-sized chunks
// (the last chunk may be shorter).
func NewTiledInt(t quant.ElementType, tiles [][]int64) *Tiled {
	size := int64(0)
	if len(tiles) > 0 {
		size = int64(len(tiles[0]))
	}
	return &Tiled{elemType: t, tileSize: size, intTiles: tiles}
}

// NewTiledFloat builds a Tiled float storage from equally-sized chunks.
func NewTiledFloat(t quant.ElementType, tiles [][]float64) *Tiled {
	size := int64(0)
	if len(tiles) > 0 {
		size = int64(len(tiles[0]))
	}
	return &Tiled{elemType: t, tileSize: size, floatTiles: tiles}
}

func (t *Tiled) IsFloat() bool { return t.elemType.IsFloat() }

func (t *Tiled) Length() int64 {
	if t.IsFloat() {
		if len(t.floatTiles) == 0 {
			return 0
		}
		return int64(len(t.floatTiles)-1)*t.tileSize + int64(len(t.floatTiles[len(t.floatTiles)-1]))
	}
	if len(t.intTiles) == 0 {
		return 0
	}
	return int64(len(t.intTiles)-1)*t.tileSize + int64(len(t.intTiles[len(t.intTiles)-1]))
}

func (t *Tiled) locate(i int64) (tile, offset int64) {
	return i / t.tileSize, i % t.tileSize
}

func (t *Tiled) GetInt(i int64) int64 {
	tile, offset := t.locate(i)
	return t.intTiles[tile][offset]
}

func (t *Tiled) GetDouble(i int64) float64 {
	tile, offset := t.locate(i)
	return t.floatTiles[tile][offset]
}

func (t *Tiled) ElementBits() int { return t.elemType.NativeBits() }

// BackingBuffer always reports false: Tiled exists specifically to force
// the indexed read path.
func (t *Tiled) BackingBuffer() (buf any, offset int, ok bool) { return nil, 0, false }
