package engine

import "github.com/cwbudde/rankmorph/internal/driver"

// directArraysIfEnabled wraps storage in directArrayStorage when
// opts.OptimiseDirectArrays is set and storage exposes a contiguous
// backing buffer, short-circuiting GetInt/GetDouble to a direct slice
// index. It returns storage unchanged otherwise (the flag is off, or
// storage has no backing buffer, e.g. matrix.Tiled).
func directArraysIfEnabled(storage driver.Storage, opts KernelOptions) driver.Storage {
	if !opts.OptimiseDirectArrays {
		return storage
	}
	buf, offset, ok := storage.BackingBuffer()
	if !ok {
		return storage
	}
	switch b := buf.(type) {
	case []int64:
		return &directArrayStorage{Storage: storage, ints: b, offset: int64(offset)}
	case []float64:
		return &directArrayStorage{Storage: storage, floats: b, offset: int64(offset)}
	default:
		return storage
	}
}

// directArrayStorage decorates a driver.Storage whose BackingBuffer()
// exposes a contiguous native slice, reading straight out of that slice
// instead of delegating to the wrapped storage's own GetInt/GetDouble
// (which may carry its own indirection, e.g. a tiled or offset view).
// Length, ElementBits, IsFloat and BackingBuffer itself are inherited
// unchanged from the embedded Storage.
type directArrayStorage struct {
	driver.Storage
	ints   []int64
	floats []float64
	offset int64
}

func (d *directArrayStorage) GetInt(i int64) int64 { return d.ints[d.offset+i] }

func (d *directArrayStorage) GetDouble(i int64) float64 { return d.floats[d.offset+i] }
