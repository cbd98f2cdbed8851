package matrix

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/rankmorph/internal/quant"
)

// magic identifies a rankmorph dense-matrix file. Version 1: fixed header,
// flat element payload, no compression.
var magic = [4]byte{'R', 'K', 'M', '1'}

// LoadFile reads a Dense matrix previously written by SaveFile.
//
// Layout: 4-byte magic, 1-byte element type (quant.ElementType), 8-byte
// little-endian element count, then the payload: int64 elements for
// integer-backed types, float64 elements for F32/F64 (F32 values are
// stored and loaded as float64 and are not narrowed back to float32, since
// the Storage interface only exposes GetDouble for float types).
func LoadFile(path string) (*Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("matrix: open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var got [4]byte
	if _, err := io.ReadFull(r, got[:]); err != nil {
		return nil, fmt.Errorf("matrix: read magic: %w", err)
	}
	if got != magic {
		return nil, fmt.Errorf("matrix: %s is not a rankmorph matrix file", path)
	}

	var typeByte [1]byte
	if _, err := io.ReadFull(r, typeByte[:]); err != nil {
		return nil, fmt.Errorf("matrix: read element type: %w", err)
	}
	elemType := quant.ElementType(typeByte[0])

	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("matrix: read element count: %w", err)
	}

	if elemType.IsFloat() {
		floats := make([]float64, count)
		if err := binary.Read(r, binary.LittleEndian, floats); err != nil {
			return nil, fmt.Errorf("matrix: read float payload: %w", err)
		}
		return NewDenseFloat(elemType, floats), nil
	}

	ints := make([]int64, count)
	if err := binary.Read(r, binary.LittleEndian, ints); err != nil {
		return nil, fmt.Errorf("matrix: read int payload: %w", err)
	}
	return NewDenseInt(elemType, ints), nil
}

// SaveFile writes d in the LoadFile format.
func SaveFile(path string, d *Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("matrix: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if err := w.WriteByte(byte(d.elemType)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(d.Length())); err != nil {
		return err
	}

	if d.IsFloat() {
		if err := binary.Write(w, binary.LittleEndian, d.floats); err != nil {
			return err
		}
	} else {
		if err := binary.Write(w, binary.LittleEndian, d.ints); err != nil {
			return err
		}
	}
	return w.Flush()
}
