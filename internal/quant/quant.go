// Package quant maps one raw matrix element to a histogram bar index.
//
// The mapping is the sliding-aperture engine's only type-specific code: once
// an element has been quantised to a bar in [0, 2^k), every downstream
// consumer (rankhist, kernel) operates on plain bar indices. A quantiser is
// created once per kernel invocation and is immutable afterwards.
package quant

import "fmt"

// ElementType identifies the seven numeric element kinds the engine accepts.
type ElementType int

const (
	Bit ElementType = iota
	U8
	U16
	I32
	I64
	F32
	F64
)

func (t ElementType) String() string {
	switch t {
	case Bit:
		return "bit"
	case U8:
		return "u8"
	case U16:
		return "u16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// ParseElementType parses the String() form back into an ElementType, the
// inverse used by configuration loaders (JSON job configs, CLI flags) that
// carry the type as a string.
func ParseElementType(s string) (ElementType, error) {
	switch s {
	case "bit":
		return Bit, nil
	case "u8":
		return U8, nil
	case "u16":
		return U16, nil
	case "i32":
		return I32, nil
	case "i64":
		return I64, nil
	case "f32":
		return F32, nil
	case "f64":
		return F64, nil
	default:
		return 0, fmt.Errorf("quant: unknown element type %q", s)
	}
}

// NativeBits returns the number of bits native to the element type, i.e.
// the maximum value nab can take for that type (see spec table in §4.1).
func (t ElementType) NativeBits() int {
	switch t {
	case Bit:
		return 1
	case U8:
		return 8
	case U16:
		return 16
	case I32:
		return 30
	case I64:
		return 30
	case F32, F64:
		return 32
	default:
		return 0
	}
}

// IsFloat reports whether the type is read via GetDouble rather than GetInt.
func (t ElementType) IsFloat() bool {
	return t == F32 || t == F64
}

// Quantiser maps one raw element to a bar index in [0, BarCount()).
//
// Exactly one of QuantiseInt / QuantiseFloat is meaningful for a given
// quantiser, matching the element type's native storage kind.
type Quantiser interface {
	ElementType() ElementType
	Bits() int
	BarCount() uint32
	MultiplierInv() float64
	QuantiseInt(v int64) uint32
	QuantiseFloat(v float64) uint32
}

// New constructs the quantiser for the given element type and analysed-bit
// count. nab must be in [1, NativeBits(t)]; UnsupportedElementType and
// InvalidNab are returned as sentinel-comparable errors.
func New(t ElementType, nab int) (Quantiser, error) {
	max := t.NativeBits()
	if max == 0 {
		return nil, &UnsupportedElementTypeError{Type: t}
	}
	if nab < 1 || nab > max {
		return nil, &InvalidNabError{Type: t, Nab: nab, Max: max}
	}

	switch t {
	case Bit:
		return bitQuantiser{}, nil
	case U8:
		return newIntQuantiser(t, nab, 8, quantizeUnsigned), nil
	case U16:
		return newIntQuantiser(t, nab, 16, quantizeUnsigned), nil
	case I32:
		return newIntQuantiser(t, nab, 31, quantizeSignedClamp), nil
	case I64:
		return newIntQuantiser(t, nab, 63, quantizeSignedClamp), nil
	case F32, F64:
		return newFloatQuantiser(t, nab), nil
	default:
		return nil, &UnsupportedElementTypeError{Type: t}
	}
}

// UnsupportedElementTypeError is raised when the requested element type is
// none of the seven the engine supports.
type UnsupportedElementTypeError struct {
	Type ElementType
}

func (e *UnsupportedElementTypeError) Error() string {
	return fmt.Sprintf("quant: unsupported element type %s", e.Type)
}

func (e *UnsupportedElementTypeError) Is(target error) bool {
	_, ok := target.(*UnsupportedElementTypeError)
	return ok
}

// InvalidNabError is raised when number_of_analysed_bits is out of range
// for the requested element type.
type InvalidNabError struct {
	Type ElementType
	Nab  int
	Max  int
}

func (e *InvalidNabError) Error() string {
	return fmt.Sprintf("quant: number_of_analysed_bits %d out of range [1,%d] for %s", e.Nab, e.Max, e.Type)
}

func (e *InvalidNabError) Is(target error) bool {
	_, ok := target.(*InvalidNabError)
	return ok
}
