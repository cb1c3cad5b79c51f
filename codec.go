package buildmap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Errors returned by the binary and JSON codecs. Wrapped errors carry the entity, field and offending
// value; use errors.Is to classify them.
var (
	ErrBufferUnderrun  = errors.New("buffer underrun")
	ErrOutOfRange      = errors.New("value out of range")
	ErrMissingProperty = errors.New("missing property")
	ErrUnknownProperty = errors.New("unknown property")
	ErrInvalidType     = errors.New("invalid type")
	ErrTooManyEntities = errors.New("too many entities")
	ErrFileExists      = errors.New("file already exists")
)

// LegacyVersion is the only map version using the old field ordering. Every other version shares
// the modern layout.
const LegacyVersion = 6

// NoIndex marks an unused wall or sector reference (-1 as a signed short on disk).
const NoIndex uint16 = 0xFFFF

type layout int

const (
	layoutModern layout = iota
	layoutLegacy
)

func layoutFor(mapVersion uint32) layout {
	if mapVersion == LegacyVersion {
		return layoutLegacy
	}
	return layoutModern
}

func (l layout) String() string {
	if l == layoutLegacy {
		return "legacy"
	}
	return "modern"
}

// readLE reads a fixed size record. Short reads are reported as ErrBufferUnderrun.
func readLE(r io.Reader, data any) error {
	err := binary.Read(r, binary.LittleEndian, data)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: need %d bytes", ErrBufferUnderrun, binary.Size(data))
	}
	return err
}

func writeLE(w io.Writer, data any) error {
	return binary.Write(w, binary.LittleEndian, data)
}

// integerBounds returns the inclusive range of T.
func integerBounds[T constraints.Integer]() (int64, uint64) {
	var zero T
	bits := unsafe.Sizeof(zero) * 8
	if ^zero < 0 {
		return -(1 << (bits - 1)), 1<<(bits-1) - 1
	}
	return 0, uint64(^zero)
}

// checkRange fails with ErrOutOfRange unless lo <= v <= hi.
func checkRange[T constraints.Integer](field string, v, lo, hi T) error {
	if v < lo || v > hi {
		return fmt.Errorf("%w: %s is %d, must be between %d and %d", ErrOutOfRange, field, v, lo, hi)
	}
	return nil
}
