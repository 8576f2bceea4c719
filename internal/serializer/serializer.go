package serializer

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrOutOfBounds is returned by Err after a read field call ran past the
// end of the input buffer.
var ErrOutOfBounds = errors.New("serializer: read past end of buffer")

// Mode selects what a field call does with the cursor.
type Mode int

const (
	// Measure counts bytes without touching any buffer.
	Measure Mode = iota
	// Write copies field bytes into the caller's buffer.
	Write
	// Read extracts field bytes from the caller's buffer.
	Read
)

// Serializer is a cursor over a byte buffer. Field methods advance it by
// the exact encoded size of the field in every mode.
type Serializer struct {
	mode Mode
	buf  []byte
	off  int
	err  error
}

// NewMeasurer returns a serializer that only counts bytes.
func NewMeasurer() *Serializer {
	return &Serializer{mode: Measure}
}

// NewWriter returns a serializer that writes into buf. The caller must
// have measured the schema first; writing past len(buf) panics.
func NewWriter(buf []byte) *Serializer {
	return &Serializer{mode: Write, buf: buf}
}

// NewReader returns a serializer that reads from buf.
func NewReader(buf []byte) *Serializer {
	return &Serializer{mode: Read, buf: buf}
}

// Mode reports the serializer's mode.
func (s *Serializer) Mode() Mode { return s.mode }

// IsReading reports whether the serializer extracts values.
func (s *Serializer) IsReading() bool { return s.mode == Read }

// Size returns the number of bytes consumed or produced so far. In
// Measure mode this is the total encoded size of the schema.
func (s *Serializer) Size() int { return s.off }

// Err returns the first error encountered, or nil.
func (s *Serializer) Err() error { return s.err }

// Fail marks the serializer as failed. Schema code calls it when the
// input is structurally invalid in a way plain bounds checks cannot see,
// such as a packed name missing its zero terminator.
func (s *Serializer) Fail() {
	if s.err == nil {
		s.err = ErrOutOfBounds
	}
}

// End reports whether the cursor sits exactly at the end of the buffer.
// Always true in Measure mode.
func (s *Serializer) End() bool {
	return s.mode == Measure || s.off == len(s.buf)
}

// Remain reports how many bytes of the buffer are unconsumed. Zero in
// Measure mode.
func (s *Serializer) Remain() int {
	if s.mode == Measure {
		return 0
	}
	return len(s.buf) - s.off
}

// Remaining returns the unconsumed tail of the buffer and advances the
// cursor past it. Used for trailing payloads (shader bytecode) that are
// not length-prefixed. In Measure mode it returns nil.
func (s *Serializer) Remaining() []byte {
	if s.mode == Measure || s.err != nil {
		return nil
	}
	tail := s.buf[s.off:]
	s.off = len(s.buf)
	return tail
}

// advance claims n bytes at the cursor and returns their slice, or nil if
// the serializer is measuring or has already failed.
func (s *Serializer) advance(n int) []byte {
	if s.err != nil {
		return nil
	}
	if s.mode == Measure {
		s.off += n
		return nil
	}
	if s.off+n > len(s.buf) {
		if s.mode == Write {
			panic("serializer: write past end of buffer (measure and write disagree)")
		}
		s.err = ErrOutOfBounds
		return nil
	}
	b := s.buf[s.off : s.off+n]
	s.off += n
	return b
}

// Uint8 serializes a single byte.
func (s *Serializer) Uint8(v *uint8) {
	b := s.advance(1)
	if b == nil {
		return
	}
	if s.mode == Write {
		b[0] = *v
	} else {
		*v = b[0]
	}
}

// Uint16 serializes a 16-bit unsigned integer.
func (s *Serializer) Uint16(v *uint16) {
	b := s.advance(2)
	if b == nil {
		return
	}
	if s.mode == Write {
		binary.LittleEndian.PutUint16(b, *v)
	} else {
		*v = binary.LittleEndian.Uint16(b)
	}
}

// Uint32 serializes a 32-bit unsigned integer.
func (s *Serializer) Uint32(v *uint32) {
	b := s.advance(4)
	if b == nil {
		return
	}
	if s.mode == Write {
		binary.LittleEndian.PutUint32(b, *v)
	} else {
		*v = binary.LittleEndian.Uint32(b)
	}
}

// Uint64 serializes a 64-bit unsigned integer.
func (s *Serializer) Uint64(v *uint64) {
	b := s.advance(8)
	if b == nil {
		return
	}
	if s.mode == Write {
		binary.LittleEndian.PutUint64(b, *v)
	} else {
		*v = binary.LittleEndian.Uint64(b)
	}
}

// Int32 serializes a 32-bit signed integer.
func (s *Serializer) Int32(v *int32) {
	u := uint32(*v)
	s.Uint32(&u)
	*v = int32(u)
}

// Float32 serializes a 32-bit float by bit pattern.
func (s *Serializer) Float32(v *float32) {
	u := math.Float32bits(*v)
	s.Uint32(&u)
	*v = math.Float32frombits(u)
}

// Bool serializes a boolean as one byte (0 or 1).
func (s *Serializer) Bool(v *bool) {
	var u uint8
	if *v {
		u = 1
	}
	s.Uint8(&u)
	*v = u != 0
}

// String serializes a string as a uint32 length including the zero
// terminator, followed by the bytes and the terminator. The empty string
// is encoded as length zero with no payload; it is the null sentinel for
// optional references.
func (s *Serializer) String(v *string) {
	var n uint32
	if s.mode != Read && len(*v) > 0 {
		n = uint32(len(*v)) + 1
	}
	s.Uint32(&n)
	if n == 0 {
		if s.mode == Read {
			*v = ""
		}
		return
	}
	b := s.advance(int(n))
	if b == nil {
		return
	}
	if s.mode == Write {
		copy(b, *v)
		b[n-1] = 0
	} else {
		if b[n-1] != 0 {
			s.err = ErrOutOfBounds
			return
		}
		*v = string(b[:n-1])
	}
}

// Bytes serializes a raw fixed-length byte run with no length prefix. In
// Read mode it fills p from the buffer.
func (s *Serializer) Bytes(p []byte) {
	b := s.advance(len(p))
	if b == nil {
		return
	}
	if s.mode == Write {
		copy(b, p)
	} else {
		copy(p, b)
	}
}

// Uint32Slice serializes a variable-length array of uint32 as a uint32
// count followed by the elements. In Read mode the slice is allocated.
func (s *Serializer) Uint32Slice(v *[]uint32) {
	n := uint32(len(*v))
	s.Uint32(&n)
	if s.mode == Read {
		if s.err != nil {
			return
		}
		if int(n)*4 > len(s.buf)-s.off {
			s.err = ErrOutOfBounds
			return
		}
		*v = nil
		if n > 0 {
			*v = make([]uint32, n)
		}
	}
	for i := range *v {
		s.Uint32(&(*v)[i])
	}
}
