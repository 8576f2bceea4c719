package serializer

import (
	"testing"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	t.Parallel()

	schema := func(s *Serializer, u8 *uint8, u16 *uint16, u32 *uint32, u64 *uint64, i32 *int32, f32 *float32, b *bool) {
		s.Uint8(u8)
		s.Uint16(u16)
		s.Uint32(u32)
		s.Uint64(u64)
		s.Int32(i32)
		s.Float32(f32)
		s.Bool(b)
	}

	u8, u16, u32, u64 := uint8(0xAB), uint16(0xCDEF), uint32(0xDEADBEEF), uint64(0x0123456789ABCDEF)
	i32, f32, b := int32(-42), float32(3.5), true

	m := NewMeasurer()
	schema(m, &u8, &u16, &u32, &u64, &i32, &f32, &b)
	if got, want := m.Size(), 1+2+4+8+4+4+1; got != want {
		t.Fatalf("measured %d bytes, want %d", got, want)
	}

	buf := make([]byte, m.Size())
	w := NewWriter(buf)
	schema(w, &u8, &u16, &u32, &u64, &i32, &f32, &b)
	if !w.End() {
		t.Fatalf("writer stopped at %d of %d bytes", w.Size(), len(buf))
	}

	var ru8 uint8
	var ru16 uint16
	var ru32 uint32
	var ru64 uint64
	var ri32 int32
	var rf32 float32
	var rb bool
	r := NewReader(buf)
	schema(r, &ru8, &ru16, &ru32, &ru64, &ri32, &rf32, &rb)
	if err := r.Err(); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !r.End() {
		t.Fatal("reader did not consume the full buffer")
	}
	if ru8 != u8 || ru16 != u16 || ru32 != u32 || ru64 != u64 || ri32 != i32 || rf32 != f32 || rb != b {
		t.Fatalf("round trip mismatch: got %v %v %v %v %v %v %v", ru8, ru16, ru32, ru64, ri32, rf32, rb)
	}
}

func TestStringRoundTrip(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		value string
		size  int
	}{
		{name: "Empty", value: "", size: 4},
		{name: "Single", value: "x", size: 4 + 2},
		{name: "EntryPoint", value: "main", size: 4 + 5},
		{name: "WithSpaces", value: "Default Signature of PSO 'P'", size: 4 + 29},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			v := tc.value
			m := NewMeasurer()
			m.String(&v)
			if m.Size() != tc.size {
				t.Fatalf("measured %d bytes, want %d", m.Size(), tc.size)
			}

			buf := make([]byte, m.Size())
			w := NewWriter(buf)
			w.String(&v)
			if !w.End() {
				t.Fatalf("writer stopped at %d of %d bytes", w.Size(), len(buf))
			}

			var out string
			r := NewReader(buf)
			r.String(&out)
			if err := r.Err(); err != nil {
				t.Fatalf("read failed: %v", err)
			}
			if out != tc.value {
				t.Fatalf("got %q, want %q", out, tc.value)
			}
		})
	}
}

func TestUint32SliceRoundTrip(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		values []uint32
	}{
		{name: "Empty", values: nil},
		{name: "Single", values: []uint32{7}},
		{name: "Many", values: []uint32{0, 1, 2, 0xFFFFFFFF, 42}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			v := tc.values
			m := NewMeasurer()
			m.Uint32Slice(&v)
			if got, want := m.Size(), 4+4*len(tc.values); got != want {
				t.Fatalf("measured %d bytes, want %d", got, want)
			}

			buf := make([]byte, m.Size())
			w := NewWriter(buf)
			w.Uint32Slice(&v)

			var out []uint32
			r := NewReader(buf)
			r.Uint32Slice(&out)
			if err := r.Err(); err != nil {
				t.Fatalf("read failed: %v", err)
			}
			if len(out) != len(tc.values) {
				t.Fatalf("got %d elements, want %d", len(out), len(tc.values))
			}
			for i := range out {
				if out[i] != tc.values[i] {
					t.Fatalf("element %d: got %d, want %d", i, out[i], tc.values[i])
				}
			}
		})
	}
}

func TestReadPastEnd(t *testing.T) {
	t.Parallel()

	r := NewReader([]byte{1, 2})
	var v uint32
	r.Uint32(&v)
	if r.Err() != ErrOutOfBounds {
		t.Fatalf("got %v, want ErrOutOfBounds", r.Err())
	}

	// Errors are sticky: further calls stay failed and do not panic.
	var u uint8
	r.Uint8(&u)
	if r.Err() != ErrOutOfBounds {
		t.Fatalf("sticky error lost: %v", r.Err())
	}
}

func TestTruncatedString(t *testing.T) {
	t.Parallel()

	// Length claims 100 bytes; only 2 follow.
	buf := []byte{100, 0, 0, 0, 'a', 'b'}
	r := NewReader(buf)
	var v string
	r.String(&v)
	if r.Err() != ErrOutOfBounds {
		t.Fatalf("got %v, want ErrOutOfBounds", r.Err())
	}
}

func TestWritePastEndPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("writing past the end did not panic")
		}
	}()
	w := NewWriter(make([]byte, 2))
	var v uint32
	w.Uint32(&v)
}

func TestRemaining(t *testing.T) {
	t.Parallel()

	buf := []byte{7, 0, 0, 0, 0xAA, 0xBB}
	r := NewReader(buf)
	var v uint32
	r.Uint32(&v)
	tail := r.Remaining()
	if len(tail) != 2 || tail[0] != 0xAA || tail[1] != 0xBB {
		t.Fatalf("unexpected tail %v", tail)
	}
	if !r.End() {
		t.Fatal("Remaining did not consume the buffer")
	}
}
