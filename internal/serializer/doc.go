/*
Package serializer provides the tri-mode cursor that defines the archive's
byte format.

Every schema in the archive is written exactly once as a sequence of field
calls on a *Serializer. The serializer runs in one of three modes:

  - Measure: advances a byte counter by the exact size each field occupies.
  - Write: appends each field's bytes at a cursor inside a caller buffer.
  - Read: extracts each field from a caller buffer at a cursor.

Because the same schema code drives all three modes, measure and write are
guaranteed to agree on sizes, and write followed by read reproduces the
original values.

# Usage

	schema := func(s *serializer.Serializer, d *Desc) {
	    s.Uint32(&d.Count)
	    s.String(&d.Name)
	}

	m := serializer.NewMeasurer()
	schema(m, &desc)

	buf := make([]byte, m.Size())
	w := serializer.NewWriter(buf)
	schema(w, &desc)

	r := serializer.NewReader(buf)
	var out Desc
	schema(r, &out)
	if err := r.Err(); err != nil {
	    // truncated or corrupt input
	}

Errors are sticky: the first read past the end of the buffer records
ErrOutOfBounds and turns every subsequent field call into a no-op, so
schema code never needs per-field error checks. Writing past the end of a
measured buffer is a programmer error and panics.

# Encoding

All values are packed with no padding, little-endian byte order. Strings
are a uint32 length that includes the zero terminator, followed by the
bytes and the terminator; the empty string is encoded as length zero with
no bytes and doubles as the null sentinel. Arrays are a uint32 count
followed by the elements. Enums are stored at their underlying integer
width.
*/
package serializer
