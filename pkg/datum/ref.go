package datum

import "math"

// DatumRef is a copyable, non-owning view of a Datum. It assumes the
// referenced value is never null; use NullableDatumRef to also carry the
// null flag. For an inline value it copies the eight bytes; for an
// indirect (variable-length or pass-by-reference) value it stores a
// pointer to the source Datum, costing one extra indirection on read.
type DatumRef struct {
	indirect bool
	inline   uint64
	src      *Datum
}

// RefFromDatum converts d into a DatumRef. It is provided alongside
// (Datum).Ref for call sites that hold a pointer rather than a value.
func RefFromDatum(d *Datum) DatumRef { return d.Ref() }

// GetBool interprets the referenced inline bits as a boolean.
func (r DatumRef) GetBool() bool { return r.val() != 0 }

// GetI16 interprets the referenced inline bits as a signed 16-bit int.
func (r DatumRef) GetI16() int16 { return int16(r.val()) }

// GetI32 interprets the referenced inline bits as a signed 32-bit int.
func (r DatumRef) GetI32() int32 { return int32(r.val()) }

// GetU32 interprets the referenced inline bits as an unsigned 32-bit int.
func (r DatumRef) GetU32() uint32 { return uint32(r.val()) }

// GetI64 interprets the referenced inline bits as a signed 64-bit int.
func (r DatumRef) GetI64() int64 { return int64(r.val()) }

// GetU64 returns the referenced inline bits as an unsigned 64-bit int.
func (r DatumRef) GetU64() uint64 { return r.val() }

// GetF32 reinterprets the referenced inline bits as a float32.
func (r DatumRef) GetF32() float32 { return math.Float32frombits(uint32(r.val())) }

// GetF64 reinterprets the referenced inline bits as a float64.
func (r DatumRef) GetF64() float64 { return math.Float64frombits(r.val()) }

func (r DatumRef) val() uint64 {
	if r.indirect {
		return r.src.inline
	}
	return r.inline
}

// GetVarlenBytes returns the referenced indirect payload.
func (r DatumRef) GetVarlenBytes() []byte {
	if !r.indirect {
		return nil
	}
	return r.src.GetVarlenBytes()
}

// GetVarlenSize returns the length of the referenced indirect payload.
func (r DatumRef) GetVarlenSize() uint32 {
	if !r.indirect {
		return 0
	}
	return r.src.GetVarlenSize()
}

// GetFixedLengthBytes returns the referenced inline storage as
// little-endian bytes.
func (r DatumRef) GetFixedLengthBytes() [8]byte {
	if r.indirect {
		return r.src.GetFixedLengthBytes()
	}
	var b [8]byte
	b[0] = byte(r.inline)
	b[1] = byte(r.inline >> 8)
	b[2] = byte(r.inline >> 16)
	b[3] = byte(r.inline >> 24)
	b[4] = byte(r.inline >> 32)
	b[5] = byte(r.inline >> 40)
	b[6] = byte(r.inline >> 48)
	b[7] = byte(r.inline >> 56)
	return b
}

// IsIndirect reports whether the referenced value is stored out of line.
func (r DatumRef) IsIndirect() bool { return r.indirect }

// IsNull always reports false: a DatumRef never refers to a null value.
func (r DatumRef) IsNull() bool { return false }

// NullableDatumRef additionally carries whether the referenced value is
// null, for call sites (such as a function call's argument vector) that
// need to pass nullability alongside the value.
type NullableDatumRef struct {
	isNull bool
	ref    DatumRef
}

// NullRef returns a NullableDatumRef carrying no value.
func NullRef() NullableDatumRef { return NullableDatumRef{isNull: true} }

// IsNull reports whether the referenced datum is null.
func (r NullableDatumRef) IsNull() bool { return r.isNull }

// Unwrap returns the non-nullable DatumRef view of r. Calling this on a
// null reference is a programming error; it returns the zero DatumRef.
func (r NullableDatumRef) Unwrap() DatumRef {
	if r.isNull {
		return DatumRef{}
	}
	return r.ref
}

// GetVarlenBytes returns the referenced indirect payload, or nil if null.
func (r NullableDatumRef) GetVarlenBytes() []byte {
	if r.isNull {
		return nil
	}
	return r.ref.GetVarlenBytes()
}

// GetVarlenSize returns the length of the indirect payload, or 0 if null.
func (r NullableDatumRef) GetVarlenSize() uint32 {
	if r.isNull {
		return 0
	}
	return r.ref.GetVarlenSize()
}

// GetFixedLengthBytes returns the inline storage as little-endian bytes,
// or the zero value if null.
func (r NullableDatumRef) GetFixedLengthBytes() [8]byte {
	if r.isNull {
		return [8]byte{}
	}
	return r.ref.GetFixedLengthBytes()
}

// GetI32 interprets the referenced inline bits as a signed 32-bit int.
// Calling this on a null reference is a programming error; it returns 0.
func (r NullableDatumRef) GetI32() int32 {
	if r.isNull {
		return 0
	}
	return r.ref.GetI32()
}

// GetI64 interprets the referenced inline bits as a signed 64-bit int.
func (r NullableDatumRef) GetI64() int64 {
	if r.isNull {
		return 0
	}
	return r.ref.GetI64()
}

// GetI16 interprets the referenced inline bits as a signed 16-bit int.
func (r NullableDatumRef) GetI16() int16 {
	if r.isNull {
		return 0
	}
	return r.ref.GetI16()
}

// GetU32 interprets the referenced inline bits as an unsigned 32-bit int.
func (r NullableDatumRef) GetU32() uint32 {
	if r.isNull {
		return 0
	}
	return r.ref.GetU32()
}

// GetU64 returns the referenced inline bits as an unsigned 64-bit int.
func (r NullableDatumRef) GetU64() uint64 {
	if r.isNull {
		return 0
	}
	return r.ref.GetU64()
}

// GetBool interprets the referenced inline bits as a boolean.
func (r NullableDatumRef) GetBool() bool {
	if r.isNull {
		return false
	}
	return r.ref.GetBool()
}

// GetF32 reinterprets the referenced inline bits as a float32.
func (r NullableDatumRef) GetF32() float32 {
	if r.isNull {
		return 0
	}
	return r.ref.GetF32()
}

// GetF64 reinterprets the referenced inline bits as a float64.
func (r NullableDatumRef) GetF64() float64 {
	if r.isNull {
		return 0
	}
	return r.ref.GetF64()
}
