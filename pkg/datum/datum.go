// Package datum implements the runtime carrier for values of SQL types
// (component A of the core): Datum, the unique-owned value, and DatumRef /
// NullableDatumRef, the copyable, non-owning views passed into function-call
// sites.
//
// A Datum is read-only once constructed. Fixed-length values that fit in
// eight bytes are stored inline; everything else — variable-length payloads
// and fixed-length pass-by-reference payloads — is stored in a byte slice,
// either borrowed from the caller or owned by the Datum. Go's garbage
// collector retires the need for an explicit free, but the owned/borrowed
// distinction is kept because it changes whether DeepCopy is a no-op, and
// it documents which Datums may alias memory the caller controls (e.g. a
// pinned buffer page).
package datum

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"
)

// Datum is a runtime container for one value of a SQL type, or null.
//
// The zero value is not a valid Datum; always construct one through a
// From* function or Null().
type Datum struct {
	isNull   bool
	indirect bool // true when the value lives in bytes rather than inline
	owned    bool // true when this Datum owns the backing byte slice
	size     uint32
	inline   uint64
	bytes    []byte
}

// Null returns the null datum.
func Null() Datum {
	return Datum{isNull: true}
}

// IsNull reports whether d carries no value.
func (d Datum) IsNull() bool {
	return d.isNull
}

func fromInline(v uint64) Datum {
	return Datum{inline: v}
}

// FromBool returns a datum representation of a boolean.
func FromBool(v bool) Datum {
	if v {
		return fromInline(1)
	}
	return fromInline(0)
}

// FromI8 returns a datum representation of a signed 8-bit integer.
func FromI8(v int8) Datum { return fromInline(uint64(uint8(v))) }

// FromU8 returns a datum representation of an unsigned 8-bit integer.
func FromU8(v uint8) Datum { return fromInline(uint64(v)) }

// FromI16 returns a datum representation of a signed 16-bit integer.
func FromI16(v int16) Datum { return fromInline(uint64(int64(v))) }

// FromU16 returns a datum representation of an unsigned 16-bit integer.
func FromU16(v uint16) Datum { return fromInline(uint64(v)) }

// FromI32 returns a datum representation of a signed 32-bit integer.
func FromI32(v int32) Datum { return fromInline(uint64(int64(v))) }

// FromU32 returns a datum representation of an unsigned 32-bit integer.
func FromU32(v uint32) Datum { return fromInline(uint64(v)) }

// FromI64 returns a datum representation of a signed 64-bit integer.
func FromI64(v int64) Datum { return fromInline(uint64(v)) }

// FromU64 returns a datum representation of an unsigned 64-bit integer.
func FromU64(v uint64) Datum { return fromInline(v) }

// FromF32 returns a datum representation of a single-precision float.
//
// Like the reference engine's Datum::From(float), the bits are carried
// through the inline storage via a reinterpret, not a numeric conversion,
// because the ABI's integer and float passing conventions differ.
func FromF32(v float32) Datum { return fromInline(uint64(math.Float32bits(v))) }

// FromF64 returns a datum representation of a double-precision float.
func FromF64(v float64) Datum { return fromInline(math.Float64bits(v)) }

// FromPointer returns a datum representation of an opaque pointer value.
// The pointer is not owned or tracked by the Go garbage collector through
// the Datum; callers must keep the referent alive independently.
func FromPointer(p unsafe.Pointer) Datum { return fromInline(uint64(uintptr(p))) }

// FromFixedLengthBytes packs a fixed-length pass-by-value payload into a
// datum's inline storage. size must be one of 1, 2, 4, 8 and bytes must be
// at least that long; anything else is an InvalidArgument failure.
func FromFixedLengthBytes(bytes []byte, size int) (Datum, error) {
	if len(bytes) < size {
		return Datum{}, fmt.Errorf("%w: fixed-length payload shorter than size %d", ErrInvalidArgument, size)
	}
	switch size {
	case 1:
		return fromInline(uint64(bytes[0])), nil
	case 2:
		return fromInline(uint64(binary.LittleEndian.Uint16(bytes))), nil
	case 4:
		return fromInline(uint64(binary.LittleEndian.Uint32(bytes))), nil
	case 8:
		return fromInline(binary.LittleEndian.Uint64(bytes)), nil
	default:
		return Datum{}, fmt.Errorf("%w: unsupported pass-by-value length %d", ErrInvalidArgument, size)
	}
}

// maxCStringLen bounds the length of a string datum constructed through
// FromCString, mirroring the 32-bit size field it is encoded into.
const maxCStringLen = math.MaxUint32

// FromCString returns a datum representation of a string that is not owned
// by the datum. A C-string is always treated as a variable-length value.
func FromCString(s string) (Datum, error) {
	if len(s) > maxCStringLen {
		return Datum{}, fmt.Errorf("%w: cstring is too long: %d bytes", ErrInvalidArgument, len(s))
	}
	return FromVarlenBytesBorrowed([]byte(s)), nil
}

// FromVarlenBytesOwned returns a datum representation of a variable-length
// byte array owned by this datum. DeepCopy on an owned varlen datum is a
// no-op.
func FromVarlenBytesOwned(b []byte) Datum {
	return Datum{indirect: true, owned: true, size: uint32(len(b)), bytes: b}
}

// FromVarlenBytesBorrowed returns a datum representation of a
// variable-length byte array that this datum does not own; the caller must
// keep the backing array alive for as long as the datum (or any DatumRef
// derived from it) is read.
func FromVarlenBytesBorrowed(b []byte) Datum {
	return Datum{indirect: true, owned: false, size: uint32(len(b)), bytes: b}
}

// nullable wraps a constructor with a null flag, matching the "nullable
// overload" pattern every From* function in the spec exposes.
func nullable(isNull bool, d Datum) Datum {
	if isNull {
		return Null()
	}
	return d
}

// FromBoolNullable is the nullable overload of FromBool.
func FromBoolNullable(v bool, isNull bool) Datum { return nullable(isNull, FromBool(v)) }

// FromI16Nullable is the nullable overload of FromI16.
func FromI16Nullable(v int16, isNull bool) Datum { return nullable(isNull, FromI16(v)) }

// FromI32Nullable is the nullable overload of FromI32.
func FromI32Nullable(v int32, isNull bool) Datum { return nullable(isNull, FromI32(v)) }

// FromI64Nullable is the nullable overload of FromI64.
func FromI64Nullable(v int64, isNull bool) Datum { return nullable(isNull, FromI64(v)) }

// FromU32Nullable is the nullable overload of FromU32.
func FromU32Nullable(v uint32, isNull bool) Datum { return nullable(isNull, FromU32(v)) }

// FromF32Nullable is the nullable overload of FromF32.
func FromF32Nullable(v float32, isNull bool) Datum { return nullable(isNull, FromF32(v)) }

// FromF64Nullable is the nullable overload of FromF64.
func FromF64Nullable(v float64, isNull bool) Datum { return nullable(isNull, FromF64(v)) }

// FromCStringNullable is the nullable overload of FromCString.
func FromCStringNullable(s string, isNull bool) (Datum, error) {
	if isNull {
		return Null(), nil
	}
	return FromCString(s)
}

// GetBool interprets the inline bits as a boolean.
func (d Datum) GetBool() bool { return d.inline != 0 }

// GetI8 interprets the low byte of the inline bits as a signed 8-bit int.
func (d Datum) GetI8() int8 { return int8(d.inline) }

// GetU8 interprets the low byte of the inline bits as an unsigned 8-bit int.
func (d Datum) GetU8() uint8 { return uint8(d.inline) }

// GetI16 interprets the low two bytes of the inline bits as a signed int.
func (d Datum) GetI16() int16 { return int16(d.inline) }

// GetU16 interprets the low two bytes of the inline bits as an unsigned int.
func (d Datum) GetU16() uint16 { return uint16(d.inline) }

// GetI32 interprets the low four bytes of the inline bits as a signed int.
func (d Datum) GetI32() int32 { return int32(d.inline) }

// GetU32 interprets the low four bytes of the inline bits as an unsigned int.
func (d Datum) GetU32() uint32 { return uint32(d.inline) }

// GetI64 interprets the inline bits as a signed 64-bit int.
func (d Datum) GetI64() int64 { return int64(d.inline) }

// GetU64 returns the inline bits as an unsigned 64-bit int.
func (d Datum) GetU64() uint64 { return d.inline }

// GetF32 reinterprets the low four bytes of the inline bits as a float32.
func (d Datum) GetF32() float32 { return math.Float32frombits(uint32(d.inline)) }

// GetF64 reinterprets the inline bits as a float64.
func (d Datum) GetF64() float64 { return math.Float64frombits(d.inline) }

// GetPointer reinterprets the inline bits as an opaque pointer.
func (d Datum) GetPointer() unsafe.Pointer { return unsafe.Pointer(uintptr(d.inline)) } //nolint:govet

// GetFixedLengthBytes returns the datum's inline storage as little-endian
// bytes, for copying a pass-by-value field into a record payload.
func (d Datum) GetFixedLengthBytes() [8]byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], d.inline)
	return b
}

// GetVarlenBytes returns the datum's variable-length (or pass-by-reference
// fixed-length) payload.
func (d Datum) GetVarlenBytes() []byte { return d.bytes }

// GetVarlenSize returns the length of the datum's indirect payload.
func (d Datum) GetVarlenSize() uint32 { return d.size }

// GetVarlenString returns the datum's indirect payload as a string. There
// is no guarantee the bytes form a valid UTF-8 string.
func (d Datum) GetVarlenString() string { return string(d.bytes) }

// IsIndirect reports whether the datum's value is stored out of line
// (variable-length or fixed-length pass-by-reference) rather than inline.
func (d Datum) IsIndirect() bool { return d.indirect }

// HasExternalRef reports whether the datum's payload is a borrowed
// reference into memory this datum does not own — memory that must remain
// alive for the datum to be safely read (e.g. a pinned buffer page).
func (d Datum) HasExternalRef() bool {
	return d.indirect && !d.owned
}

// DeepCopy returns a datum with no external reference, copying the
// backing bytes into a freshly owned slice when necessary. It is a no-op
// when the datum already owns its payload or carries no indirect payload.
func (d Datum) DeepCopy() Datum {
	if !d.HasExternalRef() {
		return d
	}
	cp := make([]byte, len(d.bytes))
	copy(cp, d.bytes)
	d.bytes = cp
	d.owned = true
	return d
}

// Ref returns a DatumRef viewing this datum. Taking a ref copies d (a
// cheap, fixed-size struct) so the call works on a temporary, not just an
// addressable variable; the copy's backing byte slice is still shared.
func (d Datum) Ref() DatumRef {
	if d.indirect {
		dCopy := d
		return DatumRef{indirect: true, src: &dCopy}
	}
	return DatumRef{inline: d.inline}
}

// NullableRef returns a NullableDatumRef viewing this datum, carrying its
// null flag alongside the value.
func (d Datum) NullableRef() NullableDatumRef {
	if d.isNull {
		return NullableDatumRef{isNull: true}
	}
	return NullableDatumRef{ref: d.Ref()}
}
