// Package schema implements the tuple layout engine (component C): given
// a declared vector of (typeId, typeParam, nullable, name) fields, it
// computes a deterministic binary record layout, then reads and writes
// records under that layout.
//
// The layout computation is generic over a TypeFinder, the capability
// that resolves a type OID to its length/alignment/pass-by-reference
// metadata. Both the bootstrap catalog (package bootstrap) and the
// regular catalog cache (package catalog) implement TypeFinder, which is
// how the cyclic "Schema needs the catalog, the catalog needs Schema" is
// broken: the bootstrap catalog hard-codes enough to resolve its own
// columns' types before the regular cache exists.
package schema

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/corvidb/corvid/pkg/datum"
	"github.com/corvidb/corvid/pkg/fn"
	"github.com/corvidb/corvid/pkg/ids"
)

// maxAlignment is the alignment every record's total length is padded to.
// The varlen end-offset array is aligned to 4 (sizeof(int32)) instead.
const maxAlignment = 8

// TypeInfo is the metadata about a SQL type that Schema's layout
// computation needs: its fixed length (-1 for variable-length), its
// alignment, whether it is passed by reference, and the function (if
// any) that computes its length from a type parameter.
type TypeInfo struct {
	TypLen     int16
	TypAlign   uint8
	TypByRef   bool
	TypLenFunc ids.OID
}

// TypeFinder resolves a type OID to its TypeInfo. FindType's second
// return value is false when the OID is unknown.
type TypeFinder interface {
	FindType(oid ids.OID) (TypeInfo, bool)
}

// FieldSpec declares one field of a not-yet-laid-out schema.
type FieldSpec struct {
	TypeID    ids.OID
	TypeParam uint64
	Nullable  bool
	// Name is optional; leave empty for an unnamed field.
	Name string
}

// field is the internal, mutable-during-layout representation of one
// declared field. Before ComputeLayout only TypeID, TypeParam, and
// Nullable are meaningful; everything else is populated by the layout
// algorithm.
type field struct {
	typeID    ids.OID
	typeParam uint64
	nullable  bool
	name      string

	typLen   int16
	typAlign uint8
	typByRef bool

	// offset is >=0 for a non-nullable fixed-length field (its absolute
	// byte offset), or a negative sequence number -(k) for a
	// variable-length or nullable fixed-length field: k-1 is that
	// field's index into the varlen end-offset array or the nullable
	// fixed-length storage order, respectively. This mirrors the
	// reference engine's Schema::m_field[i].m_offset exactly.
	offset int32

	// nullBitID is -1 for a non-nullable field, otherwise its bit
	// index into the null bitmap once ComputeLayout has run.
	nullBitID int32
}

// Schema is an ordered list of fields. Before ComputeLayout succeeds it
// only exposes the declared (typeId, typeParam, nullable, name) vectors;
// afterward it additionally exposes the computed byte layout.
type Schema struct {
	fields          []field
	fieldReorderIdx []int32 // storage position -> declaration position

	layoutComputed bool

	numNonNullableFixedLen int32
	numNullableFixedLen    int32
	numVarlen              int32

	hasOnlyNonNullableFixedLen bool

	nullBitmapBegin     int32
	varlenEndArrayBegin int32
	varlenPayloadBegin  int32
}

// New validates and constructs a layout-uncomputed Schema from fields.
// fields must be non-empty and no longer than ids.MaxNumFields.
func New(fields []FieldSpec) (*Schema, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: schema must have at least one field", ErrInvalidArgument)
	}
	if len(fields) > ids.MaxNumFields {
		return nil, fmt.Errorf("%w: schema has %d fields, max is %d", ErrInvalidArgument, len(fields), ids.MaxNumFields)
	}
	s := &Schema{fields: make([]field, len(fields))}
	for i, fs := range fields {
		s.fields[i] = field{
			typeID:    fs.TypeID,
			typeParam: fs.TypeParam,
			nullable:  fs.Nullable,
			name:      fs.Name,
			nullBitID: -1,
		}
	}
	return s, nil
}

// NumFields returns the number of declared fields.
func (s *Schema) NumFields() ids.FieldID {
	return ids.FieldID(len(s.fields))
}

// IsLayoutComputed reports whether ComputeLayout has succeeded.
func (s *Schema) IsLayoutComputed() bool {
	return s.layoutComputed
}

// FieldName returns the declared name of field i, or "" if unnamed.
func (s *Schema) FieldName(i ids.FieldID) string {
	return s.fields[i].name
}

// FieldTypeID returns the declared type OID of field i.
func (s *Schema) FieldTypeID(i ids.FieldID) ids.OID {
	return s.fields[i].typeID
}

// FieldTypeParam returns the declared type parameter of field i.
func (s *Schema) FieldTypeParam(i ids.FieldID) uint64 {
	return s.fields[i].typeParam
}

// FieldNullable reports whether field i was declared nullable.
func (s *Schema) FieldNullable(i ids.FieldID) bool {
	return s.fields[i].nullable
}

// FieldIDFromName returns the declaration position of the field named
// name, or ids.InvalidFieldID if no field has that name.
func (s *Schema) FieldIDFromName(name string) ids.FieldID {
	for i, f := range s.fields {
		if f.name == name {
			return ids.FieldID(i)
		}
	}
	return ids.InvalidFieldID
}

func alignUp(off, align int64) int64 {
	return (off + align - 1) &^ (align - 1)
}

func checkOverflow(v int64) error {
	if v > math.MaxInt32 || v < math.MinInt32 {
		return ErrRecordTooLarge
	}
	return nil
}

// ComputeLayout runs the two-pass layout algorithm (§4.C of the
// specification this package implements) against tf and reg, populating
// every field's offset, alignment, pass-by-value flag, and null-bit
// index, and the schema's null-bitmap/varlen-array/varlen-payload
// boundaries. It fails with ErrRecordTooLarge on 31-bit offset overflow
// and ErrInvalidArgument if a declared type is unknown to tf or a
// pass-by-value type's resolved length is not one of {1,2,4,8}.
func (s *Schema) ComputeLayout(tf TypeFinder, reg *fn.Registry) error {
	var off int64
	numFields := len(s.fields)
	var numNonNullableFixedLen, numNullableFixedLen, numVarlen, numNullableVarlen int32

	s.fieldReorderIdx = make([]int32, numFields)

	// Pass 1: classify every field and place non-nullable fixed-length
	// fields at their final absolute offsets.
	for i := range s.fields {
		f := &s.fields[i]
		ti, ok := tf.FindType(f.typeID)
		if !ok {
			return fmt.Errorf("%w: unknown type oid %s", ErrInvalidArgument, f.typeID)
		}
		f.typLen = ti.TypLen
		f.typAlign = ti.TypAlign

		if ti.TypLen == -1 {
			// Variable-length field.
			f.typByRef = true
			numVarlen++
			f.offset = -numVarlen
			if f.nullable {
				numNullableVarlen++
			}
			continue
		}

		f.typByRef = ti.TypByRef
		if ti.TypLenFunc != ids.InvalidOID {
			res, err := reg.Call1(ti.TypLenFunc, datum.FromU64(f.typeParam), f.typeParam)
			if err != nil {
				return fmt.Errorf("resolving typlen for field %d: %w", i, err)
			}
			if res.IsNull() {
				return fmt.Errorf("%w: typlen function for field %d returned null", ErrInvalidArgument, i)
			}
			f.typLen = res.GetI16()
		}
		if !f.typByRef {
			if f.typLen > 8 || f.typLen <= 0 || (f.typLen&(f.typLen-1)) != 0 {
				return fmt.Errorf("%w: pass-by-value type of field %d has invalid length %d", ErrInvalidArgument, i, f.typLen)
			}
		}

		if f.nullable {
			numNullableFixedLen++
			f.offset = -numNullableFixedLen
			continue
		}

		aligned := alignUp(off, int64(f.typAlign))
		if err := checkOverflow(aligned); err != nil {
			return err
		}
		f.offset = int32(aligned)
		s.fieldReorderIdx[numNonNullableFixedLen] = int32(i)
		numNonNullableFixedLen++
		off = aligned + int64(f.typLen)
		if err := checkOverflow(off); err != nil {
			return err
		}
	}

	s.numNonNullableFixedLen = numNonNullableFixedLen
	s.numNullableFixedLen = numNullableFixedLen
	s.numVarlen = numVarlen

	if int(numNonNullableFixedLen) == numFields {
		// Fast path: a schema with no nullable and no varlen fields.
		off = alignUp(off, maxAlignment)
		if err := checkOverflow(off); err != nil {
			return err
		}
		s.nullBitmapBegin = int32(off)
		s.varlenEndArrayBegin = int32(off)
		s.varlenPayloadBegin = int32(off)
		s.hasOnlyNonNullableFixedLen = true
		s.layoutComputed = true
		return nil
	}
	s.hasOnlyNonNullableFixedLen = false

	// Pass 2: assign null-bit indices and the remaining reorder-index
	// entries, scanning in declaration order. Null bits are assigned in
	// storage order: nullable varlen fields first, then nullable
	// fixed-length fields.
	var numNullableFields int32
	for i := range s.fields {
		f := &s.fields[i]
		if f.typLen == -1 {
			seqno := numNonNullableFixedLen + (-f.offset - 1)
			s.fieldReorderIdx[seqno] = int32(i)
			if f.nullable {
				f.nullBitID = -f.offset - 1
				numNullableFields++
			}
		} else if f.nullable {
			seqno := numNonNullableFixedLen + numVarlen + (-f.offset - 1)
			s.fieldReorderIdx[seqno] = int32(i)
			f.nullBitID = -f.offset - 1 + numNullableVarlen
			numNullableFields++
		}
	}

	s.nullBitmapBegin = int32(off)
	off += int64((numNullableFields + 7) >> 3)
	if err := checkOverflow(off); err != nil {
		return err
	}

	off = alignUp(off, 4)
	if err := checkOverflow(off); err != nil {
		return err
	}
	s.varlenEndArrayBegin = int32(off)

	off += int64(numVarlen) * 4
	if err := checkOverflow(off); err != nil {
		return err
	}
	s.varlenPayloadBegin = int32(off)

	s.layoutComputed = true
	return nil
}

func readVarlenEnd(payload []byte, varlenEndArrayBegin int32, idx int32) int32 {
	off := varlenEndArrayBegin + idx*4
	return int32(binary.LittleEndian.Uint32(payload[off : off+4]))
}

func writeVarlenEnd(buf []byte, varlenEndArrayBegin int32, idx int32, val int32) {
	off := varlenEndArrayBegin + idx*4
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(val))
}

func bitSet(bitmap []byte, bit int32) bool {
	return bitmap[bit>>3]&(1<<(uint(bit)&7)) != 0
}

func setBit(bitmap []byte, bit int32) {
	bitmap[bit>>3] |= 1 << (uint(bit) & 7)
}

// FieldIsNull reports whether field i is null in payload. It always
// returns false for a non-nullable field without reading payload.
func (s *Schema) FieldIsNull(i ids.FieldID, payload []byte) bool {
	f := &s.fields[i]
	if f.nullBitID < 0 {
		return false
	}
	return bitSet(payload[s.nullBitmapBegin:], f.nullBitID)
}

// OffsetAndLength returns the byte offset and length of field i within
// payload. For a null varlen field, the returned length is 0; callers
// that need to distinguish a null field from a genuinely empty one
// should consult FieldIsNull first.
func (s *Schema) OffsetAndLength(i ids.FieldID, payload []byte) (offset, length int32) {
	f := &s.fields[i]
	if f.offset >= 0 {
		return f.offset, int32(f.typLen)
	}

	if f.typLen == -1 {
		varlenIdx := -f.offset - 1
		end := readVarlenEnd(payload, s.varlenEndArrayBegin, varlenIdx)
		var begin int32
		if varlenIdx > 0 {
			begin = readVarlenEnd(payload, s.varlenEndArrayBegin, varlenIdx-1)
		} else {
			begin = s.varlenPayloadBegin
		}
		begin = int32(alignUp(int64(begin), int64(f.typAlign)))
		if end < begin {
			return begin, 0
		}
		return begin, end - begin
	}

	// Nullable fixed-length field: scan storage order from the end of
	// the varlen section to find this field's running offset.
	seqno := s.numNonNullableFixedLen + s.numVarlen
	var off int32
	if s.numVarlen == 0 {
		off = s.varlenPayloadBegin
	} else {
		off = readVarlenEnd(payload, s.varlenEndArrayBegin, s.numVarlen-1)
	}
	nullBitmap := payload[s.nullBitmapBegin:]
	for s.fieldReorderIdx[seqno] != int32(i) {
		fi := &s.fields[s.fieldReorderIdx[seqno]]
		if !bitSet(nullBitmap, fi.nullBitID) {
			off = int32(alignUp(int64(off), int64(fi.typAlign))) + int32(fi.typLen)
		}
		seqno++
	}
	begin := int32(alignUp(int64(off), int64(f.typAlign)))
	return begin, int32(f.typLen)
}

// GetField returns a borrowed datum for field i in payload: a borrowed
// varlen datum for variable-length and pass-by-reference fixed-length
// fields, an inline datum for pass-by-value fixed-length fields, or the
// null datum when the field is null.
func (s *Schema) GetField(i ids.FieldID, payload []byte) datum.Datum {
	if s.FieldIsNull(i, payload) {
		return datum.Null()
	}
	begin, length := s.OffsetAndLength(i, payload)
	f := &s.fields[i]
	if f.typLen == -1 {
		return datum.FromVarlenBytesBorrowed(payload[begin : begin+length])
	}
	if f.typByRef {
		return datum.FromVarlenBytesBorrowed(payload[begin : begin+int32(f.typLen)])
	}
	d, err := datum.FromFixedLengthBytes(payload[begin:], int(f.typLen))
	if err != nil {
		// f.typLen was already validated during ComputeLayout.
		panic(err)
	}
	return d
}

// DissemblePayload decodes every field of payload into a Datum vector,
// in declaration order.
func (s *Schema) DissemblePayload(payload []byte) []datum.Datum {
	n := len(s.fields)
	out := make([]datum.Datum, n)
	for i := 0; i < n; i++ {
		out[i] = s.GetField(ids.FieldID(i), payload)
	}
	return out
}

// WritePayload encodes data — one NullableDatumRef per declared field, in
// declaration order — into *buf, starting at the next 8-byte-aligned
// position past buf's current length. It returns the length of the
// encoded record (a multiple of 8, not counting any padding appended
// before it), or an error. WritePayload
// fails with ErrInvalidArgument if len(data) != s.NumFields(), and with
// ErrNullConstraint if a non-nullable field is given a null datum.
func (s *Schema) WritePayload(data []datum.NullableDatumRef, buf *[]byte) (int32, error) {
	if !s.layoutComputed {
		return 0, ErrNotLayoutComputed
	}
	if len(data) != len(s.fields) {
		return 0, fmt.Errorf("%w: write got %d fields, schema has %d", ErrInvalidArgument, len(data), len(s.fields))
	}

	pad := alignUp(int64(len(*buf)), maxAlignment) - int64(len(*buf))
	*buf = append(*buf, make([]byte, pad)...)
	initLen := int32(len(*buf))
	if err := checkOverflow(int64(initLen) + int64(s.varlenPayloadBegin)); err != nil {
		return -1, err
	}
	*buf = append(*buf, make([]byte, s.varlenPayloadBegin)...)

	off := s.varlenPayloadBegin
	for _, declIdx := range s.fieldReorderIdx {
		f := &s.fields[declIdx]
		d := data[declIdx]

		if f.offset >= 0 {
			// Non-nullable fixed-length field.
			if d.IsNull() {
				return -1, fmt.Errorf("%w: field %d", ErrNullConstraint, declIdx)
			}
			var bytes []byte
			if f.typByRef {
				bytes = d.GetVarlenBytes()
			} else {
				fb := d.GetFixedLengthBytes()
				bytes = fb[:]
			}
			copy((*buf)[int(initLen)+int(f.offset):], bytes[:f.typLen])
			continue
		}

		if d.IsNull() {
			if !f.nullable {
				return -1, fmt.Errorf("%w: field %d", ErrNullConstraint, declIdx)
			}
			setBit((*buf)[initLen+s.nullBitmapBegin:], f.nullBitID)
			if f.typLen == -1 {
				writeVarlenEnd(*buf, initLen+s.varlenEndArrayBegin, -f.offset-1, off)
			}
			continue
		}

		newoff := int32(alignUp(int64(off), int64(f.typAlign)))
		if err := checkOverflow(int64(initLen) + int64(newoff)); err != nil {
			return -1, err
		}

		var fieldLen int32
		var bytes []byte
		if f.typLen == -1 {
			fieldLen = int32(d.GetVarlenSize())
			bytes = d.GetVarlenBytes()
			writeVarlenEnd(*buf, initLen+s.varlenEndArrayBegin, -f.offset-1, newoff+fieldLen)
		} else {
			fieldLen = int32(f.typLen)
			if f.typByRef {
				bytes = d.GetVarlenBytes()
			} else {
				fb := d.GetFixedLengthBytes()
				bytes = fb[:]
			}
		}
		if err := checkOverflow(int64(initLen) + int64(newoff) + int64(fieldLen)); err != nil {
			return -1, err
		}

		needed := int(initLen) + int(newoff) + int(fieldLen)
		if needed > len(*buf) {
			*buf = append(*buf, make([]byte, needed-len(*buf))...)
		}
		copy((*buf)[int(initLen)+int(newoff):], bytes[:fieldLen])
		off = newoff + fieldLen
	}

	off = int32(alignUp(int64(off), maxAlignment))
	if err := checkOverflow(int64(initLen) + int64(off)); err != nil {
		return -1, err
	}
	needed := int(initLen) + int(off)
	if needed > len(*buf) {
		*buf = append(*buf, make([]byte, needed-len(*buf))...)
	}
	*buf = (*buf)[:needed]
	return off, nil
}
