package schema

import (
	"errors"
	"testing"

	"github.com/corvidb/corvid/pkg/datum"
	"github.com/corvidb/corvid/pkg/fn"
	"github.com/corvidb/corvid/pkg/ids"
)

const (
	oidInt2    ids.OID = 21
	oidInt4    ids.OID = 23
	oidVarchar ids.OID = 1043
)

type fakeTypeFinder struct{}

func (fakeTypeFinder) FindType(oid ids.OID) (TypeInfo, bool) {
	switch oid {
	case oidInt2:
		return TypeInfo{TypLen: 2, TypAlign: 2, TypByRef: false}, true
	case oidInt4:
		return TypeInfo{TypLen: 4, TypAlign: 4, TypByRef: false}, true
	case oidVarchar:
		return TypeInfo{TypLen: -1, TypAlign: 1, TypByRef: true}, true
	default:
		return TypeInfo{}, false
	}
}

func newTestRegistry() *fn.Registry {
	return fn.NewRegistry()
}

func mustComputeLayout(t *testing.T, s *Schema) {
	t.Helper()
	if err := s.ComputeLayout(fakeTypeFinder{}, newTestRegistry()); err != nil {
		t.Fatalf("ComputeLayout: %v", err)
	}
}

func TestShortCircuitLayout(t *testing.T) {
	s, err := New([]FieldSpec{
		{TypeID: oidInt4, Nullable: false},
		{TypeID: oidInt4, Nullable: false},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mustComputeLayout(t, s)
	if !s.hasOnlyNonNullableFixedLen {
		t.Fatalf("expected the fast path for an all non-nullable fixed-length schema")
	}
	buf := mustWrite(t, s, []datum.NullableDatumRef{
		datum.FromI32(1).NullableRef(), datum.FromI32(2).NullableRef(),
	})
	if s.nullBitmapBegin != int32(len(buf)) {
		t.Fatalf("nullBitmapBegin should equal recordLength on the fast path")
	}
}

func mustWrite(t *testing.T, s *Schema, data []datum.NullableDatumRef) []byte {
	t.Helper()
	var buf []byte
	if _, err := s.WritePayload(data, &buf); err != nil {
		t.Fatalf("WritePayload: %v", err)
	}
	return buf
}

func TestThreeFieldRoundTrip(t *testing.T) {
	s, err := New([]FieldSpec{
		{TypeID: oidInt4, Nullable: false, Name: "a"},
		{TypeID: oidVarchar, Nullable: true, Name: "b"},
		{TypeID: oidInt2, Nullable: true, Name: "c"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mustComputeLayout(t, s)

	i32 := datum.FromI32(42)
	n := datum.Null()
	i16 := datum.FromI16(-7)
	buf := mustWrite(t, s, []datum.NullableDatumRef{i32.NullableRef(), n.NullableRef(), i16.NullableRef()})

	if len(buf)%8 != 0 {
		t.Fatalf("record length %d is not 8-byte aligned", len(buf))
	}
	if got := s.GetField(0, buf).GetI32(); got != 42 {
		t.Fatalf("field 0 = %d, want 42", got)
	}
	if !s.FieldIsNull(1, buf) {
		t.Fatalf("field 1 should be null")
	}
	if s.FieldIsNull(2, buf) {
		t.Fatalf("field 2 should not be null")
	}
	if got := s.GetField(2, buf).GetI16(); got != -7 {
		t.Fatalf("field 2 = %d, want -7", got)
	}
}

func TestVarlenReorder(t *testing.T) {
	s, err := New([]FieldSpec{
		{TypeID: oidVarchar, Nullable: false, Name: "v0"},
		{TypeID: oidInt4, Nullable: false, Name: "i"},
		{TypeID: oidVarchar, Nullable: false, Name: "v1"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mustComputeLayout(t, s)

	hello, _ := datum.FromCString("hello")
	ab, _ := datum.FromCString("ab")
	i32 := datum.FromI32(123)
	buf := mustWrite(t, s, []datum.NullableDatumRef{
		hello.NullableRef(), i32.NullableRef(), ab.NullableRef(),
	})

	_, len0 := s.OffsetAndLength(0, buf)
	if len0 != 5 {
		t.Fatalf("field 0 length = %d, want 5", len0)
	}
	_, len2 := s.OffsetAndLength(2, buf)
	if len2 != 2 {
		t.Fatalf("field 2 length = %d, want 2", len2)
	}
	if got := s.GetField(1, buf).GetI32(); got != 123 {
		t.Fatalf("field 1 = %d, want 123", got)
	}
}

func TestDissemblePayloadRoundTrip(t *testing.T) {
	s, err := New([]FieldSpec{
		{TypeID: oidInt4, Nullable: false, Name: "a"},
		{TypeID: oidVarchar, Nullable: true, Name: "b"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mustComputeLayout(t, s)

	v, _ := datum.FromCString("xyz")
	buf := mustWrite(t, s, []datum.NullableDatumRef{datum.FromI32(9).NullableRef(), v.NullableRef()})

	got := s.DissemblePayload(buf)
	if len(got) != 2 {
		t.Fatalf("DissemblePayload returned %d fields, want 2", len(got))
	}
	if got[0].GetI32() != 9 {
		t.Fatalf("field 0 = %d, want 9", got[0].GetI32())
	}
	if got[1].GetVarlenString() != "xyz" {
		t.Fatalf("field 1 = %q, want xyz", got[1].GetVarlenString())
	}
}

func TestWritePayloadFieldCountMismatch(t *testing.T) {
	s, err := New([]FieldSpec{{TypeID: oidInt4, Nullable: false}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mustComputeLayout(t, s)

	var buf []byte
	_, err = s.WritePayload([]datum.NullableDatumRef{}, &buf)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestWritePayloadNullConstraint(t *testing.T) {
	s, err := New([]FieldSpec{{TypeID: oidInt4, Nullable: false}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mustComputeLayout(t, s)

	var buf []byte
	_, err = s.WritePayload([]datum.NullableDatumRef{datum.NullRef()}, &buf)
	if !errors.Is(err, ErrNullConstraint) {
		t.Fatalf("err = %v, want ErrNullConstraint", err)
	}
}

func TestComputeLayoutUnknownType(t *testing.T) {
	s, err := New([]FieldSpec{{TypeID: 999999, Nullable: false}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.ComputeLayout(fakeTypeFinder{}, newTestRegistry()); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestFieldIDFromName(t *testing.T) {
	s, err := New([]FieldSpec{
		{TypeID: oidInt4, Name: "a"},
		{TypeID: oidInt4, Name: "b"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := s.FieldIDFromName("b"); got != 1 {
		t.Fatalf("FieldIDFromName(b) = %d, want 1", got)
	}
	if got := s.FieldIDFromName("missing"); got != ids.InvalidFieldID {
		t.Fatalf("FieldIDFromName(missing) = %d, want InvalidFieldID", got)
	}
}
