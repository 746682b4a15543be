package builtin

import (
	"testing"

	"github.com/corvidb/corvid/pkg/catalog/oids"
	"github.com/corvidb/corvid/pkg/datum"
	"github.com/corvidb/corvid/pkg/fn"
)

func newInstalledRegistry() *fn.Registry {
	reg := fn.NewRegistry()
	Install(reg)
	return reg
}

func TestInt4InOutRoundTrip(t *testing.T) {
	reg := newInstalledRegistry()
	in, err := reg.Call1(oids.FuncInt4In, mustVarchar(t, "42"), 0)
	if err != nil {
		t.Fatalf("Call1 in: %v", err)
	}
	if got := in.GetI32(); got != 42 {
		t.Fatalf("parsed = %d, want 42", got)
	}
	out, err := reg.Call1(oids.FuncInt4Out, in, 0)
	if err != nil {
		t.Fatalf("Call1 out: %v", err)
	}
	if got := out.GetVarlenString(); got != "42" {
		t.Fatalf("formatted = %q, want 42", got)
	}
}

func TestInt4InRejectsGarbage(t *testing.T) {
	reg := newInstalledRegistry()
	got, err := reg.Call1(oids.FuncInt4In, mustVarchar(t, "not-a-number"), 0)
	if err != nil {
		t.Fatalf("Call1: %v", err)
	}
	if !got.IsNull() {
		t.Fatalf("expected null on unparsable input")
	}
}

func TestFloat8Eq(t *testing.T) {
	reg := newInstalledRegistry()
	a := datum.FromF64(3.5)
	b := datum.FromF64(3.5)
	got, err := reg.Call(oids.FuncFloat8Eq, []datum.NullableDatumRef{a.NullableRef(), b.NullableRef()}, 0)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !got.GetBool() {
		t.Fatalf("expected 3.5 == 3.5")
	}
}

func TestBoolInOut(t *testing.T) {
	reg := newInstalledRegistry()
	v, err := reg.Call1(oids.FuncBoolIn, mustVarchar(t, "t"), 0)
	if err != nil {
		t.Fatalf("Call1: %v", err)
	}
	if !v.GetBool() {
		t.Fatalf("expected true")
	}
	out, err := reg.Call1(oids.FuncBoolOut, v, 0)
	if err != nil {
		t.Fatalf("Call1: %v", err)
	}
	if out.GetVarlenString() != "t" {
		t.Fatalf("formatted = %q, want t", out.GetVarlenString())
	}
}

func TestVarcharTruncatesTrailingSpacesOnly(t *testing.T) {
	reg := newInstalledRegistry()
	got, err := reg.Call1(oids.FuncVarcharIn, mustVarchar(t, "hello   "), 5)
	if err != nil {
		t.Fatalf("Call1: %v", err)
	}
	if got.GetVarlenString() != "hello" {
		t.Fatalf("got %q, want hello", got.GetVarlenString())
	}
}

func TestVarcharRejectsOverLongNonSpace(t *testing.T) {
	reg := newInstalledRegistry()
	got, err := reg.Call1(oids.FuncVarcharIn, mustVarchar(t, "helloworld"), 5)
	if err != nil {
		t.Fatalf("Call1: %v", err)
	}
	if !got.IsNull() {
		t.Fatalf("expected null for over-length non-space input")
	}
}

func TestCharPadsShortInput(t *testing.T) {
	reg := newInstalledRegistry()
	got, err := reg.Call1(oids.FuncCharIn, mustVarchar(t, "ab"), 5)
	if err != nil {
		t.Fatalf("Call1: %v", err)
	}
	if got.GetVarlenString() != "ab   " {
		t.Fatalf("got %q, want %q", got.GetVarlenString(), "ab   ")
	}
}

func TestCharTypLenFunc(t *testing.T) {
	reg := newInstalledRegistry()
	got, err := reg.Call(oids.FuncCharTypLen, nil, 12)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got.GetI16() != 12 {
		t.Fatalf("got %d, want 12", got.GetI16())
	}
}

func TestFindOperator(t *testing.T) {
	reg := NewRegistry()
	oid, ok := reg.FindOperator(OpAdd, oids.TypInt4, oids.TypInt4)
	if !ok || oid != oids.FuncInt4Add {
		t.Fatalf("FindOperator(OpAdd, INT4, INT4) = (%v, %v)", oid, ok)
	}
	if _, ok := reg.FindOperator(OpAdd, oids.TypVarchar, oids.TypVarchar); ok {
		t.Fatalf("expected no arithmetic operator for VARCHAR")
	}
	if _, ok := reg.FindOperator(OpEq, oids.TypInt4, oids.TypInt8); ok {
		t.Fatalf("expected no cross-type operator")
	}
}

func mustVarchar(t *testing.T, s string) datum.Datum {
	t.Helper()
	d, err := datum.FromCString(s)
	if err != nil {
		t.Fatalf("FromCString: %v", err)
	}
	return d
}
