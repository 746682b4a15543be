package datum

import "testing"

func TestNull(t *testing.T) {
	d := Null()
	if !d.IsNull() {
		t.Fatalf("Null() datum should report IsNull")
	}
}

func TestFixedLengthRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		d    Datum
		want int64
	}{
		{"i16", FromI16(-7), -7},
		{"i32", FromI32(42), 42},
		{"i64", FromI64(-9001), -9001},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.d.IsNull() {
				t.Fatalf("datum unexpectedly null")
			}
			if got := tc.d.GetI64(); got != tc.want {
				t.Fatalf("GetI64() = %d, want %d (via inline bits)", got, tc.want)
			}
		})
	}
	if got := FromI32(42).GetI32(); got != 42 {
		t.Fatalf("GetI32() = %d, want 42", got)
	}
	if got := FromI16(-7).GetI16(); got != -7 {
		t.Fatalf("GetI16() = %d, want -7", got)
	}
}

func TestFloatRoundTrip(t *testing.T) {
	f32 := FromF32(3.5)
	if got := f32.GetF32(); got != 3.5 {
		t.Fatalf("GetF32() = %v, want 3.5", got)
	}
	f64 := FromF64(-2.25)
	if got := f64.GetF64(); got != -2.25 {
		t.Fatalf("GetF64() = %v, want -2.25", got)
	}
}

func TestFromFixedLengthBytes(t *testing.T) {
	d, err := FromFixedLengthBytes([]byte{0x2a, 0x00, 0x00, 0x00}, 4)
	if err != nil {
		t.Fatalf("FromFixedLengthBytes: %v", err)
	}
	if got := d.GetI32(); got != 42 {
		t.Fatalf("GetI32() = %d, want 42", got)
	}
	if _, err := FromFixedLengthBytes([]byte{1, 2, 3}, 3); err == nil {
		t.Fatalf("expected error for unsupported length 3")
	}
}

func TestVarlenOwnedVsBorrowed(t *testing.T) {
	src := []byte("hello")
	owned := FromVarlenBytesOwned(append([]byte(nil), src...))
	if owned.HasExternalRef() {
		t.Fatalf("owned varlen datum should not report an external ref")
	}
	if cp := owned.DeepCopy(); string(cp.GetVarlenBytes()) != "hello" {
		t.Fatalf("DeepCopy of owned datum changed value")
	}

	borrowed := FromVarlenBytesBorrowed(src)
	if !borrowed.HasExternalRef() {
		t.Fatalf("borrowed varlen datum should report an external ref")
	}
	cp := borrowed.DeepCopy()
	if cp.HasExternalRef() {
		t.Fatalf("DeepCopy should drop the external ref")
	}
	if string(cp.GetVarlenBytes()) != "hello" {
		t.Fatalf("DeepCopy produced wrong bytes: %q", cp.GetVarlenBytes())
	}
	// Mutating the original backing array must not affect the deep copy.
	src[0] = 'H'
	if string(cp.GetVarlenBytes()) != "hello" {
		t.Fatalf("deep copy aliased the source buffer")
	}
}

// TestCStringShortAccepted only exercises the accept path: maxCStringLen
// is math.MaxUint32, so the rejection branch would need a multi-gigabyte
// string allocated just to fail one comparison, which isn't practical
// to build in a unit test.
func TestCStringShortAccepted(t *testing.T) {
	if _, err := FromCString("fits fine"); err != nil {
		t.Fatalf("unexpected error for a short string: %v", err)
	}
}

func TestDatumRefIndirection(t *testing.T) {
	d := FromVarlenBytesOwned([]byte("abc"))
	ref := d.Ref()
	if !ref.IsIndirect() {
		t.Fatalf("ref over a varlen datum should be indirect")
	}
	if string(ref.GetVarlenBytes()) != "abc" {
		t.Fatalf("GetVarlenBytes() = %q, want abc", ref.GetVarlenBytes())
	}

	fixed := FromI32(7)
	fref := fixed.Ref()
	if fref.IsIndirect() {
		t.Fatalf("ref over a fixed-length datum should not be indirect")
	}
	if fref.GetI32() != 7 {
		t.Fatalf("GetI32() = %d, want 7", fref.GetI32())
	}
}

func TestNullableDatumRef(t *testing.T) {
	n := NullRef()
	if !n.IsNull() {
		t.Fatalf("NullRef() should report IsNull")
	}
	d := FromI32(5)
	r := d.NullableRef()
	if r.IsNull() {
		t.Fatalf("NullableRef of a non-null datum should not be null")
	}
	if r.GetI32() != 5 {
		t.Fatalf("GetI32() = %d, want 5", r.GetI32())
	}
}
