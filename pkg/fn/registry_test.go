package fn

import (
	"errors"
	"testing"

	"github.com/corvidb/corvid/pkg/datum"
	"github.com/corvidb/corvid/pkg/ids"
)

func TestRegisterAndCall(t *testing.T) {
	r := NewRegistry()
	const addOid ids.OID = 100
	r.Register(addOid, func(args []datum.NullableDatumRef, _ uint64) datum.Datum {
		return datum.FromI32(args[0].GetI32() + args[1].GetI32())
	})

	a := datum.FromI32(2)
	b := datum.FromI32(3)
	res, err := r.Call(addOid, []datum.NullableDatumRef{a.NullableRef(), b.NullableRef()}, 0)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got := res.GetI32(); got != 5 {
		t.Fatalf("result = %d, want 5", got)
	}
}

func TestCallUnregisteredOid(t *testing.T) {
	r := NewRegistry()
	_, err := r.Call(999, nil, 0)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCall1(t *testing.T) {
	r := NewRegistry()
	const typLenOid ids.OID = 200
	r.Register(typLenOid, func(args []datum.NullableDatumRef, typeParam uint64) datum.Datum {
		return datum.FromI16(int16(typeParam))
	})
	res, err := r.Call1(typLenOid, datum.FromU64(16), 16)
	if err != nil {
		t.Fatalf("Call1: %v", err)
	}
	if got := res.GetI16(); got != 16 {
		t.Fatalf("result = %d, want 16", got)
	}
}
