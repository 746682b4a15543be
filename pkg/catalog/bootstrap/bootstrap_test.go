package bootstrap

import (
	"testing"

	"github.com/corvidb/corvid/pkg/catalog/oids"
	"github.com/corvidb/corvid/pkg/fn"
)

func TestNewBuildsEverySystableDescriptor(t *testing.T) {
	reg := fn.NewRegistry()
	cat, err := New(reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, tabid := range SystableOIDs() {
		desc, ok := cat.FindTableDesc(tabid)
		if !ok {
			t.Fatalf("missing table descriptor for %s", tabid)
		}
		if !desc.Schema.IsLayoutComputed() {
			t.Fatalf("schema for %s is not layout-computed", tabid)
		}
	}
}

func TestFindTypeResolvesBuiltinTypes(t *testing.T) {
	reg := fn.NewRegistry()
	cat, err := New(reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	info, ok := cat.FindType(oids.TypInt4)
	if !ok {
		t.Fatalf("expected INT4 to resolve")
	}
	if info.TypLen != 4 || info.TypByRef {
		t.Fatalf("unexpected TypeInfo for INT4: %+v", info)
	}
	if _, ok := cat.FindType(999999); ok {
		t.Fatalf("expected unknown type oid to fail")
	}
}

func TestFindColumnsOfMatchesSystabColumns(t *testing.T) {
	reg := fn.NewRegistry()
	cat, err := New(reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cols := cat.FindColumnsOf(oids.TabTable)
	if len(cols) != 4 {
		t.Fatalf("got %d columns for Table systable, want 4", len(cols))
	}
	if cols[1].ColName != "tabname" {
		t.Fatalf("column 1 name = %q, want tabname", cols[1].ColName)
	}
}

func TestInputFuncOfResolvesChar(t *testing.T) {
	reg := fn.NewRegistry()
	cat, err := New(reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f, ok := cat.InputFuncOf(oids.TypChar)
	if !ok || f != oids.FuncCharIn {
		t.Fatalf("InputFuncOf(CHAR) = (%v, %v)", f, ok)
	}
}
