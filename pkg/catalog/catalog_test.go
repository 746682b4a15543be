package catalog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/corvidb/corvid/pkg/catalog/bootstrap"
	"github.com/corvidb/corvid/pkg/catalog/initfile"
	"github.com/corvidb/corvid/pkg/catalog/oids"
	"github.com/corvidb/corvid/pkg/catalog/systab"
	"github.com/corvidb/corvid/pkg/fn"
	"github.com/corvidb/corvid/pkg/ids"
	"github.com/corvidb/corvid/pkg/storage"
)

func newFormattedCatalog(t *testing.T) (*CatCache, *storage.VolatileSubstrate) {
	t.Helper()
	reg := fn.NewRegistry()
	boot, err := bootstrap.New(reg)
	if err != nil {
		t.Fatalf("bootstrap.New: %v", err)
	}
	sub := storage.NewVolatileSubstrate()
	rd := initfile.NewReader(strings.NewReader(""), boot, reg)
	cc, err := FromInit(rd, boot, reg, sub)
	if err != nil {
		t.Fatalf("FromInit: %v", err)
	}
	return cc, sub
}

func TestAddTableThenFindByNameAndOID(t *testing.T) {
	cc, _ := newFormattedCatalog(t)

	oid, err := cc.AddTable("widgets", []ColumnSpec{
		{Name: "id", TypeID: oids.TypInt4},
		{Name: "name", TypeID: oids.TypVarchar, Nullable: true},
	})
	if err != nil {
		t.Fatalf("AddTable: %v", err)
	}
	if oid < ids.MinUserOID {
		t.Fatalf("AddTable returned oid %s, want >= MinUserOID", oid)
	}

	byName, ok := cc.FindTableByName("widgets")
	if !ok {
		t.Fatalf("FindTableByName failed")
	}
	if byName.TabID != oid || byName.NumCols != 2 {
		t.Fatalf("unexpected row %+v", byName)
	}

	byOID, ok := cc.FindTable(oid)
	if !ok || byOID.TabName != "widgets" {
		t.Fatalf("FindTable(%s) = %+v, %v", oid, byOID, ok)
	}

	desc, ok := cc.FindTableDesc(oid)
	if !ok {
		t.Fatalf("FindTableDesc failed")
	}
	if desc.Schema.NumFields() != 2 {
		t.Fatalf("schema has %d fields, want 2", desc.Schema.NumFields())
	}
	if desc.Schema.FieldName(0) != "id" || desc.Schema.FieldName(1) != "name" {
		t.Fatalf("unexpected field names: %q %q", desc.Schema.FieldName(0), desc.Schema.FieldName(1))
	}
}

func TestAddTableRejectsDuplicateName(t *testing.T) {
	cc, _ := newFormattedCatalog(t)
	if _, err := cc.AddTable("dup", []ColumnSpec{{Name: "x", TypeID: oids.TypInt4}}); err != nil {
		t.Fatalf("first AddTable: %v", err)
	}
	if _, err := cc.AddTable("DUP", []ColumnSpec{{Name: "x", TypeID: oids.TypInt4}}); err == nil {
		t.Fatalf("expected a case-insensitive duplicate name to fail")
	}
}

func TestAddIndexResolvesDefaultOperators(t *testing.T) {
	cc, _ := newFormattedCatalog(t)
	tableOid, err := cc.AddTable("nums", []ColumnSpec{{Name: "n", TypeID: oids.TypInt4}})
	if err != nil {
		t.Fatalf("AddTable: %v", err)
	}

	idxOid, err := cc.AddIndex("nums_n_idx", tableOid, systab.IndexTypeVolatile, true, ids.InvalidFileID,
		[]ids.FieldID{0}, []ids.OID{ids.InvalidOID}, []ids.OID{ids.InvalidOID})
	if err != nil {
		t.Fatalf("AddIndex: %v", err)
	}

	desc, ok := cc.FindIndexDesc(idxOid)
	if !ok {
		t.Fatalf("FindIndexDesc failed")
	}
	if desc.Columns[0].LessFuncID != oids.FuncInt4Lt || desc.Columns[0].EqualityFunc != oids.FuncInt4Eq {
		t.Fatalf("unexpected resolved operators: %+v", desc.Columns[0])
	}

	byName, ok := cc.FindIndexByName("nums_n_idx")
	if !ok || byName.IdxTabID != tableOid {
		t.Fatalf("FindIndexByName = %+v, %v", byName, ok)
	}

	all, err := cc.FindAllIndexesOfTable(tableOid)
	if err != nil || len(all) != 1 {
		t.Fatalf("FindAllIndexesOfTable = %v, %v", all, err)
	}
}

func TestAddIndexAcceptsExplicitOperators(t *testing.T) {
	cc, _ := newFormattedCatalog(t)
	tableOid, err := cc.AddTable("blobs", []ColumnSpec{{Name: "v", TypeID: oids.TypVarchar}})
	if err != nil {
		t.Fatalf("AddTable: %v", err)
	}
	idxOid, err := cc.AddIndex("blobs_idx", tableOid, systab.IndexTypeVolatile, false, ids.InvalidFileID,
		[]ids.FieldID{0}, []ids.OID{oids.FuncVarcharLt}, []ids.OID{oids.FuncVarcharEq})
	if err != nil {
		t.Fatalf("AddIndex: %v", err)
	}
	desc, ok := cc.FindIndexDesc(idxOid)
	if !ok || desc.Columns[0].LessFuncID != oids.FuncVarcharLt || desc.Columns[0].EqualityFunc != oids.FuncVarcharEq {
		t.Fatalf("explicit operators were not honored: %+v", desc)
	}
}

func TestAddIndexToUnknownTableFails(t *testing.T) {
	cc, _ := newFormattedCatalog(t)
	if _, err := cc.AddIndex("orphan_idx", ids.OID(999999), systab.IndexTypeVolatile, true, ids.InvalidFileID,
		[]ids.FieldID{0}, []ids.OID{ids.InvalidOID}, []ids.OID{ids.InvalidOID}); err == nil {
		t.Fatalf("expected AddIndex against an unknown table to fail")
	}
}

// TestFromInitDrainsGeneratedBootstrapRows exercises the full
// bootstrap path end to end: a generated init file (package
// bootstrap's WriteInitFile) stands in for the text file a real
// deployment would read off disk, and FromInit drains it into the
// systable heap files exactly as it would any other init file. Once
// drained, every systable's own row (not just the bootstrap's
// in-memory Catalog) must be findable through the ordinary
// SearchCatalogEntry path.
func TestFromInitDrainsGeneratedBootstrapRows(t *testing.T) {
	reg := fn.NewRegistry()
	boot, err := bootstrap.New(reg)
	if err != nil {
		t.Fatalf("bootstrap.New: %v", err)
	}
	var buf bytes.Buffer
	if err := boot.WriteInitFile(&buf); err != nil {
		t.Fatalf("WriteInitFile: %v", err)
	}

	sub := storage.NewVolatileSubstrate()
	rd := initfile.NewReader(&buf, boot, reg)
	cc, err := FromInit(rd, boot, reg, sub)
	if err != nil {
		t.Fatalf("FromInit: %v", err)
	}

	tbl, ok := cc.FindTableByName("systable_table")
	if !ok {
		t.Fatalf("FindTableByName(systable_table) failed after draining the generated init file")
	}
	if tbl.TabID != oids.TabTable {
		t.Fatalf("systable_table row has TabID %s, want %s", tbl.TabID, oids.TabTable)
	}

	row, ok := cc.FindTypeRow(oids.TypInt4)
	if !ok {
		t.Fatalf("FindTypeRow(INT4) failed after draining the generated init file")
	}
	if row.TypLen != 4 || row.TypName != "INT4" {
		t.Fatalf("unexpected INT4 row: %+v", row)
	}

	fnRow, ok := cc.FindFunctionByName("int4add")
	if !ok || fnRow.RetType != oids.TypInt4 {
		t.Fatalf("FindFunctionByName(int4add) = %+v, %v", fnRow, ok)
	}

	args, err := cc.FindFunctionArgs(oids.FuncVarcharEq)
	if err != nil || len(args) != 2 {
		t.Fatalf("FindFunctionArgs(varchareq) = %v, %v", args, err)
	}
}

func TestAllocateOIDPersistsAcrossReopen(t *testing.T) {
	cc, sub := newFormattedCatalog(t)

	first, err := cc.AllocateOID()
	if err != nil {
		t.Fatalf("AllocateOID: %v", err)
	}

	reg := fn.NewRegistry()
	boot, err := bootstrap.New(reg)
	if err != nil {
		t.Fatalf("bootstrap.New: %v", err)
	}
	reopened, err := FromExisting(sub, boot, reg, cc.metaFileID)
	if err != nil {
		t.Fatalf("FromExisting: %v", err)
	}

	second, err := reopened.AllocateOID()
	if err != nil {
		t.Fatalf("AllocateOID after reopen: %v", err)
	}
	if second != first+1 {
		t.Fatalf("second allocated oid = %s, want %s", second, first+1)
	}
}
