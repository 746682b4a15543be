// Package catalog implements the catalog cache (component G): the
// running database's view of its own Table, Type, Column, Function,
// FunctionArgs, Index, and IndexColumn rows, materialized on demand from
// the file substrate (package storage) and kept around as shared,
// layout-computed descriptors for as long as the process runs.
//
// A CatCache is brought up one of two ways. FromInit formats a brand
// new database: it allocates the seven systable files and the DB meta
// page, drains an init file (package initfile) into them, and persists
// the object-id allocator's starting point. FromExisting reopens a
// database a prior FromInit (or a prior FromExisting) already
// formatted, reading the systable file ids and allocator state back out
// of the DB meta page.
//
// Every lookup ultimately funnels through SearchCatalogEntry, a direct
// port of the reference engine's SearchForCatalogEntry<Unique, N,
// NoCache> template: Go has no function templates, so the compile-time
// N and the bool flags become ordinary runtime parameters instead. A
// miss is not an error — it is reported as a null (empty) result,
// exactly like the original.
package catalog

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/corvidb/corvid/pkg/builtin"
	"github.com/corvidb/corvid/pkg/catalog/bootstrap"
	"github.com/corvidb/corvid/pkg/catalog/initfile"
	"github.com/corvidb/corvid/pkg/catalog/oids"
	"github.com/corvidb/corvid/pkg/catalog/systab"
	"github.com/corvidb/corvid/pkg/datum"
	"github.com/corvidb/corvid/pkg/fn"
	"github.com/corvidb/corvid/pkg/ids"
	"github.com/corvidb/corvid/pkg/schema"
	"github.com/corvidb/corvid/pkg/storage"
)

// FileSubstrate is the slice of storage.VolatileSubstrate's surface
// CatCache depends on. It exists so a future non-volatile substrate can
// stand in without CatCache changing at all.
type FileSubstrate interface {
	CreateHeapFile() (ids.FileID, error)
	OpenHeapFile(id ids.FileID) (storage.HeapFile, error)
	CreateRawFile() (ids.FileID, error)
	CreateDBMetaFile() (ids.FileID, error)
	OpenRawFile(id ids.FileID) (storage.RawFile, error)
}

// TableDesc pairs a table's catalog row with its layout-computed
// schema, the unit every caller that wants to read or write rows of the
// table actually needs.
type TableDesc struct {
	Table  *systab.Table
	Schema *schema.Schema
}

// IndexDesc pairs an index's catalog row with its key columns, in key
// order, and the layout-computed schema of just the key tuple.
type IndexDesc struct {
	Index     *systab.Index
	Columns   []*systab.IndexColumn
	KeySchema *schema.Schema
}

// CatEntry is one cached catalog row: the record id it was read from,
// for the lookup-table keying SearchCatalogEntry's cache uses, and the
// decoded row itself.
type CatEntry struct {
	RecID ids.RecordID
	Row   any
}

// metaSystableSlots is the number of systable file-id slots the DB meta
// page reserves, one per entry in bootstrap.SystableOIDs.
const metaSystableSlots = 7

// CatCache is the running catalog: every systable's heap file, every
// user table's heap file once opened, the shared TableDesc/IndexDesc
// cache, and the per-record lookup-table cache SearchCatalogEntry
// populates as it goes.
type CatCache struct {
	mu sync.Mutex

	boot *bootstrap.Catalog
	reg  *fn.Registry
	ops  *builtin.Registry
	sub  FileSubstrate

	initialized bool
	useIndex    bool

	metaFileID      ids.FileID
	metaRaw         storage.RawFile
	systableFileIDs map[ids.OID]ids.FileID

	tableFiles map[ids.OID]storage.HeapFile

	lookup     map[ids.RecordID]*CatEntry
	tableDescs map[ids.OID]*TableDesc
	indexDescs map[ids.OID]*IndexDesc

	nextOID ids.OID

	// pendingIndexBuilds holds the OIDs of indexes declared with a
	// non-volatile IdxType whose actual access-method structure (a
	// B-tree page layout) this core does not build; AddIndex records
	// them here instead of building anything, and every lookup against
	// such an index falls back to a full systable scan.
	pendingIndexBuilds []ids.OID
}

func newCatCache(boot *bootstrap.Catalog, reg *fn.Registry, sub FileSubstrate) *CatCache {
	return &CatCache{
		boot:            boot,
		reg:             reg,
		ops:             builtin.NewRegistry(),
		sub:             sub,
		useIndex:        true,
		systableFileIDs: make(map[ids.OID]ids.FileID),
		tableFiles:      make(map[ids.OID]storage.HeapFile),
		lookup:          make(map[ids.RecordID]*CatEntry),
		tableDescs:      make(map[ids.OID]*TableDesc),
		indexDescs:      make(map[ids.OID]*IndexDesc),
	}
}

func isSystable(tabid ids.OID) bool {
	for _, s := range bootstrap.SystableOIDs() {
		if s == tabid {
			return true
		}
	}
	return false
}

// FromInit formats a brand new database on sub: it allocates the DB
// meta page and one heap file per systable, drains every record out of
// initSrc (typically an initfile.Reader fed from a bootstrap text file)
// into those heap files, and persists the object-id allocator's
// starting point. The object-id space below ids.MinUserOID is reserved
// for rows the init file itself declares, so the allocator always
// starts handing out ids.MinUserOID and up.
func FromInit(initSrc *initfile.Reader, boot *bootstrap.Catalog, reg *fn.Registry, sub FileSubstrate) (*CatCache, error) {
	cc := newCatCache(boot, reg, sub)

	metaFileID, err := sub.CreateDBMetaFile()
	if err != nil {
		return nil, fmt.Errorf("catalog: creating DB meta file: %w", err)
	}
	cc.metaFileID = metaFileID
	cc.metaRaw, err = sub.OpenRawFile(metaFileID)
	if err != nil {
		return nil, fmt.Errorf("catalog: opening DB meta file: %w", err)
	}

	for _, tabid := range bootstrap.SystableOIDs() {
		fid, err := sub.CreateHeapFile()
		if err != nil {
			return nil, fmt.Errorf("catalog: creating heap file for %s: %w", tabid, err)
		}
		hf, err := sub.OpenHeapFile(fid)
		if err != nil {
			return nil, fmt.Errorf("catalog: opening heap file for %s: %w", tabid, err)
		}
		cc.systableFileIDs[tabid] = fid
		cc.tableFiles[tabid] = hf
	}

	for {
		rec, err := initSrc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: reading init file: %w", err)
		}
		if err := cc.insertBootstrapRow(rec); err != nil {
			return nil, err
		}
	}

	cc.nextOID = ids.MinUserOID
	cc.initialized = true
	if err := cc.persistMeta(); err != nil {
		return nil, err
	}
	return cc, nil
}

// insertBootstrapRow appends one initfile.Record to its table's heap
// file and, since every row an init file can declare belongs to a
// systable, eagerly decodes and caches it: this is the "load the
// minimum cache" step of bringing up a freshly formatted database.
func (cc *CatCache) insertBootstrapRow(rec *initfile.Record) error {
	hf, ok := cc.tableFiles[rec.TabID]
	if !ok {
		return fmt.Errorf("%w: init file references unknown systable %s", ErrCatalogIntegrity, rec.TabID)
	}
	recID, err := hf.Append(rec.Bytes)
	if err != nil {
		return err
	}
	sch, ok := cc.schemaFor(rec.TabID)
	if !ok {
		return fmt.Errorf("%w: no schema for systable %s", ErrCatalogIntegrity, rec.TabID)
	}
	fields := sch.DissemblePayload(rec.Bytes)
	row, err := systab.DecodeRow(rec.TabID, fields)
	if err != nil {
		return err
	}
	cc.lookup[recID] = &CatEntry{RecID: recID, Row: row}
	return nil
}

// FromExisting reopens a database sub already holds, reading the
// systable file ids and the object-id allocator's state back out of
// the DB meta page at metaFileID.
func FromExisting(sub FileSubstrate, boot *bootstrap.Catalog, reg *fn.Registry, metaFileID ids.FileID) (*CatCache, error) {
	cc := newCatCache(boot, reg, sub)
	cc.metaFileID = metaFileID

	var err error
	cc.metaRaw, err = sub.OpenRawFile(metaFileID)
	if err != nil {
		return nil, fmt.Errorf("catalog: opening DB meta file: %w", err)
	}

	_, buf := cc.metaRaw.FirstPage()
	if len(buf) < 4+4*metaSystableSlots {
		return nil, fmt.Errorf("%w: DB meta page is too small", ErrCatalogIntegrity)
	}
	cc.nextOID = ids.OID(binary.LittleEndian.Uint32(buf[0:4]))

	off := 4
	for _, tabid := range bootstrap.SystableOIDs() {
		fid := ids.FileID(binary.LittleEndian.Uint32(buf[off : off+4]))
		off += 4
		cc.systableFileIDs[tabid] = fid
		hf, err := sub.OpenHeapFile(fid)
		if err != nil {
			return nil, fmt.Errorf("catalog: opening heap file for %s: %w", tabid, err)
		}
		cc.tableFiles[tabid] = hf
	}

	cc.initialized = true
	return cc, nil
}

func (cc *CatCache) persistMeta() error {
	h, buf := cc.metaRaw.FirstPage()
	binary.LittleEndian.PutUint32(buf[0:4], uint32(cc.nextOID))
	off := 4
	for _, tabid := range bootstrap.SystableOIDs() {
		binary.LittleEndian.PutUint32(buf[off:off+4], uint32(cc.systableFileIDs[tabid]))
		off += 4
	}
	cc.metaRaw.MarkDirty(h)
	cc.metaRaw.ReleasePage(h)
	return nil
}

// FindType implements schema.TypeFinder. User-defined types are not a
// feature this core offers, so every lookup resolves against the
// built-in types the bootstrap catalog already knows.
func (cc *CatCache) FindType(oid ids.OID) (schema.TypeInfo, bool) {
	return cc.boot.FindType(oid)
}

// InputFuncOf implements initfile.TypeResolver, delegating to the
// bootstrap catalog: the set of types with an input function is fixed
// at the built-ins.
func (cc *CatCache) InputFuncOf(oid ids.OID) (ids.OID, bool) {
	return cc.boot.InputFuncOf(oid)
}

func (cc *CatCache) schemaFor(tabid ids.OID) (*schema.Schema, bool) {
	if isSystable(tabid) {
		bd, ok := cc.boot.FindTableDesc(tabid)
		if !ok {
			return nil, false
		}
		return bd.Schema, true
	}
	d, ok := cc.FindTableDesc(tabid)
	if !ok {
		return nil, false
	}
	return d.Schema, true
}

// tableFileFor returns the heap file backing tabid, opening it lazily
// from its Table row's recorded FileID if this is the first access
// since FromExisting reopened the database.
func (cc *CatCache) tableFileFor(tabid ids.OID) (storage.HeapFile, error) {
	cc.mu.Lock()
	hf, ok := cc.tableFiles[tabid]
	cc.mu.Unlock()
	if ok {
		return hf, nil
	}

	table, ok := cc.FindTable(tabid)
	if !ok {
		return nil, fmt.Errorf("%w: no such table %s", ErrCatalogIntegrity, tabid)
	}
	hf, err := cc.sub.OpenHeapFile(table.FileID)
	if err != nil {
		return nil, err
	}
	cc.mu.Lock()
	cc.tableFiles[tabid] = hf
	cc.mu.Unlock()
	return hf, nil
}

// SearchCatalogEntry is the one lookup primitive every other finder in
// this package reduces to. It scans tabid's heap file, calling
// eqFuncIDs[j] to compare each candidate row's fieldIDs[j] against
// rhs[j], and collects every row where all predicates hold.
//
// unique stops the scan at the first match and returns at most one
// entry; callers that know the predicate names a unique key (a name
// column, a primary OID) should set it so a scan of a large systable
// does not run to completion needlessly. noCache bypasses both reading
// and populating the per-record lookup-table cache, for call sites that
// read a row once and have no reason to keep it pinned in memory.
// expectedCount, when positive, is checked against a non-unique scan's
// result count and reported as ErrCatalogIntegrity on mismatch; pass 0
// to skip the check.
func (cc *CatCache) SearchCatalogEntry(tabid ids.OID, fieldIDs []ids.FieldID, eqFuncIDs []ids.OID, rhs []datum.Datum, unique, noCache bool, expectedCount int) ([]*CatEntry, error) {
	if len(fieldIDs) != len(eqFuncIDs) || len(fieldIDs) != len(rhs) {
		return nil, fmt.Errorf("%w: mismatched predicate vector lengths", ErrInvalidArgument)
	}
	sch, ok := cc.schemaFor(tabid)
	if !ok {
		return nil, fmt.Errorf("%w: unknown table %s", ErrCatalogIntegrity, tabid)
	}
	hf, err := cc.tableFileFor(tabid)
	if err != nil {
		return nil, err
	}

	rhsRefs := make([]datum.NullableDatumRef, len(rhs))
	for i, d := range rhs {
		rhsRefs[i] = d.NullableRef()
	}

	var results []*CatEntry
	it := hf.Iterate()
	defer it.End()
	for it.Next() {
		payload := it.Current()
		fields := sch.DissemblePayload(payload)

		matched := true
		for j, fid := range fieldIDs {
			args := []datum.NullableDatumRef{fields[fid].NullableRef(), rhsRefs[j]}
			res, err := cc.reg.Call(eqFuncIDs[j], args, 0)
			if err != nil {
				return nil, err
			}
			if res.IsNull() || !res.GetBool() {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}

		entry, err := cc.materializeEntry(tabid, it.CurrentRID(), fields, noCache)
		if err != nil {
			return nil, err
		}
		results = append(results, entry)
		if unique {
			break
		}
	}

	if !unique && expectedCount > 0 && len(results) != expectedCount {
		return nil, fmt.Errorf("%w: expected %d rows of %s, found %d", ErrCatalogIntegrity, expectedCount, tabid, len(results))
	}
	return results, nil
}

func (cc *CatCache) materializeEntry(tabid ids.OID, recID ids.RecordID, fields []datum.Datum, noCache bool) (*CatEntry, error) {
	if !isSystable(tabid) {
		return &CatEntry{RecID: recID, Row: fields}, nil
	}
	if !noCache {
		cc.mu.Lock()
		if e, ok := cc.lookup[recID]; ok {
			cc.mu.Unlock()
			return e, nil
		}
		cc.mu.Unlock()
	}
	row, err := systab.DecodeRow(tabid, fields)
	if err != nil {
		return nil, err
	}
	entry := &CatEntry{RecID: recID, Row: row}
	if !noCache {
		cc.mu.Lock()
		cc.lookup[recID] = entry
		cc.mu.Unlock()
	}
	return entry, nil
}

// FindTable looks up a table by OID.
func (cc *CatCache) FindTable(tabid ids.OID) (*systab.Table, bool) {
	entries, err := cc.SearchCatalogEntry(oids.TabTable,
		[]ids.FieldID{systab.ColTableTabID}, []ids.OID{oids.FuncOidEq},
		[]datum.Datum{datum.FromU32(uint32(tabid))}, true, false, 0)
	if err != nil || len(entries) == 0 {
		return nil, false
	}
	return entries[0].Row.(*systab.Table), true
}

// FindTableByName looks up a table by its (case-insensitively matched)
// name.
func (cc *CatCache) FindTableByName(name string) (*systab.Table, bool) {
	d, err := datum.FromCString(name)
	if err != nil {
		return nil, false
	}
	entries, err := cc.SearchCatalogEntry(oids.TabTable,
		[]ids.FieldID{systab.ColTableName}, []ids.OID{oids.FuncStringEqCI},
		[]datum.Datum{d}, true, false, 0)
	if err != nil || len(entries) == 0 {
		return nil, false
	}
	return entries[0].Row.(*systab.Table), true
}

// ListTables returns every table's catalog row — systables and
// user-created tables alike — in no particular order. It runs a
// predicate-free scan of the Table systable: an empty fieldIDs vector
// makes every row in SearchCatalogEntry's matched loop vacuously true.
func (cc *CatCache) ListTables() ([]*systab.Table, error) {
	entries, err := cc.SearchCatalogEntry(oids.TabTable, nil, nil, nil, false, false, 0)
	if err != nil {
		return nil, err
	}
	rows := make([]*systab.Table, len(entries))
	for i, e := range entries {
		rows[i] = e.Row.(*systab.Table)
	}
	return rows, nil
}

// ListTypes returns every built-in type's catalog row, in no
// particular order.
func (cc *CatCache) ListTypes() ([]*systab.Type, error) {
	entries, err := cc.SearchCatalogEntry(oids.TabType, nil, nil, nil, false, false, 0)
	if err != nil {
		return nil, err
	}
	rows := make([]*systab.Type, len(entries))
	for i, e := range entries {
		rows[i] = e.Row.(*systab.Type)
	}
	return rows, nil
}

// ListFunctions returns every registered function's catalog row, in no
// particular order.
func (cc *CatCache) ListFunctions() ([]*systab.Function, error) {
	entries, err := cc.SearchCatalogEntry(oids.TabFunction, nil, nil, nil, false, false, 0)
	if err != nil {
		return nil, err
	}
	rows := make([]*systab.Function, len(entries))
	for i, e := range entries {
		rows[i] = e.Row.(*systab.Function)
	}
	return rows, nil
}

// FindTypeRow looks up a type's catalog row (as opposed to FindType's
// schema.TypeFinder-shaped TypeInfo) by OID.
func (cc *CatCache) FindTypeRow(typeOID ids.OID) (*systab.Type, bool) {
	entries, err := cc.SearchCatalogEntry(oids.TabType,
		[]ids.FieldID{systab.ColTypeTypID}, []ids.OID{oids.FuncOidEq},
		[]datum.Datum{datum.FromU32(uint32(typeOID))}, true, false, 0)
	if err != nil || len(entries) == 0 {
		return nil, false
	}
	return entries[0].Row.(*systab.Type), true
}

// FindFunction looks up a function by OID.
func (cc *CatCache) FindFunction(funcID ids.OID) (*systab.Function, bool) {
	entries, err := cc.SearchCatalogEntry(oids.TabFunction,
		[]ids.FieldID{systab.ColFunctionFuncID}, []ids.OID{oids.FuncOidEq},
		[]datum.Datum{datum.FromU32(uint32(funcID))}, true, false, 0)
	if err != nil || len(entries) == 0 {
		return nil, false
	}
	return entries[0].Row.(*systab.Function), true
}

// FindFunctionByName looks up a function by its (case-insensitively
// matched) name.
func (cc *CatCache) FindFunctionByName(name string) (*systab.Function, bool) {
	d, err := datum.FromCString(name)
	if err != nil {
		return nil, false
	}
	entries, err := cc.SearchCatalogEntry(oids.TabFunction,
		[]ids.FieldID{systab.ColFunctionName}, []ids.OID{oids.FuncStringEqCI},
		[]datum.Datum{d}, true, false, 0)
	if err != nil || len(entries) == 0 {
		return nil, false
	}
	return entries[0].Row.(*systab.Function), true
}

// FindFunctionArgs returns a function's arguments, in argument order.
func (cc *CatCache) FindFunctionArgs(funcID ids.OID) ([]*systab.FunctionArgs, error) {
	entries, err := cc.SearchCatalogEntry(oids.TabFunctionArgs,
		[]ids.FieldID{systab.ColFuncArgsFuncID}, []ids.OID{oids.FuncOidEq},
		[]datum.Datum{datum.FromU32(uint32(funcID))}, false, false, 0)
	if err != nil {
		return nil, err
	}
	args := make([]*systab.FunctionArgs, len(entries))
	for i, e := range entries {
		args[i] = e.Row.(*systab.FunctionArgs)
	}
	sort.Slice(args, func(i, j int) bool { return args[i].ArgIdx < args[j].ArgIdx })
	return args, nil
}

// FindIndex looks up an index by OID.
func (cc *CatCache) FindIndex(idxID ids.OID) (*systab.Index, bool) {
	entries, err := cc.SearchCatalogEntry(oids.TabIndex,
		[]ids.FieldID{systab.ColIndexIdxID}, []ids.OID{oids.FuncOidEq},
		[]datum.Datum{datum.FromU32(uint32(idxID))}, true, false, 0)
	if err != nil || len(entries) == 0 {
		return nil, false
	}
	return entries[0].Row.(*systab.Index), true
}

// FindIndexByName looks up an index by its (case-insensitively matched)
// name.
func (cc *CatCache) FindIndexByName(name string) (*systab.Index, bool) {
	d, err := datum.FromCString(name)
	if err != nil {
		return nil, false
	}
	entries, err := cc.SearchCatalogEntry(oids.TabIndex,
		[]ids.FieldID{systab.ColIndexName}, []ids.OID{oids.FuncStringEqCI},
		[]datum.Datum{d}, true, false, 0)
	if err != nil || len(entries) == 0 {
		return nil, false
	}
	return entries[0].Row.(*systab.Index), true
}

// FindAllIndexesOfTable returns every index declared on tableOid.
func (cc *CatCache) FindAllIndexesOfTable(tableOid ids.OID) ([]*systab.Index, error) {
	entries, err := cc.SearchCatalogEntry(oids.TabIndex,
		[]ids.FieldID{systab.ColIndexTabID}, []ids.OID{oids.FuncOidEq},
		[]datum.Datum{datum.FromU32(uint32(tableOid))}, false, false, 0)
	if err != nil {
		return nil, err
	}
	out := make([]*systab.Index, len(entries))
	for i, e := range entries {
		out[i] = e.Row.(*systab.Index)
	}
	return out, nil
}

// findColumnsOfSorted returns a table's Column rows in column-id order.
func (cc *CatCache) findColumnsOfSorted(tabid ids.OID) ([]*systab.Column, error) {
	entries, err := cc.SearchCatalogEntry(oids.TabColumn,
		[]ids.FieldID{systab.ColColumnTabID}, []ids.OID{oids.FuncOidEq},
		[]datum.Datum{datum.FromU32(uint32(tabid))}, false, false, 0)
	if err != nil {
		return nil, err
	}
	cols := make([]*systab.Column, len(entries))
	for i, e := range entries {
		cols[i] = e.Row.(*systab.Column)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].ColID < cols[j].ColID })
	return cols, nil
}

// ColumnsOf returns a table's Column rows in column-id order. It is
// the exported form of findColumnsOfSorted, for callers outside the
// package that want a table's column catalog without going through
// the heavier FindTableDesc (which also computes a layout).
func (cc *CatCache) ColumnsOf(tabid ids.OID) ([]*systab.Column, error) {
	return cc.findColumnsOfSorted(tabid)
}

// FindTableDesc returns tableOid's layout-computed table descriptor,
// building and caching it on first access. Systables resolve straight
// through the bootstrap catalog's own self-describing descriptors.
func (cc *CatCache) FindTableDesc(tableOid ids.OID) (*TableDesc, bool) {
	cc.mu.Lock()
	if d, ok := cc.tableDescs[tableOid]; ok {
		cc.mu.Unlock()
		return d, true
	}
	cc.mu.Unlock()

	if isSystable(tableOid) {
		bd, ok := cc.boot.FindTableDesc(tableOid)
		if !ok {
			return nil, false
		}
		d := &TableDesc{Table: bd.Table, Schema: bd.Schema}
		cc.mu.Lock()
		cc.tableDescs[tableOid] = d
		cc.mu.Unlock()
		return d, true
	}

	entries, err := cc.SearchCatalogEntry(oids.TabTable,
		[]ids.FieldID{systab.ColTableTabID}, []ids.OID{oids.FuncOidEq},
		[]datum.Datum{datum.FromU32(uint32(tableOid))}, true, true, 0)
	if err != nil || len(entries) == 0 {
		return nil, false
	}
	table := entries[0].Row.(*systab.Table)

	cols, err := cc.findColumnsOfSorted(tableOid)
	if err != nil || len(cols) != int(table.NumCols) {
		return nil, false
	}
	specs := make([]schema.FieldSpec, len(cols))
	for i, c := range cols {
		specs[i] = schema.FieldSpec{
			TypeID:    c.ColTypeID,
			TypeParam: uint64(c.ColTypeParm),
			Nullable:  c.Nullable,
			Name:      c.ColName,
		}
	}
	sch, err := schema.New(specs)
	if err != nil {
		return nil, false
	}
	if err := sch.ComputeLayout(cc, cc.reg); err != nil {
		return nil, false
	}

	d := &TableDesc{Table: table, Schema: sch}
	cc.mu.Lock()
	cc.tableDescs[tableOid] = d
	cc.mu.Unlock()
	return d, true
}

// FindIndexDesc returns idxID's index descriptor, building and caching
// it on first access.
func (cc *CatCache) FindIndexDesc(idxID ids.OID) (*IndexDesc, bool) {
	cc.mu.Lock()
	if d, ok := cc.indexDescs[idxID]; ok {
		cc.mu.Unlock()
		return d, true
	}
	cc.mu.Unlock()

	idx, ok := cc.FindIndex(idxID)
	if !ok {
		return nil, false
	}
	tableDesc, ok := cc.FindTableDesc(idx.IdxTabID)
	if !ok {
		return nil, false
	}

	entries, err := cc.SearchCatalogEntry(oids.TabIndexColumn,
		[]ids.FieldID{systab.ColIndexColIdxID}, []ids.OID{oids.FuncOidEq},
		[]datum.Datum{datum.FromU32(uint32(idxID))}, false, false, int(idx.NumCols))
	if err != nil {
		return nil, false
	}
	cols := make([]*systab.IndexColumn, len(entries))
	for i, e := range entries {
		cols[i] = e.Row.(*systab.IndexColumn)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Seq < cols[j].Seq })

	specs := make([]schema.FieldSpec, len(cols))
	for i, ic := range cols {
		specs[i] = schema.FieldSpec{
			TypeID:    tableDesc.Schema.FieldTypeID(ic.ColID),
			TypeParam: tableDesc.Schema.FieldTypeParam(ic.ColID),
		}
	}
	keySchema, err := schema.New(specs)
	if err != nil {
		return nil, false
	}
	if err := keySchema.ComputeLayout(cc, cc.reg); err != nil {
		return nil, false
	}

	d := &IndexDesc{Index: idx, Columns: cols, KeySchema: keySchema}
	cc.mu.Lock()
	cc.indexDescs[idxID] = d
	cc.mu.Unlock()
	return d, true
}

// ColumnSpec declares one column of a table being created by AddTable.
type ColumnSpec struct {
	Name      string
	TypeID    ids.OID
	TypeParam uint64
	Nullable  bool
	IsArray   bool
}

// AddTable allocates a fresh OID, creates the table's backing heap
// file, and inserts its Table and Column rows. It fails with
// ErrAlreadyExists if name is already taken.
func (cc *CatCache) AddTable(name string, cols []ColumnSpec) (ids.OID, error) {
	if !cc.initialized {
		return ids.InvalidOID, ErrNotInitialized
	}
	if _, ok := cc.FindTableByName(name); ok {
		return ids.InvalidOID, fmt.Errorf("%w: table %q", ErrAlreadyExists, name)
	}

	oid, err := cc.AllocateOID()
	if err != nil {
		return ids.InvalidOID, err
	}
	fileID, err := cc.sub.CreateHeapFile()
	if err != nil {
		return ids.InvalidOID, err
	}
	hf, err := cc.sub.OpenHeapFile(fileID)
	if err != nil {
		return ids.InvalidOID, err
	}
	cc.mu.Lock()
	cc.tableFiles[oid] = hf
	cc.mu.Unlock()

	row := &systab.Table{TabID: oid, TabName: name, FileID: fileID, NumCols: int16(len(cols))}
	if err := cc.appendSystableRow(oids.TabTable, row); err != nil {
		return ids.InvalidOID, err
	}
	for i, c := range cols {
		colRow := &systab.Column{
			TabID: oid, ColID: ids.FieldID(i), ColName: c.Name,
			ColTypeID: c.TypeID, ColTypeParm: int64(c.TypeParam),
			Nullable: c.Nullable, IsArray: c.IsArray,
		}
		if err := cc.appendSystableRow(oids.TabColumn, colRow); err != nil {
			return ids.InvalidOID, err
		}
	}
	return oid, nil
}

// AddIndex allocates a fresh OID and inserts an index's Index and
// IndexColumn rows. A zero entry in lessFuncIDs or equalityFuncIDs asks
// AddIndex to resolve that column's default comparison function from
// its type via the operator-symbol table; this fails with
// ErrMissingOperator if the column's type has none.
func (cc *CatCache) AddIndex(name string, tableOid ids.OID, indexType int16, unique bool, fileID ids.FileID, columnIDs []ids.FieldID, lessFuncIDs, equalityFuncIDs []ids.OID) (ids.OID, error) {
	if !cc.initialized {
		return ids.InvalidOID, ErrNotInitialized
	}
	if len(columnIDs) != len(lessFuncIDs) || len(columnIDs) != len(equalityFuncIDs) {
		return ids.InvalidOID, fmt.Errorf("%w: mismatched index column vector lengths", ErrInvalidArgument)
	}
	if _, ok := cc.FindIndexByName(name); ok {
		return ids.InvalidOID, fmt.Errorf("%w: index %q", ErrAlreadyExists, name)
	}
	tableDesc, ok := cc.FindTableDesc(tableOid)
	if !ok {
		return ids.InvalidOID, fmt.Errorf("%w: index %q references unknown table %s", ErrCatalogIntegrity, name, tableOid)
	}

	resolvedLess := make([]ids.OID, len(columnIDs))
	resolvedEq := make([]ids.OID, len(columnIDs))
	for i, colID := range columnIDs {
		typeOID := tableDesc.Schema.FieldTypeID(colID)
		resolvedLess[i] = lessFuncIDs[i]
		if resolvedLess[i] == ids.InvalidOID {
			f, ok := cc.ops.FindOperator(builtin.OpLt, typeOID, typeOID)
			if !ok {
				return ids.InvalidOID, fmt.Errorf("%w: column %d of type %s", ErrMissingOperator, colID, typeOID)
			}
			resolvedLess[i] = f
		}
		resolvedEq[i] = equalityFuncIDs[i]
		if resolvedEq[i] == ids.InvalidOID {
			f, ok := cc.ops.FindOperator(builtin.OpEq, typeOID, typeOID)
			if !ok {
				return ids.InvalidOID, fmt.Errorf("%w: column %d of type %s", ErrMissingOperator, colID, typeOID)
			}
			resolvedEq[i] = f
		}
	}

	oid, err := cc.AllocateOID()
	if err != nil {
		return ids.InvalidOID, err
	}

	idxRow := &systab.Index{
		IdxID: oid, IdxName: name, IdxTabID: tableOid, IdxType: indexType,
		Unique: unique, FileID: fileID, NumCols: int16(len(columnIDs)),
	}
	if err := cc.appendSystableRow(oids.TabIndex, idxRow); err != nil {
		return ids.InvalidOID, err
	}
	for i, colID := range columnIDs {
		icRow := &systab.IndexColumn{
			IdxID: oid, Seq: int16(i), ColID: colID,
			LessFuncID: resolvedLess[i], EqualityFunc: resolvedEq[i],
		}
		if err := cc.appendSystableRow(oids.TabIndexColumn, icRow); err != nil {
			return ids.InvalidOID, err
		}
	}

	if indexType != systab.IndexTypeVolatile {
		cc.mu.Lock()
		cc.pendingIndexBuilds = append(cc.pendingIndexBuilds, oid)
		cc.mu.Unlock()
	}
	return oid, nil
}

// appendSystableRow encodes row under tabid's schema, appends it to
// that systable's heap file, and caches the resulting entry, exactly
// the "insert" half of insertBootstrapRow but for a row built at
// runtime rather than read from an init file.
func (cc *CatCache) appendSystableRow(tabid ids.OID, row any) error {
	sch, ok := cc.schemaFor(tabid)
	if !ok {
		return fmt.Errorf("%w: no schema for systable %s", ErrCatalogIntegrity, tabid)
	}
	values, err := systab.EncodeRow(tabid, row)
	if err != nil {
		return err
	}
	refs := make([]datum.NullableDatumRef, len(values))
	for i, v := range values {
		refs[i] = v.NullableRef()
	}
	var buf []byte
	if _, err := sch.WritePayload(refs, &buf); err != nil {
		return err
	}
	hf, err := cc.tableFileFor(tabid)
	if err != nil {
		return err
	}
	recID, err := hf.Append(buf)
	if err != nil {
		return err
	}
	cc.mu.Lock()
	cc.lookup[recID] = &CatEntry{RecID: recID, Row: row}
	cc.mu.Unlock()
	return nil
}

// AllocateOID hands out the next object identifier and persists the
// allocator's advanced state to the DB meta page before returning it,
// so a crash between allocation and use never hands the same OID out
// twice. It fails with ErrOidExhausted once the 32-bit OID space wraps
// around.
func (cc *CatCache) AllocateOID() (ids.OID, error) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if cc.nextOID == ids.InvalidOID {
		return ids.InvalidOID, ErrOidExhausted
	}
	oid := cc.nextOID
	if cc.nextOID == ^ids.OID(0) {
		cc.nextOID = ids.InvalidOID
	} else {
		cc.nextOID++
	}
	if err := cc.persistMeta(); err != nil {
		return ids.InvalidOID, err
	}
	return oid, nil
}
