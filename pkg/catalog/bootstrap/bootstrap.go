// Package bootstrap implements the bootstrap catalog (component D): a
// compile-time-generated collection of Table, Type, Column, and
// Function rows describing the catalog's own systables and the
// built-in scalar types, sufficient to parse the init file before any
// regular catalog cache exists.
//
// After construction, the bootstrap catalog builds a table descriptor
// for every systable by invoking the schema engine against itself —
// this is the "self-describing" bootstrap the init-file reader (package
// initfile) and the regular catalog cache (package catalog) both
// depend on to get off the ground.
package bootstrap

import (
	"fmt"

	"github.com/corvidb/corvid/pkg/builtin"
	"github.com/corvidb/corvid/pkg/catalog/oids"
	"github.com/corvidb/corvid/pkg/catalog/systab"
	"github.com/corvidb/corvid/pkg/fn"
	"github.com/corvidb/corvid/pkg/ids"
	"github.com/corvidb/corvid/pkg/schema"
)

// TableDesc is a systable's catalog row together with its
// layout-computed schema, the same pairing the regular catalog cache's
// own TableDesc carries for user tables.
type TableDesc struct {
	Table  *systab.Table
	Schema *schema.Schema
}

// Catalog is the bootstrap catalog: the systable rows, the built-in
// type rows, and the self-describing schemas built from them.
type Catalog struct {
	tables     map[ids.OID]*systab.Table
	types      map[ids.OID]*systab.Type
	columns    map[ids.OID][]*systab.Column
	functions  map[ids.OID]*systab.Function
	funcArgs   map[ids.OID][]*systab.FunctionArgs
	tableDescs map[ids.OID]*TableDesc
}

// systableOIDs lists every systable in a fixed order, used wherever the
// bootstrap needs to iterate "all systables" deterministically.
var systableOIDs = []ids.OID{
	oids.TabTable,
	oids.TabType,
	oids.TabColumn,
	oids.TabFunction,
	oids.TabFunctionArgs,
	oids.TabIndex,
	oids.TabIndexColumn,
}

func systableName(tabid ids.OID) string {
	switch tabid {
	case oids.TabTable:
		return "systable_table"
	case oids.TabType:
		return "systable_type"
	case oids.TabColumn:
		return "systable_column"
	case oids.TabFunction:
		return "systable_function"
	case oids.TabFunctionArgs:
		return "systable_function_args"
	case oids.TabIndex:
		return "systable_index"
	case oids.TabIndexColumn:
		return "systable_index_column"
	default:
		return fmt.Sprintf("systable_%d", tabid)
	}
}

// New builds the bootstrap catalog and every systable's self-describing
// TableDesc. It installs the built-in functions into reg (see
// builtin.Install) before computing layouts; ComputeLayout needs them to
// resolve CHAR(n)'s typlen function.
func New(reg *fn.Registry) (*Catalog, error) {
	c := &Catalog{
		tables:     make(map[ids.OID]*systab.Table),
		types:      make(map[ids.OID]*systab.Type),
		columns:    make(map[ids.OID][]*systab.Column),
		functions:  make(map[ids.OID]*systab.Function),
		funcArgs:   make(map[ids.OID][]*systab.FunctionArgs),
		tableDescs: make(map[ids.OID]*TableDesc),
	}

	c.loadTables()
	c.loadTypes()
	c.loadFunctions(reg)
	if err := c.loadColumns(); err != nil {
		return nil, err
	}

	for _, tabid := range systableOIDs {
		desc, err := c.buildTableDesc(tabid, reg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: building descriptor for %s: %w", systableName(tabid), err)
		}
		c.tableDescs[tabid] = desc
	}
	return c, nil
}

func (c *Catalog) loadTables() {
	for _, tabid := range systableOIDs {
		c.tables[tabid] = &systab.Table{TabID: tabid, TabName: systableName(tabid), FileID: ids.InvalidFileID}
	}
}

func (c *Catalog) loadTypes() {
	for _, t := range builtin.Types() {
		c.types[t.OID] = &systab.Type{
			TypID:      t.OID,
			TypName:    t.Name,
			TypLen:     t.TypLen,
			TypAlign:   int16(t.TypAlign),
			TypByRef:   t.TypByRef,
			TypLenFunc: t.TypLenFunc,
			InputFunc:  t.InputFunc,
			OutputFunc: t.OutputFunc,
			EqFunc:     t.EqFunc,
			LtFunc:     t.LtFunc,
		}
	}
}

func (c *Catalog) loadFunctions(reg *fn.Registry) {
	for _, f := range builtin.Functions() {
		c.functions[f.OID] = &systab.Function{
			FuncID:  f.OID,
			Name:    f.Name,
			RetType: f.RetType,
			NumArgs: int16(len(f.ArgTypes)),
		}
		args := make([]*systab.FunctionArgs, len(f.ArgTypes))
		for i, at := range f.ArgTypes {
			args[i] = &systab.FunctionArgs{FuncID: f.OID, ArgIdx: int16(i), ArgType: at}
		}
		c.funcArgs[f.OID] = args
	}
	builtin.Install(reg)
}

// loadColumns derives every systable's own Column rows from
// systab.Columns, the single declaration of each systable's physical
// field order.
func (c *Catalog) loadColumns() error {
	for _, tabid := range systableOIDs {
		specs, err := systab.Columns(tabid)
		if err != nil {
			return err
		}
		cols := make([]*systab.Column, len(specs))
		for i, sp := range specs {
			cols[i] = &systab.Column{
				TabID:     tabid,
				ColID:     ids.FieldID(i),
				ColName:   sp.Name,
				ColTypeID: sp.TypeID,
				Nullable:  sp.Nullable,
			}
		}
		c.columns[tabid] = cols
		c.tables[tabid].NumCols = int16(len(cols))
	}
	return nil
}

func (c *Catalog) buildTableDesc(tabid ids.OID, reg *fn.Registry) (*TableDesc, error) {
	specs, err := systab.Columns(tabid)
	if err != nil {
		return nil, err
	}
	sch, err := schema.New(specs)
	if err != nil {
		return nil, err
	}
	if err := sch.ComputeLayout(c, reg); err != nil {
		return nil, err
	}
	return &TableDesc{Table: c.tables[tabid], Schema: sch}, nil
}

// FindType implements schema.TypeFinder, resolving a built-in type OID
// to the length/alignment/pass-by-reference metadata the layout
// algorithm needs. This is what lets the bootstrap catalog compute its
// own systables' layouts before any regular catalog cache exists.
func (c *Catalog) FindType(oid ids.OID) (schema.TypeInfo, bool) {
	t, ok := c.types[oid]
	if !ok {
		return schema.TypeInfo{}, false
	}
	return schema.TypeInfo{
		TypLen:     t.TypLen,
		TypAlign:   uint8(t.TypAlign),
		TypByRef:   t.TypByRef,
		TypLenFunc: t.TypLenFunc,
	}, true
}

// FindTypeRow returns the full bootstrap Type row for oid, if any.
func (c *Catalog) FindTypeRow(oid ids.OID) (*systab.Type, bool) {
	t, ok := c.types[oid]
	return t, ok
}

// InputFuncOf implements initfile.TypeResolver, resolving a type's
// input function OID.
func (c *Catalog) InputFuncOf(typeOID ids.OID) (ids.OID, bool) {
	t, ok := c.types[typeOID]
	if !ok {
		return ids.InvalidOID, false
	}
	return t.InputFunc, true
}

// FindTable returns the bootstrap Table row for a systable.
func (c *Catalog) FindTable(oid ids.OID) (*systab.Table, bool) {
	t, ok := c.tables[oid]
	return t, ok
}

// FindTableDesc returns the self-describing table descriptor for a
// systable.
func (c *Catalog) FindTableDesc(oid ids.OID) (*TableDesc, bool) {
	d, ok := c.tableDescs[oid]
	return d, ok
}

// FindColumnsOf returns, in declaration order, the Column rows of a
// systable.
func (c *Catalog) FindColumnsOf(tabid ids.OID) []*systab.Column {
	return c.columns[tabid]
}

// FindFunction returns the bootstrap Function row for a built-in
// function OID.
func (c *Catalog) FindFunction(oid ids.OID) (*systab.Function, bool) {
	f, ok := c.functions[oid]
	return f, ok
}

// FindFunctionArgs returns, in argument order, the FunctionArgs rows of
// a built-in function.
func (c *Catalog) FindFunctionArgs(funcID ids.OID) []*systab.FunctionArgs {
	return c.funcArgs[funcID]
}

// Types returns every built-in type's bootstrap row. The init-file
// reader does not use it; it resolves input functions through
// InputFuncOf.
func (c *Catalog) Types() map[ids.OID]*systab.Type {
	return c.types
}

// SystableOIDs returns the fixed-order list of systable object
// identifiers the bootstrap catalog describes.
func SystableOIDs() []ids.OID {
	out := make([]ids.OID, len(systableOIDs))
	copy(out, systableOIDs)
	return out
}
