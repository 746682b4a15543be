// Package systab declares the row shapes of the seven catalog tables
// ("systables") that describe the database itself: which tables exist,
// which types exist, which columns belong to which table, which
// functions exist and under what signature, and which indexes exist on
// which columns. The bootstrap catalog (package bootstrap) and the
// regular catalog cache (package catalog) both decode and encode these
// shapes against the column layout declared here, so a systable's Go
// struct and its FieldSpec/column-id declarations are kept side by side
// in this one file rather than duplicated at each call site.
package systab

import (
	"fmt"

	"github.com/corvidb/corvid/pkg/catalog/oids"
	"github.com/corvidb/corvid/pkg/datum"
	"github.com/corvidb/corvid/pkg/ids"
	"github.com/corvidb/corvid/pkg/schema"
)

// Table is one row of the Table systable: one entry per table known to
// the database, including the systables themselves.
type Table struct {
	TabID   ids.OID
	TabName string
	FileID  ids.FileID
	NumCols int16
}

// Type is one row of the Type systable: one entry per SQL scalar type.
type Type struct {
	TypID      ids.OID
	TypName    string
	TypLen     int16
	TypAlign   int16
	TypByRef   bool
	TypLenFunc ids.OID
	InputFunc  ids.OID
	OutputFunc ids.OID
	EqFunc     ids.OID
	LtFunc     ids.OID
}

// Column is one row of the Column systable: one entry per field of
// every table, in declaration order.
type Column struct {
	TabID       ids.OID
	ColID       ids.FieldID
	ColName     string
	ColTypeID   ids.OID
	ColTypeParm int64
	Nullable    bool
	IsArray     bool
}

// Function is one row of the Function systable: one entry per
// registered built-in (or, eventually, user-defined) function.
type Function struct {
	FuncID  ids.OID
	Name    string
	RetType ids.OID
	NumArgs int16
}

// FunctionArgs is one row of the FunctionArgs systable: one entry per
// argument position of every function.
type FunctionArgs struct {
	FuncID  ids.OID
	ArgIdx  int16
	ArgType ids.OID
}

// Index is one row of the Index systable: one entry per index.
type Index struct {
	IdxID    ids.OID
	IdxName  string
	IdxTabID ids.OID
	IdxType  int16
	Unique   bool
	FileID   ids.FileID
	NumCols  int16
}

// Index type codes stored in Index.IdxType.
const (
	IndexTypeVolatile int16 = 0
	IndexTypeBTree    int16 = 1
)

// IndexColumn is one row of the IndexColumn systable: one entry per key
// column of every index, in key order.
type IndexColumn struct {
	IdxID         ids.OID
	Seq           int16
	ColID         ids.FieldID
	LessFuncID    ids.OID
	EqualityFunc  ids.OID
}

// Field ids, in declaration order, for every systable's own Column
// rows. The bootstrap catalog and CatCache's finders both key off
// of these, so a systable's physical field order is declared exactly
// once, here.
const (
	ColTableTabID   ids.FieldID = 0
	ColTableName    ids.FieldID = 1
	ColTableFileID  ids.FieldID = 2
	ColTableNumCols ids.FieldID = 3

	ColTypeTypID      ids.FieldID = 0
	ColTypeName       ids.FieldID = 1
	ColTypeLen        ids.FieldID = 2
	ColTypeAlign      ids.FieldID = 3
	ColTypeByRef      ids.FieldID = 4
	ColTypeLenFunc    ids.FieldID = 5
	ColTypeInputFunc  ids.FieldID = 6
	ColTypeOutputFunc ids.FieldID = 7
	ColTypeEqFunc     ids.FieldID = 8
	ColTypeLtFunc     ids.FieldID = 9

	ColColumnTabID     ids.FieldID = 0
	ColColumnColID     ids.FieldID = 1
	ColColumnName      ids.FieldID = 2
	ColColumnTypeID    ids.FieldID = 3
	ColColumnTypeParam ids.FieldID = 4
	ColColumnNullable  ids.FieldID = 5
	ColColumnIsArray   ids.FieldID = 6

	ColFunctionFuncID  ids.FieldID = 0
	ColFunctionName    ids.FieldID = 1
	ColFunctionRetType ids.FieldID = 2
	ColFunctionNumArgs ids.FieldID = 3

	ColFuncArgsFuncID  ids.FieldID = 0
	ColFuncArgsArgIdx  ids.FieldID = 1
	ColFuncArgsArgType ids.FieldID = 2

	ColIndexIdxID    ids.FieldID = 0
	ColIndexName     ids.FieldID = 1
	ColIndexTabID    ids.FieldID = 2
	ColIndexType     ids.FieldID = 3
	ColIndexUnique   ids.FieldID = 4
	ColIndexFileID   ids.FieldID = 5
	ColIndexNumCols  ids.FieldID = 6

	ColIndexColIdxID    ids.FieldID = 0
	ColIndexColSeq      ids.FieldID = 1
	ColIndexColColID    ids.FieldID = 2
	ColIndexColLessFunc ids.FieldID = 3
	ColIndexColEqFunc   ids.FieldID = 4
)

// Columns returns the field declarations for a systable's own schema,
// in the order its struct's fields are encoded/decoded. The bootstrap
// catalog calls this to build every systable's self-describing
// TableDesc.
func Columns(tabid ids.OID) ([]schema.FieldSpec, error) {
	switch tabid {
	case oids.TabTable:
		return []schema.FieldSpec{
			{TypeID: oids.TypOid, Name: "tabid"},
			{TypeID: oids.TypVarchar, Name: "tabname"},
			{TypeID: oids.TypOid, Name: "fileid"},
			{TypeID: oids.TypInt2, Name: "numcols"},
		}, nil
	case oids.TabType:
		return []schema.FieldSpec{
			{TypeID: oids.TypOid, Name: "typid"},
			{TypeID: oids.TypVarchar, Name: "typname"},
			{TypeID: oids.TypInt2, Name: "typlen"},
			{TypeID: oids.TypInt2, Name: "typalign"},
			{TypeID: oids.TypBool, Name: "typbyref"},
			{TypeID: oids.TypOid, Name: "typlenfunc"},
			{TypeID: oids.TypOid, Name: "inputfunc"},
			{TypeID: oids.TypOid, Name: "outputfunc"},
			{TypeID: oids.TypOid, Name: "eqfunc"},
			{TypeID: oids.TypOid, Name: "ltfunc"},
		}, nil
	case oids.TabColumn:
		return []schema.FieldSpec{
			{TypeID: oids.TypOid, Name: "tabid"},
			{TypeID: oids.TypInt2, Name: "colid"},
			{TypeID: oids.TypVarchar, Name: "colname"},
			{TypeID: oids.TypOid, Name: "coltypeid"},
			{TypeID: oids.TypInt8, Name: "coltypeparam"},
			{TypeID: oids.TypBool, Name: "nullable"},
			{TypeID: oids.TypBool, Name: "isarray"},
		}, nil
	case oids.TabFunction:
		return []schema.FieldSpec{
			{TypeID: oids.TypOid, Name: "funcid"},
			{TypeID: oids.TypVarchar, Name: "funcname"},
			{TypeID: oids.TypOid, Name: "rettype"},
			{TypeID: oids.TypInt2, Name: "numargs"},
		}, nil
	case oids.TabFunctionArgs:
		return []schema.FieldSpec{
			{TypeID: oids.TypOid, Name: "funcid"},
			{TypeID: oids.TypInt2, Name: "argidx"},
			{TypeID: oids.TypOid, Name: "argtype"},
		}, nil
	case oids.TabIndex:
		return []schema.FieldSpec{
			{TypeID: oids.TypOid, Name: "idxid"},
			{TypeID: oids.TypVarchar, Name: "idxname"},
			{TypeID: oids.TypOid, Name: "idxtabid"},
			{TypeID: oids.TypInt2, Name: "idxtype"},
			{TypeID: oids.TypBool, Name: "unique"},
			{TypeID: oids.TypOid, Name: "fileid"},
			{TypeID: oids.TypInt2, Name: "numcols"},
		}, nil
	case oids.TabIndexColumn:
		return []schema.FieldSpec{
			{TypeID: oids.TypOid, Name: "idxid"},
			{TypeID: oids.TypInt2, Name: "seq"},
			{TypeID: oids.TypInt2, Name: "colid"},
			{TypeID: oids.TypOid, Name: "lessfunc"},
			{TypeID: oids.TypOid, Name: "eqfunc"},
		}, nil
	default:
		return nil, fmt.Errorf("systab: unknown systable oid %s", tabid)
	}
}

// EncodeRow encodes a decoded systable row struct back into its
// positional datum vector, the inverse of DecodeRow. CatCache calls
// this when appending a new catalog row.
func EncodeRow(tabid ids.OID, row any) ([]datum.Datum, error) {
	switch tabid {
	case oids.TabTable:
		r := row.(*Table)
		name, err := datum.FromCString(r.TabName)
		if err != nil {
			return nil, err
		}
		return []datum.Datum{
			datum.FromU32(uint32(r.TabID)), name, datum.FromU32(uint32(r.FileID)), datum.FromI16(r.NumCols),
		}, nil
	case oids.TabType:
		r := row.(*Type)
		name, err := datum.FromCString(r.TypName)
		if err != nil {
			return nil, err
		}
		return []datum.Datum{
			datum.FromU32(uint32(r.TypID)), name, datum.FromI16(r.TypLen), datum.FromI16(r.TypAlign),
			datum.FromBool(r.TypByRef), datum.FromU32(uint32(r.TypLenFunc)), datum.FromU32(uint32(r.InputFunc)),
			datum.FromU32(uint32(r.OutputFunc)), datum.FromU32(uint32(r.EqFunc)), datum.FromU32(uint32(r.LtFunc)),
		}, nil
	case oids.TabColumn:
		r := row.(*Column)
		name, err := datum.FromCString(r.ColName)
		if err != nil {
			return nil, err
		}
		return []datum.Datum{
			datum.FromU32(uint32(r.TabID)), datum.FromI16(int16(r.ColID)), name,
			datum.FromU32(uint32(r.ColTypeID)), datum.FromI64(r.ColTypeParm),
			datum.FromBool(r.Nullable), datum.FromBool(r.IsArray),
		}, nil
	case oids.TabFunction:
		r := row.(*Function)
		name, err := datum.FromCString(r.Name)
		if err != nil {
			return nil, err
		}
		return []datum.Datum{
			datum.FromU32(uint32(r.FuncID)), name, datum.FromU32(uint32(r.RetType)), datum.FromI16(r.NumArgs),
		}, nil
	case oids.TabFunctionArgs:
		r := row.(*FunctionArgs)
		return []datum.Datum{
			datum.FromU32(uint32(r.FuncID)), datum.FromI16(r.ArgIdx), datum.FromU32(uint32(r.ArgType)),
		}, nil
	case oids.TabIndex:
		r := row.(*Index)
		name, err := datum.FromCString(r.IdxName)
		if err != nil {
			return nil, err
		}
		return []datum.Datum{
			datum.FromU32(uint32(r.IdxID)), name, datum.FromU32(uint32(r.IdxTabID)), datum.FromI16(r.IdxType),
			datum.FromBool(r.Unique), datum.FromU32(uint32(r.FileID)), datum.FromI16(r.NumCols),
		}, nil
	case oids.TabIndexColumn:
		r := row.(*IndexColumn)
		return []datum.Datum{
			datum.FromU32(uint32(r.IdxID)), datum.FromI16(r.Seq), datum.FromI16(int16(r.ColID)),
			datum.FromU32(uint32(r.LessFuncID)), datum.FromU32(uint32(r.EqualityFunc)),
		}, nil
	default:
		return nil, fmt.Errorf("systab: unknown systable oid %s", tabid)
	}
}

// DecodeRow decodes a systable's positional datum vector (as produced
// by schema.Schema.DissemblePayload) into its row struct, returned as
// an any holding a pointer to the concrete type. CatCache's
// SearchCatalogEntry calls this on every candidate record it reads
// off the file substrate.
func DecodeRow(tabid ids.OID, fields []datum.Datum) (any, error) {
	switch tabid {
	case oids.TabTable:
		if len(fields) != 4 {
			return nil, fmt.Errorf("systab: Table row has %d fields, want 4", len(fields))
		}
		return &Table{
			TabID:   ids.OID(fields[0].GetU32()),
			TabName: fields[1].GetVarlenString(),
			FileID:  ids.FileID(fields[2].GetU32()),
			NumCols: fields[3].GetI16(),
		}, nil
	case oids.TabType:
		if len(fields) != 10 {
			return nil, fmt.Errorf("systab: Type row has %d fields, want 10", len(fields))
		}
		return &Type{
			TypID:      ids.OID(fields[0].GetU32()),
			TypName:    fields[1].GetVarlenString(),
			TypLen:     fields[2].GetI16(),
			TypAlign:   fields[3].GetI16(),
			TypByRef:   fields[4].GetBool(),
			TypLenFunc: ids.OID(fields[5].GetU32()),
			InputFunc:  ids.OID(fields[6].GetU32()),
			OutputFunc: ids.OID(fields[7].GetU32()),
			EqFunc:     ids.OID(fields[8].GetU32()),
			LtFunc:     ids.OID(fields[9].GetU32()),
		}, nil
	case oids.TabColumn:
		if len(fields) != 7 {
			return nil, fmt.Errorf("systab: Column row has %d fields, want 7", len(fields))
		}
		return &Column{
			TabID:       ids.OID(fields[0].GetU32()),
			ColID:       ids.FieldID(fields[1].GetI16()),
			ColName:     fields[2].GetVarlenString(),
			ColTypeID:   ids.OID(fields[3].GetU32()),
			ColTypeParm: fields[4].GetI64(),
			Nullable:    fields[5].GetBool(),
			IsArray:     fields[6].GetBool(),
		}, nil
	case oids.TabFunction:
		if len(fields) != 4 {
			return nil, fmt.Errorf("systab: Function row has %d fields, want 4", len(fields))
		}
		return &Function{
			FuncID:  ids.OID(fields[0].GetU32()),
			Name:    fields[1].GetVarlenString(),
			RetType: ids.OID(fields[2].GetU32()),
			NumArgs: fields[3].GetI16(),
		}, nil
	case oids.TabFunctionArgs:
		if len(fields) != 3 {
			return nil, fmt.Errorf("systab: FunctionArgs row has %d fields, want 3", len(fields))
		}
		return &FunctionArgs{
			FuncID:  ids.OID(fields[0].GetU32()),
			ArgIdx:  fields[1].GetI16(),
			ArgType: ids.OID(fields[2].GetU32()),
		}, nil
	case oids.TabIndex:
		if len(fields) != 7 {
			return nil, fmt.Errorf("systab: Index row has %d fields, want 7", len(fields))
		}
		return &Index{
			IdxID:    ids.OID(fields[0].GetU32()),
			IdxName:  fields[1].GetVarlenString(),
			IdxTabID: ids.OID(fields[2].GetU32()),
			IdxType:  fields[3].GetI16(),
			Unique:   fields[4].GetBool(),
			FileID:   ids.FileID(fields[5].GetU32()),
			NumCols:  fields[6].GetI16(),
		}, nil
	case oids.TabIndexColumn:
		if len(fields) != 5 {
			return nil, fmt.Errorf("systab: IndexColumn row has %d fields, want 5", len(fields))
		}
		return &IndexColumn{
			IdxID:        ids.OID(fields[0].GetU32()),
			Seq:          fields[1].GetI16(),
			ColID:        ids.FieldID(fields[2].GetI16()),
			LessFuncID:   ids.OID(fields[3].GetU32()),
			EqualityFunc: ids.OID(fields[4].GetU32()),
		}, nil
	default:
		return nil, fmt.Errorf("systab: unknown systable oid %s", tabid)
	}
}
