// Package oids centralizes the well-known object identifiers the catalog
// core hard-codes: the bootstrap systable OIDs, their index OIDs, the
// built-in scalar type OIDs, and the built-in function OIDs. The catalog
// core packages that need these numbers (systab, bootstrap, builtin,
// catalog) take them from this package, so that the numbering stays in
// one place without import cycles.
//
// All OIDs declared here are <= MaxSysOID (19,999), the boundary the
// specification reserves for system objects; user-created tables, types,
// functions, and indexes always receive an OID >= ids.MinUserOID.
package oids

import "github.com/corvidb/corvid/pkg/ids"

// MaxSysOID is the largest OID a bootstrap-catalog row may carry.
const MaxSysOID ids.OID = 19999

// Systable OIDs.
const (
	TabTable        ids.OID = 1
	TabType         ids.OID = 2
	TabColumn       ids.OID = 3
	TabFunction     ids.OID = 4
	TabFunctionArgs ids.OID = 5
	TabIndex        ids.OID = 6
	TabIndexColumn  ids.OID = 7
)

// Systable index OIDs. SearchCatalogEntry takes no index hint and does
// not consult them; every lookup is a sequential scan.
const (
	IdxTableTabid        ids.OID = 101
	IdxTableTabname      ids.OID = 102
	IdxTypeTypid         ids.OID = 103
	IdxColumnTabidColid  ids.OID = 104
	IdxFunctionFuncid    ids.OID = 105
	IdxFunctionFuncname  ids.OID = 106
	IdxFuncArgsFuncidIdx ids.OID = 107
	IdxIndexIdxid        ids.OID = 108
	IdxIndexIdxname      ids.OID = 109
	IdxIndexIdxtabid     ids.OID = 110
	IdxIndexColIdxidSeq  ids.OID = 111
)

// Built-in scalar type OIDs.
const (
	TypInt2    ids.OID = 201
	TypInt4    ids.OID = 202
	TypInt8    ids.OID = 203
	TypBool    ids.OID = 204
	TypFloat4  ids.OID = 205
	TypFloat8  ids.OID = 206
	TypVarchar ids.OID = 207
	TypChar    ids.OID = 208
)

// TypOid is an alias for TypInt4: object identifiers are represented as
// a plain uint32 datum, same as INT4.
const TypOid = TypInt4

// Built-in function OIDs: input (text -> datum), output (datum -> text),
// equality, and ordering functions for every built-in type, plus the
// typlen function for CHAR(n) and the case-insensitive string equality
// function used for catalog name lookups.
const (
	FuncInt2In  ids.OID = 301
	FuncInt2Out ids.OID = 302
	FuncInt2Eq  ids.OID = 303
	FuncInt2Lt  ids.OID = 304

	FuncInt4In  ids.OID = 310
	FuncInt4Out ids.OID = 311
	FuncInt4Eq  ids.OID = 312
	FuncInt4Lt  ids.OID = 313

	FuncInt8In  ids.OID = 320
	FuncInt8Out ids.OID = 321
	FuncInt8Eq  ids.OID = 322
	FuncInt8Lt  ids.OID = 323

	FuncBoolIn  ids.OID = 330
	FuncBoolOut ids.OID = 331
	FuncBoolEq  ids.OID = 332
	FuncBoolLt  ids.OID = 333

	FuncFloat4In  ids.OID = 340
	FuncFloat4Out ids.OID = 341
	FuncFloat4Eq  ids.OID = 342
	FuncFloat4Lt  ids.OID = 343

	FuncFloat8In  ids.OID = 350
	FuncFloat8Out ids.OID = 351
	FuncFloat8Eq  ids.OID = 352
	FuncFloat8Lt  ids.OID = 353

	FuncVarcharIn  ids.OID = 360
	FuncVarcharOut ids.OID = 361
	FuncVarcharEq  ids.OID = 362
	FuncVarcharLt  ids.OID = 363

	FuncCharIn     ids.OID = 370
	FuncCharOut    ids.OID = 371
	FuncCharEq     ids.OID = 372
	FuncCharLt     ids.OID = 373
	FuncCharTypLen ids.OID = 374

	// FuncOidEq is an alias for FuncInt4Eq: an OID column is compared
	// the same way an INT4 column is.
	FuncOidEq = FuncInt4Eq

	// FuncStringEqCI is the case-insensitive string equality function
	// used by every name-column lookup (table, function, and index
	// names are all matched case-insensitively).
	FuncStringEqCI ids.OID = 380

	// FuncInt4Add and FuncInt4Sub round out the registry with a couple
	// of ordinary arithmetic operators, exercising the OpType/arity
	// side of the operator-symbol table beyond pure comparisons.
	FuncInt4Add ids.OID = 390
	FuncInt4Sub ids.OID = 391
)
