// Package builtin implements the type/operator registry (component H):
// the compile-time-collected table of built-in functions installed into a
// fn.Registry at process init, plus the operator-symbol table mapping
// symbols such as "+" and "<=" to an OpType and an arity, and resolving
// (OpType, arg0Type, arg1Type) to the function OID that implements it.
//
// Every built-in function here is shaped uniformly: it reads its
// arguments out of a []datum.NullableDatumRef and returns one datum. The
// bodies are not individually interesting; what matters is that every
// registered OID and every TypeMeta/FuncMeta entry here is exactly what
// the bootstrap catalog (package bootstrap) encodes into its hard-coded
// Type and Function rows, so the two stay in lockstep by construction
// rather than by two independently maintained literal tables.
package builtin

import (
	"bytes"
	"cmp"
	"strconv"
	"strings"

	"github.com/corvidb/corvid/pkg/catalog/oids"
	"github.com/corvidb/corvid/pkg/datum"
	"github.com/corvidb/corvid/pkg/fn"
	"github.com/corvidb/corvid/pkg/ids"
)

// TypeMeta describes one built-in scalar type: the metadata the
// bootstrap catalog's Type systable row needs, and the length/alignment
// metadata Schema's layout computation needs via schema.TypeInfo.
type TypeMeta struct {
	OID        ids.OID
	Name       string
	TypLen     int16
	TypAlign   uint8
	TypByRef   bool
	TypLenFunc ids.OID
	InputFunc  ids.OID
	OutputFunc ids.OID
	EqFunc     ids.OID
	LtFunc     ids.OID
}

// FuncMeta describes one built-in function: the metadata the bootstrap
// catalog's Function (and FunctionArgs) systable rows need.
type FuncMeta struct {
	OID      ids.OID
	Name     string
	RetType  ids.OID
	ArgTypes []ids.OID
}

// Types returns the metadata for every built-in scalar type.
func Types() []TypeMeta {
	return []TypeMeta{
		{OID: oids.TypInt2, Name: "INT2", TypLen: 2, TypAlign: 2, InputFunc: oids.FuncInt2In, OutputFunc: oids.FuncInt2Out, EqFunc: oids.FuncInt2Eq, LtFunc: oids.FuncInt2Lt},
		{OID: oids.TypInt4, Name: "INT4", TypLen: 4, TypAlign: 4, InputFunc: oids.FuncInt4In, OutputFunc: oids.FuncInt4Out, EqFunc: oids.FuncInt4Eq, LtFunc: oids.FuncInt4Lt},
		{OID: oids.TypInt8, Name: "INT8", TypLen: 8, TypAlign: 8, InputFunc: oids.FuncInt8In, OutputFunc: oids.FuncInt8Out, EqFunc: oids.FuncInt8Eq, LtFunc: oids.FuncInt8Lt},
		{OID: oids.TypBool, Name: "BOOL", TypLen: 1, TypAlign: 1, InputFunc: oids.FuncBoolIn, OutputFunc: oids.FuncBoolOut, EqFunc: oids.FuncBoolEq, LtFunc: oids.FuncBoolLt},
		{OID: oids.TypFloat4, Name: "FLOAT4", TypLen: 4, TypAlign: 4, InputFunc: oids.FuncFloat4In, OutputFunc: oids.FuncFloat4Out, EqFunc: oids.FuncFloat4Eq, LtFunc: oids.FuncFloat4Lt},
		{OID: oids.TypFloat8, Name: "FLOAT8", TypLen: 8, TypAlign: 8, InputFunc: oids.FuncFloat8In, OutputFunc: oids.FuncFloat8Out, EqFunc: oids.FuncFloat8Eq, LtFunc: oids.FuncFloat8Lt},
		{OID: oids.TypVarchar, Name: "VARCHAR", TypLen: -1, TypAlign: 1, TypByRef: true, InputFunc: oids.FuncVarcharIn, OutputFunc: oids.FuncVarcharOut, EqFunc: oids.FuncVarcharEq, LtFunc: oids.FuncVarcharLt},
		{OID: oids.TypChar, Name: "CHAR", TypLen: 0, TypAlign: 1, TypByRef: true, TypLenFunc: oids.FuncCharTypLen, InputFunc: oids.FuncCharIn, OutputFunc: oids.FuncCharOut, EqFunc: oids.FuncCharEq, LtFunc: oids.FuncCharLt},
	}
}

// Functions returns the metadata for every built-in function, including
// the type input/output/eq/lt functions named in Types and the typlen
// and arithmetic functions that round out the registry.
func Functions() []FuncMeta {
	var fs []FuncMeta
	for _, t := range Types() {
		fs = append(fs,
			FuncMeta{OID: t.InputFunc, Name: strings.ToLower(t.Name) + "in", RetType: t.OID, ArgTypes: []ids.OID{oids.TypVarchar}},
			FuncMeta{OID: t.OutputFunc, Name: strings.ToLower(t.Name) + "out", RetType: oids.TypVarchar, ArgTypes: []ids.OID{t.OID}},
			FuncMeta{OID: t.EqFunc, Name: strings.ToLower(t.Name) + "eq", RetType: oids.TypBool, ArgTypes: []ids.OID{t.OID, t.OID}},
			FuncMeta{OID: t.LtFunc, Name: strings.ToLower(t.Name) + "lt", RetType: oids.TypBool, ArgTypes: []ids.OID{t.OID, t.OID}},
		)
	}
	fs = append(fs,
		FuncMeta{OID: oids.FuncCharTypLen, Name: "chartyplen", RetType: oids.TypInt2, ArgTypes: []ids.OID{oids.TypInt8}},
		FuncMeta{OID: oids.FuncStringEqCI, Name: "streqci", RetType: oids.TypBool, ArgTypes: []ids.OID{oids.TypVarchar, oids.TypVarchar}},
		FuncMeta{OID: oids.FuncInt4Add, Name: "int4add", RetType: oids.TypInt4, ArgTypes: []ids.OID{oids.TypInt4, oids.TypInt4}},
		FuncMeta{OID: oids.FuncInt4Sub, Name: "int4sub", RetType: oids.TypInt4, ArgTypes: []ids.OID{oids.TypInt4, oids.TypInt4}},
	)
	return fs
}

// Install registers every built-in function's callable into reg. It is
// called once at process init (see cmd/corvid and the catalog package's
// tests) and is idempotent: registering twice just overwrites with an
// identical Func.
func Install(reg *fn.Registry) {
	installNumeric(reg, typeByOID(oids.TypInt2), numOps[int16]{
		get:    func(r datum.NullableDatumRef) int16 { return r.GetI16() },
		from:   func(v int16) datum.Datum { return datum.FromI16(v) },
		parse:  func(s string) (int16, bool) { v, err := strconv.ParseInt(s, 10, 16); return int16(v), err == nil },
		format: func(v int16) string { return strconv.FormatInt(int64(v), 10) },
	})
	installNumeric(reg, typeByOID(oids.TypInt4), numOps[int32]{
		get:    func(r datum.NullableDatumRef) int32 { return r.GetI32() },
		from:   func(v int32) datum.Datum { return datum.FromI32(v) },
		parse:  func(s string) (int32, bool) { v, err := strconv.ParseInt(s, 10, 32); return int32(v), err == nil },
		format: func(v int32) string { return strconv.FormatInt(int64(v), 10) },
	})
	installNumeric(reg, typeByOID(oids.TypInt8), numOps[int64]{
		get:    func(r datum.NullableDatumRef) int64 { return r.GetI64() },
		from:   func(v int64) datum.Datum { return datum.FromI64(v) },
		parse:  func(s string) (int64, bool) { v, err := strconv.ParseInt(s, 10, 64); return v, err == nil },
		format: func(v int64) string { return strconv.FormatInt(v, 10) },
	})
	installNumeric(reg, typeByOID(oids.TypFloat4), numOps[float32]{
		get:  func(r datum.NullableDatumRef) float32 { return r.GetF32() },
		from: func(v float32) datum.Datum { return datum.FromF32(v) },
		parse: func(s string) (float32, bool) {
			v, err := strconv.ParseFloat(s, 32)
			return float32(v), err == nil
		},
		format: func(v float32) string { return strconv.FormatFloat(float64(v), 'g', -1, 32) },
	})
	installNumeric(reg, typeByOID(oids.TypFloat8), numOps[float64]{
		get:    func(r datum.NullableDatumRef) float64 { return r.GetF64() },
		from:   func(v float64) datum.Datum { return datum.FromF64(v) },
		parse:  func(s string) (float64, bool) { v, err := strconv.ParseFloat(s, 64); return v, err == nil },
		format: func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) },
	})

	installBool(reg, typeByOID(oids.TypBool))
	installVarchar(reg, typeByOID(oids.TypVarchar))
	installChar(reg, typeByOID(oids.TypChar))

	reg.Register(oids.FuncCharTypLen, func(args []datum.NullableDatumRef, typeParam uint64) datum.Datum {
		return datum.FromI16(int16(typeParam))
	})
	reg.Register(oids.FuncStringEqCI, func(args []datum.NullableDatumRef, _ uint64) datum.Datum {
		a := string(args[0].GetVarlenBytes())
		b := string(args[1].GetVarlenBytes())
		return datum.FromBool(strings.EqualFold(a, b))
	})
	reg.Register(oids.FuncInt4Add, func(args []datum.NullableDatumRef, _ uint64) datum.Datum {
		return datum.FromI32(args[0].GetI32() + args[1].GetI32())
	})
	reg.Register(oids.FuncInt4Sub, func(args []datum.NullableDatumRef, _ uint64) datum.Datum {
		return datum.FromI32(args[0].GetI32() - args[1].GetI32())
	})
}

// typeByOID looks up a type's metadata out of Types() by OID. Install
// calls it once per built-in type, so the O(n) scan over eight entries
// costs nothing; it saves carrying a second hand-maintained table.
func typeByOID(oid ids.OID) TypeMeta {
	for _, t := range Types() {
		if t.OID == oid {
			return t
		}
	}
	panic("builtin: unknown type oid")
}

// numOps bundles the four primitive operations installNumeric needs to
// wire up a Go numeric type's input/output/eq/lt functions: reading it
// out of a NullableDatumRef, constructing a Datum from it, parsing it
// out of VARCHAR input text, and formatting it back to text.
type numOps[T cmp.Ordered] struct {
	get    func(datum.NullableDatumRef) T
	from   func(T) datum.Datum
	parse  func(string) (T, bool)
	format func(T) string
}

// installNumeric registers the input/output/eq/lt quartet for one
// ordered numeric type, generic over the Go type that carries it. Every
// built-in integer and float type shares this one body; only the
// closures in ops differ per type.
func installNumeric[T cmp.Ordered](reg *fn.Registry, t TypeMeta, ops numOps[T]) {
	reg.Register(t.InputFunc, func(args []datum.NullableDatumRef, _ uint64) datum.Datum {
		s := strings.TrimSpace(string(args[0].GetVarlenBytes()))
		v, ok := ops.parse(s)
		if !ok {
			return datum.Null()
		}
		return ops.from(v)
	})
	reg.Register(t.OutputFunc, func(args []datum.NullableDatumRef, _ uint64) datum.Datum {
		return datum.FromVarlenBytesOwned([]byte(ops.format(ops.get(args[0]))))
	})
	reg.Register(t.EqFunc, func(args []datum.NullableDatumRef, _ uint64) datum.Datum {
		return datum.FromBool(ops.get(args[0]) == ops.get(args[1]))
	})
	reg.Register(t.LtFunc, func(args []datum.NullableDatumRef, _ uint64) datum.Datum {
		return datum.FromBool(ops.get(args[0]) < ops.get(args[1]))
	})
}

// installBool registers BOOL's input/output/eq/lt functions. Input
// accepts the usual "t"/"f" spelling plus "true"/"false" and "1"/"0";
// anything else is rejected as null, matching every other input
// function's failure convention.
func installBool(reg *fn.Registry, t TypeMeta) {
	reg.Register(t.InputFunc, func(args []datum.NullableDatumRef, _ uint64) datum.Datum {
		switch strings.TrimSpace(string(args[0].GetVarlenBytes())) {
		case "t", "true", "1":
			return datum.FromBool(true)
		case "f", "false", "0":
			return datum.FromBool(false)
		default:
			return datum.Null()
		}
	})
	reg.Register(t.OutputFunc, func(args []datum.NullableDatumRef, _ uint64) datum.Datum {
		if args[0].GetBool() {
			return datum.FromVarlenBytesOwned([]byte("t"))
		}
		return datum.FromVarlenBytesOwned([]byte("f"))
	})
	reg.Register(t.EqFunc, func(args []datum.NullableDatumRef, _ uint64) datum.Datum {
		return datum.FromBool(args[0].GetBool() == args[1].GetBool())
	})
	reg.Register(t.LtFunc, func(args []datum.NullableDatumRef, _ uint64) datum.Datum {
		return datum.FromBool(!args[0].GetBool() && args[1].GetBool())
	})
}

// truncateOverLongSpaces implements the VARCHAR(n)/CHAR(n) input
// truncation rule: input no longer than n passes through unchanged;
// input longer than n is accepted only if every byte past position n is
// a space, in which case it is truncated to exactly n. Anything else
// past n is a length violation, reported via the second return value.
// n <= 0 means unbounded (the VARCHAR with no declared maximum).
func truncateOverLongSpaces(s string, n int) (string, bool) {
	if n <= 0 || len(s) <= n {
		return s, true
	}
	if strings.Trim(s[n:], " ") != "" {
		return "", false
	}
	return s[:n], true
}

// installVarchar registers VARCHAR's input/output/eq/lt functions.
// Input applies truncateOverLongSpaces against the field's declared
// maximum length (its type parameter); output, eq, and lt all operate
// directly on the stored bytes.
func installVarchar(reg *fn.Registry, t TypeMeta) {
	reg.Register(t.InputFunc, func(args []datum.NullableDatumRef, typeParam uint64) datum.Datum {
		s, ok := truncateOverLongSpaces(string(args[0].GetVarlenBytes()), int(typeParam))
		if !ok {
			return datum.Null()
		}
		return datum.FromVarlenBytesOwned([]byte(s))
	})
	reg.Register(t.OutputFunc, func(args []datum.NullableDatumRef, _ uint64) datum.Datum {
		return datum.FromVarlenBytesOwned(append([]byte(nil), args[0].GetVarlenBytes()...))
	})
	reg.Register(t.EqFunc, func(args []datum.NullableDatumRef, _ uint64) datum.Datum {
		return datum.FromBool(bytes.Equal(args[0].GetVarlenBytes(), args[1].GetVarlenBytes()))
	})
	reg.Register(t.LtFunc, func(args []datum.NullableDatumRef, _ uint64) datum.Datum {
		return datum.FromBool(bytes.Compare(args[0].GetVarlenBytes(), args[1].GetVarlenBytes()) < 0)
	})
}

// installChar registers CHAR's input/output/eq/lt functions. It shares
// VARCHAR's truncation rule but additionally pads input shorter than
// the declared width out to exactly that width with trailing spaces,
// since CHAR(n) is fixed-width.
func installChar(reg *fn.Registry, t TypeMeta) {
	reg.Register(t.InputFunc, func(args []datum.NullableDatumRef, typeParam uint64) datum.Datum {
		n := int(typeParam)
		s, ok := truncateOverLongSpaces(string(args[0].GetVarlenBytes()), n)
		if !ok {
			return datum.Null()
		}
		if len(s) < n {
			s += strings.Repeat(" ", n-len(s))
		}
		return datum.FromVarlenBytesOwned([]byte(s))
	})
	reg.Register(t.OutputFunc, func(args []datum.NullableDatumRef, _ uint64) datum.Datum {
		return datum.FromVarlenBytesOwned(append([]byte(nil), args[0].GetVarlenBytes()...))
	})
	reg.Register(t.EqFunc, func(args []datum.NullableDatumRef, _ uint64) datum.Datum {
		return datum.FromBool(bytes.Equal(args[0].GetVarlenBytes(), args[1].GetVarlenBytes()))
	})
	reg.Register(t.LtFunc, func(args []datum.NullableDatumRef, _ uint64) datum.Datum {
		return datum.FromBool(bytes.Compare(args[0].GetVarlenBytes(), args[1].GetVarlenBytes()) < 0)
	})
}

// OpType names one operator the operator-symbol table can resolve to a
// function OID.
type OpType int

const (
	OpEq OpType = iota
	OpLt
	OpAdd
	OpSub
)

// Symbol returns the operator's conventional infix spelling.
func (op OpType) Symbol() string {
	switch op {
	case OpEq:
		return "="
	case OpLt:
		return "<"
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	default:
		return "?"
	}
}

// Arity returns the number of operands op takes. Every operator this
// table knows about is binary.
func (op OpType) Arity() int { return 2 }

type arithKey struct {
	op  OpType
	oid ids.OID
}

// Registry resolves an operator symbol plus its operand types to
// the function OID that implements it, the same lookup the original
// engine's FindOperator performs when an index is created without an
// explicit comparison function and needs its type's default one.
type Registry struct {
	eq    map[ids.OID]ids.OID
	lt    map[ids.OID]ids.OID
	arith map[arithKey]ids.OID
}

// NewRegistry builds the operator table from the built-in types'
// and functions' metadata.
func NewRegistry() *Registry {
	t := &Registry{
		eq:    make(map[ids.OID]ids.OID),
		lt:    make(map[ids.OID]ids.OID),
		arith: make(map[arithKey]ids.OID),
	}
	for _, tm := range Types() {
		t.eq[tm.OID] = tm.EqFunc
		t.lt[tm.OID] = tm.LtFunc
	}
	t.arith[arithKey{OpAdd, oids.TypInt4}] = oids.FuncInt4Add
	t.arith[arithKey{OpSub, oids.TypInt4}] = oids.FuncInt4Sub
	return t
}

// FindOperator resolves op over operands of types arg0 and arg1 to the
// function OID that implements it. It reports false when no operand
// type is given an implementation of op, or when arg0 and arg1 differ:
// this table carries no mixed-type operators.
func (t *Registry) FindOperator(op OpType, arg0, arg1 ids.OID) (ids.OID, bool) {
	if arg0 != arg1 {
		return ids.InvalidOID, false
	}
	switch op {
	case OpEq:
		f, ok := t.eq[arg0]
		return f, ok
	case OpLt:
		f, ok := t.lt[arg0]
		return f, ok
	case OpAdd, OpSub:
		f, ok := t.arith[arithKey{op, arg0}]
		return f, ok
	default:
		return ids.InvalidOID, false
	}
}
