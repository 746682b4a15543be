// Package initfile implements the init-file reader (component E): it
// tokenizes a textual init file, switches between tables on "table"
// lines, and turns each "data" line into a schema-laid-out record by
// invoking every field's type input function. The bootstrap catalog's
// self-describing schemas (package bootstrap) drive this for the
// catalog's own systables; the same reader works for any table whose
// column types and type parameters are named directly in the file.
package initfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/corvidb/corvid/pkg/datum"
	"github.com/corvidb/corvid/pkg/fn"
	"github.com/corvidb/corvid/pkg/ids"
	"github.com/corvidb/corvid/pkg/schema"
)

// ErrInputParse is returned when a line is malformed or a field's input
// function rejects its token. Once returned, the Reader is in a sticky
// error state: every subsequent call to Next returns the same error.
var ErrInputParse = errors.New("initfile: input parse error")

// maxTokenLen bounds the length of a single token (including inside
// quotes), guarding against an unbounded read from a malformed line.
const maxTokenLen = 4096

// TypeResolver supplies the one piece of type metadata the reader
// needs beyond what schema.TypeFinder already provides: the input
// function to invoke for a type, keyed by that type's OID. The
// bootstrap catalog implements this.
type TypeResolver interface {
	schema.TypeFinder
	InputFuncOf(typeOID ids.OID) (ids.OID, bool)
}

// Record is one decoded data row: the table it belongs to and its
// encoded record bytes under that table's schema.
type Record struct {
	TabID ids.OID
	Bytes []byte
}

// Reader tokenizes an init file and produces Records. The zero value
// is not usable; construct one with NewReader.
type Reader struct {
	scanner  *bufio.Scanner
	resolver TypeResolver
	reg      *fn.Registry

	schemas map[ids.OID]*schema.Schema

	activeTabID      ids.OID
	activeSchema     *schema.Schema
	activeTypeParams []uint64

	err error
	eof bool
}

// NewReader constructs a Reader over r. resolver is typically a
// *bootstrap.Catalog, which already knows every built-in type's input
// function and layout metadata.
func NewReader(r io.Reader, resolver TypeResolver, reg *fn.Registry) *Reader {
	return &Reader{
		scanner:  bufio.NewScanner(r),
		resolver: resolver,
		reg:      reg,
		schemas:  make(map[ids.OID]*schema.Schema),
	}
}

// Next returns the next decoded data record. It returns io.EOF at
// stream end and ErrInputParse (wrapped with detail) on any parse
// failure; once either occurs, every subsequent call returns the same
// error.
func (rd *Reader) Next() (*Record, error) {
	if rd.err != nil {
		return nil, rd.err
	}
	if rd.eof {
		return nil, io.EOF
	}
	for rd.scanner.Scan() {
		line := strings.TrimSpace(rd.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		toks, err := tokenize(line)
		if err != nil {
			return nil, rd.fail(err)
		}
		if len(toks) == 0 {
			continue
		}
		switch toks[0] {
		case "table":
			if err := rd.handleTable(toks[1:]); err != nil {
				return nil, rd.fail(err)
			}
		case "data":
			rec, err := rd.handleData(toks[1:])
			if err != nil {
				return nil, rd.fail(err)
			}
			return rec, nil
		default:
			return nil, rd.fail(fmt.Errorf("%w: unrecognized line kind %q", ErrInputParse, toks[0]))
		}
	}
	if err := rd.scanner.Err(); err != nil {
		return nil, rd.fail(err)
	}
	rd.eof = true
	return nil, io.EOF
}

func (rd *Reader) fail(err error) error {
	rd.err = err
	return err
}

func (rd *Reader) handleTable(toks []string) error {
	if len(toks) < 1 {
		return fmt.Errorf("%w: table line missing table id", ErrInputParse)
	}
	tabidN, err := strconv.ParseUint(toks[0], 10, 32)
	if err != nil {
		return fmt.Errorf("%w: invalid table id %q: %v", ErrInputParse, toks[0], err)
	}
	rest := toks[1:]
	if len(rest)%2 != 0 {
		return fmt.Errorf("%w: table line has an odd number of type/typeParam tokens", ErrInputParse)
	}

	tabid := ids.OID(tabidN)
	if sch, ok := rd.schemas[tabid]; ok {
		rd.activeTabID = tabid
		rd.activeSchema = sch
		rd.activeTypeParams = rd.schemaTypeParams(sch)
		return nil
	}

	specs := make([]schema.FieldSpec, 0, len(rest)/2)
	typeParams := make([]uint64, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		tid, err := strconv.ParseUint(rest[i], 10, 32)
		if err != nil {
			return fmt.Errorf("%w: invalid type id %q: %v", ErrInputParse, rest[i], err)
		}
		tparam, err := strconv.ParseUint(rest[i+1], 10, 64)
		if err != nil {
			return fmt.Errorf("%w: invalid type param %q: %v", ErrInputParse, rest[i+1], err)
		}
		specs = append(specs, schema.FieldSpec{TypeID: ids.OID(tid), TypeParam: tparam})
		typeParams = append(typeParams, tparam)
	}

	sch, err := schema.New(specs)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInputParse, err)
	}
	if err := sch.ComputeLayout(rd.resolver, rd.reg); err != nil {
		return fmt.Errorf("%w: %v", ErrInputParse, err)
	}

	rd.schemas[tabid] = sch
	rd.activeTabID = tabid
	rd.activeSchema = sch
	rd.activeTypeParams = typeParams
	return nil
}

// schemaTypeParams recovers the per-field type parameters of a
// previously built schema, for a repeated "table" line that switches
// back to a table already declared earlier in the file.
func (rd *Reader) schemaTypeParams(sch *schema.Schema) []uint64 {
	n := int(sch.NumFields())
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		out[i] = sch.FieldTypeParam(ids.FieldID(i))
	}
	return out
}

func (rd *Reader) handleData(toks []string) (*Record, error) {
	if rd.activeSchema == nil {
		return nil, fmt.Errorf("%w: data line before any table line", ErrInputParse)
	}
	n := int(rd.activeSchema.NumFields())
	if len(toks) != n {
		return nil, fmt.Errorf("%w: data line has %d fields, table declared %d", ErrInputParse, len(toks), n)
	}

	values := make([]datum.Datum, n)
	for i, tok := range toks {
		typeOID := rd.activeSchema.FieldTypeID(ids.FieldID(i))
		inputFunc, ok := rd.resolver.InputFuncOf(typeOID)
		if !ok {
			return nil, fmt.Errorf("%w: no input function for type %s", ErrInputParse, typeOID)
		}
		argDatum, err := datum.FromCString(tok)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInputParse, err)
		}
		v, err := rd.reg.Call1(inputFunc, argDatum, rd.activeTypeParams[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInputParse, err)
		}
		if v.IsNull() {
			return nil, fmt.Errorf("%w: field %d rejected token %q", ErrInputParse, i, tok)
		}
		values[i] = v
	}

	refs := make([]datum.NullableDatumRef, n)
	for i := range values {
		refs[i] = values[i].NullableRef()
	}
	var buf []byte
	if _, err := rd.activeSchema.WritePayload(refs, &buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputParse, err)
	}
	return &Record{TabID: rd.activeTabID, Bytes: buf}, nil
}

// tokenize splits one line into whitespace-separated tokens, honoring
// double-quoted strings with \" and \\ escapes.
func tokenize(line string) ([]string, error) {
	var toks []string
	i := 0
	for i < len(line) {
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= len(line) {
			break
		}
		if line[i] == '"' {
			i++
			var sb strings.Builder
			closed := false
			for i < len(line) {
				c := line[i]
				if c == '"' {
					i++
					closed = true
					break
				}
				if c == '\\' && i+1 < len(line) && (line[i+1] == '"' || line[i+1] == '\\') {
					sb.WriteByte(line[i+1])
					i += 2
					continue
				}
				sb.WriteByte(c)
				i++
				if sb.Len() > maxTokenLen {
					return nil, fmt.Errorf("%w: token exceeds %d bytes", ErrInputParse, maxTokenLen)
				}
			}
			if !closed {
				return nil, fmt.Errorf("%w: unterminated quoted string", ErrInputParse)
			}
			toks = append(toks, sb.String())
		} else {
			start := i
			for i < len(line) && line[i] != ' ' && line[i] != '\t' {
				i++
			}
			tok := line[start:i]
			if len(tok) > maxTokenLen {
				return nil, fmt.Errorf("%w: token exceeds %d bytes", ErrInputParse, maxTokenLen)
			}
			toks = append(toks, tok)
		}
	}
	return toks, nil
}
