package bootstrap

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/corvidb/corvid/pkg/catalog/oids"
	"github.com/corvidb/corvid/pkg/ids"
)

// WriteInitFile serializes every hard-coded bootstrap row — the seven
// systables' own Table rows, the built-in Type rows, every systable's
// Column rows, and the built-in Function/FunctionArgs rows — into the
// textual init-file format (package initfile) that CatCache.FromInit
// drains into its heap files. Without this, a freshly formatted
// database's systable files would be empty and every catalog lookup
// against, say, "Table"'s own row in the Table systable would miss;
// with it, the database bootstraps the same way a database restored
// from an on-disk init file would.
func (c *Catalog) WriteInitFile(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if err := writeBlock(bw, oids.TabTable, tableRows(c)); err != nil {
		return err
	}
	if err := writeBlock(bw, oids.TabType, typeRows(c)); err != nil {
		return err
	}
	if err := writeBlock(bw, oids.TabColumn, columnRows(c)); err != nil {
		return err
	}
	if err := writeBlock(bw, oids.TabFunction, functionRows(c)); err != nil {
		return err
	}
	if err := writeBlock(bw, oids.TabFunctionArgs, functionArgsRows(c)); err != nil {
		return err
	}
	return bw.Flush()
}

func writeBlock(w *bufio.Writer, tabid ids.OID, rows [][]string) error {
	specs, err := columnsOf(tabid)
	if err != nil {
		return err
	}
	var header strings.Builder
	fmt.Fprintf(&header, "table %d", tabid)
	for _, sp := range specs {
		fmt.Fprintf(&header, " %d %d", sp.TypeID, sp.TypeParam)
	}
	if _, err := w.WriteString(header.String() + "\n"); err != nil {
		return err
	}
	for _, row := range rows {
		var line strings.Builder
		line.WriteString("data")
		for _, tok := range row {
			line.WriteByte(' ')
			line.WriteString(quoteToken(tok))
		}
		if _, err := w.WriteString(line.String() + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// columnsOf returns tabid's column specs from systableFieldSpecs, the
// name/type table this file keeps for the "table" header lines.
func columnsOf(tabid ids.OID) ([]fieldSpec, error) {
	specs, ok := systableFieldSpecs[tabid]
	if !ok {
		return nil, fmt.Errorf("bootstrap: unknown systable oid %s", tabid)
	}
	return specs, nil
}

type fieldSpec struct {
	TypeID    ids.OID
	TypeParam uint64
}

// systableFieldSpecs mirrors systab.Columns' type declarations (not
// its names; WriteInitFile only needs the wire types for the "table"
// header). Declared separately here, rather than calling
// systab.Columns directly, to avoid importing systab's FieldSpec
// shape into a file whose job is pure text formatting.
var systableFieldSpecs = map[ids.OID][]fieldSpec{
	oids.TabTable: {
		{TypeID: oids.TypOid}, {TypeID: oids.TypVarchar}, {TypeID: oids.TypOid}, {TypeID: oids.TypInt2},
	},
	oids.TabType: {
		{TypeID: oids.TypOid}, {TypeID: oids.TypVarchar}, {TypeID: oids.TypInt2}, {TypeID: oids.TypInt2},
		{TypeID: oids.TypBool}, {TypeID: oids.TypOid}, {TypeID: oids.TypOid}, {TypeID: oids.TypOid},
		{TypeID: oids.TypOid}, {TypeID: oids.TypOid},
	},
	oids.TabColumn: {
		{TypeID: oids.TypOid}, {TypeID: oids.TypInt2}, {TypeID: oids.TypVarchar}, {TypeID: oids.TypOid},
		{TypeID: oids.TypInt8}, {TypeID: oids.TypBool}, {TypeID: oids.TypBool},
	},
	oids.TabFunction: {
		{TypeID: oids.TypOid}, {TypeID: oids.TypVarchar}, {TypeID: oids.TypOid}, {TypeID: oids.TypInt2},
	},
	oids.TabFunctionArgs: {
		{TypeID: oids.TypOid}, {TypeID: oids.TypInt2}, {TypeID: oids.TypOid},
	},
	oids.TabIndex: {
		{TypeID: oids.TypOid}, {TypeID: oids.TypVarchar}, {TypeID: oids.TypOid}, {TypeID: oids.TypInt2},
		{TypeID: oids.TypBool}, {TypeID: oids.TypOid}, {TypeID: oids.TypInt2},
	},
	oids.TabIndexColumn: {
		{TypeID: oids.TypOid}, {TypeID: oids.TypInt2}, {TypeID: oids.TypInt2}, {TypeID: oids.TypOid},
		{TypeID: oids.TypOid},
	},
}

func boolTok(v bool) string {
	if v {
		return "t"
	}
	return "f"
}

func tableRows(c *Catalog) [][]string {
	var rows [][]string
	for _, tabid := range systableOIDs {
		t := c.tables[tabid]
		rows = append(rows, []string{
			strconv.FormatUint(uint64(t.TabID), 10),
			t.TabName,
			"0",
			strconv.FormatInt(int64(t.NumCols), 10),
		})
	}
	return rows
}

func typeRows(c *Catalog) [][]string {
	oidsList := make([]ids.OID, 0, len(c.types))
	for oid := range c.types {
		oidsList = append(oidsList, oid)
	}
	sort.Slice(oidsList, func(i, j int) bool { return oidsList[i] < oidsList[j] })

	var rows [][]string
	for _, oid := range oidsList {
		t := c.types[oid]
		rows = append(rows, []string{
			strconv.FormatUint(uint64(t.TypID), 10),
			t.TypName,
			strconv.FormatInt(int64(t.TypLen), 10),
			strconv.FormatInt(int64(t.TypAlign), 10),
			boolTok(t.TypByRef),
			strconv.FormatUint(uint64(t.TypLenFunc), 10),
			strconv.FormatUint(uint64(t.InputFunc), 10),
			strconv.FormatUint(uint64(t.OutputFunc), 10),
			strconv.FormatUint(uint64(t.EqFunc), 10),
			strconv.FormatUint(uint64(t.LtFunc), 10),
		})
	}
	return rows
}

func columnRows(c *Catalog) [][]string {
	var rows [][]string
	for _, tabid := range systableOIDs {
		for _, col := range c.columns[tabid] {
			rows = append(rows, []string{
				strconv.FormatUint(uint64(col.TabID), 10),
				strconv.FormatInt(int64(col.ColID), 10),
				col.ColName,
				strconv.FormatUint(uint64(col.ColTypeID), 10),
				strconv.FormatInt(col.ColTypeParm, 10),
				boolTok(col.Nullable),
				boolTok(col.IsArray),
			})
		}
	}
	return rows
}

func functionRows(c *Catalog) [][]string {
	oidsList := make([]ids.OID, 0, len(c.functions))
	for oid := range c.functions {
		oidsList = append(oidsList, oid)
	}
	sort.Slice(oidsList, func(i, j int) bool { return oidsList[i] < oidsList[j] })

	var rows [][]string
	for _, oid := range oidsList {
		f := c.functions[oid]
		rows = append(rows, []string{
			strconv.FormatUint(uint64(f.FuncID), 10),
			f.Name,
			strconv.FormatUint(uint64(f.RetType), 10),
			strconv.FormatInt(int64(f.NumArgs), 10),
		})
	}
	return rows
}

func functionArgsRows(c *Catalog) [][]string {
	oidsList := make([]ids.OID, 0, len(c.functions))
	for oid := range c.functions {
		oidsList = append(oidsList, oid)
	}
	sort.Slice(oidsList, func(i, j int) bool { return oidsList[i] < oidsList[j] })

	var rows [][]string
	for _, oid := range oidsList {
		for _, a := range c.funcArgs[oid] {
			rows = append(rows, []string{
				strconv.FormatUint(uint64(a.FuncID), 10),
				strconv.FormatInt(int64(a.ArgIdx), 10),
				strconv.FormatUint(uint64(a.ArgType), 10),
			})
		}
	}
	return rows
}

// quoteToken quotes a token if it is empty or contains a space, a tab,
// a double quote or a backslash, matching the init-file tokenizer's (package initfile)
// escaping rules so the emitted text round-trips.
func quoteToken(s string) string {
	needsQuote := s == ""
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '"' || r == '\\' {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return s
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
