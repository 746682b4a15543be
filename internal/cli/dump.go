package cli

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// catalogDump is the YAML-serializable shape of \dump's output: the
// entire in-memory catalog, human-readable, since the on-disk record
// payloads it is built from are binary.
type catalogDump struct {
	Tables    []tableDump    `yaml:"tables"`
	Types     []typeDump     `yaml:"types"`
	Functions []functionDump `yaml:"functions"`
}

type tableDump struct {
	Name    string       `yaml:"name"`
	OID     string       `yaml:"oid"`
	Columns []columnDump `yaml:"columns"`
	Indexes []indexDump  `yaml:"indexes,omitempty"`
}

type columnDump struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Param    int64  `yaml:"param,omitempty"`
	Nullable bool   `yaml:"nullable"`
}

type indexDump struct {
	Name   string `yaml:"name"`
	OID    string `yaml:"oid"`
	Unique bool   `yaml:"unique"`
}

type typeDump struct {
	Name  string `yaml:"name"`
	OID   string `yaml:"oid"`
	Len   int16  `yaml:"len"`
	ByRef bool   `yaml:"by_ref"`
}

type functionDump struct {
	Name    string `yaml:"name"`
	OID     string `yaml:"oid"`
	RetType string `yaml:"ret_type"`
}

// dumpCatalog renders the whole catalog cache as YAML, the same
// dependency the config loader already uses to parse the on-disk
// config file, but here driven directly for a human-readable export.
func (r *REPL) dumpCatalog() {
	tables, err := r.cat.ListTables()
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	types, err := r.cat.ListTypes()
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	functions, err := r.cat.ListFunctions()
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	out := catalogDump{}
	for _, t := range tables {
		td := tableDump{Name: t.TabName, OID: t.TabID.String()}
		cols, err := r.cat.ColumnsOf(t.TabID)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		for _, c := range cols {
			typeName := c.ColTypeID.String()
			if row, ok := r.cat.FindTypeRow(c.ColTypeID); ok {
				typeName = row.TypName
			}
			td.Columns = append(td.Columns, columnDump{
				Name: c.ColName, Type: typeName, Param: c.ColTypeParm, Nullable: c.Nullable,
			})
		}
		idxs, err := r.cat.FindAllIndexesOfTable(t.TabID)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		for _, idx := range idxs {
			td.Indexes = append(td.Indexes, indexDump{Name: idx.IdxName, OID: idx.IdxID.String(), Unique: idx.Unique})
		}
		out.Tables = append(out.Tables, td)
	}
	for _, t := range types {
		out.Types = append(out.Types, typeDump{Name: t.TypName, OID: t.TypID.String(), Len: t.TypLen, ByRef: t.TypByRef})
	}
	for _, f := range functions {
		out.Functions = append(out.Functions, functionDump{Name: f.Name, OID: f.FuncID.String(), RetType: f.RetType.String()})
	}

	enc, err := yaml.Marshal(out)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Print(string(enc))
}
