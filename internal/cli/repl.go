// Package cli provides the command-line interface and REPL for Corvid
package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/corvidb/corvid/internal/config"
	"github.com/corvidb/corvid/internal/logger"
	"github.com/corvidb/corvid/pkg/catalog"
	"github.com/corvidb/corvid/pkg/catalog/systab"
	"github.com/corvidb/corvid/pkg/ids"
	"github.com/corvidb/corvid/pkg/storage"
)

// REPL implements the Read-Eval-Print Loop for Corvid. Unlike a SQL
// shell, it speaks directly to the catalog cache: there is no SQL
// parser in this core, so every command here maps onto one or two
// catalog calls rather than a planned/executed query.
type REPL struct {
	config *config.Config
	log    *logger.Logger
	cat    *catalog.CatCache
	rl     *readline.Instance
}

// NewREPL creates a new REPL instance bound to an already-bootstrapped
// catalog cache.
func NewREPL(cfg *config.Config, log *logger.Logger, cat *catalog.CatCache) *REPL {
	return &REPL{
		config: cfg,
		log:    log.With("component", "repl"),
		cat:    cat,
	}
}

// Run starts the REPL loop
func (r *REPL) Run() error {
	rlConfig := &readline.Config{
		Prompt:          "corvid> ",
		HistoryFile:     getHistoryFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    newCompleter(),
	}

	rl, err := readline.NewEx(rlConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()
	r.rl = rl

	r.printWelcome()

	for {
		rl.SetPrompt("corvid> ")
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			fmt.Println("\nGoodbye!")
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if r.processCommand(line) == commandExit {
			fmt.Println("Goodbye!")
			return nil
		}
	}
}

type commandResult int

const (
	commandOK commandResult = iota
	commandExit
	commandError
)

func (r *REPL) processCommand(input string) commandResult {
	if strings.HasPrefix(input, "\\") {
		return r.handleBackslashCommand(input)
	}
	switch strings.ToUpper(input) {
	case "EXIT", "QUIT":
		return commandExit
	case "HELP":
		r.printHelp()
		return commandOK
	default:
		fmt.Printf("Unknown command: %s\n", input)
		fmt.Println("Type \\help for available commands")
		return commandError
	}
}

func (r *REPL) handleBackslashCommand(input string) commandResult {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return commandOK
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "\\q", "\\quit", "\\exit":
		return commandExit

	case "\\?", "\\help":
		r.printHelp()
		return commandOK

	case "\\dt", "\\tables":
		r.listTables()
		return commandOK

	case "\\dtypes":
		r.listTypes()
		return commandOK

	case "\\df":
		r.listFunctions()
		return commandOK

	case "\\di", "\\indexes":
		r.listIndexes(args)
		return commandOK

	case "\\dump":
		r.dumpCatalog()
		return commandOK

	case "\\d":
		if len(args) < 1 {
			fmt.Println("Usage: \\d <table_name>")
			return commandError
		}
		r.describeTable(args[0])
		return commandOK

	case "\\table":
		return r.handleTableCommand(args)

	case "\\index":
		return r.handleIndexCommand(args)

	case "\\status":
		r.printStatus()
		return commandOK

	case "\\config":
		r.printConfig()
		return commandOK

	case "\\clear":
		fmt.Print("\033[H\033[2J") // ANSI clear screen
		return commandOK

	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		fmt.Println("Type \\? for help")
		return commandError
	}
}

func (r *REPL) listTables() {
	rows, err := r.cat.ListTables()
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("%-20s %-10s %s\n", "name", "oid", "columns")
	for _, t := range rows {
		fmt.Printf("%-20s %-10s %d\n", t.TabName, t.TabID, t.NumCols)
	}
}

func (r *REPL) describeTable(name string) {
	tbl, ok := r.cat.FindTableByName(name)
	if !ok {
		fmt.Printf("table %q not found\n", name)
		return
	}
	cols, err := r.cat.ColumnsOf(tbl.TabID)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("table %s (oid %s)\n", tbl.TabName, tbl.TabID)
	fmt.Printf("  %-20s %-12s %-10s %s\n", "column", "type", "nullable", "param")
	for _, c := range cols {
		typeName := c.ColTypeID.String()
		if row, ok := r.cat.FindTypeRow(c.ColTypeID); ok {
			typeName = row.TypName
		}
		fmt.Printf("  %-20s %-12s %-10t %d\n", c.ColName, typeName, c.Nullable, c.ColTypeParm)
	}
}

func (r *REPL) listTypes() {
	rows, err := r.cat.ListTypes()
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("%-10s %-10s %-6s %s\n", "name", "oid", "len", "byref")
	for _, t := range rows {
		fmt.Printf("%-10s %-10s %-6d %t\n", t.TypName, t.TypID, t.TypLen, t.TypByRef)
	}
}

func (r *REPL) listFunctions() {
	rows, err := r.cat.ListFunctions()
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("%-20s %-10s %s\n", "name", "oid", "rettype")
	for _, f := range rows {
		fmt.Printf("%-20s %-10s %s\n", f.Name, f.FuncID, f.RetType)
	}
}

func (r *REPL) listIndexes(args []string) {
	if len(args) >= 1 {
		tbl, ok := r.cat.FindTableByName(args[0])
		if !ok {
			fmt.Printf("table %q not found\n", args[0])
			return
		}
		idxs, err := r.cat.FindAllIndexesOfTable(tbl.TabID)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		r.printIndexRows(idxs)
		return
	}
	fmt.Println("Usage: \\di <table_name>")
}

func (r *REPL) printIndexRows(idxs []*systab.Index) {
	fmt.Printf("%-20s %-10s %-8s\n", "name", "oid", "unique")
	for _, idx := range idxs {
		fmt.Printf("%-20s %-10s %-8t\n", idx.IdxName, idx.IdxID, idx.Unique)
	}
}

// handleTableCommand implements "\table create <name> <col:type[:n]>...".
// There is no SQL DDL grammar in this core, so columns are declared
// with a minimal colon-separated token instead of a parenthesized
// column list.
func (r *REPL) handleTableCommand(args []string) commandResult {
	if len(args) < 1 {
		fmt.Println("Usage: \\table create <name> <col:type[:param]>...")
		return commandError
	}
	switch strings.ToLower(args[0]) {
	case "create":
		if len(args) < 3 {
			fmt.Println("Usage: \\table create <name> <col:type[:param]>...")
			return commandError
		}
		cols, err := parseColumnSpecs(args[2:])
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return commandError
		}
		oid, err := r.cat.AddTable(args[1], cols)
		if err != nil {
			r.log.Error("create table failed", "table", args[1], "error", err)
			fmt.Printf("error: %v\n", err)
			return commandError
		}
		fmt.Printf("created table %s (oid %s)\n", args[1], oid)
		return commandOK
	default:
		fmt.Printf("Unknown \\table subcommand: %s\n", args[0])
		return commandError
	}
}

func parseColumnSpecs(tokens []string) ([]catalog.ColumnSpec, error) {
	cols := make([]catalog.ColumnSpec, 0, len(tokens))
	for _, tok := range tokens {
		parts := strings.Split(tok, ":")
		if len(parts) < 2 {
			return nil, fmt.Errorf("malformed column %q, want col:type[:param]", tok)
		}
		typeOID, ok := typeOIDByName(parts[1])
		if !ok {
			return nil, fmt.Errorf("unknown type %q", parts[1])
		}
		spec := catalog.ColumnSpec{Name: parts[0], TypeID: typeOID}
		if len(parts) >= 3 {
			if strings.EqualFold(parts[2], "null") {
				spec.Nullable = true
			} else {
				param, err := strconv.ParseUint(parts[2], 10, 64)
				if err != nil {
					return nil, fmt.Errorf("bad type param %q: %w", parts[2], err)
				}
				spec.TypeParam = param
			}
		}
		if len(parts) >= 4 && strings.EqualFold(parts[3], "null") {
			spec.Nullable = true
		}
		cols = append(cols, spec)
	}
	return cols, nil
}

// handleIndexCommand implements "\index create <name> <table> <col>... [unique]".
func (r *REPL) handleIndexCommand(args []string) commandResult {
	if len(args) < 1 {
		fmt.Println("Usage: \\index create <name> <table> <col>... [unique]")
		return commandError
	}
	switch strings.ToLower(args[0]) {
	case "create":
		if len(args) < 4 {
			fmt.Println("Usage: \\index create <name> <table> <col>... [unique]")
			return commandError
		}
		name, tableName := args[1], args[2]
		rest := args[3:]
		unique := false
		if len(rest) > 0 && strings.EqualFold(rest[len(rest)-1], "unique") {
			unique = true
			rest = rest[:len(rest)-1]
		}
		tbl, ok := r.cat.FindTableByName(tableName)
		if !ok {
			fmt.Printf("table %q not found\n", tableName)
			return commandError
		}
		cols, err := r.cat.ColumnsOf(tbl.TabID)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return commandError
		}
		colIDs := make([]ids.FieldID, 0, len(rest))
		for _, colName := range rest {
			fid, ok := findColumnID(cols, colName)
			if !ok {
				fmt.Printf("table %q has no column %q\n", tableName, colName)
				return commandError
			}
			colIDs = append(colIDs, fid)
		}
		lessFuncs := make([]ids.OID, len(colIDs))
		eqFuncs := make([]ids.OID, len(colIDs))
		for i := range colIDs {
			lessFuncs[i] = ids.InvalidOID
			eqFuncs[i] = ids.InvalidOID
		}
		oid, err := r.cat.AddIndex(name, tbl.TabID, systab.IndexTypeVolatile, unique, ids.InvalidFileID, colIDs, lessFuncs, eqFuncs)
		if err != nil {
			r.log.Error("create index failed", "index", name, "table", tableName, "error", err)
			fmt.Printf("error: %v\n", err)
			return commandError
		}
		fmt.Printf("created index %s (oid %s)\n", name, oid)
		return commandOK
	default:
		fmt.Printf("Unknown \\index subcommand: %s\n", args[0])
		return commandError
	}
}

func findColumnID(cols []*systab.Column, name string) (ids.FieldID, bool) {
	for _, c := range cols {
		if strings.EqualFold(c.ColName, name) {
			return c.ColID, true
		}
	}
	return 0, false
}

func (r *REPL) printWelcome() {
	fmt.Println(`
 __      __        _     _ _           _ ____  ____
 \ \    / /       (_)   | (_)         | |  _ \|  _ \
  \ \  / /__ _ __  _  __| |_  ___ __ _| | | | | |_) |
   \ \/ / _ \ '__|| |/ _' | |/ __/ _' | | | | |  _ <
    \  /  __/ |   | | (_| | | (_| (_| | | |_| | |_) |
     \/ \___|_|   |_|\__,_|_|\___\__,_|_|____/|____/

    Type \help for available commands
    `)
}

func (r *REPL) printHelp() {
	fmt.Println(`
Corvid Commands
====================

This core has no SQL parser; the shell speaks to the catalog directly.

Catalog Inspection:
  \dt, \tables                             List all tables
  \d <table>                               Describe a table's columns
  \di <table>                              List a table's indexes
  \dtypes                                  List built-in types
  \df                                      List registered functions
  \dump                                    Render the whole catalog as YAML

Catalog Mutation:
  \table create <name> <col:type[:n]>...   Create a table
  \index create <name> <table> <col>... [unique]
                                            Create an index

Other:
  \status                                  Show shell status
  \config                                  Show configuration
  \clear                                   Clear screen
  \?, \help                                Show this help
  \q, \quit                                Exit

Column types: INT2, INT4, INT8, BOOL, FLOAT4, FLOAT8, VARCHAR, CHAR
Append :null to a column token to make it nullable, e.g. name:VARCHAR:null`)
}

func (r *REPL) printStatus() {
	fmt.Println("\nCorvid Status")
	fmt.Println("==================")
	rows, err := r.cat.ListTables()
	numTables := 0
	if err == nil {
		numTables = len(rows)
	}
	fmt.Printf("Tables:     %d\n", numTables)
	fmt.Printf("Data Dir:   %s\n", r.config.Storage.DataDir)
	fmt.Printf("Log Level:  %s\n", r.config.Log.Level)
	fmt.Println()
}

func (r *REPL) printConfig() {
	fmt.Println("\nCurrent Configuration")
	fmt.Println("=====================")
	fmt.Printf("Storage:\n")
	fmt.Printf("  Data Directory:   %s\n", r.config.Storage.DataDir)
	fmt.Printf("  Init Data File:   %s\n", r.config.Storage.InitDataFile)
	fmt.Printf("  Page Size:        %d bytes\n", storage.PageSize)
	fmt.Printf("\nLogging:\n")
	fmt.Printf("  Level:            %s\n", r.config.Log.Level)
	fmt.Printf("  Format:           %s\n", r.config.Log.Format)
	fmt.Printf("  Output:           %s\n", r.config.Log.Output)
	fmt.Println()
}

func getHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.corvid_history"
}

// newCompleter creates an auto-completer for the REPL
func newCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("\\table",
			readline.PcItem("create"),
		),
		readline.PcItem("\\index",
			readline.PcItem("create"),
		),
		readline.PcItem("\\dt"),
		readline.PcItem("\\di"),
		readline.PcItem("\\d"),
		readline.PcItem("\\dtypes"),
		readline.PcItem("\\df"),
		readline.PcItem("\\dump"),
		readline.PcItem("\\status"),
		readline.PcItem("\\config"),
		readline.PcItem("\\clear"),
		readline.PcItem("\\help"),
		readline.PcItem("\\q"),
	)
}
