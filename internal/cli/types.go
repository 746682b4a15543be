package cli

import (
	"strings"

	"github.com/corvidb/corvid/pkg/catalog/oids"
	"github.com/corvidb/corvid/pkg/ids"
)

// typeOIDByName resolves a built-in type's name, as a shell user would
// type it, to its catalog OID. Matching is case-insensitive since the
// shell otherwise treats commands case-insensitively too.
func typeOIDByName(name string) (ids.OID, bool) {
	switch strings.ToUpper(name) {
	case "INT2":
		return oids.TypInt2, true
	case "INT4":
		return oids.TypInt4, true
	case "INT8":
		return oids.TypInt8, true
	case "BOOL":
		return oids.TypBool, true
	case "FLOAT4":
		return oids.TypFloat4, true
	case "FLOAT8":
		return oids.TypFloat8, true
	case "VARCHAR":
		return oids.TypVarchar, true
	case "CHAR":
		return oids.TypChar, true
	default:
		return ids.InvalidOID, false
	}
}
