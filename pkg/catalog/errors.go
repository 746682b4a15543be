package catalog

import "errors"

// ErrInvalidArgument is returned for malformed call-site arguments,
// such as mismatched predicate vector lengths.
var ErrInvalidArgument = errors.New("catalog: invalid argument")

// ErrAlreadyExists is returned by AddTable/AddIndex when the requested
// name is already taken (case-insensitively).
var ErrAlreadyExists = errors.New("catalog: name already exists")

// ErrCatalogIntegrity is returned when a catalog invariant is violated:
// a non-unique OID in a unique systable, a dangling reference to a
// table or column that no longer exists, or a multi-row lookup that
// found the wrong number of rows. This condition is fatal in the
// reference engine; this port surfaces it as an ordinary error instead
// of aborting the process.
var ErrCatalogIntegrity = errors.New("catalog: catalog integrity violation")

// ErrMissingOperator is returned by AddIndex when a column's type has
// no default comparison operator and none was supplied explicitly.
var ErrMissingOperator = errors.New("catalog: no default operator for column type")

// ErrOidExhausted is returned by AllocateOID once the 32-bit object id
// space wraps around.
var ErrOidExhausted = errors.New("catalog: object id space exhausted")

// ErrNotInitialized is returned by AddTable and AddIndex when called on
// a CatCache before FromInit or FromExisting has completed.
var ErrNotInitialized = errors.New("catalog: catalog cache not initialized")
