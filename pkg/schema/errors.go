package schema

import "errors"

var (
	// ErrInvalidArgument is returned for malformed field-declaration
	// vectors or a data vector whose length does not match the schema's
	// field count.
	ErrInvalidArgument = errors.New("schema: invalid argument")

	// ErrRecordTooLarge is returned when a layout computation or a
	// write would overflow the signed 31-bit offset space.
	ErrRecordTooLarge = errors.New("schema: record too large")

	// ErrNullConstraint is returned when WritePayload is given a null
	// datum for a non-nullable field.
	ErrNullConstraint = errors.New("schema: null value for non-nullable field")

	// ErrNotLayoutComputed is returned by any read or write operation
	// invoked before ComputeLayout has succeeded.
	ErrNotLayoutComputed = errors.New("schema: layout not computed")
)
