package datum

import "errors"

// ErrInvalidArgument is returned when a constructor is given a payload
// that does not fit the shape it requires (wrong fixed length, an
// over-long C string).
var ErrInvalidArgument = errors.New("datum: invalid argument")
