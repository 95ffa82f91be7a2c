package sim

import "errors"

var (
	// ErrInvalidSeed indicates the battle script carried a seed that is not
	// an integer.
	ErrInvalidSeed = errors.New("sim: invalid seed")
	// ErrInvalidBodyConfig indicates an orb or pickup body with a
	// non-positive radius, mass, or hit-point total.
	ErrInvalidBodyConfig = errors.New("sim: invalid body config")
	// ErrMalformedEvent indicates a timeline entry with an unknown kind or a
	// missing required field.
	ErrMalformedEvent = errors.New("sim: malformed timeline event")
	// ErrOutOfOrderQuery indicates the timeline was queried with a tick
	// smaller than a previous query. The cursor never rewinds.
	ErrOutOfOrderQuery = errors.New("sim: out-of-order timeline query")
)
