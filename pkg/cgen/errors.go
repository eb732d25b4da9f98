package cgen

import "errors"

// The four terminal failure classes of the translator. Callers match them
// with errors.Is; every error returned from Translate wraps exactly one,
// except a failure to read the input file, which is returned as the plain
// I/O error.
var (
	// ErrInput marks an IR file that could not be parsed.
	ErrInput = errors.New("invalid input")
	// ErrUnsupported marks an IR construct outside the supported set,
	// such as vector operations, invoke/landingpad or an uncovered
	// intrinsic.
	ErrUnsupported = errors.New("unsupported construct")
	// ErrMalformedIR marks an invariant violation in the input module.
	ErrMalformedIR = errors.New("malformed IR")
	// ErrInternal marks a translator bug, such as a memoization miss
	// where a hit was required.
	ErrInternal = errors.New("internal invariant violation")
)
