package ref

import "time"

// Options carries per-call configuration threaded transparently from a
// Reference operation down to the backend and codec it dispatches to.
// It mirrors backend.Opts (the two are kept as separate types so the
// backend package has no dependency on this one) plus the CAS-specific
// back-off hook.
type Options struct {
	// ReadOpts, WriteOpts, DeleteOpts are adapter-defined, consulted only
	// by the matching operation.
	ReadOpts, WriteOpts, DeleteOpts any
	// SharedOpts is consulted by every operation a backend or codec
	// implements. Adapters document their own expected concrete type.
	SharedOpts any
	// Credentials is adapter-defined (e.g. a token, a signer, nil to use
	// ambient credentials).
	Credentials any
	// Consistent requests a strongly-consistent read where the backend
	// has a choice.
	Consistent bool
	// CASBackoff governs the generic CAS loop's retry pacing. retry is
	// the zero-based attempt index of the precondition failure that just
	// occurred. Returning ok=false aborts the loop with ErrCasAborted.
	// Nil means retry immediately, unbounded, matching §4.4's default.
	CASBackoff func(retry int) (time.Duration, bool)
}

// Option configures a construction-time setting on a Value reference
// created by Persist, following the same functional-options shape used
// throughout this module's configuration surface. Volatile and Atomic
// references take no Options.
type Option func(*settings) error

type settings struct {
	verify *bool
}

// WithVerification overrides the process-wide hash-verification toggle
// (§4.6) for one reference. The default, when no option is given, is
// VerificationEnabled().
func WithVerification(enabled bool) Option {
	return func(s *settings) error {
		s.verify = &enabled
		return nil
	}
}

func applyOptions(opts []Option) (settings, error) {
	var s settings
	for _, opt := range opts {
		if err := opt(&s); err != nil {
			return settings{}, err
		}
	}
	return s, nil
}

func (s settings) verifyEnabled() bool {
	if s.verify != nil {
		return *s.verify
	}
	return VerificationEnabled()
}
