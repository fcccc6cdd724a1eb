package shellq

import "errors"

var (
	// ErrDuplicateID is returned by Enqueue when a job with the given ID
	// already exists. The existing job is left untouched.
	ErrDuplicateID = errors.New("duplicate job id")

	// ErrNotFound names the "no job with this id" error class. The store
	// package does not return it: Observer.Get reports a missing job as
	// (nil, nil) and DeadLetters.Retry reports it as ErrJobLost.
	ErrNotFound = errors.New("job not found")

	// ErrStoreUnavailable names the store I/O error class (e.g. the
	// database file could not be reached or written). The store package
	// does not wrap its driver errors in it; callers receive the
	// underlying error directly.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrUnknownConfigKey is returned by the `config set`/`config get`
	// CLI surface when the caller names a key that config.Recognized
	// does not know about.
	ErrUnknownConfigKey = errors.New("unknown config key")
)
