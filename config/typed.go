// Package config provides a typed accessor over shellq's string-keyed
// ConfigStore. Values stay strings in the store and are parsed as
// unsigned integers at read time; a value that does not parse is an
// error. Parsed values are not range-checked (for example, a
// backoff_base of 0 or a lock_lease_seconds of 0 is accepted).
package config

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shellq/shellq"
)

// Recognized Config keys, per spec.md §3.
const (
	KeyMaxRetries        = "max_retries"
	KeyBackoffBase       = "backoff_base"
	KeyMaxBackoffSeconds = "max_backoff_seconds"
	KeyLockLeaseSeconds  = "lock_lease_seconds"
	KeyJobTimeoutSeconds = "job_timeout_seconds"
	KeyPurgeAfterSeconds = "purge_after_seconds"
)

// Defaults, per spec.md §3 (KeyPurgeAfterSeconds is a supplemental key,
// see SPEC_FULL.md §4.1; 0 disables purging).
const (
	DefaultMaxRetries        uint32 = 3
	DefaultBackoffBase       uint64 = 2
	DefaultMaxBackoffSeconds uint64 = 300
	DefaultLockLeaseSeconds  uint64 = 300
	DefaultJobTimeoutSeconds uint64 = 3600
	DefaultPurgeAfterSeconds uint64 = 0
)

// Typed wraps a shellq.ConfigStore and exposes its recognized keys with
// the correct Go type, falling back to defaults for missing keys.
type Typed struct {
	store shellq.ConfigStore
}

// New wraps store in a Typed accessor.
func New(store shellq.ConfigStore) *Typed {
	return &Typed{store: store}
}

func (t *Typed) getUint(ctx context.Context, key string, def uint64) (uint64, error) {
	raw, ok, err := t.store.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config key %q: %w", key, err)
	}
	return v, nil
}

// MaxRetries returns KeyMaxRetries, defaulting to DefaultMaxRetries.
func (t *Typed) MaxRetries(ctx context.Context) (uint32, error) {
	v, err := t.getUint(ctx, KeyMaxRetries, uint64(DefaultMaxRetries))
	return uint32(v), err
}

// BackoffBase returns KeyBackoffBase, defaulting to DefaultBackoffBase.
func (t *Typed) BackoffBase(ctx context.Context) (uint64, error) {
	return t.getUint(ctx, KeyBackoffBase, DefaultBackoffBase)
}

// MaxBackoffSeconds returns KeyMaxBackoffSeconds, defaulting to
// DefaultMaxBackoffSeconds.
func (t *Typed) MaxBackoffSeconds(ctx context.Context) (uint64, error) {
	return t.getUint(ctx, KeyMaxBackoffSeconds, DefaultMaxBackoffSeconds)
}

// LockLeaseSeconds returns KeyLockLeaseSeconds, defaulting to
// DefaultLockLeaseSeconds.
func (t *Typed) LockLeaseSeconds(ctx context.Context) (uint64, error) {
	return t.getUint(ctx, KeyLockLeaseSeconds, DefaultLockLeaseSeconds)
}

// JobTimeoutSeconds returns KeyJobTimeoutSeconds, defaulting to
// DefaultJobTimeoutSeconds.
func (t *Typed) JobTimeoutSeconds(ctx context.Context) (uint64, error) {
	return t.getUint(ctx, KeyJobTimeoutSeconds, DefaultJobTimeoutSeconds)
}

// PurgeAfterSeconds returns KeyPurgeAfterSeconds, defaulting to
// DefaultPurgeAfterSeconds (0, meaning purging is disabled).
func (t *Typed) PurgeAfterSeconds(ctx context.Context) (uint64, error) {
	return t.getUint(ctx, KeyPurgeAfterSeconds, DefaultPurgeAfterSeconds)
}

// Recognized reports whether key is one of the keys this accessor knows
// how to parse. Used by the `config set` CLI command to reject typos
// with ErrUnknownConfigKey instead of silently storing a useless key.
func Recognized(key string) bool {
	switch key {
	case KeyMaxRetries, KeyBackoffBase, KeyMaxBackoffSeconds,
		KeyLockLeaseSeconds, KeyJobTimeoutSeconds, KeyPurgeAfterSeconds:
		return true
	default:
		return false
	}
}
