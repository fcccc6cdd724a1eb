package shellq

import "context"

// ConfigStore is the durable string-keyed runtime configuration table
// described by spec.md §3. Recognized keys and their defaults are
// interpreted by config.Typed, not by the store itself — the store only
// ever sees strings.
type ConfigStore interface {

	// Get returns the raw string value for key, and whether it was set.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, overwriting any existing value.
	Set(ctx context.Context, key, value string) error
}
