// Package seen tracks which message identifiers have already produced an alert.
package seen

import "context"

// Store is a set of identifiers that survives across poll cycles
type Store interface {
	Contains(ctx context.Context, id string) (bool, error)
	Add(ctx context.Context, ids ...string) error
}
