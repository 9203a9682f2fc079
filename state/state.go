package state

import (
	"context"
	"errors"
)

/* Store is the process-wide keyed storage shared by the token cache and the
 * subscription lifecycle. Values are plain strings and every write is a blind
 * overwrite: concurrent writers race harmlessly, the last one wins.
 */

// ErrNotFound is returned by Get when the key has never been written or was deleted
var ErrNotFound = errors.New("state: key not found")

// Keys written by this service
const (
	KeyAccessToken        = "ms_graph_access_token"
	KeyTokenExpiry        = "ms_graph_token_expiry"
	KeySubscriptionID     = "subscription_id"
	KeySubscriptionExpiry = "subscription_expiry"
)

// Reader provides read access to stored values
type Reader interface {
	Get(ctx context.Context, key string) (string, error)
}

// Writer provides write access to stored values
type Writer interface {
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type Store interface {
	Reader
	Writer
}
