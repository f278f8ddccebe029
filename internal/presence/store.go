// Package presence answers "how many distinct sessions are currently
// alive?" using a sliding time window over session heartbeats.
package presence

import (
	"context"
	"time"
)

// Store is the sliding-window backing store. Any ordered structure that
// supports upsert-by-key with a numeric score, delete-by-score-range, and
// count-by-score-range can implement it. Each operation is atomic on its
// own; linearizability across the three is not required.
type Store interface {
	// Touch records or refreshes the session's last-seen timestamp.
	Touch(ctx context.Context, sessionID string, now time.Time) error
	// Prune removes entries last seen at or before the cutoff and returns
	// the number removed.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
	// Count returns the number of entries last seen at or after the given
	// time.
	Count(ctx context.Context, since time.Time) (int64, error)
}
