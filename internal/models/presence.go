package models

// PresenceEntry maps a session identity to its last-seen timestamp in
// seconds since epoch. Entries live in a single sorted collection keyed by
// timestamp score; re-heartbeat overwrites the score.
type PresenceEntry struct {
	SessionID string `json:"sessionId"`
	LastSeen  int64  `json:"lastSeen"`
}
