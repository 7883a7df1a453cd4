package domain

import "time"

// System alert texts, kept identical for broadcast and archive.
const (
	AlertEntered = "has entered the room"
	AlertLeft    = "has left the room"
)

// Event is what room members see: a chat message or a system alert.
type Event struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// LogEntry is the persisted form of an Event, keyed by the room's ChatID.
// Entries are append-only; deleting a log only removes the access grant.
type LogEntry struct {
	ChatID  ChatID
	Name    string
	Message string
	Time    time.Time
}
