package domain

type (
	// RoomCode is the short uppercase identifier clients share to meet in a room.
	RoomCode string
	// ChatID keys a room's archived log entries in the log store.
	ChatID string
)
