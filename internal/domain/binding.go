// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const MaxNameLen = 36

var (
	ErrNameEmpty   = errors.New("name empty")
	ErrNameTooLong = errors.New("name too long")
)

// Binding ties one client session to a display name and a room.
// It is built from the session cookie on entry and carried explicitly
// through the realtime handlers; it is never persisted.
type Binding struct {
	Name string
	Room RoomCode
	// Username is set only when the session belongs to a registered user.
	Username string
}

func (b Binding) Authenticated() bool { return b.Username != "" }

// Complete reports whether the binding is usable for the realtime phase.
func (b Binding) Complete() bool { return b.Name != "" && b.Room != "" }

// ValidateName mirrors the entry-form rule so adapters don't re-invent it.
func ValidateName(name string) error {
	if len(name) == 0 {
		return ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return ErrNameTooLong
	}
	return nil
}
