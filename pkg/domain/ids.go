// Package domain holds typed identifiers shared across services.
//
// IDs are distinct named UUID types so the compiler rejects cross-type
// assignment (a DeletionID can never be passed where a UserID is expected).
// Parse functions enforce the invariant that IDs are valid, non-nil UUIDs at
// trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "minty/pkg/domain-errors"
)

type (
	// UserID identifies a registered user.
	UserID uuid.UUID
	// SessionID identifies an authenticated session.
	SessionID uuid.UUID
	// DeletionID identifies one account-erasure run.
	DeletionID uuid.UUID
	// ItemID identifies a single item inside a finance domain.
	ItemID uuid.UUID
)

func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id SessionID) String() string  { return uuid.UUID(id).String() }
func (id DeletionID) String() string { return uuid.UUID(id).String() }
func (id ItemID) String() string     { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id DeletionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ItemID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

// Named types do not inherit the underlying uuid.UUID's text marshaling, so
// each ID wires it explicitly; without this, JSON renders IDs as byte arrays.

func (id UserID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id SessionID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id DeletionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id ItemID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(text []byte) error     { return (*uuid.UUID)(id).UnmarshalText(text) }
func (id *SessionID) UnmarshalText(text []byte) error  { return (*uuid.UUID)(id).UnmarshalText(text) }
func (id *DeletionID) UnmarshalText(text []byte) error { return (*uuid.UUID)(id).UnmarshalText(text) }
func (id *ItemID) UnmarshalText(text []byte) error     { return (*uuid.UUID)(id).UnmarshalText(text) }

// NewDeletionID generates a fresh deletion identifier.
func NewDeletionID() DeletionID { return DeletionID(uuid.New()) }

// NewItemID generates a fresh item identifier.
func NewItemID() ItemID { return ItemID(uuid.New()) }

func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "ID must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "ID must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "ID must not be the nil UUID")
	}
	return parsed, nil
}

// ParseUserID parses and validates a user ID string.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return UserID{}, err
	}
	return UserID(parsed), nil
}

// ParseSessionID parses and validates a session ID string.
func ParseSessionID(raw string) (SessionID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return SessionID{}, err
	}
	return SessionID(parsed), nil
}

// ParseDeletionID parses and validates a deletion ID string.
func ParseDeletionID(raw string) (DeletionID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return DeletionID{}, err
	}
	return DeletionID(parsed), nil
}

// ParseItemID parses and validates an item ID string.
func ParseItemID(raw string) (ItemID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return ItemID{}, err
	}
	return ItemID(parsed), nil
}
