// Package pagination holds the keyset cursor and offset page helpers shared by
// repositories and handlers.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Cursor is the opaque keyset position (created_at, id) of the last row of a page.
// CreatedMicros is microseconds since the epoch, which matches PostgreSQL's
// timestamp precision so the boundary row compares equal.
type Cursor struct {
	CreatedMicros int64 `json:"t"`
	ID            uint  `json:"id"`
}

// IsZero reports whether the cursor points at the first page.
func (c Cursor) IsZero() bool {
	return c.CreatedMicros == 0 && c.ID == 0
}

// CreatedAt returns the cursor timestamp in UTC.
func (c Cursor) CreatedAt() time.Time {
	return time.UnixMicro(c.CreatedMicros).UTC()
}

// After builds the cursor for a row.
func After(createdAt time.Time, id uint) Cursor {
	return Cursor{CreatedMicros: createdAt.UnixMicro(), ID: id}
}

// Encode converts a Cursor into a Base64 string.
func Encode(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Decode parses a Base64 string into a Cursor.
// Empty token → empty cursor (first page).
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}

	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token")
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token")
	}
	if c.CreatedMicros <= 0 || c.ID == 0 {
		return Cursor{}, fmt.Errorf("invalid pagination token")
	}
	return c, nil
}
