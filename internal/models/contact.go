package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ContactNote is one entry in a contact's note history. Notes are stored
// as a JSONB column; the shape is validated on read rather than trusted.
type ContactNote struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Author string `json:"author"`
}

// ContactNotes implements sql.Scanner / driver.Valuer for the JSONB column.
type ContactNotes []ContactNote

// Scan decodes the stored JSON and rejects entries missing required fields.
func (n *ContactNotes) Scan(src interface{}) error {
	if src == nil {
		*n = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported contact notes type %T", src)
	}
	if len(raw) == 0 {
		*n = nil
		return nil
	}
	var decoded []ContactNote
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("decode contact notes: %w", err)
	}
	for i, note := range decoded {
		if note.ID == "" || note.Text == "" || note.Author == "" {
			return fmt.Errorf("contact note %d missing required fields", i)
		}
	}
	*n = decoded
	return nil
}

// Value encodes notes as JSON for storage.
func (n ContactNotes) Value() (driver.Value, error) {
	if n == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(n)
}

// Contact represents an inbound contact form message.
type Contact struct {
	ID        int64        `db:"id" json:"id"`
	FullName  string       `db:"full_name" json:"full_name"`
	Email     string       `db:"email" json:"email"`
	Phone     string       `db:"phone" json:"phone"`
	Subject   string       `db:"subject" json:"subject"`
	Message   string       `db:"message" json:"message"`
	Handled   bool         `db:"handled" json:"handled"`
	Notes     ContactNotes `db:"notes" json:"notes"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// ContactFilter captures list filters for contact messages.
type ContactFilter struct {
	Handled  *bool
	Search   string
	Page     int
	PageSize int
}
