package domain

import "time"

// Meta holds the fields every stored record carries. The store assigns
// ID on insert and stamps the timestamps.
type Meta struct {
	ID        int64      `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// RecordID returns the record's id.
func (m *Meta) RecordID() int64 { return m.ID }

// SetRecordID assigns the record's id.
func (m *Meta) SetRecordID(id int64) { m.ID = id }

// StampCreated sets CreatedAt unless it is already set.
func (m *Meta) StampCreated(t time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = t
	}
}

// StampUpdated sets UpdatedAt.
func (m *Meta) StampUpdated(t time.Time) {
	m.UpdatedAt = &t
}

// Deck is a named group of cards owned by a single user.
type Deck struct {
	Meta
	UserID      int64  `json:"user_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Card represents a single front/back flashcard. It belongs to exactly one deck.
type Card struct {
	Meta
	DeckID int64  `json:"deck_id"`
	Front  string `json:"front"`
	Back   string `json:"back"`
}

// CardInput is the content of a card that has not been stored yet.
type CardInput struct {
	Front string
	Back  string
}
