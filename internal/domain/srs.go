package domain

import "time"

// Defaults for a card that has never been reviewed.
const (
	DefaultEasinessFactor = 2.5
	MinEasinessFactor     = 1.3
	DefaultInterval       = 1
)

// SrsState is the scheduling state of one card for one user.
// There is at most one SrsState per (UserID, CardID).
type SrsState struct {
	Meta
	UserID       int64      `json:"user_id"`
	CardID       int64      `json:"card_id"`
	Repetition   int        `json:"repetition"`
	IntervalDays int        `json:"interval_days"`
	EF           float64    `json:"ef"`
	DueDate      Date       `json:"due_date"`
	LastQuality  *int       `json:"last_quality"`
	LastReviewed *time.Time `json:"last_reviewed,omitempty"`
}

// NewSrsState returns the initial state of a card, due on today.
func NewSrsState(userID, cardID int64, today Date) SrsState {
	return SrsState{
		UserID:       userID,
		CardID:       cardID,
		Repetition:   0,
		IntervalDays: DefaultInterval,
		EF:           DefaultEasinessFactor,
		DueDate:      today,
	}
}

// IsDue reports whether the state is due on or before today.
func (s SrsState) IsDue(today Date) bool {
	return s.DueDate.OnOrBefore(today)
}

// Review is an append-only record of a single review event.
// Quality is the SM-2 score from 0 (blackout) to 5 (perfect).
type Review struct {
	Meta
	UserID     int64     `json:"user_id"`
	CardID     int64     `json:"card_id"`
	Quality    int       `json:"quality"`
	ReviewedAt time.Time `json:"reviewed_at"`
}
