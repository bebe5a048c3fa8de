package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/studybuddy/internal/domain"
)

// Drivers accepted by Open.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Store bundles the typed tables over one backend.
type Store struct {
	backend Backend

	Users     *Table[domain.User, *domain.User]
	Decks     *Table[domain.Deck, *domain.Deck]
	Cards     *Table[domain.Card, *domain.Card]
	SrsStates *Table[domain.SrsState, *domain.SrsState]
	Reviews   *Table[domain.Review, *domain.Review]
}

// New builds a Store over b. now stamps record timestamps; nil means time.Now.
func New(b Backend, now func() time.Time) *Store {
	return &Store{
		backend:   b,
		Users:     NewTable[domain.User](b, Users, now),
		Decks:     NewTable[domain.Deck](b, Decks, now),
		Cards:     NewTable[domain.Card](b, Cards, now),
		SrsStates: NewTable[domain.SrsState](b, SrsState, now),
		Reviews:   NewTable[domain.Review](b, Reviews, now),
	}
}

// Open selects a backend by driver name and returns a Store over it.
func Open(driver, dataDir, sqlitePath string, now func() time.Time) (*Store, error) {
	var (
		b   Backend
		err error
	)
	switch driver {
	case DriverJSON, "":
		b, err = OpenFileBackend(dataDir)
	case DriverSQLite:
		b, err = OpenSQLiteBackend(sqlitePath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	return New(b, now), nil
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
