package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/studybuddy/internal/domain"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// backends returns a fresh instance of every backend for table-driven tests.
func backends(t *testing.T) map[string]Backend {
	t.Helper()
	dir := t.TempDir()

	fb, err := OpenFileBackend(filepath.Join(dir, "data"))
	require.NoError(t, err)

	sb, err := OpenSQLiteBackend(filepath.Join(dir, "db", "studybuddy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sb.Close() })

	return map[string]Backend{"json": fb, "sqlite": sb}
}

func TestTableCRUD(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(b, clock)

			decks, err := s.Decks.Load()
			require.NoError(t, err)
			assert.Empty(t, decks, "a collection that was never written is empty")

			first, err := s.Decks.Insert(domain.Deck{UserID: 1, Name: "Go"})
			require.NoError(t, err)
			assert.Equal(t, int64(1), first.ID)
			assert.Equal(t, fixedNow, first.CreatedAt)

			second, err := s.Decks.Insert(domain.Deck{UserID: 1, Name: "Rust"})
			require.NoError(t, err)
			assert.Equal(t, int64(2), second.ID)

			updated, err := s.Decks.Update(first.ID, func(d *domain.Deck) {
				d.Description = "concurrency"
				d.ID = 99
			})
			require.NoError(t, err)
			assert.Equal(t, int64(1), updated.ID, "mutate cannot change the id")
			assert.Equal(t, "concurrency", updated.Description)
			require.NotNil(t, updated.UpdatedAt)

			found, ok, err := s.Decks.FindByID(1)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "concurrency", found.Description)

			byName, ok, err := s.Decks.Find(func(d domain.Deck) bool { return d.Name == "Rust" })
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, int64(2), byName.ID)

			all, err := s.Decks.FindAll(func(d domain.Deck) bool { return d.UserID == 1 })
			require.NoError(t, err)
			assert.Len(t, all, 2)

			deleted, err := s.Decks.Delete(1)
			require.NoError(t, err)
			assert.True(t, deleted)

			deleted, err = s.Decks.Delete(1)
			require.NoError(t, err)
			assert.False(t, deleted)

			_, err = s.Decks.Update(1, func(*domain.Deck) {})
			assert.True(t, IsNotFound(err))
		})
	}
}

func TestInsertIDIsMaxPlusOne(t *testing.T) {
	s := New(backends(t)["json"], clock)

	_, err := s.Cards.Insert(domain.Card{DeckID: 1, Front: "a", Back: "b"})
	require.NoError(t, err)
	_, err = s.Cards.Insert(domain.Card{DeckID: 1, Front: "c", Back: "d"})
	require.NoError(t, err)
	_, err = s.Cards.Delete(1)
	require.NoError(t, err)

	third, err := s.Cards.Insert(domain.Card{DeckID: 1, Front: "e", Back: "f"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), third.ID)

	_, err = s.Cards.Delete(2)
	require.NoError(t, err)
	_, err = s.Cards.Delete(3)
	require.NoError(t, err)

	fresh, err := s.Cards.Insert(domain.Card{DeckID: 1, Front: "g", Back: "h"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), fresh.ID, "an empty collection restarts at 1")
}

func TestInsertExplicitID(t *testing.T) {
	s := New(backends(t)["json"], clock)

	kept, err := s.Decks.Insert(domain.Deck{Meta: domain.Meta{ID: 7}, UserID: 1, Name: "Go"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), kept.ID)

	_, err = s.Decks.Insert(domain.Deck{Meta: domain.Meta{ID: 7}, UserID: 1, Name: "Rust"})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	next, err := s.Decks.Insert(domain.Deck{UserID: 1, Name: "Zig"})
	require.NoError(t, err)
	assert.Equal(t, int64(8), next.ID)

	decks, err := s.Decks.Load()
	require.NoError(t, err)
	assert.Len(t, decks, 2)
}

func TestDeleteWhere(t *testing.T) {
	s := New(backends(t)["json"], clock)
	for _, cardID := range []int64{1, 1, 2, 3, 1} {
		_, err := s.Reviews.Insert(domain.Review{UserID: 1, CardID: cardID, Quality: 4})
		require.NoError(t, err)
	}

	n, err := s.Reviews.DeleteWhere(func(r domain.Review) bool { return r.CardID == 1 })
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = s.Reviews.DeleteWhere(func(r domain.Review) bool { return r.CardID == 42 })
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	remaining, err := s.Reviews.Load()
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(b, clock)
			q := 4
			reviewed := fixedNow.Add(-time.Hour)
			_, err := s.SrsStates.Insert(domain.SrsState{
				UserID: 1, CardID: 7, Repetition: 2, IntervalDays: 6, EF: 2.36,
				DueDate: "2024-05-07", LastQuality: &q, LastReviewed: &reviewed,
			})
			require.NoError(t, err)
			_, err = s.SrsStates.Insert(domain.NewSrsState(1, 8, "2024-05-01"))
			require.NoError(t, err)

			before, err := b.Read(SrsState)
			require.NoError(t, err)

			loaded, err := s.SrsStates.Load()
			require.NoError(t, err)
			require.NoError(t, s.SrsStates.Save(loaded))

			after, err := b.Read(SrsState)
			require.NoError(t, err)
			assert.Equal(t, string(before), string(after))

			reloaded, err := s.SrsStates.Load()
			require.NoError(t, err)
			assert.Equal(t, loaded, reloaded)
			assert.Nil(t, reloaded[1].LastQuality)
		})
	}
}

func TestFileBackendFieldNames(t *testing.T) {
	fb := backends(t)["json"].(*FileBackend)
	s := New(fb, clock)
	_, err := s.SrsStates.Insert(domain.NewSrsState(3, 9, "2024-05-01"))
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(fb.Dir(), "srs_state.json"))
	require.NoError(t, err)
	for _, field := range []string{`"id"`, `"user_id"`, `"card_id"`, `"repetition"`, `"interval_days"`, `"ef"`, `"due_date"`, `"last_quality": null`, `"created_at"`} {
		assert.Contains(t, string(raw), field)
	}
}

func TestFileBackendLeavesNoTempFiles(t *testing.T) {
	fb := backends(t)["json"].(*FileBackend)
	s := New(fb, clock)
	for i := 0; i < 3; i++ {
		_, err := s.Users.Insert(domain.User{Email: "a@b.co"})
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(fb.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
}

func TestFileBackendWriteFailure(t *testing.T) {
	fb := backends(t)["json"].(*FileBackend)
	s := New(fb, clock)
	_, err := s.Decks.Insert(domain.Deck{UserID: 1, Name: "kept"})
	require.NoError(t, err)

	// A directory squatting on the target name makes the rename fail.
	target := filepath.Join(fb.Dir(), "cards.json")
	require.NoError(t, os.Mkdir(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "x"), []byte("x"), 0o644))

	err = fb.Write(Cards, []byte("[]"))
	require.Error(t, err)

	entries, err := os.ReadDir(fb.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file %s not cleaned up", e.Name())
	}

	decks, err := s.Decks.Load()
	require.NoError(t, err)
	assert.Len(t, decks, 1)
}

func TestCorruptDocumentIsStorageError(t *testing.T) {
	fb := backends(t)["json"].(*FileBackend)
	require.NoError(t, os.WriteFile(filepath.Join(fb.Dir(), "decks.json"), []byte("{not json"), 0o644))

	_, err := New(fb, clock).Decks.Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStorage))
}

func TestUnknownCollectionPanics(t *testing.T) {
	assert.Panics(t, func() { Collection("sessions").FileName() })
	assert.Panics(t, func() { NewTable[domain.Deck](backends(t)["json"], "decks_v2", clock) })
}

func TestOpenDriver(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(DriverSQLite, dir, filepath.Join(dir, "sb.db"), clock)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open("postgres", dir, "", clock)
	assert.Error(t, err)
}
