package backup

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/studybuddy/internal/domain"
)

type fixture struct {
	data    string
	backups string
	now     time.Time
	m       *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		data:    filepath.Join(root, "data"),
		backups: filepath.Join(root, "backups"),
		now:     time.Date(2024, 3, 10, 14, 5, 9, 0, time.Local),
	}
	f.m = New(f.data, f.backups,
		WithClock(func() time.Time { return f.now }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return f
}

func (f *fixture) writeData(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(f.data, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.data, name), []byte(content), 0o644))
}

func (f *fixture) readData(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(f.data, name))
	require.NoError(t, err)
	return string(b)
}

func TestCreateWithoutData(t *testing.T) {
	f := newFixture(t)
	_, err := f.m.Create()
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCreateAndList(t *testing.T) {
	f := newFixture(t)
	f.writeData(t, "cards.json", "[]")
	f.writeData(t, "decks.json", "[{}]")

	first, err := f.m.Create()
	require.NoError(t, err)
	assert.Equal(t, "backup_20240310_140509", first.Name)
	assert.Equal(t, int64(6), first.Size)
	assert.True(t, first.Created.Equal(f.now))

	_, err = f.m.Create()
	assert.True(t, errors.Is(err, domain.ErrConflict), "same second")

	f.now = f.now.Add(time.Minute)
	second, err := f.m.Create()
	require.NoError(t, err)

	list, err := f.m.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.Name, list[0].Name, "newest first")
	assert.Equal(t, first.Name, list[1].Name)
}

func TestListWithoutBackupDir(t *testing.T) {
	f := newFixture(t)
	list, err := f.m.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRestore(t *testing.T) {
	f := newFixture(t)
	f.writeData(t, "cards.json", "original")
	b, err := f.m.Create()
	require.NoError(t, err)

	f.writeData(t, "cards.json", "changed")
	f.writeData(t, "extra.json", "new file")
	f.now = f.now.Add(time.Hour)

	saved, err := f.m.Restore(b.Name)
	require.NoError(t, err)
	assert.Equal(t, "pre_restore_20240310_150509", saved)

	assert.Equal(t, "original", f.readData(t, "cards.json"))
	assert.NoFileExists(t, filepath.Join(f.data, "extra.json"))

	pre, err := os.ReadFile(filepath.Join(f.backups, saved, "cards.json"))
	require.NoError(t, err)
	assert.Equal(t, "changed", string(pre))

	list, err := f.m.List()
	require.NoError(t, err)
	assert.Len(t, list, 1, "pre-restore snapshots are not listed")

	assert.NoDirExists(t, f.data+".old")
	assert.NoDirExists(t, f.data+".restoring")
}

func TestRestoreTrailingSlashDataDir(t *testing.T) {
	f := newFixture(t)
	f.m = New(f.data+string(filepath.Separator), f.backups+string(filepath.Separator),
		WithClock(func() time.Time { return f.now }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	f.writeData(t, "cards.json", "[1]")
	b, err := f.m.Create()
	require.NoError(t, err)

	f.writeData(t, "cards.json", "[2]")
	f.now = f.now.Add(time.Hour)
	_, err = f.m.Restore(b.Name)
	require.NoError(t, err)

	assert.Equal(t, "[1]", f.readData(t, "cards.json"))
	assert.NoDirExists(t, filepath.Join(f.data, ".old"))
	assert.NoDirExists(t, f.data+".old")
}

func TestRestoreWithoutCurrentData(t *testing.T) {
	f := newFixture(t)
	f.writeData(t, "users.json", "[]")
	b, err := f.m.Create()
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(f.data))

	saved, err := f.m.Restore(b.Name)
	require.NoError(t, err)
	assert.Empty(t, saved)
	assert.Equal(t, "[]", f.readData(t, "users.json"))
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	f.writeData(t, "users.json", "[]")
	b, err := f.m.Create()
	require.NoError(t, err)

	require.NoError(t, f.m.Delete(b.Name))
	assert.NoDirExists(t, b.Path)
	assert.True(t, errors.Is(f.m.Delete(b.Name), domain.ErrNotFound))
}

func TestValidateName(t *testing.T) {
	testCases := []struct {
		name  string
		valid bool
	}{
		{"backup_20240310_140509", true},
		{"pre_restore_20240310_140509", true},
		{"", false},
		{"..", false},
		{"backup_../../etc", false},
		{`backup_a\b`, false},
		{"data", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateName(tc.name)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, domain.ErrValidation))
			}
		})
	}
}

func TestSizeMB(t *testing.T) {
	assert.Equal(t, 1.5, Info{Size: 1572864}.SizeMB())
	assert.Equal(t, 0.0, Info{Size: 10}.SizeMB())
}
