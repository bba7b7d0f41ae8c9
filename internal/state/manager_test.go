package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SoarinFerret/ReadRemind/internal/presence"
)

func tempStateFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "bookstate.json")
}

func TestFileStore_LoadMissingFileIsFresh(t *testing.T) {
	fs := NewFileStore(tempStateFile(t))

	s, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, presence.Fresh(), s)
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	path := tempStateFile(t)
	fs := NewFileStore(path)
	want := presence.State{
		Present:        true,
		LastTransition: time.Date(2024, 6, 3, 8, 15, 2, 123456789, time.Local),
		LastNag:        time.Date(2024, 6, 3, 9, 15, 3, 500000000, time.Local),
	}

	require.NoError(t, fs.Save(context.Background(), want))

	got, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want.Present, got.Present)
	assert.True(t, want.LastTransition.Equal(got.LastTransition))
	assert.True(t, want.LastNag.Equal(got.LastNag))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, errors.Is(err, os.ErrNotExist), "temp file should be renamed away")
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	fs := NewFileStore(tempStateFile(t))
	ctx := context.Background()

	require.NoError(t, fs.Save(ctx, presence.State{Present: true}))
	require.NoError(t, fs.Save(ctx, presence.State{Present: false}))

	got, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.False(t, got.Present)
}

func TestFileStore_SaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "bookstate.json")
	fs := NewFileStore(path)

	require.NoError(t, fs.Save(context.Background(), presence.Fresh()))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestFileStore_LoadMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"truncated", `{"is_book_present": true, "last_state_`},
		{"missing field", `{"is_book_present": true, "last_state_change": "2024-06-03T08:00:00"}`},
		{"bad timestamp", `{"is_book_present": true, "last_state_change": "yesterday", "last_nag_notif": "2024-06-03T08:00:00"}`},
		{"wrong type", `{"is_book_present": "yes", "last_state_change": "2024-06-03T08:00:00", "last_nag_notif": "2024-06-03T08:00:00"}`},
		{"empty file", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tempStateFile(t)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := NewFileStore(path).Load(context.Background())
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestFileStore_SaveFailsOnUnwritableLocation(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	fs := NewFileStore(filepath.Join(blocker, "bookstate.json"))
	assert.Error(t, fs.Save(context.Background(), presence.Fresh()))
}

func TestFileStore_FailedWriteKeepsPreviousRecord(t *testing.T) {
	path := tempStateFile(t)
	fs := NewFileStore(path)
	ctx := context.Background()

	first := presence.State{Present: true, LastTransition: time.Date(2024, 6, 3, 8, 0, 0, 0, time.Local)}
	require.NoError(t, fs.Save(ctx, first))

	// A directory in the temp file's place makes the write fail.
	require.NoError(t, os.Mkdir(path+".tmp", 0o755))
	assert.Error(t, fs.Save(ctx, presence.State{Present: false}))

	got, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.Present)
	assert.True(t, first.LastTransition.Equal(got.LastTransition))
}

func TestWriteSynced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.tmp")
	require.NoError(t, os.WriteFile(path, []byte("old contents that are longer"), 0o644))

	require.NoError(t, writeSynced(path, []byte(`{"is_book_present": true}`)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"is_book_present": true}`, string(data))
}
