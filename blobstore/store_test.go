package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"Memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"Local": func(t *testing.T) Store {
			s, err := NewLocalStore(t.TempDir())
			require.NoError(t, err)
			return s
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("PutGet", func(t *testing.T) {
				s := newStore(t)

				require.NoError(t, s.Put(ctx, "snapshots/a.bin", []byte("hello")))

				data, err := s.Get(ctx, "snapshots/a.bin")
				require.NoError(t, err)
				assert.Equal(t, []byte("hello"), data)
			})

			t.Run("Overwrite", func(t *testing.T) {
				s := newStore(t)

				require.NoError(t, s.Put(ctx, "a", []byte("v1")))
				require.NoError(t, s.Put(ctx, "a", []byte("v2")))

				data, err := s.Get(ctx, "a")
				require.NoError(t, err)
				assert.Equal(t, []byte("v2"), data)
			})

			t.Run("GetMissing", func(t *testing.T) {
				s := newStore(t)

				_, err := s.Get(ctx, "nope")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("List", func(t *testing.T) {
				s := newStore(t)

				require.NoError(t, s.Put(ctx, "snapshots/b.bin", []byte("b")))
				require.NoError(t, s.Put(ctx, "snapshots/a.bin", []byte("a")))
				require.NoError(t, s.Put(ctx, "other/c.bin", []byte("c")))

				names, err := s.List(ctx, "snapshots/")
				require.NoError(t, err)
				assert.Equal(t, []string{"snapshots/a.bin", "snapshots/b.bin"}, names)

				all, err := s.List(ctx, "")
				require.NoError(t, err)
				assert.Len(t, all, 3)
			})

			t.Run("Delete", func(t *testing.T) {
				s := newStore(t)

				require.NoError(t, s.Put(ctx, "a", []byte("a")))
				require.NoError(t, s.Delete(ctx, "a"))

				_, err := s.Get(ctx, "a")
				assert.ErrorIs(t, err, ErrNotFound)

				// Deleting again is not an error.
				assert.NoError(t, s.Delete(ctx, "a"))
			})
		})
	}
}

func TestMemoryStore_CopiesData(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	data := []byte("original")
	require.NoError(t, s.Put(ctx, "a", data))
	data[0] = 'X'

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)

	got[0] = 'Y'
	again, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestLocalStore_IgnoresTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewLocalStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "a", []byte("a")))

	// A leftover temp file from an interrupted write must not show up.
	require.NoError(t, s.Put(ctx, ".tmp-leftover", []byte("junk")))

	names, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names)
}

func TestLocalStore_NestedNames(t *testing.T) {
	ctx := context.Background()

	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "a/b/c.bin", []byte("deep")))

	data, err := s.Get(ctx, "a/b/c.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte("deep"), data)
}
