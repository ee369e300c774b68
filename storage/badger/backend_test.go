package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_PathIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := OpenBackend(file, false)
	assert.Error(t, err)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
}

func TestDeletePrefix(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	err = backend.WithTx(func(tx *badger.Txn) error {
		for _, k := range []string{"a:1", "a:2", "a:3", "b:1"} {
			if err := tx.Set([]byte(k), []byte("v")); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	require.NoError(t, err)

	removed, err := backend.DeletePrefix(context.Background(), []byte("a:"))
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	err = backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get([]byte("a:1"))
		assert.ErrorIs(t, err, badger.ErrKeyNotFound)
		_, err = tx.Get([]byte("b:1"))
		return err
	}, false)
	assert.NoError(t, err)

	removed, err = backend.DeletePrefix(context.Background(), []byte("zzz"))
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestKeysOrderRecordsThenChunks(t *testing.T) {
	k1 := makeEntryKey("1", 5)
	k10 := makeEntryKey("10", 0)
	k1b := makeEntryKey("1", 6)

	assert.Less(t, string(k1), string(k1b))
	assert.Less(t, string(k1b), string(k10))
}
