package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends runs a subtest against every RecordStore implementation.
func backends(t *testing.T, fn func(t *testing.T, s RecordStore)) {
	t.Run("mem", func(t *testing.T) {
		fn(t, NewMemStore(nil, nil))
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := OpenSQLite(filepath.Join(t.TempDir(), "records.db"))
		require.NoError(t, err)
		defer s.Close()
		fn(t, s)
	})
}

func TestStoreGetPutDelete(t *testing.T) {
	backends(t, func(t *testing.T, s RecordStore) {
		_, err := s.Get(KindAsset, 1)
		assert.ErrorIs(t, err, ErrRecordNotFound)

		require.NoError(t, s.Put(KindAsset, 1, []byte{0x01, 0x02, 0x03}))

		got, err := s.Get(KindAsset, 1)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01, 0x02, 0x03}, got)

		// Overwrite.
		require.NoError(t, s.Put(KindAsset, 1, []byte{0x09}))
		got, err = s.Get(KindAsset, 1)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x09}, got)

		require.NoError(t, s.Delete(KindAsset, 1))
		_, err = s.Get(KindAsset, 1)
		assert.ErrorIs(t, err, ErrRecordNotFound)

		// Deleting a missing record is not an error.
		require.NoError(t, s.Delete(KindAsset, 1))
	})
}

func TestStoreKindsDoNotCollide(t *testing.T) {
	backends(t, func(t *testing.T, s RecordStore) {
		require.NoError(t, s.Put(KindAsset, 7, []byte("nft")))
		require.NoError(t, s.Put(KindAuction, 7, []byte("auction")))

		got, err := s.Get(KindAsset, 7)
		require.NoError(t, err)
		assert.Equal(t, []byte("nft"), got)

		got, err = s.Get(KindAuction, 7)
		require.NoError(t, err)
		assert.Equal(t, []byte("auction"), got)

		require.NoError(t, s.Delete(KindAuction, 7))
		_, err = s.Get(KindAsset, 7)
		assert.NoError(t, err)
	})
}

func TestStorePatch(t *testing.T) {
	backends(t, func(t *testing.T, s RecordStore) {
		require.NoError(t, s.Put(KindAsset, 3, []byte{0, 1, 2, 3, 4, 5}))

		require.NoError(t, s.Patch(KindAsset, 3, 2, []byte{9, 9}))
		got, err := s.Get(KindAsset, 3)
		require.NoError(t, err)
		assert.Equal(t, []byte{0, 1, 9, 9, 4, 5}, got)

		assert.ErrorIs(t, s.Patch(KindAsset, 3, 5, []byte{1, 2}), ErrPatchOutOfRange)
		assert.ErrorIs(t, s.Patch(KindAsset, 3, -1, []byte{1}), ErrPatchOutOfRange)
		assert.ErrorIs(t, s.Patch(KindAsset, 99, 0, []byte{1}), ErrRecordNotFound)
	})
}

func TestStoreList(t *testing.T) {
	backends(t, func(t *testing.T, s RecordStore) {
		require.NoError(t, s.Put(KindAsset, 1, []byte{1}))
		require.NoError(t, s.Put(KindAsset, 2, []byte{2}))
		require.NoError(t, s.Put(KindSplit, 3, []byte{3}))

		ids, err := s.List(KindAsset)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uint64{1, 2}, ids)

		ids, err = s.List(KindRWA)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestMemStoreGetReturnsCopy(t *testing.T) {
	s := NewMemStore(nil, nil)
	require.NoError(t, s.Put(KindAsset, 1, []byte{1, 2, 3}))

	got, err := s.Get(KindAsset, 1)
	require.NoError(t, err)
	got[0] = 0xFF

	again, err := s.Get(KindAsset, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, again)
}

func TestPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()

	p, err := NewPersistence(dir)
	require.NoError(t, err)

	s := NewMemStore(nil, p)
	require.NoError(t, s.Put(KindAsset, 1, []byte{0xAA, 0xBB}))
	require.NoError(t, s.Put(KindAuction, 1, []byte{0xCC}))
	require.NoError(t, s.Patch(KindAsset, 1, 1, []byte{0xBE}))
	require.NoError(t, s.Delete(KindAuction, 1))
	s.Wait()

	loaded, err := p.LoadAll()
	require.NoError(t, err)

	reopened := NewMemStore(loaded, nil)
	got, err := reopened.Get(KindAsset, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBE}, got)

	_, err = reopened.Get(KindAuction, 1)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(KindAsset, 42, []byte{1, 2, 3}))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(KindAsset, 42)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)
}

func TestMigrateCopiesAllKinds(t *testing.T) {
	src := NewMemStore(nil, nil)
	require.NoError(t, src.Put(KindAsset, 1, []byte("asset-1")))
	require.NoError(t, src.Put(KindAsset, 2, []byte("asset-2")))
	require.NoError(t, src.Put(KindSplit, 1, []byte("split-1")))
	require.NoError(t, src.Put(KindSystem, 0, []byte("stats")))

	dst, err := OpenSQLite(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	defer dst.Close()

	require.NoError(t, Migrate(src, dst))

	for _, tc := range []struct {
		kind string
		id   uint64
		want []byte
	}{
		{KindAsset, 1, []byte("asset-1")},
		{KindAsset, 2, []byte("asset-2")},
		{KindSplit, 1, []byte("split-1")},
		{KindSystem, 0, []byte("stats")},
	} {
		got, err := dst.Get(tc.kind, tc.id)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	// Kinds absent from the source stay absent.
	_, err = dst.Get(KindAuction, 1)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}
