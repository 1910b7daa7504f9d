package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_ListFilter(t *testing.T) {
	store := newMemStore()
	store.set("bucket", "path/to/file.txt", "1", nil)
	store.set("bucket", "path/to/another/file.txt", "2", nil)
	store.set("bucket", "test.jpg", "", nil)
	engine := newTestEngine(store)

	keys, err := engine.List(context.Background(), "bucket", "path/", "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"path/to/file.txt", "path/to/another/file.txt"}, keys)

	keys, err = engine.List(context.Background(), "bucket", "", "test")
	require.NoError(t, err)
	assert.Equal(t, []string{"test.jpg"}, keys)
}

func TestEngine_HeadHelpers(t *testing.T) {
	store := newMemStore()
	store.set("bucket", "a.txt", "hello", map[string]string{"k": "v"})
	engine := newTestEngine(store)
	ctx := context.Background()

	ok, err := engine.Exists(ctx, Remote("bucket", "a.txt"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = engine.Exists(ctx, Remote("bucket", "b.txt"))
	require.NoError(t, err)
	assert.False(t, ok)

	size, err := engine.Size(ctx, Remote("bucket", "a.txt"))
	require.NoError(t, err)
	assert.EqualValues(t, 5, size)

	meta, err := engine.Metadata(ctx, Remote("bucket", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"k": "v"}, meta)

	modTime, err := engine.LastModified(ctx, Remote("bucket", "a.txt"))
	require.NoError(t, err)
	assert.False(t, modTime.IsZero())

	_, err = engine.Size(ctx, Remote("bucket", "b.txt"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEngine_CopyKeepsFingerprint(t *testing.T) {
	store := newMemStore()
	store.set("src", "a.txt", "hello", map[string]string{FingerprintMetadataKey: md5Hex("hello")})
	engine := newTestEngine(store)

	uri, err := engine.Copy(context.Background(), Remote("src", "a.txt"), Remote("dst", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "s3://dst/b.txt", uri)
	assert.Equal(t, md5Hex("hello"), store.object("dst", "b.txt").meta[FingerprintMetadataKey])

	_, err = engine.Copy(context.Background(), Remote("src", "missing"), Remote("dst", "x"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = engine.Copy(context.Background(), Local("/tmp/a"), Remote("dst", "x"))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestEngine_Move(t *testing.T) {
	store := newMemStore()
	store.set("bucket", "old.txt", "x", nil)
	engine := newTestEngine(store)

	uri, err := engine.Move(context.Background(), Remote("bucket", "old.txt"), Remote("bucket", "new.txt"))
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/new.txt", uri)
	assert.Nil(t, store.object("bucket", "old.txt"))
	assert.NotNil(t, store.object("bucket", "new.txt"))
}

func TestEngine_MoveManyDryRun(t *testing.T) {
	store := newMemStore()
	store.set("bucket", "a", "1", nil)
	store.set("bucket", "b", "2", nil)
	engine := New(store, WithLogger(quietLogger()), WithVerbose(true))

	uris, err := engine.MoveMany(context.Background(), []Transfer{
		{Source: Remote("bucket", "a"), Target: Remote("bucket", "moved/a")},
		{Source: Remote("bucket", "b"), Target: Remote("bucket", "moved/b")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"s3://bucket/moved/a", "s3://bucket/moved/b"}, uris)
	assert.Empty(t, store.copyCalls)
	assert.Empty(t, store.deleteCalls)
}

func TestEngine_DeletePrefix(t *testing.T) {
	store := newMemStore()
	store.set("bucket", "tmp/1", "", nil)
	store.set("bucket", "tmp/2", "", nil)
	store.set("bucket", "keep/3", "", nil)
	engine := newTestEngine(store, WithParallel(2))

	uris, err := engine.DeletePrefix(context.Background(), "bucket", "tmp/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s3://bucket/tmp/1", "s3://bucket/tmp/2"}, uris)
	assert.Nil(t, store.object("bucket", "tmp/1"))
	assert.NotNil(t, store.object("bucket", "keep/3"))
}

func TestEngine_DeleteAllVersions(t *testing.T) {
	store := newMemStore()
	store.set("bucket", "a.txt", "", nil)
	store.object("bucket", "a.txt").versions = []string{"v1", "v2", "v3"}
	engine := newTestEngine(store)

	deleted, err := engine.DeleteAllVersions(context.Background(), "bucket", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2", "v3"}, deleted)
	assert.Equal(t, []string{"bucket/a.txt@v1", "bucket/a.txt@v2", "bucket/a.txt@v3"}, store.deleteCalls)
}

func TestEngine_UploadAndDownloadMany(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "alpha")
	b := writeFile(t, dir, "b.txt", "beta")
	store := newMemStore()
	engine := newTestEngine(store, WithParallel(0))

	uris, err := engine.UploadMany(context.Background(), []Transfer{
		{Source: Local(a), Target: Remote("bucket", "up/a.txt")},
		{Source: Local(b), Target: Remote("bucket", "up/b.txt")},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s3://bucket/up/a.txt", "s3://bucket/up/b.txt"}, uris)

	out := t.TempDir()
	paths, err := engine.DownloadMany(context.Background(), []Transfer{
		{Source: Remote("bucket", "up/a.txt"), Target: Local(filepath.Join(out, "x", "a.txt"))},
		{Source: Remote("bucket", "up/b.txt"), Target: Local(filepath.Join(out, "y", "b.txt"))},
	})
	require.NoError(t, err)
	assert.Len(t, paths, 2)

	data, err := os.ReadFile(filepath.Join(out, "y", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "beta", string(data))

	_, err = engine.UploadMany(context.Background(), []Transfer{{Source: Remote("bucket", "x"), Target: Remote("bucket", "y")}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestEngine_ListVersions(t *testing.T) {
	store := newMemStore()
	store.set("bucket", "a.txt", "", nil)
	store.object("bucket", "a.txt").versions = []string{"v1", "v2"}
	engine := newTestEngine(store)

	versions, err := engine.ListVersions(context.Background(), "bucket", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, versions)
}

func TestEngine_CopyManyKeepsOrder(t *testing.T) {
	store := newMemStore()
	var transfers []Transfer
	var want []string
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		store.set("src", name, name, nil)
		transfers = append(transfers, Transfer{Source: Remote("src", name), Target: Remote("dst", "copy/"+name)})
		want = append(want, "s3://dst/copy/"+name)
	}
	engine := newTestEngine(store, WithParallel(3))

	uris, err := engine.CopyMany(context.Background(), transfers)
	require.NoError(t, err)
	assert.Equal(t, want, uris)
	assert.Len(t, store.copyCalls, 5)
}

func TestEngine_DeleteMany(t *testing.T) {
	store := newMemStore()
	store.set("bucket", "x", "", nil)
	store.set("bucket", "y", "", nil)
	engine := newTestEngine(store)

	uris, err := engine.DeleteMany(context.Background(), []Location{Remote("bucket", "x"), Remote("bucket", "y")})
	require.NoError(t, err)
	assert.Equal(t, []string{"s3://bucket/x", "s3://bucket/y"}, uris)
	assert.Nil(t, store.object("bucket", "x"))
	assert.Nil(t, store.object("bucket", "y"))
}

func TestEngine_CopyWithoutFingerprint(t *testing.T) {
	store := newMemStore()
	store.set("src", "legacy.bin", "data", map[string]string{"owner": "lab"})
	engine := newTestEngine(store)

	uri, err := engine.Copy(context.Background(), Remote("src", "legacy.bin"), Remote("dst", "legacy.bin"))
	require.NoError(t, err)
	assert.Equal(t, "s3://dst/legacy.bin", uri)

	meta := store.object("dst", "legacy.bin").meta
	assert.Equal(t, "lab", meta["owner"])
	assert.NotContains(t, meta, FingerprintMetadataKey)

	_, err = engine.Fingerprint(context.Background(), Remote("dst", "legacy.bin"))
	assert.ErrorIs(t, err, ErrMissingMetadata)
}
