package cache_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/structura-systems/gocanon"
	"github.com/structura-systems/gocanon/libcanon"
	"github.com/structura-systems/gocanon/libcanon/cache"
	"github.com/structura-systems/gocanon/libcanon/graph"
)

func mustGraph(t *testing.T, expr string) *graph.Graph {
	t.Helper()
	g, err := graph.FromString(expr)
	require.NoError(t, err, "parsing %q", expr)
	return g
}

func TestCachedCanonicalizeHit(t *testing.T) {
	store := cache.NewMemStore()
	defer store.Close()

	tri := mustGraph(t, "1-2-3,3-1")
	defer tri.Reclaim()

	res1, err := cache.CachedCanonicalize(tri, store, gocanon.Opts{})
	require.NoError(t, err)
	require.Greater(t, res1.Stats.Nodes, int64(0), "first call must search")

	// Second call on the same labeled structure is a pure lookup: the
	// cached entry carries no search stats.
	res2, err := cache.CachedCanonicalize(tri, store, gocanon.Opts{})
	require.NoError(t, err)
	require.True(t, res1.Cert.IsEqual(res2.Cert))
	require.Equal(t, res1.Perm, res2.Perm)
	require.Equal(t, res1.Autos, res2.Autos)
	require.Zero(t, res2.Stats.Nodes, "second call must not search")

	require.Equal(t, 1, store.BucketLen(libcanon.Fingerprint(tri)))
}

func TestRelabeledStructuresShareBucket(t *testing.T) {
	store := cache.NewMemStore()
	defer store.Close()

	P4 := mustGraph(t, "1-2-3-4")
	defer P4.Reclaim()
	Y := P4.Relabel(gocanon.Perm{2, 0, 3, 1})
	defer Y.Reclaim()

	fp := libcanon.Fingerprint(P4)
	require.Equal(t, fp, libcanon.Fingerprint(Y),
		"fingerprints are isomorphism invariants")

	res1, err := cache.CachedCanonicalize(P4, store, gocanon.Opts{})
	require.NoError(t, err)
	res2, err := cache.CachedCanonicalize(Y, store, gocanon.Opts{})
	require.NoError(t, err)

	// Different labelings are distinct entries in the same bucket, and
	// both land on the same canonical form.
	require.True(t, res1.Cert.IsEqual(res2.Cert))
	require.Equal(t, 2, store.BucketLen(fp))
}

func TestCollidingFingerprintsStayDistinct(t *testing.T) {
	store := cache.NewMemStore()
	defer store.Close()

	K3 := mustGraph(t, "1-2-3,3-1")
	P3 := mustGraph(t, "1-2-3")
	defer K3.Reclaim()
	defer P3.Reclaim()

	resK, err := libcanon.Canonicalize(K3, gocanon.Opts{})
	require.NoError(t, err)
	resP, err := libcanon.Canonicalize(P3, gocanon.Opts{})
	require.NoError(t, err)
	require.False(t, resK.Cert.IsEqual(resP.Cert))

	// Force both non-isomorphic structures under one fingerprint, as a
	// hash collision would.  Exact state keys keep the entries apart.
	const fp = uint64(42)
	require.True(t, store.StoreResult(fp, libcanon.StateKey(K3), resK))
	require.True(t, store.StoreResult(fp, libcanon.StateKey(P3), resP))
	require.Equal(t, 2, store.BucketLen(fp))

	gotK, ok := store.Lookup(fp, libcanon.StateKey(K3))
	require.True(t, ok)
	require.True(t, gotK.Cert.IsEqual(resK.Cert))

	gotP, ok := store.Lookup(fp, libcanon.StateKey(P3))
	require.True(t, ok)
	require.True(t, gotP.Cert.IsEqual(resP.Cert))
}

func TestStoreResultIdempotent(t *testing.T) {
	store := cache.NewMemStore()
	defer store.Close()

	X := mustGraph(t, "1-2")
	defer X.Reclaim()
	res, err := libcanon.Canonicalize(X, gocanon.Opts{})
	require.NoError(t, err)

	fp := libcanon.Fingerprint(X)
	key := libcanon.StateKey(X)
	require.True(t, store.StoreResult(fp, key, res))
	require.False(t, store.StoreResult(fp, key, res), "re-store is a no-op")
	require.Equal(t, 1, store.BucketLen(fp))
}

func TestBucketLenBounded(t *testing.T) {
	store := cache.NewMemStore()
	defer store.Close()

	X := mustGraph(t, "1-2")
	defer X.Reclaim()
	res, err := libcanon.Canonicalize(X, gocanon.Opts{})
	require.NoError(t, err)

	// Entries under adjacent fingerprints: the ordered bucket scan must
	// count exactly its own bucket, stopping at the boundary keys.
	key := libcanon.StateKey(X)
	const fp = uint64(0x1000)
	require.True(t, store.StoreResult(fp-1, key, res))
	require.True(t, store.StoreResult(fp, key, res))
	require.True(t, store.StoreResult(fp, append([]byte{9}, key...), res))
	require.True(t, store.StoreResult(fp+1, key, res))

	require.Equal(t, 2, store.BucketLen(fp))
	require.Equal(t, 1, store.BucketLen(fp-1))
	require.Equal(t, 1, store.BucketLen(fp+1))
	require.Equal(t, 0, store.BucketLen(fp+2))
}

func TestMemStoreClear(t *testing.T) {
	store := cache.NewMemStore()
	defer store.Close()

	X := mustGraph(t, "1-2-3")
	defer X.Reclaim()

	_, err := cache.CachedCanonicalize(X, store, gocanon.Opts{})
	require.NoError(t, err)
	fp := libcanon.Fingerprint(X)
	require.Equal(t, 1, store.BucketLen(fp))

	require.NoError(t, store.Clear())
	require.Equal(t, 0, store.BucketLen(fp))

	_, ok := store.Lookup(fp, libcanon.StateKey(X))
	require.False(t, ok)
}

func TestBadgerStoreInMemory(t *testing.T) {
	store, err := cache.OpenBadgerStore(cache.Opts{})
	require.NoError(t, err)
	defer store.Close()

	C5 := mustGraph(t, "1-2-3-4-5,5-1")
	defer C5.Reclaim()

	res1, err := cache.CachedCanonicalize(C5, store, gocanon.Opts{})
	require.NoError(t, err)

	res2, err := cache.CachedCanonicalize(C5, store, gocanon.Opts{})
	require.NoError(t, err)
	require.True(t, res1.Cert.IsEqual(res2.Cert))
	require.Equal(t, res1.Perm, res2.Perm)
	require.Zero(t, res2.Stats.Nodes)

	fp := libcanon.Fingerprint(C5)
	require.Equal(t, 1, store.BucketLen(fp))

	require.NoError(t, store.Clear())
	require.Equal(t, 0, store.BucketLen(fp))
}

func TestBadgerStorePersists(t *testing.T) {
	dir := t.TempDir()

	X := mustGraph(t, "1-2-3-4,4-1,1-3")
	defer X.Reclaim()
	fp := libcanon.Fingerprint(X)

	store, err := cache.OpenBadgerStore(cache.Opts{DbPathName: dir})
	require.NoError(t, err)

	res1, err := cache.CachedCanonicalize(X, store, gocanon.Opts{})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopen: the entry written in the first session serves the lookup.
	store, err = cache.OpenBadgerStore(cache.Opts{DbPathName: dir})
	require.NoError(t, err)
	defer store.Close()

	got, ok := store.Lookup(fp, libcanon.StateKey(X))
	require.True(t, ok)
	require.True(t, got.Cert.IsEqual(res1.Cert))
	require.Equal(t, res1.Perm, got.Perm)
	require.Equal(t, res1.Autos, got.Autos)
}

func TestReadOnlyRequiresPath(t *testing.T) {
	_, err := cache.OpenBadgerStore(cache.Opts{ReadOnly: true})
	require.Error(t, err)
}

func TestNilStoreFallsThrough(t *testing.T) {
	X := mustGraph(t, "1-2")
	defer X.Reclaim()

	res, err := cache.CachedCanonicalize(X, nil, gocanon.Opts{})
	require.NoError(t, err)
	require.NotEmpty(t, res.Cert)

	_, err = cache.CachedCanonicalize(nil, cache.NewMemStore(), gocanon.Opts{})
	require.ErrorIs(t, err, gocanon.ErrNilStructure)
}
