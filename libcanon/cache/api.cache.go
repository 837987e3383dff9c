// Package cache maps structural fingerprints to previously computed
// canonical forms, amortizing repeated normalizations within a process.
//
// Keys follow the catalog LSM convention: fingerprint prefix, double-NUL
// separator, then the exact state encoding of the structure under its
// given labeling.  A fingerprint is a necessary-but-insufficient
// isomorphism invariant, so colliding non-isomorphic structures share a
// bucket but never an entry: a hit is exact, a miss falls through to the
// full search.
package cache

import (
	"encoding/binary"

	"github.com/structura-systems/gocanon"
	"github.com/structura-systems/gocanon/libcanon"
)

// Store is the normalization cache contract.  Implementations must be
// safe for concurrent use: a lookup sees either no entry or a
// fully-populated entry, never a torn one.
type Store interface {

	// Lookup returns the cached result for the exact structure identified
	// by (fp, stateKey), if present.
	Lookup(fp uint64, stateKey []byte) (gocanon.Result, bool)

	// StoreResult records a result under (fp, stateKey).
	// Returns false if an entry was already present (no effect).
	StoreResult(fp uint64, stateKey []byte, res gocanon.Result) bool

	// BucketLen reports how many distinct structures share a fingerprint.
	BucketLen(fp uint64) int

	// Clear removes all entries.
	Clear() error

	Close() error
}

// Opts specifies params for opening a cache store.
type Opts struct {
	DbPathName string // omit for an in-memory db
	ReadOnly   bool   // open in read-only mode
}

// CachedCanonicalize consults the store before searching and records any
// freshly computed result.  Repeated calls on the same labeled structure
// are amortized O(1); a fingerprint collision simply misses and pays for
// its own search.
func CachedCanonicalize(s gocanon.Structure, store Store, opts gocanon.Opts) (gocanon.Result, error) {
	if s == nil {
		return gocanon.Result{}, gocanon.ErrNilStructure
	}
	if store == nil {
		return libcanon.Canonicalize(s, opts)
	}

	fp := libcanon.Fingerprint(s)
	stateKey := libcanon.StateKey(s)

	if res, ok := store.Lookup(fp, stateKey); ok {
		return res, nil
	}

	res, err := libcanon.Canonicalize(s, opts)
	if err != nil {
		return gocanon.Result{}, err
	}
	store.StoreResult(fp, stateKey, res)
	return res, nil
}

// formEntryKey renders the full LSM key: fingerprint, NUL NUL, state key.
func formEntryKey(buf []byte, fp uint64, stateKey []byte) []byte {
	buf = append(buf, libcanon.FingerprintKey(fp)...)
	buf = append(buf, 0, 0)
	buf = append(buf, stateKey...)
	return buf
}

// formBucketPrefix renders the key prefix shared by a fingerprint bucket.
func formBucketPrefix(buf []byte, fp uint64) []byte {
	buf = append(buf, libcanon.FingerprintKey(fp)...)
	buf = append(buf, 0, 0)
	return buf
}

// appendEntryValue encodes a result as a cache entry value: certificate,
// canonical permutation, then the discovered automorphisms.
func appendEntryValue(buf []byte, res gocanon.Result) []byte {
	var scrap [binary.MaxVarintLen64]byte
	sz := binary.PutUvarint(scrap[:], uint64(len(res.Cert)))
	buf = append(buf, scrap[:sz]...)
	buf = append(buf, res.Cert...)
	buf = res.Perm.AppendPermTo(buf)

	sz = binary.PutUvarint(scrap[:], uint64(len(res.Autos)))
	buf = append(buf, scrap[:sz]...)
	for _, g := range res.Autos {
		buf = g.AppendPermTo(buf)
	}
	return buf
}

// readEntryValue decodes a cache entry value written by appendEntryValue.
func readEntryValue(val []byte) (gocanon.Result, error) {
	certLen, sz := binary.Uvarint(val)
	if sz <= 0 || uint64(len(val)-sz) < certLen {
		return gocanon.Result{}, gocanon.ErrBadEncoding
	}
	val = val[sz:]
	cert := gocanon.Cert(append([]byte(nil), val[:certLen]...))
	perm, val, err := gocanon.ReadPerm(val[certLen:])
	if err != nil {
		return gocanon.Result{}, err
	}

	autoCount, sz := binary.Uvarint(val)
	if sz <= 0 {
		return gocanon.Result{}, gocanon.ErrBadEncoding
	}
	val = val[sz:]
	var autos []gocanon.Perm
	for i := uint64(0); i < autoCount; i++ {
		var g gocanon.Perm
		g, val, err = gocanon.ReadPerm(val)
		if err != nil {
			return gocanon.Result{}, err
		}
		autos = append(autos, g)
	}
	return gocanon.Result{Cert: cert, Perm: perm, Autos: autos}, nil
}
