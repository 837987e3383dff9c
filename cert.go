package gocanon

import (
	"bytes"
	"encoding/base32"
	"encoding/binary"
)

// Cert is a canonical certificate: the full adjacency description of a
// structure under one discrete labeling, encoded as a byte string.
//
// Layout (varint encoded, most significant info first so certificates sort
// usefully as LSM keys):
//
//	VertexCount
//	<1..VertexCount>
//	    VertexColor (in canonical position order)
//	<1..VertexCount*VertexCount>
//	    EdgeWeight (row-major, canonical position order)
//
// Two structures are isomorphic iff their canonical certificates are equal.
type Cert []byte

// Compare orders certificates lexicographically; the engine retains the
// smallest certificate reachable by any valid relabeling.
func (c Cert) Compare(other Cert) int {
	return bytes.Compare(c, other)
}

func (c Cert) IsEqual(other Cert) bool {
	return bytes.Equal(c, other)
}

// GeohashBase32Alphabet is the alphabet used for Base32Encoding
const GeohashBase32Alphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// Base32Encoding is used to render certificates as display strings
var Base32Encoding = base32.NewEncoding(GeohashBase32Alphabet).WithPadding(base32.NoPadding)

func (c Cert) String() string {
	return Base32Encoding.EncodeToString(c)
}

// VertexCount reads back the leading element count of the certificate.
func (c Cert) VertexCount() (int, error) {
	n, sz := binary.Varint(c)
	if sz <= 0 || n < 0 {
		return 0, ErrBadEncoding
	}
	return int(n), nil
}

// BuildCert encodes s under the labeling given by perm (original index to
// canonical position).  It performs no search: callers holding a canonical
// permutation can re-derive the canonical certificate directly.
func BuildCert(s Structure, perm Perm) Cert {
	return AppendCertTo(nil, s, perm)
}

// AppendCertTo appends the certificate of s under perm to buf.
func AppendCertTo(buf []byte, s Structure, perm Perm) Cert {
	n := s.VertexCount()

	var scrap [binary.MaxVarintLen64]byte
	put := func(v int64) {
		sz := binary.PutVarint(scrap[:], v)
		buf = append(buf, scrap[:sz]...)
	}

	put(int64(n))
	if n == 0 {
		return buf
	}

	// inv[pos] is the original element occupying canonical position pos
	inv := perm.Inverse()

	for pos := 0; pos < n; pos++ {
		put(s.VertexColor(int(inv[pos])))
	}
	for ri := 0; ri < n; ri++ {
		vi := int(inv[ri])
		for rj := 0; rj < n; rj++ {
			put(s.EdgeWeight(vi, int(inv[rj])))
		}
	}
	return buf
}
