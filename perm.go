package gocanon

import "encoding/binary"

// Perm is a permutation of element indices: Perm[i] is the position that
// element i maps to.
type Perm []int32

// IdentityPerm returns the identity permutation on n elements.
func IdentityPerm(n int) Perm {
	p := make(Perm, n)
	for i := range p {
		p[i] = int32(i)
	}
	return p
}

// Inverse returns q such that q[p[i]] == i.
func (p Perm) Inverse() Perm {
	q := make(Perm, len(p))
	for i, pi := range p {
		q[pi] = int32(i)
	}
	return q
}

// ComposedWith returns r where r[i] = p[q[i]] (apply q first, then p).
func (p Perm) ComposedWith(q Perm) Perm {
	r := make(Perm, len(p))
	for i := range r {
		r[i] = p[q[i]]
	}
	return r
}

func (p Perm) IsIdentity() bool {
	for i, pi := range p {
		if pi != int32(i) {
			return false
		}
	}
	return true
}

// Fixes reports whether p maps every element of elems to itself.
func (p Perm) Fixes(elems []int32) bool {
	for _, e := range elems {
		if p[e] != e {
			return false
		}
	}
	return true
}

// Validate checks that p is a bijection on its index range.
func (p Perm) Validate() error {
	seen := make([]bool, len(p))
	for _, pi := range p {
		if pi < 0 || int(pi) >= len(p) || seen[pi] {
			return ErrBadPerm
		}
		seen[pi] = true
	}
	return nil
}

// AppendPermTo appends a varint encoding of p to buf.
func (p Perm) AppendPermTo(buf []byte) []byte {
	var scrap [binary.MaxVarintLen64]byte
	sz := binary.PutUvarint(scrap[:], uint64(len(p)))
	buf = append(buf, scrap[:sz]...)
	for _, pi := range p {
		sz = binary.PutUvarint(scrap[:], uint64(pi))
		buf = append(buf, scrap[:sz]...)
	}
	return buf
}

// ReadPerm decodes a permutation appended by AppendPermTo, returning the
// remaining bytes.
func ReadPerm(buf []byte) (Perm, []byte, error) {
	n, sz := binary.Uvarint(buf)
	if sz <= 0 {
		return nil, nil, ErrBadEncoding
	}
	buf = buf[sz:]
	p := make(Perm, n)
	for i := range p {
		v, sz := binary.Uvarint(buf)
		if sz <= 0 {
			return nil, nil, ErrBadEncoding
		}
		p[i] = int32(v)
		buf = buf[sz:]
	}
	return p, buf, nil
}
