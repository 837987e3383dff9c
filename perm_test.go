package gocanon

import "testing"

func TestPermInverse(t *testing.T) {
	p := Perm{2, 0, 3, 1}

	inv := p.Inverse()
	if !inv.ComposedWith(p).IsIdentity() {
		t.Fatal("inverse composed with perm must be identity")
	}
	if !p.ComposedWith(inv).IsIdentity() {
		t.Fatal("perm composed with inverse must be identity")
	}
}

func TestPermCompose(t *testing.T) {
	p := Perm{1, 2, 0}
	q := Perm{2, 1, 0}

	r := p.ComposedWith(q) // q first, then p
	want := Perm{0, 2, 1}
	for i := range want {
		if r[i] != want[i] {
			t.Fatalf("compose: want %v, got %v", want, r)
		}
	}
}

func TestPermValidate(t *testing.T) {
	if err := (Perm{1, 0, 2}).Validate(); err != nil {
		t.Fatal(err)
	}
	for _, bad := range []Perm{
		{0, 0, 1},  // duplicate
		{0, 3, 1},  // out of range
		{-1, 0, 1}, // negative
	} {
		if err := bad.Validate(); err != ErrBadPerm {
			t.Fatalf("%v: want ErrBadPerm, got %v", bad, err)
		}
	}
}

func TestPermFixes(t *testing.T) {
	p := Perm{0, 2, 1, 3}
	if !p.Fixes([]int32{0, 3}) {
		t.Fatal("p fixes 0 and 3")
	}
	if p.Fixes([]int32{0, 1}) {
		t.Fatal("p moves 1")
	}
}

func TestPermRoundTrip(t *testing.T) {
	p := Perm{4, 2, 0, 3, 1}

	buf := p.AppendPermTo(nil)
	buf = append(buf, 0x7f) // trailing bytes must be preserved

	got, rest, err := ReadPerm(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 1 || rest[0] != 0x7f {
		t.Fatal("trailing bytes lost")
	}
	for i := range p {
		if got[i] != p[i] {
			t.Fatalf("round trip: want %v, got %v", p, got)
		}
	}

	if _, _, err := ReadPerm([]byte{}); err != ErrBadEncoding {
		t.Fatalf("want ErrBadEncoding, got %v", err)
	}
}

type weightedPair struct {
	colors []int64
	w      int64
}

func (g weightedPair) VertexCount() int        { return len(g.colors) }
func (g weightedPair) VertexColor(v int) int64 { return g.colors[v] }
func (g weightedPair) EdgeWeight(a, b int) int64 {
	if a != b {
		return g.w
	}
	return 0
}

func TestCertOrdering(t *testing.T) {
	// Lower colors produce lexicographically smaller certificates, so the
	// canonical form puts low colors first.
	lo := weightedPair{colors: []int64{0, 0}}
	hi := weightedPair{colors: []int64{1, 1}}

	id := IdentityPerm(2)
	cl := BuildCert(lo, id)
	ch := BuildCert(hi, id)
	if cl.Compare(ch) >= 0 {
		t.Fatal("lower colors must sort first")
	}

	// Certificates of differently-sized structures never compare equal.
	one := BuildCert(weightedPair{colors: []int64{0}}, IdentityPerm(1))
	if cl.IsEqual(one) {
		t.Fatal("size must flow into the certificate")
	}
}

func TestBuildCertUsesCanonicalPositions(t *testing.T) {
	// Two vertices with distinct colors: the perm decides which color
	// lands in position 0 of the certificate.
	g := weightedPair{colors: []int64{7, 3}, w: 1}

	cid := BuildCert(g, Perm{0, 1})
	cswap := BuildCert(g, Perm{1, 0})
	if cid.IsEqual(cswap) {
		t.Fatal("swapping positions must reorder the certificate")
	}

	n, err := cswap.VertexCount()
	if err != nil || n != 2 {
		t.Fatalf("bad header: n=%d err=%v", n, err)
	}
}
