package nullstate

const wordBits = 64

// bitVector is a growable set of bits.
type bitVector struct {
	words []uint64
	n     int
}

func (v *bitVector) get(i int) bool {
	if i < 0 || i >= v.n {
		return false
	}
	return v.words[i/wordBits]&(1<<(uint(i)%wordBits)) != 0
}

func (v *bitVector) set(i int, on bool) {
	if i >= v.n {
		v.grow(i + 1)
	}
	mask := uint64(1) << (uint(i) % wordBits)
	if on {
		v.words[i/wordBits] |= mask
	} else {
		v.words[i/wordBits] &^= mask
	}
}

func (v *bitVector) grow(n int) {
	if n <= v.n {
		return
	}
	need := (n + wordBits - 1) / wordBits
	for len(v.words) < need {
		v.words = append(v.words, 0)
	}
	v.n = n
}

func (v *bitVector) clone() bitVector {
	return bitVector{words: append([]uint64(nil), v.words...), n: v.n}
}

// or merges other into v and tells if any bit changed.
func (v *bitVector) or(other *bitVector) bool {
	v.grow(other.n)
	var changed bool
	for i, w := range other.words {
		nw := v.words[i] | w
		if nw != v.words[i] {
			changed = true
			v.words[i] = nw
		}
	}
	return changed
}

// and intersects v with other and tells if any bit changed. Bits beyond the
// length of other are treated as unset.
func (v *bitVector) and(other *bitVector) bool {
	v.grow(other.n)
	var changed bool
	for i := range v.words {
		var w uint64
		if i < len(other.words) {
			w = other.words[i]
		}
		nw := v.words[i] & w
		if nw != v.words[i] {
			changed = true
			v.words[i] = nw
		}
	}
	return changed
}

func (v *bitVector) clear() {
	for i := range v.words {
		v.words[i] = 0
	}
}

func (v *bitVector) equal(other *bitVector) bool {
	n := max(len(v.words), len(other.words))
	for i := 0; i < n; i++ {
		var a, b uint64
		if i < len(v.words) {
			a = v.words[i]
		}
		if i < len(other.words) {
			b = other.words[i]
		}
		if a != b {
			return false
		}
	}
	return true
}
