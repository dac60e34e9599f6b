package quadrant

// morton interleaves the low 30 bits of x and y into a 60-bit Z-order key,
// y in the odd bit positions. This gives quadrants the same depth-first,
// space-filling order the tree package stores leaves in: two quadrants at
// the same level compare by their spatial position, and at different levels
// an ancestor's key is a prefix of all of its descendants' keys.
func morton(x, y Coord) uint64 {
	return spread(uint64(x)) | (spread(uint64(y)) << 1)
}

// spread inserts a zero bit between each of the low 30 bits of v.
func spread(v uint64) uint64 {
	v &= 0x3FFFFFFF // 30 bits
	v = (v | (v << 16)) & 0x0000FFFF0000FFFF
	v = (v | (v << 8)) & 0x00FF00FF00FF00FF
	v = (v | (v << 4)) & 0x0F0F0F0F0F0F0F0F
	v = (v | (v << 2)) & 0x3333333333333333
	v = (v | (v << 1)) & 0x5555555555555555

	return v
}

// FirstDescendantMorton returns the Morton key of q's first descendant at
// MaxLevel - the deepest, lexicographically-smallest cell contained in q.
// Since q's own (X, Y) origin already is that descendant's origin, this is
// simply morton(q.X, q.Y).
func FirstDescendantMorton(q Quadrant) uint64 {
	return morton(q.X, q.Y)
}

// LastDescendantMorton returns the Morton key of q's last descendant at
// MaxLevel - the deepest cell in q's opposite (upper-right) corner.
func LastDescendantMorton(q Quadrant) uint64 {
	l := Len(q.Level)

	return morton(q.X+l-1, q.Y+l-1)
}

// Compare orders quadrants first by Morton key of their origin (X, Y), then,
// for quadrants that share an origin (one is an ancestor of the other), by
// Level ascending - so a coarser ancestor sorts immediately before its own
// descendants. This matches tree.Tree's required sorted-leaves ordering and
// the completion/balance engines' "smallest quadrant" language.
func Compare(a, b Quadrant) int {
	if a.WhichTree != b.WhichTree {
		if a.WhichTree < b.WhichTree {
			return -1
		}

		return 1
	}
	ma, mb := morton(a.X, a.Y), morton(b.X, b.Y)
	if ma != mb {
		if ma < mb {
			return -1
		}

		return 1
	}
	if a.Level != b.Level {
		if a.Level < b.Level {
			return -1
		}

		return 1
	}

	return 0
}

// Less is a convenience wrapper around Compare for use with sort.Slice and
// lancet/v2/slice.SortBy.
func Less(a, b Quadrant) bool {
	return Compare(a, b) < 0
}

// IsAncestor reports whether a is a strict ancestor of b: a is coarser and
// b's cell is entirely contained within a's.
func IsAncestor(a, b Quadrant) bool {
	if a.Level >= b.Level || a.WhichTree != b.WhichTree {
		return false
	}
	l := Len(a.Level)

	return b.X >= a.X && b.X < a.X+l && b.Y >= a.Y && b.Y < a.Y+l
}

// IsFamily reports whether quads is exactly the four (2D) children of a
// common parent, supplied in child-index order 0..3. None of the engines in
// this module call it.
func IsFamily(quads [4]Quadrant) bool {
	if quads[0].Level == 0 {
		return false
	}
	l := Len(quads[0].Level)
	ox, oy := quads[0].X, quads[0].Y
	if ox%(2*l) != 0 || oy%(2*l) != 0 {
		return false
	}
	want := [4][2]Coord{
		{ox, oy}, {ox + l, oy}, {ox, oy + l}, {ox + l, oy + l},
	}
	for i, q := range quads {
		if q.Level != quads[0].Level || q.WhichTree != quads[0].WhichTree {
			return false
		}
		if q.X != want[i][0] || q.Y != want[i][1] {
			return false
		}
	}

	return true
}

// IsNext reports whether b is the canonical successor of a in a complete,
// non-overlapping linear ordering: b's first descendant is the immediate
// Morton-successor of a's last descendant, and b is the coarsest quadrant
// that can occupy that position without its cell extending backwards into
// a's range (equivalently: b's parent, if any, would overlap a).
func IsNext(a, b Quadrant) bool {
	if a.WhichTree != b.WhichTree {
		return false
	}
	if LastDescendantMorton(a)+1 != FirstDescendantMorton(b) {
		return false
	}
	if b.Level == 0 {
		return true
	}
	p := Parent(b)

	return FirstDescendantMorton(p) <= LastDescendantMorton(a)
}
