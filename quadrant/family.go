package quadrant

// ChildID returns q's index (0-3 in 2D) among its siblings: the two low bits
// of X and Y at q's own level, packed as (ybit<<1 | xbit). Root (Level 0)
// has no parent; ChildID panics on it, a programmer precondition.
func ChildID(q Quadrant) uint8 {
	if q.Level == 0 {
		panic("quadrant: ChildID of root quadrant is undefined")
	}
	l := Len(q.Level)
	xbit := uint8((q.X / l) & 1)
	ybit := uint8((q.Y / l) & 1)

	return ybit<<1 | xbit
}

// Parent returns q's parent: the unique quadrant one level coarser whose
// cell contains q. Parent panics if q is already the root.
func Parent(q Quadrant) Quadrant {
	if q.Level == 0 {
		panic("quadrant: Parent of root quadrant is undefined")
	}
	pl := q.Level - 1
	plen := Len(pl)
	p := q
	p.Level = pl
	p.X = (q.X / plen) * plen
	p.Y = (q.Y / plen) * plen
	p.Aux = 0
	p.Payload = NilPayload

	return p
}

// Ancestor returns q's ancestor at the given level (level <= q.Level).
// Ancestor(q, q.Level) returns q itself.
func Ancestor(q Quadrant, level uint8) Quadrant {
	if level > q.Level {
		panic("quadrant: Ancestor level exceeds quadrant's own level")
	}
	alen := Len(level)
	a := q
	a.Level = level
	a.X = (q.X / alen) * alen
	a.Y = (q.Y / alen) * alen
	a.Aux = 0
	a.Payload = NilPayload

	return a
}

// AncestorID returns the child index q's ancestor-at-level would have had
// among ITS siblings, i.e. ChildID(Ancestor(q, level)). level must be >= 1
// and <= q.Level.
func AncestorID(q Quadrant, level uint8) uint8 {
	return ChildID(Ancestor(q, level))
}

// Child returns the id'th (0-3) child of q.
func Child(q Quadrant, id uint8) Quadrant {
	if q.Level >= MaxLevel {
		panic("quadrant: Child would exceed MaxLevel")
	}
	cl := q.Level + 1
	clen := Len(cl)
	c := q
	c.Level = cl
	c.Aux = 0
	c.Payload = NilPayload
	if id&1 != 0 {
		c.X = q.X + clen
	}
	if id&2 != 0 {
		c.Y = q.Y + clen
	}

	return c
}

// Sibling returns the id'th (0-3) child of q's parent; Sibling(q, ChildID(q))
// returns q unchanged (minus Aux and Payload). Sibling panics on the root.
func Sibling(q Quadrant, id uint8) Quadrant {
	return Child(Parent(q), id)
}

// Children returns all four (2D) children of q in index order.
func Children(q Quadrant) [4]Quadrant {
	return [4]Quadrant{Child(q, 0), Child(q, 1), Child(q, 2), Child(q, 3)}
}

// FirstDescendant returns q's descendant at level (level >= q.Level) that
// occupies q's own lower-left corner - the first cell of q in Morton order.
func FirstDescendant(q Quadrant, level uint8) Quadrant {
	if level < q.Level {
		panic("quadrant: FirstDescendant level must be >= quadrant's own level")
	}
	d := q
	d.Level = level
	d.Aux = 0
	d.Payload = NilPayload

	return d
}

// LastDescendant returns q's descendant at level (level >= q.Level) that
// occupies q's upper-right corner - the last cell of q in Morton order.
func LastDescendant(q Quadrant, level uint8) Quadrant {
	if level < q.Level {
		panic("quadrant: LastDescendant level must be >= quadrant's own level")
	}
	l := Len(q.Level) - Len(level)
	d := q
	d.Level = level
	d.X = q.X + l
	d.Y = q.Y + l
	d.Aux = 0
	d.Payload = NilPayload

	return d
}

// NearestCommonAncestor returns the smallest quadrant that contains both a
// and b, i.e. the deepest level at which Ancestor(a, level) == Ancestor(b,
// level). a and b must belong to the same tree.
func NearestCommonAncestor(a, b Quadrant) Quadrant {
	if a.WhichTree != b.WhichTree {
		panic("quadrant: NearestCommonAncestor across different trees is undefined")
	}
	maxLevel := a.Level
	if b.Level < maxLevel {
		maxLevel = b.Level
	}
	for level := maxLevel; ; level-- {
		if Ancestor(a, level).Equal(Ancestor(b, level)) {
			return Ancestor(a, level)
		}
		if level == 0 {
			break
		}
	}

	return New(0, 0, 0)
}
