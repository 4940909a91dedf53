package sema

// slot names one scalar storage location: a scalar variable (field -1) or
// one field of a struct variable
type slot struct {
	v     *Var
	field int
}

// flow is the set of slots definitely assigned at a program point. A dead
// flow follows a return and never reports reads.
type flow struct {
	dead bool
	init map[slot]struct{}
}

func newFlow() *flow {
	return &flow{init: make(map[slot]struct{})}
}

func (f *flow) clone() *flow {
	c := &flow{dead: f.dead, init: make(map[slot]struct{}, len(f.init))}
	for s := range f.init {
		c.init[s] = struct{}{}
	}
	return c
}

// assign marks every slot of v, or a single field when field >= 0
func (f *flow) assign(v *Var, field int) {
	if field >= 0 {
		f.init[slot{v, field}] = struct{}{}
		return
	}
	if v.Struct == nil {
		f.init[slot{v, -1}] = struct{}{}
		return
	}
	for i := range v.Struct.Fields {
		f.init[slot{v, i}] = struct{}{}
	}
}

// assigned reports whether v (or one field of it) is definitely assigned
func (f *flow) assigned(v *Var, field int) bool {
	if field >= 0 {
		_, ok := f.init[slot{v, field}]
		return ok
	}
	if v.Struct == nil {
		_, ok := f.init[slot{v, -1}]
		return ok
	}
	for i := range v.Struct.Fields {
		if _, ok := f.init[slot{v, i}]; !ok {
			return false
		}
	}
	return true
}

// join replaces f with the state after two alternative paths a and b
func (f *flow) join(a, b *flow) {
	switch {
	case a.dead && b.dead:
		f.dead, f.init = true, a.init
	case a.dead:
		f.dead, f.init = false, b.init
	case b.dead:
		f.dead, f.init = false, a.init
	default:
		merged := make(map[slot]struct{})
		for s := range a.init {
			if _, ok := b.init[s]; ok {
				merged[s] = struct{}{}
			}
		}
		f.dead, f.init = false, merged
	}
}
