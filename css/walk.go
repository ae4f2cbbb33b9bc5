package css

// WalkDecls calls fn for every declaration of the stylesheet in document
// order, descending into rules and at-rules. The index passed to fn is the
// position of the declaration among its siblings. Nodes inserted after the
// current one while walking are visited too. Walking stops on the first error
// returned by fn.
func (s *Stylesheet) WalkDecls(fn func(d *Decl, i int) error) error {
	return walkDecls(s, fn)
}

func walkDecls(c Container, fn func(d *Decl, i int) error) error {
	// NOTE: length is re-read on every iteration, fn is allowed to insert
	// siblings after the current node
	for i := 0; i < len(c.Nodes()); i++ {
		switch n := c.Nodes()[i].(type) {
		case *Decl:
			if err := fn(n, i); err != nil {
				return err
			}
		case Container:
			if err := walkDecls(n, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Decls returns all declarations of the stylesheet in document order.
func (s *Stylesheet) Decls() []*Decl {
	var decls []*Decl
	_ = s.WalkDecls(func(d *Decl, _ int) error {
		decls = append(decls, d)
		return nil
	})
	return decls
}

// Rules returns all rules (including nested ones) in document order.
func (s *Stylesheet) Rules() []*Rule {
	var rules []*Rule
	var collect func(c Container)
	collect = func(c Container) {
		for _, n := range c.Nodes() {
			if r, ok := n.(*Rule); ok {
				rules = append(rules, r)
			}
			if sub, ok := n.(Container); ok {
				collect(sub)
			}
		}
	}
	collect(s)
	return rules
}
