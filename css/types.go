package css

import (
	"io"
	"strings"
)

// Kind identifies the type of a stylesheet node.
type Kind int

const (
	KindRoot Kind = iota
	KindRule
	KindAtRule
	KindDecl
	KindComment
)

// String returns the name of the node kind.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindRule:
		return "rule"
	case KindAtRule:
		return "atrule"
	case KindDecl:
		return "decl"
	case KindComment:
		return "comment"
	default:
		return "unknown"
	}
}

// Node is a single element of the stylesheet tree.
type Node interface {
	Kind() Kind
	// Parent returns the container holding this node or nil for detached
	// nodes and the root.
	Parent() Container
	// Before returns whitespace (and stray semicolons) preceding the node in
	// the source.
	Before() string

	setParent(Container)
}

// Container is a node which holds child nodes: the stylesheet itself, rules
// and at-rules with a block.
type Container interface {
	Node
	Nodes() []Node
	// Index returns position of child among container nodes or -1.
	Index(child Node) int
	// InsertAfter inserts n right after the node at position i.
	InsertAfter(i int, n Node)
	Append(n Node)

	body() *block
}

type base struct {
	parent Container
	before string
}

func (b *base) Parent() Container     { return b.parent }
func (b *base) Before() string        { return b.before }
func (b *base) setParent(c Container) { b.parent = c }

// block keeps children of a container together with raw text needed to
// reproduce it.
type block struct {
	owner Container
	nodes []Node
	// after is whitespace between the last child and the closing brace (or
	// end of file for the root).
	after string
	// semicolon is set when the last non-comment child was terminated with
	// semicolon.
	semicolon bool
}

func (b *block) index(child Node) int {
	for i, n := range b.nodes {
		if n == child {
			return i
		}
	}
	return -1
}

func (b *block) insertAfter(i int, n Node) {
	if p := n.Parent(); p != nil {
		p.body().remove(n)
	}
	n.setParent(b.owner)
	if i < 0 || i >= len(b.nodes) {
		b.nodes = append(b.nodes, n)
		return
	}
	b.nodes = append(b.nodes, nil)
	copy(b.nodes[i+2:], b.nodes[i+1:])
	b.nodes[i+1] = n
}

func (b *block) append(n Node) {
	b.insertAfter(len(b.nodes)-1, n)
}

func (b *block) remove(n Node) {
	if i := b.index(n); i >= 0 {
		b.nodes = append(b.nodes[:i], b.nodes[i+1:]...)
	}
}

// Stylesheet is the root of a parsed stylesheet.
type Stylesheet struct {
	// Source identifies where the stylesheet came from, normally absolute
	// path of the file. May be empty.
	Source string

	block
}

// NewStylesheet returns an empty stylesheet for source.
func NewStylesheet(source string) *Stylesheet {
	s := &Stylesheet{Source: source}
	s.owner = s
	return s
}

func (s *Stylesheet) Kind() Kind                { return KindRoot }
func (s *Stylesheet) Parent() Container         { return nil }
func (s *Stylesheet) Before() string            { return "" }
func (s *Stylesheet) setParent(Container)       {}
func (s *Stylesheet) body() *block              { return &s.block }
func (s *Stylesheet) Nodes() []Node             { return s.nodes }
func (s *Stylesheet) Index(child Node) int      { return s.index(child) }
func (s *Stylesheet) InsertAfter(i int, n Node) { s.insertAfter(i, n) }
func (s *Stylesheet) Append(n Node)             { s.append(n) }

// WriteTo writes the stylesheet to w, implementing io.WriterTo.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s.String())
	return int64(n), err
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	writeBody(&sb, &s.block)
	return sb.String()
}

// Rule is a qualified rule: selector followed by a block.
type Rule struct {
	base
	block

	// Selector with comments removed.
	Selector string

	rawSelector *rawText
	between     string
}

// NewRule returns a detached rule for selector.
func NewRule(selector string) *Rule {
	r := &Rule{Selector: selector, between: " "}
	r.owner = r
	return r
}

func (r *Rule) Kind() Kind                { return KindRule }
func (r *Rule) body() *block              { return &r.block }
func (r *Rule) Nodes() []Node             { return r.nodes }
func (r *Rule) Index(child Node) int      { return r.index(child) }
func (r *Rule) InsertAfter(i int, n Node) { r.insertAfter(i, n) }
func (r *Rule) Append(n Node)             { r.append(n) }

// AtRule is an at-rule, with or without a block.
type AtRule struct {
	base
	block

	Name   string // without leading "@"
	Params string

	hasBlock  bool
	afterName string
	rawParams *rawText
	between   string
}

func (a *AtRule) Kind() Kind                { return KindAtRule }
func (a *AtRule) body() *block              { return &a.block }
func (a *AtRule) Nodes() []Node             { return a.nodes }
func (a *AtRule) Index(child Node) int      { return a.index(child) }
func (a *AtRule) InsertAfter(i int, n Node) { a.insertAfter(i, n); a.hasBlock = true }
func (a *AtRule) Append(n Node)             { a.append(n); a.hasBlock = true }

// HasBlock reports whether at-rule has a {} block.
func (a *AtRule) HasBlock() bool { return a.hasBlock }

// Decl is a single property declaration.
type Decl struct {
	base

	Prop      string
	Value     string // without comments touching whitespace and without !important
	Important bool
	Line      int // 1-based line of the property name in the source, 0 if unknown

	between      string
	rawValue     *rawText
	rawImportant string
}

// NewDecl returns a detached declaration.
func NewDecl(prop, value string) *Decl {
	return &Decl{Prop: prop, Value: value, between: ": "}
}

func (d *Decl) Kind() Kind { return KindDecl }

// Selector returns selector of the enclosing rule. It reports false when
// declaration does not belong to a rule (for example it is inside
// @font-face or detached).
func (d *Decl) Selector() (string, bool) {
	if r, ok := d.parent.(*Rule); ok {
		return r.Selector, true
	}
	return "", false
}

// Next returns node immediately following the declaration among its
// siblings or nil.
func (d *Decl) Next() Node {
	return next(d)
}

// Clone returns detached copy of the declaration preserving its formatting.
func (d *Decl) Clone() *Decl {
	c := *d
	c.parent = nil
	if d.rawValue != nil {
		rv := *d.rawValue
		c.rawValue = &rv
	}
	return &c
}

// Comment is a /* ... */ comment standing between other nodes.
type Comment struct {
	base

	Text string // trimmed

	left, right string
}

// NewComment returns a detached comment.
func NewComment(text string) *Comment {
	return &Comment{Text: text, left: " ", right: " "}
}

func (c *Comment) Kind() Kind { return KindComment }

// Next returns node immediately following the comment or nil.
func (c *Comment) Next() Node {
	return next(c)
}

// rawText remembers source text of a value when it differs from its cleaned
// version. It is used for output as long as the cleaned value is unchanged.
type rawText struct {
	value string
	raw   string
}

func (r *rawText) pick(value string) string {
	if r != nil && r.value == value {
		return r.raw
	}
	return value
}

func next(n Node) Node {
	p := n.Parent()
	if p == nil {
		return nil
	}
	nodes := p.Nodes()
	i := p.Index(n)
	if i < 0 || i+1 >= len(nodes) {
		return nil
	}
	return nodes[i+1]
}
