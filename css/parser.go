package css

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// SyntaxError describes malformed stylesheet.
type SyntaxError struct {
	Source string
	Line   int
	Msg    string
}

func (e *SyntaxError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("css: line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("css: %s:%d: %s", e.Source, e.Line, e.Msg)
}

// Parser parses CSS stylesheets into a tree which keeps enough of the source
// formatting to write it back unchanged.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

type token struct {
	tt   css.TokenType
	text string
	line int
}

func (t token) blank() bool {
	return t.tt == css.WhitespaceToken || t.tt == css.CommentToken
}

// builder holds parsing state for a single stylesheet.
type builder struct {
	sheet *Stylesheet
	stack []Container

	// spaces accumulates whitespace (and stray semicolons) to be used as
	// "before" of the next node or "after" of the current container.
	spaces  string
	pending []token
	depth   int
}

// Parse parses CSS text into a Stylesheet. The source identifies what is being
// parsed, it is stored in the result and used in errors.
func (p *Parser) Parse(data []byte, source string) (*Stylesheet, error) {
	p.log.Debug("Parsing CSS", zap.String("source", source), zap.Int("bytes", len(data)))

	b := &builder{sheet: NewStylesheet(source)}
	b.stack = []Container{b.sheet}

	lexer := css.NewLexer(parse.NewInput(bytes.NewReader(data)))
	line := 1
	for {
		tt, raw := lexer.Next()
		if tt == css.ErrorToken {
			if err := lexer.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, &SyntaxError{Source: source, Line: line, Msg: err.Error()}
			}
			break
		}
		t := token{tt: tt, text: string(raw), line: line}
		line += strings.Count(t.text, "\n")

		if err := b.feed(t); err != nil {
			return nil, b.wrap(err, t.line)
		}
	}
	if err := b.finish(line); err != nil {
		return nil, b.wrap(err, line)
	}
	return b.sheet, nil
}

type parseErr string

func (e parseErr) Error() string { return string(e) }

func (b *builder) wrap(err error, line int) error {
	var pe parseErr
	if errors.As(err, &pe) {
		if len(b.pending) > 0 {
			line = b.pending[0].line
		}
		return &SyntaxError{Source: b.sheet.Source, Line: line, Msg: string(pe)}
	}
	return err
}

func (b *builder) current() Container {
	return b.stack[len(b.stack)-1]
}

func (b *builder) feed(t token) error {
	if len(b.pending) == 0 {
		switch t.tt {
		case css.WhitespaceToken:
			b.spaces += t.text
			return nil
		case css.CommentToken:
			b.comment(t)
			return nil
		case css.SemicolonToken:
			b.spaces += t.text
			return nil
		case css.RightBraceToken:
			return b.close()
		}
	}

	switch {
	case t.tt == css.LeftBraceToken:
		return b.open()
	case t.tt == css.RightBraceToken:
		if err := b.flushEnd(); err != nil {
			return err
		}
		return b.close()
	case t.tt == css.SemicolonToken && b.depth == 0:
		return b.flush(true)
	}

	switch t.tt {
	case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
		b.depth++
	case css.RightParenthesisToken, css.RightBracketToken:
		if b.depth > 0 {
			b.depth--
		}
	}
	b.pending = append(b.pending, t)
	return nil
}

func (b *builder) comment(t token) {
	c := &Comment{}
	c.before, b.spaces = b.spaces, ""
	inner := strings.TrimPrefix(t.text, "/*")
	inner = strings.TrimSuffix(inner, "*/")
	c.Text = strings.TrimSpace(inner)
	if c.Text == "" {
		c.left = inner
	} else {
		c.left = inner[:strings.Index(inner, c.Text)]
		c.right = inner[len(c.left)+len(c.Text):]
	}
	b.current().Append(c)
}

// open starts a rule or at-rule block from pending tokens.
func (b *builder) open() error {
	toks := b.take()
	before := b.spaces
	b.spaces = ""

	var c Container
	if len(toks) > 0 && toks[0].tt == css.AtKeywordToken {
		a := newAtRule(toks)
		a.hasBlock = true
		a.before = before
		c = a
	} else {
		head, tail := splitTrailing(toks)
		r := NewRule("")
		r.before = before
		r.between = join(tail)
		r.Selector, r.rawSelector = clean(head)
		c = r
	}
	b.current().Append(c)
	b.stack = append(b.stack, c)
	return nil
}

// close ends the current block.
func (b *builder) close() error {
	if len(b.stack) == 1 {
		return parseErr("unexpected }")
	}
	blk := b.current().body()
	blk.after, b.spaces = b.spaces, ""
	b.stack = b.stack[:len(b.stack)-1]
	return nil
}

// flushEnd handles the last statement of a block (or file) which is not
// terminated by semicolon. Trailing comments do not belong to it and become
// sibling nodes.
func (b *builder) flushEnd() error {
	head, tail := splitTrailing(b.pending)
	b.pending = head
	if err := b.flush(false); err != nil {
		return err
	}
	for _, t := range tail {
		switch t.tt {
		case css.WhitespaceToken:
			b.spaces += t.text
		case css.CommentToken:
			b.comment(t)
		}
	}
	return nil
}

// flush turns pending tokens into a declaration or at-rule without block.
func (b *builder) flush(semicolon bool) error {
	if len(b.pending) == 0 {
		if semicolon {
			b.spaces += ";"
		}
		return nil
	}
	line := b.pending[0].line
	toks := b.take()
	before := b.spaces
	b.spaces = ""

	var n Node
	if toks[0].tt == css.AtKeywordToken {
		a := newAtRule(toks)
		a.before = before
		n = a
	} else {
		d, err := newDecl(toks)
		if err != nil {
			// pending tokens are gone already, report line of the declaration
			return &SyntaxError{Source: b.sheet.Source, Line: line, Msg: err.Error()}
		}
		d.before = before
		d.Line = line
		n = d
	}
	c := b.current()
	c.Append(n)
	c.body().semicolon = semicolon
	return nil
}

func (b *builder) finish(line int) error {
	if len(b.pending) > 0 {
		if err := b.flushEnd(); err != nil {
			return err
		}
	}
	if len(b.stack) > 1 {
		return &SyntaxError{Source: b.sheet.Source, Line: line, Msg: "unclosed block"}
	}
	b.sheet.after, b.spaces = b.spaces, ""
	return nil
}

func (b *builder) take() []token {
	toks := b.pending
	b.pending = nil
	b.depth = 0
	return toks
}

func newAtRule(toks []token) *AtRule {
	a := &AtRule{Name: strings.TrimPrefix(toks[0].text, "@")}
	a.owner = a
	rest := toks[1:]
	i := 0
	for i < len(rest) && rest[i].blank() {
		i++
	}
	a.afterName = join(rest[:i])
	head, tail := splitTrailing(rest[i:])
	a.between = join(tail)
	a.Params, a.rawParams = clean(head)
	return a
}

func newDecl(toks []token) (*Decl, error) {
	colon := -1
	for i, t := range toks {
		if t.tt == css.ColonToken {
			colon = i
			break
		}
	}
	if colon < 0 {
		return nil, parseErr(fmt.Sprintf("unknown word %q", strings.TrimSpace(join(toks))))
	}

	prop, propTail := splitTrailing(toks[:colon])
	if len(prop) == 0 {
		return nil, parseErr("declaration without property name")
	}

	d := &Decl{Prop: join(prop)}

	rest := toks[colon+1:]
	i := 0
	for i < len(rest) && rest[i].blank() {
		i++
	}
	d.between = join(propTail) + toks[colon].text + join(rest[:i])
	rest = rest[i:]

	if imp := important(rest); imp >= 0 {
		d.Important = true
		d.rawImportant = join(rest[imp:])
		rest = rest[:imp]
	}
	d.Value, d.rawValue = clean(rest)
	return d, nil
}

// important returns index where trailing "!important" (including preceding
// whitespace) starts or -1.
func important(toks []token) int {
	i := len(toks) - 1
	for i >= 0 && toks[i].blank() {
		i--
	}
	if i < 0 || toks[i].tt != css.IdentToken || !strings.EqualFold(toks[i].text, "important") {
		return -1
	}
	i--
	for i >= 0 && toks[i].blank() {
		i--
	}
	if i < 0 || toks[i].tt != css.DelimToken || toks[i].text != "!" {
		return -1
	}
	for i > 0 && toks[i-1].tt == css.WhitespaceToken {
		i--
	}
	return i
}

// clean builds value text out of tokens. Comments having whitespace (or
// nothing) on either side are dropped, trailing whitespace is trimmed. When
// result differs from the source text, the source is kept for output.
func clean(toks []token) (string, *rawText) {
	var sb strings.Builder
	for i, t := range toks {
		if t.tt != css.CommentToken {
			sb.WriteString(t.text)
			continue
		}
		prevSafe := i == 0 || toks[i-1].tt == css.WhitespaceToken
		nextSafe := i == len(toks)-1 || toks[i+1].tt == css.WhitespaceToken
		if prevSafe || nextSafe || strings.HasSuffix(sb.String(), ",") {
			continue
		}
		sb.WriteString(t.text)
	}
	value := strings.TrimRight(sb.String(), " \t\r\n\f")
	raw := join(toks)
	if raw == value {
		return value, nil
	}
	return value, &rawText{value: value, raw: raw}
}

// splitTrailing separates trailing whitespace and comments.
func splitTrailing(toks []token) (head, tail []token) {
	i := len(toks)
	for i > 0 && toks[i-1].blank() {
		i--
	}
	return toks[:i], toks[i:]
}

func join(toks []token) string {
	var sb strings.Builder
	for _, t := range toks {
		sb.WriteString(t.text)
	}
	return sb.String()
}
