// Package transform rewrites pixel lengths in declaration values into calc()
// expressions multiplying the number by a CSS custom property:
//
//	width: 12px  ->  width: calc(12*var(--unit))
//
// Rewriting is opt-in per stylesheet source (include pattern) and could be
// suppressed per declaration with blacklists and ignore identifier.
package transform

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"px2var/css"
)

// pxPattern recognizes quoted strings and url() literals, which are left
// untouched, and pixel lengths.
var pxPattern = regexp.MustCompile(`(?i)"[^"]+"|'[^']+'|url\([^)]+\)|(\d*\.?\d+)(px)`)

// fallbackStrategy returns var() fallback for a matched token, false when
// there should be none.
type fallbackStrategy func(origin, num, unit string) (string, bool, error)

// Transformer holds validated options. It has no mutable state and may be
// used for multiple stylesheets concurrently.
type Transformer struct {
	opts     Options
	fallback fallbackStrategy
	log      *zap.Logger
}

// New merges options over defaults, validates result and returns ready to use
// Transformer.
func New(log *zap.Logger, options ...Option) (*Transformer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts := defaultOptions()
	for _, set := range options {
		set(&opts)
	}
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("bad transformation options: %w", err)
	}

	t := &Transformer{opts: opts, log: log.Named("px2var")}
	switch {
	case opts.Fallback != nil:
		t.fallback = func(origin, num, unit string) (string, bool, error) {
			s, err := opts.Fallback(origin, num, unit)
			return s, true, err
		}
	case opts.FallbackOrigin:
		t.fallback = func(origin, _, _ string) (string, bool, error) {
			return origin, true, nil
		}
	default:
		t.fallback = func(_, _, _ string) (string, bool, error) {
			return "", false, nil
		}
	}

	if opts.CSSVariable != "" && !strings.HasPrefix(opts.CSSVariable, "--") {
		t.log.Warn("CSS variable name does not look like custom property", zap.String("variable", opts.CSSVariable))
	}
	if opts.Include.IsZero() || opts.CSSVariable == "" {
		t.log.Debug("Include pattern or CSS variable is not set, stylesheets will not be changed")
	}
	return t, nil
}

func (o *Options) validate() (err error) {
	if o.fallbackSet && o.Fallback == nil {
		err = multierr.Append(err, errors.New("css variable fallback is set but is not a function"))
	}
	for i, m := range o.SelectorBlackList {
		if m.IsZero() {
			err = multierr.Append(err, fmt.Errorf("selector blacklist entry %d is neither substring nor pattern", i))
		}
	}
	for i, m := range o.PropBlackList {
		if m.IsZero() {
			err = multierr.Append(err, fmt.Errorf("property blacklist entry %d is neither substring nor pattern", i))
		}
	}
	return err
}

// Options returns copy of effective options.
func (t *Transformer) Options() Options {
	o := t.opts
	o.SelectorBlackList = slices.Clone(t.opts.SelectorBlackList)
	o.PropBlackList = slices.Clone(t.opts.PropBlackList)
	return o
}

// Rewrite replaces every pixel length in value which is not part of a quoted
// string or url() literal with calc() expression. Numbers are kept as
// written, unit is dropped.
func (t *Transformer) Rewrite(value string) (string, error) {
	matches := pxPattern.FindAllStringSubmatchIndex(value, -1)
	if len(matches) == 0 {
		return value, nil
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		if m[2] < 0 {
			// string or url()
			continue
		}
		origin, num, unit := value[m[0]:m[1]], value[m[2]:m[3]], value[m[4]:m[5]]
		fallback, ok, err := t.fallback(origin, num, unit)
		if err != nil {
			return "", err
		}
		sb.WriteString(value[last:m[0]])
		sb.WriteString("calc(")
		sb.WriteString(num)
		sb.WriteString("*var(")
		sb.WriteString(t.opts.CSSVariable)
		if ok {
			sb.WriteByte(',')
			sb.WriteString(fallback)
		}
		sb.WriteString("))")
		last = m[1]
	}
	sb.WriteString(value[last:])
	return sb.String(), nil
}

// Process rewrites all eligible declarations of the stylesheet.
func (t *Transformer) Process(sheet *css.Stylesheet) (Stats, error) {
	v := t.Visitor(sheet.Source)
	if !v.active {
		t.log.Debug("Stylesheet is not selected for transformation", zap.String("source", sheet.Source))
	}
	err := sheet.WalkDecls(v.Visit)
	return v.Stats, err
}

// Visitor returns declaration visitor for stylesheet originating from source.
func (t *Transformer) Visitor(source string) *Visitor {
	v := &Visitor{t: t, source: source}
	v.active = !t.opts.Include.IsZero() && t.opts.CSSVariable != "" && source != "" && t.opts.Include.Match(source)
	return v
}

// Visitor applies transformation to declarations of a single stylesheet.
type Visitor struct {
	Stats Stats

	t      *Transformer
	source string
	active bool
}

// Active reports whether stylesheet source allows any changes at all.
func (v *Visitor) Active() bool {
	return v.active
}

// Visit is a callback for css.Stylesheet.WalkDecls, i is the position of d
// among its siblings.
func (v *Visitor) Visit(d *css.Decl, i int) error {
	v.Stats.Visited++
	for _, g := range gates {
		if g.skip(v, d) {
			v.Stats.skipped(g.id)
			return nil
		}
	}

	value, err := v.t.Rewrite(d.Value)
	if err != nil {
		return fmt.Errorf("unable to rewrite '%s' (%s:%d): %w", d.Prop, v.source, d.Line, err)
	}
	// a copy equal to the original would be visited and copied again
	if value == d.Value {
		v.Stats.Unchanged++
		return nil
	}

	if v.t.opts.Replace || d.Parent() == nil {
		v.t.log.Debug("Rewriting declaration", zap.String("source", v.source), zap.Int("line", d.Line),
			zap.String("prop", d.Prop), zap.String("from", d.Value), zap.String("to", value))
		d.Value = value
		v.Stats.Rewritten++
		return nil
	}

	v.t.log.Debug("Inserting declaration", zap.String("source", v.source), zap.Int("line", d.Line),
		zap.String("prop", d.Prop), zap.String("value", value))
	c := d.Clone()
	c.Value = value
	d.Parent().InsertAfter(i, c)
	v.Stats.Inserted++
	return nil
}

// Stats counts what happened to declarations.
type Stats struct {
	Visited   int
	Rewritten int
	Inserted  int
	Unchanged int
	Skipped   map[Gate]int
}

func (s *Stats) skipped(g Gate) {
	if s.Skipped == nil {
		s.Skipped = make(map[Gate]int)
	}
	s.Skipped[g]++
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Visited += other.Visited
	s.Rewritten += other.Rewritten
	s.Inserted += other.Inserted
	s.Unchanged += other.Unchanged
	for g, n := range other.Skipped {
		if s.Skipped == nil {
			s.Skipped = make(map[Gate]int)
		}
		s.Skipped[g] += n
	}
}

// Changed reports whether anything was modified.
func (s Stats) Changed() bool {
	return s.Rewritten > 0 || s.Inserted > 0
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (s Stats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("visited", s.Visited)
	enc.AddInt("rewritten", s.Rewritten)
	enc.AddInt("inserted", s.Inserted)
	enc.AddInt("unchanged", s.Unchanged)
	for g := GateInactive; g <= GateIgnored; g++ {
		if n := s.Skipped[g]; n > 0 {
			enc.AddInt("skipped-"+g.String(), n)
		}
	}
	return nil
}
