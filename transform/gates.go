package transform

import (
	"strings"

	"px2var/css"
)

// Gate identifies the check which excluded a declaration from rewriting.
type Gate int

const (
	// GateInactive - include pattern or css variable is not set, or source
	// does not match include pattern.
	GateInactive Gate = iota
	// GateNoPixels - value has no "px" in it.
	GateNoPixels
	// GateHasVariable - value or property already references the variable.
	GateHasVariable
	// GateSelector - enclosing rule selector is blacklisted.
	GateSelector
	// GateProp - property is blacklisted.
	GateProp
	// GateIgnored - declaration is marked with ignore identifier.
	GateIgnored
)

func (g Gate) String() string {
	switch g {
	case GateInactive:
		return "inactive"
	case GateNoPixels:
		return "no-px"
	case GateHasVariable:
		return "has-variable"
	case GateSelector:
		return "selector-blacklist"
	case GateProp:
		return "prop-blacklist"
	case GateIgnored:
		return "ignore-identifier"
	default:
		return "unknown"
	}
}

type gate struct {
	id   Gate
	skip func(v *Visitor, d *css.Decl) bool
}

// gates are evaluated in order, first one to fire leaves declaration alone.
var gates = []gate{
	{GateInactive, func(v *Visitor, _ *css.Decl) bool {
		return !v.active
	}},
	{GateNoPixels, func(_ *Visitor, d *css.Decl) bool {
		return !strings.Contains(d.Value, "px")
	}},
	{GateHasVariable, func(v *Visitor, d *css.Decl) bool {
		name := v.t.opts.CSSVariable
		return strings.Contains(d.Value, name) || strings.Contains(d.Prop, name)
	}},
	{GateSelector, func(v *Visitor, d *css.Decl) bool {
		sel, ok := d.Selector()
		return ok && matchAny(v.t.opts.SelectorBlackList, sel)
	}},
	{GateProp, func(v *Visitor, d *css.Decl) bool {
		return matchAny(v.t.opts.PropBlackList, d.Prop)
	}},
	{GateIgnored, func(v *Visitor, d *css.Decl) bool {
		id := v.t.opts.IgnoreIdentifier
		if id == "" {
			return false
		}
		if strings.Contains(d.Value, id) {
			return true
		}
		c, ok := d.Next().(*css.Comment)
		return ok && c.Text == id
	}},
}
