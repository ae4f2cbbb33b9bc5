package css

import (
	"strings"
)

// writeBody writes children of a container followed by its trailing
// whitespace. Semicolon is written after every declaration and block-less
// at-rule except the last one, which gets it only if it had one in the source.
func writeBody(sb *strings.Builder, b *block) {
	last := -1
	for i, n := range b.nodes {
		if n.Kind() != KindComment {
			last = i
		}
	}
	for i, n := range b.nodes {
		sb.WriteString(n.Before())
		writeNode(sb, n, i != last || b.semicolon)
	}
	sb.WriteString(b.after)
}

func writeNode(sb *strings.Builder, n Node, semicolon bool) {
	switch n := n.(type) {
	case *Decl:
		sb.WriteString(n.Prop)
		sb.WriteString(n.between)
		sb.WriteString(n.rawValue.pick(n.Value))
		if n.Important {
			if n.rawImportant != "" {
				sb.WriteString(n.rawImportant)
			} else {
				sb.WriteString(" !important")
			}
		}
		if semicolon {
			sb.WriteByte(';')
		}
	case *Rule:
		sb.WriteString(n.rawSelector.pick(n.Selector))
		sb.WriteString(n.between)
		sb.WriteByte('{')
		writeBody(sb, &n.block)
		sb.WriteByte('}')
	case *AtRule:
		sb.WriteByte('@')
		sb.WriteString(n.Name)
		sb.WriteString(n.afterName)
		sb.WriteString(n.rawParams.pick(n.Params))
		sb.WriteString(n.between)
		if n.hasBlock {
			sb.WriteByte('{')
			writeBody(sb, &n.block)
			sb.WriteByte('}')
		} else if semicolon {
			sb.WriteByte(';')
		}
	case *Comment:
		sb.WriteString("/*")
		sb.WriteString(n.left)
		sb.WriteString(n.Text)
		sb.WriteString(n.right)
		sb.WriteString("*/")
	}
}
