package css

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// Tree returns printable representation of the stylesheet structure.
func (s *Stylesheet) Tree() treeprint.Tree {
	root := treeprint.NewWithRoot(s.Source)
	if s.Source == "" {
		root.SetValue("<stylesheet>")
	}
	dumpNodes(root, s)
	return root
}

func dumpNodes(t treeprint.Tree, c Container) {
	for _, n := range c.Nodes() {
		switch n := n.(type) {
		case *Rule:
			dumpNodes(t.AddMetaBranch(n.Kind(), n.Selector), n)
		case *AtRule:
			label := "@" + n.Name
			if n.Params != "" {
				label += " " + n.Params
			}
			if n.hasBlock {
				dumpNodes(t.AddMetaBranch(n.Kind(), label), n)
			} else {
				t.AddMetaNode(n.Kind(), label)
			}
		case *Decl:
			label := fmt.Sprintf("%s: %s", n.Prop, n.Value)
			if n.Important {
				label += " !important"
			}
			t.AddMetaNode(n.Kind(), label)
		case *Comment:
			t.AddMetaNode(n.Kind(), n.Text)
		}
	}
}
