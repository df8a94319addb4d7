package scene

import (
	"strings"
)

// Node is one element slot inside a Template's structural tree.
type Node struct {
	Element  *Element
	Children []*Node
}

// Overrides re-parameterizes a clone: relative path -> attribute ->
// replacement value. Unknown paths or attributes fail the clone.
type Overrides map[string]map[Attr][]float64

// Transform is the placement applied to an instance's root element.
type Transform struct {
	Offset [3]float64
}

// Template is a reusable structural pattern: an immutable tree of
// elements plus composed child templates. Templates are shared
// read-only; cloning and instantiation never mutate the source.
type Template struct {
	name         string
	root         *Node
	compositions []composition
}

type composition struct {
	slot  string // relative path of the attachment node
	child *Template
}

// NewTemplate creates a template whose root is a fresh element of the
// given kind.
func NewTemplate(name string, kind Kind) *Template {
	return &Template{
		name: name,
		root: &Node{Element: NewElement(name, kind)},
	}
}

// Name returns the template's name, which is also the first segment of
// every relative path inside it.
func (t *Template) Name() string { return t.name }

// Root returns the root element.
func (t *Template) Root() *Element { return t.root.Element }

// Add attaches el under the node at parentRel (e.g. "leg" for the
// root, "leg/shin" for a nested node) and returns the new element's
// relative path.
func (t *Template) Add(parentRel string, el *Element) (string, error) {
	node := t.findNode(parentRel)
	if node == nil {
		return "", PathError("add element", parentRel, ErrUnknownSlot)
	}
	if !el.Kind().Valid() {
		return "", PathError("add element", el.Name(), ErrUnknownKind)
	}
	node.Children = append(node.Children, &Node{Element: el})
	return parentRel + "/" + el.Name(), nil
}

// Compose attaches child under the node at slot. The child is held by
// reference and expanded on clone; composing must keep the template
// graph acyclic.
func (t *Template) Compose(child *Template, slot string) error {
	if child.reaches(t) {
		return PathError("compose "+child.name, slot, ErrStructuralCycle)
	}
	if t.findNode(slot) == nil {
		return PathError("compose "+child.name, slot, ErrUnknownSlot)
	}
	t.compositions = append(t.compositions, composition{slot: slot, child: child})
	return nil
}

// reaches reports whether t can reach target through its composition
// graph (including t itself).
func (t *Template) reaches(target *Template) bool {
	if t == target {
		return true
	}
	for _, c := range t.compositions {
		if c.child.reaches(target) {
			return true
		}
	}
	return false
}

// Clone expands the template (compositions included) into a fresh,
// fully materialized template with identity-distinct unbound elements,
// then applies overrides keyed by relative path.
func (t *Template) Clone(overrides Overrides) (*Template, error) {
	clone := &Template{name: t.name, root: t.expand()}
	if len(overrides) == 0 {
		return clone, nil
	}
	for rel, attrs := range overrides {
		node := clone.findNode(rel)
		if node == nil {
			return nil, PathError("clone "+t.name, rel, ErrUnknownAttribute)
		}
		for attr, value := range attrs {
			if err := node.Element.SetAttr(attr, value); err != nil {
				return nil, err
			}
		}
	}
	return clone, nil
}

// expand deep-copies the node tree and grafts every composed child
// template (recursively expanded) under its slot node.
func (t *Template) expand() *Node {
	root := expandNode(t.root)
	for _, c := range t.compositions {
		slot := findNode(root, t.name, c.slot)
		grafted := c.child.expand()
		rebaseRefs(grafted, c.slot)
		slot.Children = append(slot.Children, grafted)
	}
	return root
}

// rebaseRefs prefixes every cross-reference in a grafted subtree with
// the slot path of its new parent, keeping refs relative to the
// outermost template.
func rebaseRefs(n *Node, slot string) {
	for _, key := range refOptions {
		if val, ok := n.Element.Options[key]; ok {
			n.Element.Options[key] = slot + "/" + val
		}
	}
	for _, child := range n.Children {
		rebaseRefs(child, slot)
	}
}

func expandNode(n *Node) *Node {
	out := &Node{Element: n.Element.clone()}
	for _, child := range n.Children {
		out.Children = append(out.Children, expandNode(child))
	}
	return out
}

// findNode resolves a relative path like "leg/shin/foot" to a node.
func (t *Template) findNode(rel string) *Node {
	return findNode(t.root, t.name, rel)
}

func findNode(root *Node, rootName, rel string) *Node {
	segments := strings.Split(rel, "/")
	if len(segments) == 0 || segments[0] != rootName {
		return nil
	}
	node := root
	for _, seg := range segments[1:] {
		var next *Node
		for _, child := range node.Children {
			if child.Element.Name() == seg {
				next = child
				break
			}
		}
		if next == nil {
			return nil
		}
		node = next
	}
	return node
}

// Walk visits the expanded tree of a clone in depth-first pre-order.
func (t *Template) walk(visit func(rel, parentRel string, n *Node)) {
	var rec func(n *Node, rel, parentRel string)
	rec = func(n *Node, rel, parentRel string) {
		visit(rel, parentRel, n)
		for _, child := range n.Children {
			rec(child, rel+"/"+child.Element.Name(), rel)
		}
	}
	rec(t.root, t.name, "")
}
