package scene

import "strings"

// Registrar is the narrow slice of a World that instantiation needs.
// Instantiation only touches the pending (pre-compile) element set; it
// never reaches the engine.
type Registrar interface {
	// HasPath reports whether a qualified path already exists.
	HasPath(path string) bool

	// Register commits an instance's elements to the pending set.
	Register(inst *Instance) error
}

// Instance is one concrete placement of a Template: fresh elements
// with qualified paths, owned by exactly one World.
type Instance struct {
	Prefix    string
	Source    *Template
	Placement Transform
	Elements  []*Element // depth-first pre-order
}

// Instantiate clones the template, qualifies every element path as
// prefix plus the template-relative path, applies the placement
// transform to the root, and registers the result with reg. The
// template itself is left untouched.
func (t *Template) Instantiate(reg Registrar, placement Transform, prefix string) (*Instance, error) {
	clone, err := t.Clone(nil)
	if err != nil {
		return nil, err
	}

	inst := &Instance{Prefix: prefix, Source: t, Placement: placement}
	seen := make(map[string]struct{})
	clone.walk(func(rel, parentRel string, n *Node) {
		if err != nil {
			return
		}
		path := qualify(prefix, t.name, rel)
		if _, dup := seen[path]; dup {
			err = PathError("instantiate "+t.name, path, ErrDuplicatePath)
			return
		}
		if reg.HasPath(path) {
			err = PathError("instantiate "+t.name, path, ErrDuplicatePath)
			return
		}
		seen[path] = struct{}{}
		n.Element.SetPath(path)
		if parentRel != "" {
			n.Element.SetParentPath(qualify(prefix, t.name, parentRel))
		}
		qualifyRefs(n.Element, prefix, t.name)
		inst.Elements = append(inst.Elements, n.Element)
	})
	if err != nil {
		return nil, err
	}

	applyPlacement(inst.Elements[0], placement)
	if err := reg.Register(inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// refOptions are the option keys holding template-relative paths that
// must follow the instance prefix.
var refOptions = []string{"joint", "site", "body", "target"}

// qualifyRefs rewrites template-relative cross-references so they point
// inside this instance.
func qualifyRefs(el *Element, prefix, rootName string) {
	for _, key := range refOptions {
		val, ok := el.Options[key]
		if !ok {
			continue
		}
		if val == rootName || strings.HasPrefix(val, rootName+"/") {
			el.Options[key] = qualify(prefix, rootName, val)
		}
	}
}

// qualify replaces the template-name segment of rel with prefix:
// ("leg0", "leg", "leg/hip") -> "leg0/hip".
func qualify(prefix, rootName, rel string) string {
	if rel == rootName {
		return prefix
	}
	return prefix + strings.TrimPrefix(rel, rootName)
}

func applyPlacement(root *Element, placement Transform) {
	if placement.Offset == [3]float64{} {
		return
	}
	pos := root.Attr(AttrPos)
	if len(pos) < 3 {
		pos = make([]float64, 3)
	}
	shifted := []float64{
		pos[0] + placement.Offset[0],
		pos[1] + placement.Offset[1],
		pos[2] + placement.Offset[2],
	}
	root.Attrs[AttrPos] = shifted
}
