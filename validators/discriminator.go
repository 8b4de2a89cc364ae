package validators

// Branch is the target of one discriminator value: either a Terminal or a
// nested *DiscriminatorNode.
type Branch interface {
	branch()
}

// Terminal is a branch that ends in the compiled check of a concrete subtype.
type Terminal struct {
	Check CompiledCheck
}

func (Terminal) branch() {}

// DiscriminatorNode is one level of a discriminator decision tree.
type DiscriminatorNode struct {
	// Field is the property whose value selects the branch
	Field string
	// AllowedValues lists the branch labels in declaration order
	AllowedValues []string
	// Branches maps each allowed value to its target
	Branches map[string]Branch
}

func (*DiscriminatorNode) branch() {}

// Depth returns the number of discriminator levels below and including n.
func (n *DiscriminatorNode) Depth() int {
	deepest := 0
	for _, b := range n.Branches {
		if child, ok := b.(*DiscriminatorNode); ok {
			deepest = max(deepest, child.Depth())
		}
	}
	return deepest + 1
}

// DiscriminatorValidator validates data by walking a discriminator tree
// until it reaches the compiled check of the selected subtype.
type DiscriminatorValidator struct {
	lastErrors
	Root *DiscriminatorNode
}

// NewDiscriminator returns a validator over the tree rooted at root.
func NewDiscriminator(root *DiscriminatorNode) *DiscriminatorValidator {
	return &DiscriminatorValidator{Root: root}
}

// Validate implements Validator.
func (v *DiscriminatorValidator) Validate(data any) bool {
	return v.record(v.check(data))
}

func (v *DiscriminatorValidator) check(data any) []ValidationError {
	node := v.Root
	for node != nil {
		label, ok := discriminatorValue(data, node.Field)
		target, found := node.Branches[label]
		if !ok || !found {
			return []ValidationError{unknownDiscriminatorValue(node)}
		}
		switch b := target.(type) {
		case Terminal:
			if b.Check == nil {
				return nil
			}
			return b.Check(data)
		case *DiscriminatorNode:
			node = b
		default:
			return nil
		}
	}
	return nil
}

// discriminatorValue reads the discriminator field of an object. Only
// string values can select a branch.
func discriminatorValue(data any, field string) (string, bool) {
	obj, ok := data.(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := obj[field].(string)
	return s, ok
}

// unknownDiscriminatorValue reports a discriminator value outside the
// node's allowed set with the shape of an enum keyword failure.
func unknownDiscriminatorValue(node *DiscriminatorNode) ValidationError {
	allowed := make([]any, len(node.AllowedValues))
	for i, s := range node.AllowedValues {
		allowed[i] = s
	}
	return ValidationError{
		DataPath:   PropertyPath(node.Field),
		Keyword:    "enum",
		Message:    "should be equal to one of the allowed values",
		Params:     map[string]any{"allowedValues": allowed},
		SchemaPath: "#/properties/" + node.Field + "/enum",
	}
}
