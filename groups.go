package psd

// NodeKind classifies a GroupNode as the synthetic tree root, a layer
// group (an `lsct` open-folder record), or an ordinary layer.
type NodeKind int

const (
	NodeKindRoot NodeKind = iota
	NodeKindGroup
	NodeKindLayer
)

// GroupNode is one entry of the document's layer/group hierarchy. Parent
// and child links are indices into the owning GroupTree's flat arena
// rather than pointers, so the tree has no reference cycles and can be
// walked or copied without special-casing.
type GroupNode struct {
	tree *GroupTree

	Kind         NodeKind
	Name         string
	RecordIndex  int // index into the Psd's full top-to-bottom layer record slice; -1 for root
	Visible      bool
	Opacity      uint8
	BlendModeKey string
	Left, Top, Right, Bottom int32

	parent   int
	children []int
}

// GroupTree is the flat arena backing every GroupNode produced by
// decodeGroupTree. Node 0 is always the root.
type GroupTree struct {
	nodes []*GroupNode
}

// Root returns the tree's synthetic root node, whose bounds span the
// whole document canvas.
func (t *GroupTree) Root() *GroupNode { return t.nodes[0] }

// Parent returns n's parent, or nil if n is the root.
func (n *GroupNode) Parent() *GroupNode {
	if n.parent < 0 {
		return nil
	}
	return n.tree.nodes[n.parent]
}

// Children returns n's immediate children in display order.
func (n *GroupNode) Children() []*GroupNode {
	out := make([]*GroupNode, len(n.children))
	for i, ci := range n.children {
		out[i] = n.tree.nodes[ci]
	}
	return out
}

// Descendants returns every node beneath n, depth-first, not including n
// itself.
func (n *GroupNode) Descendants() []*GroupNode {
	var out []*GroupNode
	for _, child := range n.Children() {
		out = append(out, child)
		out = append(out, child.Descendants()...)
	}
	return out
}

// Depth returns n's distance from the root (root is 0).
func (n *GroupNode) Depth() int {
	depth := 0
	for cur := n; cur.parent >= 0; cur = cur.Parent() {
		depth++
	}
	return depth
}

// Path returns the chain of ancestor group names from the root down to
// (but not including) n itself — the GroupPath a Layer reports.
func (n *GroupNode) Path() []string {
	var parts []string
	for cur := n.Parent(); cur != nil && cur.parent >= 0; cur = cur.Parent() {
		parts = append([]string{cur.Name}, parts...)
	}
	return parts
}

// Width and Height report n's bounding rectangle dimensions.
func (n *GroupNode) Width() int32  { return n.Right - n.Left }
func (n *GroupNode) Height() int32 { return n.Bottom - n.Top }

// decodeGroupTree walks layer records in their public top-to-bottom
// display order, maintaining a stack of open `lsct` groups so each
// non-divider record is parented correctly. It returns the tree plus a
// map from a record's index in records to its node index, so GroupPath
// lookups never need to re-walk the stack.
func decodeGroupTree(records []*layerRecord, docWidth, docHeight int32) (*GroupTree, map[int]int) {
	tree := &GroupTree{}
	root := &GroupNode{
		tree:    tree,
		Kind:    NodeKindRoot,
		Name:    "",
		RecordIndex: -1,
		Visible: true,
		Opacity: 255,
		Left:    0,
		Top:     0,
		Right:   docWidth,
		Bottom:  docHeight,
		parent:  -1,
	}
	tree.nodes = append(tree.nodes, root)

	nodeForRecord := make(map[int]int)
	stack := []int{0} // indices into tree.nodes; starts at root

	for i, rec := range records {
		switch {
		case rec.IsGroupEnd():
			if len(stack) > 1 {
				closed := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				parent := stack[len(stack)-1]
				tree.nodes[parent].children = append(tree.nodes[parent].children, closed)
			}

		case rec.IsGroupOpen():
			node := &GroupNode{
				tree:         tree,
				Kind:         NodeKindGroup,
				Name:         rec.Name,
				RecordIndex:  i,
				Visible:      rec.Visible(),
				Opacity:      rec.Opacity,
				BlendModeKey: rec.BlendModeKey,
				Left:         rec.Left,
				Top:          rec.Top,
				Right:        rec.Right,
				Bottom:       rec.Bottom,
				parent:       stack[len(stack)-1],
			}
			idx := len(tree.nodes)
			tree.nodes = append(tree.nodes, node)
			nodeForRecord[i] = idx
			stack = append(stack, idx)

		default:
			parentIdx := stack[len(stack)-1]
			node := &GroupNode{
				tree:         tree,
				Kind:         NodeKindLayer,
				Name:         rec.Name,
				RecordIndex:  i,
				Visible:      rec.Visible(),
				Opacity:      rec.Opacity,
				BlendModeKey: rec.BlendModeKey,
				Left:         rec.Left,
				Top:          rec.Top,
				Right:        rec.Right,
				Bottom:       rec.Bottom,
				parent:       parentIdx,
			}
			idx := len(tree.nodes)
			tree.nodes = append(tree.nodes, node)
			nodeForRecord[i] = idx
			tree.nodes[parentIdx].children = append(tree.nodes[parentIdx].children, idx)
		}
	}

	return tree, nodeForRecord
}
