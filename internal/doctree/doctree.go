package doctree

import "github.com/dgallion1/sefreader/internal/sef"

// DocTree is the root of an analyzed story.
type DocTree struct {
	Title    string     // Story title (from filename)
	Children []*DocNode // Top-level outline entries
}

// DocNode is one outline entry and the chapter paired with it.
type DocNode struct {
	Title       string     // Outline title
	Text        string     // Chapter content (placeholder text when missing)
	Level       int        // Outline level as written in the file
	Chapter     int        // Index into the chapter list
	Placeholder bool       // No document was paired with this entry
	Children    []*DocNode // Deeper entries that follow this one
}

// Chunk is a page of chapter text with its outline context.
type Chunk struct {
	Text       string   // Page text
	Index      int      // Sequence number within the story
	Chapter    int      // Chapter the page belongs to
	Page       int      // Page number within the chapter, from 0
	Breadcrumb []string // Outline path, e.g. ["第一部", "第1章"]
}

// Build nests chapters by level. A chapter's parent is the closest earlier
// chapter at the nearest smaller level; a shallower entry closes every open
// deeper one. Levels may skip, so a level-3 entry directly under a level-1
// entry is still its child.
func Build(title string, chapters []sef.Chapter) *DocTree {
	tree := &DocTree{Title: title}
	open := map[int]*DocNode{}

	for i, ch := range chapters {
		node := &DocNode{
			Title:       ch.Title,
			Text:        ch.Content,
			Level:       ch.Level,
			Chapter:     i,
			Placeholder: ch.IsPlaceholder(),
		}

		var parent *DocNode
		for lvl := ch.Level - 1; lvl >= 0; lvl-- {
			if p, ok := open[lvl]; ok {
				parent = p
				break
			}
		}
		if parent == nil {
			tree.Children = append(tree.Children, node)
		} else {
			parent.Children = append(parent.Children, node)
		}

		open[ch.Level] = node
		for lvl := range open {
			if lvl > ch.Level {
				delete(open, lvl)
			}
		}
	}
	return tree
}

// Walk visits every node in document order. The breadcrumb passed to fn
// ends with the node's own title and must not be retained.
func (t *DocTree) Walk(fn func(n *DocNode, depth int, breadcrumb []string)) {
	var visit func(nodes []*DocNode, depth int, bc []string)
	visit = func(nodes []*DocNode, depth int, bc []string) {
		for _, n := range nodes {
			path := append(bc, n.Title)
			fn(n, depth, path)
			visit(n.Children, depth+1, path)
		}
	}
	visit(t.Children, 0, nil)
}

// Len returns the number of nodes in the tree.
func (t *DocTree) Len() int {
	n := 0
	t.Walk(func(*DocNode, int, []string) { n++ })
	return n
}
