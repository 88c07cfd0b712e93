// Package wiki turns the flat Backlog wiki page list into a page tree and
// renders it as an mdBook SUMMARY.md.
package wiki

import (
	"strings"

	"github.com/takak2166/backlog2mdbook/internal/models"
)

// Separator splits a wiki page name into path segments
const Separator = "/"

// Node is a single path segment of the page tree.
// ID is nil for a segment that only exists as a parent of other pages.
type Node struct {
	ID       *uint32
	Name     string
	Children []*Node
}

// HasPage reports whether the node corresponds to an actual wiki page
func (n *Node) HasPage() bool {
	return n.ID != nil
}

// BuildTree builds the page forest from pages in input order.
// Siblings keep first-occurrence order; a page whose full name repeats an
// earlier one overwrites the earlier id.
func BuildTree(pages []models.PageInfo) []*Node {
	var roots []*Node
	for _, page := range pages {
		roots = insert(roots, strings.Split(page.Name, Separator), page.ID)
	}
	return roots
}

func insert(siblings []*Node, segments []string, id uint32) []*Node {
	name := segments[0]
	node := find(siblings, name)
	if node == nil {
		node = &Node{Name: name}
		siblings = append(siblings, node)
	}

	if len(segments) == 1 {
		pageID := id
		node.ID = &pageID
		return siblings
	}

	node.Children = insert(node.Children, segments[1:], id)
	return siblings
}

// find returns the first sibling with the given name
func find(siblings []*Node, name string) *Node {
	for _, n := range siblings {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// Walk visits every node depth-first in pre-order
func Walk(roots []*Node, fn func(n *Node, depth int)) {
	walk(roots, 0, fn)
}

func walk(nodes []*Node, depth int, fn func(n *Node, depth int)) {
	for _, n := range nodes {
		fn(n, depth)
		walk(n.Children, depth+1, fn)
	}
}
