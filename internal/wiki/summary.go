package wiki

import (
	"fmt"
	"strings"
)

const (
	// SummaryFile is the name mdBook reads its table of contents from
	SummaryFile = "SUMMARY.md"

	summaryHeading = "# Summary"
	indentUnit     = "  "
)

// PageFile returns the markdown file name of a page
func PageFile(id uint32) string {
	return fmt.Sprintf("%d.md", id)
}

// RenderSummary renders the tree as a nested markdown link list.
// Nodes without a page are emitted with an empty link target, which mdBook
// shows as a draft chapter.
func RenderSummary(roots []*Node) string {
	var md strings.Builder

	md.WriteString(summaryHeading + "\n\n")

	Walk(roots, func(n *Node, depth int) {
		target := ""
		if n.HasPage() {
			target = PageFile(*n.ID)
		}
		md.WriteString(fmt.Sprintf("%s- [%s](%s)\n", strings.Repeat(indentUnit, depth), n.Name, target))
	})

	return md.String()
}
