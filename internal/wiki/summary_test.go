package wiki

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/takak2166/backlog2mdbook/internal/models"
)

func TestRenderSummary(t *testing.T) {
	tests := []struct {
		name     string
		pages    []models.PageInfo
		expected string
	}{
		{
			name:     "No pages",
			expected: "# Summary\n\n",
		},
		{
			name: "Indentation per depth",
			pages: []models.PageInfo{
				{ID: 1, Name: "a"},
				{ID: 2, Name: "a/b"},
				{ID: 3, Name: "a/b/c"},
			},
			expected: "# Summary\n\n" +
				"- [a](1.md)\n" +
				"  - [b](2.md)\n" +
				"    - [c](3.md)\n",
		},
		{
			name: "Structural node has empty target",
			pages: []models.PageInfo{
				{ID: 10, Name: "Guide/Install"},
				{ID: 11, Name: "Home"},
				{ID: 12, Name: "Guide/Usage"},
			},
			expected: "# Summary\n\n" +
				"- [Guide]()\n" +
				"  - [Install](10.md)\n" +
				"  - [Usage](12.md)\n" +
				"- [Home](11.md)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderSummary(BuildTree(tt.pages))
			if got != tt.expected {
				t.Errorf("RenderSummary() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestRenderSummaryDeterministic(t *testing.T) {
	pages := []models.PageInfo{
		{ID: 3, Name: "b/c"},
		{ID: 1, Name: "a"},
		{ID: 2, Name: "b"},
		{ID: 4, Name: "b/c/d"},
	}

	first := RenderSummary(BuildTree(pages))
	second := RenderSummary(BuildTree(pages))
	if first != second {
		t.Errorf("Expected identical output, got %q and %q", first, second)
	}
}

func TestRenderSummaryContainsEveryPageOnce(t *testing.T) {
	pages := []models.PageInfo{
		{ID: 1, Name: "Home"},
		{ID: 2, Name: "Spec/API/v1"},
		{ID: 3, Name: "Spec/API"},
		{ID: 4, Name: "Spec/DB"},
		{ID: 5, Name: "Notes/2024/01"},
		{ID: 6, Name: "Notes/2024/02"},
	}

	summary := RenderSummary(BuildTree(pages))
	links := regexp.MustCompile(`\]\((\d+)\.md\)`).FindAllStringSubmatch(summary, -1)

	seen := map[string]int{}
	for _, m := range links {
		seen[m[1]]++
	}
	if len(seen) != len(pages) {
		t.Errorf("Expected %d distinct ids, got %d in %q", len(pages), len(seen), summary)
	}
	for _, p := range pages {
		if n := seen[fmt.Sprint(p.ID)]; n != 1 {
			t.Errorf("Expected page %d exactly once, got %d", p.ID, n)
		}
	}
}
