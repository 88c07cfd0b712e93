// Package converter drives a full Backlog wiki to book conversion.
package converter

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/takak2166/backlog2mdbook/internal/backlog"
	"github.com/takak2166/backlog2mdbook/internal/book"
	"github.com/takak2166/backlog2mdbook/internal/logger"
	"github.com/takak2166/backlog2mdbook/internal/models"
	"github.com/takak2166/backlog2mdbook/internal/parser"
	"github.com/takak2166/backlog2mdbook/internal/wiki"
)

// MarkdownRule is the only text formatting rule the converter accepts
const MarkdownRule = "markdown"

// ErrUnsupportedFormattingRule is returned when the project does not use markdown
var ErrUnsupportedFormattingRule = errors.New("project text formatting rule is not markdown")

// Options controls a conversion run
type Options struct {
	ProjectKey string
	// Title is used when the book is created; empty means the project name
	Title string
	Build bool
}

// Result summarizes a finished run
type Result struct {
	Pages       int
	Attachments int
}

// Converter writes the wiki of one project into a book
type Converter struct {
	api    backlog.API
	book   *book.Book
	parser *parser.Parser
}

// New creates a new Converter
func New(api backlog.API, b *book.Book) *Converter {
	return &Converter{
		api:    api,
		book:   b,
		parser: parser.New(),
	}
}

// Run converts every wiki page of the project. Pages are processed in list
// order and the first failure aborts the run, leaving earlier output in place.
func (c *Converter) Run(ctx context.Context, opts Options) (*Result, error) {
	project, err := c.api.GetProject(ctx, opts.ProjectKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if project.TextFormattingRule != MarkdownRule {
		return nil, fmt.Errorf("%w: %s uses %q", ErrUnsupportedFormattingRule, project.ProjectKey, project.TextFormattingRule)
	}

	entries, err := c.api.GetEntries(ctx, opts.ProjectKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get wiki pages: %w", err)
	}
	logger.Info(fmt.Sprintf("Found %d pages to process", len(entries)), logger.Fields{
		"project": project.ProjectKey,
	})

	title := opts.Title
	if title == "" {
		title = project.Name
	}
	if err := c.prepare(title); err != nil {
		return nil, err
	}

	summary := wiki.RenderSummary(wiki.BuildTree(entries))
	if err := c.book.WriteSource(wiki.SummaryFile, summary); err != nil {
		return nil, err
	}

	result := &Result{}
	for _, entry := range entries {
		n, err := c.convertPage(ctx, entry)
		if err != nil {
			return result, fmt.Errorf("page %d (%s): %w", entry.ID, entry.Name, err)
		}
		result.Pages++
		result.Attachments += n
	}

	if opts.Build {
		if err := c.book.Build(); err != nil {
			return result, err
		}
	}

	logger.Info("Conversion completed", logger.Fields{
		"pages":       result.Pages,
		"attachments": result.Attachments,
		"output":      c.book.Dir(),
	})
	return result, nil
}

// prepare creates the book on first use and drops previously generated sources
func (c *Converter) prepare(title string) error {
	exists, err := c.book.Exists()
	if err != nil {
		return fmt.Errorf("failed to stat book directory: %w", err)
	}
	if !exists {
		logger.Info("Creating book", logger.Fields{
			"dir":   c.book.Dir(),
			"title": title,
		})
		if err := c.book.Init(title); err != nil {
			return err
		}
	}
	return c.book.CleanSources()
}

// convertPage writes one page and its attachments, returning the attachment count
func (c *Converter) convertPage(ctx context.Context, entry models.PageInfo) (int, error) {
	page, err := c.api.GetPage(ctx, entry.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to get page: %w", err)
	}

	attachments, err := c.api.GetAttachments(ctx, entry.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to get attachments: %w", err)
	}

	if len(attachments) > 0 {
		dir, err := c.book.AssetDir(strconv.FormatUint(uint64(entry.ID), 10))
		if err != nil {
			return 0, err
		}
		for _, a := range attachments {
			if _, err := c.api.DownloadAttachment(ctx, entry.ID, a, dir); err != nil {
				return 0, fmt.Errorf("failed to download %q: %w", a.Name, err)
			}
		}
	}

	content, err := c.parser.RewriteAttachments(page.Content, attachments, entry.ID)
	if err != nil {
		return 0, err
	}

	if err := c.book.WriteSource(wiki.PageFile(entry.ID), content); err != nil {
		return 0, err
	}

	logger.Info("Page written", logger.Fields{
		"page_id":     entry.ID,
		"name":        entry.Name,
		"attachments": len(attachments),
	})
	return len(attachments), nil
}
