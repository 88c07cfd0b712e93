package book

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/takak2166/backlog2mdbook/internal/logger"
)

const indexSource = "SUMMARY.md"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="{{.Language}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<nav><a href="index.html">{{.Title}}</a></nav>
<main>
{{.Body}}
</main>
</body>
</html>
`))

type pageData struct {
	Title    string
	Language string
	Body     template.HTML
}

// linkTransformer points relative .md links at the rendered .html files
type linkTransformer struct{}

func (linkTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if link, ok := n.(*ast.Link); ok {
			link.Destination = []byte(htmlTarget(string(link.Destination)))
		}
		return ast.WalkContinue, nil
	})
}

func htmlTarget(dest string) string {
	if dest == "" || strings.Contains(dest, "://") || strings.HasPrefix(dest, "/") {
		return dest
	}
	path, fragment, _ := strings.Cut(dest, "#")
	if !strings.HasSuffix(path, ".md") {
		return dest
	}
	path = strings.TrimSuffix(path, ".md") + ".html"
	if fragment != "" {
		return path + "#" + fragment
	}
	return path
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(linkTransformer{}, 100)),
		),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
}

// Build renders src/ into book/: markdown files become HTML pages, SUMMARY.md
// becomes index.html and every other file is copied as is.
func (b *Book) Build() error {
	cfg, err := b.LoadConfig()
	if err != nil {
		return err
	}

	md := newMarkdown()
	src := b.SourceDir()
	out := b.OutputDir()

	err = filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(out, rel)

		if d.IsDir() {
			return os.MkdirAll(dest, 0755)
		}
		if !strings.HasSuffix(rel, ".md") {
			return copyFile(path, dest)
		}

		if rel == indexSource {
			dest = filepath.Join(out, "index.html")
		} else {
			dest = strings.TrimSuffix(dest, ".md") + ".html"
		}
		return renderPage(md, cfg.Book, path, dest)
	})
	if err != nil {
		return fmt.Errorf("failed to build book: %w", err)
	}

	logger.Info("Book built", logger.Fields{
		"output": out,
	})
	return nil
}

func renderPage(md goldmark.Markdown, meta Metadata, src, dest string) error {
	source, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	if err := md.Convert(source, &body); err != nil {
		return fmt.Errorf("markdown %s: %w", src, err)
	}

	var page bytes.Buffer
	data := pageData{
		Title:    meta.Title,
		Language: meta.Language,
		Body:     template.HTML(body.String()),
	}
	if err := pageTemplate.Execute(&page, data); err != nil {
		return err
	}
	return os.WriteFile(dest, page.Bytes(), 0644)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
