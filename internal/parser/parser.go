package parser

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/takak2166/backlog2mdbook/internal/logger"
	"github.com/takak2166/backlog2mdbook/internal/models"
)

// ErrUnknownAttachmentType is returned for an attachment whose name has no extension
var ErrUnknownAttachmentType = errors.New("attachment has no file extension")

// imageExtensions are matched case-sensitively
var imageExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"svg":  true,
}

// Parser rewrites Backlog markdown so that it resolves inside the book
type Parser struct{}

// New creates a new Parser instance
func New() *Parser {
	return &Parser{}
}

// IsImage reports whether the attachment name has an image extension.
// A name with no extension cannot be classified.
func IsImage(name string) (bool, error) {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	if ext == "" {
		return false, fmt.Errorf("%w: %q", ErrUnknownAttachmentType, name)
	}
	return imageExtensions[ext], nil
}

// Marker returns the Backlog image reference for an attachment
func Marker(name string) string {
	return "![image][" + name + "]"
}

// ImageLink returns the markdown image link to the downloaded copy of an attachment
func ImageLink(pageID uint32, name string) string {
	return fmt.Sprintf("![%s](%d/%s)", name, pageID, name)
}

// RewriteAttachments replaces every image marker of an image attachment with a
// link relative to the page file. Attachments must already be downloaded into
// the <pageID>/ directory next to the page file.
func (p *Parser) RewriteAttachments(content string, attachments []models.Attachment, pageID uint32) (string, error) {
	for _, a := range attachments {
		image, err := IsImage(a.Name)
		if err != nil {
			return "", err
		}
		if !image {
			continue
		}

		marker := Marker(a.Name)
		if !strings.Contains(content, marker) {
			continue
		}

		logger.Debug("Rewriting image reference", logger.Fields{
			"page_id":    pageID,
			"attachment": a.Name,
		})
		content = strings.ReplaceAll(content, marker, ImageLink(pageID, a.Name))
	}

	return content, nil
}
