package backlog

import (
	"context"

	"github.com/takak2166/backlog2mdbook/internal/models"
)

//go:generate mockgen -source=api.go -destination=mock_backlog/mock_backlog.go -package=mock_backlog
type API interface {
	GetProject(ctx context.Context, key string) (*models.Project, error)
	GetEntries(ctx context.Context, projectKey string) ([]models.PageInfo, error)
	GetPage(ctx context.Context, id uint32) (*models.Page, error)
	GetAttachments(ctx context.Context, pageID uint32) ([]models.Attachment, error)
	DownloadAttachment(ctx context.Context, pageID uint32, attachment models.Attachment, destDir string) (string, error)
}
