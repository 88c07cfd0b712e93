package backlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/takak2166/backlog2mdbook/internal/logger"
	"github.com/takak2166/backlog2mdbook/internal/models"
)

var (
	// ErrInvalidSpace is returned when the space is not a plain host name
	ErrInvalidSpace = errors.New("invalid backlog space")

	// ErrUnsafeAttachmentName is returned when an attachment name would escape its directory
	ErrUnsafeAttachmentName = errors.New("unsafe attachment name")
)

var spacePattern = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?(\.[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?)+$`)

// APIError is a non-2xx response from the Backlog API
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backlog api %s: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Client talks to the Backlog v2 REST API
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the https://<space> base URL
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// New creates a new Backlog client for the given space, e.g. "example.backlog.com"
func New(space, apiKey string, opts ...Option) (*Client, error) {
	if !spacePattern.MatchString(space) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSpace, space)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("backlog api key is not set")
	}

	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    "https://" + space,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetProject returns the project identified by key
func (c *Client) GetProject(ctx context.Context, key string) (*models.Project, error) {
	var project models.Project
	if err := c.getJSON(ctx, "/api/v2/projects/"+url.PathEscape(key), nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// GetEntries returns the wiki page list of a project
func (c *Client) GetEntries(ctx context.Context, projectKey string) ([]models.PageInfo, error) {
	var entries []models.PageInfo
	query := url.Values{"projectIdOrKey": {projectKey}}
	if err := c.getJSON(ctx, "/api/v2/wikis", query, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetPage returns a wiki page with its content
func (c *Client) GetPage(ctx context.Context, id uint32) (*models.Page, error) {
	var page models.Page
	if err := c.getJSON(ctx, fmt.Sprintf("/api/v2/wikis/%d", id), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetAttachments returns the attachments of a wiki page
func (c *Client) GetAttachments(ctx context.Context, pageID uint32) ([]models.Attachment, error) {
	var attachments []models.Attachment
	if err := c.getJSON(ctx, fmt.Sprintf("/api/v2/wikis/%d/attachments", pageID), nil, &attachments); err != nil {
		return nil, err
	}
	return attachments, nil
}

// DownloadAttachment saves an attachment as destDir/<attachment name> and returns the file path
func (c *Client) DownloadAttachment(ctx context.Context, pageID uint32, attachment models.Attachment, destDir string) (string, error) {
	if err := checkFileName(attachment.Name); err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("/api/v2/wikis/%d/attachments/%d", pageID, attachment.ID)
	resp, err := c.do(ctx, endpoint, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	dest := filepath.Join(destDir, attachment.Name)
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create attachment file: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("failed to download attachment %q: %w", attachment.Name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write attachment %q: %w", attachment.Name, err)
	}

	logger.Debug("Downloaded attachment", logger.Fields{
		"page_id":    pageID,
		"attachment": attachment.Name,
		"path":       dest,
	})

	return dest, nil
}

// checkFileName rejects names that are not a single path element
func checkFileName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrUnsafeAttachmentName, name)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, v interface{}) error {
	resp, err := c.do(ctx, endpoint, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

// do sends a GET request and returns the response if it has a 2xx status
func (c *Client) do(ctx context.Context, endpoint string, query url.Values) (*http.Response, error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	logger.Debug("Calling Backlog API", logger.Fields{
		"endpoint": endpoint,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &APIError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	return resp, nil
}
