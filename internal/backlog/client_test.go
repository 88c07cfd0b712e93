package backlog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/takak2166/backlog2mdbook/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New("example.backlog.com", "test_key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return c
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		space       string
		apiKey      string
		expectError bool
	}{
		{name: "Valid space", space: "example.backlog.com", apiKey: "key"},
		{name: "Valid jp space", space: "my-team.backlog.jp", apiKey: "key"},
		{name: "Missing domain", space: "example", apiKey: "key", expectError: true},
		{name: "Scheme included", space: "https://example.backlog.com", apiKey: "key", expectError: true},
		{name: "Path included", space: "example.backlog.com/api", apiKey: "key", expectError: true},
		{name: "Empty space", space: "", apiKey: "key", expectError: true},
		{name: "Missing API key", space: "example.backlog.com", apiKey: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.space, tt.apiKey)
			if tt.expectError {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if client == nil {
				t.Error("Expected client, got nil")
			}
		})
	}

	if _, err := New("bad space", "key"); !errors.Is(err, ErrInvalidSpace) {
		t.Errorf("Expected ErrInvalidSpace, got %v", err)
	}
}

func TestGetProject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/projects/DOCS" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("apiKey") != "test_key" {
			t.Errorf("Expected apiKey query parameter, got %q", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"id":12,"projectKey":"DOCS","name":"Docs","textFormattingRule":"markdown"}`)
	})

	project, err := c.GetProject(context.Background(), "DOCS")
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	want := models.Project{ID: 12, ProjectKey: "DOCS", Name: "Docs", TextFormattingRule: "markdown"}
	if *project != want {
		t.Errorf("GetProject() = %+v, want %+v", *project, want)
	}
}

func TestGetEntries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/wikis" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("projectIdOrKey"); got != "DOCS" {
			t.Errorf("Expected projectIdOrKey=DOCS, got %q", got)
		}
		fmt.Fprint(w, `[{"id":1,"name":"Home","tags":[]},{"id":2,"name":"Guide/Install"}]`)
	})

	entries, err := c.GetEntries(context.Background(), "DOCS")
	if err != nil {
		t.Fatalf("GetEntries() error = %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "Home" || entries[1].ID != 2 {
		t.Errorf("Unexpected entries %+v", entries)
	}
}

func TestGetPage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/wikis/42" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{
			"id": 42,
			"projectId": 12,
			"name": "Guide/Install",
			"content": "![image][pic.png]",
			"attachments": [{"id": 3, "name": "pic.png", "size": 120}],
			"sharedFiles": [{"id": 8, "projectId": 12, "type": "file", "dir": "/", "name": "a.txt", "size": 4}]
		}`)
	})

	page, err := c.GetPage(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetPage() error = %v", err)
	}
	if page.ID != 42 || page.ProjectID != 12 || page.Content != "![image][pic.png]" {
		t.Errorf("Unexpected page %+v", page)
	}
	if len(page.Attachments) != 1 || page.Attachments[0].Size != 120 {
		t.Errorf("Unexpected attachments %+v", page.Attachments)
	}
	if len(page.SharedFiles) != 1 || page.SharedFiles[0].Type != "file" {
		t.Errorf("Unexpected shared files %+v", page.SharedFiles)
	}
}

func TestAPIErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  int
	}{
		{
			name: "Non-success status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"errors":[{"message":"No project."}]}`, http.StatusNotFound)
			},
			status: http.StatusNotFound,
		},
		{
			name: "Malformed JSON",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `[{"id":`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.GetAttachments(context.Background(), 1)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}

			var apiErr *APIError
			if tt.status != 0 {
				if !errors.As(err, &apiErr) || apiErr.StatusCode != tt.status {
					t.Errorf("Expected APIError with status %d, got %v", tt.status, err)
				}
			} else if errors.As(err, &apiErr) {
				t.Errorf("Expected decode error, got %v", err)
			}
		})
	}
}

func TestDownloadAttachment(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/wikis/42/attachments/3" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		fmt.Fprint(w, "PNGDATA")
	})

	dir := t.TempDir()
	path, err := c.DownloadAttachment(context.Background(), 42, models.Attachment{ID: 3, Name: "pic.png"}, dir)
	if err != nil {
		t.Fatalf("DownloadAttachment() error = %v", err)
	}
	if path != filepath.Join(dir, "pic.png") {
		t.Errorf("Unexpected path %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read downloaded file: %v", err)
	}
	if string(data) != "PNGDATA" {
		t.Errorf("Unexpected content %q", data)
	}
}

func TestDownloadAttachmentUnsafeName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("Unexpected request for unsafe attachment")
	})

	for _, name := range []string{"../escape.png", "a/b.png", `a\b.png`, "..", ""} {
		_, err := c.DownloadAttachment(context.Background(), 1, models.Attachment{ID: 1, Name: name}, t.TempDir())
		if !errors.Is(err, ErrUnsafeAttachmentName) {
			t.Errorf("DownloadAttachment(%q) error = %v, want ErrUnsafeAttachmentName", name, err)
		}
	}
}
