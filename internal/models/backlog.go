package models

// Project represents a Backlog project
type Project struct {
	ID                 uint32 `json:"id"`
	ProjectKey         string `json:"projectKey"`
	Name               string `json:"name"`
	TextFormattingRule string `json:"textFormattingRule"`
}

// PageInfo is an entry of the wiki page list
type PageInfo struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

// Page represents a Backlog wiki page with its content
type Page struct {
	ID          uint32       `json:"id"`
	ProjectID   uint64       `json:"projectId"`
	Name        string       `json:"name"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments"`
	SharedFiles []SharedFile `json:"sharedFiles"`
}

// Attachment is a file attached to a wiki page
type Attachment struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// SharedFile is a project shared file linked from a wiki page
type SharedFile struct {
	ID        uint32 `json:"id"`
	ProjectID uint32 `json:"projectId"`
	Type      string `json:"type"`
	Dir       string `json:"dir"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
}
