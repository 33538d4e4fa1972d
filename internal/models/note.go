// Package models defines the domain types for quire.
package models

import "time"

// GuestUserID is the placeholder owner stamped on every entity.
const GuestUserID = "00000000-0000-0000-0000-000000000000"

// Entity is anything stored in a collection and addressed by identifier.
type Entity interface {
	EntityID() string
}

// Note is a rich-text note. Content is opaque editor markup.
type Note struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	FolderID   string    `json:"folder_id,omitempty"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	UserID     string    `json:"user_id"`
	IsFavorite bool      `json:"is_favorite"`
	SharedWith []string  `json:"shared_with"`
}

// EntityID implements Entity.
func (n Note) EntityID() string { return n.ID }

// Folder groups notes and PDFs. IsTrashed and DeletedAt are only set while
// the folder lives in the trash collection.
type Folder struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Color     string     `json:"color"`
	UserID    string     `json:"user_id"`
	IsTrashed bool       `json:"is_trashed,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// EntityID implements Entity.
func (f Folder) EntityID() string { return f.ID }

// PDF references an imported document. URL is only valid for the lifetime
// of the process that produced it.
type PDF struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	FolderID  string    `json:"folder_id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// EntityID implements Entity.
func (p PDF) EntityID() string { return p.ID }

// Template is a seeded blueprint for new notes.
type Template struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Content     string `json:"content"`
}

// EntityID implements Entity.
func (t Template) EntityID() string { return t.ID }
